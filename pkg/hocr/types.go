package hocr

// HOCR represents a parsed hOCR document
type HOCR struct {
	Title    string            // Document title
	Language string            // Document language
	Metadata map[string]string // ocr-system, ocr-capabilities, ocr-langs, ...
	Pages    []Page            // Pages in document order
}

// Page is one page of recognized text
// Corresponds to hOCR element with class: 'ocr_page'
type Page struct {
	ID         string      // Unique identifier
	PageNumber int         // 'ppageno' title property
	ImageName  string      // 'image' title property
	BBox       BoundingBox // Page coordinates
	Lines      []Line      // All lines of the page, in document order
}

// Line is a line of text
// Corresponds to hOCR elements with class 'ocr_line', 'ocr_caption',
// 'ocr_header' or 'ocr_textfloat'. Words found outside of any line are
// wrapped in a Line without an ID so that document order is kept.
type Line struct {
	ID       string      // Unique identifier
	BBox     BoundingBox // Line coordinates
	Baseline string      // Baseline information
	Words    []Word      // Words in this line
}

// Word is a recognized word with bounding box
// Corresponds to hOCR element with class: 'ocrx_word'
type Word struct {
	ID         string      // Unique identifier
	Text       string      // The actual text content
	BBox       BoundingBox // Word coordinates
	Confidence float64     // Recognition confidence (0-100)
	Lang       string      // Language code
}

// BoundingBox represents a rectangle in image pixels
// Used to store hOCR 'bbox' property values
type BoundingBox struct {
	X1 float64 // Left coordinate
	Y1 float64 // Top coordinate
	X2 float64 // Right coordinate
	Y2 float64 // Bottom coordinate
}

// NewBoundingBox creates a bounding box from the x1, y1, x2, y2 order used
// by the hOCR 'bbox' property.
func NewBoundingBox(x1, y1, x2, y2 float64) BoundingBox {
	return BoundingBox{X1: x1, Y1: y1, X2: x2, Y2: y2}
}

// Width of the box
func (b BoundingBox) Width() float64 { return b.X2 - b.X1 }

// Height of the box
func (b BoundingBox) Height() float64 { return b.Y2 - b.Y1 }
