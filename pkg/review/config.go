package review

// Config holds options for the review report
type Config struct {
	Debug     bool   // show the OCR text in red instead of hiding it
	LayerName string // base name of the OCR text layer; the page number is appended
	Font      FontConfig
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() Config {
	return Config{
		LayerName: "OCR Text", // "OCR Text (Page X)" in the final PDF
		Font:      DefaultFont,
	}
}

// FontConfig contains font settings for OCR text rendering
type FontConfig struct {
	Name        string  // Font name (e.g., "Helvetica")
	Style       string  // Font style ("", "B", "I", "BI")
	Size        float64 // Default font size
	AscentRatio float64 // Vertical positioning ratio
}

// DefaultFont is Helvetica, a core PDF font that needs no embedding
var DefaultFont = FontConfig{
	Name:        "Helvetica",
	Style:       "",
	Size:        10,
	AscentRatio: 0.718,
}
