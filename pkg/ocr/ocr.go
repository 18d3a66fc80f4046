// Package ocr finds labels on rendered drawing pages.
//
// An Engine turns a page image into tokens, each with the pixel box it was
// read from, in the order the engine reports them. The Locator scans those
// tokens for the n-th one whose text contains a keyword; on assembly
// drawings the first "part" is the page heading and the second one is the
// part list label, whose top edge marks where the drawing ends.
package ocr

import (
	"context"
	"fmt"
	"image"
	"math"

	"github.com/gardar/asmxl/pkg/hocr"
)

// BoundingBox is a token's position in image pixels, top-left origin
type BoundingBox struct {
	Left   int
	Top    int
	Width  int
	Height int
}

// Bottom returns the y coordinate just below the box
func (b BoundingBox) Bottom() int { return b.Top + b.Height }

// Token is one recognized piece of text
type Token struct {
	Text       string
	Box        BoundingBox
	Confidence float64 // 0-100, zero when the engine does not report it
}

// Engine recognizes text on an image.
// Implementations must honour ctx cancellation where the backend allows it.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, img image.Image) ([]Token, error)
}

// EngineError reports a failing or unavailable OCR engine
type EngineError struct {
	Engine string
	Err    error
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("ocr engine %s: %v", e.Engine, e.Err)
}

func (e *EngineError) Unwrap() error { return e.Err }

// TokensFromHOCR flattens an hOCR page into tokens in document order.
// Boxes are rounded to whole pixels.
func TokensFromHOCR(page hocr.Page) []Token {
	words := page.Words()
	tokens := make([]Token, 0, len(words))
	for _, w := range words {
		left := int(math.Round(w.BBox.X1))
		top := int(math.Round(w.BBox.Y1))
		tokens = append(tokens, Token{
			Text: w.Text,
			Box: BoundingBox{
				Left:   left,
				Top:    top,
				Width:  int(math.Round(w.BBox.X2)) - left,
				Height: int(math.Round(w.BBox.Y2)) - top,
			},
			Confidence: w.Confidence,
		})
	}
	return tokens
}
