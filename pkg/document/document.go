// Package document opens PDF documents and selects the pages that carry a
// target phrase.
//
// A Document exposes what the drawing pipeline needs from a PDF: the page
// count, each page's plain text, and a raster rendering of each page. Pages
// are addressed by 0-based index throughout.
package document

import "image"

// DefaultDPI renders one pixel per PDF point, so OCR coordinates and crop
// heights are in page units.
const DefaultDPI = 72.0

// Document is an opened, read-only document
type Document interface {
	PageCount() int
	PageText(index int) (string, error)
	RenderPage(index int) (*image.RGBA, error)
	Close() error
}

// Options control how a document is opened
type Options struct {
	DPI float64 // rendering resolution; DefaultDPI when zero
}

// OpenError reports a document that is missing, corrupt or not a PDF
type OpenError struct {
	Path string
	Err  error
}

func (e *OpenError) Error() string {
	return "open document " + e.Path + ": " + e.Err.Error()
}

func (e *OpenError) Unwrap() error { return e.Err }
