// Package review builds a PDF that shows how each drawing page was cut.
//
// Every matched page is drawn as the image the OCR engine saw. Tokens that
// contain the label keyword are outlined (orange, or red for the one that
// was used), the crop line is drawn in blue across the page, and all
// recognized text is laid over the image on a hidden, searchable layer.
package review

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"codeberg.org/go-pdf/fpdf"

	"github.com/gardar/asmxl/pkg/ocr"
)

// Page is one matched page and what OCR found on it
type Page struct {
	Number   int // 1-based
	Image    image.Image
	Keyword  string
	Location ocr.Location
}

// Report accumulates pages; pages are rendered as they are added
type Report struct {
	cfg   Config
	pdf   *fpdf.Fpdf
	pages int
}

// New returns an empty report
func New(cfg Config) *Report {
	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetTitle("Assembly drawing crop review", true)
	return &Report{cfg: cfg, pdf: pdf}
}

// Config returns the options the report was created with
func (r *Report) Config() Config { return r.cfg }

// Pages returns the number of pages added so far
func (r *Report) Pages() int { return r.pages }

// AddPage renders p as a new page sized to its image, one point per pixel
func (r *Report) AddPage(p Page) error {
	if p.Image == nil {
		return fmt.Errorf("page %d: no image", p.Number)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, p.Image); err != nil {
		return fmt.Errorf("page %d: failed to encode image: %w", p.Number, err)
	}

	b := p.Image.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())
	r.pdf.AddPageFormat("P", fpdf.SizeType{Wd: w, Ht: h})

	imageName := fmt.Sprintf("page%d", p.Number)
	opts := fpdf.ImageOptions{ImageType: "PNG"}
	r.pdf.RegisterImageOptionsReader(imageName, opts, &buf)
	r.pdf.ImageOptions(imageName, 0, 0, w, h, false, opts, 0, "")

	r.pdf.SetLineWidth(1)
	for i, tok := range p.Location.Tokens {
		if !ocr.Qualifies(tok.Text, p.Keyword) {
			continue
		}
		if p.Location.Found && i == p.Location.Index {
			r.pdf.SetDrawColor(255, 0, 0)
		} else {
			r.pdf.SetDrawColor(255, 165, 0)
		}
		box := tok.Box
		r.pdf.Rect(float64(box.Left), float64(box.Top), float64(box.Width), float64(box.Height), "D")
	}
	if p.Location.Found {
		y := float64(p.Location.Box().Top)
		r.pdf.SetDrawColor(0, 0, 255)
		r.pdf.SetDashPattern([]float64{4, 2}, 0)
		r.pdf.Line(0, y, w, y)
		r.pdf.SetDashPattern(nil, 0)
	}
	r.pdf.SetDrawColor(0, 0, 0)

	err := drawOCRLayer(r.pdf, p.Location.Tokens, r.cfg.Debug, r.cfg.LayerName, p.Number, r.cfg.Font)
	r.pages++
	if err != nil {
		return fmt.Errorf("page %d: %w", p.Number, err)
	}
	return r.pdf.Error()
}

// Save writes the report to path. An empty report gets a single page
// saying so.
func (r *Report) Save(path string) error {
	if r.pages == 0 {
		r.pdf.AddPage()
		r.pdf.SetFont(r.cfg.Font.Name, r.cfg.Font.Style, r.cfg.Font.Size)
		r.pdf.Text(50, 60, "No drawing pages matched.")
	}
	if err := r.pdf.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("failed to write review PDF: %w", err)
	}
	return nil
}
