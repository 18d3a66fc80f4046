package review

import (
	"fmt"

	"codeberg.org/go-pdf/fpdf"
	"golang.org/x/text/encoding/charmap"

	"github.com/gardar/asmxl/pkg/ocr"
)

// drawOCRLayer writes the recognized tokens onto their own layer, scaled to
// their boxes. The text is invisible unless debug is set, so the page reads
// as the image but can be searched and selected.
func drawOCRLayer(pdf *fpdf.Fpdf, tokens []ocr.Token, debug bool, layerName string, pageNum int, fontConfig FontConfig) error {
	layer := pdf.AddLayer(fmt.Sprintf("%s (Page %d)", layerName, pageNum), true)
	pdf.BeginLayer(layer)
	pdf.SetFont(fontConfig.Name, fontConfig.Style, fontConfig.Size)

	if debug {
		pdf.SetTextColor(255, 0, 0)
	} else {
		pdf.SetAlpha(0.0, "Normal")
	}

	encodingErrors := 0
	wordCount := 0
	for _, tok := range tokens {
		if tok.Box.Width <= 0 || tok.Text == "" {
			continue
		}
		drawWord(pdf, tok, fontConfig, &encodingErrors)
		wordCount++
	}

	pdf.EndLayer()
	pdf.SetAlpha(1.0, "Normal")
	pdf.SetTextColor(0, 0, 0)

	if wordCount > 0 && encodingErrors > wordCount/10 {
		return fmt.Errorf("character encoding issues in %d of %d words", encodingErrors, wordCount)
	}
	return nil
}

// drawWord renders a single token, stretched to the width of its box
func drawWord(pdf *fpdf.Fpdf, tok ocr.Token, fontConfig FontConfig, encodingErrors *int) {
	x, y := float64(tok.Box.Left), float64(tok.Box.Top)
	wordWidth := float64(tok.Box.Width)

	// Core fonts only cover ISO-8859-1
	latin1, err := charmap.ISO8859_1.NewEncoder().String(tok.Text)
	if err != nil {
		*encodingErrors++
		latin1 = tok.Text
	}

	if strWidth := pdf.GetStringWidth(latin1); strWidth > 0 {
		pdf.SetFontSize(fontConfig.Size * wordWidth / strWidth)
	}

	fontSize, _ := pdf.GetFontSize()
	pdf.Text(x, y+fontSize*fontConfig.AscentRatio, latin1)
	pdf.SetFontSize(fontConfig.Size)
}
