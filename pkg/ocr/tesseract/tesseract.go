// Package tesseract is the Tesseract backed ocr.Engine.
//
// It wraps the Tesseract OCR engine via gosseract and reads word boxes from
// Tesseract's hOCR output. Tesseract and its language data must be installed
// on the system. On Ubuntu/Debian:
//
//	apt-get install tesseract-ocr libtesseract-dev
package tesseract

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"

	"github.com/otiai10/gosseract/v2"

	"github.com/gardar/asmxl/pkg/hocr"
	"github.com/gardar/asmxl/pkg/ocr"
)

// Engine recognizes page images with Tesseract.
// A fresh gosseract client is used per call, so an abandoned call never
// shares state with the next one.
type Engine struct {
	Languages     []string // e.g. "eng", "deu"; empty uses Tesseract's default
	PageSegMode   gosseract.PageSegMode
	clientFactory func() *gosseract.Client
}

// New constructs a Tesseract engine for the given languages
func New(languages ...string) *Engine {
	return &Engine{
		Languages:     languages,
		PageSegMode:   gosseract.PSM_AUTO,
		clientFactory: gosseract.NewClient,
	}
}

func (e *Engine) Name() string { return "tesseract" }

// Recognize runs Tesseract on img and returns its words in hOCR order
func (e *Engine) Recognize(ctx context.Context, img image.Image) ([]ocr.Token, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode page image: %w", err)
	}

	c := e.clientFactory()
	defer c.Close()

	if len(e.Languages) > 0 {
		if err := c.SetLanguage(e.Languages...); err != nil {
			return nil, fmt.Errorf("set languages: %w", err)
		}
	}
	if err := c.SetPageSegMode(e.PageSegMode); err != nil {
		return nil, fmt.Errorf("set page segmentation mode: %w", err)
	}
	if err := c.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("set image: %w", err)
	}

	out, err := c.HOCRText()
	if err != nil {
		return nil, fmt.Errorf("recognize text: %w", err)
	}

	doc, err := hocr.ParseHOCR([]byte(out))
	if err != nil {
		return nil, fmt.Errorf("read tesseract hOCR: %w", err)
	}

	var tokens []ocr.Token
	for _, page := range doc.Pages {
		tokens = append(tokens, ocr.TokensFromHOCR(page)...)
	}
	return tokens, nil
}
