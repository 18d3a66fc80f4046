package gdocai

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"

	"github.com/gardar/asmxl/pkg/ocr"
)

// Engine is an ocr.Engine backed by a Document AI OCR processor
type Engine struct {
	Config  *Config
	process processFunc
	dump    *dumper
}

// NewEngine returns an engine using cfg.OCRProcessorID
func NewEngine(cfg *Config) *Engine {
	return &Engine{Config: cfg, process: processWith(cfg), dump: &dumper{dir: cfg.DumpDir}}
}

func (e *Engine) Name() string { return "documentai" }

// Recognize sends img as a PNG and returns the tokens of the first page in
// the order Document AI reports them
func (e *Engine) Recognize(ctx context.Context, img image.Image) ([]ocr.Token, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode page image: %w", err)
	}

	doc, err := e.process(ctx, buf.Bytes(), "image/png", e.Config.OCRProcessorID)
	if err != nil {
		return nil, err
	}
	if _, err := e.dump.save("ocr", doc); err != nil {
		return nil, err
	}
	if len(doc.Pages) == 0 {
		return nil, fmt.Errorf("response has no pages")
	}

	page, err := CreateHOCRPage(doc.Pages[0], doc.Text, 1)
	if err != nil {
		return nil, err
	}
	return ocr.TokensFromHOCR(page), nil
}
