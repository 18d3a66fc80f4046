package table

import (
	"context"
	"fmt"

	"github.com/tsawler/tabula/model"
	"github.com/tsawler/tabula/reader"
	"github.com/tsawler/tabula/tables"
	"github.com/tsawler/tabula/text"
)

// TabulaExtractor detects tables from the positioned text of each page with
// tabula's geometric detector. It needs a text layer; scanned pages yield no
// tables.
type TabulaExtractor struct {
	Config tables.Config
}

// NewTabulaExtractor returns an extractor using the detector defaults
func NewTabulaExtractor() *TabulaExtractor {
	return &TabulaExtractor{Config: tables.DefaultConfig()}
}

func (e *TabulaExtractor) Name() string { return "tabula" }

// Extract walks every page of the PDF and returns the detected tables in
// page order
func (e *TabulaExtractor) Extract(ctx context.Context, path string) ([]Table, error) {
	r, err := reader.Open(path)
	if err != nil {
		return nil, &ExtractionError{Path: path, Err: err}
	}
	defer r.Close()

	count, err := r.PageCount()
	if err != nil {
		return nil, &ExtractionError{Path: path, Err: fmt.Errorf("failed to count pages: %w", err)}
	}

	detector := tables.NewGeometricDetector()
	if err := detector.Configure(e.Config); err != nil {
		return nil, &ExtractionError{Path: path, Err: err}
	}

	var found []Table
	for i := 0; i < count; i++ {
		if err := ctx.Err(); err != nil {
			return nil, &ExtractionError{Path: path, Err: err}
		}
		page, err := r.GetPage(i)
		if err != nil {
			return nil, &ExtractionError{Path: path, Err: fmt.Errorf("page %d: %w", i+1, err)}
		}
		fragments, err := r.ExtractTextFragments(page)
		if err != nil {
			return nil, &ExtractionError{Path: path, Err: fmt.Errorf("page %d: %w", i+1, err)}
		}

		detected, err := detector.Detect(&model.Page{Number: i + 1, RawText: toModelFragments(fragments)})
		if err != nil {
			return nil, &ExtractionError{Path: path, Err: fmt.Errorf("page %d: %w", i+1, err)}
		}
		for _, dt := range detected {
			if t, ok := FromRows(i, cellText(dt)); ok {
				found = append(found, t)
			}
		}
	}
	return found, nil
}

func toModelFragments(fragments []text.TextFragment) []model.TextFragment {
	out := make([]model.TextFragment, len(fragments))
	for i, f := range fragments {
		out[i] = model.TextFragment{
			Text:     f.Text,
			BBox:     model.BBox{X: f.X, Y: f.Y, Width: f.Width, Height: f.Height},
			FontSize: f.FontSize,
			FontName: f.FontName,
		}
	}
	return out
}

func cellText(t *model.Table) [][]string {
	rows := make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		rows[i] = make([]string, len(row))
		for j, cell := range row {
			rows[i][j] = cell.Text
		}
	}
	return rows
}
