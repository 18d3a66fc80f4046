// Package pipeline turns a PDF of assembly drawings into a workbook.
//
// A run makes two independent passes over the document. The drawing pass
// renders every page that contains the target phrase, finds the part list
// label with OCR and saves everything above it as page_<N>.png. The table
// pass extracts all tables and keeps the part lists. Drawings and tables are
// then paired and written to output.xlsx, one sheet per pair.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gardar/asmxl/pkg/document"
	"github.com/gardar/asmxl/pkg/ocr"
	"github.com/gardar/asmxl/pkg/review"
	"github.com/gardar/asmxl/pkg/sheet"
	"github.com/gardar/asmxl/pkg/table"
)

// WorkbookName is the file name of the workbook inside the output directory
const WorkbookName = "output.xlsx"

// Sources are the input document and the services a run depends on
type Sources struct {
	Path   string
	Open   func(path string, opts document.Options) (document.Document, error) // nil opens a PDF
	Engine ocr.Engine
	Tables table.Extractor
}

// Result describes what a run produced
type Result struct {
	Drawings []Drawing
	Tables   []table.Table // part-list tables, in extraction order
	Pairs    []sheet.Pair
	Unpaired []error // *PairingError for each drawing without a table
	Workbook string
}

// OpenPDF opens path with document.Open
func OpenPDF(path string, opts document.Options) (document.Document, error) {
	return document.Open(path, opts)
}

// newReview returns the review report for cfg, or nil when none was asked for
func newReview(cfg Config) *review.Report {
	if cfg.ReviewPath == "" {
		return nil
	}
	rc := review.DefaultConfig()
	rc.Debug = cfg.Debug
	return review.New(rc)
}

// Run executes the drawing pass, the table pass, pairing and the workbook
// write, in that order
func Run(ctx context.Context, src Sources, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if src.Engine == nil {
		return nil, &ocr.EngineError{Engine: "none", Err: errors.New("no OCR engine configured")}
	}
	if src.Tables == nil {
		return nil, &table.ExtractionError{Path: src.Path, Err: errors.New("no table extractor configured")}
	}
	logger := getLogger(cfg)

	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	open := src.Open
	if open == nil {
		open = OpenPDF
	}
	doc, err := open(src.Path, document.Options{DPI: cfg.RenderDPI})
	if err != nil {
		var openErr *document.OpenError
		if !errors.As(err, &openErr) {
			err = &document.OpenError{Path: src.Path, Err: err}
		}
		return nil, err
	}

	rep := newReview(cfg)

	locator := &ocr.Locator{
		Engine:     src.Engine,
		Keyword:    cfg.Keyword,
		Occurrence: cfg.Occurrence,
		Timeout:    cfg.OCRTimeout,
	}
	fmt.Fprintf(logger, "Scanning %s with %s OCR\n", src.Path, src.Engine.Name())
	drawings, err := extractDrawings(ctx, doc, locator, cfg, rep)
	if closeErr := doc.Close(); closeErr != nil {
		fmt.Fprintf(logger, "Warning: failed to close %s: %v\n", src.Path, closeErr)
	}
	result := &Result{Drawings: drawings}
	if err != nil {
		return result, err
	}

	fmt.Fprintf(logger, "Extracting tables with %s\n", src.Tables.Name())
	all, err := src.Tables.Extract(ctx, src.Path)
	if err != nil {
		var extErr *table.ExtractionError
		if !errors.As(err, &extErr) {
			err = &table.ExtractionError{Path: src.Path, Err: err}
		}
		return result, err
	}
	result.Tables = table.Filter(all, cfg.TableMarker)
	fmt.Fprintf(logger, "Found %d tables, %d containing %q\n", len(all), len(result.Tables), cfg.TableMarker)

	result.Pairs, result.Unpaired = Pair(drawings, result.Tables, cfg.Pairing)
	for _, e := range result.Unpaired {
		fmt.Fprintf(logger, "Warning: %v\n", e)
	}
	if dropped := len(result.Tables) - len(result.Pairs); dropped > 0 {
		fmt.Fprintf(logger, "%d tables have no drawing and were left out\n", dropped)
	}
	if cfg.StrictPairing && len(result.Unpaired) > 0 {
		return result, errors.Join(result.Unpaired...)
	}

	workbook := filepath.Join(cfg.OutputDir, WorkbookName)
	if err := sheet.Write(workbook, result.Pairs, sheet.Options{ImageGapColumns: cfg.ImageGapColumns}); err != nil {
		return result, err
	}
	result.Workbook = workbook
	fmt.Fprintf(logger, "Saved Excel file to %s\n", workbook)

	if rep != nil {
		if err := rep.Save(cfg.ReviewPath); err != nil {
			return result, err
		}
		fmt.Fprintf(logger, "Saved review PDF to %s\n", cfg.ReviewPath)
	}
	return result, nil
}
