package pipeline

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/gardar/asmxl/pkg/document"
	"github.com/gardar/asmxl/pkg/ocr"
	"github.com/gardar/asmxl/pkg/table"
)

// DefaultTargetPhrase marks the pages that hold an assembly drawing
const DefaultTargetPhrase = "Assembly Drawing & Part List"

// PageErrorPolicy decides what a failure on one page does to the run
type PageErrorPolicy string

const (
	SkipPage PageErrorPolicy = "skip"  // log a warning and go on with the next page
	AbortRun PageErrorPolicy = "abort" // stop and return the error
)

// PairingMode decides how drawings are matched with tables
type PairingMode string

const (
	PairByPage  PairingMode = "page"  // a drawing takes a table from its own page
	PairByOrder PairingMode = "order" // n-th drawing with n-th table, truncated to the shorter list
)

// Config holds user options for a run
type Config struct {
	TargetPhrase string        // pages containing this text are processed
	Keyword      string        // label keyword searched in the OCR tokens
	Occurrence   int           // which qualifying token marks the crop line
	OCRTimeout   time.Duration // bound on each OCR call; zero disables it
	TableMarker  string        // tables must contain a cell with this text
	RenderDPI    float64

	OutputDir       string
	OnPageError     PageErrorPolicy
	Pairing         PairingMode
	StrictPairing   bool // an unpaired drawing fails the run
	ImageGapColumns int  // empty columns between table and image

	ReviewPath string    // when set, a review PDF is written here
	Debug      bool      // log every OCR token and show OCR text in the review PDF
	Logger     io.Writer // progress and warnings (nil = stdout)
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() Config {
	return Config{
		TargetPhrase: DefaultTargetPhrase,
		Keyword:      ocr.DefaultKeyword,
		Occurrence:   ocr.DefaultOccurrence,
		OCRTimeout:   ocr.DefaultTimeout,
		TableMarker:  table.DefaultMarker,
		RenderDPI:    document.DefaultDPI,
		OutputDir:    ".",
		OnPageError:  SkipPage,
		Pairing:      PairByPage,
		Logger:       nil, // stdout
	}
}

// Validate reports the first invalid option
func (c Config) Validate() error {
	switch {
	case c.TargetPhrase == "":
		return fmt.Errorf("target phrase is required")
	case c.Keyword == "":
		return fmt.Errorf("label keyword is required")
	case c.Occurrence < 1:
		return fmt.Errorf("label occurrence must be at least 1, got %d", c.Occurrence)
	case c.OutputDir == "":
		return fmt.Errorf("output directory is required")
	case c.RenderDPI < 0:
		return fmt.Errorf("render DPI must not be negative, got %v", c.RenderDPI)
	case c.OCRTimeout < 0:
		return fmt.Errorf("OCR timeout must not be negative, got %v", c.OCRTimeout)
	}
	switch c.OnPageError {
	case SkipPage, AbortRun:
	default:
		return fmt.Errorf("unknown page error policy %q (want skip or abort)", c.OnPageError)
	}
	switch c.Pairing {
	case PairByPage, PairByOrder:
	default:
		return fmt.Errorf("unknown pairing mode %q (want page or order)", c.Pairing)
	}
	return nil
}

// getLogger returns the appropriate io.Writer to use for logging
// based on the configuration settings, defaulting to os.Stdout if nil.
func getLogger(config Config) io.Writer {
	if config.Logger == nil {
		return os.Stdout
	}
	return config.Logger
}
