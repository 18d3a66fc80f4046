package pipeline

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/gardar/asmxl/pkg/crop"
	"github.com/gardar/asmxl/pkg/document"
	"github.com/gardar/asmxl/pkg/ocr"
	"github.com/gardar/asmxl/pkg/review"
)

// Drawing is a cropped assembly drawing written to disk
type Drawing struct {
	Page   int // 0-based source page
	Path   string
	Width  int
	Height int
}

// DrawingFileName returns the file name used for the drawing of the page at
// the 0-based index
func DrawingFileName(index int) string {
	return fmt.Sprintf("page_%d.png", index+1)
}

// ExtractDrawings crops the drawing off every page that contains the target
// phrase. Each page is rendered and cropped in memory and written once;
// pages without the label produce nothing on disk.
func ExtractDrawings(ctx context.Context, doc document.Document, locator *ocr.Locator, cfg Config) ([]Drawing, error) {
	return extractDrawings(ctx, doc, locator, cfg, nil)
}

func extractDrawings(ctx context.Context, doc document.Document, locator *ocr.Locator, cfg Config, rep *review.Report) ([]Drawing, error) {
	logger := getLogger(cfg)

	var drawings []Drawing
	matched := 0
	for idx := range document.MatchPages(doc, cfg.TargetPhrase) {
		if err := ctx.Err(); err != nil {
			return drawings, err
		}
		matched++
		fmt.Fprintf(logger, "Page %d: found %q\n", idx+1, cfg.TargetPhrase)

		d, err := extractPage(ctx, doc, idx, locator, cfg, rep, logger)
		if err != nil {
			if cfg.OnPageError == AbortRun {
				return drawings, fmt.Errorf("page %d: %w", idx+1, err)
			}
			fmt.Fprintf(logger, "Warning: skipping page %d: %v\n", idx+1, err)
			continue
		}
		if d != nil {
			drawings = append(drawings, *d)
		}
	}

	fmt.Fprintf(logger, "Scanned %d pages: %d matched, %d drawings saved\n", doc.PageCount(), matched, len(drawings))
	return drawings, nil
}

// extractPage returns nil without error when the label is not on the page
func extractPage(ctx context.Context, doc document.Document, idx int, locator *ocr.Locator, cfg Config,
	rep *review.Report, logger io.Writer) (*Drawing, error) {

	img, err := doc.RenderPage(idx)
	if err != nil {
		return nil, err
	}

	loc, err := locator.Locate(ctx, img)
	if err != nil {
		return nil, err
	}

	if cfg.Debug {
		for i, tok := range loc.Tokens {
			b := tok.Box
			fmt.Fprintf(logger, "  token %d: %q at (%d,%d) %dx%d\n", i, tok.Text, b.Left, b.Top, b.Width, b.Height)
		}
	}
	if rep != nil {
		page := review.Page{Number: idx + 1, Image: img, Keyword: locator.Keyword, Location: loc}
		if err := rep.AddPage(page); err != nil {
			fmt.Fprintf(logger, "Warning: review: %v\n", err)
		}
	}

	if !loc.Found {
		fmt.Fprintf(logger, "Page %d: label %q #%d not found among %d tokens, no drawing saved\n",
			idx+1, locator.Keyword, locator.Occurrence, len(loc.Tokens))
		return nil, nil
	}

	box := loc.Box()
	fmt.Fprintf(logger, "Page %d: label %q at (%d,%d), cropping at y=%d\n",
		idx+1, loc.Tokens[loc.Index].Text, box.Left, box.Top, box.Top)

	cropped, err := crop.Crop(img, box.Top)
	if err != nil {
		return nil, err
	}

	path := filepath.Join(cfg.OutputDir, DrawingFileName(idx))
	if err := crop.WritePNG(path, cropped); err != nil {
		return nil, err
	}
	fmt.Fprintf(logger, "Saved cropped image to %s\n", path)

	return &Drawing{Page: idx, Path: path, Width: cropped.Bounds().Dx(), Height: cropped.Bounds().Dy()}, nil
}
