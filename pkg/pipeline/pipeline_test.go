package pipeline

import (
	"bytes"
	"context"
	"errors"
	"image"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/xuri/excelize/v2"

	"github.com/gardar/asmxl/pkg/crop"
	"github.com/gardar/asmxl/pkg/document"
	"github.com/gardar/asmxl/pkg/ocr"
	"github.com/gardar/asmxl/pkg/table"
)

// memDocument is a document of 100x200 blank pages
type memDocument struct {
	texts  []string
	closed bool
}

func (d *memDocument) PageCount() int                    { return len(d.texts) }
func (d *memDocument) PageText(index int) (string, error) { return d.texts[index], nil }
func (d *memDocument) RenderPage(index int) (*image.RGBA, error) {
	return image.NewRGBA(image.Rect(0, 0, 100, 200)), nil
}
func (d *memDocument) Close() error { d.closed = true; return nil }

type response struct {
	tokens []ocr.Token
	err    error
}

// scriptedEngine answers each Recognize call with the next response
type scriptedEngine struct {
	responses []response
	calls     int
}

func (e *scriptedEngine) Name() string { return "scripted" }

func (e *scriptedEngine) Recognize(ctx context.Context, img image.Image) ([]ocr.Token, error) {
	r := e.responses[min(e.calls, len(e.responses)-1)]
	e.calls++
	return r.tokens, r.err
}

type staticTables struct {
	tables []table.Table
	err    error
}

func (s staticTables) Name() string { return "static" }

func (s staticTables) Extract(ctx context.Context, path string) ([]table.Table, error) {
	return s.tables, s.err
}

func partListTokens() []ocr.Token {
	return []ocr.Token{
		{Text: "Part", Box: ocr.BoundingBox{Left: 5, Top: 10, Width: 20, Height: 8}},
		{Text: "list", Box: ocr.BoundingBox{Left: 30, Top: 10, Width: 15, Height: 8}},
		{Text: "Part", Box: ocr.BoundingBox{Left: 5, Top: 120, Width: 20, Height: 8}},
		{Text: "No", Box: ocr.BoundingBox{Left: 30, Top: 120, Width: 10, Height: 8}},
	}
}

func partTable(page int, name string) table.Table {
	return table.Table{Page: page, Header: []string{"Item No.", "Part"}, Rows: [][]string{{"1", name}}}
}

func testConfig(t *testing.T) (Config, *bytes.Buffer) {
	var log bytes.Buffer
	cfg := DefaultConfig()
	cfg.OutputDir = t.TempDir()
	cfg.Logger = &log
	return cfg, &log
}

func sources(doc *memDocument, engine ocr.Engine, tables table.Extractor) Sources {
	return Sources{
		Path:   "drawings.pdf",
		Open:   func(string, document.Options) (document.Document, error) { return doc, nil },
		Engine: engine,
		Tables: tables,
	}
}

func sheetList(t *testing.T, path string) []string {
	t.Helper()
	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	return f.GetSheetList()
}

func readPNGHeight(t *testing.T, path string) int {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		t.Fatal(err)
	}
	return cfg.Height
}

func TestRunEndToEnd(t *testing.T) {
	cfg, log := testConfig(t)
	doc := &memDocument{texts: []string{DefaultTargetPhrase, "General notes", "Sub-assembly " + DefaultTargetPhrase}}
	engine := &scriptedEngine{responses: []response{{tokens: partListTokens()}}}
	tables := staticTables{tables: []table.Table{
		partTable(0, "Bracket"),
		{Page: 1, Header: []string{"Rev", "Date"}},
		partTable(2, "Frame"),
	}}

	res, err := Run(context.Background(), sources(doc, engine, tables), cfg)
	if err != nil {
		t.Fatal(err)
	}
	if !doc.closed {
		t.Error("document left open")
	}
	if engine.calls != 2 {
		t.Errorf("OCR ran %d times, want 2", engine.calls)
	}

	want := []Drawing{
		{Page: 0, Path: filepath.Join(cfg.OutputDir, "page_1.png"), Width: 100, Height: 120},
		{Page: 2, Path: filepath.Join(cfg.OutputDir, "page_3.png"), Width: 100, Height: 120},
	}
	if diff := cmp.Diff(want, res.Drawings); diff != "" {
		t.Errorf("drawings (-want +got):\n%s", diff)
	}
	for _, d := range want {
		if h := readPNGHeight(t, d.Path); h != 120 {
			t.Errorf("%s height = %d, want 120", d.Path, h)
		}
	}
	if _, err := os.Stat(filepath.Join(cfg.OutputDir, "page_2.png")); !os.IsNotExist(err) {
		t.Errorf("page_2.png exists or stat failed: %v", err)
	}

	if len(res.Tables) != 2 || len(res.Pairs) != 2 || len(res.Unpaired) != 0 {
		t.Fatalf("tables %d, pairs %d, unpaired %d; want 2, 2, 0", len(res.Tables), len(res.Pairs), len(res.Unpaired))
	}
	if res.Pairs[1].Table.Rows[0][1] != "Frame" || res.Pairs[1].ImagePath != want[1].Path {
		t.Errorf("second pair = %+v", res.Pairs[1])
	}
	if diff := cmp.Diff([]string{"Sheet_1", "Sheet_2"}, sheetList(t, res.Workbook)); diff != "" {
		t.Errorf("sheets (-want +got):\n%s", diff)
	}
	if !strings.Contains(log.String(), "Saved Excel file to") {
		t.Errorf("log lacks workbook line:\n%s", log)
	}
}

func TestRunNoMatchingPages(t *testing.T) {
	for _, mode := range []PairingMode{PairByPage, PairByOrder} {
		t.Run(string(mode), func(t *testing.T) {
			cfg, _ := testConfig(t)
			cfg.Pairing = mode
			doc := &memDocument{texts: []string{"cover", "notes"}}
			engine := &scriptedEngine{responses: []response{{tokens: partListTokens()}}}
			tables := staticTables{tables: []table.Table{partTable(0, "A"), partTable(1, "B"), partTable(1, "C")}}

			res, err := Run(context.Background(), sources(doc, engine, tables), cfg)
			if err != nil {
				t.Fatal(err)
			}
			if len(res.Drawings) != 0 || len(res.Pairs) != 0 {
				t.Errorf("drawings %d, pairs %d; want none", len(res.Drawings), len(res.Pairs))
			}
			if engine.calls != 0 {
				t.Errorf("OCR ran %d times on unmatched pages", engine.calls)
			}
			if diff := cmp.Diff([]string{"Sheet1"}, sheetList(t, res.Workbook)); diff != "" {
				t.Errorf("sheets (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRunOrderPairingIgnoresPages(t *testing.T) {
	cfg, _ := testConfig(t)
	cfg.Pairing = PairByOrder
	doc := &memDocument{texts: []string{DefaultTargetPhrase, DefaultTargetPhrase}}
	engine := &scriptedEngine{responses: []response{{tokens: partListTokens()}}}
	// Tables reported on other pages, and one more than there are drawings
	tables := staticTables{tables: []table.Table{partTable(5, "A"), partTable(6, "B"), partTable(7, "C")}}

	res, err := Run(context.Background(), sources(doc, engine, tables), cfg)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Pairs) != 2 {
		t.Fatalf("pairs = %d, want 2", len(res.Pairs))
	}
	if got := res.Pairs[0].Table.Rows[0][1] + res.Pairs[1].Table.Rows[0][1]; got != "AB" {
		t.Errorf("paired tables %q, want A then B", got)
	}
}

func TestRunStrictPairing(t *testing.T) {
	cfg, _ := testConfig(t)
	cfg.StrictPairing = true
	doc := &memDocument{texts: []string{DefaultTargetPhrase}}
	engine := &scriptedEngine{responses: []response{{tokens: partListTokens()}}}

	res, err := Run(context.Background(), sources(doc, engine, staticTables{}), cfg)
	var pairErr *PairingError
	if !errors.As(err, &pairErr) {
		t.Fatalf("err = %v, want *PairingError", err)
	}
	if pairErr.Drawing.Page != 0 || res.Workbook != "" {
		t.Errorf("unexpected result %+v / %+v", pairErr.Drawing, res)
	}
	if _, err := os.Stat(filepath.Join(cfg.OutputDir, WorkbookName)); !os.IsNotExist(err) {
		t.Errorf("workbook written despite pairing failure: %v", err)
	}
}

func TestRunErrors(t *testing.T) {
	doc := &memDocument{texts: []string{DefaultTargetPhrase}}
	engine := &scriptedEngine{responses: []response{{tokens: partListTokens()}}}

	t.Run("open", func(t *testing.T) {
		cfg, _ := testConfig(t)
		src := sources(doc, engine, staticTables{})
		src.Open = func(string, document.Options) (document.Document, error) { return nil, errors.New("truncated file") }
		_, err := Run(context.Background(), src, cfg)
		var openErr *document.OpenError
		if !errors.As(err, &openErr) {
			t.Errorf("err = %v, want *document.OpenError", err)
		}
	})

	t.Run("tables", func(t *testing.T) {
		cfg, _ := testConfig(t)
		_, err := Run(context.Background(), sources(doc, engine, staticTables{err: errors.New("no text layer")}), cfg)
		var extErr *table.ExtractionError
		if !errors.As(err, &extErr) {
			t.Errorf("err = %v, want *table.ExtractionError", err)
		}
	})

	t.Run("invalid config", func(t *testing.T) {
		cfg, _ := testConfig(t)
		cfg.Pairing = "nearest"
		if _, err := Run(context.Background(), sources(doc, engine, staticTables{}), cfg); err == nil {
			t.Error("invalid pairing mode accepted")
		}
	})
}

func TestExtractDrawingsPageErrors(t *testing.T) {
	boom := errors.New("tesseract crashed")
	doc := &memDocument{texts: []string{DefaultTargetPhrase, DefaultTargetPhrase, DefaultTargetPhrase}}
	script := []response{{tokens: partListTokens()}, {err: boom}, {tokens: partListTokens()}}

	t.Run("skip", func(t *testing.T) {
		cfg, log := testConfig(t)
		locator := ocr.NewLocator(&scriptedEngine{responses: script})
		drawings, err := ExtractDrawings(context.Background(), doc, locator, cfg)
		if err != nil {
			t.Fatal(err)
		}
		if len(drawings) != 2 || drawings[0].Page != 0 || drawings[1].Page != 2 {
			t.Errorf("drawings = %+v, want pages 0 and 2", drawings)
		}
		if !strings.Contains(log.String(), "Warning: skipping page 2") {
			t.Errorf("log lacks skip warning:\n%s", log)
		}
	})

	t.Run("abort", func(t *testing.T) {
		cfg, _ := testConfig(t)
		cfg.OnPageError = AbortRun
		locator := ocr.NewLocator(&scriptedEngine{responses: script})
		drawings, err := ExtractDrawings(context.Background(), doc, locator, cfg)
		var engErr *ocr.EngineError
		if !errors.As(err, &engErr) || !errors.Is(err, boom) {
			t.Fatalf("err = %v, want *ocr.EngineError wrapping %v", err, boom)
		}
		if len(drawings) != 1 {
			t.Errorf("drawings before abort = %d, want 1", len(drawings))
		}
	})
}

func TestExtractDrawingsWithoutCrop(t *testing.T) {
	doc := &memDocument{texts: []string{DefaultTargetPhrase, DefaultTargetPhrase}}
	single := []ocr.Token{{Text: "Part", Box: ocr.BoundingBox{Top: 40, Width: 10, Height: 5}}}
	atTop := []ocr.Token{
		{Text: "PART", Box: ocr.BoundingBox{Top: 0, Width: 10, Height: 5}},
		{Text: "parts", Box: ocr.BoundingBox{Top: 0, Left: 20, Width: 10, Height: 5}},
	}

	cfg, _ := testConfig(t)
	cfg.OnPageError = AbortRun
	locator := ocr.NewLocator(&scriptedEngine{responses: []response{{tokens: single}}})
	drawings, err := ExtractDrawings(context.Background(), doc, locator, cfg)
	if err != nil || len(drawings) != 0 {
		t.Fatalf("single label: drawings %v, err %v; want none, nil", drawings, err)
	}

	// A label on the top edge leaves nothing to save
	locator = ocr.NewLocator(&scriptedEngine{responses: []response{{tokens: atTop}}})
	_, err = ExtractDrawings(context.Background(), doc, locator, cfg)
	var boundsErr *crop.BoundsError
	if !errors.As(err, &boundsErr) {
		t.Fatalf("err = %v, want *crop.BoundsError", err)
	}

	entries, err := os.ReadDir(cfg.OutputDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("output dir not empty: %v", entries)
	}
}

func TestRunWritesReview(t *testing.T) {
	cfg, _ := testConfig(t)
	cfg.ReviewPath = filepath.Join(cfg.OutputDir, "review.pdf")
	doc := &memDocument{texts: []string{DefaultTargetPhrase}}
	engine := &scriptedEngine{responses: []response{{tokens: partListTokens()}}}

	if _, err := Run(context.Background(), sources(doc, engine, staticTables{tables: []table.Table{partTable(0, "A")}}), cfg); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(cfg.ReviewPath)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() == 0 {
		t.Error("review PDF is empty")
	}
}

func TestNewReview(t *testing.T) {
	cfg := DefaultConfig()
	if newReview(cfg) != nil {
		t.Error("report created without a review path")
	}

	cfg.ReviewPath = "review.pdf"
	if newReview(cfg).Config().Debug {
		t.Error("OCR text shown without debug")
	}
	cfg.Debug = true
	if !newReview(cfg).Config().Debug {
		t.Error("debug not passed to the review report")
	}
}

func TestRunCancelled(t *testing.T) {
	cfg, _ := testConfig(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	doc := &memDocument{texts: []string{DefaultTargetPhrase}}
	engine := &scriptedEngine{responses: []response{{tokens: partListTokens()}}}
	_, err := Run(ctx, sources(doc, engine, staticTables{}), cfg)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if !doc.closed {
		t.Error("document left open after cancellation")
	}
}
