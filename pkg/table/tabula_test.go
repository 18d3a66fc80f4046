package table

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"codeberg.org/go-pdf/fpdf"
)

// writePartList writes a two-page PDF with a part list grid on the second page
func writePartList(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "parts.pdf")
	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetFont("Helvetica", "", 10)

	pdf.AddPage()
	pdf.Text(50, 60, "Cover sheet")

	pdf.AddPage()
	rows := [][]string{
		{"Item No.", "Part", "Qty"},
		{"1", "Bracket", "2"},
		{"2", "Bolt", "8"},
		{"3", "Washer", "8"},
	}
	for r, row := range rows {
		for c, cell := range row {
			pdf.Text(float64(60+c*120), float64(400+r*16), cell)
		}
	}
	if err := pdf.OutputFileAndClose(path); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestTabulaExtract(t *testing.T) {
	tables, err := NewTabulaExtractor().Extract(context.Background(), writePartList(t))
	if err != nil {
		t.Fatal(err)
	}
	for _, tb := range tables {
		if tb.Page != 1 {
			t.Errorf("table found on page %d, want 1: %+v", tb.Page, tb)
		}
		if len(tb.Header) == 0 {
			t.Errorf("table without header: %+v", tb)
		}
	}
}

func TestTabulaExtractErrors(t *testing.T) {
	garbage := filepath.Join(t.TempDir(), "garbage.pdf")
	if err := os.WriteFile(garbage, []byte("not a pdf at all"), 0644); err != nil {
		t.Fatal(err)
	}
	_, err := NewTabulaExtractor().Extract(context.Background(), garbage)
	var extErr *ExtractionError
	if !errors.As(err, &extErr) || extErr.Path != garbage {
		t.Fatalf("err = %v, want *ExtractionError for %s", err, garbage)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewTabulaExtractor().Extract(ctx, writePartList(t))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
