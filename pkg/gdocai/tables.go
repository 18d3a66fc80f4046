package gdocai

import (
	"context"
	"os"
	"slices"

	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"github.com/gardar/asmxl/pkg/table"
)

// TableExtractor is a table.Extractor backed by a Form Parser processor
type TableExtractor struct {
	Config  *Config
	process processFunc
	dump    *dumper
}

// NewTableExtractor returns an extractor using cfg.FormProcessorID
func NewTableExtractor(cfg *Config) *TableExtractor {
	return &TableExtractor{Config: cfg, process: processWith(cfg), dump: &dumper{dir: cfg.DumpDir}}
}

func (e *TableExtractor) Name() string { return "documentai" }

// Extract sends the whole PDF to the Form Parser and returns its tables
func (e *TableExtractor) Extract(ctx context.Context, path string) ([]table.Table, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, &table.ExtractionError{Path: path, Err: err}
	}
	doc, err := e.process(ctx, content, "application/pdf", e.Config.FormProcessorID)
	if err != nil {
		return nil, &table.ExtractionError{Path: path, Err: err}
	}
	if _, err := e.dump.save("tables", doc); err != nil {
		return nil, &table.ExtractionError{Path: path, Err: err}
	}
	return TablesFromProto(doc), nil
}

// TablesFromProto converts every table of every page, in page order. Header
// rows come first; the first non-blank row becomes the table header.
func TablesFromProto(doc *documentaipb.Document) []table.Table {
	var found []table.Table
	for i, page := range doc.GetPages() {
		index := int(page.PageNumber) - 1
		if page.PageNumber == 0 {
			index = i
		}
		for _, pt := range page.Tables {
			var rows [][]string
			for _, row := range slices.Concat(pt.HeaderRows, pt.BodyRows) {
				cells := make([]string, 0, len(row.Cells))
				for _, cell := range row.Cells {
					cells = append(cells, cellText(cell, doc.Text))
					// a spanning cell keeps the following columns aligned
					for span := cell.ColSpan; span > 1; span-- {
						cells = append(cells, "")
					}
				}
				rows = append(rows, cells)
			}
			if t, ok := table.FromRows(index, rows); ok {
				found = append(found, t)
			}
		}
	}
	return found
}
