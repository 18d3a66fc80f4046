// Package sheet writes drawing/table pairs into an xlsx workbook.
//
// Each pair gets its own worksheet, Sheet_1, Sheet_2, ... in pair order. The
// table is written from A1 with its header on row 1, and the drawing is
// anchored on row 1 in the column right after the table's last column.
package sheet

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/gardar/asmxl/pkg/table"
)

// defaultSheet is the worksheet every new workbook starts with
const defaultSheet = "Sheet1"

// Pair is one drawing image and the table it belongs to
type Pair struct {
	ImagePath string
	Table     table.Table
}

// Options control the worksheet layout
type Options struct {
	// ImageGapColumns leaves that many empty columns between the table and
	// the image.
	ImageGapColumns int
}

// SheetName returns the name of the i-th (0-based) pair's worksheet
func SheetName(i int) string {
	return fmt.Sprintf("Sheet_%d", i+1)
}

// ImageCell returns the cell the image of a table with ncols columns is
// anchored at
func ImageCell(ncols int, opts Options) (string, error) {
	return excelize.CoordinatesToCellName(ncols+1+max(opts.ImageGapColumns, 0), 1)
}

// Write creates the workbook at path. With no pairs the workbook holds only
// the default empty sheet.
func Write(path string, pairs []Pair, opts Options) error {
	f := excelize.NewFile()
	defer f.Close()

	for i, p := range pairs {
		if err := writePair(f, SheetName(i), p, opts); err != nil {
			return fmt.Errorf("%s: %w", SheetName(i), err)
		}
	}

	if len(pairs) > 0 {
		if err := f.DeleteSheet(defaultSheet); err != nil {
			return fmt.Errorf("failed to remove default sheet: %w", err)
		}
		f.SetActiveSheet(0)
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

func writePair(f *excelize.File, name string, p Pair, opts Options) error {
	if _, err := f.NewSheet(name); err != nil {
		return err
	}

	rows := p.Table.Rows
	if len(p.Table.Header) > 0 {
		rows = append([][]string{p.Table.Header}, rows...)
	}
	for r, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, r+1)
		if err != nil {
			return err
		}
		values := make([]any, len(row))
		for i, v := range row {
			values[i] = v
		}
		if err := f.SetSheetRow(name, cell, &values); err != nil {
			return fmt.Errorf("row %d: %w", r+1, err)
		}
	}

	anchor, err := ImageCell(p.Table.ColumnCount(), opts)
	if err != nil {
		return err
	}
	if err := f.AddPicture(name, anchor, p.ImagePath, nil); err != nil {
		return fmt.Errorf("failed to add image %s: %w", p.ImagePath, err)
	}
	return nil
}
