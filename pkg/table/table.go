// Package table extracts part-list tables from a PDF.
//
// Extraction runs over the whole document in a single pass, independently of
// the drawing pass. An Extractor returns every table it can find; Filter then
// keeps the ones that look like part lists.
package table

import (
	"context"
	"slices"
	"strings"
)

// DefaultMarker is the cell text that identifies a part-list table
const DefaultMarker = "Item No."

// Table is one extracted table. Page is the 0-based page the table was found
// on, or -1 when the extractor cannot tell.
type Table struct {
	Page   int
	Header []string
	Rows   [][]string
}

// ColumnCount returns the width of the widest row, header included
func (t Table) ColumnCount() int {
	n := len(t.Header)
	for _, row := range t.Rows {
		n = max(n, len(row))
	}
	return n
}

// Contains reports whether any header or body cell contains s
func (t Table) Contains(s string) bool {
	if slices.ContainsFunc(t.Header, func(c string) bool { return strings.Contains(c, s) }) {
		return true
	}
	for _, row := range t.Rows {
		if slices.ContainsFunc(row, func(c string) bool { return strings.Contains(c, s) }) {
			return true
		}
	}
	return false
}

// Extractor finds all tables in the document at path
type Extractor interface {
	Name() string
	Extract(ctx context.Context, path string) ([]Table, error)
}

// ExtractionError reports a failed table extraction pass
type ExtractionError struct {
	Path string
	Err  error
}

func (e *ExtractionError) Error() string {
	return "extract tables from " + e.Path + ": " + e.Err.Error()
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// Filter returns the tables in which some cell contains marker, in their
// original order. Matching is case-sensitive.
func Filter(tables []Table, marker string) []Table {
	var kept []Table
	for _, t := range tables {
		if t.Contains(marker) {
			kept = append(kept, t)
		}
	}
	return kept
}

// compact trims every cell and drops rows and columns that are entirely
// empty. Geometric detection produces such gaps between lines of text.
func compact(rows [][]string) [][]string {
	width := 0
	for _, row := range rows {
		width = max(width, len(row))
	}
	used := make([]bool, width)
	var kept [][]string
	for _, row := range rows {
		trimmed := make([]string, len(row))
		empty := true
		for i, c := range row {
			trimmed[i] = strings.TrimSpace(c)
			if trimmed[i] != "" {
				empty = false
				used[i] = true
			}
		}
		if !empty {
			kept = append(kept, trimmed)
		}
	}

	out := make([][]string, 0, len(kept))
	for _, row := range kept {
		var cells []string
		for i := range width {
			if !used[i] {
				continue
			}
			if i < len(row) {
				cells = append(cells, row[i])
			} else {
				cells = append(cells, "")
			}
		}
		out = append(out, cells)
	}
	return out
}

// FromRows builds a Table from raw cell text. Cells are trimmed, blank rows
// and columns dropped, and the first remaining row becomes the header. It
// reports false when nothing is left.
func FromRows(page int, rows [][]string) (Table, bool) {
	rows = compact(rows)
	if len(rows) == 0 {
		return Table{}, false
	}
	return Table{Page: page, Header: rows[0], Rows: rows[1:]}, true
}
