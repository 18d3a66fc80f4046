package pipeline

import (
	"fmt"

	"github.com/gardar/asmxl/pkg/sheet"
	"github.com/gardar/asmxl/pkg/table"
)

// PairingError reports a drawing for which no table could be found
type PairingError struct {
	Drawing Drawing
}

func (e *PairingError) Error() string {
	return fmt.Sprintf("no part-list table found for page %d (%s)", e.Drawing.Page+1, e.Drawing.Path)
}

// Pair matches drawings with tables.
//
// In PairByPage mode each drawing takes the first unused table from the same
// page; drawings left without one are returned as *PairingError. In
// PairByOrder mode the lists are zipped by position and the longer one is
// truncated, without errors.
func Pair(drawings []Drawing, tables []table.Table, mode PairingMode) ([]sheet.Pair, []error) {
	if mode == PairByOrder {
		n := min(len(drawings), len(tables))
		pairs := make([]sheet.Pair, 0, n)
		for i := range n {
			pairs = append(pairs, sheet.Pair{ImagePath: drawings[i].Path, Table: tables[i]})
		}
		return pairs, nil
	}

	var pairs []sheet.Pair
	var errs []error
	used := make([]bool, len(tables))
	for _, d := range drawings {
		match := -1
		for i, t := range tables {
			if !used[i] && t.Page == d.Page {
				match = i
				break
			}
		}
		if match < 0 {
			errs = append(errs, &PairingError{Drawing: d})
			continue
		}
		used[match] = true
		pairs = append(pairs, sheet.Pair{ImagePath: d.Path, Table: tables[match]})
	}
	return pairs, errs
}
