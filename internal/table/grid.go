// Package table is the editable Name/Company/Duration grid projected from the
// record store. Edits live only in the grid until Save flushes them back.
package table

import (
	"fmt"
	"strings"
	"sync"

	"github.com/joseph-ayodele/offerscan/constants"
	"github.com/joseph-ayodele/offerscan/internal/core/fields"
	"github.com/joseph-ayodele/offerscan/internal/session"
)

// Column positions.
const (
	ColName = iota
	ColCompany
	ColDuration
	numCols
)

// Row is one grid row. Index is the record store position the row belongs
// to, so Save does not depend on row order.
type Row struct {
	Index int
	Cells [numCols]string
	// present is false when the row was rendered for an absent record.
	present bool
}

// Grid is safe for concurrent use.
type Grid struct {
	mu   sync.Mutex
	rows []Row
}

// Render rebuilds the grid from the store; absent records get empty cells.
func (g *Grid) Render(records []*fields.Record) {
	rows := make([]Row, len(records))
	for i, r := range records {
		rows[i].Index = i
		if r == nil {
			continue
		}
		rows[i].present = true
		rows[i].Cells = [numCols]string{r.Name, r.Company, r.Duration}
	}
	g.mu.Lock()
	g.rows = rows
	g.mu.Unlock()
}

// Rows returns a copy of the current grid.
func (g *Grid) Rows() []Row {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]Row(nil), g.rows...)
}

// SetCell edits a cell in the row displayed at position row.
func (g *Grid) SetCell(row, col int, text string) error {
	if col < 0 || col >= numCols {
		return fmt.Errorf("column %d out of range", col)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if row < 0 || row >= len(g.rows) {
		return fmt.Errorf("row %d out of range (%d rows)", row, len(g.rows))
	}
	g.rows[row].Cells[col] = text
	return nil
}

// Save reads every row, trims its cells and replaces the store entry at the
// row's Index wholesale. A row rendered for an absent record stays absent
// unless something was typed into it.
func (g *Grid) Save(s session.State) (session.State, error) {
	for _, row := range g.Rows() {
		rec := fields.Record{
			Name:     strings.TrimSpace(row.Cells[ColName]),
			Company:  strings.TrimSpace(row.Cells[ColCompany]),
			Duration: strings.TrimSpace(row.Cells[ColDuration]),
		}
		if !row.present && rec == (fields.Record{}) {
			continue
		}
		var err error
		if s, err = s.WithRecord(row.Index, rec); err != nil {
			return s, fmt.Errorf("save row %d: %w", row.Index, err)
		}
	}
	return s, nil
}

// ParseColumn maps a column name (case-insensitive) to its position.
func ParseColumn(name string) (int, error) {
	for i, c := range constants.Columns {
		if strings.EqualFold(name, c) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown column %q (want one of %s)", name, strings.Join(constants.Columns, ", "))
}
