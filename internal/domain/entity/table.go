package entity

import (
	"strings"

	"github.com/astrolab/voquery/internal/domain"
)

// Column describes one field of a query result, carrying the metadata a
// VOTable FIELD element provides.
type Column struct {
	Name        string `json:"name"`
	Datatype    string `json:"datatype"`
	Unit        string `json:"unit,omitempty"`
	UCD         string `json:"ucd,omitempty"`
	Description string `json:"description,omitempty"`
}

// Table is a tabular query result as returned by an archive service.
// Cells are kept as strings; the datatype of each column is available in
// its metadata for callers that need typed access.
type Table struct {
	Columns []Column   `json:"columns"`
	Rows    [][]string `json:"rows"`

	// Truncated is set when the service reported a row-limit overflow
	Truncated bool `json:"truncated,omitempty"`
}

// Len returns the number of rows
func (t *Table) Len() int {
	return len(t.Rows)
}

// ColumnIndex returns the index of the named column, or -1.
// Matching is case-insensitive, as ADQL column names are.
func (t *Table) ColumnIndex(name string) int {
	for i, col := range t.Columns {
		if strings.EqualFold(col.Name, name) {
			return i
		}
	}
	return -1
}

// ColumnNames returns the column names in table order
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		names[i] = col.Name
	}
	return names
}

// Select returns a new table containing only the named columns, in the
// given order. Unknown column names are an error.
func (t *Table) Select(names ...string) (*Table, error) {
	indexes := make([]int, 0, len(names))
	for _, name := range names {
		idx := t.ColumnIndex(name)
		if idx < 0 {
			return nil, domain.NewInvalidQueryError("unknown column: " + name)
		}
		indexes = append(indexes, idx)
	}

	out := &Table{
		Columns:   make([]Column, len(indexes)),
		Rows:      make([][]string, len(t.Rows)),
		Truncated: t.Truncated,
	}
	for i, idx := range indexes {
		out.Columns[i] = t.Columns[idx]
	}
	for r, row := range t.Rows {
		cells := make([]string, len(indexes))
		for i, idx := range indexes {
			if idx < len(row) {
				cells[i] = row[idx]
			}
		}
		out.Rows[r] = cells
	}
	return out, nil
}

// RowMatcher decides whether a row is kept by Where
type RowMatcher func(row []string) bool

// Where returns a new table containing only rows accepted by the matcher
func (t *Table) Where(match RowMatcher) *Table {
	out := &Table{
		Columns:   t.Columns,
		Truncated: t.Truncated,
	}
	for _, row := range t.Rows {
		if match(row) {
			out.Rows = append(out.Rows, row)
		}
	}
	return out
}
