// Package table holds the rectangular record sets that flow from the provider
// through normalization and schema enforcement into the store.
package table

import (
	"errors"
	"fmt"
)

// ErrRowWidth is returned when a row does not match the table width.
var ErrRowWidth = errors.New("row width does not match column count")

// Table is a column-oriented set of named columns with equal length. A nil
// cell means "no value".
type Table struct {
	columns []string
	data    map[string][]any
	rows    int
}

// New returns an empty table with the given columns.
func New(columns ...string) *Table {
	t := &Table{data: make(map[string][]any, len(columns))}
	for _, name := range columns {
		if _, exists := t.data[name]; exists {
			continue
		}
		t.columns = append(t.columns, name)
		t.data[name] = []any{}
	}
	return t
}

// FromRows builds a table from row-major data.
func FromRows(columns []string, rows [][]any) (*Table, error) {
	t := New(columns...)
	if len(t.columns) != len(columns) {
		return nil, fmt.Errorf("duplicate column names in %v", columns)
	}
	for i, row := range rows {
		if err := t.AppendRow(row...); err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
	}
	return t, nil
}

// Columns returns the column names in order.
func (t *Table) Columns() []string {
	if t == nil {
		return nil
	}
	out := make([]string, len(t.columns))
	copy(out, t.columns)
	return out
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return t.rows
}

// Has reports whether the column exists.
func (t *Table) Has(name string) bool {
	if t == nil {
		return false
	}
	_, ok := t.data[name]
	return ok
}

// Column returns a copy of the named column's cells.
func (t *Table) Column(name string) ([]any, bool) {
	if t == nil {
		return nil, false
	}
	values, ok := t.data[name]
	if !ok {
		return nil, false
	}
	out := make([]any, len(values))
	copy(out, values)
	return out, true
}

// Cell returns one cell, or nil when the row or column does not exist.
func (t *Table) Cell(row int, name string) any {
	if t == nil || row < 0 || row >= t.rows {
		return nil
	}
	values, ok := t.data[name]
	if !ok {
		return nil
	}
	return values[row]
}

// AppendRow adds one row; values follow column order.
func (t *Table) AppendRow(values ...any) error {
	if t == nil {
		return errors.New("table is nil")
	}
	if len(values) != len(t.columns) {
		return fmt.Errorf("%w: got %d, want %d", ErrRowWidth, len(values), len(t.columns))
	}
	for i, name := range t.columns {
		t.data[name] = append(t.data[name], values[i])
	}
	t.rows++
	return nil
}

// SetColumn replaces an existing column in place or appends a new one.
func (t *Table) SetColumn(name string, values []any) error {
	if t == nil {
		return errors.New("table is nil")
	}
	if len(t.columns) > 0 && len(values) != t.rows {
		return fmt.Errorf("column %s has %d values, table has %d rows", name, len(values), t.rows)
	}
	cells := make([]any, len(values))
	copy(cells, values)
	if _, exists := t.data[name]; !exists {
		t.columns = append(t.columns, name)
	}
	t.data[name] = cells
	if len(t.columns) == 1 {
		t.rows = len(values)
	}
	return nil
}

// Fill sets a column to the same value on every row.
func (t *Table) Fill(name string, value any) error {
	values := make([]any, t.Len())
	for i := range values {
		values[i] = value
	}
	return t.SetColumn(name, values)
}

// Row returns a copy of row i in column order.
func (t *Table) Row(i int) []any {
	if t == nil || i < 0 || i >= t.rows {
		return nil
	}
	row := make([]any, len(t.columns))
	for j, name := range t.columns {
		row[j] = t.data[name][i]
	}
	return row
}

// Rows returns every row in column order.
func (t *Table) Rows() [][]any {
	rows := make([][]any, t.Len())
	for i := range rows {
		rows[i] = t.Row(i)
	}
	return rows
}

// Select returns a new table with exactly the named columns in that order.
func (t *Table) Select(columns ...string) (*Table, error) {
	out := New()
	out.rows = t.Len()
	for _, name := range columns {
		values, ok := t.Column(name)
		if !ok {
			return nil, fmt.Errorf("column %s not found", name)
		}
		if _, dup := out.data[name]; dup {
			continue
		}
		out.columns = append(out.columns, name)
		out.data[name] = values
	}
	return out, nil
}

// Drop returns a copy without the named columns. Absent names are ignored.
func (t *Table) Drop(columns ...string) *Table {
	skip := make(map[string]struct{}, len(columns))
	for _, name := range columns {
		skip[name] = struct{}{}
	}
	out := New()
	out.rows = t.Len()
	for _, name := range t.Columns() {
		if _, drop := skip[name]; drop {
			continue
		}
		values, _ := t.Column(name)
		out.columns = append(out.columns, name)
		out.data[name] = values
	}
	return out
}

// Rename returns a copy with columns renamed per the mapping. A rename onto an
// existing column is an error.
func (t *Table) Rename(mapping map[string]string) (*Table, error) {
	out := New()
	out.rows = t.Len()
	for _, name := range t.Columns() {
		target := name
		if renamed, ok := mapping[name]; ok && renamed != "" {
			target = renamed
		}
		if _, dup := out.data[target]; dup {
			return nil, fmt.Errorf("rename %s: column %s already exists", name, target)
		}
		values, _ := t.Column(name)
		out.columns = append(out.columns, target)
		out.data[target] = values
	}
	return out, nil
}

// Clone returns a deep copy of the column slices.
func (t *Table) Clone() *Table {
	return t.Drop()
}
