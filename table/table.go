// Package table holds the in-memory entity tables that feed the graph layer,
// with readers for CSV, JSON records, Excel sheets and filesystem scans, and
// writers for CSV, newline-delimited JSON and Excel workbooks.
package table

import (
	"fmt"
	"maps"
	"slices"
)

// Row maps column names to cell values. Values are string, int64, float64,
// bool or nil; nil stands for a missing cell.
type Row map[string]any

// Table is an ordered sequence of rows over a fixed, ordered column set.
type Table struct {
	columns []string
	rows    []Row
}

// New creates a table. Column names must be unique and non-empty; rows may
// omit columns (treated as nil) but must not carry unknown ones.
func New(columns []string, rows []Row) (*Table, error) {
	seen := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		if c == "" {
			return nil, fmt.Errorf("table: empty column name")
		}
		if _, dup := seen[c]; dup {
			return nil, fmt.Errorf("table: duplicate column %q", c)
		}
		seen[c] = struct{}{}
	}
	t := &Table{columns: slices.Clone(columns)}
	if err := t.ReplaceRows(rows); err != nil {
		return nil, err
	}
	return t, nil
}

// MustNew is New for literals in tests and examples.
func MustNew(columns []string, rows []Row) *Table {
	t, err := New(columns, rows)
	if err != nil {
		panic(err)
	}
	return t
}

// Columns returns a copy of the column names in order.
func (t *Table) Columns() []string {
	return slices.Clone(t.columns)
}

// HasColumn reports whether name is a column of t.
func (t *Table) HasColumn(name string) bool {
	return slices.Contains(t.columns, name)
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// Row returns the i-th row. The returned map must not be modified; use Set.
func (t *Table) Row(i int) Row {
	return t.rows[i]
}

// Rows returns the rows in order. The slice and maps must not be modified.
func (t *Table) Rows() []Row {
	return t.rows
}

// Value returns the cell at row i, column col.
func (t *Table) Value(i int, col string) any {
	return t.rows[i][col]
}

// Set edits a single cell.
func (t *Table) Set(i int, col string, v any) error {
	if i < 0 || i >= len(t.rows) {
		return fmt.Errorf("table: row %d out of range [0,%d)", i, len(t.rows))
	}
	if !t.HasColumn(col) {
		return fmt.Errorf("table: unknown column %q", col)
	}
	t.rows[i][col] = v
	return nil
}

// ReplaceRows swaps the table's rows wholesale. Each row is copied.
func (t *Table) ReplaceRows(rows []Row) error {
	out := make([]Row, len(rows))
	for i, r := range rows {
		for k := range r {
			if !t.HasColumn(k) {
				return fmt.Errorf("table: row %d has unknown column %q", i, k)
			}
		}
		out[i] = maps.Clone(r)
		if out[i] == nil {
			out[i] = Row{}
		}
	}
	t.rows = out
	return nil
}

// Append adds a row.
func (t *Table) Append(r Row) error {
	for k := range r {
		if !t.HasColumn(k) {
			return fmt.Errorf("table: unknown column %q", k)
		}
	}
	t.rows = append(t.rows, maps.Clone(r))
	return nil
}

// Filter returns a new table holding the rows for which keep returns true.
func (t *Table) Filter(keep func(Row) bool) *Table {
	out := &Table{columns: slices.Clone(t.columns)}
	for _, r := range t.rows {
		if keep(r) {
			out.rows = append(out.rows, maps.Clone(r))
		}
	}
	return out
}

// Select returns a new table restricted to columns, in the given order.
func (t *Table) Select(columns ...string) (*Table, error) {
	for _, c := range columns {
		if !t.HasColumn(c) {
			return nil, fmt.Errorf("table: unknown column %q", c)
		}
	}
	out := &Table{columns: slices.Clone(columns), rows: make([]Row, len(t.rows))}
	for i, r := range t.rows {
		nr := make(Row, len(columns))
		for _, c := range columns {
			if v, ok := r[c]; ok {
				nr[c] = v
			}
		}
		out.rows[i] = nr
	}
	return out, nil
}

// Clone returns a deep copy; later edits to either table do not affect the other.
func (t *Table) Clone() *Table {
	out := &Table{columns: slices.Clone(t.columns), rows: make([]Row, len(t.rows))}
	for i, r := range t.rows {
		out.rows[i] = maps.Clone(r)
	}
	return out
}

// Distinct returns the distinct values of col in first-appearance order.
func (t *Table) Distinct(col string) []any {
	seen := make(map[string]struct{})
	var out []any
	for _, r := range t.rows {
		v := r[col]
		k := ValueKey(v)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, v)
	}
	return out
}

// ValueKey returns a string that is equal for two cell values exactly when
// they have the same type and value.
func ValueKey(v any) string {
	return fmt.Sprintf("%T:%v", v, v)
}
