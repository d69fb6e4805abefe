// Package taxonomy groups entity rows by an ordered list of level columns
// and materializes each group as a chain of path nodes linked to the
// entities it classifies.
package taxonomy

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/saulfrancisco-ruizacevedo/go-neomap"
	"github.com/saulfrancisco-ruizacevedo/go-neomap/table"
)

// CountColumn holds the group size in exported taxonomy tables.
const CountColumn = "Count"

// Row is one distinct combination of level values and the number of source
// rows sharing it. Values[i] belongs to Table.Levels[i]; nil is a value.
type Row struct {
	Values []any
	Count  int
}

// Table is the result of grouping a source table by its level columns.
type Table struct {
	Levels []string
	Rows   []Row
}

// Build groups src by levels. Values compare exactly (type and value);
// missing cells form their own group. Groups appear in the order their
// first row appears in src, and their counts sum to src.Len().
func Build(src *table.Table, levels []string) (*Table, error) {
	if err := checkLevels(levels); err != nil {
		return nil, err
	}
	for _, l := range levels {
		if !src.HasColumn(l) {
			return nil, neomap.Errorf(neomap.ErrCodeConfiguration, "taxonomy level %q is not a column", l)
		}
	}

	t := &Table{Levels: slices.Clone(levels)}
	index := make(map[string]int)
	values := make([]any, len(levels))
	for _, r := range src.Rows() {
		for i, l := range levels {
			values[i] = r[l]
		}
		k := groupKey(values)
		if at, ok := index[k]; ok {
			t.Rows[at].Count++
			continue
		}
		index[k] = len(t.Rows)
		t.Rows = append(t.Rows, Row{Values: slices.Clone(values), Count: 1})
	}
	return t, nil
}

func checkLevels(levels []string) error {
	if len(levels) == 0 {
		return neomap.NewError(neomap.ErrCodeConfiguration, "no taxonomy level selected")
	}
	seen := make(map[string]bool, len(levels))
	for _, l := range levels {
		if l == CountColumn {
			return neomap.Errorf(neomap.ErrCodeConfiguration, "%q cannot be a taxonomy level", CountColumn)
		}
		if seen[l] {
			return neomap.Errorf(neomap.ErrCodeConfiguration, "taxonomy level %q is listed twice", l)
		}
		seen[l] = true
	}
	return nil
}

// groupKey length-prefixes every value key so no combination of values can
// spell out another.
func groupKey(values []any) string {
	var b strings.Builder
	for _, v := range values {
		k := table.ValueKey(v)
		b.WriteString(strconv.Itoa(len(k)))
		b.WriteByte(':')
		b.WriteString(k)
	}
	return b.String()
}

// TotalCount sums the counts of every row.
func (t *Table) TotalCount() int {
	n := 0
	for _, r := range t.Rows {
		n += r.Count
	}
	return n
}

// Clone returns a deep copy.
func (t *Table) Clone() *Table {
	out := &Table{Levels: slices.Clone(t.Levels), Rows: make([]Row, len(t.Rows))}
	for i, r := range t.Rows {
		out.Rows[i] = Row{Values: slices.Clone(r.Values), Count: r.Count}
	}
	return out
}

// AsTable converts t to an entity table with the level columns followed by Count.
func (t *Table) AsTable() *table.Table {
	columns := append(slices.Clone(t.Levels), CountColumn)
	rows := make([]table.Row, len(t.Rows))
	for i, r := range t.Rows {
		row := make(table.Row, len(columns))
		for j, l := range t.Levels {
			row[l] = r.Values[j]
		}
		row[CountColumn] = int64(r.Count)
		rows[i] = row
	}
	return table.MustNew(columns, rows)
}

// FromTable reloads a taxonomy exported by AsTable: every column except
// Count is a level, in column order.
func FromTable(src *table.Table) (*Table, error) {
	var levels []string
	for _, c := range src.Columns() {
		if c != CountColumn {
			levels = append(levels, c)
		}
	}
	if err := checkLevels(levels); err != nil {
		return nil, err
	}
	t := &Table{Levels: levels}
	for i, r := range src.Rows() {
		row := Row{Values: make([]any, len(levels)), Count: 1}
		for j, l := range levels {
			row.Values[j] = r[l]
		}
		if src.HasColumn(CountColumn) {
			switch c := r[CountColumn].(type) {
			case int64:
				if c < 0 {
					return nil, neomap.Errorf(neomap.ErrCodeConfiguration, "taxonomy: row %d: negative %s %d", i, CountColumn, c)
				}
				row.Count = int(c)
			case float64:
				if c < 0 || c != math.Trunc(c) {
					return nil, neomap.Errorf(neomap.ErrCodeConfiguration, "taxonomy: row %d: %s %v is not a non-negative integer", i, CountColumn, c)
				}
				row.Count = int(c)
			case nil:
			default:
				return nil, fmt.Errorf("taxonomy: row %d: %s holds %T", i, CountColumn, c)
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}
