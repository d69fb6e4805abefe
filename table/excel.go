package table

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

const maxSheetName = 31

// SheetNames lists the worksheets of an .xlsx workbook in order.
func SheetNames(r io.Reader) ([]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("excel: open: %w", err)
	}
	defer f.Close()
	return f.GetSheetList(), nil
}

// ReadExcel reads one worksheet of an .xlsx workbook. The first row is the
// header; an empty sheet name selects the first sheet. Cells go through InferValue.
func ReadExcel(r io.Reader, sheet string) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("excel: open: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("excel: workbook has no sheets")
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("excel: sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("excel: sheet %q has no header row", sheet)
	}

	header := rows[0]
	for len(header) > 0 && strings.TrimSpace(header[len(header)-1]) == "" {
		header = header[:len(header)-1]
	}
	t, err := New(header, nil)
	if err != nil {
		return nil, fmt.Errorf("excel: sheet %q: %w", sheet, err)
	}
	for _, rec := range rows[1:] {
		row := make(Row, len(header))
		blank := true
		for i, c := range header {
			var v any
			if i < len(rec) {
				v = InferValue(rec[i])
			}
			if v != nil {
				blank = false
			}
			row[c] = v
		}
		if !blank {
			t.rows = append(t.rows, row)
		}
	}
	return t, nil
}

// Sheet is a named table written to a workbook.
type Sheet struct {
	Name  string
	Table *Table
}

// WriteWorkbook writes sheets to an .xlsx workbook, one worksheet each, with
// a header row. Sheet names are sanitized to what Excel accepts.
func WriteWorkbook(w io.Writer, sheets []Sheet) error {
	if len(sheets) == 0 {
		return fmt.Errorf("excel: no sheets to write")
	}
	f := excelize.NewFile()
	defer f.Close()

	used := make(map[string]bool)
	for i, s := range sheets {
		name := uniqueSheetName(sanitizeSheetName(s.Name), used)
		if i == 0 {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				return fmt.Errorf("excel: %w", err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("excel: %w", err)
		}
		if err := writeSheet(f, name, s.Table); err != nil {
			return err
		}
	}
	f.SetActiveSheet(0)
	if err := f.Write(w); err != nil {
		return fmt.Errorf("excel: write: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, name string, t *Table) error {
	header := make([]any, len(t.columns))
	for i, c := range t.columns {
		header[i] = c
	}
	if err := f.SetSheetRow(name, "A1", &header); err != nil {
		return fmt.Errorf("excel: sheet %q: %w", name, err)
	}
	for i, r := range t.rows {
		cells := make([]any, len(t.columns))
		for j, c := range t.columns {
			cells[j] = excelCell(r[c])
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(name, cell, &cells); err != nil {
			return fmt.Errorf("excel: sheet %q row %d: %w", name, i+2, err)
		}
	}
	return nil
}

func excelCell(v any) any {
	switch v.(type) {
	case nil, string, int64, int, float64, bool:
		return v
	default:
		return FormatValue(v)
	}
}

func sanitizeSheetName(name string) string {
	name = strings.Map(func(r rune) rune {
		switch r {
		case '[', ']', ':', '*', '?', '/', '\\':
			return '_'
		}
		return r
	}, strings.Trim(name, "'"))
	if name == "" {
		name = "Sheet"
	}
	if r := []rune(name); len(r) > maxSheetName {
		name = string(r[:maxSheetName])
	}
	return name
}

func uniqueSheetName(name string, used map[string]bool) string {
	candidate := name
	for n := 2; used[strings.ToLower(candidate)]; n++ {
		suffix := fmt.Sprintf("_%d", n)
		r := []rune(name)
		if len(r)+len(suffix) > maxSheetName {
			r = r[:maxSheetName-len(suffix)]
		}
		candidate = string(r) + suffix
	}
	used[strings.ToLower(candidate)] = true
	return candidate
}
