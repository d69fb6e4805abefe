package table

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

const utf8BOM = "\ufeff"

// ReadCSV reads a comma-separated table whose first record is the header.
// Cell values go through InferValue; short records are padded with nil.
func ReadCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(bufio.NewReader(r))
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("csv: no header row")
	}
	if err != nil {
		return nil, fmt.Errorf("csv: read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], utf8BOM)
	}
	columns := make([]string, len(header))
	copy(columns, header)

	t, err := New(columns, nil)
	if err != nil {
		return nil, fmt.Errorf("csv: %w", err)
	}

	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("csv: line %d: %w", line, err)
		}
		if len(rec) > len(columns) {
			return nil, fmt.Errorf("csv: line %d has %d fields, header has %d", line, len(rec), len(columns))
		}
		row := make(Row, len(columns))
		for i, c := range columns {
			if i < len(rec) {
				row[c] = InferValue(rec[i])
			} else {
				row[c] = nil
			}
		}
		t.rows = append(t.rows, row)
	}
	return t, nil
}

// WriteCSV writes t with a header record.
func WriteCSV(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.columns); err != nil {
		return err
	}
	rec := make([]string, len(t.columns))
	for _, r := range t.rows {
		for i, c := range t.columns {
			rec[i] = FormatValue(r[c])
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
