package table

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// ReadJSON reads record-oriented JSON: either an array of objects or a stream
// of newline-delimited objects. Columns appear in first-seen key order.
// Integral numbers become int64 and other numbers float64; nested values
// are kept as their JSON text.
func ReadJSON(r io.Reader) (*Table, error) {
	br := bufio.NewReader(r)
	first, err := peekNonSpace(br)
	if err != nil {
		return nil, fmt.Errorf("json: %w", err)
	}

	dec := json.NewDecoder(br)
	dec.UseNumber()

	b := newBuilder()
	if first == '[' {
		if _, err := dec.Token(); err != nil {
			return nil, fmt.Errorf("json: %w", err)
		}
		for dec.More() {
			if err := b.readObject(dec); err != nil {
				return nil, fmt.Errorf("json: record %d: %w", len(b.rows), err)
			}
		}
		if _, err := dec.Token(); err != nil {
			return nil, fmt.Errorf("json: %w", err)
		}
	} else {
		for {
			err := b.readObject(dec)
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				return nil, fmt.Errorf("json: record %d: %w", len(b.rows), err)
			}
		}
	}
	return b.table()
}

// WriteNDJSON writes one JSON object per row with keys in column order.
// Nil cells are written as null.
func WriteNDJSON(w io.Writer, t *Table) error {
	bw := bufio.NewWriter(w)
	var buf bytes.Buffer
	for _, r := range t.rows {
		buf.Reset()
		buf.WriteByte('{')
		for i, c := range t.columns {
			if i > 0 {
				buf.WriteByte(',')
			}
			k, err := json.Marshal(c)
			if err != nil {
				return err
			}
			v, err := json.Marshal(r[c])
			if err != nil {
				return fmt.Errorf("json: column %q: %w", c, err)
			}
			buf.Write(k)
			buf.WriteByte(':')
			buf.Write(v)
		}
		buf.WriteString("}\n")
		if _, err := bw.Write(buf.Bytes()); err != nil {
			return err
		}
	}
	return bw.Flush()
}

type builder struct {
	columns []string
	known   map[string]bool
	rows    []Row
}

func newBuilder() *builder {
	return &builder{known: make(map[string]bool)}
}

func (b *builder) readObject(dec *json.Decoder) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("expected object, got %v", tok)
	}
	row := Row{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key := tok.(string)
		var raw any
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		v, err := jsonCell(raw)
		if err != nil {
			return err
		}
		if !b.known[key] {
			b.known[key] = true
			b.columns = append(b.columns, key)
		}
		row[key] = v
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	b.rows = append(b.rows, row)
	return nil
}

func (b *builder) table() (*Table, error) {
	t, err := New(b.columns, nil)
	if err != nil {
		return nil, err
	}
	t.rows = b.rows
	return t, nil
}

func jsonCell(raw any) (any, error) {
	switch v := raw.(type) {
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i, nil
		}
		return v.Float64()
	case map[string]any, []any:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		return string(b), nil
	default:
		return v, nil
	}
}

func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		c, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		switch c {
		case ' ', '\t', '\r', '\n':
			continue
		}
		return c, br.UnreadByte()
	}
}
