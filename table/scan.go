package table

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"path"
)

// Columns of a flattened filesystem scan.
const (
	ColPath      = "Path"
	ColSize      = "Size (Bytes)"
	ColDiskUsage = "Disk Usage (Bytes)"
	ColType      = "Type"

	TypeDirectory = "Directory"
	TypeFile      = "File"
)

// ScanColumns is the column order of tables produced by ReadScan.
var ScanColumns = []string{ColPath, ColSize, ColDiskUsage, ColType}

// scanEntry is one node of the tree-shaped scan format. Children is nil for
// files and non-nil (possibly empty) for directories.
type scanEntry struct {
	Name     string       `json:"name"`
	ASize    int64        `json:"asize"`
	DSize    int64        `json:"dsize"`
	Children []*scanEntry `json:"children"`
}

// ReadScan reads a filesystem scan and flattens it into one row per entry in
// pre-order: each directory precedes its contents. Two shapes are accepted:
//   - a tree object {"name", "asize", "dsize", "children": [...]};
//   - an ncdu JSON export [major, minor, {meta}, [dirinfo, child, ...]],
//     where directories are arrays whose first element describes the directory.
//
// Path is the slash-joined chain of names from the root entry.
func ReadScan(r io.Reader) (*Table, error) {
	br := bufio.NewReader(r)
	first, err := peekNonSpace(br)
	if err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}

	var root *scanEntry
	if first == '[' {
		var export []json.RawMessage
		if err := json.NewDecoder(br).Decode(&export); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		if len(export) < 4 {
			return nil, fmt.Errorf("scan: ncdu export has %d elements, expected at least 4", len(export))
		}
		root, err = ncduEntry(export[len(export)-1])
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
	} else {
		root = &scanEntry{}
		if err := json.NewDecoder(br).Decode(root); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
	}

	t, _ := New(ScanColumns, nil)
	flattenScan(t, root, "")
	return t, nil
}

func flattenScan(t *Table, e *scanEntry, parent string) {
	p := e.Name
	if parent != "" {
		p = path.Join(parent, e.Name)
	}
	kind := TypeFile
	if e.Children != nil {
		kind = TypeDirectory
	}
	t.rows = append(t.rows, Row{
		ColPath:      p,
		ColSize:      e.ASize,
		ColDiskUsage: e.DSize,
		ColType:      kind,
	})
	for _, c := range e.Children {
		flattenScan(t, c, p)
	}
}

// ncduEntry converts the ncdu export encoding: a JSON object is a file, an
// array is a directory whose head object describes it.
func ncduEntry(raw json.RawMessage) (*scanEntry, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		e := &scanEntry{}
		if err := json.Unmarshal(raw, e); err != nil {
			return nil, err
		}
		e.Children = nil
		return e, nil
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("empty directory entry")
	}
	dir := &scanEntry{}
	if err := json.Unmarshal(items[0], dir); err != nil {
		return nil, err
	}
	dir.Children = make([]*scanEntry, 0, len(items)-1)
	for _, item := range items[1:] {
		child, err := ncduEntry(item)
		if err != nil {
			return nil, err
		}
		dir.Children = append(dir.Children, child)
	}
	return dir, nil
}
