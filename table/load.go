package table

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Format names a source format.
type Format string

const (
	FormatAuto  Format = ""
	FormatCSV   Format = "csv"
	FormatJSON  Format = "json"
	FormatExcel Format = "excel"
	FormatScan  Format = "scan"
)

// ParseFormat validates a format name. "xlsx" is accepted for excel and
// "ndjson" for json.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "auto":
		return FormatAuto, nil
	case "csv":
		return FormatCSV, nil
	case "json", "ndjson", "jsonl":
		return FormatJSON, nil
	case "excel", "xlsx":
		return FormatExcel, nil
	case "scan", "ncdu":
		return FormatScan, nil
	default:
		return "", fmt.Errorf("unknown format %q", s)
	}
}

// DetectFormat infers the format from a file extension.
func DetectFormat(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return FormatCSV, nil
	case ".json", ".ndjson", ".jsonl":
		return FormatJSON, nil
	case ".xlsx", ".xlsm":
		return FormatExcel, nil
	default:
		return "", fmt.Errorf("cannot infer format of %q; pass it explicitly", name)
	}
}

// LoadOptions selects the format and, for workbooks, the sheet.
type LoadOptions struct {
	Format Format
	Sheet  string
}

// Load reads the table stored at name.
func Load(name string, opts LoadOptions) (*Table, error) {
	format := opts.Format
	if format == FormatAuto {
		var err error
		if format, err = DetectFormat(name); err != nil {
			return nil, err
		}
	}

	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch format {
	case FormatCSV:
		return ReadCSV(f)
	case FormatJSON:
		return ReadJSON(f)
	case FormatExcel:
		return ReadExcel(f, opts.Sheet)
	case FormatScan:
		return ReadScan(f)
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
}
