package taxonomy

import (
	"fmt"
	"io"

	"github.com/saulfrancisco-ruizacevedo/go-neomap/table"
)

// ExportFormat selects how a taxonomy table is written.
type ExportFormat string

const (
	ExportCSV  ExportFormat = "csv"
	ExportJSON ExportFormat = "json"
)

// Export writes tax as CSV or newline-delimited JSON records, levels first
// and Count last.
func Export(w io.Writer, tax *Table, format ExportFormat) error {
	switch format {
	case ExportCSV:
		return table.WriteCSV(w, tax.AsTable())
	case ExportJSON:
		return table.WriteNDJSON(w, tax.AsTable())
	default:
		return fmt.Errorf("taxonomy: unknown export format %q", format)
	}
}

// Load reads a taxonomy table previously written by Export.
func Load(name string) (*Table, error) {
	src, err := table.Load(name, table.LoadOptions{})
	if err != nil {
		return nil, err
	}
	return FromTable(src)
}
