package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/saulfrancisco-ruizacevedo/go-neomap"
	"github.com/saulfrancisco-ruizacevedo/go-neomap/table"
)

var labelsCmd = &cobra.Command{
	Use:   "labels",
	Short: "List the node labels of the active database",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withSession(cmd.Context(), func(s *session) error {
			labels, err := neomap.Labels(cmd.Context(), s.runner)
			if err != nil {
				return err
			}
			for _, l := range labels {
				cmd.Println(l)
			}
			return nil
		})
	},
}

var databasesCmd = &cobra.Command{
	Use:   "databases",
	Short: "List the databases on the server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withSession(cmd.Context(), func(s *session) error {
			names, err := neomap.Databases(cmd.Context(), s.runner)
			if err != nil {
				return err
			}
			for _, n := range names {
				cmd.Println(n)
			}
			return nil
		})
	},
}

var nodesCmd = &cobra.Command{
	Use:   "nodes",
	Short: "Read node properties as tables",
}

var nodesFetchFlags struct {
	label      string
	properties []string
	format     string
}

var nodesFetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Print one row per node of a label",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		f := nodesFetchFlags
		return withSession(cmd.Context(), func(s *session) error {
			t, err := neomap.FetchNodes(cmd.Context(), s.runner, f.label, f.properties)
			if err != nil {
				return err
			}
			switch f.format {
			case "csv":
				return table.WriteCSV(cmd.OutOrStdout(), t)
			case "json":
				return table.WriteNDJSON(cmd.OutOrStdout(), t)
			default:
				return WrapError(ExitConfigError, fmt.Sprintf("unknown format %q (want csv or json)", f.format), nil)
			}
		})
	},
}

var nodesExportFlags struct {
	labels []string
	prefix string
	out    string
}

var nodesExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the nodes of each label to one workbook sheet",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		f := nodesExportFlags
		return withSession(cmd.Context(), func(s *session) error {
			labels := f.labels
			if len(labels) == 0 {
				var err error
				if labels, err = neomap.Labels(cmd.Context(), s.runner); err != nil {
					return err
				}
			}
			sheets := make([]table.Sheet, 0, len(labels))
			for _, l := range labels {
				t, err := neomap.FetchNodesByLabel(cmd.Context(), s.runner, l, f.prefix)
				if err != nil {
					return err
				}
				sheets = append(sheets, table.Sheet{Name: l, Table: t})
			}

			out, err := os.Create(f.out)
			if err != nil {
				return err
			}
			if err := table.WriteWorkbook(out, sheets); err != nil {
				out.Close()
				return err
			}
			if err := out.Close(); err != nil {
				return err
			}
			cmd.Printf("Exported %d labels to %s\n", len(sheets), f.out)
			return nil
		})
	},
}

func init() {
	fetch := nodesFetchCmd.Flags()
	fetch.StringVarP(&nodesFetchFlags.label, "label", "l", "", "Node label")
	fetch.StringSliceVar(&nodesFetchFlags.properties, "prop", nil, "Properties to read (default: every key seen on the label)")
	fetch.StringVarP(&nodesFetchFlags.format, "format", "f", "csv", "Output format (csv|json)")
	_ = nodesFetchCmd.MarkFlagRequired("label")

	export := nodesExportCmd.Flags()
	export.StringSliceVarP(&nodesExportFlags.labels, "label", "l", nil, "Labels to export (default: all)")
	export.StringVar(&nodesExportFlags.prefix, "prefix", "", "Read-only clause placed before the label match")
	export.StringVarP(&nodesExportFlags.out, "out", "o", "nodes.xlsx", "Workbook path")

	nodesCmd.AddCommand(nodesFetchCmd)
	nodesCmd.AddCommand(nodesExportCmd)
}
