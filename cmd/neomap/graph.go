package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/saulfrancisco-ruizacevedo/go-neomap/graphio"
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Export or restore the whole graph",
}

var graphExportOut string

var graphExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write every node and relationship to a binary snapshot",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withSession(cmd.Context(), func(s *session) error {
			g, err := graphio.Export(cmd.Context(), s.runner)
			if err != nil {
				return err
			}
			f, err := os.Create(graphExportOut)
			if err != nil {
				return err
			}
			if err := graphio.Encode(f, g); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			cmd.Printf("Exported %d nodes and %d relationships to %s\n", len(g.Nodes), len(g.Edges), graphExportOut)
			return nil
		})
	},
}

var graphImportYes bool

var graphImportCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Replace the active database with a snapshot",
	Long: `import deletes every node and relationship of the active database and
recreates the snapshot's contents. Element ids are reassigned. The command
refuses to run without --yes.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !graphImportYes {
			return WrapError(ExitConfigError, "import replaces the whole database; pass --yes to confirm", nil)
		}
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		g, err := graphio.Decode(f)
		f.Close()
		if err != nil {
			return err
		}
		return withSession(cmd.Context(), func(s *session) error {
			report, err := graphio.Import(cmd.Context(), s.runner, g, state.logger)
			if err != nil {
				return err
			}
			cmd.Printf("Imported %d nodes and %d relationships\n", report.Nodes, report.Edges)
			return nil
		})
	},
}

func init() {
	graphExportCmd.Flags().StringVarP(&graphExportOut, "out", "o", "graph.pb", "Snapshot path")
	graphImportCmd.Flags().BoolVar(&graphImportYes, "yes", false, "Confirm replacing the database")

	graphCmd.AddCommand(graphExportCmd)
	graphCmd.AddCommand(graphImportCmd)
}
