package main

import (
	"github.com/spf13/cobra"

	"github.com/saulfrancisco-ruizacevedo/go-neomap"
	"github.com/saulfrancisco-ruizacevedo/go-neomap/ingest"
	"github.com/saulfrancisco-ruizacevedo/go-neomap/table"
)

var indexFlags struct {
	includeFiles bool
	relationship string
}

var indexCmd = &cobra.Command{
	Use:   "index SCAN",
	Short: "Index a disk-usage scan as a Folder hierarchy",
	Long: `index reads a disk-usage scan (a JSON tree or an ncdu export) and
upserts one Folder node per directory, keyed by its path, linked to its
parent folder with IS_IN. Files are indexed too with --files.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		scan, err := table.Load(args[0], table.LoadOptions{Format: table.FormatScan})
		if err != nil {
			return err
		}
		policy, err := neomap.ParseErrorPolicy(state.cfg.Push.OnError)
		if err != nil {
			return err
		}
		return withSession(cmd.Context(), func(s *session) error {
			m := neomap.NewManager(s.runner, managerOptions()...)
			ix, err := ingest.NewIndexer(m, ingest.IndexOptions{
				Options: ingest.Options{
					Policy:  policy,
					Limiter: pushLimiter(),
					Logger:  state.logger,
				},
				IncludeFiles: indexFlags.includeFiles,
				Relationship: indexFlags.relationship,
			})
			if err != nil {
				return err
			}
			report, err := ix.Push(cmd.Context(), scan)
			if err != nil {
				return err
			}
			return printReport(cmd, report)
		})
	},
}

func init() {
	indexCmd.Flags().BoolVar(&indexFlags.includeFiles, "files", false, "Index files as well as directories")
	indexCmd.Flags().StringVar(&indexFlags.relationship, "rel", ingest.DefaultContainmentRelationship, "Relationship from an entry to its parent folder")
}
