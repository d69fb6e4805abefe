package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/saulfrancisco-ruizacevedo/go-neomap"
	"github.com/saulfrancisco-ruizacevedo/go-neomap/mapping"
	"github.com/saulfrancisco-ruizacevedo/go-neomap/taxonomy"
)

var taxonomyCmd = &cobra.Command{
	Use:   "taxonomy",
	Short: "Build taxonomy tables and materialize them as path chains",
}

var taxonomyBuildFlags struct {
	source sourceFlags
	levels []string
	out    string
	format string
}

var taxonomyBuildCmd = &cobra.Command{
	Use:   "build FILE",
	Short: "Group a table by its level columns and count each combination",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f := &taxonomyBuildFlags
		tax, err := buildTaxonomy(args[0], &f.source, f.levels)
		if err != nil {
			return err
		}
		return writeTaxonomy(cmd, tax, f.out, taxonomy.ExportFormat(f.format))
	},
}

// buildTaxonomy loads a source table and freezes its taxonomy.
func buildTaxonomy(name string, src *sourceFlags, levels []string) (*taxonomy.Table, error) {
	t, err := src.load(name)
	if err != nil {
		return nil, err
	}
	// Missing level columns are reported before grouping.
	a, err := mapping.Classify(t.Columns(), mapping.Selection{TaxonomyLevels: levels})
	if err != nil {
		return nil, err
	}
	if err := a.RequireLevels(); err != nil {
		return nil, err
	}
	b, err := taxonomy.NewBuilder(t, a.TaxonomyLevels())
	if err != nil {
		return nil, err
	}
	return b.Freeze()
}

func writeTaxonomy(cmd *cobra.Command, tax *taxonomy.Table, out string, format taxonomy.ExportFormat) error {
	var w io.Writer = cmd.OutOrStdout()
	if out != "" && out != "-" {
		f, err := os.Create(out)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	if err := taxonomy.Export(w, tax, format); err != nil {
		return WrapError(ExitConfigError, "export taxonomy", err)
	}
	if w != cmd.OutOrStdout() {
		cmd.Printf("Wrote %d groups (%d rows counted) to %s\n", len(tax.Rows), tax.TotalCount(), out)
	}
	return nil
}

var taxonomyPushFlags struct {
	source      sourceFlags
	levels      []string
	fromExport  bool
	entityLabel string
	entityMatch []string
	entityKeys  []string
	rel         string
	chain       string
}

var taxonomyPushCmd = &cobra.Command{
	Use:   "push FILE",
	Short: "Materialize a taxonomy as chains of path_id nodes",
	Long: `push merges one node per taxonomy level and row, labeled by the level
column and keyed by its value (is) and path_id, the values from the root down
to that level joined with "-". Each node is linked to its parent level with
the chain relationship (OF by default).

FILE is a source table grouped by --level, or with --taxonomy a table
previously written by "taxonomy build". With --entity-label the deepest node
of every row is also linked to the entities whose properties equal the row's
--entity-match values.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f := &taxonomyPushFlags
		var tax *taxonomy.Table
		var err error
		if f.fromExport {
			tax, err = taxonomy.Load(args[0])
		} else {
			tax, err = buildTaxonomy(args[0], &f.source, f.levels)
		}
		if err != nil {
			return err
		}

		keys, err := mapping.ParsePropertyMap(f.entityKeys)
		if err != nil {
			return err
		}
		chain := f.chain
		if chain == "" {
			chain = state.cfg.Taxonomy.ChainRelationship
		}
		spec := taxonomy.PushSpec{
			EntityLabel:       f.entityLabel,
			MatchColumns:      f.entityMatch,
			EntityKeys:        keys,
			RelationshipType:  f.rel,
			ChainRelationship: chain,
		}
		policy, err := neomap.ParseErrorPolicy(state.cfg.Push.OnError)
		if err != nil {
			return err
		}

		return withSession(cmd.Context(), func(s *session) error {
			m := neomap.NewManager(s.runner, managerOptions()...)
			p := taxonomy.NewPusher(m,
				taxonomy.WithPolicy(policy),
				taxonomy.WithLimiter(pushLimiter()),
				taxonomy.WithLogger(state.logger),
			)
			report, err := p.Push(cmd.Context(), tax, spec)
			if err != nil {
				return err
			}
			return printReport(cmd, report)
		})
	},
}

var taxonomyExportFlags struct {
	out    string
	format string
}

var taxonomyExportCmd = &cobra.Command{
	Use:   "convert FILE",
	Short: "Re-export a saved taxonomy table in another format",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tax, err := taxonomy.Load(args[0])
		if err != nil {
			return fmt.Errorf("load taxonomy: %w", err)
		}
		return writeTaxonomy(cmd, tax, taxonomyExportFlags.out, taxonomy.ExportFormat(taxonomyExportFlags.format))
	},
}

func init() {
	b := &taxonomyBuildFlags
	b.source.register(taxonomyBuildCmd)
	taxonomyBuildCmd.Flags().StringSliceVar(&b.levels, "level", nil, "Level columns, root first")
	taxonomyBuildCmd.Flags().StringVarP(&b.out, "out", "o", "-", "Output path (- for stdout)")
	taxonomyBuildCmd.Flags().StringVarP(&b.format, "out-format", "f", string(taxonomy.ExportCSV), "Output format (csv|json)")

	p := &taxonomyPushFlags
	p.source.register(taxonomyPushCmd)
	fl := taxonomyPushCmd.Flags()
	fl.StringSliceVar(&p.levels, "level", nil, "Level columns, root first")
	fl.BoolVar(&p.fromExport, "taxonomy", false, "FILE is a saved taxonomy table")
	fl.StringVar(&p.entityLabel, "entity-label", "", "Label of the classified entities")
	fl.StringSliceVar(&p.entityMatch, "entity-match", nil, "Level columns whose values locate the entities")
	fl.StringSliceVar(&p.entityKeys, "entity-key", nil, "Entity match renames as column=property")
	fl.StringVar(&p.rel, "rel", "", "Relationship from the deepest path node to each entity")
	fl.StringVar(&p.chain, "chain", "", "Relationship from a path node to its parent (default: taxonomy.chain_relationship)")

	e := &taxonomyExportFlags
	taxonomyExportCmd.Flags().StringVarP(&e.out, "out", "o", "-", "Output path (- for stdout)")
	taxonomyExportCmd.Flags().StringVarP(&e.format, "out-format", "f", string(taxonomy.ExportJSON), "Output format (csv|json)")

	taxonomyCmd.AddCommand(taxonomyBuildCmd)
	taxonomyCmd.AddCommand(taxonomyPushCmd)
	taxonomyCmd.AddCommand(taxonomyExportCmd)
}
