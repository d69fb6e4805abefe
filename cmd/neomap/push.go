package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/saulfrancisco-ruizacevedo/go-neomap"
	"github.com/saulfrancisco-ruizacevedo/go-neomap/ingest"
	"github.com/saulfrancisco-ruizacevedo/go-neomap/mapping"
	"github.com/saulfrancisco-ruizacevedo/go-neomap/table"
)

// sourceFlags select and parse a tabular input file.
type sourceFlags struct {
	format string
	sheet  string
}

func (f *sourceFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.format, "format", "", "Input format (csv|json|excel|scan; default: from extension)")
	cmd.Flags().StringVar(&f.sheet, "sheet", "", "Workbook sheet (default: first)")
}

func (f *sourceFlags) load(name string) (*table.Table, error) {
	format, err := table.ParseFormat(f.format)
	if err != nil {
		return nil, WrapError(ExitConfigError, err.Error(), nil)
	}
	t, err := table.Load(name, table.LoadOptions{Format: format, Sheet: f.sheet})
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", name, err)
	}
	return t, nil
}

var pushFlags struct {
	source      sourceFlags
	labelColumn string
	properties  []string
	matchKeys   []string
	context     []string
	rename      []string
	matchRename []string

	linkLabel string
	linkMatch []string
	linkKeys  []string
	linkRel   string
	linkMerge bool
}

var pushCmd = &cobra.Command{
	Use:   "push FILE",
	Short: "Upsert one node per row of a table",
	Long: `push upserts one node per row. The label comes from --label-col, the
node is identified by the --match columns and updated with the --prop
columns. Re-running a push never duplicates nodes.

With --link-label and --link-rel each node is also linked to the nodes of
that label whose properties equal the row's --link-match values.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f := &pushFlags
		t, err := f.source.load(args[0])
		if err != nil {
			return err
		}

		propNames, err := mapping.ParsePropertyMap(f.rename)
		if err != nil {
			return err
		}
		matchNames, err := mapping.ParsePropertyMap(f.matchRename)
		if err != nil {
			return err
		}
		a, err := mapping.Classify(t.Columns(), mapping.Selection{
			Label:         f.labelColumn,
			Properties:    f.properties,
			MatchKeys:     f.matchKeys,
			Context:       f.context,
			PropertyNames: propNames,
			MatchNames:    matchNames,
		})
		if err != nil {
			return err
		}

		var link *ingest.LinkSpec
		if f.linkLabel != "" || f.linkRel != "" {
			keys, err := mapping.ParsePropertyMap(f.linkKeys)
			if err != nil {
				return err
			}
			link = &ingest.LinkSpec{
				TargetLabel:      f.linkLabel,
				MatchColumns:     f.linkMatch,
				TargetKeys:       keys,
				RelationshipType: f.linkRel,
				MergeTarget:      f.linkMerge,
			}
		}

		policy, err := neomap.ParseErrorPolicy(state.cfg.Push.OnError)
		if err != nil {
			return err
		}
		return withSession(cmd.Context(), func(s *session) error {
			m := neomap.NewManager(s.runner, managerOptions()...)
			pusher := ingest.NewEntityPusher(m, ingest.Options{
				Policy:  policy,
				Limiter: pushLimiter(),
				Logger:  state.logger,
			})
			report, err := pusher.Push(cmd.Context(), t, a, link)
			if err != nil {
				return err
			}
			return printReport(cmd, report)
		})
	},
}

// printReport summarizes a push and turns row failures into ExitPartialPush.
func printReport(cmd *cobra.Command, r *neomap.PushReport) error {
	cmd.Printf("run %s: %d rows, %d succeeded, %d failed\n", r.RunID, r.Rows, r.Succeeded, len(r.Failed))
	for _, fe := range r.Failed {
		cmd.PrintErrln(errColor.Sprint("  row"), fe.Row, fe.Err)
	}
	if r.Aborted {
		cmd.PrintErrln("push aborted at the first failing row")
	}
	if err := r.Err(); err != nil {
		return &CLIError{Code: ExitPartialPush, Message: fmt.Sprintf("%d rows failed", len(r.Failed)), Cause: err}
	}
	return nil
}

func init() {
	f := &pushFlags
	f.source.register(pushCmd)
	fl := pushCmd.Flags()
	fl.StringVar(&f.labelColumn, "label-col", "", "Column holding each row's node label")
	fl.StringSliceVar(&f.properties, "prop", nil, "Columns written as node properties")
	fl.StringSliceVar(&f.matchKeys, "match", nil, "Columns identifying the node")
	fl.StringSliceVar(&f.context, "context", nil, "Columns kept for reference only")
	fl.StringSliceVar(&f.rename, "rename", nil, "Property renames as column=property")
	fl.StringSliceVar(&f.matchRename, "match-rename", nil, "Match key renames as column=property")
	fl.StringVar(&f.linkLabel, "link-label", "", "Label of the nodes each row links to")
	fl.StringSliceVar(&f.linkMatch, "link-match", nil, "Columns whose values identify the link target")
	fl.StringSliceVar(&f.linkKeys, "link-key", nil, "Link match renames as column=property")
	fl.StringVar(&f.linkRel, "link-rel", "", "Relationship type from each node to its target")
	fl.BoolVar(&f.linkMerge, "link-merge", false, "Create missing link targets by key")
}
