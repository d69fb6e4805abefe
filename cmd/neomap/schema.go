package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/saulfrancisco-ruizacevedo/go-neomap/schema"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Inspect the label and relationship structure of the graph",
}

var schemaSampleFlags struct {
	prefix  string
	limit   int
	noLimit bool
	format  string
	layout  string
	physics bool
	out     string
	title   string
}

var schemaSampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Sample (label)-[TYPE]->(label) triples",
	Long: `sample reads up to --limit relationships and reports the distinct
(subject label, relationship type, object label) triples among them. The
result is a sample: rare patterns beyond the limit may be missing.

--prefix narrows the relationships read with a read-only clause; "-"
disables the default deduplicating prefix. Output is text, json, view (the
layout-ready JSON graph) or html (a standalone vis-network page).`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		f := &schemaSampleFlags
		opts := schema.SampleOptions{Prefix: f.prefix, Limit: f.limit, NoLimit: f.noLimit}
		if !cmd.Flags().Changed("prefix") {
			opts.Prefix = state.cfg.Schema.Prefix
		}
		if !cmd.Flags().Changed("limit") {
			opts.Limit = state.cfg.Schema.SampleSize
		}
		layoutName := f.layout
		if !cmd.Flags().Changed("layout") {
			layoutName = state.cfg.Schema.Layout
		}
		layout, err := schema.ParseLayout(layoutName)
		if err != nil {
			return WrapError(ExitConfigError, err.Error(), nil)
		}
		physics := f.physics || state.cfg.Schema.Physics

		return withSession(cmd.Context(), func(s *session) error {
			sample, err := schema.NewSampler(s.runner).Sample(cmd.Context(), opts)
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if f.out != "" && f.out != "-" {
				file, err := os.Create(f.out)
				if err != nil {
					return err
				}
				defer file.Close()
				w = file
			}

			switch f.format {
			case "text":
				for _, t := range sample.Triples {
					if _, err := io.WriteString(w, t.String()+"\n"); err != nil {
						return err
					}
				}
				return nil
			case "json":
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(sample)
			case "view":
				return schema.NewView(sample, layout, physics).WriteJSON(w)
			case "html":
				return schema.NewView(sample, layout, physics).RenderHTML(w, f.title)
			default:
				return WrapError(ExitConfigError, "unknown format "+f.format+" (want text, json, view or html)", nil)
			}
		})
	},
}

func init() {
	f := &schemaSampleFlags
	fl := schemaSampleCmd.Flags()
	fl.StringVar(&f.prefix, "prefix", "", "Read-only clause placed before the sampling pattern (- for none)")
	fl.IntVar(&f.limit, "limit", schema.DefaultLimit, "Maximum relationships read")
	fl.BoolVar(&f.noLimit, "no-limit", false, "Read every relationship")
	fl.StringVarP(&f.format, "format", "f", "text", "Output format (text|json|view|html)")
	fl.StringVar(&f.layout, "layout", string(schema.Hierarchical), "View layout (hierarchical|force-directed)")
	fl.BoolVar(&f.physics, "physics", false, "Enable the physics simulation in the view")
	fl.StringVarP(&f.out, "out", "o", "-", "Output path (- for stdout)")
	fl.StringVar(&f.title, "title", "", "HTML page title")

	schemaCmd.AddCommand(schemaSampleCmd)
}
