package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/saulfrancisco-ruizacevedo/go-neomap"
	"github.com/saulfrancisco-ruizacevedo/go-neomap/mapping"
	"github.com/saulfrancisco-ruizacevedo/go-neomap/table"
)

// LinkSpec links every pushed entity to target nodes found through row values.
type LinkSpec struct {
	// TargetLabel is the label of the nodes to link to.
	TargetLabel string
	// MatchColumns are the entity-table columns whose values identify the target.
	MatchColumns []string
	// TargetKeys renames MatchColumns to the target's property names.
	TargetKeys mapping.PropertyMap
	// RelationshipType is the type of the entity -> target edge.
	RelationshipType string
	// MergeTarget upserts a key-only target instead of requiring one to exist.
	MergeTarget bool
}

// Validate checks the spec against the columns of the source table.
func (s *LinkSpec) Validate(columns []string) error {
	if err := neomap.ValidateLabel(s.TargetLabel); err != nil {
		return err
	}
	if err := neomap.ValidateRelationshipType(s.RelationshipType); err != nil {
		return err
	}
	if len(s.MatchColumns) == 0 {
		return neomap.NewError(neomap.ErrCodeConfiguration, "link needs at least one match column")
	}
	for _, c := range s.MatchColumns {
		if !slices.Contains(columns, c) {
			return neomap.Errorf(neomap.ErrCodeConfiguration, "link match column %q does not exist", c)
		}
	}
	return s.TargetKeys.CheckTargets(s.MatchColumns)
}

func (s *LinkSpec) targetMatch(row table.Row) (map[string]any, error) {
	match := make(map[string]any, len(s.MatchColumns))
	for _, c := range s.MatchColumns {
		v := row[c]
		if v == nil {
			return nil, neomap.Errorf(neomap.ErrCodeAmbiguousIdentity, "link match column %q is empty", c)
		}
		match[s.TargetKeys.Target(c)] = v
	}
	return match, nil
}

// EntityPusher upserts one node per table row and optionally links it.
type EntityPusher struct {
	nodes  *neomap.Upserter
	links  *neomap.Linker
	opts   Options
	logger *slog.Logger
}

// NewEntityPusher creates an EntityPusher on the manager's shared Upserter and Linker.
func NewEntityPusher(m *neomap.Manager, opts Options) *EntityPusher {
	return &EntityPusher{
		nodes:  m.Nodes(),
		links:  m.Links(),
		opts:   opts,
		logger: opts.logger("entity-pusher"),
	}
}

// Push materializes every row of t under assignment a. The configuration is
// validated before any graph call: a missing label column or match key, or
// an invalid link, fails without touching the graph. Rows are then pushed in
// order; a failing row is recorded and, under AbortOnError, stops the push.
func (p *EntityPusher) Push(ctx context.Context, t *table.Table, a *mapping.Assignment, link *LinkSpec) (*neomap.PushReport, error) {
	if err := a.RequireLabel(); err != nil {
		return nil, err
	}
	if err := a.RequireMatchKeys(); err != nil {
		return nil, err
	}
	if link != nil {
		if err := link.Validate(t.Columns()); err != nil {
			return nil, err
		}
	}

	report := newReport()
	logger := p.logger.With("run_id", report.RunID)
	logger.Info("pushing entities", "rows", t.Len(), "label_column", a.LabelColumn(), "policy", p.opts.Policy.String())

	for i, row := range t.Rows() {
		if err := p.opts.wait(ctx); err != nil {
			return report, err
		}
		err := p.pushRow(ctx, a, link, row)
		if err != nil {
			logger.Warn("row failed", "row", i, "error", err)
		}
		if report.Record(i, err, p.opts.Policy) {
			break
		}
	}

	logger.Info("entity push finished", "succeeded", report.Succeeded, "failed", len(report.Failed))
	return report, nil
}

func (p *EntityPusher) pushRow(ctx context.Context, a *mapping.Assignment, link *LinkSpec, row table.Row) error {
	label, match, props, err := a.NodeFor(row)
	if err != nil {
		return err
	}
	entity, err := p.nodes.UpsertNode(ctx, label, match, props)
	if err != nil {
		return err
	}
	if link == nil {
		return nil
	}

	targetMatch, err := link.targetMatch(row)
	if err != nil {
		return err
	}
	var targets []neomap.NodeRef
	if link.MergeTarget {
		ref, err := p.nodes.UpsertNode(ctx, link.TargetLabel, targetMatch, nil)
		if err != nil {
			return err
		}
		targets = []neomap.NodeRef{ref}
	} else {
		targets, err = p.nodes.ResolveNodes(ctx, link.TargetLabel, targetMatch)
		if err != nil {
			return err
		}
		if len(targets) == 0 {
			return neomap.Errorf(neomap.ErrCodeNotFound, "no %s node with %v", link.TargetLabel, targetMatch)
		}
	}
	for _, target := range targets {
		if err := p.links.Link(ctx, entity, target, link.RelationshipType); err != nil {
			return fmt.Errorf("link to %s: %w", target, err)
		}
	}
	return nil
}
