package taxonomy

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/saulfrancisco-ruizacevedo/go-neomap"
	"github.com/saulfrancisco-ruizacevedo/go-neomap/mapping"
)

const (
	// DefaultChainRelationship links each path node to its parent.
	DefaultChainRelationship = "OF"
	// ValueProperty holds a path node's level value.
	ValueProperty = "is"
	// PathProperty holds the path id: level values root..node joined by PathSeparator.
	PathProperty = "path_id"
	// PathSeparator joins level values in a path id.
	PathSeparator = "-"
)

// PushSpec describes how a taxonomy is materialized.
type PushSpec struct {
	// EntityLabel is the label of the classified entities. Empty pushes the
	// path chains only.
	EntityLabel string
	// MatchColumns are level columns whose values locate the entities.
	MatchColumns []string
	// EntityKeys renames MatchColumns to the entities' property names.
	EntityKeys mapping.PropertyMap
	// RelationshipType links the deepest path node to each entity.
	RelationshipType string
	// ChainRelationship links child path nodes to parents; defaults to OF.
	ChainRelationship string
}

func (s *PushSpec) validate(levels []string) error {
	if err := checkLevels(levels); err != nil {
		return err
	}
	for _, l := range levels {
		if err := neomap.ValidateLabel(l); err != nil {
			return err
		}
	}
	if s.ChainRelationship == "" {
		s.ChainRelationship = DefaultChainRelationship
	}
	if err := neomap.ValidateRelationshipType(s.ChainRelationship); err != nil {
		return err
	}
	if s.EntityLabel == "" {
		if len(s.MatchColumns) > 0 || s.RelationshipType != "" {
			return neomap.NewError(neomap.ErrCodeConfiguration, "entity match columns or relationship given without an entity label")
		}
		return nil
	}
	if err := neomap.ValidateLabel(s.EntityLabel); err != nil {
		return err
	}
	if err := neomap.ValidateRelationshipType(s.RelationshipType); err != nil {
		return err
	}
	if len(s.MatchColumns) == 0 {
		return neomap.NewError(neomap.ErrCodeConfiguration, "no entity match column selected")
	}
	for _, c := range s.MatchColumns {
		if !slices.Contains(levels, c) {
			return neomap.Errorf(neomap.ErrCodeConfiguration, "entity match column %q is not a taxonomy level", c)
		}
	}
	return s.EntityKeys.CheckTargets(s.MatchColumns)
}

// PushOption configures a Pusher.
type PushOption func(*Pusher)

// WithPolicy sets the row error policy; the default is ContinueOnError.
func WithPolicy(p neomap.ErrorPolicy) PushOption {
	return func(ps *Pusher) { ps.policy = p }
}

// WithLimiter throttles rows.
func WithLimiter(l *rate.Limiter) PushOption {
	return func(ps *Pusher) { ps.limiter = l }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) PushOption {
	return func(ps *Pusher) { ps.logger = l }
}

// Pusher materializes taxonomy tables.
type Pusher struct {
	nodes   *neomap.Upserter
	links   *neomap.Linker
	policy  neomap.ErrorPolicy
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewPusher creates a Pusher on the manager's shared Upserter and Linker.
func NewPusher(m *neomap.Manager, opts ...PushOption) *Pusher {
	p := &Pusher{nodes: m.Nodes(), links: m.Links()}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	p.logger = p.logger.With("component", "taxonomy-pusher")
	return p
}

// Push materializes every row of tax in order. For each row it merges one
// node per level, labeled by the level column and keyed by {is, path_id},
// links it to the previous level's node (child -> parent), then links the
// deepest node to every entity whose match properties equal the row's
// values. Writes are not transactional: a failing row keeps what it wrote,
// and re-pushing is safe because every write is a MERGE.
func (p *Pusher) Push(ctx context.Context, tax *Table, spec PushSpec) (*neomap.PushReport, error) {
	if err := spec.validate(tax.Levels); err != nil {
		return nil, err
	}

	report := &neomap.PushReport{RunID: uuid.NewString()}
	logger := p.logger.With("run_id", report.RunID)
	logger.Info("pushing taxonomy",
		"levels", tax.Levels,
		"rows", len(tax.Rows),
		"entity_label", spec.EntityLabel,
		"policy", p.policy.String(),
	)

	for i, row := range tax.Rows {
		if p.limiter != nil {
			if err := p.limiter.Wait(ctx); err != nil {
				return report, err
			}
		} else if err := ctx.Err(); err != nil {
			return report, err
		}
		_, err := p.PushRow(ctx, tax.Levels, row, spec)
		if err != nil {
			logger.Warn("taxonomy row failed", "row", i, "values", row.Values, "error", err)
		}
		if report.Record(i, err, p.policy) {
			break
		}
	}

	logger.Info("taxonomy push finished", "succeeded", report.Succeeded, "failed", len(report.Failed))
	return report, nil
}

// PushRow materializes one taxonomy row and returns its deepest path node.
// spec must have been validated against levels by Push.
func (p *Pusher) PushRow(ctx context.Context, levels []string, row Row, spec PushSpec) (neomap.NodeRef, error) {
	if len(row.Values) != len(levels) {
		return neomap.NodeRef{}, fmt.Errorf("row has %d values for %d levels", len(row.Values), len(levels))
	}
	chainRel := spec.ChainRelationship
	if chainRel == "" {
		chainRel = DefaultChainRelationship
	}

	var (
		prev     neomap.NodeRef
		segments = make([]string, 0, len(levels))
	)
	for i, level := range levels {
		v := row.Values[i]
		if v == nil {
			return neomap.NodeRef{}, neomap.Errorf(neomap.ErrCodeAmbiguousIdentity, "level %q has no value", level)
		}
		segments = append(segments, PathSegment(v))
		match := map[string]any{
			ValueProperty: v,
			PathProperty:  strings.Join(segments, PathSeparator),
		}
		cur, err := p.nodes.UpsertNode(ctx, level, match, nil)
		if err != nil {
			return neomap.NodeRef{}, fmt.Errorf("level %q: %w", level, err)
		}
		if i > 0 {
			if err := p.links.Link(ctx, cur, prev, chainRel); err != nil {
				return neomap.NodeRef{}, fmt.Errorf("level %q: %w", level, err)
			}
		}
		prev = cur
	}

	if spec.EntityLabel == "" {
		return prev, nil
	}

	match := make(map[string]any, len(spec.MatchColumns))
	for _, c := range spec.MatchColumns {
		match[spec.EntityKeys.Target(c)] = row.Values[slices.Index(levels, c)]
	}
	entities, err := p.nodes.ResolveNodes(ctx, spec.EntityLabel, match)
	if err != nil {
		return prev, err
	}
	if len(entities) == 0 {
		return prev, neomap.Errorf(neomap.ErrCodeNotFound, "no %s node with %v", spec.EntityLabel, match)
	}
	for _, e := range entities {
		if err := p.links.Link(ctx, prev, e, spec.RelationshipType); err != nil {
			return prev, err
		}
	}
	return prev, nil
}

// PathSegment renders a level value inside a path id. Floats with an
// integral value keep a trailing ".0" so 2.0 and 2 yield different paths.
func PathSegment(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		if x == math.Trunc(x) && !math.IsInf(x, 0) {
			return strconv.FormatFloat(x, 'f', 1, 64)
		}
		return strconv.FormatFloat(x, 'g', -1, 64)
	case bool:
		if x {
			return "True"
		}
		return "False"
	default:
		return fmt.Sprint(x)
	}
}
