package neomap

import (
	"context"
	"fmt"
	"log/slog"
	"maps"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// NodeRef identifies a node materialized in the graph: the label and match
// properties it was merged on, plus the element id the database assigned.
type NodeRef struct {
	ElementID string
	Label     string
	Match     map[string]any
}

// String returns a compact representation used in logs and errors.
func (r NodeRef) String() string {
	return fmt.Sprintf("(%s %v)", r.Label, r.Match)
}

// Upserter finds-or-creates nodes by (label, match) and applies properties.
type Upserter struct {
	runner   DBRunner
	registry *SchemaRegistry
	cache    *identityCache
	logger   *slog.Logger
}

// UpserterOption configures an Upserter.
type UpserterOption func(*Upserter)

// WithIdentityCache enables the in-process identity cache. Key-only upserts of
// a node already seen by this Upserter are answered without a round trip.
// Deletes made through a Repository sharing this Upserter evict their entry;
// call InvalidateCache after deleting or rewriting nodes any other way.
func WithIdentityCache() UpserterOption {
	return func(u *Upserter) { u.cache = &identityCache{} }
}

// WithRegistry records every upserted label's properties in registry.
func WithRegistry(registry *SchemaRegistry) UpserterOption {
	return func(u *Upserter) { u.registry = registry }
}

// WithLogger sets the logger; the default is slog.Default().
func WithLogger(logger *slog.Logger) UpserterOption {
	return func(u *Upserter) { u.logger = logger }
}

// NewUpserter creates an Upserter that runs its statements through runner.
func NewUpserter(runner DBRunner, opts ...UpserterOption) *Upserter {
	u := &Upserter{runner: runner}
	for _, opt := range opts {
		opt(u)
	}
	if u.logger == nil {
		u.logger = slog.Default()
	}
	u.logger = u.logger.With("component", "upserter")
	return u
}

// UpsertNode ensures a node labeled label exists whose properties include
// match, then sets props on it. Running it twice with the same arguments
// leaves the graph unchanged; later calls overwrite earlier values.
//
// Parameters:
//   - ctx: The context for the query execution.
//   - label: The node label. Validated and quoted.
//   - match: The identifying properties. Must be non-empty with no null values.
//   - props: The properties to set on both the create and match paths. Nil values are skipped.
//
// Returns:
//
//	The reference of the merged node, ErrAmbiguousIdentity if match is unusable,
//	or the database error.
func (u *Upserter) UpsertNode(ctx context.Context, label string, match, props map[string]any) (NodeRef, error) {
	stmt, err := BuildMergeNode(label, match, props)
	if err != nil {
		return NodeRef{}, err
	}

	keyOnly := len(stmt.Params["props"].(map[string]any)) == 0
	if u.cache != nil && keyOnly {
		if ref, ok := u.cache.load(label, match); ok {
			return ref, nil
		}
	}

	result, err := u.runner.Run(ctx, stmt.Query, stmt.Params)
	if err != nil {
		return NodeRef{}, fmt.Errorf("upsert %s: %w", label, err)
	}
	ids, err := elementIDs(result)
	if err != nil {
		return NodeRef{}, err
	}
	if len(ids) != 1 {
		return NodeRef{}, Errorf(ErrCodeResultParsing, "upsert %s returned %d rows, expected 1", label, len(ids))
	}

	ref := NodeRef{ElementID: ids[0], Label: label, Match: maps.Clone(match)}
	if u.cache != nil {
		u.cache.store(ref)
	}
	u.observe(label, match, props)
	return ref, nil
}

// ResolveNodes returns every existing node labeled label whose properties equal match.
// An empty result is not an error.
func (u *Upserter) ResolveNodes(ctx context.Context, label string, match map[string]any) ([]NodeRef, error) {
	stmt, err := BuildMatchNodes(label, match)
	if err != nil {
		return nil, err
	}
	result, err := u.runner.Run(ctx, stmt.Query, stmt.Params)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", label, err)
	}
	ids, err := elementIDs(result)
	if err != nil {
		return nil, err
	}
	refs := make([]NodeRef, len(ids))
	for i, id := range ids {
		refs[i] = NodeRef{ElementID: id, Label: label, Match: maps.Clone(match)}
	}
	return refs, nil
}

// Forget drops the cached identity of the node merged on (label, match).
func (u *Upserter) Forget(label string, match map[string]any) {
	if u.cache != nil {
		u.cache.forget(label, match)
	}
}

// InvalidateCache drops every cached identity.
func (u *Upserter) InvalidateCache() {
	if u.cache != nil {
		u.cache.clear()
	}
}

func (u *Upserter) observe(label string, match, props map[string]any) {
	if u.registry == nil {
		return
	}
	all := make(map[string]any, len(match)+len(props))
	maps.Copy(all, props)
	maps.Copy(all, match)
	for _, key := range u.registry.Observe(label, all) {
		u.logger.Warn("property holds values of more than one type",
			"label", label,
			"property", key,
		)
	}
}

// elementIDs extracts the "id" column of a result.
func elementIDs(result *neo4j.EagerResult) ([]string, error) {
	if result == nil {
		return nil, nil
	}
	ids := make([]string, 0, len(result.Records))
	for _, record := range result.Records {
		v, ok := record.Get("id")
		if !ok {
			return nil, NewError(ErrCodeResultParsing, "result has no 'id' column")
		}
		id, ok := v.(string)
		if !ok {
			return nil, Errorf(ErrCodeResultParsing, "'id' column holds %T, expected string", v)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
