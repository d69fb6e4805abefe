package neomap

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"

	"github.com/saulfrancisco-ruizacevedo/gocypher"
)

// Manager is the central orchestrator of the graph layer. It owns the runner,
// the label schema registry, and the shared Upserter and Linker.
type Manager struct {
	runner   DBRunner
	registry *SchemaRegistry
	nodes    *Upserter
	links    *Linker
	logger   *slog.Logger
}

// NewManager creates a Manager. Options configure its shared Upserter; the
// registry option is always applied.
func NewManager(runner DBRunner, opts ...UpserterOption) *Manager {
	m := &Manager{
		runner:   runner,
		registry: NewSchemaRegistry(),
		links:    NewLinker(runner),
	}
	opts = append(opts, WithRegistry(m.registry))
	m.nodes = NewUpserter(runner, opts...)
	m.logger = m.nodes.logger
	return m
}

// Runner returns the manager's DBRunner.
func (m *Manager) Runner() DBRunner { return m.runner }

// Registry returns the label schema registry.
func (m *Manager) Registry() *SchemaRegistry { return m.registry }

// Nodes returns the shared Upserter.
func (m *Manager) Nodes() *Upserter { return m.nodes }

// Links returns the shared Linker.
func (m *Manager) Links() *Linker { return m.links }

// UpsertNode delegates to the shared Upserter.
func (m *Manager) UpsertNode(ctx context.Context, label string, match, props map[string]any) (NodeRef, error) {
	return m.nodes.UpsertNode(ctx, label, match, props)
}

// Link delegates to the shared Linker.
func (m *Manager) Link(ctx context.Context, source, target NodeRef, relType string) error {
	return m.links.Link(ctx, source, target, relType)
}

// RepositoryFor returns a repository for T that shares the manager's
// Upserter and registers T's schema.
func RepositoryFor[T any](m *Manager) (*Repository[T], error) {
	meta, err := m.registry.metadataFor(reflect.TypeOf((*T)(nil)).Elem())
	if err != nil {
		return nil, err
	}
	return &Repository[T]{runner: m.runner, nodes: m.nodes, meta: meta}, nil
}

// CreateRelation links two struct-model entities that already exist in the
// graph, resolving each by its label and primary key.
func (m *Manager) CreateRelation(ctx context.Context, fromEntity, toEntity any, relType string) error {
	from, err := m.entityRef(ctx, fromEntity)
	if err != nil {
		return err
	}
	to, err := m.entityRef(ctx, toEntity)
	if err != nil {
		return err
	}
	return m.links.Link(ctx, from, to, relType)
}

func (m *Manager) entityRef(ctx context.Context, entity any) (NodeRef, error) {
	val := reflect.ValueOf(entity)
	if val.Kind() != reflect.Ptr || val.IsNil() {
		return NodeRef{}, fmt.Errorf("entity must be a non-nil pointer, got %T", entity)
	}
	meta, err := m.registry.metadataFor(val.Elem().Type())
	if err != nil {
		return NodeRef{}, err
	}
	match, _, err := meta.entityValues(entity)
	if err != nil {
		return NodeRef{}, err
	}
	refs, err := m.nodes.ResolveNodes(ctx, meta.Label, match)
	if err != nil {
		return NodeRef{}, err
	}
	if len(refs) == 0 {
		return NodeRef{}, Errorf(ErrCodeNotFound, "%s with %v does not exist", meta.Label, match)
	}
	if len(refs) > 1 {
		m.logger.Warn("primary key matches several nodes, using the first",
			"label", meta.Label,
			"match", match,
			"count", len(refs),
		)
	}
	return refs[0], nil
}

// FindGraph executes a graph query defined by a gocypher.QueryBuilder and maps
// the returned nodes and relationships into a GraphResult.
//
// The caller is responsible for a RETURN clause naming every element to include,
// for example `RETURN u, r, p`. Elements returned in several rows appear once.
//
// Returns:
//   - The de-duplicated nodes and edges.
//   - ErrNotFound if the query returns zero records.
func (m *Manager) FindGraph(ctx context.Context, qb *gocypher.QueryBuilder) (*GraphResult, error) {
	query, params, err := qb.Build()
	if err != nil {
		return nil, fmt.Errorf("could not build query: %w", err)
	}
	return m.FindGraphQuery(ctx, query, params)
}

// FindGraphQuery is FindGraph for a raw query string.
func (m *Manager) FindGraphQuery(ctx context.Context, query string, params map[string]any) (*GraphResult, error) {
	eagerResult, err := m.runner.Run(ctx, query, params)
	if err != nil {
		return nil, err
	}
	if len(eagerResult.Records) == 0 {
		return nil, ErrNotFound
	}
	return GraphFromRecords(eagerResult.Records), nil
}
