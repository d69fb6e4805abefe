package neomap

import (
	"context"
	"fmt"
	"reflect"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/saulfrancisco-ruizacevedo/gocypher"
)

// Repository persists a struct model T as nodes of one label. The model's
// `crud` tags name its properties and the primary key used as match property.
type Repository[T any] struct {
	runner DBRunner
	nodes  *Upserter
	meta   *entityMetadata
}

// NewRepository creates a repository for T outside of a Manager.
//
// Parameters:
//   - runner: An instance of DBRunner, used to execute all Cypher queries.
//
// Returns:
//
//	A new Repository instance or an error if the struct tags are invalid.
func NewRepository[T any](runner DBRunner) (*Repository[T], error) {
	meta, err := parseTags[T]()
	if err != nil {
		return nil, err
	}
	return &Repository[T]{runner: runner, nodes: NewUpserter(runner), meta: meta}, nil
}

// Label returns the node label of T.
func (r *Repository[T]) Label() string {
	return r.meta.Label
}

// Save upserts entity keyed by its primary key and sets every other tagged
// field on the node.
func (r *Repository[T]) Save(ctx context.Context, entity *T) (NodeRef, error) {
	match, props, err := r.meta.entityValues(entity)
	if err != nil {
		return NodeRef{}, err
	}
	return r.nodes.UpsertNode(ctx, r.meta.Label, match, props)
}

// Ref resolves the node of the entity whose primary key is id.
func (r *Repository[T]) Ref(ctx context.Context, id any) (NodeRef, error) {
	refs, err := r.nodes.ResolveNodes(ctx, r.meta.Label, map[string]any{r.meta.PKProp: id})
	if err != nil {
		return NodeRef{}, err
	}
	switch len(refs) {
	case 0:
		return NodeRef{}, ErrNotFound
	case 1:
		return refs[0], nil
	default:
		return NodeRef{}, Errorf(ErrCodeResultParsing, "expected 1 %s with %s=%v but found %d", r.meta.Label, r.meta.PKProp, id, len(refs))
	}
}

// FindByID retrieves a single entity by its primary key.
//
// Returns:
//
//	A pointer to the found entity, ErrNotFound if no record is found, or another
//	error if the query or mapping fails.
func (r *Repository[T]) FindByID(ctx context.Context, id any) (*T, error) {
	props := map[string]any{r.meta.PKProp: id}
	query, params, err := gocypher.NewQueryBuilder().
		Match(gocypher.N("n", r.meta.Label).WithProperties(props)).
		Return("n").
		Build()
	if err != nil {
		return nil, fmt.Errorf("could not build query: %w", err)
	}

	eagerResult, err := r.runner.Run(ctx, query, params)
	if err != nil {
		return nil, err
	}
	if len(eagerResult.Records) == 0 {
		return nil, ErrNotFound
	}
	if len(eagerResult.Records) > 1 {
		return nil, Errorf(ErrCodeResultParsing, "expected 1 record but found %d", len(eagerResult.Records))
	}

	nodeValue, ok := eagerResult.Records[0].Get("n")
	if !ok {
		return nil, NewError(ErrCodeResultParsing, "could not find return value 'n' in query result")
	}
	node, ok := nodeValue.(neo4j.Node)
	if !ok {
		return nil, Errorf(ErrCodeResultParsing, "return value 'n' is %T, not a node", nodeValue)
	}

	entity := new(T)
	if err := mapNodeToStruct(node, entity, r.meta); err != nil {
		return nil, err
	}
	return entity, nil
}

// Delete removes the entity's node and its relationships and evicts it from
// the identity cache.
func (r *Repository[T]) Delete(ctx context.Context, id any) error {
	props := map[string]any{r.meta.PKProp: id}
	query, params, err := gocypher.NewQueryBuilder().
		Match(gocypher.N("n", r.meta.Label).WithProperties(props)).
		DetachDelete("n").
		Build()
	if err != nil {
		return fmt.Errorf("could not build query: %w", err)
	}
	_, err = r.runner.Run(ctx, query, params)
	r.nodes.Forget(r.meta.Label, props)
	return err
}

// mapNodeToStruct populates entity's tagged fields from node properties.
// Numeric properties are converted to the field's type (the driver returns int64 and float64).
func mapNodeToStruct(node neo4j.Node, entity any, meta *entityMetadata) error {
	val := reflect.ValueOf(entity).Elem()

	for fieldName, propName := range meta.Mappings {
		field := val.FieldByName(fieldName)
		if !field.IsValid() || !field.CanSet() {
			continue
		}
		propValue, ok := node.Props[propName]
		if !ok || propValue == nil {
			continue
		}

		pv := reflect.ValueOf(propValue)
		switch {
		case pv.Type().AssignableTo(field.Type()):
			field.Set(pv)
		case pv.Type().ConvertibleTo(field.Type()) && kindOfType(pv.Type()) == kindOfType(field.Type()):
			field.Set(pv.Convert(field.Type()))
		default:
			return Errorf(ErrCodeResultParsing, "property %q holds %T, cannot assign to %s.%s (%s)",
				propName, propValue, meta.Label, fieldName, field.Type())
		}
	}
	return nil
}
