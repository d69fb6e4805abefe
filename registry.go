package neomap

import (
	"reflect"
	"sort"
	"sync"
)

// PropertyKind is the coarse value type observed for a node property.
type PropertyKind int

const (
	KindUnknown PropertyKind = iota
	KindString
	KindInteger
	KindFloat
	KindBool
	KindList
	// KindMixed marks a property that has held values of different kinds.
	KindMixed
)

func (k PropertyKind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindList:
		return "list"
	case KindMixed:
		return "mixed"
	default:
		return "unknown"
	}
}

// KindOf classifies a property value.
func KindOf(v any) PropertyKind {
	if v == nil {
		return KindUnknown
	}
	return kindOfType(reflect.TypeOf(v))
}

func kindOfType(t reflect.Type) PropertyKind {
	switch t.Kind() {
	case reflect.String:
		return KindString
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return KindInteger
	case reflect.Float32, reflect.Float64:
		return KindFloat
	case reflect.Bool:
		return KindBool
	case reflect.Slice, reflect.Array:
		return KindList
	default:
		return KindUnknown
	}
}

// LabelSchema describes the properties seen on nodes of one label.
type LabelSchema struct {
	Label      string
	Keys       []string
	Properties map[string]PropertyKind
}

func (s LabelSchema) clone() LabelSchema {
	out := LabelSchema{Label: s.Label, Keys: append([]string(nil), s.Keys...)}
	out.Properties = make(map[string]PropertyKind, len(s.Properties))
	for k, v := range s.Properties {
		out.Properties[k] = v
	}
	return out
}

// PropertyNames returns the schema's property names sorted.
func (s LabelSchema) PropertyNames() []string {
	names := make([]string, 0, len(s.Properties))
	for k := range s.Properties {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// SchemaRegistry maps labels to schema descriptors. Labels are registered
// explicitly from struct models or learned from upserted property sets.
// It is safe for concurrent use.
type SchemaRegistry struct {
	mu      sync.RWMutex
	schemas map[string]LabelSchema
	// types caches parsed struct metadata keyed by reflect.Type.
	types sync.Map
}

// NewSchemaRegistry creates an empty registry.
func NewSchemaRegistry() *SchemaRegistry {
	return &SchemaRegistry{schemas: make(map[string]LabelSchema)}
}

// Register records schema, merging property kinds into any existing entry.
func (r *SchemaRegistry) Register(schema LabelSchema) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.schemas[schema.Label]
	if !ok {
		r.schemas[schema.Label] = schema.clone()
		return
	}
	for k, kind := range schema.Properties {
		cur.Properties[k] = mergeKind(cur.Properties[k], kind)
	}
	if len(cur.Keys) == 0 {
		cur.Keys = append([]string(nil), schema.Keys...)
	}
	r.schemas[schema.Label] = cur
}

// Observe records the kinds of props under label and returns the property
// names that became mixed-kind with this observation.
func (r *SchemaRegistry) Observe(label string, props map[string]any) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.schemas[label]
	if !ok {
		cur = LabelSchema{Label: label, Properties: make(map[string]PropertyKind)}
	}
	var mixed []string
	for k, v := range props {
		prev := cur.Properties[k]
		next := mergeKind(prev, KindOf(v))
		if next == KindMixed && prev != KindMixed {
			mixed = append(mixed, k)
		}
		cur.Properties[k] = next
	}
	r.schemas[label] = cur
	sort.Strings(mixed)
	return mixed
}

// Lookup returns a copy of the schema registered for label.
func (r *SchemaRegistry) Lookup(label string) (LabelSchema, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.schemas[label]
	if !ok {
		return LabelSchema{}, false
	}
	return s.clone(), true
}

// Labels returns every registered label sorted.
func (r *SchemaRegistry) Labels() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	labels := make([]string, 0, len(r.schemas))
	for l := range r.schemas {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	return labels
}

// metadataFor returns the parsed `crud` metadata of typ, registering the
// model's schema the first time it is seen.
func (r *SchemaRegistry) metadataFor(typ reflect.Type) (*entityMetadata, error) {
	if typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	if cached, ok := r.types.Load(typ); ok {
		return cached.(*entityMetadata), nil
	}
	meta, err := parseTagsFromType(typ)
	if err != nil {
		return nil, err
	}
	actual, loaded := r.types.LoadOrStore(typ, meta)
	if !loaded {
		r.Register(meta.schema(typ))
	}
	return actual.(*entityMetadata), nil
}

func mergeKind(prev, next PropertyKind) PropertyKind {
	switch {
	case prev == KindUnknown:
		return next
	case next == KindUnknown || prev == next:
		return prev
	default:
		return KindMixed
	}
}
