package neomap

import (
	"fmt"
	"reflect"
	"strings"
)

// Labeler lets a struct model choose its node label instead of its type name.
type Labeler interface {
	NodeLabel() string
}

// entityMetadata is the parsed `crud` tag information of a struct model.
type entityMetadata struct {
	Label   string
	PKField string
	PKProp  string
	// Fields lists tagged struct fields in declaration order.
	Fields []string
	// Mappings maps struct field names to node property names.
	Mappings map[string]string
}

// schema returns the registry descriptor of a struct model.
func (m *entityMetadata) schema(typ reflect.Type) LabelSchema {
	props := make(map[string]PropertyKind, len(m.Fields))
	for _, f := range m.Fields {
		sf, _ := typ.FieldByName(f)
		props[m.Mappings[f]] = kindOfType(sf.Type)
	}
	return LabelSchema{Label: m.Label, Keys: []string{m.PKProp}, Properties: props}
}

// parseTagsFromType inspects typ and extracts metadata from `crud` struct tags:
//
//	Filepath string `crud:"pk,property:filepath"`
//	Name     string `crud:"property:name"`
func parseTagsFromType(typ reflect.Type) (*entityMetadata, error) {
	if typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	if typ.Kind() != reflect.Struct {
		return nil, Errorf(ErrCodeConfiguration, "type %s is not a struct", typ.Name())
	}

	meta := &entityMetadata{
		Label:    typ.Name(),
		Mappings: make(map[string]string),
	}
	if l, ok := reflect.New(typ).Interface().(Labeler); ok {
		meta.Label = l.NodeLabel()
	}
	if err := ValidateLabel(meta.Label); err != nil {
		return nil, err
	}

	seen := make(map[string]string)
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		tag := field.Tag.Get("crud")
		if tag == "" || !field.IsExported() {
			continue
		}

		isPk := false
		propName := ""
		for _, part := range strings.Split(tag, ",") {
			part = strings.TrimSpace(part)
			switch {
			case part == "pk":
				isPk = true
			case strings.HasPrefix(part, "property:"):
				propName = strings.TrimPrefix(part, "property:")
			}
		}

		if propName == "" {
			return nil, Errorf(ErrCodeConfiguration, "field %s is missing 'property' tag component", field.Name)
		}
		if err := ValidatePropertyKey(propName); err != nil {
			return nil, err
		}
		if other, dup := seen[propName]; dup {
			return nil, Errorf(ErrCodeConfiguration, "fields %s and %s both map to property %q", other, field.Name, propName)
		}
		seen[propName] = field.Name

		if isPk {
			if meta.PKField != "" {
				return nil, Errorf(ErrCodeConfiguration, "struct %s declares more than one 'pk' field", typ.Name())
			}
			meta.PKField = field.Name
			meta.PKProp = propName
		}
		meta.Fields = append(meta.Fields, field.Name)
		meta.Mappings[field.Name] = propName
	}

	if meta.PKField == "" {
		return nil, Errorf(ErrCodeConfiguration, "no primary key ('pk') tag defined for struct %s", typ.Name())
	}
	return meta, nil
}

// parseTags is the generic convenience wrapper around parseTagsFromType.
func parseTags[T any]() (*entityMetadata, error) {
	return parseTagsFromType(reflect.TypeOf((*T)(nil)).Elem())
}

// entityValues splits an entity into its match and remaining properties.
func (m *entityMetadata) entityValues(entity any) (match, props map[string]any, err error) {
	val := reflect.ValueOf(entity)
	if val.Kind() != reflect.Ptr || val.IsNil() {
		return nil, nil, fmt.Errorf("entity must be a non-nil pointer, got %T", entity)
	}
	val = val.Elem()
	match = map[string]any{m.PKProp: val.FieldByName(m.PKField).Interface()}
	props = make(map[string]any, len(m.Fields)-1)
	for _, f := range m.Fields {
		if f != m.PKField {
			props[m.Mappings[f]] = val.FieldByName(f).Interface()
		}
	}
	return match, props, nil
}
