package graphio

import (
	"fmt"
	"io"
	"sort"
	"strconv"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/saulfrancisco-ruizacevedo/go-neomap"
)

const (
	BlobFormat  = "neomap.graph"
	BlobVersion = 1
)

// Encode writes g as a protobuf Struct. Integer properties travel as decimal
// strings listed under "integers" (lists under "integer_lists") so they
// decode back to int64 without float rounding. Values of other driver types
// (temporal, spatial) are written as their string form.
func Encode(w io.Writer, g *neomap.GraphResult) error {
	nodes := make([]any, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		entry := encodeProps(n.Properties)
		entry["id"] = n.ID
		labels := make([]any, len(n.Labels))
		for i, l := range n.Labels {
			labels[i] = l
		}
		entry["labels"] = labels
		nodes = append(nodes, entry)
	}
	edges := make([]any, 0, len(g.Edges))
	for _, e := range g.Edges {
		entry := encodeProps(e.Properties)
		entry["id"] = e.ID
		entry["source"] = e.Source
		entry["target"] = e.Target
		entry["type"] = e.Type
		edges = append(edges, entry)
	}

	st, err := structpb.NewStruct(map[string]any{
		"format":  BlobFormat,
		"version": BlobVersion,
		"nodes":   nodes,
		"edges":   edges,
	})
	if err != nil {
		return fmt.Errorf("encode graph: %w", err)
	}
	b, err := proto.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode graph: %w", err)
	}
	_, err = w.Write(b)
	return err
}

// Decode reads a blob written by Encode.
func Decode(r io.Reader) (*neomap.GraphResult, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	st := &structpb.Struct{}
	if err := proto.Unmarshal(b, st); err != nil {
		return nil, fmt.Errorf("decode graph: %w", err)
	}
	root := st.AsMap()
	if root["format"] != BlobFormat {
		return nil, fmt.Errorf("decode graph: not a %s blob", BlobFormat)
	}
	if v, _ := root["version"].(float64); int(v) != BlobVersion {
		return nil, fmt.Errorf("decode graph: unsupported version %v", root["version"])
	}

	g := &neomap.GraphResult{Nodes: []*neomap.GraphNode{}, Edges: []*neomap.Edge{}}
	for i, raw := range asList(root["nodes"]) {
		entry, ok := raw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("decode graph: node %d is %T", i, raw)
		}
		props, err := decodeProps(entry)
		if err != nil {
			return nil, fmt.Errorf("decode graph: node %d: %w", i, err)
		}
		n := &neomap.GraphNode{ID: str(entry["id"]), Properties: props, Labels: []string{}}
		for _, l := range asList(entry["labels"]) {
			n.Labels = append(n.Labels, str(l))
		}
		g.Nodes = append(g.Nodes, n)
	}
	for i, raw := range asList(root["edges"]) {
		entry, ok := raw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("decode graph: edge %d is %T", i, raw)
		}
		props, err := decodeProps(entry)
		if err != nil {
			return nil, fmt.Errorf("decode graph: edge %d: %w", i, err)
		}
		g.Edges = append(g.Edges, &neomap.Edge{
			ID:         str(entry["id"]),
			Source:     str(entry["source"]),
			Target:     str(entry["target"]),
			Type:       str(entry["type"]),
			Properties: props,
		})
	}
	return g, nil
}

func encodeProps(props map[string]any) map[string]any {
	fields := make(map[string]any, len(props))
	var ints, intLists []string
	for k, v := range props {
		switch x := v.(type) {
		case nil, string, bool, float64:
			fields[k] = x
		case float32:
			fields[k] = float64(x)
		case int64, int, int32, int16, int8:
			fields[k] = fmt.Sprint(x)
			ints = append(ints, k)
		case []int64:
			list := make([]any, len(x))
			for i, e := range x {
				list[i] = strconv.FormatInt(e, 10)
			}
			fields[k] = list
			intLists = append(intLists, k)
		case []any:
			list, allInts := encodeList(x)
			fields[k] = list
			if allInts {
				intLists = append(intLists, k)
			}
		case []string:
			list := make([]any, len(x))
			for i, e := range x {
				list[i] = e
			}
			fields[k] = list
		case []float64:
			list := make([]any, len(x))
			for i, e := range x {
				list[i] = e
			}
			fields[k] = list
		default:
			fields[k] = fmt.Sprint(x)
		}
	}
	sort.Strings(ints)
	sort.Strings(intLists)
	return map[string]any{
		"properties":    fields,
		"integers":      stringsToList(ints),
		"integer_lists": stringsToList(intLists),
	}
}

// encodeList converts a driver list. allInts reports a non-empty list of
// integers, which is written as decimal strings.
func encodeList(items []any) (list []any, allInts bool) {
	allInts = len(items) > 0
	for _, e := range items {
		if _, ok := e.(int64); !ok {
			allInts = false
			break
		}
	}
	list = make([]any, len(items))
	for i, e := range items {
		switch x := e.(type) {
		case int64:
			if allInts {
				list[i] = strconv.FormatInt(x, 10)
			} else {
				list[i] = float64(x)
			}
		case nil, string, bool, float64:
			list[i] = x
		default:
			list[i] = fmt.Sprint(x)
		}
	}
	return list, allInts
}

func decodeProps(entry map[string]any) (map[string]any, error) {
	fields, _ := entry["properties"].(map[string]any)
	props := make(map[string]any, len(fields))
	for k, v := range fields {
		props[k] = v
	}
	for _, k := range asList(entry["integers"]) {
		key := str(k)
		i, err := strconv.ParseInt(str(props[key]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", key, err)
		}
		props[key] = i
	}
	for _, k := range asList(entry["integer_lists"]) {
		key := str(k)
		items := asList(props[key])
		ints := make([]any, len(items))
		for i, e := range items {
			n, err := strconv.ParseInt(str(e), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("property %q[%d]: %w", key, i, err)
			}
			ints[i] = n
		}
		props[key] = ints
	}
	return props, nil
}

func stringsToList(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

func asList(v any) []any {
	l, _ := v.([]any)
	return l
}

func str(v any) string {
	s, _ := v.(string)
	return s
}
