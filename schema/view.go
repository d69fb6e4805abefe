package schema

import (
	"encoding/json"
	"fmt"
	"html/template"
	"io"
)

// Layout selects how a View is arranged.
type Layout string

const (
	Hierarchical  Layout = "hierarchical"
	ForceDirected Layout = "force-directed"
)

// ParseLayout validates a layout name.
func ParseLayout(s string) (Layout, error) {
	switch Layout(s) {
	case "", Hierarchical:
		return Hierarchical, nil
	case ForceDirected:
		return ForceDirected, nil
	default:
		return "", fmt.Errorf("unknown layout %q (want %s or %s)", s, Hierarchical, ForceDirected)
	}
}

// ViewNode is one label.
type ViewNode struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// ViewEdge is one sampled triple. Parallel edges between the same labels
// with different predicates are kept.
type ViewEdge struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Label string `json:"label"`
}

// View is a schema graph with vis-network layout options.
type View struct {
	Nodes   []ViewNode     `json:"nodes"`
	Edges   []ViewEdge     `json:"edges"`
	Options map[string]any `json:"options"`
}

// NewView builds the schema graph of sample. physics toggles the physics
// simulation of either layout.
func NewView(sample *Sample, layout Layout, physics bool) *View {
	v := &View{Nodes: []ViewNode{}, Edges: []ViewEdge{}, Options: LayoutOptions(layout, physics)}
	for _, l := range sample.Labels {
		v.Nodes = append(v.Nodes, ViewNode{ID: l, Label: l})
	}
	for _, t := range sample.Triples {
		v.Edges = append(v.Edges, ViewEdge{From: t.Subject, To: t.Object, Label: t.Predicate})
	}
	return v
}

// LayoutOptions returns the vis-network options of layout.
func LayoutOptions(layout Layout, physics bool) map[string]any {
	opts := map[string]any{
		"edges": map[string]any{
			"arrows": map[string]any{"to": map[string]any{"enabled": true}},
			"smooth": map[string]any{"type": "dynamic"},
		},
		"interaction": map[string]any{
			"hover":             true,
			"navigationButtons": true,
		},
		"physics": map[string]any{"enabled": physics},
	}
	if layout == ForceDirected {
		opts["physics"] = map[string]any{
			"enabled": physics,
			"barnesHut": map[string]any{
				"gravitationalConstant": -4000,
				"centralGravity":        0.5,
				"springLength":          170,
				"springConstant":        0.05,
				"damping":               0.09,
			},
		}
		opts["layout"] = map[string]any{"improvedLayout": true}
		return opts
	}
	opts["layout"] = map[string]any{
		"hierarchical": map[string]any{
			"enabled":         true,
			"levelSeparation": 150,
			"nodeSpacing":     100,
			"treeSpacing":     200,
			"direction":       "UD",
			"sortMethod":      "directed",
		},
	}
	return opts
}

// WriteJSON writes the view as JSON.
func (v *View) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

var pageTemplate = template.Must(template.New("schema").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<script src="https://unpkg.com/vis-network/standalone/umd/vis-network.min.js"></script>
<style>html, body, #schema { width: 100%; height: 100%; margin: 0; }</style>
</head>
<body>
<div id="schema"></div>
<script>
const nodes = new vis.DataSet({{.Nodes}});
const edges = new vis.DataSet({{.Edges}});
new vis.Network(document.getElementById("schema"), { nodes, edges }, {{.Options}});
</script>
</body>
</html>
`))

// RenderHTML writes a standalone page drawing the view with vis-network.
func (v *View) RenderHTML(w io.Writer, title string) error {
	if title == "" {
		title = "Graph schema"
	}
	return pageTemplate.Execute(w, struct {
		Title   string
		Nodes   []ViewNode
		Edges   []ViewEdge
		Options map[string]any
	}{title, v.Nodes, v.Edges, v.Options})
}
