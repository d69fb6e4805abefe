package neomap

import "github.com/neo4j/neo4j-go-driver/v5/neo4j"

// GraphNode is a serializable node of a GraphResult.
type GraphNode struct {
	ID         string         `json:"id"`
	Labels     []string       `json:"labels"`
	Properties map[string]any `json:"properties"`
}

// Edge is a serializable relationship of a GraphResult.
type Edge struct {
	ID         string         `json:"id"`
	Source     string         `json:"source"`
	Target     string         `json:"target"`
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties"`
}

// GraphResult is a de-duplicated set of nodes and edges.
type GraphResult struct {
	Nodes []*GraphNode `json:"nodes"`
	Edges []*Edge      `json:"edges"`
}

// NodeByID indexes the result's nodes by id.
func (g *GraphResult) NodeByID() map[string]*GraphNode {
	idx := make(map[string]*GraphNode, len(g.Nodes))
	for _, n := range g.Nodes {
		idx[n.ID] = n
	}
	return idx
}

// GraphFromRecords collects every node and relationship value of records,
// keeping the first occurrence of each element id. Paths contribute their
// nodes and relationships.
func GraphFromRecords(records []*neo4j.Record) *GraphResult {
	c := graphCollector{
		graph:     &GraphResult{Nodes: make([]*GraphNode, 0), Edges: make([]*Edge, 0)},
		seenNodes: make(map[string]bool),
		seenEdges: make(map[string]bool),
	}
	for _, record := range records {
		for _, value := range record.Values {
			c.add(value)
		}
	}
	return c.graph
}

type graphCollector struct {
	graph     *GraphResult
	seenNodes map[string]bool
	seenEdges map[string]bool
}

func (c *graphCollector) add(value any) {
	switch v := value.(type) {
	case neo4j.Node:
		if !c.seenNodes[v.ElementId] {
			c.graph.Nodes = append(c.graph.Nodes, &GraphNode{
				ID:         v.ElementId,
				Labels:     v.Labels,
				Properties: v.Props,
			})
			c.seenNodes[v.ElementId] = true
		}
	case neo4j.Relationship:
		if !c.seenEdges[v.ElementId] {
			c.graph.Edges = append(c.graph.Edges, &Edge{
				ID:         v.ElementId,
				Source:     v.StartElementId,
				Target:     v.EndElementId,
				Type:       v.Type,
				Properties: v.Props,
			})
			c.seenEdges[v.ElementId] = true
		}
	case neo4j.Path:
		for _, n := range v.Nodes {
			c.add(n)
		}
		for _, r := range v.Relationships {
			c.add(r)
		}
	case []any:
		for _, item := range v {
			c.add(item)
		}
	}
}
