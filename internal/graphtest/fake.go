// Package graphtest provides an in-memory graph that answers the statement
// shapes emitted by neomap, for tests that must observe graph state without
// a database.
package graphtest

import (
	"context"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Call is one recorded Run invocation.
type Call struct {
	Query  string
	Params map[string]any
}

// Node is a stored node.
type Node struct {
	ID     string
	Labels []string
	Props  map[string]any
}

// HasLabel reports whether the node carries label.
func (n Node) HasLabel(label string) bool {
	for _, l := range n.Labels {
		if l == label {
			return true
		}
	}
	return false
}

// Rel is a stored relationship.
type Rel struct {
	ID    string
	Type  string
	From  string
	To    string
	Props map[string]any
}

// Handler answers statements the fake does not understand. Returning
// handled=false falls through to an "unsupported statement" error.
type Handler func(query string, params map[string]any) (result *neo4j.EagerResult, handled bool, err error)

// FakeGraph is a concurrency-safe in-memory property graph implementing
// neomap.DBRunner.
type FakeGraph struct {
	mu       sync.Mutex
	nodes    map[string]*Node
	nodeSeq  []string
	rels     map[string]*Rel
	relSeq   []string
	nextID   int
	calls    []Call
	failWhen func(query string, params map[string]any) error
	handler  Handler
}

// New creates an empty graph.
func New() *FakeGraph {
	return &FakeGraph{
		nodes: make(map[string]*Node),
		rels:  make(map[string]*Rel),
	}
}

// FailWhen installs a hook consulted before every statement; a non-nil
// error is returned instead of executing it.
func (g *FakeGraph) FailWhen(fn func(query string, params map[string]any) error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failWhen = fn
}

// Handle installs a fallback for statements the fake does not understand.
func (g *FakeGraph) Handle(h Handler) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.handler = h
}

var (
	identPart      = "`([^`]+)`"
	mergeNodeRe    = regexp.MustCompile(`^MERGE \(n:` + identPart + ` \{(.*)\}\)\nSET n \+= \$props\nRETURN elementId\(n\) AS id$`)
	matchNodesRe   = regexp.MustCompile(`^MATCH \(n:` + identPart + `\)\nWHERE (.*)\nRETURN elementId\(n\) AS id$`)
	endpoints      = `^MATCH \(a\) WHERE elementId\(a\) = \$from\nMATCH \(b\) WHERE elementId\(b\) = \$to\n`
	mergeRelRe     = regexp.MustCompile(endpoints + `MERGE \(a\)-\[r:` + identPart + `\]->\(b\)\nRETURN elementId\(r\) AS id$`)
	createRelRe    = regexp.MustCompile(endpoints + `CREATE \(a\)-\[r:` + identPart + `\]->\(b\)\nSET r = \$props\nRETURN elementId\(r\) AS id$`)
	createNodeRe   = regexp.MustCompile("^CREATE \\(n((?::`[^`]+`)*)\\)\nSET n = \\$props\nRETURN elementId\\(n\\) AS id$")
	propKeysRe     = regexp.MustCompile(`^MATCH \(n:` + identPart + `\)\nUNWIND keys\(n\) AS property\nRETURN DISTINCT property ORDER BY property$`)
	fetchPropsRe   = regexp.MustCompile(`^MATCH \(n:` + identPart + `\)\nRETURN (n\..*)$`)
	fetchByLabelRe = regexp.MustCompile(`(?s)MATCH \(x:` + identPart + `\)\nRETURN DISTINCT x$`)
	sampleRe       = regexp.MustCompile(`(?s)RETURN labels\(n\)\[0\] AS subjectLabel, type\(r\) AS predicateType, labels\(m\)\[0\] AS objectLabel(?: LIMIT (\d+))?$`)
	pairRe         = regexp.MustCompile("`([^`]+)`: \\$(m\\d+)")
	condRe         = regexp.MustCompile("n\\.`([^`]+)` = \\$(m\\d+)")
	itemRe         = regexp.MustCompile("n\\.`([^`]+)` AS `([^`]+)`")
	labelRe        = regexp.MustCompile("`([^`]+)`")
)

// Run implements neomap.DBRunner.
func (g *FakeGraph) Run(ctx context.Context, query string, params map[string]any) (*neo4j.EagerResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	res, ok, err := g.run(query, params)
	if ok {
		return res, err
	}

	// The handler runs unlocked so it may inspect the graph.
	g.mu.Lock()
	h := g.handler
	g.mu.Unlock()
	if h != nil {
		res, handled, err := h(query, params)
		if handled {
			return res, err
		}
	}
	return nil, fmt.Errorf("graphtest: unsupported statement:\n%s", query)
}

// run executes the statement shapes the fake understands; ok is false for
// anything else.
func (g *FakeGraph) run(query string, params map[string]any) (res *neo4j.EagerResult, ok bool, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.calls = append(g.calls, Call{Query: query, Params: maps.Clone(params)})
	if g.failWhen != nil {
		if err := g.failWhen(query, params); err != nil {
			return nil, true, err
		}
	}

	switch {
	case query == "MATCH (n) DETACH DELETE n":
		g.nodes = make(map[string]*Node)
		g.nodeSeq = nil
		g.rels = make(map[string]*Rel)
		g.relSeq = nil
		return result(nil), true, nil
	case query == "MATCH (n) RETURN n":
		rows := make([][]any, 0, len(g.nodeSeq))
		for _, id := range g.nodeSeq {
			rows = append(rows, []any{g.driverNode(id)})
		}
		return result([]string{"n"}, rows...), true, nil
	case query == "MATCH ()-[r]->() RETURN r":
		rows := make([][]any, 0, len(g.relSeq))
		for _, id := range g.relSeq {
			rows = append(rows, []any{g.driverRel(id)})
		}
		return result([]string{"r"}, rows...), true, nil
	case strings.HasPrefix(query, "CALL db.labels()"):
		return g.labels(), true, nil
	}

	if m := mergeNodeRe.FindStringSubmatch(query); m != nil {
		res, err = g.mergeNode(m[1], m[2], params)
		return res, true, err
	}
	if m := matchNodesRe.FindStringSubmatch(query); m != nil {
		match := bind(condRe, m[2], params)
		var rows [][]any
		for _, id := range g.findIDs(m[1], match) {
			rows = append(rows, []any{id})
		}
		return result([]string{"id"}, rows...), true, nil
	}
	if m := mergeRelRe.FindStringSubmatch(query); m != nil {
		res, err = g.mergeRel(m[1], params)
		return res, true, err
	}
	if m := createRelRe.FindStringSubmatch(query); m != nil {
		res, err = g.createRel(m[1], params)
		return res, true, err
	}
	if m := createNodeRe.FindStringSubmatch(query); m != nil {
		var labels []string
		for _, lm := range labelRe.FindAllStringSubmatch(m[1], -1) {
			labels = append(labels, lm[1])
		}
		props, _ := params["props"].(map[string]any)
		id := g.addNode(labels, props)
		return result([]string{"id"}, []any{id}), true, nil
	}
	if m := propKeysRe.FindStringSubmatch(query); m != nil {
		return g.propertyKeys(m[1]), true, nil
	}
	if m := fetchPropsRe.FindStringSubmatch(query); m != nil {
		return g.fetchProps(m[1], m[2]), true, nil
	}
	if m := fetchByLabelRe.FindStringSubmatch(query); m != nil {
		var rows [][]any
		for _, id := range g.nodeSeq {
			if g.nodes[id].HasLabel(m[1]) {
				rows = append(rows, []any{g.driverNode(id)})
			}
		}
		return result([]string{"x"}, rows...), true, nil
	}
	if m := sampleRe.FindStringSubmatch(query); m != nil {
		return g.sample(m[1]), true, nil
	}
	return nil, false, nil
}

func (g *FakeGraph) mergeNode(label, pattern string, params map[string]any) (*neo4j.EagerResult, error) {
	match := bind(pairRe, pattern, params)
	if len(match) == 0 {
		return nil, fmt.Errorf("graphtest: MERGE without properties")
	}
	for k, v := range match {
		if v == nil {
			return nil, fmt.Errorf("graphtest: cannot merge node using null property value for %s", k)
		}
	}
	props, _ := params["props"].(map[string]any)

	ids := g.findIDs(label, match)
	var id string
	if len(ids) == 0 {
		id = g.addNode([]string{label}, match)
	} else {
		id = ids[0]
	}
	n := g.nodes[id]
	for k, v := range props {
		if v == nil {
			delete(n.Props, k)
			continue
		}
		n.Props[k] = v
	}
	// MERGE returns one row per matching node.
	if len(ids) > 1 {
		rows := make([][]any, len(ids))
		for i, mid := range ids {
			rows[i] = []any{mid}
		}
		return result([]string{"id"}, rows...), nil
	}
	return result([]string{"id"}, []any{id}), nil
}

func (g *FakeGraph) mergeRel(relType string, params map[string]any) (*neo4j.EagerResult, error) {
	from, _ := params["from"].(string)
	to, _ := params["to"].(string)
	if g.nodes[from] == nil || g.nodes[to] == nil {
		return result([]string{"id"}), nil
	}
	for _, id := range g.relSeq {
		r := g.rels[id]
		if r.Type == relType && r.From == from && r.To == to {
			return result([]string{"id"}, []any{id}), nil
		}
	}
	id := g.addRel(from, to, relType, nil)
	return result([]string{"id"}, []any{id}), nil
}

func (g *FakeGraph) createRel(relType string, params map[string]any) (*neo4j.EagerResult, error) {
	from, _ := params["from"].(string)
	to, _ := params["to"].(string)
	if g.nodes[from] == nil || g.nodes[to] == nil {
		return result([]string{"id"}), nil
	}
	props, _ := params["props"].(map[string]any)
	id := g.addRel(from, to, relType, props)
	return result([]string{"id"}, []any{id}), nil
}

func (g *FakeGraph) labels() *neo4j.EagerResult {
	set := map[string]struct{}{}
	for _, n := range g.nodes {
		for _, l := range n.Labels {
			set[l] = struct{}{}
		}
	}
	labels := make([]string, 0, len(set))
	for l := range set {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	rows := make([][]any, len(labels))
	for i, l := range labels {
		rows[i] = []any{l}
	}
	return result([]string{"label"}, rows...)
}

func (g *FakeGraph) propertyKeys(label string) *neo4j.EagerResult {
	set := map[string]struct{}{}
	for _, n := range g.nodes {
		if n.HasLabel(label) {
			for k := range n.Props {
				set[k] = struct{}{}
			}
		}
	}
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	rows := make([][]any, len(keys))
	for i, k := range keys {
		rows[i] = []any{k}
	}
	return result([]string{"property"}, rows...)
}

func (g *FakeGraph) fetchProps(label, items string) *neo4j.EagerResult {
	var props, aliases []string
	for _, m := range itemRe.FindAllStringSubmatch(items, -1) {
		props = append(props, m[1])
		aliases = append(aliases, m[2])
	}
	var rows [][]any
	for _, id := range g.nodeSeq {
		n := g.nodes[id]
		if !n.HasLabel(label) {
			continue
		}
		row := make([]any, len(props))
		for i, p := range props {
			row[i] = n.Props[p]
		}
		rows = append(rows, row)
	}
	return result(aliases, rows...)
}

func (g *FakeGraph) sample(limit string) *neo4j.EagerResult {
	n := -1
	if limit != "" {
		n, _ = strconv.Atoi(limit)
	}
	var rows [][]any
	for _, id := range g.relSeq {
		if n >= 0 && len(rows) >= n {
			break
		}
		r := g.rels[id]
		rows = append(rows, []any{firstLabel(g.nodes[r.From]), r.Type, firstLabel(g.nodes[r.To])})
	}
	return result([]string{"subjectLabel", "predicateType", "objectLabel"}, rows...)
}

func firstLabel(n *Node) any {
	if n == nil || len(n.Labels) == 0 {
		return nil
	}
	return n.Labels[0]
}

func (g *FakeGraph) findIDs(label string, match map[string]any) []string {
	var ids []string
	for _, id := range g.nodeSeq {
		n := g.nodes[id]
		if !n.HasLabel(label) {
			continue
		}
		ok := true
		for k, v := range match {
			pv, present := n.Props[k]
			if !present || !equal(pv, v) {
				ok = false
				break
			}
		}
		if ok {
			ids = append(ids, id)
		}
	}
	return ids
}

func (g *FakeGraph) addNode(labels []string, props map[string]any) string {
	g.nextID++
	id := fmt.Sprintf("4:fake:%d", g.nextID)
	p := make(map[string]any, len(props))
	for k, v := range props {
		if v != nil {
			p[k] = v
		}
	}
	g.nodes[id] = &Node{ID: id, Labels: append([]string(nil), labels...), Props: p}
	g.nodeSeq = append(g.nodeSeq, id)
	return id
}

func (g *FakeGraph) addRel(from, to, relType string, props map[string]any) string {
	g.nextID++
	id := fmt.Sprintf("5:fake:%d", g.nextID)
	g.rels[id] = &Rel{ID: id, Type: relType, From: from, To: to, Props: maps.Clone(props)}
	if g.rels[id].Props == nil {
		g.rels[id].Props = map[string]any{}
	}
	g.relSeq = append(g.relSeq, id)
	return id
}

func (g *FakeGraph) driverNode(id string) neo4j.Node {
	n := g.nodes[id]
	return neo4j.Node{ElementId: n.ID, Labels: append([]string(nil), n.Labels...), Props: maps.Clone(n.Props)}
}

func (g *FakeGraph) driverRel(id string) neo4j.Relationship {
	r := g.rels[id]
	return neo4j.Relationship{
		ElementId:      r.ID,
		StartElementId: r.From,
		EndElementId:   r.To,
		Type:           r.Type,
		Props:          maps.Clone(r.Props),
	}
}

// AddNode stores a node directly and returns its element id.
func (g *FakeGraph) AddNode(labels []string, props map[string]any) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.addNode(labels, props)
}

// AddRel stores a relationship directly and returns its element id.
func (g *FakeGraph) AddRel(from, to, relType string, props map[string]any) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.addRel(from, to, relType, props)
}

// Nodes returns copies of the stored nodes in creation order, optionally
// restricted to label.
func (g *FakeGraph) Nodes(label string) []Node {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []Node
	for _, id := range g.nodeSeq {
		n := g.nodes[id]
		if label == "" || n.HasLabel(label) {
			out = append(out, Node{ID: n.ID, Labels: append([]string(nil), n.Labels...), Props: maps.Clone(n.Props)})
		}
	}
	return out
}

// Rels returns copies of the stored relationships in creation order,
// optionally restricted to relType.
func (g *FakeGraph) Rels(relType string) []Rel {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []Rel
	for _, id := range g.relSeq {
		r := g.rels[id]
		if relType == "" || r.Type == relType {
			out = append(out, Rel{ID: r.ID, Type: r.Type, From: r.From, To: r.To, Props: maps.Clone(r.Props)})
		}
	}
	return out
}

// Node returns the node with element id.
func (g *FakeGraph) Node(id string) (Node, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	n, ok := g.nodes[id]
	if !ok {
		return Node{}, false
	}
	return Node{ID: n.ID, Labels: append([]string(nil), n.Labels...), Props: maps.Clone(n.Props)}, true
}

// FindNodes returns the nodes labeled label whose properties include match.
func (g *FakeGraph) FindNodes(label string, match map[string]any) []Node {
	g.mu.Lock()
	ids := g.findIDs(label, match)
	g.mu.Unlock()
	out := make([]Node, 0, len(ids))
	for _, id := range ids {
		n, _ := g.Node(id)
		out = append(out, n)
	}
	return out
}

// DeleteNodes detach-deletes the nodes labeled label whose properties
// include match and returns how many were removed.
func (g *FakeGraph) DeleteNodes(label string, match map[string]any) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	ids := g.findIDs(label, match)
	gone := make(map[string]bool, len(ids))
	for _, id := range ids {
		gone[id] = true
		delete(g.nodes, id)
	}
	g.nodeSeq = slices.DeleteFunc(g.nodeSeq, func(id string) bool { return gone[id] })
	g.relSeq = slices.DeleteFunc(g.relSeq, func(id string) bool {
		r := g.rels[id]
		if gone[r.From] || gone[r.To] {
			delete(g.rels, id)
			return true
		}
		return false
	})
	return len(ids)
}

// NodeCount returns the number of stored nodes.
func (g *FakeGraph) NodeCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.nodes)
}

// RelCount returns the number of stored relationships.
func (g *FakeGraph) RelCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.rels)
}

// Calls returns the recorded statements.
func (g *FakeGraph) Calls() []Call {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]Call(nil), g.calls...)
}

// ResetCalls forgets the recorded statements.
func (g *FakeGraph) ResetCalls() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = nil
}

func bind(re *regexp.Regexp, text string, params map[string]any) map[string]any {
	out := map[string]any{}
	for _, m := range re.FindAllStringSubmatch(text, -1) {
		out[m[1]] = params[m[2]]
	}
	return out
}

func equal(a, b any) bool {
	return fmt.Sprintf("%T:%v", a, a) == fmt.Sprintf("%T:%v", b, b)
}

// result builds an EagerResult; every row must have len(keys) values.
func result(keys []string, rows ...[]any) *neo4j.EagerResult {
	res := &neo4j.EagerResult{Keys: keys}
	for _, r := range rows {
		res.Records = append(res.Records, &neo4j.Record{Keys: keys, Values: r})
	}
	return res
}
