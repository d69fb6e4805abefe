package neomap

import (
	"fmt"
	"sort"
	"strings"
)

// Statement is a parameterised Cypher query. Identifiers are interpolated
// quoted; every value travels in Params.
type Statement struct {
	Query  string
	Params map[string]any
}

// ClearGraphQuery removes every node and relationship of the active database.
const ClearGraphQuery = "MATCH (n) DETACH DELETE n"

// BuildMergeNode returns the statement that finds or creates the node
// identified by (label, match) and applies props on both paths.
//
//	MERGE (n:`Label` {`key`: $m0})
//	SET n += $props
//	RETURN elementId(n) AS id
func BuildMergeNode(label string, match, props map[string]any) (Statement, error) {
	if err := ValidateLabel(label); err != nil {
		return Statement{}, err
	}
	if len(match) == 0 {
		return Statement{}, ErrAmbiguousIdentity
	}
	keys, err := sortedKeys(match)
	if err != nil {
		return Statement{}, err
	}

	params := make(map[string]any, len(match)+1)
	pairs := make([]string, len(keys))
	for i, k := range keys {
		v := match[k]
		if isBlank(v) {
			return Statement{}, Errorf(ErrCodeAmbiguousIdentity, "match property %q of %s has no value", k, label)
		}
		p := fmt.Sprintf("m%d", i)
		pairs[i] = fmt.Sprintf("%s: $%s", quote(k), p)
		params[p] = v
	}

	setProps := make(map[string]any, len(props))
	for k, v := range props {
		if v == nil {
			continue
		}
		if err := ValidatePropertyKey(k); err != nil {
			return Statement{}, err
		}
		setProps[k] = v
	}
	params["props"] = setProps

	query := fmt.Sprintf("MERGE (n:%s {%s})\nSET n += $props\nRETURN elementId(n) AS id",
		quote(label), strings.Join(pairs, ", "))
	return Statement{Query: query, Params: params}, nil
}

// BuildMatchNodes returns the statement that finds every node labeled label
// whose properties equal match.
//
//	MATCH (n:`Label`)
//	WHERE n.`key` = $m0
//	RETURN elementId(n) AS id
func BuildMatchNodes(label string, match map[string]any) (Statement, error) {
	if err := ValidateLabel(label); err != nil {
		return Statement{}, err
	}
	if len(match) == 0 {
		return Statement{}, ErrAmbiguousIdentity
	}
	keys, err := sortedKeys(match)
	if err != nil {
		return Statement{}, err
	}
	params := make(map[string]any, len(match))
	conds := make([]string, len(keys))
	for i, k := range keys {
		p := fmt.Sprintf("m%d", i)
		conds[i] = fmt.Sprintf("n.%s = $%s", quote(k), p)
		params[p] = match[k]
	}
	query := fmt.Sprintf("MATCH (n:%s)\nWHERE %s\nRETURN elementId(n) AS id",
		quote(label), strings.Join(conds, " AND "))
	return Statement{Query: query, Params: params}, nil
}

// BuildMergeRelationship returns the statement that ensures exactly one
// relType edge from the node with element id from to the node with element id to.
//
//	MATCH (a) WHERE elementId(a) = $from
//	MATCH (b) WHERE elementId(b) = $to
//	MERGE (a)-[r:`TYPE`]->(b)
//	RETURN elementId(r) AS id
func BuildMergeRelationship(from, to, relType string) (Statement, error) {
	if err := ValidateRelationshipType(relType); err != nil {
		return Statement{}, err
	}
	query := fmt.Sprintf("%s\nMERGE (a)-[r:%s]->(b)\nRETURN elementId(r) AS id",
		matchEndpoints, quote(relType))
	return Statement{Query: query, Params: map[string]any{"from": from, "to": to}}, nil
}

// BuildCreateNode returns the statement that creates a fresh node with the
// given labels and exactly props.
func BuildCreateNode(labels []string, props map[string]any) (Statement, error) {
	var b strings.Builder
	b.WriteString("CREATE (n")
	for _, l := range labels {
		if err := ValidateLabel(l); err != nil {
			return Statement{}, err
		}
		b.WriteString(":")
		b.WriteString(quote(l))
	}
	b.WriteString(")\nSET n = $props\nRETURN elementId(n) AS id")
	return Statement{Query: b.String(), Params: map[string]any{"props": nonNil(props)}}, nil
}

// BuildCreateRelationship returns the statement that creates a new relType
// edge between two existing nodes, even if one already exists.
func BuildCreateRelationship(from, to, relType string, props map[string]any) (Statement, error) {
	if err := ValidateRelationshipType(relType); err != nil {
		return Statement{}, err
	}
	query := fmt.Sprintf("%s\nCREATE (a)-[r:%s]->(b)\nSET r = $props\nRETURN elementId(r) AS id",
		matchEndpoints, quote(relType))
	return Statement{Query: query, Params: map[string]any{"from": from, "to": to, "props": nonNil(props)}}, nil
}

const matchEndpoints = "MATCH (a) WHERE elementId(a) = $from\nMATCH (b) WHERE elementId(b) = $to"

func sortedKeys(m map[string]any) ([]string, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		if err := ValidatePropertyKey(k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func nonNil(props map[string]any) map[string]any {
	out := make(map[string]any, len(props))
	for k, v := range props {
		if v != nil {
			out[k] = v
		}
	}
	return out
}

func isBlank(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && strings.TrimSpace(s) == ""
}
