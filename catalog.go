package neomap

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/saulfrancisco-ruizacevedo/go-neomap/table"
)

// Catalog queries.
const (
	LabelsQuery    = "CALL db.labels() YIELD label RETURN label ORDER BY label"
	DatabasesQuery = "SHOW DATABASES YIELD name RETURN DISTINCT name ORDER BY name"
)

// Labels returns every node label of the active database.
func Labels(ctx context.Context, runner DBRunner) ([]string, error) {
	return stringColumn(ctx, runner, LabelsQuery, nil, "label")
}

// Databases returns the names of the databases visible to the user.
func Databases(ctx context.Context, runner DBRunner) ([]string, error) {
	return stringColumn(ctx, runner, DatabasesQuery, nil, "name")
}

// PropertyKeys returns the property names present on nodes labeled label.
func PropertyKeys(ctx context.Context, runner DBRunner, label string) ([]string, error) {
	if err := ValidateLabel(label); err != nil {
		return nil, err
	}
	query := fmt.Sprintf("MATCH (n:%s)\nUNWIND keys(n) AS property\nRETURN DISTINCT property ORDER BY property", quote(label))
	return stringColumn(ctx, runner, query, nil, "property")
}

// FetchNodes returns one row per node labeled label with the requested
// properties as columns. An empty properties list selects every property key
// found on the label.
func FetchNodes(ctx context.Context, runner DBRunner, label string, properties []string) (*table.Table, error) {
	if err := ValidateLabel(label); err != nil {
		return nil, err
	}
	if len(properties) == 0 {
		keys, err := PropertyKeys(ctx, runner, label)
		if err != nil {
			return nil, err
		}
		properties = keys
	}
	if len(properties) == 0 {
		return table.New(nil, nil)
	}

	items := make([]string, len(properties))
	for i, p := range properties {
		if err := ValidatePropertyKey(p); err != nil {
			return nil, err
		}
		items[i] = fmt.Sprintf("n.%s AS %s", quote(p), quote(p))
	}
	query := fmt.Sprintf("MATCH (n:%s)\nRETURN %s", quote(label), strings.Join(items, ", "))

	result, err := runner.Run(ctx, query, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", label, err)
	}
	t, err := table.New(properties, nil)
	if err != nil {
		return nil, err
	}
	for _, record := range result.Records {
		row := make(table.Row, len(properties))
		for _, p := range properties {
			v, _ := record.Get(p)
			row[p] = v
		}
		if err := t.Append(row); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// FetchNodesByLabel returns every node labeled label reached by an optional
// read-only recall prefix (e.g. "MATCH (n)-[r]->(m) WITH DISTINCT n, r, m").
// Columns are the union of property keys, sorted.
func FetchNodesByLabel(ctx context.Context, runner DBRunner, label, prefix string) (*table.Table, error) {
	if err := ValidateLabel(label); err != nil {
		return nil, err
	}
	if err := CheckReadOnly(prefix); err != nil {
		return nil, err
	}
	query := fmt.Sprintf("%s\nMATCH (x:%s)\nRETURN DISTINCT x", strings.TrimSpace(prefix), quote(label))
	result, err := runner.Run(ctx, strings.TrimSpace(query), nil)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", label, err)
	}

	var nodes []neo4j.Node
	keySet := make(map[string]struct{})
	for _, record := range result.Records {
		v, ok := record.Get("x")
		if !ok {
			return nil, NewError(ErrCodeResultParsing, "result has no 'x' column")
		}
		node, ok := v.(neo4j.Node)
		if !ok {
			return nil, Errorf(ErrCodeResultParsing, "'x' holds %T, not a node", v)
		}
		nodes = append(nodes, node)
		for k := range node.Props {
			keySet[k] = struct{}{}
		}
	}
	columns := make([]string, 0, len(keySet))
	for k := range keySet {
		columns = append(columns, k)
	}
	sort.Strings(columns)

	t, err := table.New(columns, nil)
	if err != nil {
		return nil, err
	}
	for _, n := range nodes {
		if err := t.Append(table.Row(n.Props)); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func stringColumn(ctx context.Context, runner DBRunner, query string, params map[string]any, column string) ([]string, error) {
	result, err := runner.Run(ctx, query, params)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(result.Records))
	for _, record := range result.Records {
		v, ok := record.Get(column)
		if !ok {
			return nil, Errorf(ErrCodeResultParsing, "result has no %q column", column)
		}
		s, ok := v.(string)
		if !ok {
			return nil, Errorf(ErrCodeResultParsing, "%q holds %T, expected string", column, v)
		}
		out = append(out, s)
	}
	return out, nil
}
