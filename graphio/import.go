package graphio

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/saulfrancisco-ruizacevedo/go-neomap"
)

// ImportReport counts what Import recreated.
type ImportReport struct {
	Nodes int
	Edges int
	// IDs maps exported element ids to the ids assigned on import.
	IDs map[string]string
}

// Import replaces the contents of the active database with g: it deletes
// every node and relationship, recreates nodes (receiving new element ids)
// and then recreates edges through the old-to-new id table. Edges whose
// endpoints are not part of g are an error. Every node gets a new element id,
// so an Upserter with an identity cache used against runner must call
// InvalidateCache afterwards.
func Import(ctx context.Context, runner neomap.DBRunner, g *neomap.GraphResult, logger *slog.Logger) (*ImportReport, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "graph-import")

	nodeIDs := make(map[string]bool, len(g.Nodes))
	for _, n := range g.Nodes {
		nodeIDs[n.ID] = true
	}
	for _, e := range g.Edges {
		if !nodeIDs[e.Source] || !nodeIDs[e.Target] {
			return nil, neomap.Errorf(neomap.ErrCodeConfiguration, "edge %s references a node outside the graph", e.ID)
		}
	}

	if _, err := runner.Run(ctx, neomap.ClearGraphQuery, nil); err != nil {
		return nil, fmt.Errorf("clear graph: %w", err)
	}
	logger.Info("cleared destination graph")

	report := &ImportReport{IDs: make(map[string]string, len(g.Nodes))}
	for _, n := range g.Nodes {
		stmt, err := neomap.BuildCreateNode(n.Labels, n.Properties)
		if err != nil {
			return report, err
		}
		newID, err := singleID(ctx, runner, stmt)
		if err != nil {
			return report, fmt.Errorf("create node %s: %w", n.ID, err)
		}
		report.IDs[n.ID] = newID
		report.Nodes++
	}
	for _, e := range g.Edges {
		stmt, err := neomap.BuildCreateRelationship(report.IDs[e.Source], report.IDs[e.Target], e.Type, e.Properties)
		if err != nil {
			return report, err
		}
		if _, err := singleID(ctx, runner, stmt); err != nil {
			return report, fmt.Errorf("create edge %s: %w", e.ID, err)
		}
		report.Edges++
	}

	logger.Info("graph imported", "nodes", report.Nodes, "edges", report.Edges)
	return report, nil
}

func singleID(ctx context.Context, runner neomap.DBRunner, stmt neomap.Statement) (string, error) {
	res, err := runner.Run(ctx, stmt.Query, stmt.Params)
	if err != nil {
		return "", err
	}
	if len(res.Records) != 1 {
		return "", neomap.Errorf(neomap.ErrCodeResultParsing, "expected 1 row, got %d", len(res.Records))
	}
	v, _ := res.Records[0].Get("id")
	id, ok := v.(string)
	if !ok {
		return "", neomap.Errorf(neomap.ErrCodeResultParsing, "'id' holds %T", v)
	}
	return id, nil
}
