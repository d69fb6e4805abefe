// Package graphio copies whole graphs between databases: Export reads every
// node and relationship, Encode/Decode move them through a binary blob, and
// Import rebuilds them in an emptied database.
package graphio

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/saulfrancisco-ruizacevedo/go-neomap"
)

const (
	ExportNodesQuery         = "MATCH (n) RETURN n"
	ExportRelationshipsQuery = "MATCH ()-[r]->() RETURN r"
)

// Export reads every node and relationship of the active database. The two
// reads run concurrently as separate statements, so a relationship written
// between them may reference a node the node read did not see. Such
// relationships are left out and the result always imports cleanly.
func Export(ctx context.Context, runner neomap.DBRunner) (*neomap.GraphResult, error) {
	var nodes, edges *neomap.GraphResult
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		res, err := runner.Run(gctx, ExportNodesQuery, nil)
		if err != nil {
			return fmt.Errorf("export nodes: %w", err)
		}
		nodes = neomap.GraphFromRecords(res.Records)
		return nil
	})
	g.Go(func() error {
		res, err := runner.Run(gctx, ExportRelationshipsQuery, nil)
		if err != nil {
			return fmt.Errorf("export relationships: %w", err)
		}
		edges = neomap.GraphFromRecords(res.Records)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	known := make(map[string]bool, len(nodes.Nodes))
	for _, n := range nodes.Nodes {
		known[n.ID] = true
	}
	kept := edges.Edges[:0]
	for _, e := range edges.Edges {
		if known[e.Source] && known[e.Target] {
			kept = append(kept, e)
		}
	}
	return &neomap.GraphResult{Nodes: nodes.Nodes, Edges: kept}, nil
}
