package neomap

import (
	"context"
	"fmt"
)

// Linker creates typed, directed relationships between materialized nodes.
type Linker struct {
	runner DBRunner
}

// NewLinker creates a Linker that runs its statements through runner.
func NewLinker(runner DBRunner) *Linker {
	return &Linker{runner: runner}
}

// Link ensures exactly one relType edge from source to target. Both nodes
// must already exist; a missing endpoint yields an ErrNotFound-class error
// and nothing is created. Repeating the call does not add edges.
func (l *Linker) Link(ctx context.Context, source, target NodeRef, relType string) error {
	if source.ElementID == "" || target.ElementID == "" {
		return Errorf(ErrCodeNotFound, "link %s %s->%s: endpoint has no element id", relType, source, target)
	}
	stmt, err := BuildMergeRelationship(source.ElementID, target.ElementID, relType)
	if err != nil {
		return err
	}
	result, err := l.runner.Run(ctx, stmt.Query, stmt.Params)
	if err != nil {
		return fmt.Errorf("link %s %s->%s: %w", relType, source, target, err)
	}
	ids, err := elementIDs(result)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return Errorf(ErrCodeNotFound, "link %s %s->%s: endpoint not found", relType, source, target)
	}
	return nil
}
