package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"path"

	"github.com/saulfrancisco-ruizacevedo/go-neomap"
	"github.com/saulfrancisco-ruizacevedo/go-neomap/table"
)

// DefaultContainmentRelationship links an indexed entry to its parent folder.
const DefaultContainmentRelationship = "IS_IN"

// Folder is an indexed directory.
type Folder struct {
	Filepath  string `crud:"pk,property:filepath"`
	Name      string `crud:"property:name"`
	Size      int64  `crud:"property:size"`
	DiskUsage int64  `crud:"property:disk_usage"`
}

// File is an indexed regular file.
type File struct {
	Filepath  string `crud:"pk,property:filepath"`
	Name      string `crud:"property:name"`
	Size      int64  `crud:"property:size"`
	DiskUsage int64  `crud:"property:disk_usage"`
}

// IndexOptions control an Indexer.
type IndexOptions struct {
	Options
	// IncludeFiles also indexes File rows.
	IncludeFiles bool
	// Relationship links entries to their parent; defaults to IS_IN.
	Relationship string
}

// Indexer materializes a flattened filesystem scan as a Folder hierarchy.
type Indexer struct {
	folders *neomap.Repository[Folder]
	files   *neomap.Repository[File]
	nodes   *neomap.Upserter
	links   *neomap.Linker
	opts    IndexOptions
	logger  *slog.Logger
}

// NewIndexer creates an Indexer and registers the Folder and File models.
func NewIndexer(m *neomap.Manager, opts IndexOptions) (*Indexer, error) {
	folders, err := neomap.RepositoryFor[Folder](m)
	if err != nil {
		return nil, err
	}
	files, err := neomap.RepositoryFor[File](m)
	if err != nil {
		return nil, err
	}
	if opts.Relationship == "" {
		opts.Relationship = DefaultContainmentRelationship
	}
	if err := neomap.ValidateRelationshipType(opts.Relationship); err != nil {
		return nil, err
	}
	return &Indexer{
		folders: folders,
		files:   files,
		nodes:   m.Nodes(),
		links:   m.Links(),
		opts:    opts,
		logger:  opts.logger("indexer"),
	}, nil
}

// Push saves every Directory row (and File row when enabled) of a scan table
// and links it to its parent folder. The parent is ensured by key only, so
// pushing a child never overwrites the parent's sizes. Top-level entries
// have no parent link.
func (ix *Indexer) Push(ctx context.Context, scan *table.Table) (*neomap.PushReport, error) {
	for _, c := range table.ScanColumns {
		if !scan.HasColumn(c) {
			return nil, neomap.Errorf(neomap.ErrCodeConfiguration, "scan table has no %q column", c)
		}
	}

	report := newReport()
	logger := ix.logger.With("run_id", report.RunID)
	logger.Info("indexing scan", "rows", scan.Len(), "include_files", ix.opts.IncludeFiles)

	for i, row := range scan.Rows() {
		kind, _ := row[table.ColType].(string)
		if kind != table.TypeDirectory && !(ix.opts.IncludeFiles && kind == table.TypeFile) {
			continue
		}
		if err := ix.opts.wait(ctx); err != nil {
			return report, err
		}
		err := ix.pushRow(ctx, kind, row)
		if err != nil {
			logger.Warn("row failed", "row", i, "error", err)
		}
		if report.Record(i, err, ix.opts.Policy) {
			break
		}
	}

	logger.Info("index finished", "succeeded", report.Succeeded, "failed", len(report.Failed))
	return report, nil
}

func (ix *Indexer) pushRow(ctx context.Context, kind string, row table.Row) error {
	p, ok := row[table.ColPath].(string)
	if !ok || p == "" {
		return neomap.NewError(neomap.ErrCodeAmbiguousIdentity, "row has no path")
	}
	size, err := intCell(row, table.ColSize)
	if err != nil {
		return err
	}
	usage, err := intCell(row, table.ColDiskUsage)
	if err != nil {
		return err
	}

	var ref neomap.NodeRef
	if kind == table.TypeDirectory {
		ref, err = ix.folders.Save(ctx, &Folder{Filepath: p, Name: path.Base(p), Size: size, DiskUsage: usage})
	} else {
		ref, err = ix.files.Save(ctx, &File{Filepath: p, Name: path.Base(p), Size: size, DiskUsage: usage})
	}
	if err != nil {
		return err
	}

	parent := path.Dir(p)
	if parent == "." || parent == p {
		return nil
	}
	parentRef, err := ix.nodes.UpsertNode(ctx, ix.folders.Label(), map[string]any{"filepath": parent}, nil)
	if err != nil {
		return err
	}
	return ix.links.Link(ctx, ref, parentRef, ix.opts.Relationship)
}

func intCell(row table.Row, col string) (int64, error) {
	switch v := row[col].(type) {
	case nil:
		return 0, nil
	case int64:
		return v, nil
	case float64:
		return int64(v), nil
	default:
		return 0, fmt.Errorf("column %q holds %T, expected a number", col, v)
	}
}
