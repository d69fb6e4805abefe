package taxonomy

import (
	"slices"
	"sync"

	"github.com/saulfrancisco-ruizacevedo/go-neomap"
	"github.com/saulfrancisco-ruizacevedo/go-neomap/table"
)

// State is the lifecycle state of a Builder.
type State int

const (
	// Draft re-derives the taxonomy from the live source on every read.
	Draft State = iota
	// Set serves a frozen snapshot, independent of later source edits.
	Set
)

func (s State) String() string {
	if s == Set {
		return "set"
	}
	return "draft"
}

// Builder tracks a taxonomy over a live, editable source table.
//
//	Draft --Freeze--> Set --Thaw--> Draft
//
// Thaw discards the snapshot, including manual edits made while Set.
type Builder struct {
	mu       sync.Mutex
	source   *table.Table
	levels   []string
	state    State
	snapshot *Table
}

// NewBuilder creates a Draft builder over source.
func NewBuilder(source *table.Table, levels []string) (*Builder, error) {
	if err := checkLevels(levels); err != nil {
		return nil, err
	}
	return &Builder{source: source, levels: slices.Clone(levels)}, nil
}

// State returns the current state.
func (b *Builder) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Levels returns the level columns, root first.
func (b *Builder) Levels() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.levels)
}

// SetSource replaces the live source table. A Set snapshot is unaffected.
func (b *Builder) SetSource(source *table.Table) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.source = source
}

// SetLevels changes the level columns. Only allowed in Draft.
func (b *Builder) SetLevels(levels []string) error {
	if err := checkLevels(levels); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == Set {
		return neomap.NewError(neomap.ErrCodeConfiguration, "taxonomy is set; thaw it before changing levels")
	}
	b.levels = slices.Clone(levels)
	return nil
}

// Taxonomy returns the current taxonomy: freshly derived in Draft, a copy of
// the snapshot in Set.
func (b *Builder) Taxonomy() (*Table, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == Set {
		return b.snapshot.Clone(), nil
	}
	return Build(b.source, b.levels)
}

// Freeze derives the taxonomy from the source as it is now and enters Set.
// Freezing an already Set builder returns the existing snapshot.
func (b *Builder) Freeze() (*Table, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == Set {
		return b.snapshot.Clone(), nil
	}
	snap, err := Build(b.source, b.levels)
	if err != nil {
		return nil, err
	}
	b.snapshot = snap
	b.state = Set
	return snap.Clone(), nil
}

// Thaw returns to Draft, dropping the snapshot, and re-derives.
func (b *Builder) Thaw() (*Table, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = Draft
	b.snapshot = nil
	return Build(b.source, b.levels)
}

// LoadSnapshot enters Set with snapshot, e.g. a reviewed taxonomy read back
// from a file. The builder's levels become the snapshot's.
func (b *Builder) LoadSnapshot(snapshot *Table) error {
	if err := checkLevels(snapshot.Levels); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.snapshot = snapshot.Clone()
	b.levels = slices.Clone(snapshot.Levels)
	b.state = Set
	return nil
}

// EditSnapshot applies a manual edit to the Set snapshot. Edits persist until Thaw.
func (b *Builder) EditSnapshot(edit func(*Table) error) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != Set {
		return neomap.NewError(neomap.ErrCodeConfiguration, "taxonomy is a draft; freeze it before editing")
	}
	work := b.snapshot.Clone()
	if err := edit(work); err != nil {
		return err
	}
	if !slices.Equal(work.Levels, b.snapshot.Levels) {
		return neomap.NewError(neomap.ErrCodeConfiguration, "snapshot edits cannot change levels")
	}
	b.snapshot = work
	return nil
}
