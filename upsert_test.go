package neomap_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saulfrancisco-ruizacevedo/go-neomap"
	"github.com/saulfrancisco-ruizacevedo/go-neomap/internal/graphtest"
)

func TestUpsertNodeIsIdempotent(t *testing.T) {
	ctx := context.Background()
	g := graphtest.New()
	u := neomap.NewUpserter(g)

	first, err := u.UpsertNode(ctx, "Sample", map[string]any{"name": "s1"}, map[string]any{"organism": "mouse"})
	require.NoError(t, err)
	second, err := u.UpsertNode(ctx, "Sample", map[string]any{"name": "s1"}, map[string]any{"organism": "mouse"})
	require.NoError(t, err)

	assert.Equal(t, first.ElementID, second.ElementID)
	assert.Equal(t, 1, g.NodeCount())
	assert.Equal(t, "Sample", first.Label)
	assert.Equal(t, map[string]any{"name": "s1"}, first.Match)
}

func TestUpsertNodeLastWriteWins(t *testing.T) {
	ctx := context.Background()
	g := graphtest.New()
	u := neomap.NewUpserter(g)

	_, err := u.UpsertNode(ctx, "Sample", map[string]any{"name": "s1"}, map[string]any{"organism": "mouse", "batch": int64(1)})
	require.NoError(t, err)
	_, err = u.UpsertNode(ctx, "Sample", map[string]any{"name": "s1"}, map[string]any{"organism": "rat", "batch": nil})
	require.NoError(t, err)

	nodes := g.Nodes("Sample")
	require.Len(t, nodes, 1)
	assert.Equal(t, "rat", nodes[0].Props["organism"])
	// Null values are skipped, not written.
	assert.Equal(t, int64(1), nodes[0].Props["batch"])
}

func TestUpsertNodeDistinguishesValueTypes(t *testing.T) {
	ctx := context.Background()
	g := graphtest.New()
	u := neomap.NewUpserter(g)

	a, err := u.UpsertNode(ctx, "Dose", map[string]any{"value": int64(2)}, nil)
	require.NoError(t, err)
	b, err := u.UpsertNode(ctx, "Dose", map[string]any{"value": 2.0}, nil)
	require.NoError(t, err)

	assert.NotEqual(t, a.ElementID, b.ElementID)
	assert.Equal(t, 2, g.NodeCount())
}

func TestUpsertNodeAmbiguousIdentity(t *testing.T) {
	g := graphtest.New()
	u := neomap.NewUpserter(g)

	_, err := u.UpsertNode(context.Background(), "Sample", map[string]any{}, map[string]any{"x": 1})
	assert.ErrorIs(t, err, neomap.ErrAmbiguousIdentity)
	_, err = u.UpsertNode(context.Background(), "Sample", map[string]any{"name": nil}, nil)
	assert.ErrorIs(t, err, neomap.ErrAmbiguousIdentity)
	assert.Empty(t, g.Calls(), "nothing may reach the database")
}

func TestUpsertNodePropagatesDatabaseErrors(t *testing.T) {
	g := graphtest.New()
	g.FailWhen(func(string, map[string]any) error {
		return neomap.NewError(neomap.ErrCodeConnection, "down")
	})
	u := neomap.NewUpserter(g)

	_, err := u.UpsertNode(context.Background(), "Sample", map[string]any{"name": "s1"}, nil)
	assert.ErrorIs(t, err, neomap.ErrConnection)
}

func TestIdentityCacheSkipsKeyOnlyRoundTrips(t *testing.T) {
	ctx := context.Background()
	g := graphtest.New()
	u := neomap.NewUpserter(g, neomap.WithIdentityCache())

	first, err := u.UpsertNode(ctx, "Team", map[string]any{"is": "Seq"}, nil)
	require.NoError(t, err)
	second, err := u.UpsertNode(ctx, "Team", map[string]any{"is": "Seq"}, nil)
	require.NoError(t, err)
	assert.Equal(t, first.ElementID, second.ElementID)
	assert.Len(t, g.Calls(), 1)

	// Upserts carrying properties always reach the database.
	_, err = u.UpsertNode(ctx, "Team", map[string]any{"is": "Seq"}, map[string]any{"size": int64(3)})
	require.NoError(t, err)
	assert.Len(t, g.Calls(), 2)

	u.InvalidateCache()
	_, err = u.UpsertNode(ctx, "Team", map[string]any{"is": "Seq"}, nil)
	require.NoError(t, err)
	assert.Len(t, g.Calls(), 3)
}

func TestResolveNodes(t *testing.T) {
	ctx := context.Background()
	g := graphtest.New()
	u := neomap.NewUpserter(g)

	id1 := g.AddNode([]string{"Sample"}, map[string]any{"batch": int64(1), "name": "a"})
	id2 := g.AddNode([]string{"Sample"}, map[string]any{"batch": int64(1), "name": "b"})
	g.AddNode([]string{"Sample"}, map[string]any{"batch": int64(2), "name": "c"})

	refs, err := u.ResolveNodes(ctx, "Sample", map[string]any{"batch": int64(1)})
	require.NoError(t, err)
	require.Len(t, refs, 2)
	assert.ElementsMatch(t, []string{id1, id2}, []string{refs[0].ElementID, refs[1].ElementID})

	none, err := u.ResolveNodes(ctx, "Sample", map[string]any{"batch": int64(9)})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestRegistryRecordsUpsertedProperties(t *testing.T) {
	ctx := context.Background()
	m := neomap.NewManager(graphtest.New())

	_, err := m.UpsertNode(ctx, "Sample", map[string]any{"name": "s1"}, map[string]any{"batch": int64(1)})
	require.NoError(t, err)
	_, err = m.UpsertNode(ctx, "Sample", map[string]any{"name": "s2"}, map[string]any{"batch": "B-2"})
	require.NoError(t, err)

	s, ok := m.Registry().Lookup("Sample")
	require.True(t, ok)
	assert.Equal(t, neomap.KindString, s.Properties["name"])
	assert.Equal(t, neomap.KindMixed, s.Properties["batch"])
}

func TestUpsertNodeUnexpectedRowCount(t *testing.T) {
	g := graphtest.New()
	g.AddNode([]string{"Sample"}, map[string]any{"name": "dup"})
	g.AddNode([]string{"Sample"}, map[string]any{"name": "dup"})
	u := neomap.NewUpserter(g)

	_, err := u.UpsertNode(context.Background(), "Sample", map[string]any{"name": "dup"}, nil)
	require.Error(t, err)
	var nerr *neomap.Error
	require.True(t, errors.As(err, &nerr))
	assert.Equal(t, neomap.ErrCodeResultParsing, nerr.Code)
	assert.True(t, strings.Contains(err.Error(), "returned 2 rows"))
}
