package ingest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saulfrancisco-ruizacevedo/go-neomap"
	"github.com/saulfrancisco-ruizacevedo/go-neomap/internal/graphtest"
	"github.com/saulfrancisco-ruizacevedo/go-neomap/mapping"
	"github.com/saulfrancisco-ruizacevedo/go-neomap/table"
)

func samples() *table.Table {
	return table.MustNew([]string{"kind", "name", "organism", "study"}, []table.Row{
		{"kind": "Sample", "name": "s1", "organism": "human", "study": "ST1"},
		{"kind": "Sample", "name": "s2", "organism": "mouse", "study": "ST2"},
		{"kind": "Sample", "name": "s1", "organism": nil, "study": "ST1"},
	})
}

func assign(t *testing.T, columns []string) *mapping.Assignment {
	t.Helper()
	a, err := mapping.Classify(columns, mapping.Selection{
		Label:      "kind",
		Properties: []string{"name", "organism"},
		MatchKeys:  []string{"name"},
		Context:    []string{"study"},
	})
	require.NoError(t, err)
	return a
}

func TestPushEntities(t *testing.T) {
	g := graphtest.New()
	p := NewEntityPusher(neomap.NewManager(g), Options{})
	tbl := samples()

	report, err := p.Push(context.Background(), tbl, assign(t, tbl.Columns()), nil)
	require.NoError(t, err)
	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, 3, report.Rows)
	assert.Equal(t, 3, report.Succeeded)
	assert.NoError(t, report.Err())

	nodes := g.Nodes("Sample")
	require.Len(t, nodes, 2)
	assert.Equal(t, map[string]any{"name": "s1", "organism": "human"}, nodes[0].Props)
	assert.NotContains(t, nodes[0].Props, "study")
}

func TestPushValidatesBeforeAnyCall(t *testing.T) {
	tbl := samples()
	noKeys, err := mapping.Classify(tbl.Columns(), mapping.Selection{Label: "kind", Properties: []string{"name"}})
	require.NoError(t, err)
	noLabel, err := mapping.Classify(tbl.Columns(), mapping.Selection{MatchKeys: []string{"name"}})
	require.NoError(t, err)

	tests := []struct {
		name string
		a    *mapping.Assignment
		link *LinkSpec
	}{
		{"no match keys", noKeys, nil},
		{"no label", noLabel, nil},
		{"link without columns", assign(t, tbl.Columns()), &LinkSpec{TargetLabel: "Study", RelationshipType: "PART_OF"}},
		{"link to unknown column", assign(t, tbl.Columns()), &LinkSpec{TargetLabel: "Study", RelationshipType: "PART_OF", MatchColumns: []string{"lab"}}},
		{"link with reserved type", assign(t, tbl.Columns()), &LinkSpec{TargetLabel: "Study", RelationshipType: "MATCH", MatchColumns: []string{"study"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := graphtest.New()
			_, err := NewEntityPusher(neomap.NewManager(g), Options{}).Push(context.Background(), tbl, tt.a, tt.link)
			require.Error(t, err)
			assert.Empty(t, g.Calls())
		})
	}
}

func TestPushErrorPolicy(t *testing.T) {
	tbl := table.MustNew([]string{"kind", "name"}, []table.Row{
		{"kind": "Sample", "name": "s1"},
		{"kind": "Sample"},
		{"kind": "Sample", "name": "s3"},
	})
	a, err := mapping.Classify(tbl.Columns(), mapping.Selection{Label: "kind", MatchKeys: []string{"name"}})
	require.NoError(t, err)

	g := graphtest.New()
	report, err := NewEntityPusher(neomap.NewManager(g), Options{Policy: neomap.ContinueOnError}).Push(context.Background(), tbl, a, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Succeeded)
	require.Len(t, report.Failed, 1)
	assert.Equal(t, 1, report.Failed[0].Row)
	assert.ErrorIs(t, report.Err(), neomap.ErrAmbiguousIdentity)
	assert.Len(t, g.Nodes("Sample"), 2)

	g = graphtest.New()
	report, err = NewEntityPusher(neomap.NewManager(g), Options{Policy: neomap.AbortOnError}).Push(context.Background(), tbl, a, nil)
	require.NoError(t, err)
	assert.True(t, report.Aborted)
	assert.Equal(t, 2, report.Rows)
	assert.Len(t, g.Nodes("Sample"), 1)
}

func TestPushDatabaseFailureIsRecorded(t *testing.T) {
	g := graphtest.New()
	g.FailWhen(func(string, map[string]any) error {
		return neomap.WrapError(neomap.ErrCodeConnection, "database unreachable", errors.New("dial tcp"))
	})
	tbl := samples()
	report, err := NewEntityPusher(neomap.NewManager(g), Options{}).Push(context.Background(), tbl, assign(t, tbl.Columns()), nil)
	require.NoError(t, err)
	assert.Len(t, report.Failed, 3)
	assert.ErrorIs(t, report.Err(), neomap.ErrConnection)
}

func TestPushLinksExistingTargets(t *testing.T) {
	g := graphtest.New()
	g.AddNode([]string{"Study"}, map[string]any{"id": "ST1"})
	g.AddNode([]string{"Study"}, map[string]any{"id": "ST2"})
	tbl := samples()

	link := &LinkSpec{
		TargetLabel:      "Study",
		MatchColumns:     []string{"study"},
		TargetKeys:       mapping.PropertyMap{"study": "id"},
		RelationshipType: "PART_OF",
	}
	p := NewEntityPusher(neomap.NewManager(g), Options{})
	report, err := p.Push(context.Background(), tbl, assign(t, tbl.Columns()), link)
	require.NoError(t, err)
	assert.NoError(t, report.Err())

	assert.Len(t, g.Rels("PART_OF"), 2)
	assert.Len(t, g.Nodes("Study"), 2)
}

func TestPushMissingTarget(t *testing.T) {
	g := graphtest.New()
	g.AddNode([]string{"Study"}, map[string]any{"id": "ST1"})
	tbl := samples()

	link := &LinkSpec{
		TargetLabel:      "Study",
		MatchColumns:     []string{"study"},
		TargetKeys:       mapping.PropertyMap{"study": "id"},
		RelationshipType: "PART_OF",
	}
	report, err := NewEntityPusher(neomap.NewManager(g), Options{}).Push(context.Background(), tbl, assign(t, tbl.Columns()), link)
	require.NoError(t, err)
	require.Len(t, report.Failed, 1)
	assert.Equal(t, 1, report.Failed[0].Row)
	assert.ErrorIs(t, report.Failed[0], neomap.ErrNotFound)
	assert.Len(t, g.Nodes("Study"), 1)
}

func TestPushMergeTarget(t *testing.T) {
	g := graphtest.New()
	tbl := samples()

	link := &LinkSpec{
		TargetLabel:      "Study",
		MatchColumns:     []string{"study"},
		TargetKeys:       mapping.PropertyMap{"study": "id"},
		RelationshipType: "PART_OF",
		MergeTarget:      true,
	}
	report, err := NewEntityPusher(neomap.NewManager(g), Options{}).Push(context.Background(), tbl, assign(t, tbl.Columns()), link)
	require.NoError(t, err)
	assert.NoError(t, report.Err())

	studies := g.Nodes("Study")
	require.Len(t, studies, 2)
	assert.Equal(t, map[string]any{"id": "ST1"}, studies[0].Props)
	assert.Len(t, g.Rels("PART_OF"), 2)
}

func TestPushHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	tbl := samples()
	_, err := NewEntityPusher(neomap.NewManager(graphtest.New()), Options{}).Push(ctx, tbl, assign(t, tbl.Columns()), nil)
	assert.ErrorIs(t, err, context.Canceled)
}
