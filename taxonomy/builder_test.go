package taxonomy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saulfrancisco-ruizacevedo/go-neomap"
	"github.com/saulfrancisco-ruizacevedo/go-neomap/table"
)

func TestBuilderDraftFollowsSource(t *testing.T) {
	src := teams()
	b, err := NewBuilder(src, []string{"dept", "team"})
	require.NoError(t, err)
	assert.Equal(t, Draft, b.State())

	require.NoError(t, src.Set(1, "team", "Seq"))
	tax, err := b.Taxonomy()
	require.NoError(t, err)
	require.Len(t, tax.Rows, 1)
	assert.Equal(t, 3, tax.Rows[0].Count)
}

func TestBuilderSetIgnoresSourceEdits(t *testing.T) {
	src := teams()
	b, err := NewBuilder(src, []string{"dept", "team"})
	require.NoError(t, err)

	frozen, err := b.Freeze()
	require.NoError(t, err)
	assert.Equal(t, Set, b.State())
	assert.Equal(t, "set", b.State().String())

	require.NoError(t, src.Set(0, "dept", "Chem"))
	b.SetSource(table.MustNew([]string{"dept", "team"}, nil))

	tax, err := b.Taxonomy()
	require.NoError(t, err)
	assert.Equal(t, frozen, tax)

	again, err := b.Freeze()
	require.NoError(t, err)
	assert.Equal(t, frozen, again)

	assert.ErrorIs(t, b.SetLevels([]string{"dept"}), neomap.ErrConfiguration)
}

func TestBuilderEditAndThaw(t *testing.T) {
	src := teams()
	b, err := NewBuilder(src, []string{"dept", "team"})
	require.NoError(t, err)

	err = b.EditSnapshot(func(*Table) error { return nil })
	assert.ErrorIs(t, err, neomap.ErrConfiguration)

	_, err = b.Freeze()
	require.NoError(t, err)
	require.NoError(t, b.EditSnapshot(func(tax *Table) error {
		tax.Rows[1].Values[1] = "Imaging"
		return nil
	}))
	err = b.EditSnapshot(func(tax *Table) error {
		tax.Levels = []string{"dept"}
		return nil
	})
	assert.ErrorIs(t, err, neomap.ErrConfiguration)

	tax, err := b.Taxonomy()
	require.NoError(t, err)
	assert.Equal(t, "Imaging", tax.Rows[1].Values[1])

	thawed, err := b.Thaw()
	require.NoError(t, err)
	assert.Equal(t, Draft, b.State())
	assert.Equal(t, "Img", thawed.Rows[1].Values[1])

	require.NoError(t, b.SetLevels([]string{"dept"}))
	tax, err = b.Taxonomy()
	require.NoError(t, err)
	assert.Equal(t, []Row{{Values: []any{"Bio"}, Count: 3}}, tax.Rows)
}

func TestBuilderLoadSnapshot(t *testing.T) {
	b, err := NewBuilder(teams(), []string{"dept", "team"})
	require.NoError(t, err)

	reviewed := &Table{Levels: []string{"team"}, Rows: []Row{{Values: []any{"Seq"}, Count: 5}}}
	require.NoError(t, b.LoadSnapshot(reviewed))
	reviewed.Rows[0].Count = 0

	assert.Equal(t, Set, b.State())
	assert.Equal(t, []string{"team"}, b.Levels())
	tax, err := b.Taxonomy()
	require.NoError(t, err)
	assert.Equal(t, 5, tax.Rows[0].Count)

	assert.Error(t, b.LoadSnapshot(&Table{}))
}

func TestNewBuilderRejectsLevels(t *testing.T) {
	_, err := NewBuilder(teams(), nil)
	assert.ErrorIs(t, err, neomap.ErrConfiguration)
}
