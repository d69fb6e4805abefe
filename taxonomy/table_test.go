package taxonomy

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saulfrancisco-ruizacevedo/go-neomap"
	"github.com/saulfrancisco-ruizacevedo/go-neomap/table"
)

func teams() *table.Table {
	return table.MustNew([]string{"name", "dept", "team"}, []table.Row{
		{"name": "ada", "dept": "Bio", "team": "Seq"},
		{"name": "bob", "dept": "Bio", "team": "Img"},
		{"name": "cy", "dept": "Bio", "team": "Seq"},
	})
}

func TestBuild(t *testing.T) {
	tax, err := Build(teams(), []string{"dept", "team"})
	require.NoError(t, err)

	assert.Equal(t, []string{"dept", "team"}, tax.Levels)
	assert.Equal(t, []Row{
		{Values: []any{"Bio", "Seq"}, Count: 2},
		{Values: []any{"Bio", "Img"}, Count: 1},
	}, tax.Rows)
	assert.Equal(t, 3, tax.TotalCount())
}

func TestBuildKeepsTypesAndNulls(t *testing.T) {
	src := table.MustNew([]string{"v"}, []table.Row{
		{"v": int64(2)}, {"v": 2.0}, {"v": nil}, {"v": "2"}, {}, {"v": int64(2)},
	})
	tax, err := Build(src, []string{"v"})
	require.NoError(t, err)
	require.Len(t, tax.Rows, 4)
	assert.Equal(t, 2, tax.Rows[0].Count)
	assert.Nil(t, tax.Rows[2].Values[0])
	assert.Equal(t, 2, tax.Rows[2].Count)
	assert.Equal(t, src.Len(), tax.TotalCount())
}

func TestBuildRejectsLevels(t *testing.T) {
	for name, levels := range map[string][]string{
		"none":      nil,
		"twice":     {"dept", "dept"},
		"count":     {CountColumn},
		"no column": {"lab"},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Build(teams(), levels)
			assert.ErrorIs(t, err, neomap.ErrConfiguration)
		})
	}
}

func TestExportCSV(t *testing.T) {
	tax, err := Build(teams(), []string{"dept", "team"})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Export(&buf, tax, ExportCSV))
	assert.Equal(t, "dept,team,Count\nBio,Seq,2\nBio,Img,1\n", buf.String())

	assert.Error(t, Export(&buf, tax, "yaml"))
}

func TestExportLoadRoundTrip(t *testing.T) {
	tax, err := Build(teams(), []string{"dept", "team"})
	require.NoError(t, err)
	dir := t.TempDir()

	for name, format := range map[string]ExportFormat{"tax.csv": ExportCSV, "tax.ndjson": ExportJSON} {
		var buf bytes.Buffer
		require.NoError(t, Export(&buf, tax, format))
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))

		back, err := Load(path)
		require.NoError(t, err, name)
		assert.Equal(t, tax, back, name)
	}
}

func TestFromTable(t *testing.T) {
	src := table.MustNew([]string{"dept", CountColumn}, []table.Row{
		{"dept": "Bio", CountColumn: 3.0},
		{"dept": "Chem"},
	})
	tax, err := FromTable(src)
	require.NoError(t, err)
	assert.Equal(t, 3, tax.Rows[0].Count)
	assert.Equal(t, 1, tax.Rows[1].Count)

	bad := table.MustNew([]string{"dept", CountColumn}, []table.Row{{"dept": "Bio", CountColumn: "many"}})
	_, err = FromTable(bad)
	assert.Error(t, err)

	_, err = FromTable(table.MustNew([]string{CountColumn}, nil))
	assert.ErrorIs(t, err, neomap.ErrConfiguration)
}

func TestFromTableRejectsInvalidCounts(t *testing.T) {
	for name, count := range map[string]any{
		"fraction":       2.7,
		"negative float": -1.0,
		"negative int":   int64(-2),
	} {
		t.Run(name, func(t *testing.T) {
			src := table.MustNew([]string{"dept", CountColumn}, []table.Row{{"dept": "Bio", CountColumn: count}})
			_, err := FromTable(src)
			assert.ErrorIs(t, err, neomap.ErrConfiguration)
		})
	}
}

func TestBuildSeparatesValuesContainingSeparators(t *testing.T) {
	src := table.MustNew([]string{"a", "b"}, []table.Row{
		{"a": "x\x00string:y", "b": "z"},
		{"a": "x", "b": "y\x00string:z"},
	})
	tax, err := Build(src, []string{"a", "b"})
	require.NoError(t, err)
	assert.Len(t, tax.Rows, 2)
}
