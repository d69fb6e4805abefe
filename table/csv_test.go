package table

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCSV(t *testing.T) {
	src := "\ufeffname,batch,score\ns1,1,0.5\ns2,,\ns3\n"
	tbl, err := ReadCSV(strings.NewReader(src))
	require.NoError(t, err)

	assert.Equal(t, []string{"name", "batch", "score"}, tbl.Columns())
	require.Equal(t, 3, tbl.Len())
	assert.Equal(t, "s1", tbl.Value(0, "name"))
	assert.Equal(t, int64(1), tbl.Value(0, "batch"))
	assert.Equal(t, 0.5, tbl.Value(0, "score"))
	assert.Nil(t, tbl.Value(1, "batch"))
	assert.Nil(t, tbl.Value(2, "score"))
}

func TestReadCSVErrors(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""))
	assert.ErrorContains(t, err, "no header row")

	_, err = ReadCSV(strings.NewReader("a,b\n1,2,3\n"))
	assert.ErrorContains(t, err, "line 2 has 3 fields")

	_, err = ReadCSV(strings.NewReader("a,a\n1,2\n"))
	assert.ErrorContains(t, err, "duplicate column")
}

func TestWriteCSV(t *testing.T) {
	tbl := MustNew([]string{"dept", "team", "Count"}, []Row{
		{"dept": "Bio", "team": "Seq", "Count": int64(2)},
		{"dept": "Bio, Inc", "Count": int64(1)},
	})
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, tbl))
	assert.Equal(t, "dept,team,Count\nBio,Seq,2\n\"Bio, Inc\",,1\n", buf.String())

	back, err := ReadCSV(&buf)
	require.NoError(t, err)
	assert.Equal(t, "Bio, Inc", back.Value(1, "dept"))
	assert.Nil(t, back.Value(1, "team"))
}
