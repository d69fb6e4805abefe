package table

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsBadColumns(t *testing.T) {
	_, err := New([]string{"a", ""}, nil)
	assert.Error(t, err)

	_, err = New([]string{"a", "a"}, nil)
	assert.Error(t, err)

	_, err = New([]string{"a"}, []Row{{"b": 1}})
	assert.Error(t, err)
}

func TestTableEdits(t *testing.T) {
	tbl := MustNew([]string{"dept", "team"}, []Row{
		{"dept": "Bio", "team": "Seq"},
		{"dept": "Bio", "team": "Img"},
		{"dept": "Chem"},
	})
	assert.Equal(t, 3, tbl.Len())
	assert.Nil(t, tbl.Value(2, "team"))

	require.NoError(t, tbl.Set(2, "team", "Syn"))
	assert.Equal(t, "Syn", tbl.Value(2, "team"))
	assert.Error(t, tbl.Set(3, "team", "x"))
	assert.Error(t, tbl.Set(0, "lab", "x"))

	assert.Error(t, tbl.Append(Row{"lab": "x"}))
	require.NoError(t, tbl.Append(Row{"dept": "Phys"}))
	assert.Equal(t, 4, tbl.Len())
}

func TestCloneIsIndependent(t *testing.T) {
	tbl := MustNew([]string{"a"}, []Row{{"a": int64(1)}})
	c := tbl.Clone()
	require.NoError(t, c.Set(0, "a", int64(2)))
	assert.Equal(t, int64(1), tbl.Value(0, "a"))
}

func TestFilterSelectDistinct(t *testing.T) {
	tbl := MustNew([]string{"dept", "team", "n"}, []Row{
		{"dept": "Bio", "team": "Seq", "n": int64(1)},
		{"dept": "Bio", "team": "Img", "n": 1.0},
		{"dept": "Chem", "team": "Syn", "n": int64(1)},
	})

	bio := tbl.Filter(func(r Row) bool { return r["dept"] == "Bio" })
	assert.Equal(t, 2, bio.Len())

	sel, err := tbl.Select("team", "dept")
	require.NoError(t, err)
	assert.Equal(t, []string{"team", "dept"}, sel.Columns())
	assert.NotContains(t, sel.Row(0), "n")

	_, err = tbl.Select("lab")
	assert.Error(t, err)

	assert.Equal(t, []any{"Bio", "Chem"}, tbl.Distinct("dept"))
	assert.Equal(t, []any{int64(1), 1.0}, tbl.Distinct("n"))
}

func TestInferValue(t *testing.T) {
	tests := []struct {
		in   string
		want any
	}{
		{"", nil},
		{"  ", nil},
		{"NaN", nil},
		{"42", int64(42)},
		{"-7", int64(-7)},
		{"3.5", 3.5},
		{"1e3", 1000.0},
		{"true", true},
		{"FALSE", false},
		{"Inf", "Inf"},
		{"Bio", "Bio"},
		{"007a", "007a"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, InferValue(tt.in), "input %q", tt.in)
	}
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "", FormatValue(nil))
	assert.Equal(t, "12", FormatValue(int64(12)))
	assert.Equal(t, "0.25", FormatValue(0.25))
	assert.Equal(t, "true", FormatValue(true))
	assert.Equal(t, "x", FormatValue("x"))
}
