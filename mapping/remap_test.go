package mapping

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saulfrancisco-ruizacevedo/go-neomap"
)

func TestParsePropertyMap(t *testing.T) {
	m, err := ParsePropertyMap([]string{"sample name=name", " batch = lot "})
	require.NoError(t, err)
	assert.Equal(t, PropertyMap{"sample name": "name", "batch": "lot"}, m)
	assert.Equal(t, "batch=lot,sample name=name", m.String())

	_, err = ParsePropertyMap([]string{"batch"})
	assert.ErrorIs(t, err, neomap.ErrConfiguration)

	_, err = ParsePropertyMap([]string{"batch="})
	assert.ErrorIs(t, err, neomap.ErrConfiguration)

	_, err = ParsePropertyMap([]string{"batch=lot", "batch=run"})
	assert.ErrorIs(t, err, neomap.ErrConfiguration)

	_, err = ParsePropertyMap([]string{"batch=lot", "batch=lot"})
	assert.NoError(t, err)
}

func TestPropertyMapTargets(t *testing.T) {
	m := PropertyMap{"a": "x", "b": ""}
	assert.Equal(t, "x", m.Target("a"))
	assert.Equal(t, "b", m.Target("b"))
	assert.Equal(t, "c", m.Target("c"))
	assert.Equal(t, []string{"x", "b", "c"}, m.Targets([]string{"a", "b", "c"}))

	var nilMap PropertyMap
	assert.Equal(t, "a", nilMap.Target("a"))
	assert.NotNil(t, nilMap.Clone())

	c := m.Clone()
	c["a"] = "y"
	assert.Equal(t, "x", m["a"])
}

func TestPropertyMapCheckTargets(t *testing.T) {
	assert.NoError(t, PropertyMap{"a": "x"}.CheckTargets([]string{"a", "b"}))

	err := PropertyMap{"a": "b"}.CheckTargets([]string{"a", "b"})
	assert.ErrorIs(t, err, neomap.ErrConfiguration)

	err = PropertyMap{"a": " x"}.CheckTargets([]string{"a"})
	assert.ErrorIs(t, err, neomap.ErrInvalidIdentifier)
}
