package neomap

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tagged struct {
	Path  string  `crud:"pk,property:filepath"`
	Name  string  `crud:"property:name"`
	Size  int64   `crud:"property:size"`
	Score float64 `crud:"property:score"`
	Other string
}

type labeled struct {
	ID string `crud:"pk,property:id"`
}

func (labeled) NodeLabel() string { return "Folder" }

type missingProp struct {
	ID string `crud:"pk"`
}

type dupProp struct {
	ID   string `crud:"pk,property:id"`
	Copy string `crud:"property:id"`
}

func TestParseTags(t *testing.T) {
	meta, err := parseTags[tagged]()
	require.NoError(t, err)
	assert.Equal(t, "tagged", meta.Label)
	assert.Equal(t, "Path", meta.PKField)
	assert.Equal(t, "filepath", meta.PKProp)
	assert.Equal(t, []string{"Path", "Name", "Size", "Score"}, meta.Fields)

	meta, err = parseTags[labeled]()
	require.NoError(t, err)
	assert.Equal(t, "Folder", meta.Label)
}

func TestParseTagsErrors(t *testing.T) {
	_, err := parseTags[missingProp]()
	assert.ErrorIs(t, err, ErrConfiguration)

	_, err = parseTags[dupProp]()
	assert.ErrorIs(t, err, ErrConfiguration)

	_, err = parseTagsFromType(reflect.TypeOf(42))
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestEntityValues(t *testing.T) {
	meta, err := parseTags[tagged]()
	require.NoError(t, err)

	match, props, err := meta.entityValues(&tagged{Path: "/a", Name: "a", Size: 3, Score: 0.5})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"filepath": "/a"}, match)
	assert.Equal(t, map[string]any{"name": "a", "size": int64(3), "score": 0.5}, props)

	_, _, err = meta.entityValues(tagged{})
	assert.Error(t, err)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindUnknown, KindOf(nil))
	assert.Equal(t, KindString, KindOf("x"))
	assert.Equal(t, KindInteger, KindOf(int64(1)))
	assert.Equal(t, KindInteger, KindOf(7))
	assert.Equal(t, KindFloat, KindOf(1.5))
	assert.Equal(t, KindBool, KindOf(true))
	assert.Equal(t, KindList, KindOf([]any{"a"}))
	assert.Equal(t, "mixed", KindMixed.String())
}

func TestMergeKind(t *testing.T) {
	assert.Equal(t, KindString, mergeKind(KindUnknown, KindString))
	assert.Equal(t, KindString, mergeKind(KindString, KindUnknown))
	assert.Equal(t, KindString, mergeKind(KindString, KindString))
	assert.Equal(t, KindMixed, mergeKind(KindString, KindInteger))
	assert.Equal(t, KindMixed, mergeKind(KindMixed, KindInteger))
}

func TestRegistryObserve(t *testing.T) {
	r := NewSchemaRegistry()
	assert.Empty(t, r.Observe("Sample", map[string]any{"name": "s1", "batch": int64(1), "note": nil}))
	assert.Equal(t, []string{"batch"}, r.Observe("Sample", map[string]any{"name": "s2", "batch": "B2"}))
	assert.Empty(t, r.Observe("Sample", map[string]any{"batch": 3.0}))

	s, ok := r.Lookup("Sample")
	require.True(t, ok)
	assert.Equal(t, KindString, s.Properties["name"])
	assert.Equal(t, KindMixed, s.Properties["batch"])
	assert.Equal(t, KindUnknown, s.Properties["note"])

	s.Properties["name"] = KindBool
	again, _ := r.Lookup("Sample")
	assert.Equal(t, KindString, again.Properties["name"])
}

func TestRegistryRegisterMerges(t *testing.T) {
	r := NewSchemaRegistry()
	r.Observe("Folder", map[string]any{"id": 1})
	r.Register(LabelSchema{Label: "Folder", Keys: []string{"id"}, Properties: map[string]PropertyKind{"id": KindString}})

	s, ok := r.Lookup("Folder")
	require.True(t, ok)
	assert.Equal(t, []string{"id"}, s.Keys)
	assert.Equal(t, KindMixed, s.Properties["id"])
	assert.Equal(t, []string{"Folder"}, r.Labels())
}

func TestMetadataForRegistersOnce(t *testing.T) {
	r := NewSchemaRegistry()
	first, err := r.metadataFor(reflect.TypeOf(&labeled{}))
	require.NoError(t, err)
	second, err := r.metadataFor(reflect.TypeOf(labeled{}))
	require.NoError(t, err)
	assert.Same(t, first, second)

	s, ok := r.Lookup("Folder")
	require.True(t, ok)
	assert.Equal(t, KindString, s.Properties["id"])
}

func TestIdentityCacheKey(t *testing.T) {
	var c identityCache
	a := c.key("Sample", map[string]any{"name": "s1", "batch": int64(1)})
	b := c.key("Sample", map[string]any{"batch": int64(1), "name": "s1"})
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c.key("Sample", map[string]any{"name": "s1", "batch": 1.0}))
	assert.NotEqual(t, a, c.key("Study", map[string]any{"name": "s1", "batch": int64(1)}))

	ref := NodeRef{ElementID: "4:x:1", Label: "Sample", Match: map[string]any{"name": "s1"}}
	c.store(ref)
	got, ok := c.load("Sample", map[string]any{"name": "s1"})
	require.True(t, ok)
	assert.Equal(t, "4:x:1", got.ElementID)
	c.clear()
	_, ok = c.load("Sample", map[string]any{"name": "s1"})
	assert.False(t, ok)
}

func TestIdentityCacheKeySeparatesFields(t *testing.T) {
	var c identityCache
	joined := map[string]any{"a": "x\x00b\x01string:y"}
	split := map[string]any{"a": "x", "b": "y"}
	assert.NotEqual(t, c.key("Team", joined), c.key("Team", split))
	assert.NotEqual(t, c.key("Team", map[string]any{"eam": 1}), c.key("T", map[string]any{"eam": 1}))

	ref := NodeRef{ElementID: "4:x:2", Label: "Team", Match: split}
	c.store(ref)
	c.forget("Team", map[string]any{"b": "y", "a": "x"})
	_, ok := c.load("Team", split)
	assert.False(t, ok)
}
