package neomap

import (
	"fmt"
	"sort"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// identityCache remembers the element id resolved for a (label, match) pair.
// It is only consulted for key-only upserts, which cannot change node state.
type identityCache struct {
	entries sync.Map // uint64 -> NodeRef
}

func (c *identityCache) key(label string, match map[string]any) uint64 {
	keys := make([]string, 0, len(match))
	for k := range match {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	d := xxhash.New()
	writeField(d, label)
	for _, k := range keys {
		writeField(d, k)
		// The dynamic type is part of the identity: 1 and 1.0 are different nodes.
		writeField(d, fmt.Sprintf("%T:%v", match[k], match[k]))
	}
	return d.Sum64()
}

// writeField writes s length-prefixed so adjacent fields cannot run together.
func writeField(d *xxhash.Digest, s string) {
	_, _ = fmt.Fprintf(d, "%d:", len(s))
	_, _ = d.WriteString(s)
}

func (c *identityCache) load(label string, match map[string]any) (NodeRef, bool) {
	v, ok := c.entries.Load(c.key(label, match))
	if !ok {
		return NodeRef{}, false
	}
	return v.(NodeRef), true
}

func (c *identityCache) store(ref NodeRef) {
	c.entries.Store(c.key(ref.Label, ref.Match), ref)
}

func (c *identityCache) forget(label string, match map[string]any) {
	c.entries.Delete(c.key(label, match))
}

func (c *identityCache) clear() {
	c.entries.Range(func(k, _ any) bool {
		c.entries.Delete(k)
		return true
	})
}
