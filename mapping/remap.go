package mapping

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/saulfrancisco-ruizacevedo/go-neomap"
)

// PropertyMap renames source columns to target property names. Columns
// without an entry keep their own name.
type PropertyMap map[string]string

// ParsePropertyMap parses "source=target" pairs. An empty target is an error.
func ParsePropertyMap(pairs []string) (PropertyMap, error) {
	m := make(PropertyMap, len(pairs))
	for _, p := range pairs {
		src, dst, ok := strings.Cut(p, "=")
		src, dst = strings.TrimSpace(src), strings.TrimSpace(dst)
		if !ok || src == "" || dst == "" {
			return nil, neomap.Errorf(neomap.ErrCodeConfiguration, "rename %q must have the form source=target", p)
		}
		if prev, dup := m[src]; dup && prev != dst {
			return nil, neomap.Errorf(neomap.ErrCodeConfiguration, "column %q is renamed twice (%q, %q)", src, prev, dst)
		}
		m[src] = dst
	}
	return m, nil
}

// Target returns the property name for source.
func (m PropertyMap) Target(source string) string {
	if dst, ok := m[source]; ok && dst != "" {
		return dst
	}
	return source
}

// Targets maps each of sources through m, keeping order.
func (m PropertyMap) Targets(sources []string) []string {
	out := make([]string, len(sources))
	for i, s := range sources {
		out[i] = m.Target(s)
	}
	return out
}

// Clone returns an independent copy.
func (m PropertyMap) Clone() PropertyMap {
	if m == nil {
		return PropertyMap{}
	}
	return maps.Clone(m)
}

// CheckTargets verifies that mapping sources through m yields valid and
// distinct property names.
func (m PropertyMap) CheckTargets(sources []string) error {
	owners := make(map[string]string, len(sources))
	for _, src := range sources {
		dst := m.Target(src)
		if err := neomap.ValidatePropertyKey(dst); err != nil {
			return err
		}
		if prev, ok := owners[dst]; ok && prev != src {
			return neomap.Errorf(neomap.ErrCodeConfiguration, "columns %q and %q both map to property %q", prev, src, dst)
		}
		owners[dst] = src
	}
	return nil
}

// String renders the map as sorted source=target pairs.
func (m PropertyMap) String() string {
	keys := slices.Sorted(maps.Keys(m))
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%s", k, m[k])
	}
	return strings.Join(parts, ",")
}
