// Package mapping turns a user's column selection into a role assignment and
// derives, per row, the label, match properties and properties of a node.
package mapping

import (
	"fmt"
	"slices"
	"strings"

	"github.com/saulfrancisco-ruizacevedo/go-neomap"
	"github.com/saulfrancisco-ruizacevedo/go-neomap/table"
)

// Role is the part a column plays in materialization.
type Role int

const (
	// RoleLabel: the column's value in each row is the node label.
	RoleLabel Role = iota + 1
	// RoleProperty: the column becomes a node property.
	RoleProperty
	// RoleMatchKey: the column is part of the node's identity.
	RoleMatchKey
	// RoleTaxonomyLevel: the column is one ordered level of a taxonomy.
	RoleTaxonomyLevel
	// RoleContext: the column is shown but never written.
	RoleContext
)

func (r Role) String() string {
	switch r {
	case RoleLabel:
		return "label"
	case RoleProperty:
		return "property"
	case RoleMatchKey:
		return "match-key"
	case RoleTaxonomyLevel:
		return "taxonomy-level"
	case RoleContext:
		return "context"
	default:
		return fmt.Sprintf("Role(%d)", int(r))
	}
}

// Selection is the user's explicit role choice per column. Column order
// inside each list is kept; for TaxonomyLevels it is the hierarchy order,
// root first.
type Selection struct {
	Label          string
	Properties     []string
	MatchKeys      []string
	TaxonomyLevels []string
	Context        []string

	// PropertyNames renames Property columns on the node.
	PropertyNames PropertyMap
	// MatchNames renames MatchKey columns on the node.
	MatchNames PropertyMap
}

// Assignment is a validated Selection bound to a column set.
type Assignment struct {
	columns []string
	roles   map[string][]Role

	label      string
	properties []string
	matchKeys  []string
	levels     []string
	context    []string

	propertyNames PropertyMap
	matchNames    PropertyMap
}

// Classify validates sel against columns. Every selected column must exist,
// the label column carries no other role, context columns carry no other
// role, and no column is listed twice under one role. Remap collisions
// between the node's target property names are reported here.
func Classify(columns []string, sel Selection) (*Assignment, error) {
	a := &Assignment{
		columns:       slices.Clone(columns),
		roles:         make(map[string][]Role),
		label:         sel.Label,
		properties:    slices.Clone(sel.Properties),
		matchKeys:     slices.Clone(sel.MatchKeys),
		levels:        slices.Clone(sel.TaxonomyLevels),
		context:       slices.Clone(sel.Context),
		propertyNames: sel.PropertyNames.Clone(),
		matchNames:    sel.MatchNames.Clone(),
	}

	var problems []string
	add := func(role Role, cols ...string) {
		for _, c := range cols {
			if !slices.Contains(columns, c) {
				problems = append(problems, fmt.Sprintf("%s column %q does not exist", role, c))
				continue
			}
			if slices.Contains(a.roles[c], role) {
				problems = append(problems, fmt.Sprintf("column %q is selected twice as %s", c, role))
				continue
			}
			a.roles[c] = append(a.roles[c], role)
		}
	}
	if sel.Label != "" {
		add(RoleLabel, sel.Label)
	}
	add(RoleProperty, sel.Properties...)
	add(RoleMatchKey, sel.MatchKeys...)
	add(RoleTaxonomyLevel, sel.TaxonomyLevels...)
	add(RoleContext, sel.Context...)

	for _, c := range columns {
		roles := a.roles[c]
		if len(roles) < 2 {
			continue
		}
		if slices.Contains(roles, RoleLabel) {
			problems = append(problems, fmt.Sprintf("label column %q cannot also be %s", c, otherRoles(roles, RoleLabel)))
		} else if slices.Contains(roles, RoleContext) {
			problems = append(problems, fmt.Sprintf("context column %q cannot also be %s", c, otherRoles(roles, RoleContext)))
		}
	}

	for src := range a.propertyNames {
		if !slices.Contains(a.properties, src) {
			problems = append(problems, fmt.Sprintf("property rename source %q is not a property column", src))
		}
	}
	for src := range a.matchNames {
		if !slices.Contains(a.matchKeys, src) {
			problems = append(problems, fmt.Sprintf("match rename source %q is not a match-key column", src))
		}
	}

	if len(problems) > 0 {
		return nil, neomap.NewError(neomap.ErrCodeConfiguration, strings.Join(problems, "; "))
	}
	if err := a.checkTargets(); err != nil {
		return nil, err
	}
	return a, nil
}

func otherRoles(roles []Role, except Role) string {
	var names []string
	for _, r := range roles {
		if r != except {
			names = append(names, r.String())
		}
	}
	return strings.Join(names, ", ")
}

// checkTargets verifies that the node's target property names are valid and
// unique. A column that is both Property and MatchKey under the same target
// name contributes that name once.
func (a *Assignment) checkTargets() error {
	owners := make(map[string]string)
	claim := func(src, dst string) error {
		if err := neomap.ValidatePropertyKey(dst); err != nil {
			return err
		}
		if prev, ok := owners[dst]; ok && prev != src {
			return neomap.Errorf(neomap.ErrCodeConfiguration,
				"columns %q and %q both map to property %q", prev, src, dst)
		}
		owners[dst] = src
		return nil
	}
	for _, c := range a.matchKeys {
		if err := claim(c, a.matchNames.Target(c)); err != nil {
			return err
		}
	}
	for _, c := range a.properties {
		if err := claim(c, a.propertyNames.Target(c)); err != nil {
			return err
		}
	}
	return nil
}

// LabelColumn returns the label column, or "" when none is selected.
func (a *Assignment) LabelColumn() string { return a.label }

// Properties returns the property columns in selection order.
func (a *Assignment) Properties() []string { return slices.Clone(a.properties) }

// MatchKeys returns the match-key columns in selection order.
func (a *Assignment) MatchKeys() []string { return slices.Clone(a.matchKeys) }

// TaxonomyLevels returns the taxonomy level columns, root first.
func (a *Assignment) TaxonomyLevels() []string { return slices.Clone(a.levels) }

// Context returns the context-only columns.
func (a *Assignment) Context() []string { return slices.Clone(a.context) }

// Roles returns the roles of column in assignment order.
func (a *Assignment) Roles(column string) []Role { return slices.Clone(a.roles[column]) }

// HasRole reports whether column carries role.
func (a *Assignment) HasRole(column string, role Role) bool {
	return slices.Contains(a.roles[column], role)
}

// PropertyNames returns the rename map of property columns.
func (a *Assignment) PropertyNames() PropertyMap { return a.propertyNames.Clone() }

// MatchNames returns the rename map of match-key columns.
func (a *Assignment) MatchNames() PropertyMap { return a.matchNames.Clone() }

// RequireLabel fails when no label column is selected.
func (a *Assignment) RequireLabel() error {
	if a.label == "" {
		return neomap.NewError(neomap.ErrCodeConfiguration, "no label column selected")
	}
	return nil
}

// RequireMatchKeys fails when no match-key column is selected.
func (a *Assignment) RequireMatchKeys() error {
	if len(a.matchKeys) == 0 {
		return neomap.NewError(neomap.ErrCodeConfiguration, "no match-key column selected")
	}
	return nil
}

// RequireLevels fails when fewer than one taxonomy level is selected.
func (a *Assignment) RequireLevels() error {
	if len(a.levels) == 0 {
		return neomap.NewError(neomap.ErrCodeConfiguration, "no taxonomy level selected")
	}
	return nil
}

// NodeFor derives the node of row: its label from the label column, its
// match properties from the match-key columns and its other properties from
// the property columns, all under their target names. Null property cells
// are omitted; a null or empty label or match value is an error.
func (a *Assignment) NodeFor(row table.Row) (label string, match, props map[string]any, err error) {
	if err := a.RequireLabel(); err != nil {
		return "", nil, nil, err
	}
	label = strings.TrimSpace(table.FormatValue(row[a.label]))
	if label == "" {
		return "", nil, nil, neomap.Errorf(neomap.ErrCodeAmbiguousIdentity, "label column %q is empty", a.label)
	}

	match = make(map[string]any, len(a.matchKeys))
	for _, c := range a.matchKeys {
		v := row[c]
		if v == nil {
			return "", nil, nil, neomap.Errorf(neomap.ErrCodeAmbiguousIdentity, "match-key column %q is empty", c)
		}
		match[a.matchNames.Target(c)] = v
	}

	props = make(map[string]any, len(a.properties))
	for _, c := range a.properties {
		if v := row[c]; v != nil {
			props[a.propertyNames.Target(c)] = v
		}
	}
	return label, match, props, nil
}
