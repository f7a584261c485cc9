// Specula - Watchable Values and Home Dashboard Toolkit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/specula

package vars

import (
	"fmt"
	"slices"

	"github.com/tomtom215/specula/internal/ptree"
)

// ChildDef builds one child of a group. The parent is already part of the
// tree when the def runs, so defs nest freely.
type ChildDef func(parent Var) (Var, error)

// Group is a non-leaf var: a named, ordered set of child vars. Its value is
// the map of its children's values.
type Group struct {
	nd      *ptree.Node[Var]
	root    *Root
	prevals map[string]any
}

// NewGroup creates a group under parent and builds its children from defs.
// values holds saved child values, keyed by child name; a saved value the
// parent holds for the group itself takes precedence over values. A child
// that fails to build fails the group.
func NewGroup(parent Var, name string, values map[string]any, defs []ChildDef) (*Group, error) {
	if parent == nil {
		return nil, fmt.Errorf("vars: a group needs a parent")
	}
	if pv, ok := prevalFor(parent, name); ok {
		m, ok := pv.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("vars: saved settings for group %q are not an object", name)
		}
		values = m
	}
	g := &Group{root: parent.Root()}
	nd, err := parent.treeNode().Attach(name, Var(g))
	if err != nil {
		return nil, err
	}
	g.nd = nd
	g.prevals = values
	err = g.build(defs)
	g.prevals = nil
	if err != nil {
		return nil, err
	}
	return g, nil
}

func (g *Group) build(defs []ChildDef) error {
	for _, def := range defs {
		if def == nil {
			return fmt.Errorf("vars: nil child definition in %s", g.label())
		}
		if _, err := def(g); err != nil {
			return fmt.Errorf("vars: building child of %s: %w", g.label(), err)
		}
	}
	return nil
}

// preval hands a saved value to a child constructor. Only set while the
// group is being built.
func (g *Group) preval(name string) (any, bool) {
	if g.prevals == nil {
		return nil, false
	}
	v, ok := g.prevals[name]
	return v, ok
}

func (g *Group) label() string {
	if hn := g.nd.HierName(); hn != "" {
		return hn
	}
	return g.nd.Name()
}

func (g *Group) treeNode() *ptree.Node[Var] { return g.nd }

// Name returns the group's name within its parent.
func (g *Group) Name() string { return g.nd.Name() }

// HierName returns the group's path from the root.
func (g *Group) HierName() string { return g.nd.HierName() }

// Root returns the tree's root.
func (g *Group) Root() *Root { return g.root }

// Find resolves a path relative to this group.
func (g *Group) Find(path string) (Var, error) {
	nd, err := g.nd.Resolve(path)
	if err != nil {
		return nil, err
	}
	return nd.Value, nil
}

// Names returns the child names in declaration order.
func (g *Group) Names() []string { return g.nd.Names() }

// Children returns the child vars in declaration order.
func (g *Group) Children() []Var {
	nodes := g.nd.Children()
	out := make([]Var, len(nodes))
	for i, nd := range nodes {
		out[i] = nd.Value
	}
	return out
}

// Child looks up a direct child by name.
func (g *Group) Child(name string) (Var, bool) {
	nd, ok := g.nd.Child(name)
	if !ok {
		return nil, false
	}
	return nd.Value, true
}

// Get returns a map with the values of all children, groups nesting as
// maps. Iterate Names for declaration order.
func (g *Group) Get() any {
	out := make(map[string]any, g.nd.Len())
	for _, nd := range g.nd.Children() {
		out[nd.Name()] = nd.Value.Get()
	}
	return out
}

// Set updates children from a map holding values for a subset of them. All
// keys must name children; the first child set that fails stops the rest.
func (g *Group) Set(value any, agent string) (bool, error) {
	if !g.root.Known(agent) {
		return false, fmt.Errorf("vars: agent %q not known in setting %s", agent, g.label())
	}
	m, ok := value.(map[string]any)
	if !ok {
		return false, fmt.Errorf("vars: %s takes a map of child values, not %T", g.label(), value)
	}
	for k := range m {
		if _, ok := g.nd.Child(k); !ok {
			return false, fmt.Errorf("vars: %s has no child %q", g.label(), k)
		}
	}
	changed := false
	for _, nd := range g.nd.Children() {
		v, ok := m[nd.Name()]
		if !ok {
			continue
		}
		did, err := nd.Value.Set(v, agent)
		if err != nil {
			return changed, fmt.Errorf("vars: setting %s: %w", nd.Value.HierName(), err)
		}
		changed = changed || did
	}
	return changed, nil
}

// SetString is rejected: groups are set from maps, not strings.
func (g *Group) SetString(value string, agent string) (bool, error) {
	return false, fmt.Errorf("vars: %s is a group and cannot be set from a string", g.label())
}

// AddNotify is rejected: only leaf vars notify. Observe the leaves.
func (g *Group) AddNotify(cb Notify, agents ...string) (func(), error) {
	return nil, fmt.Errorf("vars: %s is a group and does not notify", g.label())
}

// Filters returns nil; filter labels live on leaves.
func (g *Group) Filters() []string { return nil }

// Enabled is always true for groups.
func (g *Group) Enabled() bool { return true }

// SetEnabled is a no-op on groups.
func (g *Group) SetEnabled(bool) {}

// String renders the group's name and child names.
func (g *Group) String() string { return g.nd.String() }

// Filtered returns the values of every descendant leaf carrying the given
// filter label, as strings, nested the same way the tree is. Subtrees with
// no matching leaves are dropped; a group with no matches at all returns
// nil.
func (g *Group) Filtered(label string) map[string]any {
	out := make(map[string]any)
	for _, nd := range g.nd.Children() {
		switch c := nd.Value.(type) {
		case *Group:
			if sub := c.Filtered(label); sub != nil {
				out[nd.Name()] = sub
			}
		default:
			if slices.Contains(c.Filters(), label) {
				out[nd.Name()] = fmt.Sprint(c.Get())
			}
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
