// Specula - Watchable Values and Home Dashboard Toolkit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/specula

// Package vars provides tree-shaped observable values: every var is a node
// of a ptree tree, addressable by path, with validation and agent-keyed
// change notification.
//
// A tree is built once at startup from a Root and nested Groups of typed
// leaf vars. Saved values passed to the Root cascade down to the matching
// leaves during construction. Dashboards read whole subtrees as plain maps
// (Get on a Group) or as label-filtered string maps (Filtered).
//
// This is the first generation of the observable-value mechanism. Package
// watch is the flat, current generation; vars remains for dashboards built
// around path addressing and cascaded dumps.
package vars

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tomtom215/specula/internal/ptree"
)

// Notify is called after a var's value changed. It receives the value
// before and after the change, the agent that made it, and the var itself.
type Notify func(oldValue, newValue any, agent string, v Var)

// Hook declares a notification in a var's options: the func to call and the
// agents whose changes trigger it. The single entry "*" selects every agent
// of the tree.
type Hook struct {
	Func   Notify
	Agents []string
}

// Opts carries the declaration shared by every leaf var kind.
type Opts struct {
	// Name of the var within its parent. Required.
	Name string
	// Value is the initial value. If it fails validation, Fallback is
	// tried; if that fails too the constructor errors.
	Value    any
	Fallback any
	// Format is the fmt verb string used by String. Empty means "%v".
	Format string
	// Disabled marks the var's controls inert for presentation.
	Disabled bool
	// Filters are the labels under which Filtered dumps include this var.
	Filters []string
	// OnChange notifications to register once the var is built.
	OnChange []Hook
}

// Var is the interface shared by every node of a value tree, leaf or group.
type Var interface {
	// Name returns the var's name within its parent.
	Name() string
	// HierName returns the var's path from the root: "" for the root
	// itself, "/a/b" below it.
	HierName() string
	// Root returns the tree's root.
	Root() *Root
	// Find resolves a path relative to this var, with "/" anchoring at the
	// root and ".." stepping to the parent.
	Find(path string) (Var, error)
	// Get returns the current value: the typed value for leaves, a map of
	// child values for groups.
	Get() any
	// Set validates and stores a new value, notifying the acting agent's
	// observers when it changed. Groups take a map holding values for a
	// subset of their children.
	Set(value any, agent string) (bool, error)
	// SetString is Set from the value's string form. Groups reject it.
	SetString(value string, agent string) (bool, error)
	// AddNotify registers cb for changes made by the given agents ("*"
	// selects all) and returns an idempotent removal func. Groups do not
	// notify and reject it.
	AddNotify(cb Notify, agents ...string) (func(), error)
	// Filters returns the labels this var is dumped under.
	Filters() []string
	// Enabled reports whether the var's controls are live.
	Enabled() bool
	// SetEnabled flips the control state. A no-op on groups.
	SetEnabled(bool)
	// String renders the value through the var's format string.
	String() string

	treeNode() *ptree.Node[Var]
}

// RootOpts configures a value tree.
type RootOpts struct {
	// Name of the root node. Defaults to "root"; the root's HierName is ""
	// either way.
	Name string
	// Agents lists the change sources this tree accepts. Required.
	Agents []string
	// Logger receives construction and change logging for the whole tree.
	Logger zerolog.Logger
	// Values holds saved values keyed by child name, cascading down to
	// nested groups, applied during construction.
	Values map[string]any
	// Defs build the top-level children.
	Defs []ChildDef
}

// Root is the top of a value tree. It is a Group with the tree-wide agent
// list and logger attached.
type Root struct {
	Group
	agents []string
	logger zerolog.Logger
}

// NewRoot builds a value tree: the root node first, then its children from
// opts.Defs, with opts.Values overriding the declared initial values. A
// child that fails to build fails the whole tree.
func NewRoot(opts RootOpts) (*Root, error) {
	if len(opts.Agents) == 0 {
		return nil, fmt.Errorf("vars: agent list cannot be empty")
	}
	name := opts.Name
	if name == "" {
		name = "root"
	}
	r := &Root{agents: append([]string(nil), opts.Agents...), logger: opts.Logger}
	r.Group.root = r
	r.Group.nd = ptree.New[Var](name, Var(r))
	r.Group.prevals = opts.Values
	err := r.Group.build(opts.Defs)
	r.Group.prevals = nil
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Agents returns a copy of the accepted agent list. The first entry is the
// one construction uses when applying initial values.
func (r *Root) Agents() []string {
	return append([]string(nil), r.agents...)
}

// Known reports whether the agent is accepted by this tree.
func (r *Root) Known(agent string) bool {
	for _, a := range r.agents {
		if a == agent {
			return true
		}
	}
	return false
}
