// Specula - Watchable Values and Home Dashboard Toolkit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/specula

// Package ptree provides a generic ordered tree whose nodes double as an
// ordered dictionary of their children.
package ptree

import (
	"fmt"
	"strings"
)

// HierSep separates path segments in hierarchic names. It cannot appear
// inside node names, and ".." is reserved for parent navigation.
const HierSep = "/"

// Node is a named tree node carrying a payload value. Children keep their
// insertion order and are addressable by name or by a filesystem-like path.
//
// Key properties:
//   - Child names are unique within a parent (Attach enforces this)
//   - Iteration order is insertion order
//   - Path lookup supports "/" anchoring and ".." parent steps
//
// A Node is not safe for concurrent mutation. Trees are normally assembled
// once at startup and only read afterwards; concurrent reads are fine.
type Node[T any] struct {
	name     string
	parent   *Node[T]
	order    []string
	children map[string]*Node[T]

	// Value is the payload carried by this node.
	Value T
}

// New creates a root node with the given name and payload.
func New[T any](name string, v T) *Node[T] {
	return &Node[T]{name: name, Value: v}
}

// Name returns the node's own name.
func (n *Node[T]) Name() string { return n.name }

// Parent returns the parent node, or nil for the root.
func (n *Node[T]) Parent() *Node[T] { return n.parent }

// IsRoot reports whether the node has no parent.
func (n *Node[T]) IsRoot() bool { return n.parent == nil }

// Root walks up to the top of the tree.
func (n *Node[T]) Root() *Node[T] {
	cur := n
	for cur.parent != nil {
		cur = cur.parent
	}
	return cur
}

// HierName returns the hierarchic name of the node: the empty string for the
// root, and parent.HierName() + "/" + name for everything below it, so all
// non-root names start with "/". The result is resolvable from any node in
// the same tree.
func (n *Node[T]) HierName() string {
	if n.parent == nil {
		return ""
	}
	return n.parent.HierName() + HierSep + n.name
}

// Attach creates a new child node carrying v and links it under n.
// The name must be non-empty, must not contain the separator and must not be
// "..". Attaching a second child with an existing name fails.
func (n *Node[T]) Attach(name string, v T) (*Node[T], error) {
	if name == "" {
		return nil, fmt.Errorf("ptree: empty node name under %q", n.pathLabel())
	}
	if name == ".." || strings.Contains(name, HierSep) {
		return nil, fmt.Errorf("ptree: invalid node name %q under %q", name, n.pathLabel())
	}
	if _, exists := n.children[name]; exists {
		return nil, fmt.Errorf("ptree: node %q already has a child named %q", n.pathLabel(), name)
	}
	child := &Node[T]{name: name, parent: n, Value: v}
	if n.children == nil {
		n.children = make(map[string]*Node[T])
	}
	n.children[name] = child
	n.order = append(n.order, name)
	return child, nil
}

// Detach unlinks the named child from n. The detached subtree keeps its own
// structure but loses its parent.
func (n *Node[T]) Detach(name string) error {
	child, ok := n.children[name]
	if !ok {
		return fmt.Errorf("ptree: no child %q under %q (children: %s)", name, n.pathLabel(), n.keyList())
	}
	child.parent = nil
	delete(n.children, name)
	for i, cn := range n.order {
		if cn == name {
			n.order = append(n.order[:i], n.order[i+1:]...)
			break
		}
	}
	return nil
}

// Child looks up a direct child by name.
func (n *Node[T]) Child(name string) (*Node[T], bool) {
	c, ok := n.children[name]
	return c, ok
}

// Resolve walks a filesystem-like path and returns the node it names.
//
// A path without a separator is a plain child lookup. Otherwise the path is
// split on "/": an empty segment jumps to the root of the tree (so a leading
// "/" anchors the walk there, and "/" alone names the root), ".." steps to
// the parent, and any other segment selects a child by name. Stepping above
// the root or naming an unknown child is an error; unknown-child errors list
// the sibling names present.
func (n *Node[T]) Resolve(path string) (*Node[T], error) {
	if !strings.Contains(path, HierSep) {
		c, ok := n.children[path]
		if !ok {
			return nil, fmt.Errorf("ptree: no child %q under %q (children: %s)", path, n.pathLabel(), n.keyList())
		}
		return c, nil
	}
	root := n.Root()
	cur := n
	for _, part := range strings.Split(path, HierSep) {
		switch part {
		case "":
			cur = root
		case "..":
			if cur.parent == nil {
				return nil, fmt.Errorf("ptree: cannot step above the root in %q", path)
			}
			cur = cur.parent
		default:
			c, ok := cur.children[part]
			if !ok {
				return nil, fmt.Errorf("ptree: no child %q under %q resolving %q (children: %s)",
					part, cur.pathLabel(), path, cur.keyList())
			}
			cur = c
		}
	}
	return cur, nil
}

// Len returns the number of direct children.
func (n *Node[T]) Len() int { return len(n.order) }

// Names returns the child names in insertion order. The slice is a copy.
func (n *Node[T]) Names() []string {
	out := make([]string, len(n.order))
	copy(out, n.order)
	return out
}

// Children returns the direct children in insertion order.
func (n *Node[T]) Children() []*Node[T] {
	out := make([]*Node[T], 0, len(n.order))
	for _, name := range n.order {
		out = append(out, n.children[name])
	}
	return out
}

// At returns the i-th child in insertion order. Negative indexes count from
// the end. Out-of-range indexes return nil.
func (n *Node[T]) At(i int) *Node[T] {
	if i < 0 {
		i += len(n.order)
	}
	if i < 0 || i >= len(n.order) {
		return nil
	}
	return n.children[n.order[i]]
}

// Slice returns children i up to (not including) j in insertion order, with
// slice-expression-like clamping: negative indexes count from the end,
// out-of-range bounds clamp, and an inverted range yields an empty slice.
func (n *Node[T]) Slice(i, j int) []*Node[T] {
	kl := len(n.order)
	if i < 0 {
		i += kl
	}
	if j < 0 {
		j += kl
	}
	if i < 0 {
		i = 0
	} else if i > kl {
		i = kl
	}
	if j < 0 {
		j = 0
	} else if j > kl {
		j = kl
	}
	if j <= i {
		return nil
	}
	out := make([]*Node[T], 0, j-i)
	for _, name := range n.order[i:j] {
		out = append(out, n.children[name])
	}
	return out
}

// Walk visits n and then each descendant depth-first in insertion order.
func (n *Node[T]) Walk(fn func(*Node[T])) {
	fn(n)
	for _, name := range n.order {
		n.children[name].Walk(fn)
	}
}

// String renders the node name and, when present, its child names.
func (n *Node[T]) String() string {
	if len(n.order) == 0 {
		return fmt.Sprintf("node %q", n.name)
	}
	return fmt.Sprintf("node %q, children [%s]", n.name, n.keyList())
}

// pathLabel is the hierarchic name, or the plain name for a root, so error
// messages stay readable for single-level trees.
func (n *Node[T]) pathLabel() string {
	if n.parent == nil {
		return n.name
	}
	return n.HierName()
}

func (n *Node[T]) keyList() string {
	return strings.Join(n.order, ", ")
}
