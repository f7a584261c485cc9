// Specula - Watchable Values and Home Dashboard Toolkit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/specula

package vars

import (
	"fmt"
	"sync"

	"github.com/tomtom215/specula/internal/ptree"
)

// hookEntry gives each registration an identity so the same func can be
// registered and removed independently.
type hookEntry struct {
	fn Notify
}

// base carries the storage, options and notification plumbing shared by the
// leaf var kinds. The mutex guards the value and the hook map; hooks are
// invoked on a snapshot outside the lock.
type base[T comparable] struct {
	nd   *ptree.Node[Var]
	root *Root
	self Var

	mu       sync.Mutex
	val      T
	enabled  bool
	format   string
	filters  []string
	onChange map[string][]*hookEntry

	// render maps the stored form to the presented one for notifications
	// and String. Enums store an index but present the list entry.
	render func(T) any
}

// attachLeaf wires a freshly constructed leaf var into the tree: it runs
// the initial value (or the fallback) through check, links the node under
// the parent and registers the declared notifications. Saved values held by
// the parent override opts.Value.
func attachLeaf[T comparable](parent Var, opts Opts, self Var, b *base[T], check func(any) (T, error)) error {
	if parent == nil {
		return fmt.Errorf("vars: a var needs a parent")
	}
	if opts.Name == "" {
		return fmt.Errorf("vars: a var needs a name")
	}
	root := parent.Root()
	b.root = root
	b.self = self
	b.enabled = !opts.Disabled
	b.format = opts.Format
	if b.format == "" {
		b.format = "%v"
	}
	b.filters = append([]string(nil), opts.Filters...)

	value := opts.Value
	if pv, ok := prevalFor(parent, opts.Name); ok {
		value = pv
	}
	v, err := initialValue(opts.Name, value, opts.Fallback, check, root)
	if err != nil {
		return err
	}
	b.val = v

	nd, err := parent.treeNode().Attach(opts.Name, self)
	if err != nil {
		return err
	}
	b.nd = nd

	for _, h := range opts.OnChange {
		if _, err := self.AddNotify(h.Func, h.Agents...); err != nil {
			return fmt.Errorf("vars: %s: %w", nd.HierName(), err)
		}
	}
	root.logger.Info().Str("var", nd.HierName()).Interface("value", self.Get()).Msg("var created")
	return nil
}

// initialValue validates the declared value, falling back once. Both
// failing is a construction error.
func initialValue[T comparable](name string, value, fallback any, check func(any) (T, error), root *Root) (T, error) {
	v, err := check(value)
	if err == nil {
		return v, nil
	}
	v, ferr := check(fallback)
	if ferr != nil {
		var zero T
		root.logger.Error().Str("var", name).Interface("value", value).
			Interface("fallback", fallback).Msg("initial and fallback values both rejected")
		return zero, fmt.Errorf("vars: %s: initial value %v rejected (%v), fallback %v rejected: %w",
			name, value, err, fallback, ferr)
	}
	return v, nil
}

// prevalFor asks the parent for a saved value for the named child.
func prevalFor(parent Var, name string) (any, bool) {
	type prevaller interface {
		preval(string) (any, bool)
	}
	if p, ok := parent.(prevaller); ok {
		return p.preval(name)
	}
	return nil, false
}

func (b *base[T]) treeNode() *ptree.Node[Var] { return b.nd }

// Name returns the var's name within its parent.
func (b *base[T]) Name() string { return b.nd.Name() }

// HierName returns the var's path from the root.
func (b *base[T]) HierName() string { return b.nd.HierName() }

// Root returns the tree's root.
func (b *base[T]) Root() *Root { return b.root }

// Find resolves a path relative to this var.
func (b *base[T]) Find(path string) (Var, error) {
	nd, err := b.nd.Resolve(path)
	if err != nil {
		return nil, err
	}
	return nd.Value, nil
}

// Value returns the stored value, typed.
func (b *base[T]) Value() T {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.val
}

// Get returns the current value as presented to observers.
func (b *base[T]) Get() any { return b.display(b.Value()) }

// Enabled reports whether the var's controls are live.
func (b *base[T]) Enabled() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.enabled
}

// SetEnabled flips the control state. Enable changes do not notify.
func (b *base[T]) SetEnabled(on bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.enabled = on
}

// Filters returns a copy of the labels this var is dumped under.
func (b *base[T]) Filters() []string {
	return append([]string(nil), b.filters...)
}

// String renders the current value through the var's format string.
func (b *base[T]) String() string {
	return fmt.Sprintf(b.format, b.self.Get())
}

// SetString sets the value from its string form. The kinds all coerce
// strings, so this is Set with a narrower signature.
func (b *base[T]) SetString(value string, agent string) (bool, error) {
	return b.self.Set(value, agent)
}

// AddNotify registers cb for changes made by the given agents. The single
// entry "*" selects every agent of the tree. The returned func removes all
// registrations this call made; calling it more than once is harmless.
func (b *base[T]) AddNotify(cb Notify, agents ...string) (func(), error) {
	if cb == nil {
		return nil, fmt.Errorf("vars: nil notify func")
	}
	if len(agents) == 0 {
		return nil, fmt.Errorf("vars: at least one agent is required")
	}
	targets := agents
	for _, a := range agents {
		if a == "*" {
			targets = b.root.Agents()
			break
		}
	}
	for _, a := range targets {
		if !b.root.Known(a) {
			return nil, fmt.Errorf("vars: agent %q not known to this tree (known: %v)", a, b.root.agents)
		}
	}

	made := make(map[string]*hookEntry, len(targets))
	b.mu.Lock()
	if b.onChange == nil {
		b.onChange = make(map[string][]*hookEntry)
	}
	for _, a := range targets {
		if _, dup := made[a]; dup {
			continue
		}
		e := &hookEntry{fn: cb}
		b.onChange[a] = append(b.onChange[a], e)
		made[a] = e
	}
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.dropHooks(made) })
	}, nil
}

func (b *base[T]) dropHooks(made map[string]*hookEntry) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for agent, e := range made {
		list := b.onChange[agent]
		for i, cand := range list {
			if cand == e {
				b.onChange[agent] = append(list[:i], list[i+1:]...)
				break
			}
		}
	}
}

// setChecked stores an already-validated value if it differs from the
// current one and notifies the acting agent's observers.
func (b *base[T]) setChecked(v T, agent string) (bool, error) {
	if !b.root.Known(agent) {
		return false, fmt.Errorf("vars: agent %q not known in setting var %s", agent, b.nd.Name())
	}
	b.mu.Lock()
	old := b.val
	if v == old {
		b.mu.Unlock()
		b.root.logger.Debug().Str("var", b.nd.Name()).Str("agent", agent).Msg("value unchanged")
		return false, nil
	}
	b.val = v
	hooks := append([]*hookEntry(nil), b.onChange[agent]...)
	b.mu.Unlock()
	b.root.logger.Debug().Str("var", b.nd.Name()).Str("agent", agent).
		Interface("from", old).Interface("to", v).Msg("value updated")
	oldAny, newAny := b.display(old), b.display(v)
	for _, h := range hooks {
		h.fn(oldAny, newAny, agent, b.self)
	}
	return true, nil
}

// forceNotify fires the acting agent's observers without touching the
// stored value. Enum list replacement uses it when the index is unchanged
// but the entry at that index is not.
func (b *base[T]) forceNotify(agent string, oldValue, newValue any) {
	b.mu.Lock()
	hooks := append([]*hookEntry(nil), b.onChange[agent]...)
	b.mu.Unlock()
	for _, h := range hooks {
		h.fn(oldValue, newValue, agent, b.self)
	}
}

func (b *base[T]) display(v T) any {
	if b.render != nil {
		return b.render(v)
	}
	return v
}
