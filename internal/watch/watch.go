// Specula - Watchable Values and Home Dashboard Toolkit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/specula

// Package watch provides observable typed values with validation and
// agent-keyed change notification.
//
// Every change to a value nominates an agent (the source of the change:
// the application itself, a dashboard user, ...). Observers subscribe per
// agent and are only called for changes made by the agents they asked about.
// This is the current generation of the mechanism; package vars is the
// earlier tree-based generation kept for existing code.
package watch

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// Agent identifies the source of a value change. Applications may define
// their own agents; an App only accepts the agents it was created with.
type Agent string

// The canonical agents most dashboards need.
const (
	// AgentApp marks changes originating in application code.
	AgentApp Agent = "app"
	// AgentUser marks changes originating from a user, typically via the web.
	AgentUser Agent = "user"
)

// Flags carries presentation hints for a value.
type Flags uint32

const (
	// FlagNone is the empty flag set.
	FlagNone Flags = 0
	// FlagDisabled marks a value whose controls should be inert.
	FlagDisabled Flags = 1 << 0
)

// Disabled reports whether the disabled bit is set.
func (f Flags) Disabled() bool { return f&FlagDisabled != 0 }

// Callback is invoked after a watched value changed. It receives the value
// before and after the change, the agent that made it, and the watchable it
// fired on (so one callback can serve several values). Callbacks run outside
// the watchable's lock and may freely set values or manage observers.
type Callback func(oldValue, newValue any, agent Agent, source Watchable)

// Watchable is the untyped view shared by all value kinds. The concrete
// types additionally expose typed Value/SetValue accessors.
type Watchable interface {
	// Get returns the current value.
	Get() any
	// Set validates and stores a new value, converting from common
	// representations where the kind supports it. It reports whether the
	// stored value changed; observers registered for the acting agent are
	// called when it did.
	Set(value any, agent Agent) (bool, error)
	// SetString is Set from the value's string form, the shape updates
	// arrive in from the web.
	SetString(value string, agent Agent) (bool, error)
	// AddNotify registers cb for changes made by the given agent and
	// returns an idempotent removal func.
	AddNotify(agent Agent, cb Callback) (func(), error)
	// Flags returns the presentation flags.
	Flags() Flags
	// SetFlags replaces the presentation flags.
	SetFlags(Flags)
}

// App owns the agent set shared by a family of watchables and the logger
// they report through. The zero value is not usable; use NewApp.
type App struct {
	agents []Agent
	logger zerolog.Logger
}

// NewApp creates an App accepting the given agents. A nil or empty list
// selects the canonical pair (AgentApp, AgentUser).
func NewApp(agents []Agent, logger zerolog.Logger) *App {
	if len(agents) == 0 {
		agents = []Agent{AgentApp, AgentUser}
	}
	return &App{agents: append([]Agent(nil), agents...), logger: logger}
}

// Agents returns a copy of the accepted agent list.
func (a *App) Agents() []Agent {
	return append([]Agent(nil), a.agents...)
}

// Known reports whether the agent is accepted by this App.
func (a *App) Known(agent Agent) bool {
	for _, ag := range a.agents {
		if ag == agent {
			return true
		}
	}
	return false
}

// observer wraps a callback so registrations have an identity and can be
// removed individually even when the same func is registered twice.
type observer struct {
	cb Callback
}

// base carries the value storage, flags and observer plumbing shared by all
// kinds. The mutex guards the observer map and the value; callbacks are
// invoked on a snapshot outside the lock.
type base[T comparable] struct {
	app   *App
	self  Watchable
	mu    sync.Mutex
	val   T
	flags Flags
	obs   map[Agent][]*observer
}

func (b *base[T]) init(app *App, self Watchable, val T, flags Flags) {
	b.app = app
	b.self = self
	b.val = val
	b.flags = flags
}

// Value returns the current value, typed.
func (b *base[T]) Value() T {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.val
}

// Get returns the current value.
func (b *base[T]) Get() any { return b.Value() }

// Flags returns the presentation flags.
func (b *base[T]) Flags() Flags {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.flags
}

// SetFlags replaces the presentation flags. Flag changes do not notify.
func (b *base[T]) SetFlags(f Flags) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.flags = f
}

// AddNotify registers cb for changes made by agent. The returned func
// removes the registration; calling it more than once is harmless.
func (b *base[T]) AddNotify(agent Agent, cb Callback) (func(), error) {
	if cb == nil {
		return nil, fmt.Errorf("watch: nil callback")
	}
	if !b.app.Known(agent) {
		return nil, fmt.Errorf("watch: unknown agent %q (known: %v)", agent, b.app.agents)
	}
	ob := &observer{cb: cb}
	b.mu.Lock()
	if b.obs == nil {
		b.obs = make(map[Agent][]*observer)
	}
	b.obs[agent] = append(b.obs[agent], ob)
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.drop(agent, ob) })
	}, nil
}

func (b *base[T]) drop(agent Agent, ob *observer) {
	b.mu.Lock()
	defer b.mu.Unlock()
	list := b.obs[agent]
	for i, cand := range list {
		if cand == ob {
			b.obs[agent] = append(list[:i], list[i+1:]...)
			return
		}
	}
}

// commit stores newVal if it differs from the current value and calls the
// observers registered for agent. The callback list is snapshotted under the
// lock and invoked outside it.
func (b *base[T]) commit(newVal T, agent Agent) (bool, error) {
	if !b.app.Known(agent) {
		return false, fmt.Errorf("watch: unknown agent %q (known: %v)", agent, b.app.agents)
	}
	b.mu.Lock()
	oldVal := b.val
	if newVal == oldVal {
		b.mu.Unlock()
		b.app.logger.Debug().Interface("value", oldVal).Msg("value unchanged")
		return false, nil
	}
	b.val = newVal
	cbs := append([]*observer(nil), b.obs[agent]...)
	b.mu.Unlock()
	for _, ob := range cbs {
		ob.cb(oldVal, newVal, agent, b.self)
	}
	b.app.logger.Debug().Interface("value", newVal).Str("agent", string(agent)).Msg("value changed")
	return true, nil
}

// commitAlways fires the observers for agent without changing the stored
// value. Buttons use this for click semantics.
func (b *base[T]) commitAlways(agent Agent) (bool, error) {
	if !b.app.Known(agent) {
		return false, fmt.Errorf("watch: unknown agent %q (known: %v)", agent, b.app.agents)
	}
	b.mu.Lock()
	cur := b.val
	cbs := append([]*observer(nil), b.obs[agent]...)
	b.mu.Unlock()
	for _, ob := range cbs {
		ob.cb(cur, cur, agent, b.self)
	}
	return true, nil
}
