// Specula - Watchable Values and Home Dashboard Toolkit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/specula

package websocket

import (
	"errors"
	"fmt"
	"sync"

	"github.com/tomtom215/specula/internal/vars"
	"github.com/tomtom215/specula/internal/watch"
)

// Bridge forwards value changes from the observable trees to the hub, so
// every connected dashboard sees an edit no matter which page or code
// path made it. It holds the observer removals and drops them all on
// Close.
type Bridge struct {
	hub *Hub

	mu      sync.Mutex
	removes []func()
	closed  bool
}

// NewBridge creates a bridge feeding hub.
func NewBridge(hub *Hub) *Bridge {
	return &Bridge{hub: hub}
}

// WatchGroup observes every member of g for all of its app's agents.
// Names are broadcast as prefix/member, or bare when prefix is empty.
// Members that cannot be observed are collected into the returned error;
// the rest are still watched.
func (b *Bridge) WatchGroup(prefix string, g *watch.Group) error {
	var errs []error
	for _, name := range g.Names() {
		v, ok := g.Var(name)
		if !ok {
			continue
		}
		qualified := name
		if prefix != "" {
			qualified = prefix + "/" + name
		}
		for _, agent := range g.App().Agents() {
			remove, err := v.AddNotify(agent, func(_, _ any, agent watch.Agent, source watch.Watchable) {
				// Broadcast the display form after the change; enums
				// present their entry text, not an index.
				b.hub.BroadcastValueChange(qualified, fmt.Sprint(source.Get()), string(agent))
			})
			if err != nil {
				errs = append(errs, fmt.Errorf("websocket: watching %s for %s: %w", qualified, agent, err))
				continue
			}
			b.keep(remove)
		}
	}
	return errors.Join(errs...)
}

// childLister matches the group kinds of a vars tree.
type childLister interface {
	Children() []vars.Var
}

// WatchTree observes every leaf of a vars tree for all agents. Leaves are
// broadcast under their tree path.
func (b *Bridge) WatchTree(root *vars.Root) error {
	return b.watchVar(root)
}

func (b *Bridge) watchVar(v vars.Var) error {
	if g, ok := v.(childLister); ok {
		var errs []error
		for _, child := range g.Children() {
			errs = append(errs, b.watchVar(child))
		}
		return errors.Join(errs...)
	}

	remove, err := v.AddNotify(func(_, _ any, agent string, source vars.Var) {
		b.hub.BroadcastValueChange(source.HierName(), fmt.Sprint(source.Get()), agent)
	}, "*")
	if err != nil {
		return fmt.Errorf("websocket: watching %s: %w", v.HierName(), err)
	}
	b.keep(remove)
	return nil
}

func (b *Bridge) keep(remove func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		remove()
		return
	}
	b.removes = append(b.removes, remove)
}

// Close drops every observer the bridge registered. Safe to call more
// than once; watches registered afterwards are removed immediately.
func (b *Bridge) Close() {
	b.mu.Lock()
	removes := b.removes
	b.removes = nil
	b.closed = true
	b.mu.Unlock()

	for _, remove := range removes {
		remove()
	}
}
