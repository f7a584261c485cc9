// Specula - Watchable Values and Home Dashboard Toolkit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/specula

package updates

import (
	"context"
	"sync"
	"time"

	"github.com/tomtom215/specula/internal/logging"
	"github.com/tomtom215/specula/internal/metrics"
)

// UnknownList is returned to pollers naming a list that expired or never
// existed. The page script treats it as "reload me".
const UnknownList = "kwac"

// Default sweep cadence and poll expiry window.
const (
	DefaultSweepInterval = 5 * time.Second
	DefaultExpiry        = 2 * time.Minute
)

// Registry tracks the active update lists by page ref.
type Registry struct {
	mu     sync.Mutex
	lists  map[string]*List
	expiry time.Duration
}

// NewRegistry creates a registry. Lists that have not been polled within
// expiry are closed by Sweep; zero or negative selects the default.
func NewRegistry(expiry time.Duration) *Registry {
	if expiry <= 0 {
		expiry = DefaultExpiry
	}
	return &Registry{
		lists:  make(map[string]*List),
		expiry: expiry,
	}
}

// Add registers a list. Callers should only add lists with links; pages
// without live fields have nothing to poll for.
func (r *Registry) Add(l *List) {
	r.mu.Lock()
	r.lists[l.Ref()] = l
	r.mu.Unlock()

	metrics.RecordPageRegistered()
	logging.Debug().Str("page", l.Ref()).Msg("Update list registered")
}

// Get returns the list for a page ref.
func (r *Registry) Get(ref string) (*List, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.lists[ref]
	return l, ok
}

// Len reports the number of active lists.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.lists)
}

// Poll drains the updates queued for ref. An unknown ref yields the
// UnknownList sentinel; the result is JSON-encoded onto the update
// stream either way.
func (r *Registry) Poll(ref string) any {
	l, ok := r.Get(ref)
	if !ok {
		return UnknownList
	}
	return l.Updates()
}

// Sweep closes and removes every list whose page stopped polling,
// returning how many were reaped.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	var dead []*List
	for ref, l := range r.lists {
		if l.Expired(r.expiry) {
			dead = append(dead, l)
			delete(r.lists, ref)
		}
	}
	r.mu.Unlock()

	for _, l := range dead {
		l.Close()
		logging.Debug().Str("page", l.Ref()).Msg("Update list expired")
	}
	metrics.RecordPagesReaped(len(dead))
	return len(dead)
}

// Run sweeps on the given interval until the context is canceled, then
// closes all remaining lists. Zero or negative selects the default
// interval. The supervisor runs this as a service.
func (r *Registry) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logging.Info().Dur("interval", interval).Dur("expiry", r.expiry).Msg("Update list reaper running")
	for {
		select {
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				logging.Info().Int("reaped", n).Int("active", r.Len()).Msg("Reaped expired update lists")
			}
		case <-ctx.Done():
			r.CloseAll()
			return ctx.Err()
		}
	}
}

// CloseAll closes and drops every list. Used at shutdown.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	lists := r.lists
	r.lists = make(map[string]*List)
	r.mu.Unlock()

	for _, l := range lists {
		l.Close()
	}
}
