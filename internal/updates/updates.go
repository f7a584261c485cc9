// Specula - Watchable Values and Home Dashboard Toolkit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/specula

// Package updates links served dashboard pages to observable values.
//
// When a dynamic page is rendered, each of its live fields is bound to a
// value through a List. Application-side value changes queue up as
// (field id, new display value) pairs; the page polls its list over the
// update stream and applies the pairs to the DOM. User edits travel the
// other way through Apply. A Registry tracks the active lists and a
// Reaper sweeps out lists whose page stopped polling.
package updates

import (
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

// Page refs start above this value so they are recognizable in logs and
// never collide with field indexes.
const pageRefBase = 972

var pageCounter atomic.Int64

// NextPageRef returns a process-unique page reference, rendered as a
// string because it travels in query parameters.
func NextPageRef() string {
	return strconv.FormatInt(pageRefBase+pageCounter.Add(1), 10)
}

// link is one bound field: the Linkable it reaches and the observer
// removal func.
type link struct {
	value  Linkable
	remove func()
}

// List holds the field/value bindings of one served page instance and the
// update pairs queued for its next poll.
type List struct {
	ref string

	mu       sync.Mutex
	links    map[string]*link
	queued   [][2]string
	lastPoll time.Time
	closed   bool
}

// NewList creates an empty list with a fresh page ref. The list counts as
// polled on creation, so the expiry window starts now.
func NewList() *List {
	return &List{
		ref:      NextPageRef(),
		links:    make(map[string]*link),
		lastPoll: time.Now(),
	}
}

// Ref returns the page reference the frontend uses to address this list.
func (l *List) Ref() string {
	return l.ref
}

// Link binds fieldID to a value and starts observing application-side
// changes. Each field id can be bound once.
func (l *List) Link(fieldID string, v Linkable) error {
	if fieldID == "" {
		return fmt.Errorf("updates: empty field id")
	}
	if v == nil {
		return fmt.Errorf("updates: nil value for field %q", fieldID)
	}

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return fmt.Errorf("updates: list %s is closed", l.ref)
	}
	if _, dup := l.links[fieldID]; dup {
		l.mu.Unlock()
		return fmt.Errorf("updates: field %q already linked in list %s", fieldID, l.ref)
	}
	// Reserve the slot before registering the observer; the observer may
	// fire immediately from another goroutine.
	l.links[fieldID] = &link{value: v}
	l.mu.Unlock()

	remove, err := v.OnAppChange(func(newValue string) {
		l.enqueue(fieldID, newValue)
	})
	if err != nil {
		l.mu.Lock()
		delete(l.links, fieldID)
		l.mu.Unlock()
		return fmt.Errorf("updates: observing field %q: %w", fieldID, err)
	}

	l.mu.Lock()
	if l.closed {
		// Closed while we were registering; undo.
		delete(l.links, fieldID)
		l.mu.Unlock()
		remove()
		return fmt.Errorf("updates: list %s is closed", l.ref)
	}
	l.links[fieldID].remove = remove
	l.mu.Unlock()
	return nil
}

func (l *List) enqueue(fieldID, value string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.queued = append(l.queued, [2]string{fieldID, value})
}

// Updates drains the queued pairs and marks the list polled. The result
// is never nil, so it always serializes as a JSON array.
func (l *List) Updates() [][2]string {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.lastPoll = time.Now()
	out := l.queued
	l.queued = nil
	if out == nil {
		out = [][2]string{}
	}
	return out
}

// ApplyResult reports the outcome of a user edit. OK carries either the
// canonical display value after the set or the failure text, matching
// what the page script expects.
type ApplyResult struct {
	OK    bool   `json:"OK"`
	Value string `json:"value,omitempty"`
	Fail  string `json:"fail,omitempty"`
}

// Apply sets the value bound to fieldID from its string form, on behalf
// of the dashboard user.
func (l *List) Apply(fieldID, value string) *ApplyResult {
	l.mu.Lock()
	lk, ok := l.links[fieldID]
	closed := l.closed
	l.mu.Unlock()

	if closed || !ok {
		return &ApplyResult{OK: false, Fail: fmt.Sprintf("no field %q on this page", fieldID)}
	}

	// The set runs outside the list lock: observers fired by the change
	// may enqueue onto this same list.
	display, err := lk.value.ApplyUser(value)
	if err != nil {
		return &ApplyResult{OK: false, Fail: err.Error()}
	}
	return &ApplyResult{OK: true, Value: display}
}

// HasLinks reports whether any field was bound. Pages without live fields
// are not worth registering.
func (l *List) HasLinks() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.links) > 0
}

// Expired reports whether the page has not polled within the window.
func (l *List) Expired(window time.Duration) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return time.Since(l.lastPoll) > window
}

// Close drops all observers and discards queued updates. Safe to call
// more than once.
func (l *List) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	links := l.links
	l.links = make(map[string]*link)
	l.queued = nil
	l.mu.Unlock()

	for _, lk := range links {
		if lk.remove != nil {
			lk.remove()
		}
	}
}
