// Specula - Watchable Values and Home Dashboard Toolkit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/specula

package updates

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRegistry_AddGet(t *testing.T) {
	t.Parallel()

	r := NewRegistry(0)
	l := NewList()
	r.Add(l)

	got, ok := r.Get(l.Ref())
	if !ok {
		t.Fatalf("Get(%q) not found", l.Ref())
	}
	if got != l {
		t.Error("Get returned a different list")
	}
	if r.Len() != 1 {
		t.Errorf("Len() = %d, want 1", r.Len())
	}
	if _, ok := r.Get("no-such-ref"); ok {
		t.Error("Get on unknown ref reported found")
	}
}

func TestRegistry_Poll(t *testing.T) {
	t.Parallel()

	r := NewRegistry(0)
	l := NewList()
	f := newFakeField("idle")
	if err := l.Link("f1", f); err != nil {
		t.Fatalf("Link() error: %v", err)
	}
	r.Add(l)
	f.change("busy")

	got, ok := r.Poll(l.Ref()).([][2]string)
	if !ok {
		t.Fatalf("Poll() on a known ref did not return update pairs")
	}
	if len(got) != 1 || got[0] != [2]string{"f1", "busy"} {
		t.Errorf("Poll() = %v, want the queued pair", got)
	}
}

// Unknown refs yield the sentinel the page script interprets as a reload
// request.
func TestRegistry_PollUnknown(t *testing.T) {
	t.Parallel()

	r := NewRegistry(0)
	if got := r.Poll("no-such-ref"); got != UnknownList {
		t.Errorf("Poll() = %v, want %q", got, UnknownList)
	}
}

func TestRegistry_Sweep(t *testing.T) {
	t.Parallel()

	r := NewRegistry(time.Minute)
	stale := NewList()
	staleField := newFakeField("x")
	if err := stale.Link("f1", staleField); err != nil {
		t.Fatalf("Link() error: %v", err)
	}
	fresh := NewList()
	r.Add(stale)
	r.Add(fresh)

	stale.mu.Lock()
	stale.lastPoll = time.Now().Add(-2 * time.Minute)
	stale.mu.Unlock()

	if n := r.Sweep(); n != 1 {
		t.Fatalf("Sweep() = %d, want 1", n)
	}
	if _, ok := r.Get(stale.Ref()); ok {
		t.Error("stale list still registered after sweep")
	}
	if _, ok := r.Get(fresh.Ref()); !ok {
		t.Error("fresh list was swept")
	}
	if !staleField.wasRemoved() {
		t.Error("sweep did not close the stale list")
	}
}

func TestRegistry_CloseAll(t *testing.T) {
	t.Parallel()

	r := NewRegistry(0)
	f1 := newFakeField("a")
	f2 := newFakeField("b")
	l1 := NewList()
	l2 := NewList()
	if err := l1.Link("f1", f1); err != nil {
		t.Fatalf("Link() error: %v", err)
	}
	if err := l2.Link("f1", f2); err != nil {
		t.Fatalf("Link() error: %v", err)
	}
	r.Add(l1)
	r.Add(l2)

	r.CloseAll()

	if r.Len() != 0 {
		t.Errorf("Len() after CloseAll = %d, want 0", r.Len())
	}
	if !f1.wasRemoved() || !f2.wasRemoved() {
		t.Error("CloseAll did not close every list")
	}
}

func TestRegistry_Run(t *testing.T) {
	t.Parallel()

	r := NewRegistry(30 * time.Millisecond)
	l := NewList()
	f := newFakeField("x")
	if err := l.Link("f1", f); err != nil {
		t.Fatalf("Link() error: %v", err)
	}
	r.Add(l)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- r.Run(ctx, 10*time.Millisecond) }()

	// The unpolled list should be reaped once the expiry passes.
	deadline := time.Now().Add(2 * time.Second)
	for r.Len() > 0 {
		if time.Now().After(deadline) {
			t.Fatal("list was never reaped")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if !f.wasRemoved() {
		t.Error("reaped list was not closed")
	}

	// Lists still alive at shutdown are closed on the way out.
	late := NewList()
	lateField := newFakeField("y")
	if err := late.Link("f1", lateField); err != nil {
		t.Fatalf("Link() error: %v", err)
	}
	r.Add(late)

	cancel()
	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run() = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not stop after cancel")
	}
	if !lateField.wasRemoved() {
		t.Error("remaining list was not closed at shutdown")
	}
	if r.Len() != 0 {
		t.Errorf("Len() after shutdown = %d, want 0", r.Len())
	}
}
