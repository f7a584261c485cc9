// Specula - Watchable Values and Home Dashboard Toolkit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/specula

package updates

import (
	"errors"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"
)

// fakeField is a minimal Linkable with a controllable observer, so list
// behavior can be tested without a real value behind it.
type fakeField struct {
	mu         sync.Mutex
	value      string
	applyErr   error
	observeErr error
	applyHook  func()
	notify     func(string)
	removed    bool
}

func newFakeField(value string) *fakeField {
	return &fakeField{value: value}
}

func (f *fakeField) Render() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.value
}

func (f *fakeField) ApplyUser(value string) (string, error) {
	f.mu.Lock()
	if f.applyErr != nil {
		err := f.applyErr
		f.mu.Unlock()
		return "", err
	}
	f.value = value
	hook := f.applyHook
	f.mu.Unlock()

	if hook != nil {
		hook()
	}
	return value, nil
}

func (f *fakeField) OnAppChange(fn func(string)) (func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.observeErr != nil {
		return nil, f.observeErr
	}
	f.notify = fn
	return func() {
		f.mu.Lock()
		f.removed = true
		f.notify = nil
		f.mu.Unlock()
	}, nil
}

// change simulates an application-side value change reaching the observer.
func (f *fakeField) change(value string) {
	f.mu.Lock()
	f.value = value
	fn := f.notify
	f.mu.Unlock()
	if fn != nil {
		fn(value)
	}
}

func (f *fakeField) wasRemoved() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.removed
}

func TestNextPageRef(t *testing.T) {
	t.Parallel()

	first := NextPageRef()
	second := NextPageRef()

	a, err := strconv.ParseInt(first, 10, 64)
	if err != nil {
		t.Fatalf("NextPageRef() = %q, not numeric: %v", first, err)
	}
	b, err := strconv.ParseInt(second, 10, 64)
	if err != nil {
		t.Fatalf("NextPageRef() = %q, not numeric: %v", second, err)
	}
	if a <= pageRefBase {
		t.Errorf("first ref %d should be above the base %d", a, pageRefBase)
	}
	// Other tests may be allocating refs concurrently, so only the
	// ordering is asserted.
	if b <= a {
		t.Errorf("refs should increase: got %d then %d", a, b)
	}
}

func TestList_Ref(t *testing.T) {
	t.Parallel()

	a := NewList()
	b := NewList()
	if a.Ref() == "" {
		t.Fatal("empty page ref")
	}
	if a.Ref() == b.Ref() {
		t.Errorf("two lists share ref %q", a.Ref())
	}
}

func TestList_LinkQueueDrain(t *testing.T) {
	t.Parallel()

	l := NewList()
	f := newFakeField("idle")
	if err := l.Link("f1", f); err != nil {
		t.Fatalf("Link() error: %v", err)
	}

	f.change("busy")
	f.change("done")

	got := l.Updates()
	want := [][2]string{{"f1", "busy"}, {"f1", "done"}}
	if len(got) != len(want) {
		t.Fatalf("Updates() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Updates()[%d] = %v, want %v", i, got[i], want[i])
		}
	}

	// Drained: the next poll is empty but still a JSON array.
	again := l.Updates()
	if again == nil {
		t.Fatal("Updates() after drain returned nil")
	}
	if len(again) != 0 {
		t.Errorf("Updates() after drain = %v, want empty", again)
	}
}

func TestList_LinkValidation(t *testing.T) {
	t.Parallel()

	l := NewList()
	f := newFakeField("x")
	if err := l.Link("f1", f); err != nil {
		t.Fatalf("Link() error: %v", err)
	}

	tests := []struct {
		name    string
		fieldID string
		value   Linkable
	}{
		{name: "empty field id", fieldID: "", value: newFakeField("y")},
		{name: "nil value", fieldID: "f2", value: nil},
		{name: "duplicate field id", fieldID: "f1", value: newFakeField("y")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := l.Link(tt.fieldID, tt.value); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestList_LinkObserveError(t *testing.T) {
	t.Parallel()

	l := NewList()
	f := newFakeField("x")
	f.observeErr = errors.New("no observers on this kind")

	err := l.Link("f1", f)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "f1") {
		t.Errorf("error %q should name the field", err)
	}
	// The reserved slot must be released again.
	if l.HasLinks() {
		t.Error("failed link left the list non-empty")
	}
}

func TestList_Apply(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		l := NewList()
		f := newFakeField("5")
		if err := l.Link("f1", f); err != nil {
			t.Fatalf("Link() error: %v", err)
		}

		res := l.Apply("f1", "8")
		if !res.OK {
			t.Fatalf("Apply() failed: %s", res.Fail)
		}
		if res.Value != "8" {
			t.Errorf("Apply() value = %q, want %q", res.Value, "8")
		}
		if f.Render() != "8" {
			t.Errorf("field value = %q, want %q", f.Render(), "8")
		}
	})

	t.Run("unknown field", func(t *testing.T) {
		l := NewList()
		res := l.Apply("nope", "1")
		if res.OK {
			t.Fatal("Apply() on unknown field reported OK")
		}
		if !strings.Contains(res.Fail, "nope") {
			t.Errorf("failure %q should name the field", res.Fail)
		}
	})

	t.Run("value rejects", func(t *testing.T) {
		l := NewList()
		f := newFakeField("5")
		f.applyErr = errors.New("42 above maximum 10")
		if err := l.Link("f1", f); err != nil {
			t.Fatalf("Link() error: %v", err)
		}

		res := l.Apply("f1", "42")
		if res.OK {
			t.Fatal("Apply() reported OK despite rejection")
		}
		if res.Fail != "42 above maximum 10" {
			t.Errorf("Apply() fail = %q, want the value error", res.Fail)
		}
	})
}

// A user edit may trigger app-side changes that land back on the same
// list; Apply must not hold the list lock across the set.
func TestList_ApplyReentrantEnqueue(t *testing.T) {
	t.Parallel()

	l := NewList()
	f := newFakeField("5")
	if err := l.Link("f1", f); err != nil {
		t.Fatalf("Link() error: %v", err)
	}
	f.applyHook = func() { f.change("chained") }

	res := l.Apply("f1", "8")
	if !res.OK {
		t.Fatalf("Apply() failed: %s", res.Fail)
	}

	got := l.Updates()
	if len(got) != 1 || got[0] != [2]string{"f1", "chained"} {
		t.Errorf("Updates() = %v, want the chained pair", got)
	}
}

func TestList_HasLinks(t *testing.T) {
	t.Parallel()

	l := NewList()
	if l.HasLinks() {
		t.Error("new list reports links")
	}
	if err := l.Link("f1", newFakeField("x")); err != nil {
		t.Fatalf("Link() error: %v", err)
	}
	if !l.HasLinks() {
		t.Error("linked list reports no links")
	}
}

func TestList_Close(t *testing.T) {
	t.Parallel()

	l := NewList()
	f1 := newFakeField("a")
	f2 := newFakeField("b")
	if err := l.Link("f1", f1); err != nil {
		t.Fatalf("Link() error: %v", err)
	}
	if err := l.Link("f2", f2); err != nil {
		t.Fatalf("Link() error: %v", err)
	}
	f1.change("queued")

	l.Close()

	if !f1.wasRemoved() || !f2.wasRemoved() {
		t.Error("Close() did not remove all observers")
	}
	if got := l.Updates(); len(got) != 0 {
		t.Errorf("Updates() after Close = %v, want empty", got)
	}
	if err := l.Link("f3", newFakeField("c")); err == nil {
		t.Error("Link() after Close succeeded")
	}

	// A late observer firing must not queue anything.
	l.enqueue("f1", "late")
	if got := l.Updates(); len(got) != 0 {
		t.Errorf("enqueue after Close queued %v", got)
	}

	l.Close() // idempotent
}

func TestList_Expired(t *testing.T) {
	t.Parallel()

	l := NewList()
	if l.Expired(time.Hour) {
		t.Error("fresh list reports expired")
	}

	l.mu.Lock()
	l.lastPoll = time.Now().Add(-3 * time.Minute)
	l.mu.Unlock()

	if !l.Expired(2 * time.Minute) {
		t.Error("stale list reports fresh")
	}

	// Polling resets the window.
	l.Updates()
	if l.Expired(2 * time.Minute) {
		t.Error("polled list reports expired")
	}
}
