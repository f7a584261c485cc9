// Specula - Watchable Values and Home Dashboard Toolkit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/specula

package websocket

import (
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/specula/internal/vars"
	"github.com/tomtom215/specula/internal/watch"
)

// receiveValue waits for the next "value" message on the client.
func receiveValue(t *testing.T, client *Client) ValueChangeData {
	t.Helper()
	select {
	case msg := <-client.send:
		if msg.Type != MessageTypeValue {
			t.Fatalf("message type = %q, want %q", msg.Type, MessageTypeValue)
		}
		data, ok := msg.Data.(ValueChangeData)
		if !ok {
			t.Fatalf("message data is %T, want ValueChangeData", msg.Data)
		}
		return data
	case <-time.After(500 * time.Millisecond):
		t.Fatal("no value message received")
		return ValueChangeData{}
	}
}

// expectSilence asserts no message arrives within the window.
func expectSilence(t *testing.T, client *Client) {
	t.Helper()
	select {
	case msg := <-client.send:
		t.Fatalf("unexpected message: %+v", msg)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestBridge_WatchGroup(t *testing.T) {
	hub := setupHub(t)
	client := createTestClient(hub)
	registerClient(hub, client)

	app := watch.NewApp(nil, zerolog.Nop())
	group := watch.NewGroup(app, nil, []watch.Def{
		{Name: "status", Make: func(a *watch.App) (watch.Watchable, error) {
			return watch.NewText(a, "idle", watch.FlagNone), nil
		}},
	})

	bridge := NewBridge(hub)
	defer bridge.Close()
	if err := bridge.WatchGroup("camera", group); err != nil {
		t.Fatalf("WatchGroup() error: %v", err)
	}

	v, _ := group.Var("status")
	if _, err := v.Set("busy", watch.AgentApp); err != nil {
		t.Fatalf("Set() error: %v", err)
	}

	data := receiveValue(t, client)
	if data.Name != "camera/status" {
		t.Errorf("name = %q, want %q", data.Name, "camera/status")
	}
	if data.Value != "busy" {
		t.Errorf("value = %q, want %q", data.Value, "busy")
	}
	if data.Agent != "app" {
		t.Errorf("agent = %q, want %q", data.Agent, "app")
	}

	// Both agents are pushed: the hub keeps every dashboard current, so
	// user edits travel too.
	if _, err := v.Set("paused", watch.AgentUser); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	data = receiveValue(t, client)
	if data.Agent != "user" || data.Value != "paused" {
		t.Errorf("got %+v, want the user-side change", data)
	}
}

func TestBridge_WatchGroup_NoPrefix(t *testing.T) {
	hub := setupHub(t)
	client := createTestClient(hub)
	registerClient(hub, client)

	app := watch.NewApp(nil, zerolog.Nop())
	group := watch.NewGroup(app, nil, []watch.Def{
		{Name: "uptime", Make: func(a *watch.App) (watch.Watchable, error) {
			return watch.NewInt(a, 0, watch.IntOpts{}, watch.FlagNone), nil
		}},
	})

	bridge := NewBridge(hub)
	defer bridge.Close()
	if err := bridge.WatchGroup("", group); err != nil {
		t.Fatalf("WatchGroup() error: %v", err)
	}

	v, _ := group.Var("uptime")
	if _, err := v.Set(42, watch.AgentApp); err != nil {
		t.Fatalf("Set() error: %v", err)
	}

	data := receiveValue(t, client)
	if data.Name != "uptime" {
		t.Errorf("name = %q, want bare member name", data.Name)
	}
}

func TestBridge_WatchTree(t *testing.T) {
	hub := setupHub(t)
	client := createTestClient(hub)
	registerClient(hub, client)

	root, err := vars.NewRoot(vars.RootOpts{
		Agents: []string{"app", "user"},
		Logger: zerolog.Nop(),
		Defs: []vars.ChildDef{
			func(parent vars.Var) (vars.Var, error) {
				return vars.NewGroup(parent, "cam", nil, []vars.ChildDef{
					func(parent vars.Var) (vars.Var, error) {
						return vars.NewEnum(parent, vars.Opts{Name: "mode", Value: "off"},
							[]string{"off", "on", "auto"}, "")
					},
				})
			},
		},
	})
	if err != nil {
		t.Fatalf("NewRoot() error: %v", err)
	}

	bridge := NewBridge(hub)
	defer bridge.Close()
	if err := bridge.WatchTree(root); err != nil {
		t.Fatalf("WatchTree() error: %v", err)
	}

	v, err := root.Find("/cam/mode")
	if err != nil {
		t.Fatalf("Find() error: %v", err)
	}
	if _, err := v.Set("auto", "user"); err != nil {
		t.Fatalf("Set() error: %v", err)
	}

	data := receiveValue(t, client)
	if data.Name != "/cam/mode" {
		t.Errorf("name = %q, want the tree path", data.Name)
	}
	// Enums are pushed as entry text, not the stored index.
	if data.Value != "auto" {
		t.Errorf("value = %q, want %q", data.Value, "auto")
	}
	if data.Agent != "user" {
		t.Errorf("agent = %q, want %q", data.Agent, "user")
	}
}

func TestBridge_Close(t *testing.T) {
	hub := setupHub(t)
	client := createTestClient(hub)
	registerClient(hub, client)

	app := watch.NewApp(nil, zerolog.Nop())
	group := watch.NewGroup(app, nil, []watch.Def{
		{Name: "status", Make: func(a *watch.App) (watch.Watchable, error) {
			return watch.NewText(a, "idle", watch.FlagNone), nil
		}},
	})

	bridge := NewBridge(hub)
	if err := bridge.WatchGroup("", group); err != nil {
		t.Fatalf("WatchGroup() error: %v", err)
	}

	bridge.Close()
	bridge.Close() // idempotent

	v, _ := group.Var("status")
	if _, err := v.Set("busy", watch.AgentApp); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	expectSilence(t, client)

	// Watches registered after Close are dropped immediately.
	if err := bridge.WatchGroup("", group); err != nil {
		t.Fatalf("WatchGroup() error: %v", err)
	}
	if _, err := v.Set("done", watch.AgentApp); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	expectSilence(t, client)
}
