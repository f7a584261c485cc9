// Specula - Watchable Values and Home Dashboard Toolkit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/specula

package vars

import (
	"reflect"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

// buildTree assembles the tree most tests share:
//
//	root
//	├── title  (text, filter "pers")
//	└── cam
//	    ├── gain    (float 0..16 clamp, filter "pers")
//	    ├── mode    (enum auto/night/sport, filter "pers")
//	    └── status  (text, no filters)
func buildTree(t *testing.T, saved map[string]any) *Root {
	t.Helper()
	root, err := NewRoot(RootOpts{
		Agents: []string{"app", "web"},
		Logger: zerolog.Nop(),
		Values: saved,
		Defs: []ChildDef{
			func(p Var) (Var, error) {
				return NewText(p, Opts{Name: "title", Value: "specula", Filters: []string{"pers"}})
			},
			func(p Var) (Var, error) {
				return NewGroup(p, "cam", nil, []ChildDef{
					func(p Var) (Var, error) {
						return NewFloat(p, Opts{Name: "gain", Value: 1.0, Filters: []string{"pers"}}, 0, 16, true)
					},
					func(p Var) (Var, error) {
						return NewEnum(p, Opts{Name: "mode", Filters: []string{"pers"}},
							[]string{"auto", "night", "sport"}, ModeWrap)
					},
					func(p Var) (Var, error) {
						return NewText(p, Opts{Name: "status", Value: "idle"})
					},
				})
			},
		},
	})
	if err != nil {
		t.Fatalf("NewRoot failed: %v", err)
	}
	return root
}

func TestNewRoot_RequiresAgents(t *testing.T) {
	t.Parallel()

	if _, err := NewRoot(RootOpts{Logger: zerolog.Nop()}); err == nil {
		t.Error("NewRoot without agents should fail")
	}
}

func TestTree_NamesAndPaths(t *testing.T) {
	t.Parallel()

	root := buildTree(t, nil)

	if got := root.HierName(); got != "" {
		t.Errorf("root HierName() = %q, want empty", got)
	}
	gain, err := root.Find("cam/gain")
	if err != nil {
		t.Fatalf("Find(cam/gain) failed: %v", err)
	}
	if got := gain.HierName(); got != "/cam/gain" {
		t.Errorf("HierName() = %q, want /cam/gain", got)
	}

	// Paths resolve relative to any node, with ".." and "/" anchoring.
	sibling, err := gain.Find("../mode")
	if err != nil {
		t.Fatalf("Find(../mode) failed: %v", err)
	}
	if sibling.Name() != "mode" {
		t.Errorf("Find(../mode) = %q, want mode", sibling.Name())
	}
	top, err := gain.Find("/title")
	if err != nil {
		t.Fatalf("Find(/title) failed: %v", err)
	}
	if top.Name() != "title" {
		t.Errorf("Find(/title) = %q, want title", top.Name())
	}
	if _, err := root.Find("cam/iris"); err == nil {
		t.Error("Find of an unknown var should fail")
	}
}

func TestTree_DuplicateNameFailsConstruction(t *testing.T) {
	t.Parallel()

	_, err := NewRoot(RootOpts{
		Agents: []string{"app"},
		Logger: zerolog.Nop(),
		Defs: []ChildDef{
			func(p Var) (Var, error) { return NewText(p, Opts{Name: "x", Value: "1"}) },
			func(p Var) (Var, error) { return NewText(p, Opts{Name: "x", Value: "2"}) },
		},
	})
	if err == nil {
		t.Fatal("NewRoot with duplicate child names should fail")
	}
}

func TestTree_ChildFailureFailsTheTree(t *testing.T) {
	t.Parallel()

	_, err := NewRoot(RootOpts{
		Agents: []string{"app"},
		Logger: zerolog.Nop(),
		Defs: []ChildDef{
			func(p Var) (Var, error) {
				// No value and no fallback: construction cannot settle.
				return NewText(p, Opts{Name: "broken"})
			},
		},
	})
	if err == nil {
		t.Fatal("NewRoot should fail when a child cannot build")
	}
}

func TestSavedValues_CascadeToLeaves(t *testing.T) {
	t.Parallel()

	root := buildTree(t, map[string]any{
		"title": "saved title",
		"cam": map[string]any{
			"gain": 4.0,
			"mode": "night",
		},
	})

	title, _ := root.Find("title")
	if got := title.Get(); got != "saved title" {
		t.Errorf("title = %v, want the saved value", got)
	}
	gain, _ := root.Find("cam/gain")
	if got := gain.Get(); got != 4.0 {
		t.Errorf("gain = %v, want the saved 4", got)
	}
	mode, _ := root.Find("cam/mode")
	if got := mode.Get(); got != "night" {
		t.Errorf("mode = %v, want the saved entry", got)
	}
	status, _ := root.Find("cam/status")
	if got := status.Get(); got != "idle" {
		t.Errorf("status = %v, want the declared default", got)
	}
}

func TestSavedValues_InvalidFallsBack(t *testing.T) {
	t.Parallel()

	// A saved entry not in the enum's list cannot settle, so the fallback
	// (the first entry) wins.
	root := buildTree(t, map[string]any{
		"cam": map[string]any{"mode": "lunar"},
	})
	mode, _ := root.Find("cam/mode")
	if got := mode.Get(); got != "auto" {
		t.Errorf("mode = %v after an invalid saved value, want the fallback", got)
	}
}

func TestSet_AgentKeyedNotification(t *testing.T) {
	t.Parallel()

	root := buildTree(t, nil)
	gain, _ := root.Find("cam/gain")

	var webFires, appFires int
	if _, err := gain.AddNotify(func(oldValue, newValue any, agent string, v Var) {
		webFires++
		if oldValue != 1.0 || newValue != 2.0 {
			t.Errorf("callback got (%v, %v), want (1, 2)", oldValue, newValue)
		}
		if agent != "web" {
			t.Errorf("callback agent = %q, want web", agent)
		}
		if v.HierName() != "/cam/gain" {
			t.Errorf("callback var = %q, want /cam/gain", v.HierName())
		}
	}, "web"); err != nil {
		t.Fatalf("AddNotify failed: %v", err)
	}
	if _, err := gain.AddNotify(func(_, _ any, _ string, _ Var) { appFires++ }, "app"); err != nil {
		t.Fatalf("AddNotify failed: %v", err)
	}

	changed, err := gain.Set(2.0, "web")
	if err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if !changed {
		t.Error("Set should report a change")
	}
	if webFires != 1 || appFires != 0 {
		t.Errorf("observers fired web=%d app=%d, want 1 and 0", webFires, appFires)
	}

	// Setting the same value again does not notify.
	if _, err := gain.Set(2.0, "web"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if webFires != 1 {
		t.Errorf("observer fired %d times after an unchanged set, want 1", webFires)
	}
}

func TestAddNotify_WildcardAndRemoval(t *testing.T) {
	t.Parallel()

	root := buildTree(t, nil)
	status, _ := root.Find("cam/status")

	fires := 0
	remove, err := status.AddNotify(func(_, _ any, _ string, _ Var) { fires++ }, "*")
	if err != nil {
		t.Fatalf("AddNotify(*) failed: %v", err)
	}

	if _, err := status.Set("busy", "app"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if _, err := status.Set("done", "web"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if fires != 2 {
		t.Errorf("wildcard observer fired %d times, want 2 (both agents)", fires)
	}

	remove()
	remove() // second call is a no-op
	if _, err := status.Set("again", "app"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if fires != 2 {
		t.Errorf("observer fired %d times after removal, want 2", fires)
	}

	if _, err := status.AddNotify(func(_, _ any, _ string, _ Var) {}, "nobody"); err == nil {
		t.Error("AddNotify with an unknown agent should fail")
	}
	if _, err := status.AddNotify(nil, "app"); err == nil {
		t.Error("AddNotify with a nil func should fail")
	}
}

func TestSet_UnknownAgentRejected(t *testing.T) {
	t.Parallel()

	root := buildTree(t, nil)
	gain, _ := root.Find("cam/gain")

	if _, err := gain.Set(3.0, "nobody"); err == nil {
		t.Error("Set with an unknown agent should fail")
	}
	if got := gain.Get(); got != 1.0 {
		t.Errorf("gain = %v after a rejected set, want 1", got)
	}
}

func TestGroup_GetReturnsNestedMaps(t *testing.T) {
	t.Parallel()

	root := buildTree(t, nil)
	got, ok := root.Get().(map[string]any)
	if !ok {
		t.Fatalf("root Get() = %T, want a map", root.Get())
	}
	cam, ok := got["cam"].(map[string]any)
	if !ok {
		t.Fatalf("Get()[cam] = %T, want a nested map", got["cam"])
	}
	want := map[string]any{"gain": 1.0, "mode": "auto", "status": "idle"}
	if !reflect.DeepEqual(cam, want) {
		t.Errorf("cam values = %v, want %v", cam, want)
	}
}

func TestGroup_SetFromMap(t *testing.T) {
	t.Parallel()

	root := buildTree(t, nil)

	changed, err := root.Set(map[string]any{
		"cam": map[string]any{"gain": 8.0, "mode": "sport"},
	}, "app")
	if err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if !changed {
		t.Error("Set should report a change")
	}
	gain, _ := root.Find("cam/gain")
	if got := gain.Get(); got != 8.0 {
		t.Errorf("gain = %v, want 8", got)
	}

	// Unknown keys are rejected before anything is applied.
	if _, err := root.Set(map[string]any{"iris": 1}, "app"); err == nil {
		t.Error("Set with an unknown child should fail")
	}
	// Groups reject non-map values and strings.
	if _, err := root.Set("flat", "app"); err == nil {
		t.Error("Set with a non-map value should fail on a group")
	}
	if _, err := root.SetString("flat", "app"); err == nil {
		t.Error("SetString should fail on a group")
	}
	if _, err := root.AddNotify(func(_, _ any, _ string, _ Var) {}, "app"); err == nil {
		t.Error("AddNotify should fail on a group")
	}
}

func TestGroup_Filtered(t *testing.T) {
	t.Parallel()

	root := buildTree(t, nil)

	got := root.Filtered("pers")
	want := map[string]any{
		"title": "specula",
		"cam": map[string]any{
			"gain": "1",
			"mode": "auto",
		},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Filtered(pers) = %v, want %v", got, want)
	}

	// No leaf carries this label anywhere: the whole dump is nil.
	if got := root.Filtered("metrics"); got != nil {
		t.Errorf("Filtered(metrics) = %v, want nil", got)
	}
}

func TestVar_StringUsesFormat(t *testing.T) {
	t.Parallel()

	root, err := NewRoot(RootOpts{
		Agents: []string{"app"},
		Logger: zerolog.Nop(),
		Defs: []ChildDef{
			func(p Var) (Var, error) {
				return NewFloat(p, Opts{Name: "temp", Value: 21.456, Format: "%.1f"}, MinFloat, MaxFloat, false)
			},
		},
	})
	if err != nil {
		t.Fatalf("NewRoot failed: %v", err)
	}
	temp, _ := root.Find("temp")
	if got := temp.String(); got != "21.5" {
		t.Errorf("String() = %q, want %q", got, "21.5")
	}
}

func TestOpts_OnChangeRegistersAtBuild(t *testing.T) {
	t.Parallel()

	fires := 0
	root, err := NewRoot(RootOpts{
		Agents: []string{"app", "web"},
		Logger: zerolog.Nop(),
		Defs: []ChildDef{
			func(p Var) (Var, error) {
				return NewText(p, Opts{
					Name:  "msg",
					Value: "hi",
					OnChange: []Hook{{
						Func:   func(_, _ any, _ string, _ Var) { fires++ },
						Agents: []string{"*"},
					}},
				})
			},
		},
	})
	if err != nil {
		t.Fatalf("NewRoot failed: %v", err)
	}

	// Construction itself must not fire the declared hooks.
	if fires != 0 {
		t.Errorf("hook fired %d times during construction, want 0", fires)
	}
	msg, _ := root.Find("msg")
	if _, err := msg.Set("hello", "web"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if fires != 1 {
		t.Errorf("hook fired %d times, want 1", fires)
	}
}

func TestFind_ErrorNamesSiblings(t *testing.T) {
	t.Parallel()

	root := buildTree(t, nil)
	_, err := root.Find("cam/iris")
	if err == nil {
		t.Fatal("Find(cam/iris) should fail")
	}
	if !strings.Contains(err.Error(), "gain") {
		t.Errorf("error %q should list the sibling names", err)
	}
}
