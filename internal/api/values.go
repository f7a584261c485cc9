// Specula - Watchable Values and Home Dashboard Toolkit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/specula

package api

import (
	"fmt"

	"github.com/tomtom215/specula/internal/vars"
	"github.com/tomtom215/specula/internal/watch"
)

// ValueStore is the value tree the JSON API reads and writes. Both value
// generations qualify through the adapters below; the serving app picks
// which tree the API operates on.
type ValueStore interface {
	// Dump returns every value in the tree keyed by name, groups nesting
	// as maps.
	Dump() map[string]any
	// Get returns the display form of one value.
	Get(name string) (string, error)
	// Set applies a user edit from its string form and returns the
	// canonical display form after the set.
	Set(name, value string) (string, error)
	// Settings returns the name to value map worth persisting.
	Settings() map[string]any
	// ApplySettings feeds a saved map back into the tree.
	ApplySettings(values map[string]any) error
}

// watchStore adapts a current-generation value group.
type watchStore struct {
	group *watch.Group
}

// WatchStore exposes a watch group to the JSON API, editing with the
// canonical user agent.
func WatchStore(g *watch.Group) ValueStore {
	return &watchStore{group: g}
}

func (s *watchStore) Dump() map[string]any {
	return s.group.Values()
}

func (s *watchStore) Get(name string) (string, error) {
	v, ok := s.group.Var(name)
	if !ok {
		return "", fmt.Errorf("no value named %q", name)
	}
	return fmt.Sprint(v.Get()), nil
}

func (s *watchStore) Set(name, value string) (string, error) {
	v, ok := s.group.Var(name)
	if !ok {
		return "", fmt.Errorf("no value named %q", name)
	}
	if _, err := v.SetString(value, watch.AgentUser); err != nil {
		return "", err
	}
	return fmt.Sprint(v.Get()), nil
}

func (s *watchStore) Settings() map[string]any {
	return s.group.FetchSettings()
}

func (s *watchStore) ApplySettings(values map[string]any) error {
	return s.group.ApplySettings(values, watch.AgentUser)
}

// varStore adapts a first-generation value tree. Persistence follows the
// tree's filter labels rather than per-member persist flags.
type varStore struct {
	root  *vars.Root
	label string
}

// VarStore exposes a vars tree to the JSON API. Leaves carrying
// persistLabel in their filter set are the ones saved and restored. The
// tree must know the canonical user agent name.
func VarStore(root *vars.Root, persistLabel string) ValueStore {
	return &varStore{root: root, label: persistLabel}
}

func (s *varStore) Dump() map[string]any {
	if m, ok := s.root.Get().(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

func (s *varStore) Get(name string) (string, error) {
	v, err := s.root.Find(name)
	if err != nil {
		return "", err
	}
	return v.String(), nil
}

func (s *varStore) Set(name, value string) (string, error) {
	v, err := s.root.Find(name)
	if err != nil {
		return "", err
	}
	if _, err := v.SetString(value, string(watch.AgentUser)); err != nil {
		return "", err
	}
	return v.String(), nil
}

func (s *varStore) Settings() map[string]any {
	if m := s.root.Filtered(s.label); m != nil {
		return m
	}
	return map[string]any{}
}

func (s *varStore) ApplySettings(values map[string]any) error {
	if len(values) == 0 {
		return nil
	}
	_, err := s.root.Set(values, string(watch.AgentUser))
	return err
}
