// Specula - Watchable Values and Home Dashboard Toolkit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/specula

package watch

import (
	"errors"
	"fmt"
)

// Def declares one member of a Group: its name, whether its value belongs
// in saved settings, and how to build it.
type Def struct {
	Name    string
	Persist bool
	Make    func(app *App) (Watchable, error)
}

// Group builds and owns a named set of watchables from declarations,
// overriding defaults from saved settings. Members that fail to build are
// logged and skipped so one bad declaration does not take the set down;
// saved values that fail validation are logged and the default kept.
type Group struct {
	app   *App
	names []string
	vars  map[string]Watchable
	pers  []string
}

// NewGroup builds the members declared in defs, applying any saved values
// found in settings (keyed by member name). settings may be nil.
func NewGroup(app *App, settings map[string]any, defs []Def) *Group {
	g := &Group{app: app, vars: make(map[string]Watchable, len(defs))}
	for _, def := range defs {
		if def.Name == "" || def.Make == nil {
			app.logger.Error().Str("member", def.Name).Msg("skipping malformed member definition")
			continue
		}
		if _, dup := g.vars[def.Name]; dup {
			app.logger.Error().Str("member", def.Name).Msg("skipping duplicate member definition")
			continue
		}
		w, err := def.Make(app)
		if err != nil {
			app.logger.Error().Err(err).Str("member", def.Name).Msg("member failed to build, skipping")
			continue
		}
		g.vars[def.Name] = w
		g.names = append(g.names, def.Name)
		if def.Persist {
			g.pers = append(g.pers, def.Name)
		}
		if saved, ok := settings[def.Name]; ok {
			if _, err := w.Set(saved, AgentApp); err != nil {
				app.logger.Warn().Err(err).Str("member", def.Name).Msg("saved setting rejected, keeping default")
			}
		}
	}
	return g
}

// App returns the App the members share.
func (g *Group) App() *App { return g.app }

// Var returns the named member.
func (g *Group) Var(name string) (Watchable, bool) {
	w, ok := g.vars[name]
	return w, ok
}

// Member returns the named member of g with its concrete type.
func Member[W Watchable](g *Group, name string) (W, bool) {
	var zero W
	w, ok := g.vars[name]
	if !ok {
		return zero, false
	}
	cw, ok := w.(W)
	if !ok {
		return zero, false
	}
	return cw, true
}

// Names returns the member names in declaration order.
func (g *Group) Names() []string {
	return append([]string(nil), g.names...)
}

// Persistent returns the names of the members whose values belong in saved
// settings, in declaration order.
func (g *Group) Persistent() []string {
	return append([]string(nil), g.pers...)
}

// FetchSettings returns the current values of the persistent members, keyed
// by name, in the shape SaveSettings wants.
func (g *Group) FetchSettings() map[string]any {
	out := make(map[string]any, len(g.pers))
	for _, name := range g.pers {
		out[name] = g.vars[name].Get()
	}
	return out
}

// ApplySettings sets the persistent members named in settings to the given
// values as agent. Entries naming unknown or non-persistent members are
// ignored. Values that fail validation are logged and skipped; the joined
// errors are returned after all entries were tried.
func (g *Group) ApplySettings(settings map[string]any, agent Agent) error {
	var errs []error
	for _, name := range g.pers {
		value, ok := settings[name]
		if !ok {
			continue
		}
		if _, err := g.vars[name].Set(value, agent); err != nil {
			g.app.logger.Warn().Err(err).Str("member", name).Msg("setting rejected")
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// Values returns the current values of every member, keyed by name.
func (g *Group) Values() map[string]any {
	out := make(map[string]any, len(g.names))
	for _, name := range g.names {
		out[name] = g.vars[name].Get()
	}
	return out
}
