// Specula - Watchable Values and Home Dashboard Toolkit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/specula

package updates

import (
	"fmt"

	"github.com/tomtom215/specula/internal/metrics"
	"github.com/tomtom215/specula/internal/vars"
	"github.com/tomtom215/specula/internal/watch"
)

// Linkable is the narrow view of an observable value a page link needs:
// render the current display form, apply a user edit, observe app-side
// changes. Both value generations qualify through the adapters below.
type Linkable interface {
	// Render returns the value's current display form.
	Render() string
	// ApplyUser sets the value from its string form on behalf of the
	// dashboard user and returns the canonical display form afterwards.
	ApplyUser(value string) (string, error)
	// OnAppChange registers fn for application-side changes and returns
	// the removal func.
	OnAppChange(fn func(newValue string)) (func(), error)
}

// watchLink adapts a current-generation watchable.
type watchLink struct {
	v watch.Watchable
}

// ForWatchable wraps a watch value for page linking, using the canonical
// app/user agents.
func ForWatchable(v watch.Watchable) Linkable {
	return watchLink{v: v}
}

func (l watchLink) Render() string {
	return fmt.Sprint(l.v.Get())
}

func (l watchLink) ApplyUser(value string) (string, error) {
	if _, err := l.v.SetString(value, watch.AgentUser); err != nil {
		return "", err
	}
	return fmt.Sprint(l.v.Get()), nil
}

func (l watchLink) OnAppChange(fn func(string)) (func(), error) {
	return l.v.AddNotify(watch.AgentApp, func(_, _ any, agent watch.Agent, _ watch.Watchable) {
		metrics.RecordValueNotification(string(agent))
		// Render after the change, not the raw callback value: kinds with
		// display hooks (enums) queue the entry text, not the index.
		fn(fmt.Sprint(l.v.Get()))
	})
}

// varLink adapts a first-generation var.
type varLink struct {
	v vars.Var
}

// ForVar wraps a vars tree node for page linking, using the canonical
// app/user agent names. The var's tree must know both agents.
func ForVar(v vars.Var) Linkable {
	return varLink{v: v}
}

func (l varLink) Render() string {
	return fmt.Sprint(l.v.Get())
}

func (l varLink) ApplyUser(value string) (string, error) {
	if _, err := l.v.SetString(value, string(watch.AgentUser)); err != nil {
		return "", err
	}
	return fmt.Sprint(l.v.Get()), nil
}

func (l varLink) OnAppChange(fn func(string)) (func(), error) {
	return l.v.AddNotify(func(_, _ any, agent string, _ vars.Var) {
		metrics.RecordValueNotification(agent)
		fn(fmt.Sprint(l.v.Get()))
	}, string(watch.AgentApp))
}
