// Specula - Watchable Values and Home Dashboard Toolkit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/specula

package api

import (
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/tomtom215/specula/internal/logging"
	"github.com/tomtom215/specula/internal/metrics"
	"github.com/tomtom215/specula/internal/models"
	"github.com/tomtom215/specula/internal/netinf"
)

const appVersion = "1.0.0"

// setValueRequest is the body of a value update through the JSON API.
type setValueRequest struct {
	Value string `json:"value"`
}

// Health reports liveness plus the live object counts the dashboard shows.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	health := models.HealthStatus{
		Status:  "healthy",
		Version: appVersion,
		Uptime:  time.Since(h.startTime).Seconds(),
	}
	if h.registry != nil {
		health.ActivePages = h.registry.Len()
	}
	if h.hub != nil {
		health.WebSocketClients = h.hub.GetClientCount()
	}
	respondSuccess(w, health)
}

// HealthLive is the bare liveness probe.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, map[string]string{"status": "alive"})
}

// valueName extracts the hierarchic value name from the wildcard tail,
// so names with slashes route untouched.
func valueName(r *http.Request) string {
	return strings.Trim(chi.URLParam(r, "*"), "/")
}

// ValueDump returns every value in the tree as nested maps.
func (h *Handler) ValueDump(w http.ResponseWriter, r *http.Request) {
	if h.values == nil {
		respondError(w, http.StatusServiceUnavailable, errCodeUnavailable, "no value tree attached", nil)
		return
	}
	respondSuccess(w, h.values.Dump())
}

// ValueGet returns one value's display form.
func (h *Handler) ValueGet(w http.ResponseWriter, r *http.Request) {
	if h.values == nil {
		respondError(w, http.StatusServiceUnavailable, errCodeUnavailable, "no value tree attached", nil)
		return
	}
	name := valueName(r)
	value, err := h.values.Get(name)
	if err != nil {
		respondError(w, http.StatusNotFound, errCodeNotFound, err.Error(), nil)
		return
	}
	respondSuccess(w, models.ValueInfo{Name: name, Value: value})
}

// ValueSet pushes the request body's value through the named value's
// parser. Rejections come back as validation errors carrying the
// value's own message.
func (h *Handler) ValueSet(w http.ResponseWriter, r *http.Request) {
	if h.values == nil {
		respondError(w, http.StatusServiceUnavailable, errCodeUnavailable, "no value tree attached", nil)
		return
	}
	name := valueName(r)
	if _, err := h.values.Get(name); err != nil {
		respondError(w, http.StatusNotFound, errCodeNotFound, err.Error(), nil)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxPostBody))
	if err != nil {
		respondError(w, http.StatusBadRequest, errCodeBadRequest, "request body unreadable", err)
		return
	}
	var req setValueRequest
	if err := json.Unmarshal(body, &req); err != nil {
		respondError(w, http.StatusBadRequest, errCodeBadRequest, "malformed JSON body", err)
		return
	}

	rendered, err := h.values.Set(name, req.Value)
	if err != nil {
		metrics.RecordValidationFailure(name, "rejected")
		respondError(w, http.StatusBadRequest, errCodeValidation, err.Error(), nil)
		return
	}
	metrics.RecordValueChange("api", name)
	h.autosave()
	respondSuccess(w, models.ValueInfo{Name: name, Value: rendered})
}

// autosave persists user-adjustable values after a successful change
// when the store asks for it. Failures are logged, not surfaced: the
// change itself already took.
func (h *Handler) autosave() {
	if h.store == nil || !h.store.Autosave() || h.values == nil {
		return
	}
	if err := h.store.Save(h.values.Settings()); err != nil {
		logging.Warn().Err(err).Str("path", h.store.Path()).Msg("settings autosave failed")
	}
}

// NetInterfaces lists the host's interfaces with their IPv4 addresses.
func (h *Handler) NetInterfaces(w http.ResponseWriter, r *http.Request) {
	ifaces, err := netinf.Interfaces(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, errCodeInternal, "interface scan failed", err)
		return
	}
	respondSuccess(w, ifaces)
}

// SettingsSave writes the tree's user-adjustable values to the settings file.
func (h *Handler) SettingsSave(w http.ResponseWriter, r *http.Request) {
	if h.store == nil || h.values == nil {
		respondError(w, http.StatusServiceUnavailable, errCodeUnavailable, "no settings store attached", nil)
		return
	}
	values := h.values.Settings()
	if err := h.store.Save(values); err != nil {
		respondError(w, http.StatusInternalServerError, errCodeInternal, "settings save failed", err)
		return
	}
	if h.hub != nil {
		h.hub.BroadcastSettingsSaved(h.store.Path(), len(values))
	}
	respondSuccess(w, models.SettingsInfo{Path: h.store.Path(), Count: len(values)})
}

// SettingsLoad reads the settings file and applies it to the tree.
func (h *Handler) SettingsLoad(w http.ResponseWriter, r *http.Request) {
	if h.store == nil || h.values == nil {
		respondError(w, http.StatusServiceUnavailable, errCodeUnavailable, "no settings store attached", nil)
		return
	}
	values, err := h.store.Load()
	if err != nil {
		respondError(w, http.StatusInternalServerError, errCodeInternal, "settings load failed", err)
		return
	}
	if err := h.values.ApplySettings(values); err != nil {
		respondError(w, http.StatusBadRequest, errCodeValidation, err.Error(), nil)
		return
	}
	respondSuccess(w, models.SettingsInfo{Path: h.store.Path(), Count: len(values)})
}

// Perf returns per-endpoint latency stats gathered by the performance
// monitor middleware.
func (h *Handler) Perf(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, h.GetPerformanceStats())
}
