// Specula - Watchable Values and Home Dashboard Toolkit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/specula

package api

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/specula/internal/logging"
	"github.com/tomtom215/specula/internal/metrics"
	"github.com/tomtom215/specula/internal/updates"
)

// maxPostBody bounds JSON POST bodies. Dashboard posts are tiny; a
// megabyte is already generous.
const maxPostBody = 1 << 20

// PageEntry returns the handler serving one GET table entry.
func (h *Handler) PageEntry(name string, e Entry) http.HandlerFunc {
	switch e.Kind {
	case KindStaticPage:
		return h.staticPage(name, e.page)
	case KindDynamicPage:
		return h.dynamicPage(name, e.dynamic)
	case KindValueUpdate:
		return h.ValueUpdate
	case KindUpdateStream:
		return h.updateStream(name, e.poll)
	case KindCameraStream:
		return h.cameraStream(name, e.source)
	case KindVideoStream:
		return h.videoStream(name, e.resolve)
	case KindRedirect:
		return h.redirect(e.location)
	case KindQuery:
		return h.queryPage(name, e.query, e.fixed)
	default:
		// Validate rejects unknown kinds; reaching this is a bug.
		return func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "unknown entry kind", http.StatusInternalServerError)
		}
	}
}

// buildPage runs an app page function, turning errors and panics into a
// nil result so one broken page cannot take the server down.
func (h *Handler) buildPage(name string, fn func() (*PageResult, error)) (res *PageResult) {
	defer func() {
		if p := recover(); p != nil {
			logging.Error().Str("page", name).Interface("panic", p).Msg("page build panicked")
			res = nil
		}
	}()

	out, err := fn()
	if err != nil {
		logging.Error().Err(err).Str("page", name).Msg("page build failed")
		return nil
	}
	return out
}

// sendPage writes a built page. A nil result is the app-failure case.
func (h *Handler) sendPage(w http.ResponseWriter, name string, res *PageResult) {
	if res == nil {
		http.Error(w, "page build failed", http.StatusInternalServerError)
		return
	}
	if res.Status != http.StatusOK {
		msg := string(res.Body)
		if msg == "" {
			msg = http.StatusText(res.Status)
		}
		http.Error(w, msg, res.Status)
		return
	}

	for _, hd := range res.Headers {
		w.Header().Set(hd[0], hd[1])
	}
	// Pages are HTML unless the app says otherwise.
	if w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
	}
	w.Header().Set("Content-Length", fmt.Sprint(len(res.Body)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(res.Body); err != nil {
		logging.Debug().Err(err).Str("page", name).Msg("page write failed")
	}
}

func (h *Handler) staticPage(name string, fn PageFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res := h.buildPage(name, func() (*PageResult, error) { return fn(r) })
		h.sendPage(w, name, res)
	}
}

// dynamicPage builds the page with a fresh update list. The list is
// registered only when the build succeeded and bound at least one field;
// otherwise it is closed here so its observers are released now rather
// than by the reaper.
func (h *Handler) dynamicPage(name string, fn DynamicPageFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list := updates.NewList()
		res := h.buildPage(name, func() (*PageResult, error) { return fn(r, list) })

		if res != nil && list.HasLinks() && h.registry != nil {
			h.registry.Add(list)
		} else {
			list.Close()
		}
		h.sendPage(w, name, res)
	}
}

// ValueUpdate applies a user edit from a served page: query params t
// (field id), v (new value), p (page ref). The outcome comes back as
// JSON; the page script shows the canonical value or the failure text.
func (h *Handler) ValueUpdate(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if !q.Has("t") || !q.Has("v") || !q.Has("p") {
		logging.Warn().Str("query", sanitizeLogValue(r.URL.RawQuery)).Msg("value update with missing params")
		http.Error(w, "missing request params", http.StatusBadRequest)
		return
	}

	field, value, ref := q.Get("t"), q.Get("v"), q.Get("p")

	var list *updates.List
	if h.registry != nil {
		list, _ = h.registry.Get(ref)
	}
	if list == nil {
		logging.Error().Str("ref", sanitizeLogValue(ref)).Msg("value update for unknown page ref")
		http.Error(w, "unknown update list key", http.StatusGone)
		return
	}

	res := h.applyUpdate(list, field, value)
	if res == nil {
		http.Error(w, "update failed", http.StatusInternalServerError)
		return
	}

	if res.OK {
		metrics.RecordValueChange("page", field)
	} else {
		metrics.RecordValidationFailure(field, "rejected")
	}

	data, err := json.Marshal(res)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal update result")
		http.Error(w, "update failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		logging.Debug().Err(err).Msg("value update write failed")
	}
}

// applyUpdate shields the server from panics in value observers, which
// run app code.
func (h *Handler) applyUpdate(list *updates.List, field, value string) (res *updates.ApplyResult) {
	defer func() {
		if p := recover(); p != nil {
			logging.Error().Str("field", sanitizeLogValue(field)).Interface("panic", p).Msg("value update panicked")
			res = nil
		}
	}()
	return list.Apply(field, value)
}

func (h *Handler) redirect(location string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Location", location)
		w.WriteHeader(http.StatusMovedPermanently)
	}
}

// fetchData runs an app data function, turning errors-by-panic into nil.
func (h *Handler) fetchData(name string, fn func() any) (out any) {
	defer func() {
		if p := recover(); p != nil {
			logging.Error().Str("page", name).Interface("panic", p).Msg("data fetch panicked")
			out = nil
		}
	}()
	return fn()
}

// queryPage answers a generic JSON query. Fixed params override the
// request's so served pages cannot redirect a query at other data.
func (h *Handler) queryPage(name string, fn QueryFunc, fixed url.Values) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params := r.URL.Query()
		for k, vs := range fixed {
			params[k] = vs
		}

		result := h.fetchData(name, func() any { return fn(params) })
		if result == nil {
			http.Error(w, "That didn't go well", http.StatusBadGateway)
			return
		}

		data, err := json.Marshal(result)
		if err != nil {
			logging.Error().Err(err).Str("page", name).Msg("Failed to marshal query result")
			http.Error(w, "That didn't go well", http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Content-Length", fmt.Sprint(len(data)))
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(data); err != nil {
			logging.Debug().Err(err).Str("page", name).Msg("query write failed")
		}
	}
}

// PostEntry returns the handler serving one POST table entry. Bodies
// must be JSON objects; the handler's result decides the response shape.
func (h *Handler) PostEntry(name string, fn PostFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ct := r.Header.Get("Content-Type")
		if !strings.HasPrefix(ct, "application/json") {
			logging.Warn().Str("content_type", sanitizeLogValue(ct)).Str("page", name).Msg("POST with unsupported content type")
			http.Error(w, "JSON bodies only", http.StatusInternalServerError)
			return
		}

		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxPostBody))
		if err != nil {
			logging.Warn().Err(err).Str("page", name).Msg("POST body read failed")
			http.Error(w, "body read failed", http.StatusNotImplemented)
			return
		}

		var decoded map[string]any
		if err := json.Unmarshal(body, &decoded); err != nil {
			logging.Warn().Err(err).Str("page", name).Msg("POST body is not valid JSON")
			http.Error(w, "malformed JSON body", http.StatusBadRequest)
			return
		}

		res := h.runPost(name, decoded, fn)
		if res == nil {
			http.Error(w, "post handler failed", http.StatusInternalServerError)
			return
		}

		if res.Status != http.StatusOK {
			msg := res.Message
			if msg == "" {
				msg = http.StatusText(res.Status)
			}
			http.Error(w, msg, res.Status)
			return
		}

		data, err := json.Marshal(res.Data)
		if err != nil {
			logging.Error().Err(err).Str("page", name).Msg("Failed to marshal POST result")
			http.Error(w, "post handler failed", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(data); err != nil {
			logging.Debug().Err(err).Str("page", name).Msg("POST write failed")
		}
	}
}

func (h *Handler) runPost(name string, body map[string]any, fn PostFunc) (res *PostResult) {
	defer func() {
		if p := recover(); p != nil {
			logging.Error().Str("page", name).Interface("panic", p).Msg("post handler panicked")
			res = nil
		}
	}()
	return fn(body)
}
