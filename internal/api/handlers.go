// Specula - Watchable Values and Home Dashboard Toolkit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/specula

package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/specula/internal/config"
	"github.com/tomtom215/specula/internal/logging"
	"github.com/tomtom215/specula/internal/middleware"
	"github.com/tomtom215/specula/internal/settings"
	"github.com/tomtom215/specula/internal/updates"
	ws "github.com/tomtom215/specula/internal/websocket"
)

// Handler carries the dependencies of all HTTP handlers.
//
// Handler methods are split across files by concern:
//   - handlers.go: struct, constructor, WebSocket upgrader (this file)
//   - handlers_core.go: the /api/v1 endpoints
//   - pages.go: route-table page serving
//   - streams.go: SSE, MJPEG and ranged video serving
//   - static.go: /static file serving with the fixed suffix table
//   - websocket.go: the /ws upgrade endpoint
type Handler struct {
	config    *config.Config
	table     *Table
	registry  *updates.Registry
	hub       *ws.Hub
	store     *settings.Store
	values    ValueStore
	startTime time.Time
	perfMon   *middleware.PerformanceMonitor
}

// NewHandler creates the API handler. The table is validated here so a
// malformed entry fails startup rather than its first request. hub,
// store and values may be nil; the endpoints needing them answer 503.
func NewHandler(cfg *config.Config, table *Table, registry *updates.Registry, hub *ws.Hub, store *settings.Store, values ValueStore) (*Handler, error) {
	if err := table.Validate(); err != nil {
		return nil, err
	}

	return &Handler{
		config:    cfg,
		table:     table,
		registry:  registry,
		hub:       hub,
		store:     store,
		values:    values,
		startTime: time.Now(),
		perfMon:   middleware.NewPerformanceMonitor(1000),
	}, nil
}

// PerformanceMonitor returns the request tracker so the router can
// install its middleware.
func (h *Handler) PerformanceMonitor() *middleware.PerformanceMonitor {
	return h.perfMon
}

// GetPerformanceStats returns per-endpoint latency statistics.
func (h *Handler) GetPerformanceStats() []middleware.EndpointStats {
	return h.perfMon.GetStats()
}

// getUpgrader creates a WebSocket upgrader with origin checking and a
// handshake timeout against slow clients.
func (h *Handler) getUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      h.checkWebSocketOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
}

// checkWebSocketOrigin validates WebSocket connection origins.
func (h *Handler) checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")

	// Browsers always send Origin on WebSocket requests. An empty one
	// means a non-browser client, which would bypass CORS entirely.
	if origin == "" {
		logging.Warn().Msg("WebSocket connection rejected: missing Origin header")
		return false
	}

	// No config means a test harness; fail open.
	if h.config == nil {
		return true
	}

	for _, allowed := range h.config.Server.CORSOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}

	logging.Warn().Str("origin", sanitizeLogValue(origin)).Msg("WebSocket connection rejected from unauthorized origin")
	return false
}
