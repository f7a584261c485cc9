// Specula - Watchable Values and Home Dashboard Toolkit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/specula

package api

import (
	"net/http"

	"github.com/tomtom215/specula/internal/logging"
	"github.com/tomtom215/specula/internal/metrics"
	ws "github.com/tomtom215/specula/internal/websocket"
)

// WebSocket upgrades the connection and hands it to the hub. Clients
// receive value-change and settings events; they never send commands.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	if h.hub == nil {
		respondError(w, http.StatusServiceUnavailable, errCodeUnavailable, "WebSocket service not available", nil)
		return
	}

	conn, err := h.getUpgrader().Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the handshake failure to the client.
		logging.Warn().Err(err).Str("remote", r.RemoteAddr).Msg("WebSocket upgrade failed")
		metrics.RecordWSError("upgrade_failed")
		return
	}

	client := ws.NewClient(h.hub, conn)
	h.hub.Register <- client
	client.Start()

	logging.Debug().Str("remote", r.RemoteAddr).Msg("WebSocket client connected")
}
