// Specula - Watchable Values and Home Dashboard Toolkit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/specula

/*
Package websocket pushes value changes to connected dashboards.

Polling over the update stream only tells a page about its own linked
fields. This package is the push side: a hub broadcasts every observable
value change to all connected frontend clients, so dashboards stay in
sync with each other and with application-side changes without reloading.
It uses the gorilla/websocket library with a hub-client architecture.

Key Components:

  - Hub: central broker that manages client connections and broadcasts
  - Client: a single WebSocket connection with read/write goroutines
  - Bridge: registers observers on the value trees and forwards changes
  - Message: typed message structure for the wire

Architecture:

The package implements a hub-and-spoke pattern:

	┌──────────┐
	│   Hub    │ ← Broadcasts to all clients
	└────┬─────┘
	     │
	┌────┴─────┬─────────┬─────────┐
	│          │         │         │
	│ Client1  │ Client2 │ Client3 │ Client4
	│          │         │         │
	└──────────┴─────────┴─────────┘

Each client has two goroutines:
  - readPump: reads from the WebSocket, handles pings
  - writePump: writes to the WebSocket, sends pongs and hub messages

Message Types:

  - value: one observable value changed (name, display value, agent)
  - settings_saved: the settings file was written
  - ping/pong: keepalive initiated by either side

Usage:

	hub := websocket.NewHub()
	svc := services.NewWebSocketHubService(hub)
	tree.AddService(svc)

	bridge := websocket.NewBridge(hub)
	if err := bridge.WatchGroup("camera", camGroup); err != nil {
	    logging.Warn().Err(err).Msg("some camera values are not pushed")
	}
	defer bridge.Close()

The /ws endpoint in internal/api upgrades the connection and registers
the client with the hub.

Connection Lifecycle:

1. Client connects via HTTP upgrade
2. Hub registers client
3. Client starts read/write goroutines
4. Hub broadcasts messages to all clients
5. Client disconnects (network error or explicit close)
6. Hub unregisters client and cleans up

Slow clients are dropped: when a client's send buffer fills, the hub
closes it rather than letting one stalled dashboard hold up broadcasts.

Thread Safety:

The package is fully thread-safe:
  - Hub guards its client map with a mutex
  - Channels coordinate goroutine communication
  - Each client has separate read/write goroutines

Configuration:

  - writeWait: 10 seconds (time allowed to write a message)
  - pongWait: 60 seconds (time allowed to read a pong)
  - pingPeriod: 54 seconds (ping interval, must be < pongWait)
  - maxMessageSize: 64 KB (clients only send small control frames)

See Also:

  - github.com/gorilla/websocket: underlying WebSocket library
  - internal/api: WebSocket endpoint handler
  - internal/watch, internal/vars: the observed value trees
*/
package websocket
