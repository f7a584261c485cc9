// Specula - Watchable Values and Home Dashboard Toolkit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/specula

/*
Package services provides suture.Service wrappers for Specula components.

This package adapts application components to the suture v4 supervision
model, translating their lifecycle patterns (ListenAndServe, Run,
RunWithContext) into suture's context-aware Serve pattern.

# Overview

Each wrapper implements the suture.Service interface:

	type Service interface {
	    Serve(ctx context.Context) error
	}

The wrappers handle:
  - Lifecycle translation to the Serve pattern
  - Graceful shutdown via context cancellation
  - Error propagation for supervisor restart decisions
  - Service identification via fmt.Stringer

# Available Services

HTTP Server (HTTPService):
  - Wraps *http.Server with graceful shutdown
  - Binds the request base context to the service context so streaming
    responses end on shutdown
  - Configurable shutdown timeout for draining connections

WebSocket Hub (WebSocketHubService):
  - Wraps websocket.Hub's RunWithContext
  - Closes all connected dashboard clients on shutdown

Update-List Reaper (ReaperService):
  - Wraps updates.Registry.Run
  - Sweeps expired page update lists on a fixed interval

Uptime Ticker (UptimeService):
  - Refreshes the Prometheus uptime gauge

# Usage Example

	srv := &http.Server{Addr: addr, Handler: router.Setup()}
	tree.AddAPIService(services.NewHTTPService(srv, cfg.Server.ShutdownTimeout))
	tree.AddAPIService(services.NewUptimeService(time.Now(), 0))
	tree.AddMessagingService(services.NewWebSocketHubService(hub))
	tree.AddPageService(services.NewReaperService(registry, cfg.Updates.ReaperInterval))

# Error Semantics

Services returning an error are restarted by the supervisor; returning
ctx.Err() after cancellation is the normal shutdown path and ends the
service with its supervisor.
*/
package services
