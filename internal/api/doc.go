// Specula - Watchable Values and Home Dashboard Toolkit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/specula

/*
Package api provides the HTTP layer for Specula.

An app describes its web face as a Table: named entries for built pages,
value updates, event and camera streams, ranged video, redirects and JSON
queries, plus POST handlers. The router mounts the table alongside a
fixed surface it owns outright.

Key Components:

  - Table: the app's serve entries, one per page name
  - Handler: request handlers for table entries and the JSON API
  - Router: Chi route configuration and middleware stack
  - ValueStore: uniform access to a watchable group or var tree
  - Response formatting: standardized JSON envelopes with metadata

Routes:

1. Served Pages (from the Table):
  - Built HTML pages, static or with live update lists
  - Value updates (t/v/p query params) from page widgets
  - Server-sent event streams of pending updates
  - MJPEG camera streams and byte-ranged video
  - Redirects and fixed-parameter JSON queries

2. JSON API (/api/v1/):
  - Health checks (health, health/live)
  - Authentication (auth/login, auth/logout, auth/me)
  - Value tree dump, single value get and set
  - Network interface inventory
  - Settings save and load

3. Infrastructure:
  - /metrics: Prometheus scrape endpoint
  - /ws: dashboard push socket (value changes, settings events)
  - /static/: asset files from the configured root

Usage Example:

	import (
	    "github.com/tomtom215/specula/internal/api"
	    "github.com/tomtom215/specula/internal/auth"
	)

	table := &api.Table{
	    GET: map[string]api.Entry{
	        "":      api.Redirect("index.html"),
	        "index": api.DynamicPage(buildIndex),
	    },
	}

	handler, _ := api.NewHandler(cfg, table, registry, hub, store, values)
	authMw, _ := auth.NewMiddleware(&cfg.Auth)
	router := api.NewRouter(handler, authMw)

	http.ListenAndServe(":8000", router.Setup())

Thread Safety:

All handlers are safe for concurrent requests. The table itself is read
only after Setup; live state lives behind the registry, hub and value
store locks.

Security:

  - JWT validation on the JSON API when auth is enabled
  - Per-group rate limiting, strictest on login
  - Security headers on API, static and health responses
  - Origin checks on WebSocket upgrades

See Also:

  - internal/updates: page update lists and their registry
  - internal/watch: watchable values served by the tree endpoints
  - internal/websocket: the dashboard push hub
  - internal/middleware: HTTP middleware components
*/
package api
