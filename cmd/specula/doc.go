// Specula - Watchable Values and Home Dashboard Toolkit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/specula

/*
Package main is the entry point for the Specula server application.

Specula serves a home dashboard backed by observable typed values: the
pages it serves are bound to live values, edits flow back through the
same bindings, camera and video streams sit alongside, and a JSON API
plus a WebSocket feed expose the whole value tree to richer frontends.

# Application Architecture

The server implements a layered architecture with Suture v4 process
supervision:

	RootSupervisor ("specula")
	├── PagesSupervisor ("pages-layer")
	│   └── Updates Reaper (sweeps idle page registrations)
	├── MessagingSupervisor ("messaging-layer")
	│   └── WebSocket Hub (value change push)
	└── APISupervisor ("api-layer")
	    ├── HTTP Server (pages, streams, JSON API)
	    └── Uptime Ticker (metrics)

Component initialization order:

 1. Configuration: Koanf v2 with environment variables and config files
 2. Logging: zerolog with JSON/console output modes
 3. Settings: saved values loaded from the flat JSON settings file
 4. Value tree: the demo group built from its declarations plus settings
 5. WebSocket Hub: value change notifications to connected dashboards
 6. Route table: page names mapped to pages, streams and update entries
 7. Authentication: optional JWT guard over the JSON API
 8. Supervisor Tree: Suture v4 process supervision
 9. HTTP Server: Chi router with middleware stack

# Configuration

Configuration is loaded via Koanf v2 with layered sources (highest
priority wins):

	Priority: Environment variables > Config file > Defaults

Core environment variables:

	# Server
	HTTP_HOST=0.0.0.0            # Bind address
	HTTP_PORT=8000               # HTTP server port
	LOG_LEVEL=info               # trace, debug, info, warn, error
	LOG_FORMAT=json              # json or console

	# Persistence
	SETTINGS_PATH=specula_settings.json
	SETTINGS_AUTOSAVE=false      # Write settings after every API value change

	# Streams
	MEDIA_ROOT=./media           # Directory video files are served from
	CAM_FRAME_RATE=8             # MJPEG frames per second cap

	# Authentication (optional, off by default)
	AUTH_ENABLED=false
	JWT_SECRET=<32+ chars>       # Required when auth is enabled
	ADMIN_USERNAME=admin
	ADMIN_PASSWORD_HASH=<bcrypt> # Generate with `specula passwd`

The config file is searched at specula.yaml, specula.yml,
/etc/specula/specula.yaml and /etc/specula/specula.yml, or named
explicitly with SPECULA_CONFIG or --config.

# Commands

	specula serve        # Run the dashboard server
	specula interfaces   # List network interfaces and their addresses
	specula passwd       # Hash a dashboard password for the config

serve flags: --config (config file path), --settings (settings file
path, overrides the configured one), --interactive (read the console
while serving: q + Enter stops the server), --log-level (overrides the
configured level), --log-file (append JSON logs to a file instead of
stderr).

# Signal Handling

The server handles graceful shutdown on SIGINT and SIGTERM:

 1. Stops accepting new HTTP connections
 2. Ends open update, camera and WebSocket streams
 3. Waits for in-flight requests (configurable timeout)
 4. Closes page registrations and drops value observers
 5. Reports any services that failed to stop

# Usage Examples

Development (console logs, no auth):

	export LOG_FORMAT=console
	go run ./cmd/specula serve --interactive

Production (JWT over the API):

	export AUTH_ENABLED=true
	export JWT_SECRET=$(openssl rand -base64 32)
	export ADMIN_USERNAME=admin
	export ADMIN_PASSWORD_HASH=$(specula passwd 'secure-password')
	./specula serve

# See Also

  - internal/config: Configuration management
  - internal/supervisor: Process supervision
  - internal/api: HTTP handlers, routing and the route table
  - internal/watch: Observable values
  - internal/updates: Page/value bindings
*/
package main
