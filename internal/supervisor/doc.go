// Specula - Watchable Values and Home Dashboard Toolkit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/specula

/*
Package supervisor provides process supervision for Specula using suture v4.

This package implements a hierarchical supervisor tree that manages the
lifecycle of all long-running services in the application. It provides
Erlang/OTP-style supervision with automatic restart, failure isolation,
and graceful shutdown.

# Overview

The supervisor tree organizes services into three layers for failure
isolation:

	RootSupervisor ("specula")
	├── PagesSupervisor ("pages-layer")
	│   └── ReaperService (update-list expiry sweeps)
	├── MessagingSupervisor ("messaging-layer")
	│   └── WebSocketHubService
	└── APISupervisor ("api-layer")
	    ├── HTTPService
	    └── UptimeService

This hierarchy ensures that:
  - A crash in the reaper doesn't drop dashboard WebSocket connections
  - A hub restart doesn't interrupt in-flight page requests
  - Each layer can restart independently

# Usage Example

Basic setup:

	logger := logging.NewSlogLogger()
	tree, err := supervisor.NewSupervisorTree(logger, supervisor.DefaultTreeConfig())
	if err != nil {
	    logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	tree.AddPageService(services.NewReaperService(registry, cfg.Updates.ReaperInterval))
	tree.AddMessagingService(services.NewWebSocketHubService(hub))
	tree.AddAPIService(services.NewHTTPService(srv, cfg.Server.ShutdownTimeout))

	// Blocks until the context is canceled.
	if err := tree.Serve(ctx); err != nil {
	    logging.Error().Err(err).Msg("Supervisor stopped")
	}

# Configuration

The TreeConfig controls restart behavior:

	config := supervisor.TreeConfig{
	    FailureThreshold: 5.0,              // Failures before backoff
	    FailureDecay:     30.0,             // Seconds for failures to decay
	    FailureBackoff:   15 * time.Second, // Backoff duration
	    ShutdownTimeout:  10 * time.Second, // Per-service shutdown timeout
	}

Zero fields get suture's production defaults.

# Service Interface

All services must implement suture.Service:

	type Service interface {
	    Serve(ctx context.Context) error
	}

Return behavior:
  - Return nil: service stopped cleanly, will not be restarted
  - Return error: service crashed, will be restarted
  - Context canceled: shutdown requested, return promptly

# What Is NOT Supervised

The value tree and the settings store are not supervised: they are
in-process data structures whose only failure mode would require a
process restart anyway. The HTTP streams (SSE, MJPEG) live inside the
HTTP server's requests and end with it.

# Debugging Shutdown Issues

If services don't stop within the timeout:

	report, err := tree.UnstoppedServiceReport()
	for _, svc := range report {
	    logging.Warn().Str("service", svc.Name).Msg("Service didn't stop")
	}

Common causes are goroutines ignoring context cancellation and blocked
network I/O without deadlines.

# See Also

  - internal/supervisor/services: Service wrappers
  - github.com/thejerf/suture/v4: Underlying library
*/
package supervisor
