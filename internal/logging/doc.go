// Specula - Watchable Values and Home Dashboard Toolkit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/specula

// Package logging provides centralized zerolog-based structured logging
// for Specula.
//
// Every component logs through the same zerolog pipeline: JSON output for
// production, console output for development. Components that carry their
// own logger, such as the value trees and the connection hub, receive a
// child logger from here rather than configuring zerolog themselves.
//
// # Quick Start
//
//	import "github.com/tomtom215/specula/internal/logging"
//
//	// Initialize at application startup
//	logging.Init(logging.Config{
//	    Level:  "info",
//	    Format: "json",
//	})
//
//	// Log messages with structured fields
//	logging.Info().Str("var", "camera/gain").Msg("value changed")
//	logging.Error().Err(err).Msg("settings save failed")
//
// # Log Levels
//
// Supported levels, from most to least verbose:
//
//	trace  - very detailed diagnostic information
//	debug  - individual value changes and notifications
//	info   - general operational information (default)
//	warn   - conditions that should be addressed
//	error  - errors requiring attention
//	fatal  - errors that terminate the program
//
// # Component Loggers
//
// Create component-scoped loggers with default fields:
//
//	varsLogger := logging.WithComponent("vars")
//	varsLogger.Debug().Str("var", name).Msg("notify fired")
//
// # Request Correlation
//
// HTTP middleware stores a request ID in the context; handlers retrieve a
// correlated logger with Ctx:
//
//	logging.Ctx(r.Context()).Info().Msg("stream opened")
//
// # slog Adapter
//
// NewSlogLogger returns a *slog.Logger backed by zerolog for libraries
// that require one, such as suture's sutureslog bridge:
//
//	hook := &sutureslog.Handler{Logger: logging.NewSlogLogger()}
//
// # Thread Safety
//
// All exported functions are safe for concurrent use. The global logger
// is protected by a sync.RWMutex for configuration changes.
//
// # Testing
//
// Capture output in tests with a buffer-backed logger:
//
//	var buf bytes.Buffer
//	logger := logging.NewTestLogger(&buf)
//	logger.Info().Msg("test message")
package logging
