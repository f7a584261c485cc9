// Specula - Watchable Values and Home Dashboard Toolkit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/specula

package models

import (
	"time"
)

// APIResponse is the standardized response wrapper used by every JSON
// endpoint under /api/v1. It provides a consistent structure for both
// successful and error responses.
//
// Status field values:
//   - "success": request completed, see Data
//   - "error": request failed, see Error
//
// Example successful response:
//
//	{
//	  "status": "success",
//	  "data": {"exposure": "125"},
//	  "metadata": {"timestamp": "2026-08-23T12:00:00Z"}
//	}
//
// Example error response:
//
//	{
//	  "status": "error",
//	  "error": {"code": "VALIDATION_ERROR", "message": "7 above maximum 5"},
//	  "metadata": {"timestamp": "2026-08-23T12:00:00Z"}
//	}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata carries response metadata. Every response includes the server
// time it was generated at, which the dashboard uses to reason about
// staleness of displayed values.
type Metadata struct {
	Timestamp time.Time `json:"timestamp"`
}

// APIError is a structured error with a machine-readable code and a
// human-readable message.
//
// Common codes:
//   - VALIDATION_ERROR: a value failed its range or membership check
//   - NOT_FOUND: no value or page under that name
//   - AUTHENTICATION_ERROR: invalid or missing credentials
//   - INTERNAL_ERROR: app code failed while building the response
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// HealthStatus is the payload of the health endpoint.
type HealthStatus struct {
	// Status is "healthy" or "degraded".
	Status string `json:"status"`

	// Version is the server version string.
	Version string `json:"version"`

	// Uptime is seconds since the server started.
	Uptime float64 `json:"uptime"`

	// ActivePages is the number of live page update lists.
	ActivePages int `json:"active_pages"`

	// WebSocketClients is the number of connected dashboard sockets.
	WebSocketClients int `json:"websocket_clients"`
}

// ValueInfo is the payload of the single-value endpoints: the hierarchic
// name of a value and its display form.
type ValueInfo struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// SettingsInfo reports the outcome of a settings save or load.
type SettingsInfo struct {
	Path  string `json:"path"`
	Count int    `json:"count"`
}
