// Specula - Watchable Values and Home Dashboard Toolkit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/specula

/*
Package models defines the JSON structures shared by the HTTP API and its
clients.

The package holds only wire shapes: the standard response envelope, the
error structure inside it, and the payload types the dashboard endpoints
return. Domain types (watchable values, page update lists, interface
records) live with their own packages and marshal themselves; models
exists so the envelope is defined once and every handler speaks it.

Key types:

  - APIResponse: the envelope every /api/v1 endpoint wraps its payload in
  - APIError: code + message + optional details, carried on failure
  - HealthStatus: the health endpoint payload
  - ValueInfo / SettingsInfo: payloads of the value and settings endpoints

The envelope Status field is "success" or "error"; Data and Error are
mutually exclusive in practice, though the encoder does not enforce it.
*/
package models
