// Specula - Watchable Values and Home Dashboard Toolkit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/specula

// Package auth implements session authentication for the dashboard API.
//
// Specula has a single configured account. Its password is stored as a
// bcrypt hash in the config file (generated with `specula passwd`), and a
// successful login issues an HS256 JWT that travels either as a Bearer
// header or as an HTTP-only "token" cookie. The cookie path exists so the
// browser dashboard can fetch pages, update streams and video without
// attaching headers from JavaScript.
//
// # Components
//
//   - JWTManager: issues and validates session tokens.
//   - PasswordVerifier: constant-time credential check against the
//     configured bcrypt hash.
//   - Middleware: Authenticate wraps protected handlers; when auth is
//     disabled in the config every request passes through.
//   - LockoutManager: brute-force protection for the login endpoint,
//     tracking both usernames and client addresses with exponential
//     backoff (5 attempts, 15 minute base lockout, capped at 24h).
//   - RateLimiter: per-client token bucket used by handlers that want
//     limiting independent of the router-level limits.
//
// # Usage
//
//	verifier, err := auth.NewPasswordVerifier(cfg.Auth.Username, cfg.Auth.PasswordHash)
//	mw, err := auth.NewMiddleware(&cfg.Auth)
//	handlers := auth.NewHandlers(mw.JWTManager(), verifier, lockoutManager)
//
//	mux.HandleFunc("/api/v1/auth/login", handlers.Login)
//	mux.HandleFunc("/api/v1/values", mw.Authenticate(valuesHandler))
//
// All types are safe for concurrent use.
package auth
