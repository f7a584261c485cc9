// Specula - Watchable Values and Home Dashboard Toolkit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/specula

// Package config loads and validates Specula configuration.
//
// Configuration is layered with koanf v2:
//
//  1. Built-in defaults
//  2. An optional YAML file (specula.yaml, or the path in SPECULA_CONFIG)
//  3. Environment variables
//
// Later layers override earlier ones, so a container deployment can run
// entirely on environment variables while a bare install uses one YAML
// file. Environment variables map through an explicit allowlist
// (HTTP_PORT, LOG_LEVEL, SETTINGS_PATH, ...); unknown variables are
// ignored rather than guessed at.
//
//	cfg, err := config.LoadWithKoanf()
//	if err != nil {
//	    logging.Fatal().Err(err).Msg("cannot load configuration")
//	}
//
// Validation combines struct tags (ranges, enumerations) with hand checks
// for couplings tags cannot express, such as auth being enabled without a
// signing secret.
//
// The package also carries the admin password policy enforced by
// `specula passwd` when generating the bcrypt hash stored in
// auth.password_hash.
package config
