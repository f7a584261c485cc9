// Specula - Watchable Values and Home Dashboard Toolkit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/specula

package config

import (
	"fmt"
	"time"

	"github.com/tomtom215/specula/internal/validation"
)

// Config is the root configuration for Specula.
// Values are loaded in layers: built-in defaults, then an optional YAML
// file, then environment variables. See LoadWithKoanf.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Auth     AuthConfig     `koanf:"auth"`
	Logging  LoggingConfig  `koanf:"logging"`
	Settings SettingsConfig `koanf:"settings"`
	Updates  UpdatesConfig  `koanf:"updates"`
	Streams  StreamsConfig  `koanf:"streams"`
}

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	// Host is the bind address.
	Host string `koanf:"host" validate:"required"`

	// Port is the listen port.
	Port int `koanf:"port" validate:"gte=1,lte=65535"`

	// StaticRoot is the directory served for plain page requests.
	StaticRoot string `koanf:"static_root" validate:"required"`

	// ReadHeaderTimeout bounds how long reading request headers may take.
	// Body and write timeouts stay unset because SSE and MJPEG responses
	// are long-lived by design.
	ReadHeaderTimeout time.Duration `koanf:"read_header_timeout"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// CORSOrigins lists allowed CORS origins.
	CORSOrigins []string `koanf:"cors_origins"`

	// RateLimitReqs is the number of requests allowed per window per client.
	RateLimitReqs int `koanf:"rate_limit_reqs" validate:"gte=1"`

	// RateLimitWindow is the rate limit window.
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`

	// RateLimitDisabled turns request rate limiting off entirely.
	RateLimitDisabled bool `koanf:"rate_limit_disabled"`

	// MetricsEnabled exposes Prometheus metrics on /metrics.
	MetricsEnabled bool `koanf:"metrics_enabled"`
}

// AuthConfig holds authentication settings for the JSON API.
// The plain page and stream endpoints are never behind auth; only the
// /api/v1 surface is, and only when Enabled is true.
type AuthConfig struct {
	// Enabled turns JWT authentication on for the API.
	Enabled bool `koanf:"enabled"`

	// JWTSecret signs session tokens. Minimum 32 bytes when auth is on.
	JWTSecret string `koanf:"jwt_secret"`

	// SessionTimeout is the token lifetime.
	SessionTimeout time.Duration `koanf:"session_timeout"`

	// Username is the admin login name.
	Username string `koanf:"username"`

	// PasswordHash is the bcrypt hash of the admin password.
	// Generate one with `specula passwd`.
	PasswordHash string `koanf:"password_hash"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error fatal disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// SettingsConfig holds saved-settings persistence options.
type SettingsConfig struct {
	// Path is the JSON file holding saved variable values.
	Path string `koanf:"path" validate:"required"`

	// Autosave writes the file after every successful API value change.
	// When false, values persist only on an explicit save request.
	Autosave bool `koanf:"autosave"`
}

// UpdatesConfig tunes the page update registry and its streams.
type UpdatesConfig struct {
	// PollInterval is the delay between update frames on an update stream.
	PollInterval time.Duration `koanf:"poll_interval"`

	// PageExpiry is how long an untouched page registration survives.
	PageExpiry time.Duration `koanf:"page_expiry"`

	// ReaperInterval is how often expired registrations are swept.
	ReaperInterval time.Duration `koanf:"reaper_interval"`
}

// StreamsConfig tunes the camera and video streaming endpoints.
type StreamsConfig struct {
	// MediaRoot is the directory video files are served from.
	MediaRoot string `koanf:"media_root" validate:"required"`

	// FrameRate caps MJPEG frames per second.
	FrameRate float64 `koanf:"frame_rate" validate:"gt=0,lte=60"`
}

// Validate checks the configuration for errors.
// Struct tags cover ranges and enumerations; couplings and durations,
// which tags cannot express, are checked by hand here.
func (c *Config) Validate() error {
	if verr := validation.ValidateStruct(c); verr != nil {
		return fmt.Errorf("config: %s", verr.Error())
	}

	if c.Server.ReadHeaderTimeout < 0 {
		return fmt.Errorf("config: server.read_header_timeout must not be negative")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("config: server.shutdown_timeout must be positive")
	}
	if !c.Server.RateLimitDisabled && c.Server.RateLimitWindow <= 0 {
		return fmt.Errorf("config: server.rate_limit_window must be positive when rate limiting is enabled")
	}

	if c.Updates.PollInterval <= 0 {
		return fmt.Errorf("config: updates.poll_interval must be positive")
	}
	if c.Updates.ReaperInterval <= 0 {
		return fmt.Errorf("config: updates.reaper_interval must be positive")
	}
	if c.Updates.PageExpiry <= c.Updates.PollInterval {
		return fmt.Errorf("config: updates.page_expiry must exceed updates.poll_interval")
	}

	if c.Auth.Enabled {
		if len(c.Auth.JWTSecret) < 32 {
			return fmt.Errorf("config: auth.jwt_secret must be at least 32 bytes when auth is enabled")
		}
		if c.Auth.Username == "" {
			return fmt.Errorf("config: auth.username is required when auth is enabled")
		}
		if c.Auth.PasswordHash == "" {
			return fmt.Errorf("config: auth.password_hash is required when auth is enabled")
		}
		if c.Auth.SessionTimeout <= 0 {
			return fmt.Errorf("config: auth.session_timeout must be positive when auth is enabled")
		}
	}

	return nil
}
