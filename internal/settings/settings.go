// Specula - Watchable Values and Home Dashboard Toolkit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/specula

// Package settings persists the dashboard's adjustable values as a single
// JSON document. Save writes the whole name/value map atomically; Load
// returns it for seeding value-tree construction. This file is the entire
// persistence story: there is no database and no history, just the last
// saved state.
package settings

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	json "github.com/goccy/go-json"

	"github.com/tomtom215/specula/internal/config"
	"github.com/tomtom215/specula/internal/logging"
	"github.com/tomtom215/specula/internal/metrics"
)

// Store reads and writes the settings file. All methods are safe for
// concurrent use; writes are serialized.
type Store struct {
	mu       sync.Mutex
	path     string
	autosave bool
}

// NewStore creates a store for the configured settings file.
func NewStore(cfg *config.SettingsConfig) *Store {
	return &Store{
		path:     cfg.Path,
		autosave: cfg.Autosave,
	}
}

// Path returns the settings file location.
func (s *Store) Path() string {
	return s.path
}

// Autosave reports whether value changes should be persisted as they
// happen, rather than only on explicit save requests.
func (s *Store) Autosave() bool {
	return s.autosave
}

// Load reads the settings file into a map suitable for value-tree
// construction. A missing file is not an error and yields an empty map;
// malformed JSON is an error.
func (s *Store) Load() (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			logging.Debug().Str("path", s.path).Msg("No settings file, starting with defaults")
			metrics.RecordSettingsLoad(nil)
			return map[string]any{}, nil
		}
		metrics.RecordSettingsLoad(err)
		return nil, fmt.Errorf("failed to read settings file: %w", err)
	}

	var values map[string]any
	if err := json.Unmarshal(data, &values); err != nil {
		metrics.RecordSettingsLoad(err)
		return nil, fmt.Errorf("failed to parse settings file %s: %w", s.path, err)
	}
	if values == nil {
		values = map[string]any{}
	}

	logging.Debug().Str("path", s.path).Int("keys", len(values)).Msg("Settings loaded")
	metrics.RecordSettingsLoad(nil)
	return values, nil
}

// Save writes the map as indented JSON. The write goes to a temp file in
// the target directory first and is renamed into place, so a crash never
// leaves a half-written settings file.
func (s *Store) Save(values map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.saveLocked(values)
	metrics.RecordSettingsSave(err)
	return err
}

func (s *Store) saveLocked(values map[string]any) error {
	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".settings-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp settings file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write settings: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to set settings file mode: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp settings file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace settings file: %w", err)
	}

	logging.Debug().Str("path", s.path).Int("keys", len(values)).Msg("Settings saved")
	return nil
}
