// Specula - Watchable Values and Home Dashboard Toolkit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/specula

package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	json "github.com/goccy/go-json"

	"github.com/tomtom215/specula/internal/logging"
)

// Lockout errors.
var (
	// ErrLockoutNotFound indicates no lockout entry exists for an identifier.
	ErrLockoutNotFound = errors.New("lockout entry not found")

	// ErrAccountLocked indicates the account is currently locked out.
	ErrAccountLocked = errors.New("account temporarily locked")
)

// LockoutConfig controls login brute-force protection.
type LockoutConfig struct {
	// MaxAttempts before a lockout is applied.
	MaxAttempts int

	// LockoutDuration is the base lockout length.
	LockoutDuration time.Duration

	// EnableExponentialBackoff doubles the lockout duration on each
	// repeated lockout of the same identifier.
	EnableExponentialBackoff bool

	// MaxLockoutDuration caps the backoff growth.
	MaxLockoutDuration time.Duration

	// CleanupInterval is how often expired entries are swept.
	CleanupInterval time.Duration

	// TrackByIP additionally locks out the source address, which catches
	// attackers rotating through usernames.
	TrackByIP bool

	// Enabled turns the whole mechanism on.
	Enabled bool
}

// DefaultLockoutConfig returns the production lockout settings:
// 5 attempts, 15 minute base lockout, exponential backoff capped at 24h.
func DefaultLockoutConfig() *LockoutConfig {
	return &LockoutConfig{
		MaxAttempts:              5,
		LockoutDuration:          15 * time.Minute,
		EnableExponentialBackoff: true,
		MaxLockoutDuration:       24 * time.Hour,
		CleanupInterval:          5 * time.Minute,
		TrackByIP:                true,
		Enabled:                  true,
	}
}

// LockoutEntry tracks failed login attempts for one identifier, which is
// either a username or an "ip:"-prefixed client address.
type LockoutEntry struct {
	Identifier     string
	FailedAttempts int
	FirstAttempt   time.Time
	LastAttempt    time.Time
	LockedUntil    time.Time
	LockoutCount   int
	LastIP         string
}

// IsLocked reports whether the entry is currently locked.
func (e *LockoutEntry) IsLocked() bool {
	return time.Now().Before(e.LockedUntil)
}

// LockoutStore persists lockout entries.
type LockoutStore interface {
	GetEntry(ctx context.Context, identifier string) (*LockoutEntry, error)
	SaveEntry(ctx context.Context, entry *LockoutEntry) error
	DeleteEntry(ctx context.Context, identifier string) error
	ListLocked(ctx context.Context) ([]*LockoutEntry, error)
	CleanupExpired(ctx context.Context) (int, error)
}

// LockoutManager applies the lockout policy on top of a store.
type LockoutManager struct {
	store  LockoutStore
	config *LockoutConfig
}

// NewLockoutManager creates a manager. A nil config selects the defaults.
func NewLockoutManager(store LockoutStore, config *LockoutConfig) *LockoutManager {
	if config == nil {
		config = DefaultLockoutConfig()
	}
	return &LockoutManager{store: store, config: config}
}

// CheckLocked reports whether an identifier is currently locked out and
// how long the lock has left to run.
func (m *LockoutManager) CheckLocked(ctx context.Context, identifier string) (bool, time.Duration, error) {
	if !m.config.Enabled {
		return false, 0, nil
	}

	entry, err := m.store.GetEntry(ctx, identifier)
	if err != nil {
		if errors.Is(err, ErrLockoutNotFound) {
			return false, 0, nil
		}
		return false, 0, fmt.Errorf("failed to check lockout: %w", err)
	}

	if entry.IsLocked() {
		return true, time.Until(entry.LockedUntil), nil
	}
	return false, 0, nil
}

// RecordFailedAttempt registers a failed login for the username and, when
// TrackByIP is on, for the client address as well. It returns whether the
// attempt triggered a lockout and the longest remaining lock duration.
func (m *LockoutManager) RecordFailedAttempt(ctx context.Context, username, ip string) (bool, time.Duration, error) {
	if !m.config.Enabled {
		return false, 0, nil
	}

	locked, remaining, err := m.recordFor(ctx, username, ip)
	if err != nil {
		return false, 0, err
	}

	if m.config.TrackByIP && ip != "" {
		ipLocked, ipRemaining, ipErr := m.recordFor(ctx, "ip:"+ip, ip)
		if ipErr != nil {
			return false, 0, ipErr
		}
		if ipLocked {
			locked = true
			if ipRemaining > remaining {
				remaining = ipRemaining
			}
		}
	}

	return locked, remaining, nil
}

func (m *LockoutManager) recordFor(ctx context.Context, identifier, ip string) (bool, time.Duration, error) {
	now := time.Now()

	entry, err := m.store.GetEntry(ctx, identifier)
	if err != nil {
		if !errors.Is(err, ErrLockoutNotFound) {
			return false, 0, fmt.Errorf("failed to load lockout entry: %w", err)
		}
		entry = &LockoutEntry{
			Identifier:   identifier,
			FirstAttempt: now,
		}
	}

	// An attempt during an active lockout does not extend it.
	if entry.IsLocked() {
		return true, time.Until(entry.LockedUntil), nil
	}

	entry.FailedAttempts++
	entry.LastAttempt = now
	entry.LastIP = ip

	var (
		locked    bool
		remaining time.Duration
	)
	if entry.FailedAttempts >= m.config.MaxAttempts {
		duration := m.lockoutDuration(entry.LockoutCount)
		entry.LockoutCount++
		entry.LockedUntil = now.Add(duration)
		entry.FailedAttempts = 0
		locked = true
		remaining = duration

		logging.Warn().
			Str("identifier", identifier).
			Str("ip", ip).
			Dur("duration", duration).
			Int("lockout_count", entry.LockoutCount).
			Msg("Login lockout applied")
	}

	if err := m.store.SaveEntry(ctx, entry); err != nil {
		return false, 0, fmt.Errorf("failed to save lockout entry: %w", err)
	}
	return locked, remaining, nil
}

// lockoutDuration computes the lockout length for the next lockout, given
// how many lockouts the identifier has already accumulated.
func (m *LockoutManager) lockoutDuration(lockoutCount int) time.Duration {
	duration := m.config.LockoutDuration
	if !m.config.EnableExponentialBackoff || lockoutCount <= 0 {
		return duration
	}

	// Shift count is capped so the multiplier cannot overflow.
	shift := lockoutCount
	if shift > 16 {
		shift = 16
	}
	duration *= time.Duration(1 << shift)
	if m.config.MaxLockoutDuration > 0 && duration > m.config.MaxLockoutDuration {
		duration = m.config.MaxLockoutDuration
	}
	return duration
}

// RecordSuccessfulLogin clears the failure history for a username.
func (m *LockoutManager) RecordSuccessfulLogin(ctx context.Context, username string) error {
	if !m.config.Enabled {
		return nil
	}
	if err := m.store.DeleteEntry(ctx, username); err != nil && !errors.Is(err, ErrLockoutNotFound) {
		return fmt.Errorf("failed to clear lockout state: %w", err)
	}
	return nil
}

// ClearLockout removes an entry entirely, for manual unlocking.
func (m *LockoutManager) ClearLockout(ctx context.Context, identifier string) error {
	if err := m.store.DeleteEntry(ctx, identifier); err != nil && !errors.Is(err, ErrLockoutNotFound) {
		return fmt.Errorf("failed to clear lockout: %w", err)
	}
	return nil
}

// GetLockedAccounts lists all currently locked identifiers.
func (m *LockoutManager) GetLockedAccounts(ctx context.Context) ([]*LockoutEntry, error) {
	return m.store.ListLocked(ctx)
}

// StartCleanupRoutine sweeps expired entries until the context is done.
// Run it in a goroutine.
func (m *LockoutManager) StartCleanupRoutine(ctx context.Context) {
	interval := m.config.CleanupInterval
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			removed, err := m.store.CleanupExpired(ctx)
			if err != nil {
				logging.Error().Err(err).Msg("Lockout cleanup failed")
				continue
			}
			if removed > 0 {
				logging.Debug().Int("removed", removed).Msg("Swept expired lockout entries")
			}
		case <-ctx.Done():
			return
		}
	}
}

// MemoryLockoutStore is the in-memory LockoutStore used in production.
// Lockout state is intentionally ephemeral; a restart clears it.
type MemoryLockoutStore struct {
	mu      sync.RWMutex
	entries map[string]*LockoutEntry
}

// NewMemoryLockoutStore creates an empty store.
func NewMemoryLockoutStore() *MemoryLockoutStore {
	return &MemoryLockoutStore{entries: make(map[string]*LockoutEntry)}
}

// GetEntry returns a copy of the entry for an identifier.
func (s *MemoryLockoutStore) GetEntry(_ context.Context, identifier string) (*LockoutEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[identifier]
	if !ok {
		return nil, ErrLockoutNotFound
	}
	return copyEntry(entry), nil
}

// SaveEntry stores a copy of the entry.
func (s *MemoryLockoutStore) SaveEntry(_ context.Context, entry *LockoutEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[entry.Identifier] = copyEntry(entry)
	return nil
}

// DeleteEntry removes an entry.
func (s *MemoryLockoutStore) DeleteEntry(_ context.Context, identifier string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[identifier]; !ok {
		return ErrLockoutNotFound
	}
	delete(s.entries, identifier)
	return nil
}

// ListLocked returns copies of all currently locked entries.
func (s *MemoryLockoutStore) ListLocked(_ context.Context) ([]*LockoutEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var locked []*LockoutEntry
	for _, entry := range s.entries {
		if entry.IsLocked() {
			locked = append(locked, copyEntry(entry))
		}
	}
	return locked, nil
}

// CleanupExpired removes entries whose lock expired more than 24 hours ago
// and that have seen no activity since.
func (s *MemoryLockoutStore) CleanupExpired(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-24 * time.Hour)
	removed := 0
	for id, entry := range s.entries {
		if !entry.IsLocked() && entry.LastAttempt.Before(cutoff) {
			delete(s.entries, id)
			removed++
		}
	}
	return removed, nil
}

func copyEntry(entry *LockoutEntry) *LockoutEntry {
	c := *entry
	return &c
}

// WriteLockoutResponse sends the 429 response for a locked-out client,
// including a Retry-After header.
func WriteLockoutResponse(w http.ResponseWriter, remaining time.Duration) {
	retryAfter := int(remaining.Seconds())
	if retryAfter < 1 {
		retryAfter = 1
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	w.WriteHeader(http.StatusTooManyRequests)

	resp := map[string]interface{}{
		"error":            "account temporarily locked",
		"retry_after_secs": retryAfter,
		"message":          "Too many failed login attempts. Try again later.",
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logging.Error().Err(err).Msg("Failed to encode lockout response")
	}
}

// LockoutMiddleware rejects requests from locked-out clients before the
// handler runs. The identify function extracts the lockout identifier,
// typically "ip:" plus the client address for login endpoints.
func LockoutMiddleware(manager *LockoutManager, identify func(*http.Request) string) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			identifier := identify(r)
			if identifier == "" {
				next(w, r)
				return
			}

			locked, remaining, err := manager.CheckLocked(r.Context(), identifier)
			if err != nil {
				logging.Error().Err(err).Str("identifier", identifier).Msg("Lockout check failed")
				next(w, r)
				return
			}
			if locked {
				WriteLockoutResponse(w, remaining)
				return
			}
			next(w, r)
		}
	}
}
