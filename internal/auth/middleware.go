// Specula - Watchable Values and Home Dashboard Toolkit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/specula

package auth

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/tomtom215/specula/internal/config"
	"github.com/tomtom215/specula/internal/logging"
)

// contextKey is a private type for context values to avoid collisions.
type contextKey string

// ClaimsContextKey is where Authenticate stores the validated claims.
const ClaimsContextKey contextKey = "auth_claims"

// Middleware guards API endpoints with JWT session tokens.
type Middleware struct {
	jwtManager *JWTManager
	enabled    bool
}

// NewMiddleware creates the auth middleware. When auth is disabled in the
// config, Authenticate passes every request through untouched.
func NewMiddleware(cfg *config.AuthConfig) (*Middleware, error) {
	m := &Middleware{enabled: cfg.Enabled}
	if !cfg.Enabled {
		return m, nil
	}

	jwtManager, err := NewJWTManager(cfg)
	if err != nil {
		return nil, err
	}
	m.jwtManager = jwtManager
	return m, nil
}

// Enabled reports whether authentication is turned on.
func (m *Middleware) Enabled() bool {
	return m.enabled
}

// JWTManager returns the token manager, or nil when auth is disabled.
func (m *Middleware) JWTManager() *JWTManager {
	return m.jwtManager
}

// Authenticate validates the session token on a request and stores the
// claims in the request context. Requests without a valid token get a
// 401 JSON response.
func (m *Middleware) Authenticate(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !m.enabled {
			next(w, r)
			return
		}

		token := extractToken(r)
		if token == "" {
			writeAuthError(w, http.StatusUnauthorized, "authentication required")
			return
		}

		claims, err := m.jwtManager.ValidateToken(token)
		if err != nil {
			logging.Debug().Err(err).Str("remote", clientIP(r)).Msg("Token validation failed")
			writeAuthError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), ClaimsContextKey, claims)
		next(w, r.WithContext(ctx))
	}
}

// GetClaims retrieves the validated claims from a request context.
func GetClaims(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(ClaimsContextKey).(*Claims)
	return claims, ok
}

// extractToken pulls the session token from the Authorization header
// (Bearer scheme) or, failing that, from the "token" cookie. The cookie
// path lets the browser dashboard stay logged in without JavaScript
// attaching headers to every asset request.
func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}

	if cookie, err := r.Cookie("token"); err == nil {
		return cookie.Value
	}
	return ""
}

// writeAuthError sends a JSON error response for auth failures.
func writeAuthError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]string{"error": message}); err != nil {
		logging.Error().Err(err).Msg("Failed to encode auth error response")
	}
}

// clientIP extracts the originating client address, honoring the common
// proxy headers before falling back to the socket address.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		ip := strings.TrimSpace(parts[0])
		if net.ParseIP(ip) != nil {
			return ip
		}
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		if net.ParseIP(realIP) != nil {
			return realIP
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// visitor tracks the limiter state for a single client address.
type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter applies a per-client token bucket across all requests it
// sees. Stale clients are swept periodically so the map does not grow
// without bound.
type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int
	stop     chan struct{}
	stopOnce sync.Once
}

// NewRateLimiter creates a limiter allowing requests per window with the
// given burst, and starts the background sweep.
func NewRateLimiter(requests int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		visitors: make(map[string]*visitor),
		limit:    rate.Every(window / time.Duration(requests)),
		burst:    requests,
		stop:     make(chan struct{}),
	}
	go rl.cleanupLoop()
	return rl
}

// Allow reports whether the client may proceed.
func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, ok := rl.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.visitors[ip] = v
	}
	v.lastSeen = time.Now()
	return v.limiter.Allow()
}

// Stop terminates the background sweep.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stop:
			return
		}
	}
}

// cleanup drops visitors idle for more than an hour.
func (rl *RateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-1 * time.Hour)
	for ip, v := range rl.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(rl.visitors, ip)
		}
	}
}
