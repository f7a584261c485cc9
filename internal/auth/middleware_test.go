// Specula - Watchable Values and Home Dashboard Toolkit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/specula

package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tomtom215/specula/internal/config"
)

func testAuthConfig(enabled bool) *config.AuthConfig {
	return &config.AuthConfig{
		Enabled:        enabled,
		JWTSecret:      "middleware_test_secret_key_that_is_long_enough_12345",
		SessionTimeout: 1 * time.Hour,
		Username:       "admin",
	}
}

func TestAuthenticate_Disabled(t *testing.T) {
	mw, err := NewMiddleware(testAuthConfig(false))
	if err != nil {
		t.Fatalf("NewMiddleware() error = %v", err)
	}
	if mw.Enabled() {
		t.Error("Enabled() = true, want false")
	}

	called := false
	handler := mw.Authenticate(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/values", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	if !called {
		t.Error("handler not called when auth disabled")
	}
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestAuthenticate_MissingToken(t *testing.T) {
	mw, err := NewMiddleware(testAuthConfig(true))
	if err != nil {
		t.Fatalf("NewMiddleware() error = %v", err)
	}

	handler := mw.Authenticate(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be called without a token")
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/values", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %s, want application/json", ct)
	}
}

func TestAuthenticate_BearerToken(t *testing.T) {
	mw, err := NewMiddleware(testAuthConfig(true))
	if err != nil {
		t.Fatalf("NewMiddleware() error = %v", err)
	}

	token, err := mw.JWTManager().GenerateToken("admin", RoleAdmin)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	var gotClaims *Claims
	handler := mw.Authenticate(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := GetClaims(r.Context())
		if !ok {
			t.Error("claims missing from request context")
		}
		gotClaims = claims
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/values", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if gotClaims == nil || gotClaims.Username != "admin" {
		t.Errorf("claims = %+v, want username admin", gotClaims)
	}
}

func TestAuthenticate_CookieToken(t *testing.T) {
	mw, err := NewMiddleware(testAuthConfig(true))
	if err != nil {
		t.Fatalf("NewMiddleware() error = %v", err)
	}

	token, err := mw.JWTManager().GenerateToken("admin", RoleAdmin)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	handler := mw.Authenticate(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/updatestream", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: token})
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestAuthenticate_InvalidToken(t *testing.T) {
	mw, err := NewMiddleware(testAuthConfig(true))
	if err != nil {
		t.Fatalf("NewMiddleware() error = %v", err)
	}

	handler := mw.Authenticate(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be called with an invalid token")
	})

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not.a.token"},
		{"empty bearer", ""},
		{"truncated", "eyJhbGciOiJIUzI1NiJ9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/values", nil)
			req.Header.Set("Authorization", "Bearer "+tt.token)
			rec := httptest.NewRecorder()
			handler(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
			}
		})
	}
}

func TestAuthenticate_ExpiredToken(t *testing.T) {
	expiredCfg := testAuthConfig(true)
	expiredCfg.SessionTimeout = -1 * time.Hour

	expired, err := NewMiddleware(expiredCfg)
	if err != nil {
		t.Fatalf("NewMiddleware() error = %v", err)
	}

	token, err := expired.JWTManager().GenerateToken("admin", RoleAdmin)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	handler := expired.Authenticate(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be called with an expired token")
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/values", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestExtractToken(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(*http.Request)
		expect string
	}{
		{
			name: "bearer header",
			setup: func(r *http.Request) {
				r.Header.Set("Authorization", "Bearer header-token")
			},
			expect: "header-token",
		},
		{
			name: "cookie",
			setup: func(r *http.Request) {
				r.AddCookie(&http.Cookie{Name: "token", Value: "cookie-token"})
			},
			expect: "cookie-token",
		},
		{
			name: "header wins over cookie",
			setup: func(r *http.Request) {
				r.Header.Set("Authorization", "Bearer header-token")
				r.AddCookie(&http.Cookie{Name: "token", Value: "cookie-token"})
			},
			expect: "header-token",
		},
		{
			name: "wrong scheme ignored",
			setup: func(r *http.Request) {
				r.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
			},
			expect: "",
		},
		{
			name:   "nothing",
			setup:  func(r *http.Request) {},
			expect: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			tt.setup(req)

			if got := extractToken(req); got != tt.expect {
				t.Errorf("extractToken() = %q, want %q", got, tt.expect)
			}
		})
	}
}

func TestGetClaims_Empty(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	claims, ok := GetClaims(req.Context())
	if ok {
		t.Error("GetClaims() ok = true for empty context")
	}
	if claims != nil {
		t.Errorf("GetClaims() = %+v, want nil", claims)
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		expect     string
	}{
		{
			name:       "remote addr with port",
			remoteAddr: "192.168.1.50:43210",
			expect:     "192.168.1.50",
		},
		{
			name:       "x-forwarded-for single",
			remoteAddr: "10.0.0.1:1234",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.7"},
			expect:     "203.0.113.7",
		},
		{
			name:       "x-forwarded-for chain takes first",
			remoteAddr: "10.0.0.1:1234",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.2, 10.0.0.3"},
			expect:     "203.0.113.7",
		},
		{
			name:       "x-real-ip",
			remoteAddr: "10.0.0.1:1234",
			headers:    map[string]string{"X-Real-IP": "198.51.100.4"},
			expect:     "198.51.100.4",
		},
		{
			name:       "invalid forwarded value falls through",
			remoteAddr: "192.168.1.50:43210",
			headers:    map[string]string{"X-Forwarded-For": "not-an-ip"},
			expect:     "192.168.1.50",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}

			if got := clientIP(req); got != tt.expect {
				t.Errorf("clientIP() = %q, want %q", got, tt.expect)
			}
		})
	}
}

func TestRateLimiter_Allow(t *testing.T) {
	rl := NewRateLimiter(3, 1*time.Minute)
	defer rl.Stop()

	ip := "192.168.1.10"

	// Burst allows the configured number of requests immediately.
	for i := 0; i < 3; i++ {
		if !rl.Allow(ip) {
			t.Errorf("request %d should be allowed within burst", i+1)
		}
	}

	if rl.Allow(ip) {
		t.Error("request beyond burst should be denied")
	}
}

func TestRateLimiter_SeparateClients(t *testing.T) {
	rl := NewRateLimiter(1, 1*time.Minute)
	defer rl.Stop()

	if !rl.Allow("192.168.1.10") {
		t.Error("first client should be allowed")
	}
	if rl.Allow("192.168.1.10") {
		t.Error("first client should be limited")
	}

	// A different client has its own bucket.
	if !rl.Allow("192.168.1.20") {
		t.Error("second client should be allowed")
	}
}

func TestRateLimiter_Cleanup(t *testing.T) {
	rl := NewRateLimiter(10, 1*time.Minute)
	defer rl.Stop()

	rl.Allow("192.168.1.10")
	rl.Allow("192.168.1.20")

	// Age the first visitor past the cleanup cutoff.
	rl.mu.Lock()
	rl.visitors["192.168.1.10"].lastSeen = time.Now().Add(-2 * time.Hour)
	rl.mu.Unlock()

	rl.cleanup()

	rl.mu.Lock()
	_, staleExists := rl.visitors["192.168.1.10"]
	_, freshExists := rl.visitors["192.168.1.20"]
	rl.mu.Unlock()

	if staleExists {
		t.Error("stale visitor should have been removed")
	}
	if !freshExists {
		t.Error("fresh visitor should remain")
	}
}

func TestRateLimiter_StopIdempotent(t *testing.T) {
	rl := NewRateLimiter(1, 1*time.Minute)
	rl.Stop()
	rl.Stop() // must not panic
}
