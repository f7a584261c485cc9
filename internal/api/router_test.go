// Specula - Watchable Values and Home Dashboard Toolkit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/specula

package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/specula/internal/auth"
	"github.com/tomtom215/specula/internal/config"
)

func setupRouter(t *testing.T, table *Table) http.Handler {
	t.Helper()
	return NewRouter(testHandler(t, table), nil).Setup()
}

func get(router http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestRouterServesTablePages(t *testing.T) {
	t.Parallel()

	table := &Table{GET: map[string]Entry{
		"":         Redirect("index.html"),
		"hello":    StaticPage(okPage),
		"cams/one": StaticPage(okPage),
	}}
	router := setupRouter(t, table)

	t.Run("named page", func(t *testing.T) {
		rec := get(router, "/hello")
		if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
			t.Errorf("got %d %q, want 200 ok", rec.Code, rec.Body.String())
		}
	})

	t.Run("nested page name", func(t *testing.T) {
		if rec := get(router, "/cams/one"); rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
	})

	t.Run("site root", func(t *testing.T) {
		rec := get(router, "/")
		if rec.Code != http.StatusMovedPermanently {
			t.Fatalf("status = %d, want 301", rec.Code)
		}
		if loc := rec.Header().Get("Location"); loc != "index.html" {
			t.Errorf("Location = %q, want index.html", loc)
		}
	})

	t.Run("unknown page", func(t *testing.T) {
		rec := get(router, "/missing")
		if rec.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", rec.Code)
		}
		want := "I know nothing of the page you have requested! (missing)"
		if !strings.Contains(rec.Body.String(), want) {
			t.Errorf("body = %q, want %q", rec.Body.String(), want)
		}
	})

	t.Run("wrong method on page", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/hello", nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("status = %d, want 405", rec.Code)
		}
	})
}

func TestRouterWithoutTable(t *testing.T) {
	t.Parallel()

	router := setupRouter(t, nil)

	rec := get(router, "/welcome")
	if rec.Code != http.StatusNotImplemented {
		t.Errorf("GET status = %d, want 501", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "no GET list specified for this server") {
		t.Errorf("GET body = %q", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/welcome", strings.NewReader("{}")))
	if rec.Code != http.StatusNotImplemented {
		t.Errorf("POST status = %d, want 501", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "no POST list specified for this server") {
		t.Errorf("POST body = %q", rec.Body.String())
	}
}

func TestRouterPostRouting(t *testing.T) {
	t.Parallel()

	table := &Table{
		GET: map[string]Entry{"hello": StaticPage(okPage)},
		POST: map[string]PostFunc{
			"control": func(body map[string]any) *PostResult {
				return &PostResult{Status: http.StatusOK, Data: map[string]any{"done": true}}
			},
		},
	}
	router := setupRouter(t, table)

	t.Run("known handler", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/control", strings.NewReader(`{"x":1}`))
		r.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(rec, r)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200 (body %q)", rec.Code, rec.Body.String())
		}
		if !strings.Contains(rec.Body.String(), "done") {
			t.Errorf("body = %q, want done payload", rec.Body.String())
		}
	})

	t.Run("unknown handler", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/other", strings.NewReader(`{}`))
		router.ServeHTTP(rec, r)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "no page for other") {
			t.Errorf("body = %q", rec.Body.String())
		}
	})
}

func TestRouterCoreEndpoints(t *testing.T) {
	t.Parallel()

	router := setupRouter(t, nil)

	t.Run("health live", func(t *testing.T) {
		rec := get(router, "/api/v1/health/live")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
			t.Errorf("X-Content-Type-Options = %q, want nosniff", got)
		}
	})

	t.Run("values", func(t *testing.T) {
		rec := get(router, "/api/v1/values")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200 (body %q)", rec.Code, rec.Body.String())
		}
		if resp := decodeEnvelope(t, rec); resp.Status != "success" {
			t.Errorf("envelope status = %q", resp.Status)
		}
	})

	t.Run("metrics", func(t *testing.T) {
		rec := get(router, "/metrics")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if rec.Body.Len() == 0 {
			t.Error("metrics body is empty")
		}
	})

	t.Run("websocket without hub", func(t *testing.T) {
		if rec := get(router, "/ws"); rec.Code != http.StatusServiceUnavailable {
			t.Errorf("status = %d, want 503", rec.Code)
		}
	})

	t.Run("static miss", func(t *testing.T) {
		rec := get(router, "/static/missing.css")
		if rec.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "not present or not a file") {
			t.Errorf("body = %q", rec.Body.String())
		}
	})
}

func TestRouterMetricsDisabled(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	cfg.Server.MetricsEnabled = false
	h, err := NewHandler(cfg, nil, nil, nil, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	router := NewRouter(h, nil).Setup()

	// With no table either, the miss falls through to the page voice.
	if rec := get(router, "/metrics"); rec.Code != http.StatusNotImplemented {
		t.Errorf("status = %d, want 501", rec.Code)
	}
}

func TestRouterAuthFlow(t *testing.T) {
	t.Parallel()

	const password = "orbiting-Watchful-3"
	hash, err := auth.HashPassword(password)
	if err != nil {
		t.Fatal(err)
	}

	cfg := testConfig(t)
	cfg.Auth = config.AuthConfig{
		Enabled:        true,
		JWTSecret:      strings.Repeat("k", 48),
		SessionTimeout: time.Hour,
		Username:       "admin",
		PasswordHash:   hash,
	}

	h, err := NewHandler(cfg, nil, nil, nil, nil, WatchStore(testGroup(t)))
	if err != nil {
		t.Fatal(err)
	}
	authMw, err := auth.NewMiddleware(&cfg.Auth)
	if err != nil {
		t.Fatal(err)
	}
	router := NewRouter(h, authMw).Setup()

	login := func(body string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(rec, r)
		return rec
	}

	t.Run("values locked without token", func(t *testing.T) {
		if rec := get(router, "/api/v1/values"); rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("health stays open", func(t *testing.T) {
		if rec := get(router, "/api/v1/health/live"); rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
	})

	t.Run("bad credentials", func(t *testing.T) {
		if rec := login(`{"username":"admin","password":"wrong"}`); rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("login and use token", func(t *testing.T) {
		rec := login(`{"username":"admin","password":"` + password + `"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("login status = %d (body %q)", rec.Code, rec.Body.String())
		}
		var resp auth.LoginResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("login response: %v", err)
		}
		if resp.Token == "" {
			t.Fatal("login returned an empty token")
		}

		authed := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/api/v1/values", nil)
		r.Header.Set("Authorization", "Bearer "+resp.Token)
		router.ServeHTTP(authed, r)
		if authed.Code != http.StatusOK {
			t.Errorf("authed status = %d, want 200 (body %q)", authed.Code, authed.Body.String())
		}
	})
}
