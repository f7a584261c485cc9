// Specula - Watchable Values and Home Dashboard Toolkit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/specula

package api

import (
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/specula/internal/auth"
	"github.com/tomtom215/specula/internal/logging"
	"github.com/tomtom215/specula/internal/middleware"
)

// chiMiddleware adapts http.HandlerFunc middleware to Chi's
// func(http.Handler) http.Handler, so the handler-func style
// middleware works with r.Use().
func chiMiddleware(mw func(http.HandlerFunc) http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return mw(next.ServeHTTP)
	}
}

// Router assembles the HTTP surface: the JSON API under /api/v1, the
// Prometheus scrape endpoint, the dashboard WebSocket, static assets,
// and the app's served pages from the handler's table.
type Router struct {
	handler       *Handler
	middleware    *auth.Middleware
	chiMiddleware *ChiMiddleware

	// Set when auth is enabled and credentials are usable.
	authHandlers *auth.Handlers
	lockout      *auth.LockoutManager
}

// NewRouter creates a router for the handler's config and table. A nil
// auth middleware leaves every endpoint open.
func NewRouter(handler *Handler, authMw *auth.Middleware) *Router {
	var chiMw *ChiMiddleware
	if handler != nil && handler.config != nil {
		chiMw = NewChiMiddlewareFromServer(&handler.config.Server)
	} else {
		chiMw = NewChiMiddleware(nil)
	}

	router := &Router{
		handler:       handler,
		middleware:    authMw,
		chiMiddleware: chiMw,
	}

	if authMw != nil && authMw.Enabled() && handler != nil && handler.config != nil {
		verifier, err := auth.NewPasswordVerifier(handler.config.Auth.Username, handler.config.Auth.PasswordHash)
		if err != nil {
			logging.Warn().Err(err).Msg("Login disabled: no usable credentials configured")
		} else {
			router.lockout = auth.NewLockoutManager(auth.NewMemoryLockoutStore(), auth.DefaultLockoutConfig())
			router.authHandlers = auth.NewHandlers(authMw.JWTManager(), verifier, router.lockout)
		}
	}

	return router
}

// Setup configures all HTTP routes using Chi router.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// ========================
	// Global Middleware Stack
	// ========================
	// Applied to ALL routes in order
	r.Use(chiMiddleware(middleware.RequestID))
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS())

	// ========================
	// Health Endpoints
	// ========================
	// Permissive rate limiting so monitors can poll freely.
	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitHealth())
		r.Use(APISecurityHeaders())
		r.Get("/live", router.handler.HealthLive)
		r.Get("/", router.handler.Health)
	})

	// ========================
	// Authentication Endpoints
	// ========================
	// Login carries the strictest rate limit plus account lockout.
	if router.authHandlers != nil {
		r.Route("/api/v1/auth", func(r chi.Router) {
			r.Use(APISecurityHeaders())

			login := router.authHandlers.Login
			if router.lockout != nil {
				login = auth.LockoutMiddleware(router.lockout, remoteHost)(login)
			}
			r.With(router.chiMiddleware.RateLimitLogin()).Post("/login", login)

			r.Post("/logout", router.authHandlers.Logout)
			r.With(chiMiddleware(router.middleware.Authenticate)).Get("/me", router.authHandlers.UserInfo)
		})
	}

	// ========================
	// Core API Endpoints
	// ========================
	// Value reads and writes, interface inventory, settings persistence.
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(APISecurityHeaders())
		r.Use(chiMiddleware(middleware.PrometheusMetrics))
		r.Use(router.handler.perfMon.Middleware)
		if router.middleware != nil && router.middleware.Enabled() {
			r.Use(chiMiddleware(router.middleware.Authenticate))
		}
		r.Use(chiMiddleware(middleware.Compression))

		r.Get("/values", router.handler.ValueDump)
		r.Get("/values/*", router.handler.ValueGet)
		r.Put("/values/*", router.handler.ValueSet)
		r.Get("/interfaces", router.handler.NetInterfaces)
		r.Post("/settings/save", router.handler.SettingsSave)
		r.Post("/settings/load", router.handler.SettingsLoad)
		r.Get("/perf", router.handler.Perf)
	})

	// ========================
	// Prometheus Metrics
	// ========================
	if router.handler.config == nil || router.handler.config.Server.MetricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	// ========================
	// Dashboard WebSocket
	// ========================
	// Push only; clients never mutate through the socket.
	r.With(router.chiMiddleware.RateLimitWebSocket()).Get("/ws", router.handler.WebSocket)

	// ========================
	// Static Assets
	// ========================
	r.Group(func(r chi.Router) {
		r.Use(APISecurityHeaders())
		r.Use(chiMiddleware(middleware.Compression))
		r.Get("/static/*", router.handler.StaticFile)
	})

	// ========================
	// Served Pages
	// ========================
	// The app's table owns the rest of the URL space.
	router.mountTable(r)

	r.NotFound(router.notFound)
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})

	return r
}

// mountTable registers one chi route per table entry. Names are stored
// without the leading slash; the empty name is the site root.
func (router *Router) mountTable(r chi.Router) {
	table := router.handler.table
	if table == nil {
		return
	}
	for name, entry := range table.GET {
		r.Get("/"+normalizeName(name), router.handler.PageEntry(name, entry))
	}
	for name, post := range table.POST {
		r.Post("/"+normalizeName(name), router.handler.PostEntry(name, post))
	}
}

// notFound answers requests no route matched, in the served pages'
// voice rather than chi's bare 404. A server with no table at all says
// so instead of blaming the page name.
func (router *Router) notFound(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, "/")
	table := router.handler.table

	switch r.Method {
	case http.MethodPost:
		if table == nil || len(table.POST) == 0 {
			http.Error(w, "no POST list specified for this server", http.StatusNotImplemented)
			return
		}
		logging.Debug().Str("page", sanitizeLogValue(name)).Msg("POST to unknown page")
		http.Error(w, fmt.Sprintf("no page for %s", name), http.StatusNotFound)
	default:
		if table == nil || len(table.GET) == 0 {
			http.Error(w, "no GET list specified for this server", http.StatusNotImplemented)
			return
		}
		logging.Debug().Str("page", sanitizeLogValue(name)).Msg("request for unknown page")
		http.Error(w, fmt.Sprintf("I know nothing of the page you have requested! (%s)", name), http.StatusNotFound)
	}
}

// remoteHost strips the port from the request's remote address for
// lockout bookkeeping. RealIP has already resolved proxy headers.
func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
