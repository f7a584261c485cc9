// Specula - Watchable Values and Home Dashboard Toolkit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/specula

/*
Package middleware provides HTTP middleware components for the application.

This package implements infrastructure middleware for compression, performance
monitoring, request ID tracking, and Prometheus metrics integration. The
router composes these with authentication and rate limiting into a full
request processing stack.

Key Components:

  - Compression: Gzip compression for API and static responses
  - Performance Monitor: Request latency tracking with percentile calculations
  - Request ID: UUID-based request tracking
  - Prometheus Metrics: HTTP request/response instrumentation

Middleware Stack:

The typical middleware stack for an endpoint is:

	http.HandleFunc("/api/v1/endpoint",
	    middleware.PrometheusMetrics( // Layer 1: Metrics
	        middleware.Compression(    // Layer 2: Gzip
	            middleware.RequestID(  // Layer 3: Request tracking
	                handler,           // Layer 4: Business logic
	            ),
	        ),
	    ),
	)

Streaming endpoints (update streams, MJPEG, video ranges) skip the
compression layer: those responses flush per frame or are already
compressed payloads.

Usage Example - Request ID:

	http.HandleFunc("/api/v1/values",
	    middleware.RequestID(handler),
	)

	// Access request ID in handler
	func handler(w http.ResponseWriter, r *http.Request) {
	    requestID := middleware.GetRequestID(r.Context())
	    logging.Ctx(r.Context()).Info().Msg("processing request")
	    _ = requestID
	}

Usage Example - Performance Monitoring:

	perfMon := middleware.NewPerformanceMonitor(1000)

	mux.Handle("/api/v1/values", perfMon.Middleware(handler))

	// Get performance statistics
	stats := perfMon.GetStats()
	for _, s := range stats {
	    fmt.Printf("%s p95=%dms\n", s.Path, s.P95Duration)
	}

Performance Monitor:

The performance monitor tracks:
  - Request counts per method+path
  - Latency percentiles (p50, p95, p99)
  - Rolling window of the N most recent requests
  - Thread-safe concurrent access with RWMutex

Thread Safety:

All middleware components are thread-safe:
  - Compression uses pooled per-request gzip writers
  - Performance monitor uses sync.RWMutex
  - Request ID uses context.Context (immutable)
  - Prometheus metrics use atomic operations

See Also:

  - internal/auth: Authentication middleware
  - internal/api: HTTP handlers wrapped by middleware
  - internal/metrics: Prometheus metrics definitions
*/
package middleware
