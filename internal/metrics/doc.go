// Specula - Watchable Values and Home Dashboard Toolkit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/specula

/*
Package metrics provides Prometheus metrics collection and export for observability.

All metrics are registered on the default registry via promauto at package init,
so importing the package is enough to make them scrapeable.

# Overview

The package provides metrics for:
  - Watchable value changes, observer notifications, validation failures
  - Page registry churn (registrations, reaping, active count)
  - Update stream and MJPEG/video streaming activity
  - Settings persistence results
  - HTTP request latency and throughput
  - WebSocket connection counts

# Metrics Endpoint

Metrics are exposed at the /metrics endpoint in Prometheus text format:

	curl http://localhost:8000/metrics

# Available Metrics

Value Metrics:
  - value_changes_total: Committed value changes (counter)
    Labels: tree, name
  - value_notifications_total: Observer callbacks delivered (counter)
    Labels: agent
  - value_validation_failures_total: Rejected value updates (counter)
    Labels: name, reason (truncated to 50 chars)
  - values_registered: Registered variables per tree (gauge)

Page Registry Metrics:
  - pages_registered_total: Page registrations issued (counter)
  - pages_active: Live page registrations (gauge)
  - pages_reaped_total: Registrations removed by the reaper (counter)
  - update_streams_active: Open update streams (gauge)
  - update_frames_sent_total: Update frames written (counter)

Stream Metrics:
  - cam_stream_clients: Connected MJPEG clients (gauge)
  - cam_frames_sent_total / cam_frames_dropped_total: Frame outcomes (counters)
  - video_requests_total: Video range requests (counter)
    Labels: status
  - video_bytes_sent_total: Video bytes sent (counter)

Settings Metrics:
  - settings_saves_total / settings_loads_total: Persistence operations (counters)
    Labels: result (ok, error)

HTTP Metrics:
  - http_requests_total: Total HTTP requests (counter)
    Labels: method, endpoint, status_code
  - http_request_duration_seconds: Request latency (histogram)
    Labels: method, endpoint
    Buckets: .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10
  - http_active_requests: Active requests (gauge)
  - http_rate_limit_hits_total: Rate limit rejections (counter)
    Labels: endpoint

WebSocket Metrics:
  - websocket_connections: Active connections (gauge)
  - websocket_messages_sent_total: Messages sent (counter)
  - websocket_errors_total: Errors by type (counter)
    Labels: error_type

System Metrics:
  - app_info: Version and build information (gauge, always 1)
    Labels: version, go_version
  - app_uptime_seconds: Uptime since process start (gauge)

# Usage Example

Recording HTTP metrics from middleware:

	func MetricsMiddleware(next http.Handler) http.Handler {
	    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	        start := time.Now()
	        metrics.TrackActiveRequest(true)
	        defer metrics.TrackActiveRequest(false)

	        rw := &responseWriter{ResponseWriter: w, statusCode: 200}
	        next.ServeHTTP(rw, r)

	        metrics.RecordHTTPRequest(r.Method, r.URL.Path, rw.statusCode, time.Since(start))
	    })
	}

Recording value activity:

	metrics.RecordValueChange("settings", "cam_delay")
	metrics.RecordValueNotification("webpage")
	metrics.RecordValidationFailure("threshold", "out of range")

# Prometheus Configuration

Example prometheus.yml configuration:

	scrape_configs:
	  - job_name: 'specula'
	    static_configs:
	      - targets: ['localhost:8000']
	    metrics_path: '/metrics'
	    scrape_interval: 15s

Example PromQL queries:

	# HTTP request rate
	rate(http_requests_total[5m])

	# HTTP p95 latency
	histogram_quantile(0.95, rate(http_request_duration_seconds_bucket[5m]))

	# Update frames per second
	rate(update_frames_sent_total[1m])

	# Settings save failure ratio
	rate(settings_saves_total{result="error"}[5m]) / rate(settings_saves_total[5m])

# Thread Safety

All metric recording functions are thread-safe and designed for concurrent use
from multiple goroutines. The Prometheus client library handles synchronization
internally.

# Cardinality Management

To keep series counts bounded:

  - Endpoint labels come from the route table, never from raw request paths
  - Validation failure reasons are truncated to 50 characters
  - Agent and tree labels are fixed strings chosen at registration time
  - Error types are limited to predefined constants

# See Also

  - internal/middleware: HTTP middleware with metrics integration
  - internal/updates: Page registry and stream instrumentation
  - https://prometheus.io/docs/practices/naming/: Metric naming conventions
*/
package metrics
