// Specula - Watchable Values and Home Dashboard Toolkit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/specula

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus instrumentation for:
// - Watchable value changes, notifications and validation failures
// - Page registry and update stream activity
// - Camera and video streaming
// - Settings persistence
// - HTTP endpoints and the WebSocket hub

var (
	// Value Metrics
	ValueChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "value_changes_total",
			Help: "Total number of committed value changes",
		},
		[]string{"tree", "name"},
	)

	ValueNotifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "value_notifications_total",
			Help: "Total number of change notifications delivered to observers",
		},
		[]string{"agent"},
	)

	ValueValidationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "value_validation_failures_total",
			Help: "Total number of rejected value updates",
		},
		[]string{"name", "reason"},
	)

	ValuesRegistered = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "values_registered",
			Help: "Current number of variables registered per tree",
		},
		[]string{"tree"},
	)

	// Page Registry Metrics
	PagesRegistered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pages_registered_total",
			Help: "Total number of page registrations issued",
		},
	)

	PagesActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pages_active",
			Help: "Current number of live page registrations",
		},
	)

	PagesReaped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pages_reaped_total",
			Help: "Total number of page registrations removed by the reaper",
		},
	)

	UpdateStreams = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "update_streams_active",
			Help: "Current number of open update streams",
		},
	)

	UpdateFramesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "update_frames_sent_total",
			Help: "Total number of update frames written to streams",
		},
	)

	// Camera / Video Stream Metrics
	CamClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cam_stream_clients",
			Help: "Current number of connected MJPEG clients",
		},
	)

	CamFramesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cam_frames_sent_total",
			Help: "Total number of MJPEG frames sent",
		},
	)

	CamFramesDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cam_frames_dropped_total",
			Help: "Total number of MJPEG frames dropped (no frame ready or slow client)",
		},
	)

	VideoRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "video_requests_total",
			Help: "Total number of video range requests",
		},
		[]string{"status"},
	)

	VideoBytesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "video_bytes_sent_total",
			Help: "Total number of video bytes sent",
		},
	)

	// Settings Persistence Metrics
	SettingsSaves = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "settings_saves_total",
			Help: "Total number of settings save operations",
		},
		[]string{"result"}, // "ok", "error"
	)

	SettingsLoads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "settings_loads_total",
			Help: "Total number of settings load operations",
		},
		[]string{"result"},
	)

	// HTTP Endpoint Metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	HTTPActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_active_requests",
			Help: "Current number of active HTTP requests",
		},
	)

	RateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// WebSocket Metrics
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections",
			Help: "Current number of active WebSocket connections",
		},
	)

	WSMessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_sent_total",
			Help: "Total number of WebSocket messages sent",
		},
	)

	WSErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_errors_total",
			Help: "Total number of WebSocket errors",
		},
		[]string{"error_type"},
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)

	AppUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "app_uptime_seconds",
			Help: "Application uptime in seconds",
		},
	)
)

// RecordHTTPRequest records one finished HTTP request.
func RecordHTTPRequest(method, endpoint string, status int, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active HTTP requests.
func TrackActiveRequest(inc bool) {
	if inc {
		HTTPActiveRequests.Inc()
	} else {
		HTTPActiveRequests.Dec()
	}
}

// RecordRateLimitHit records a rejected request.
func RecordRateLimitHit(endpoint string) {
	RateLimitHits.WithLabelValues(endpoint).Inc()
}

// RecordValueChange records a committed value change.
func RecordValueChange(tree, name string) {
	ValueChanges.WithLabelValues(tree, name).Inc()
}

// RecordValueNotification records one delivered observer callback.
func RecordValueNotification(agent string) {
	ValueNotifications.WithLabelValues(agent).Inc()
}

// RecordValidationFailure records a rejected value update.
// Reasons are truncated to keep label cardinality sane.
func RecordValidationFailure(name, reason string) {
	if len(reason) > 50 {
		reason = reason[:50]
	}
	ValueValidationFailures.WithLabelValues(name, reason).Inc()
}

// RecordPageRegistered records a new page registration.
func RecordPageRegistered() {
	PagesRegistered.Inc()
	PagesActive.Inc()
}

// RecordPagesReaped records n registrations removed by the reaper.
func RecordPagesReaped(n int) {
	if n <= 0 {
		return
	}
	PagesReaped.Add(float64(n))
	PagesActive.Sub(float64(n))
}

// TrackUpdateStream tracks open update streams.
func TrackUpdateStream(open bool) {
	if open {
		UpdateStreams.Inc()
	} else {
		UpdateStreams.Dec()
	}
}

// RecordUpdateFrame records one update frame written to a stream.
func RecordUpdateFrame() {
	UpdateFramesSent.Inc()
}

// TrackCamClient tracks connected MJPEG clients.
func TrackCamClient(open bool) {
	if open {
		CamClients.Inc()
	} else {
		CamClients.Dec()
	}
}

// RecordCamFrame records an MJPEG frame send attempt.
func RecordCamFrame(sent bool) {
	if sent {
		CamFramesSent.Inc()
	} else {
		CamFramesDropped.Inc()
	}
}

// RecordVideoRequest records a video range request and the bytes it moved.
func RecordVideoRequest(status int, bytes int64) {
	VideoRequests.WithLabelValues(strconv.Itoa(status)).Inc()
	if bytes > 0 {
		VideoBytesSent.Add(float64(bytes))
	}
}

// RecordSettingsSave records a settings save operation.
func RecordSettingsSave(err error) {
	if err != nil {
		SettingsSaves.WithLabelValues("error").Inc()
		return
	}
	SettingsSaves.WithLabelValues("ok").Inc()
}

// RecordSettingsLoad records a settings load operation.
func RecordSettingsLoad(err error) {
	if err != nil {
		SettingsLoads.WithLabelValues("error").Inc()
		return
	}
	SettingsLoads.WithLabelValues("ok").Inc()
}

// RecordWSError records a WebSocket error by type.
func RecordWSError(errorType string) {
	WSErrors.WithLabelValues(errorType).Inc()
}

// SetAppInfo publishes version and build information.
func SetAppInfo(version, goVersion string) {
	AppInfo.WithLabelValues(version, goVersion).Set(1)
}

// UpdateUptime refreshes the uptime gauge from the given start time.
func UpdateUptime(start time.Time) {
	AppUptime.Set(time.Since(start).Seconds())
}
