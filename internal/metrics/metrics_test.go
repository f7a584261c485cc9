// Specula - Watchable Values and Home Dashboard Toolkit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/specula

package metrics

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	io_prometheus_client "github.com/prometheus/client_model/go"
)

// getCounterValue extracts the value from a Prometheus counter
func getCounterValue(counter prometheus.Counter) float64 {
	var m io_prometheus_client.Metric
	if err := counter.Write(&m); err != nil {
		return 0
	}
	return m.GetCounter().GetValue()
}

// getGaugeValue extracts the value from a Prometheus gauge
func getGaugeValue(gauge prometheus.Gauge) float64 {
	var m io_prometheus_client.Metric
	if err := gauge.Write(&m); err != nil {
		return 0
	}
	return m.GetGauge().GetValue()
}

// TestRecordHTTPRequest tests HTTP request metric recording
func TestRecordHTTPRequest(t *testing.T) {
	tests := []struct {
		name     string
		method   string
		endpoint string
		status   int
		duration time.Duration
	}{
		{
			name:     "successful GET request",
			method:   "GET",
			endpoint: "/api/v1/health",
			status:   200,
			duration: 5 * time.Millisecond,
		},
		{
			name:     "successful POST value update",
			method:   "POST",
			endpoint: "/updatewv",
			status:   200,
			duration: 12 * time.Millisecond,
		},
		{
			name:     "gone page registration",
			method:   "GET",
			endpoint: "/updatewv",
			status:   410,
			duration: 2 * time.Millisecond,
		},
		{
			name:     "not found request",
			method:   "GET",
			endpoint: "/missing.html",
			status:   404,
			duration: time.Millisecond,
		},
		{
			name:     "unsupported media type",
			method:   "GET",
			endpoint: "/archive.tar",
			status:   501,
			duration: time.Millisecond,
		},
		{
			name:     "internal server error",
			method:   "POST",
			endpoint: "/api/v1/settings/save",
			status:   500,
			duration: 250 * time.Millisecond,
		},
		{
			name:     "slow streaming request",
			method:   "GET",
			endpoint: "/vidstream",
			status:   206,
			duration: 8 * time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Record the request - should not panic
			RecordHTTPRequest(tt.method, tt.endpoint, tt.status, tt.duration)
		})
	}
}

// TestTrackActiveRequest tests active request gauge tracking
func TestTrackActiveRequest(t *testing.T) {
	tests := []struct {
		name string
		inc  bool
	}{
		{
			name: "increment active request",
			inc:  true,
		},
		{
			name: "decrement active request",
			inc:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			TrackActiveRequest(tt.inc)
		})
	}
}

// TestTrackActiveRequest_RequestLifecycle simulates a realistic request lifecycle
func TestTrackActiveRequest_RequestLifecycle(t *testing.T) {
	before := getGaugeValue(HTTPActiveRequests)

	for i := 0; i < 10; i++ {
		TrackActiveRequest(true) // Request starts
	}

	for i := 0; i < 5; i++ {
		TrackActiveRequest(false) // Request ends
	}

	for i := 0; i < 3; i++ {
		TrackActiveRequest(true)
	}

	for i := 0; i < 8; i++ {
		TrackActiveRequest(false)
	}

	// Every start was matched by an end
	after := getGaugeValue(HTTPActiveRequests)
	if after != before {
		t.Errorf("expected active requests to return to %v, got %v", before, after)
	}
}

// TestRecordValueChange tests value change metric recording
func TestRecordValueChange(t *testing.T) {
	tests := []struct {
		name    string
		tree    string
		varName string
	}{
		{
			name:    "settings tree variable",
			tree:    "settings",
			varName: "cam_delay",
		},
		{
			name:    "runtime tree variable",
			tree:    "runtime",
			varName: "threshold",
		},
		{
			name:    "nested variable path",
			tree:    "settings",
			varName: "alarm.armed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			RecordValueChange(tt.tree, tt.varName)
		})
	}
}

// TestRecordValueNotification tests observer notification recording
func TestRecordValueNotification(t *testing.T) {
	agents := []string{"webpage", "controller", "logic", ""}

	for _, agent := range agents {
		RecordValueNotification(agent)
	}
}

// TestRecordValidationFailure_ReasonTruncation verifies reasons are truncated at 50 chars
func TestRecordValidationFailure_ReasonTruncation(t *testing.T) {
	// Reason with exactly 50 characters
	RecordValidationFailure("threshold", strings.Repeat("a", 50))

	// Reason with 51 characters - should truncate
	RecordValidationFailure("threshold", strings.Repeat("b", 51))

	// Reason with 200 characters - should truncate
	RecordValidationFailure("threshold", strings.Repeat("c", 200))

	// Very short reason
	RecordValidationFailure("threshold", "nope")

	// Empty reason
	RecordValidationFailure("threshold", "")
}

// TestPageRegistryMetrics tests page registration and reaping counters
func TestPageRegistryMetrics(t *testing.T) {
	registeredBefore := getCounterValue(PagesRegistered)
	reapedBefore := getCounterValue(PagesReaped)

	RecordPageRegistered()
	RecordPageRegistered()

	// Reap a batch
	RecordPagesReaped(2)

	// Zero and negative counts are ignored
	RecordPagesReaped(0)
	RecordPagesReaped(-1)

	if got := getCounterValue(PagesRegistered) - registeredBefore; got != 2 {
		t.Errorf("expected 2 registrations, got %v", got)
	}
	if got := getCounterValue(PagesReaped) - reapedBefore; got != 2 {
		t.Errorf("expected 2 reaped pages, got %v", got)
	}
}

// TestUpdateStreamMetrics tests update stream tracking
func TestUpdateStreamMetrics(t *testing.T) {
	streamsBefore := getGaugeValue(UpdateStreams)
	framesBefore := getCounterValue(UpdateFramesSent)

	TrackUpdateStream(true)
	RecordUpdateFrame()
	RecordUpdateFrame()
	TrackUpdateStream(false)

	if got := getGaugeValue(UpdateStreams); got != streamsBefore {
		t.Errorf("expected stream gauge to return to %v, got %v", streamsBefore, got)
	}
	if got := getCounterValue(UpdateFramesSent) - framesBefore; got != 2 {
		t.Errorf("expected 2 frames sent, got %v", got)
	}
}

// TestCamStreamMetrics tests MJPEG client and frame tracking
func TestCamStreamMetrics(t *testing.T) {
	sentBefore := getCounterValue(CamFramesSent)
	droppedBefore := getCounterValue(CamFramesDropped)

	TrackCamClient(true)
	RecordCamFrame(true)
	RecordCamFrame(true)
	RecordCamFrame(false) // dropped frame
	TrackCamClient(false)

	if got := getCounterValue(CamFramesSent) - sentBefore; got != 2 {
		t.Errorf("expected 2 sent frames, got %v", got)
	}
	if got := getCounterValue(CamFramesDropped) - droppedBefore; got != 1 {
		t.Errorf("expected 1 dropped frame, got %v", got)
	}
}

// TestRecordVideoRequest tests video range request recording
func TestRecordVideoRequest(t *testing.T) {
	tests := []struct {
		name   string
		status int
		bytes  int64
	}{
		{
			name:   "partial content with payload",
			status: 206,
			bytes:  65536,
		},
		{
			name:   "not found with no payload",
			status: 404,
			bytes:  0,
		},
		{
			name:   "negative bytes are ignored",
			status: 206,
			bytes:  -1,
		},
	}

	bytesBefore := getCounterValue(VideoBytesSent)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			RecordVideoRequest(tt.status, tt.bytes)
		})
	}

	// Only the 65536-byte case should count
	if got := getCounterValue(VideoBytesSent) - bytesBefore; got != 65536 {
		t.Errorf("expected 65536 bytes recorded, got %v", got)
	}
}

// TestSettingsMetrics tests settings persistence recording
func TestSettingsMetrics(t *testing.T) {
	RecordSettingsSave(nil)
	RecordSettingsSave(errors.New("disk full"))
	RecordSettingsLoad(nil)
	RecordSettingsLoad(errors.New("no such file"))
}

// TestWebSocketMetrics tests WebSocket gauge and error recording
func TestWebSocketMetrics(t *testing.T) {
	WSConnections.Inc()
	WSMessagesSent.Inc()
	RecordWSError("write_failed")
	RecordWSError("connection_closed")
	WSConnections.Dec()
}

// TestRateLimitMetrics tests rate limit hit recording
func TestRateLimitMetrics(t *testing.T) {
	RecordRateLimitHit("/api/v1/values")
	RecordRateLimitHit("/updatewv")
}

// TestAppMetrics tests version info and uptime recording
func TestAppMetrics(t *testing.T) {
	SetAppInfo("1.0.0", "go1.24")
	UpdateUptime(time.Now().Add(-time.Minute))
}

// TestMetricLabels verifies that metrics have proper labels configured
func TestMetricLabels(t *testing.T) {
	// Test ValueChanges has correct labels
	ValueChanges.WithLabelValues("settings", "cam_delay").Inc()
	ValueChanges.WithLabelValues("runtime", "threshold").Inc()

	// Test ValueValidationFailures has correct labels
	ValueValidationFailures.WithLabelValues("threshold", "out of range").Inc()

	// Test ValuesRegistered has correct labels
	ValuesRegistered.WithLabelValues("settings").Set(12)

	// Test HTTPRequestsTotal has correct labels
	HTTPRequestsTotal.WithLabelValues("GET", "/api/test", "200").Inc()
	HTTPRequestsTotal.WithLabelValues("POST", "/api/test", "500").Inc()

	// Test VideoRequests has correct labels
	VideoRequests.WithLabelValues("206").Inc()

	// Test SettingsSaves has correct labels
	SettingsSaves.WithLabelValues("ok").Inc()
	SettingsSaves.WithLabelValues("error").Inc()

	// Test WSErrors has correct labels
	WSErrors.WithLabelValues("connection_closed").Inc()
	WSErrors.WithLabelValues("write_failed").Inc()
}

// TestConcurrentMetricRecording tests thread safety of metric recording
func TestConcurrentMetricRecording(t *testing.T) {
	var wg sync.WaitGroup
	numGoroutines := 100
	operationsPerGoroutine := 50

	// Test concurrent value change recording
	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func(id int) {
			defer wg.Done()
			for j := 0; j < operationsPerGoroutine; j++ {
				RecordValueChange("settings", "cam_delay")
				RecordValueNotification("webpage")
			}
		}(i)
	}

	// Test concurrent HTTP request recording
	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func(id int) {
			defer wg.Done()
			for j := 0; j < operationsPerGoroutine; j++ {
				RecordHTTPRequest("GET", "/api/v1/test", 200, time.Duration(j)*time.Millisecond)
			}
		}(i)
	}

	// Test concurrent active request tracking
	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func(id int) {
			defer wg.Done()
			for j := 0; j < operationsPerGoroutine; j++ {
				TrackActiveRequest(true)
				TrackActiveRequest(false)
			}
		}(i)
	}

	// Test concurrent stream frame recording
	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func(id int) {
			defer wg.Done()
			for j := 0; j < operationsPerGoroutine; j++ {
				RecordUpdateFrame()
				RecordCamFrame(j%2 == 0)
			}
		}(i)
	}

	wg.Wait()
}

// TestMetricsRegistration verifies all metrics can be collected without panic
func TestMetricsRegistration(t *testing.T) {
	metrics := []prometheus.Collector{
		ValueChanges,
		ValueNotifications,
		ValueValidationFailures,
		ValuesRegistered,
		PagesRegistered,
		PagesActive,
		PagesReaped,
		UpdateStreams,
		UpdateFramesSent,
		CamClients,
		CamFramesSent,
		CamFramesDropped,
		VideoRequests,
		VideoBytesSent,
		SettingsSaves,
		SettingsLoads,
		HTTPRequestsTotal,
		HTTPRequestDuration,
		HTTPActiveRequests,
		RateLimitHits,
		WSConnections,
		WSMessagesSent,
		WSErrors,
		AppInfo,
		AppUptime,
	}

	// Verify each metric can be described
	for _, m := range metrics {
		ch := make(chan *prometheus.Desc, 10)
		m.Describe(ch)
		close(ch)

		// Should have at least one descriptor
		count := 0
		for range ch {
			count++
		}
		if count == 0 {
			t.Errorf("Metric has no descriptors")
		}
	}
}

// Benchmark tests for metrics performance

func BenchmarkRecordHTTPRequest(b *testing.B) {
	for i := 0; i < b.N; i++ {
		RecordHTTPRequest("GET", "/api/v1/values", 200, 5*time.Millisecond)
	}
}

func BenchmarkRecordValueChange(b *testing.B) {
	for i := 0; i < b.N; i++ {
		RecordValueChange("settings", "cam_delay")
	}
}

func BenchmarkTrackActiveRequest(b *testing.B) {
	for i := 0; i < b.N; i++ {
		TrackActiveRequest(true)
		TrackActiveRequest(false)
	}
}

func BenchmarkRecordUpdateFrame(b *testing.B) {
	for i := 0; i < b.N; i++ {
		RecordUpdateFrame()
	}
}

// TestMetricGathering tests that metrics can be gathered using testutil
func TestMetricGathering(t *testing.T) {
	// Record some metrics
	RecordHTTPRequest("GET", "/test", 200, time.Millisecond)
	RecordValueChange("settings", "test")

	// Verify we can lint the metrics (checks for consistency issues)
	problems, err := testutil.GatherAndLint(prometheus.DefaultGatherer)
	if err != nil {
		t.Logf("Lint errors (may be expected): %v", err)
	}
	for _, p := range problems {
		t.Logf("Metric lint problem: %s", p.Text)
	}
}
