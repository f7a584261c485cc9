// Specula - Watchable Values and Home Dashboard Toolkit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/specula

package services

import (
	"context"
	"time"

	"github.com/tomtom215/specula/internal/metrics"
)

const defaultUptimeInterval = 15 * time.Second

// UptimeService keeps the Prometheus uptime gauge current. It ticks on a
// fixed interval so scrapes between ticks stay at most one interval
// stale.
type UptimeService struct {
	start    time.Time
	interval time.Duration
	name     string
}

// NewUptimeService creates an uptime ticker counting from start. A zero
// or negative interval selects the default of 15s.
func NewUptimeService(start time.Time, interval time.Duration) *UptimeService {
	if interval <= 0 {
		interval = defaultUptimeInterval
	}
	return &UptimeService{
		start:    start,
		interval: interval,
		name:     "uptime-ticker",
	}
}

// Serve implements suture.Service.
func (s *UptimeService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	metrics.UpdateUptime(s.start)
	for {
		select {
		case <-ticker.C:
			metrics.UpdateUptime(s.start)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// String implements fmt.Stringer so suture can name the service in logs.
func (s *UptimeService) String() string {
	return s.name
}
