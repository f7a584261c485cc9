// Specula - Watchable Values and Home Dashboard Toolkit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/specula

package services

import (
	"context"
	"time"

	"github.com/tomtom215/specula/internal/updates"
)

// ReaperService runs the update-list registry's expiry sweeps as a
// supervised service. Pages that stop polling leave their update lists
// behind; the reaper closes and drops them after the expiry window.
//
// Example usage:
//
//	registry := updates.NewRegistry(cfg.Updates.PageExpiry)
//	tree.AddPageService(services.NewReaperService(registry, cfg.Updates.ReaperInterval))
type ReaperService struct {
	registry *updates.Registry
	interval time.Duration
	name     string
}

// NewReaperService creates a reaper service for the registry. A zero or
// negative interval selects the registry's default sweep interval.
func NewReaperService(registry *updates.Registry, interval time.Duration) *ReaperService {
	return &ReaperService{
		registry: registry,
		interval: interval,
		name:     "updates-reaper",
	}
}

// Serve implements suture.Service. It sweeps until the context is
// canceled; the registry closes all remaining lists on the way out.
func (s *ReaperService) Serve(ctx context.Context) error {
	return s.registry.Run(ctx, s.interval)
}

// String implements fmt.Stringer so suture can name the service in logs.
func (s *ReaperService) String() string {
	return s.name
}
