// Specula - Watchable Values and Home Dashboard Toolkit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/specula

package services

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"
)

// HTTPService wraps an *http.Server as a supervised service.
//
// It translates between the server's blocking ListenAndServe pattern and
// suture's context-aware Serve pattern:
//
//  1. Binds the server's request base context to the service context, so
//     long-lived responses (SSE, MJPEG) see cancellation and end
//  2. Starts ListenAndServe in a goroutine
//  3. Waits for either context cancellation or a server error
//  4. On shutdown, calls Shutdown with the configured timeout
//
// Example usage:
//
//	srv := &http.Server{Addr: ":8000", Handler: router}
//	tree.AddAPIService(services.NewHTTPService(srv, 10*time.Second))
type HTTPService struct {
	server          *http.Server
	shutdownTimeout time.Duration
	name            string
}

// NewHTTPService creates a new HTTP server service wrapper.
//
// The shutdownTimeout bounds how long to wait for active connections to
// close during graceful shutdown.
func NewHTTPService(server *http.Server, shutdownTimeout time.Duration) *HTTPService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &HTTPService{
		server:          server,
		shutdownTimeout: shutdownTimeout,
		name:            "http-server",
	}
}

// Serve implements suture.Service.
//
// Returns nil on graceful shutdown, or an error if the server fails.
// http.ErrServerClosed is converted to nil since it's expected on
// shutdown.
func (h *HTTPService) Serve(ctx context.Context) error {
	// Requests inherit the service context. Without this, streaming
	// responses would hold Shutdown open until their clients leave.
	h.server.BaseContext = func(net.Listener) context.Context { return ctx }

	errCh := make(chan error, 1)
	go func() {
		if err := h.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil

	case <-ctx.Done():
		// The original context is canceled; shutdown needs its own.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), h.shutdownTimeout)
		defer cancel()

		if err := h.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http server shutdown failed: %w", err)
		}

		<-errCh
		return ctx.Err()
	}
}

// String implements fmt.Stringer so suture can name the service in logs.
func (h *HTTPService) String() string {
	return h.name
}
