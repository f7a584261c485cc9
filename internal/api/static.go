// Specula - Watchable Values and Home Dashboard Toolkit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/specula

package api

import (
	"fmt"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/tomtom215/specula/internal/logging"
)

// suffixTypes is the closed set of file types the static file handler
// serves. Anything else answers 501 rather than a guessed content type.
var suffixTypes = map[string]string{
	".css":  "text/css; charset=utf-8",
	".html": "text/html; charset=utf-8",
	".js":   "text/javascript; charset=utf-8",
	".ico":  "image/x-icon",
	".jpg":  "image/jpeg",
	".png":  "image/png",
	".mp4":  "video/mp4",
	".svg":  "image/svg+xml",
}

// mimeForSuffix returns the content type for a file suffix.
func mimeForSuffix(suffix string) (string, bool) {
	ct, ok := suffixTypes[strings.ToLower(suffix)]
	return ct, ok
}

// StaticFile serves one file from the configured static root. The suffix
// must be in the served set (501 otherwise) and the file must exist
// (404 otherwise).
func (h *Handler) StaticFile(w http.ResponseWriter, r *http.Request) {
	rel := strings.TrimPrefix(r.URL.Path, "/static/")

	// Clean with a rooted path so ".." cannot climb out of the static root.
	rel = strings.TrimPrefix(path.Clean("/"+rel), "/")
	if rel == "" {
		http.Error(w, "file not present or not a file", http.StatusNotFound)
		return
	}

	full := filepath.Join(h.config.Server.StaticRoot, filepath.FromSlash(rel))

	info, err := os.Stat(full)
	if err != nil || !info.Mode().IsRegular() {
		http.Error(w, fmt.Sprintf("file %s not present or not a file", rel), http.StatusNotFound)
		return
	}

	ct, ok := mimeForSuffix(filepath.Ext(full))
	if !ok {
		logging.Info().Str("file", sanitizeLogValue(rel)).Msg("static file with unserved suffix")
		http.Error(w, fmt.Sprintf("no mime type served for %s", filepath.Ext(full)), http.StatusNotImplemented)
		return
	}

	data, err := os.ReadFile(full)
	if err != nil {
		logging.Error().Err(err).Str("file", sanitizeLogValue(rel)).Msg("static file read failed")
		http.Error(w, "file read failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", ct)
	w.Header().Set("Content-Length", fmt.Sprint(len(data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		logging.Debug().Err(err).Str("file", sanitizeLogValue(rel)).Msg("static file write failed")
	}
}
