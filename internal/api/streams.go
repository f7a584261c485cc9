// Specula - Watchable Values and Home Dashboard Toolkit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/specula

package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/tomtom215/specula/internal/logging"
	"github.com/tomtom215/specula/internal/metrics"
)

// Defaults used when the handler runs without a config (tests).
const (
	defaultPollInterval = 3 * time.Second
	defaultFrameRate    = 25.0
)

// maxVideoChunk caps end minus start of a range answer: one response
// carries at most 64 KiB, the player asks again for the next window.
const maxVideoChunk = 65535

func (h *Handler) pollInterval() time.Duration {
	if h.config != nil && h.config.Updates.PollInterval > 0 {
		return h.config.Updates.PollInterval
	}
	return defaultPollInterval
}

func (h *Handler) frameRate() float64 {
	if h.config != nil && h.config.Streams.FrameRate > 0 {
		return h.config.Streams.FrameRate
	}
	return defaultFrameRate
}

// updateStream serves server-sent events: the poll result as a JSON
// data frame, repeated every poll interval until the client leaves or
// the server stops. A nil first poll fails the request; a nil later
// poll just ends the stream.
func (h *Handler) updateStream(name string, poll PollFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "streaming unsupported", http.StatusInternalServerError)
			return
		}

		data := h.fetchData(name, func() any { return poll(r) })
		if data == nil {
			logging.Warn().Str("page", name).Msg("update stream poll returned nothing")
			http.Error(w, "no data for stream", http.StatusInternalServerError)
			return
		}

		metrics.TrackUpdateStream(true)
		defer metrics.TrackUpdateStream(false)

		w.Header().Set("Content-Type", "text/event-stream; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		w.WriteHeader(http.StatusOK)

		ticker := time.NewTicker(h.pollInterval())
		defer ticker.Stop()

		for {
			if !writeEventFrame(w, flusher, name, data) {
				return
			}
			select {
			case <-r.Context().Done():
				logging.Debug().Str("page", name).Str("client", r.RemoteAddr).Msg("update stream client left")
				return
			case <-ticker.C:
			}
			data = h.fetchData(name, func() any { return poll(r) })
			if data == nil {
				logging.Debug().Str("page", name).Msg("update stream poll dried up")
				return
			}
		}
	}
}

func writeEventFrame(w io.Writer, flusher http.Flusher, name string, data any) bool {
	payload, err := json.Marshal(data)
	if err != nil {
		logging.Error().Err(err).Str("page", name).Msg("Failed to marshal update frame")
		return false
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
		return false
	}
	flusher.Flush()
	metrics.RecordUpdateFrame()
	return true
}

// cameraStream serves MJPEG: one multipart response whose parts replace
// each other in the player. Frames are paced at the configured rate; the
// source is always closed when the stream ends.
func (h *Handler) cameraStream(name string, src SourceFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "streaming unsupported", http.StatusInternalServerError)
			return
		}

		source, err := src(r)
		if err != nil || source == nil {
			if err != nil {
				logging.Warn().Err(err).Str("page", name).Msg("camera stream has no source")
			}
			http.Error(w, "no source for stream", http.StatusServiceUnavailable)
			return
		}
		defer source.Close()

		metrics.TrackCamClient(true)
		defer metrics.TrackCamClient(false)

		w.Header().Set("Age", "0")
		w.Header().Set("Cache-Control", "no-cache, private")
		w.Header().Set("Pragma", "no-cache")
		w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=FRAME")
		w.WriteHeader(http.StatusOK)

		logging.Info().Str("page", name).Str("client", r.RemoteAddr).Msg("camera stream started")

		limiter := rate.NewLimiter(rate.Limit(h.frameRate()), 1)
		for {
			if err := limiter.Wait(r.Context()); err != nil {
				logging.Info().Str("page", name).Str("client", r.RemoteAddr).Msg("camera stream client left")
				return
			}

			frame, contentType, err := source.NextFrame()
			if err != nil {
				if errors.Is(err, io.EOF) {
					logging.Info().Str("page", name).Msg("camera stream source exhausted")
				} else {
					logging.Warn().Err(err).Str("page", name).Msg("camera stream source failed")
				}
				return
			}

			if !writeFramePart(w, flusher, frame, contentType) {
				metrics.RecordCamFrame(false)
				logging.Info().Str("page", name).Str("client", r.RemoteAddr).Msg("camera stream client left")
				return
			}
			metrics.RecordCamFrame(true)
		}
	}
}

func writeFramePart(w io.Writer, flusher http.Flusher, frame []byte, contentType string) bool {
	if _, err := fmt.Fprintf(w, "--FRAME\r\nContent-Type: %s\r\nContent-Length: %d\r\n\r\n", contentType, len(frame)); err != nil {
		return false
	}
	if _, err := w.Write(frame); err != nil {
		return false
	}
	if _, err := w.Write([]byte("\r\n")); err != nil {
		return false
	}
	flusher.Flush()
	return true
}

// videoStream serves byte ranges of the file the entry's resolve picks.
// Range answers are capped at 64 KiB; an absent Range header means
// start from the beginning.
func (h *Handler) videoStream(name string, resolve ResolveFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		target := resolve(r.URL.Query())
		if target == "" {
			metrics.RecordVideoRequest(http.StatusNotFound, 0)
			http.Error(w, "no such video", http.StatusNotFound)
			return
		}

		f, err := os.Open(target)
		if err != nil {
			logging.Warn().Err(err).Str("page", name).Msg("video file missing")
			metrics.RecordVideoRequest(http.StatusNotFound, 0)
			http.Error(w, "no such video", http.StatusNotFound)
			return
		}
		defer f.Close()

		info, err := f.Stat()
		if err != nil || !info.Mode().IsRegular() {
			metrics.RecordVideoRequest(http.StatusNotFound, 0)
			http.Error(w, "no such video", http.StatusNotFound)
			return
		}
		size := info.Size()

		start, end, err := parseByteRange(r.Header.Get("Range"), size)
		if err != nil {
			logging.Warn().Err(err).Str("page", name).Str("range", sanitizeLogValue(r.Header.Get("Range"))).Msg("bad video range")
			metrics.RecordVideoRequest(http.StatusRequestedRangeNotSatisfiable, 0)
			http.Error(w, err.Error(), http.StatusRequestedRangeNotSatisfiable)
			return
		}

		if _, err := f.Seek(start, io.SeekStart); err != nil {
			metrics.RecordVideoRequest(http.StatusInternalServerError, 0)
			http.Error(w, "seek failed", http.StatusInternalServerError)
			return
		}

		contentType := "video/mp4"
		if ct, ok := mimeForSuffix(filepath.Ext(target)); ok {
			contentType = ct
		}

		length := end - start + 1
		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Content-Length", fmt.Sprint(length))
		w.Header().Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, end, size))
		w.Header().Set("Accept-Ranges", "bytes")
		w.WriteHeader(http.StatusPartialContent)

		sent, err := io.CopyN(w, f, length)
		metrics.RecordVideoRequest(http.StatusPartialContent, sent)
		if err != nil {
			logging.Debug().Err(err).Str("page", name).Msg("video write ended early")
		}
	}
}

// parseByteRange parses "bytes=start-end". Either bound may be absent;
// end clamps to the last byte and the window caps at maxVideoChunk.
func parseByteRange(header string, size int64) (start, end int64, err error) {
	start, end = 0, size-1

	if header != "" {
		unit, spec, ok := strings.Cut(strings.TrimSpace(header), "=")
		if !ok || strings.TrimSpace(unit) != "bytes" {
			return 0, 0, fmt.Errorf("unsupported range unit")
		}
		// Players send a single range; extras are ignored.
		if i := strings.IndexByte(spec, ','); i >= 0 {
			spec = spec[:i]
		}
		from, to, ok := strings.Cut(spec, "-")
		if !ok {
			return 0, 0, fmt.Errorf("malformed range")
		}
		if s := strings.TrimSpace(from); s != "" {
			if start, err = strconv.ParseInt(s, 10, 64); err != nil {
				return 0, 0, fmt.Errorf("malformed range start")
			}
		}
		if s := strings.TrimSpace(to); s != "" {
			if end, err = strconv.ParseInt(s, 10, 64); err != nil {
				return 0, 0, fmt.Errorf("malformed range end")
			}
		}
	}

	if end >= size {
		end = size - 1
	}
	if end-start > maxVideoChunk {
		end = start + maxVideoChunk
	}
	if start < 0 || start >= size || start > end {
		return 0, 0, fmt.Errorf("range out of bounds")
	}
	return start, end, nil
}
