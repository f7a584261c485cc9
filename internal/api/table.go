// Specula - Watchable Values and Home Dashboard Toolkit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/specula

package api

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/tomtom215/specula/internal/updates"
)

// EntryKind selects how a route-table entry is served.
type EntryKind string

// The entry kinds a serving app can put in its table.
const (
	KindStaticPage   EntryKind = "page"
	KindDynamicPage  EntryKind = "dynamicpage"
	KindValueUpdate  EntryKind = "updatewv"
	KindUpdateStream EntryKind = "updatestream"
	KindCameraStream EntryKind = "camstream"
	KindVideoStream  EntryKind = "vidstream"
	KindRedirect     EntryKind = "redirect"
	KindQuery        EntryKind = "query"
)

// Paths the server claims for itself. Table entries must not shadow them.
var reservedPaths = []string{"api", "metrics", "static", "ws"}

// PageResult is what an app page function returns: the status to send,
// extra headers, and the body. A nil result is treated as an app failure.
type PageResult struct {
	Status  int
	Headers [][2]string
	Body    []byte
}

// TextPage builds a PageResult from a string body.
func TextPage(status int, body string) *PageResult {
	return &PageResult{Status: status, Body: []byte(body)}
}

// PageFunc builds a page for a request. An error or panic in app code is
// logged and answered with 500.
type PageFunc func(r *http.Request) (*PageResult, error)

// DynamicPageFunc builds a page and may bind fields on it to live values
// through the update list. The list is registered with the server only
// when the function bound at least one field.
type DynamicPageFunc func(r *http.Request, list *updates.List) (*PageResult, error)

// PollFunc produces one frame of an update stream. A nil result on the
// first call fails the request; after that the stream just ends.
type PollFunc func(r *http.Request) any

// UpdateStreamParam is the query parameter carrying the page ref on
// update stream and poll requests.
const UpdateStreamParam = "updatename"

// RegistryPoll returns the standard PollFunc: read the page ref from the
// request and poll the registry, which answers queued updates or the
// unknown-list sentinel.
func RegistryPoll(reg *updates.Registry) PollFunc {
	return func(r *http.Request) any {
		return reg.Poll(r.URL.Query().Get(UpdateStreamParam))
	}
}

// FrameSource yields the frames of a camera stream. NextFrame returns
// io.EOF when the source is exhausted; Close always runs when the stream
// ends, whichever side ended it.
type FrameSource interface {
	NextFrame() (frame []byte, contentType string, err error)
	Close()
}

// SourceFunc opens a frame source for a camera stream request. Returning
// an error or a nil source answers the request with 503.
type SourceFunc func(r *http.Request) (FrameSource, error)

// ResolveFunc maps the request's query parameters to the video file to
// serve. An empty result is a 404.
type ResolveFunc func(params url.Values) string

// QueryFunc answers a generic JSON query. A nil result is a 502.
type QueryFunc func(params url.Values) any

// PostResult is what a POST handler returns. Status 200 sends Data as
// JSON; any other status sends Message as the error text.
type PostResult struct {
	Status  int
	Data    any
	Message string
}

// PostFunc handles one decoded JSON POST body.
type PostFunc func(body map[string]any) *PostResult

// Entry is one GET route in the table. Build entries with the
// constructors below; the kind decides which function is consulted.
type Entry struct {
	Kind EntryKind

	page     PageFunc
	dynamic  DynamicPageFunc
	poll     PollFunc
	source   SourceFunc
	resolve  ResolveFunc
	location string
	query    QueryFunc
	fixed    url.Values
}

// StaticPage serves a page built fresh per request by fn.
func StaticPage(fn PageFunc) Entry {
	return Entry{Kind: KindStaticPage, page: fn}
}

// DynamicPage serves a page whose fields may be linked to live values.
func DynamicPage(fn DynamicPageFunc) Entry {
	return Entry{Kind: KindDynamicPage, dynamic: fn}
}

// ValueUpdate accepts user edits from a served page: query params t
// (field id), v (new value) and p (page ref).
func ValueUpdate() Entry {
	return Entry{Kind: KindValueUpdate}
}

// UpdateStream serves server-sent events, one frame per poll.
func UpdateStream(poll PollFunc) Entry {
	return Entry{Kind: KindUpdateStream, poll: poll}
}

// CameraStream serves MJPEG from a per-request frame source.
func CameraStream(src SourceFunc) Entry {
	return Entry{Kind: KindCameraStream, source: src}
}

// VideoStream serves byte ranges of the file resolve picks.
func VideoStream(resolve ResolveFunc) Entry {
	return Entry{Kind: KindVideoStream, resolve: resolve}
}

// Redirect answers 301 to location.
func Redirect(location string) Entry {
	return Entry{Kind: KindRedirect, location: location}
}

// Query answers a JSON query. Fixed params override the request's.
func Query(fn QueryFunc, fixed url.Values) Entry {
	return Entry{Kind: KindQuery, query: fn, fixed: fixed}
}

// Table is the route table a serving app hands the server: GET maps page
// names to entries, POST maps page names to JSON handlers. Names are
// stored without a leading slash, the way pages reference each other.
type Table struct {
	GET  map[string]Entry
	POST map[string]PostFunc
}

// normalizeName strips a single leading slash so table keys and request
// paths compare equal either way the app wrote them.
func normalizeName(name string) string {
	return strings.TrimPrefix(name, "/")
}

// Lookup finds the GET entry for a request path.
func (t *Table) Lookup(path string) (Entry, bool) {
	if t == nil || t.GET == nil {
		return Entry{}, false
	}
	e, ok := t.GET[normalizeName(path)]
	return e, ok
}

// Post finds the POST handler for a request path.
func (t *Table) Post(path string) (PostFunc, bool) {
	if t == nil || t.POST == nil {
		return nil, false
	}
	fn, ok := t.POST[normalizeName(path)]
	return fn, ok
}

// Validate checks that every entry carries the function its kind needs
// and that no name shadows a server-reserved path. A nil table is valid
// and serves nothing.
func (t *Table) Validate() error {
	if t == nil {
		return nil
	}
	for name, e := range t.GET {
		norm := normalizeName(name)
		if err := validateName(norm); err != nil {
			return fmt.Errorf("api: GET entry %q: %w", name, err)
		}
		if err := e.validate(); err != nil {
			return fmt.Errorf("api: GET entry %q: %w", name, err)
		}
	}
	for name, fn := range t.POST {
		norm := normalizeName(name)
		if err := validateName(norm); err != nil {
			return fmt.Errorf("api: POST entry %q: %w", name, err)
		}
		if fn == nil {
			return fmt.Errorf("api: POST entry %q: nil handler", name)
		}
	}
	return nil
}

func validateName(name string) error {
	// The empty name is the site root.
	if name == "" {
		return nil
	}
	for _, reserved := range reservedPaths {
		if name == reserved || strings.HasPrefix(name, reserved+"/") {
			return fmt.Errorf("name shadows reserved path /%s", reserved)
		}
	}
	for _, seg := range strings.Split(name, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return fmt.Errorf("invalid path segment %q", seg)
		}
	}
	return nil
}

func (e Entry) validate() error {
	switch e.Kind {
	case KindStaticPage:
		if e.page == nil {
			return fmt.Errorf("static page with nil function")
		}
	case KindDynamicPage:
		if e.dynamic == nil {
			return fmt.Errorf("dynamic page with nil function")
		}
	case KindValueUpdate:
		// carries no data
	case KindUpdateStream:
		if e.poll == nil {
			return fmt.Errorf("update stream with nil poll function")
		}
	case KindCameraStream:
		if e.source == nil {
			return fmt.Errorf("camera stream with nil source function")
		}
	case KindVideoStream:
		if e.resolve == nil {
			return fmt.Errorf("video stream with nil resolve function")
		}
	case KindRedirect:
		if e.location == "" {
			return fmt.Errorf("redirect with empty location")
		}
	case KindQuery:
		if e.query == nil {
			return fmt.Errorf("query with nil function")
		}
	default:
		return fmt.Errorf("unknown entry kind %q", e.Kind)
	}
	return nil
}
