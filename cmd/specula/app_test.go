// Specula - Watchable Values and Home Dashboard Toolkit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/specula

package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/specula/internal/config"
	"github.com/tomtom215/specula/internal/updates"
	"github.com/tomtom215/specula/internal/watch"
)

func demoFixture(t *testing.T) (*config.Config, *watch.Group) {
	t.Helper()
	cfg := &config.Config{}
	cfg.Streams.MediaRoot = t.TempDir()
	app := watch.NewApp([]watch.Agent{watch.AgentApp, watch.AgentUser}, zerolog.Nop())
	return cfg, watch.NewGroup(app, nil, demoDefs(cfg))
}

func TestDemoTableValidates(t *testing.T) {
	t.Parallel()

	cfg, group := demoFixture(t)
	registry := updates.NewRegistry(time.Minute)
	t.Cleanup(registry.CloseAll)

	table := demoTable(cfg, group, registry)
	if err := table.Validate(); err != nil {
		t.Fatalf("demo table does not validate: %v", err)
	}
	if _, ok := table.Lookup(""); !ok {
		t.Error("demo table has no site root entry")
	}
}

func TestDemoGroupBuildsAllMembers(t *testing.T) {
	t.Parallel()

	cfg, group := demoFixture(t)
	want := []string{"exposure", "gain", "quality", "label", "snap", "clips"}
	got := group.Names()
	if len(got) != len(want) {
		t.Fatalf("group members = %v, want %v", got, want)
	}
	for i, name := range want {
		if got[i] != name {
			t.Errorf("member %d = %q, want %q", i, got[i], name)
		}
	}
	// The clips folder must exist now; building it creates the media root.
	if fi, err := os.Stat(cfg.Streams.MediaRoot); err != nil || !fi.IsDir() {
		t.Errorf("media root %s not created: %v", cfg.Streams.MediaRoot, err)
	}
}

func TestDashboardPageBindsFields(t *testing.T) {
	t.Parallel()

	_, group := demoFixture(t)
	list := updates.NewList()
	defer list.Close()

	res, err := dashboardPage(group)(httptest.NewRequest(http.MethodGet, "/index.html", nil), list)
	if err != nil {
		t.Fatalf("dashboard page failed: %v", err)
	}
	if res.Status != http.StatusOK {
		t.Errorf("status = %d, want 200", res.Status)
	}
	body := string(res.Body)
	if !strings.Contains(body, `id="f-exposure"`) {
		t.Error("page is missing the exposure field")
	}
	if !strings.Contains(body, list.Ref()) {
		t.Error("page does not carry its page ref")
	}
	if !list.HasLinks() {
		t.Fatal("page registered no links")
	}

	// An app-side change must queue for the page's next poll.
	exposure, ok := watch.Member[*watch.Int](group, "exposure")
	if !ok {
		t.Fatal("no exposure member")
	}
	if _, err := exposure.SetValue(250, watch.AgentApp); err != nil {
		t.Fatalf("setting exposure: %v", err)
	}
	ups := list.Updates()
	found := false
	for _, pair := range ups {
		if pair[0] == "f-exposure" && pair[1] == "250" {
			found = true
		}
	}
	if !found {
		t.Errorf("updates %v do not carry the exposure change", ups)
	}
}

func TestPatternFramesProduceJPEG(t *testing.T) {
	t.Parallel()

	_, group := demoFixture(t)
	src, err := patternSource(group)(httptest.NewRequest(http.MethodGet, "/camera", nil))
	if err != nil {
		t.Fatalf("opening pattern source: %v", err)
	}
	defer src.Close()

	frame, contentType, err := src.NextFrame()
	if err != nil {
		t.Fatalf("NextFrame failed: %v", err)
	}
	if contentType != "image/jpeg" {
		t.Errorf("content type = %q, want image/jpeg", contentType)
	}
	if !bytes.HasPrefix(frame, []byte{0xff, 0xd8}) {
		t.Error("frame does not start with a JPEG marker")
	}

	// The source never exhausts; the next frame must come as well.
	if _, _, err := src.NextFrame(); err != nil {
		t.Errorf("second frame failed: %v", err)
	}
}

func TestMediaResolver(t *testing.T) {
	t.Parallel()

	resolve := mediaResolver("/srv/media")

	if got := resolve(url.Values{"file": {"clip.mp4"}}); got != filepath.Join("/srv/media", "clip.mp4") {
		t.Errorf("resolve = %q", got)
	}
	if got := resolve(url.Values{"file": {"../../etc/passwd"}}); got != filepath.Join("/srv/media", "passwd") {
		t.Errorf("traversal resolve = %q, want base name only", got)
	}
	if got := resolve(url.Values{}); got != "" {
		t.Errorf("empty query resolve = %q, want empty", got)
	}
}

func TestSetValuePost(t *testing.T) {
	t.Parallel()

	_, group := demoFixture(t)
	post := setValuePost(group)

	res := post(map[string]any{"name": "exposure", "value": "300"})
	if res.Status != http.StatusOK {
		t.Fatalf("status = %d (%s), want 200", res.Status, res.Message)
	}
	data, ok := res.Data.(map[string]any)
	if !ok || data["value"] != "300" {
		t.Errorf("data = %v, want value 300", res.Data)
	}

	if res := post(map[string]any{"name": "ghost", "value": "1"}); res.Status != http.StatusNotFound {
		t.Errorf("unknown name status = %d, want 404", res.Status)
	}
	if res := post(map[string]any{"name": "exposure"}); res.Status != http.StatusBadRequest {
		t.Errorf("missing value status = %d, want 400", res.Status)
	}
	if res := post(map[string]any{"value": "1"}); res.Status != http.StatusBadRequest {
		t.Errorf("missing name status = %d, want 400", res.Status)
	}
	if res := post(map[string]any{"name": "exposure", "value": "9999"}); res.Status != http.StatusBadRequest {
		t.Errorf("out-of-range status = %d, want 400", res.Status)
	}
}

func TestStatusQuery(t *testing.T) {
	t.Parallel()

	_, group := demoFixture(t)
	registry := updates.NewRegistry(time.Minute)
	t.Cleanup(registry.CloseAll)
	registry.Add(updates.NewList())

	out := statusQuery(group, registry)(nil)
	status, ok := out.(map[string]any)
	if !ok {
		t.Fatalf("status result is %T", out)
	}
	if status["pages"] != 1 {
		t.Errorf("pages = %v, want 1", status["pages"])
	}
	values, ok := status["values"].(map[string]any)
	if !ok || values["exposure"] != int64(125) {
		t.Errorf("values = %v, want exposure 125", status["values"])
	}
}

func TestStartBanner(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		ips  []string
		want string
	}{
		{"none", nil,
			"starting webserver on internal IP only (no external IP addresses found), port 8000"},
		{"one", []string{"192.168.1.20"},
			"Starting webserver on 192.168.1.20:8000"},
		{"several", []string{"192.168.1.20", "10.0.0.7"},
			"Starting webserver on multiple ip addresses (192.168.1.20, 10.0.0.7), port:8000"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := startBanner(tc.ips, 8000); got != tc.want {
				t.Errorf("banner = %q, want %q", got, tc.want)
			}
		})
	}
}
