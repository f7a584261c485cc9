// Specula - Watchable Values and Home Dashboard Toolkit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/specula

package main

import (
	"bytes"
	"fmt"
	"html"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/tomtom215/specula/internal/api"
	"github.com/tomtom215/specula/internal/config"
	"github.com/tomtom215/specula/internal/updates"
	"github.com/tomtom215/specula/internal/watch"
)

// The built-in demo app: a camera-flavoured value group and the route
// table serving it. It stands in for the user's own app the way a
// sample config would, and exercises every entry kind the server has.

const demoPage = "index.html"

// demoDefs declares the demo group. Persist-flagged members survive in
// the settings file.
func demoDefs(cfg *config.Config) []watch.Def {
	return []watch.Def{
		{Name: "exposure", Persist: true, Make: func(a *watch.App) (watch.Watchable, error) {
			return watch.NewInt(a, 125, watch.IntOpts{Min: watch.Limit(1), Max: watch.Limit(1000)}, watch.FlagNone), nil
		}},
		{Name: "gain", Persist: true, Make: func(a *watch.App) (watch.Watchable, error) {
			return watch.NewFloat(a, 1.0, watch.FloatOpts{Min: 1, Max: 16, Clamp: true, NoNaN: true}, watch.FlagNone), nil
		}},
		{Name: "quality", Persist: true, Make: func(a *watch.App) (watch.Watchable, error) {
			e, err := watch.NewEnum(a, []string{"low", "medium", "high"}, "medium", watch.EnumOpts{}, watch.FlagNone)
			if err != nil {
				return nil, err
			}
			return e, nil
		}},
		{Name: "label", Persist: true, Make: func(a *watch.App) (watch.Watchable, error) {
			return watch.NewText(a, "front door", watch.FlagNone), nil
		}},
		{Name: "snap", Persist: false, Make: func(a *watch.App) (watch.Watchable, error) {
			return watch.NewButton(a, "Snap", watch.FlagNone), nil
		}},
		{Name: "clips", Persist: false, Make: func(a *watch.App) (watch.Watchable, error) {
			f, err := watch.NewFolder(a, cfg.Streams.MediaRoot, watch.FlagNone)
			if err != nil {
				return nil, err
			}
			return f, nil
		}},
	}
}

// demoTable is the route table of the demo app, covering every entry
// kind.
func demoTable(cfg *config.Config, group *watch.Group, registry *updates.Registry) *api.Table {
	return &api.Table{
		GET: map[string]api.Entry{
			"":       api.Redirect(demoPage),
			demoPage: api.DynamicPage(dashboardPage(group)),
			"about": api.StaticPage(func(r *http.Request) (*api.PageResult, error) {
				return api.TextPage(http.StatusOK, "Specula demo dashboard "+appVersion+"\n"), nil
			}),
			"updates":  api.UpdateStream(api.RegistryPoll(registry)),
			"updatewv": api.ValueUpdate(),
			"camera":   api.CameraStream(patternSource(group)),
			"video":    api.VideoStream(mediaResolver(cfg.Streams.MediaRoot)),
			"status":   api.Query(statusQuery(group, registry), nil),
		},
		POST: map[string]api.PostFunc{
			"setvalue": setValuePost(group),
		},
	}
}

// dashboardPageHTML is filled with the page ref and the value rows. The
// update protocol in the script is the page/server contract: SSE frames
// carry [fieldid, value] pairs, edits go out as t/v/p query params.
const dashboardPageHTML = `<!DOCTYPE html>
<html>
<head><title>Specula demo</title>
<style>
body { font-family: sans-serif; margin: 2em; }
td { padding: 0.2em 0.8em; }
img { border: 1px solid #999; margin-top: 1em; }
</style>
</head>
<body>
<h1>Specula demo dashboard</h1>
<table>
%s</table>
<p><a href="status">status</a> | <a href="about">about</a></p>
<img src="camera" alt="camera stream" width="320" height="240">
<script>
var ref = "%s";
var es = new EventSource("updates?" + "updatename=" + ref);
es.onmessage = function (ev) {
  var ups = JSON.parse(ev.data);
  if (ups === "kwac") { es.close(); location.reload(); return; }
  for (var i = 0; i < ups.length; i++) {
    var el = document.getElementById(ups[i][0]);
    if (el && document.activeElement !== el) { el.value = ups[i][1]; }
  }
};
function push(el) {
  fetch("updatewv?t=" + encodeURIComponent(el.id) +
        "&v=" + encodeURIComponent(el.value) + "&p=" + ref)
    .then(function (r) { return r.json(); })
    .then(function (res) {
      if (res.OK) { el.value = res.value; } else { console.warn(res.fail); }
    });
}
</script>
</body>
</html>
`

// dashboardPage renders the demo page and binds every group member to
// it. Field ids are f-<name>; the page script round-trips them.
func dashboardPage(group *watch.Group) api.DynamicPageFunc {
	return func(r *http.Request, list *updates.List) (*api.PageResult, error) {
		var rows strings.Builder
		for _, name := range group.Names() {
			v, ok := group.Var(name)
			if !ok {
				continue
			}
			id := "f-" + name
			if err := list.Link(id, updates.ForWatchable(v)); err != nil {
				return nil, err
			}
			fmt.Fprintf(&rows, "<tr><td>%s</td><td><input id=\"%s\" value=\"%s\" onchange=\"push(this)\"></td></tr>\n",
				html.EscapeString(name), id, html.EscapeString(fmt.Sprint(v.Get())))
		}
		body := fmt.Sprintf(dashboardPageHTML, rows.String(), list.Ref())
		return &api.PageResult{
			Status:  http.StatusOK,
			Headers: [][2]string{{"Content-Type", "text/html; charset=utf-8"}},
			Body:    []byte(body),
		}, nil
	}
}

// patternSource opens a synthesized camera: a sweeping bar over a field
// whose brightness follows the exposure value, so edits on the dashboard
// show up in the stream.
func patternSource(group *watch.Group) api.SourceFunc {
	return func(r *http.Request) (api.FrameSource, error) {
		exposure, ok := watch.Member[*watch.Int](group, "exposure")
		if !ok {
			return nil, fmt.Errorf("demo camera: no exposure value")
		}
		return &patternFrames{exposure: exposure}, nil
	}
}

const (
	patternWidth  = 320
	patternHeight = 240
)

// patternFrames yields JPEG test pattern frames. The source never
// exhausts; the stream ends when the client leaves or the server stops.
type patternFrames struct {
	exposure *watch.Int
	n        int
}

func (p *patternFrames) NextFrame() ([]byte, string, error) {
	// Exposure 1..1000 maps onto background luma 16..216.
	luma := 16 + p.exposure.Value()/5
	if luma > 216 {
		luma = 216
	}
	img := image.NewRGBA(image.Rect(0, 0, patternWidth, patternHeight))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.Gray{Y: uint8(luma)}), image.Point{}, draw.Src)

	barX := (p.n * 4) % patternWidth
	bar := image.Rect(barX, 0, barX+8, patternHeight)
	draw.Draw(img, bar, image.NewUniform(color.RGBA{R: 220, G: 40, B: 40, A: 255}), image.Point{}, draw.Src)
	p.n++

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 80}); err != nil {
		return nil, "", fmt.Errorf("demo camera: encoding frame: %w", err)
	}
	return buf.Bytes(), "image/jpeg", nil
}

func (p *patternFrames) Close() {}

// mediaResolver maps ?file=name onto the media root. Only the base name
// is honoured, so the query cannot climb out of the directory.
func mediaResolver(root string) api.ResolveFunc {
	return func(params url.Values) string {
		name := params.Get("file")
		if name == "" {
			return ""
		}
		return filepath.Join(root, filepath.Base(name))
	}
}

// statusQuery answers the demo status page: every current value and the
// number of live page registrations.
func statusQuery(group *watch.Group, registry *updates.Registry) api.QueryFunc {
	return func(params url.Values) any {
		return map[string]any{
			"values": group.Values(),
			"pages":  registry.Len(),
		}
	}
}

// setValuePost applies {"name": ..., "value": ...} bodies to the group
// on behalf of the dashboard user.
func setValuePost(group *watch.Group) api.PostFunc {
	return func(body map[string]any) *api.PostResult {
		name, _ := body["name"].(string)
		if name == "" {
			return &api.PostResult{Status: http.StatusBadRequest, Message: "name required"}
		}
		v, ok := group.Var(name)
		if !ok {
			return &api.PostResult{Status: http.StatusNotFound, Message: fmt.Sprintf("no value named %s", name)}
		}
		value, present := body["value"]
		if !present {
			return &api.PostResult{Status: http.StatusBadRequest, Message: "value required"}
		}
		if _, err := v.Set(value, watch.AgentUser); err != nil {
			return &api.PostResult{Status: http.StatusBadRequest, Message: err.Error()}
		}
		return &api.PostResult{
			Status: http.StatusOK,
			Data:   map[string]any{"name": name, "value": fmt.Sprint(v.Get())},
		}
	}
}
