package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/keroxp/sounds/internal/catalog"
	"github.com/keroxp/sounds/internal/clock"
	"github.com/keroxp/sounds/internal/config"
)

const testLyrics = `[00:00:000-00:01:000]A
[00:01:000-00:02:000]B
[00:02:500-00:03:000]C
`

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "lyrics"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "lyrics", "demo.txt"), []byte(testLyrics), 0o644); err != nil {
		t.Fatal(err)
	}
	cat, err := catalog.Parse([]byte(`
songs:
  - id: demo
    title: Demo
    lyric_src: lyrics/demo.txt
    audio_src: mp3/demo.mp3
  - id: missing
    title: Missing
    lyric_src: lyrics/missing.txt
    audio_src: mp3/missing.mp3
`))
	if err != nil {
		t.Fatal(err)
	}
	cfg := config.Config{
		PublicDir:     root,
		PollInterval:  16 * time.Millisecond,
		FrameInterval: 16 * time.Millisecond,
		EditorWidth:   3000,
		EditorHeight:  60,
		LocatorHeight: 200,
	}
	s := New(cfg, cat, clock.NewFake())
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func do(t *testing.T, method, url, body string) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	return resp, string(data)
}

func decode(t *testing.T, body string) map[string]any {
	t.Helper()
	var v map[string]any
	if err := json.Unmarshal([]byte(body), &v); err != nil {
		t.Fatalf("decode %q: %v", body, err)
	}
	return v
}

func TestSongs(t *testing.T) {
	_, ts := newTestServer(t)
	resp, body := do(t, http.MethodGet, ts.URL+"/api/songs", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	v := decode(t, body)
	if v["newest"] != "demo" {
		t.Errorf("newest = %v, want demo", v["newest"])
	}
	if songs, _ := v["songs"].([]any); len(songs) != 2 {
		t.Errorf("songs = %v", v["songs"])
	}
}

func TestSongLyrics(t *testing.T) {
	_, ts := newTestServer(t)
	tests := []struct {
		id   string
		want int
	}{
		{"demo", http.StatusOK},
		{"missing", http.StatusNotFound},
		{"unknown", http.StatusNotFound},
	}
	for _, tt := range tests {
		resp, body := do(t, http.MethodGet, ts.URL+"/api/songs/"+tt.id+"/lyrics", "")
		if resp.StatusCode != tt.want {
			t.Errorf("%s: status = %d, want %d", tt.id, resp.StatusCode, tt.want)
			continue
		}
		if tt.want == http.StatusOK {
			if lines, _ := decode(t, body)["lines"].([]any); len(lines) != 3 {
				t.Errorf("lines = %v, want 3", lines)
			}
		}
	}
}

func TestEditorNeedsSong(t *testing.T) {
	_, ts := newTestServer(t)
	for _, path := range []string{"/api/editor/export", "/api/editor/timeline.svg"} {
		if resp, _ := do(t, http.MethodGet, ts.URL+path, ""); resp.StatusCode != http.StatusNotFound {
			t.Errorf("%s: status = %d, want 404", path, resp.StatusCode)
		}
	}
	resp, _ := do(t, http.MethodPost, ts.URL+"/api/songs/unknown/load", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("load unknown: status = %d, want 404", resp.StatusCode)
	}
}

func TestPlayerDrivesLyrics(t *testing.T) {
	s, ts := newTestServer(t)
	if err := s.LoadSong("demo"); err != nil {
		t.Fatal(err)
	}
	resp, _ := do(t, http.MethodPost, ts.URL+"/api/player", `{"seek":{"time":1500,"sync":false}}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	_, body := do(t, http.MethodGet, ts.URL+"/api/lyrics/current", "")
	line, _ := decode(t, body)["line"].(map[string]any)
	if line["text"] != "B" {
		t.Errorf("line = %v, want B", line)
	}

	if resp, _ := do(t, http.MethodPost, ts.URL+"/api/player", `{"seek":`); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad update: status = %d, want 400", resp.StatusCode)
	}
}

func TestEditorTrimUpdatesSyncer(t *testing.T) {
	s, ts := newTestServer(t)
	if err := s.LoadSong("demo"); err != nil {
		t.Fatal(err)
	}

	// grab B's end and drag it 300ms right
	for _, ev := range []string{
		`{"type":"down","event":{"x":1980,"y":30}}`,
		`{"type":"move","event":{"x":2280,"y":30,"movementX":300}}`,
		`{"type":"up","event":{"x":2280,"y":30}}`,
	} {
		resp, body := do(t, http.MethodPost, ts.URL+"/api/editor/pointer", ev)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("pointer %s: status = %d %s", ev, resp.StatusCode, body)
		}
	}

	_, body := do(t, http.MethodGet, ts.URL+"/api/editor/export", "")
	if !strings.Contains(body, "[00:01:000-00:02:300]B") {
		t.Errorf("export = %q, want B trimmed to 00:02:300", body)
	}

	do(t, http.MethodPost, ts.URL+"/api/player", `{"seek":{"time":2200}}`)
	if c := s.syncer.Current(); c == nil || c.Text != "B" {
		t.Errorf("Current = %v, want the trimmed B", c)
	}

	resp, _ := do(t, http.MethodPost, ts.URL+"/api/editor/pointer", `{"type":"twist"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("unknown type: status = %d, want 400", resp.StatusCode)
	}
}

func TestWheelAndTimeline(t *testing.T) {
	s, ts := newTestServer(t)
	if err := s.LoadSong("demo"); err != nil {
		t.Fatal(err)
	}
	_, body := do(t, http.MethodPost, ts.URL+"/api/editor/wheel", `{"event":{"x":0,"y":0,"deltaY":100000}}`)
	if z := decode(t, body)["zoom"]; z != 4.0 {
		t.Errorf("zoom = %v, want 4", z)
	}
	_, body = do(t, http.MethodPost, ts.URL+"/api/editor/wheel", `{"target":"locator","event":{"x":0,"y":0,"deltaY":200}}`)
	if z := decode(t, body)["zoom"]; z != 2.0 {
		t.Errorf("locator zoom = %v, want 2", z)
	}

	for _, target := range []string{"ranges", "locator"} {
		resp, body := do(t, http.MethodGet, ts.URL+"/api/editor/timeline.svg?target="+target, "")
		if ct := resp.Header.Get("Content-Type"); ct != "image/svg+xml" {
			t.Errorf("%s: Content-Type = %q", target, ct)
		}
		if !strings.HasPrefix(body, "<svg") {
			t.Errorf("%s: body = %q", target, body)
		}
	}
}

func TestLocatorSeeks(t *testing.T) {
	s, ts := newTestServer(t)
	if err := s.LoadSong("demo"); err != nil {
		t.Fatal(err)
	}
	for _, ev := range []string{
		`{"target":"locator","type":"down","event":{"x":2,"y":100}}`,
		`{"target":"locator","type":"move","event":{"x":2602,"y":100,"movementX":2600}}`,
		`{"target":"locator","type":"up","event":{"x":2602,"y":100}}`,
	} {
		do(t, http.MethodPost, ts.URL+"/api/editor/pointer", ev)
	}
	if st := s.Player().State(); st.SeekTime != 2600 || !st.Sync {
		t.Errorf("player state = %+v, want a synced seek to 2600", st)
	}
	if c := s.syncer.Current(); c == nil || c.Text != "C" {
		t.Errorf("Current = %v, want C", c)
	}
}

func TestRunPublishesLyricEvents(t *testing.T) {
	s, ts := newTestServer(t)
	if err := s.LoadSong("demo"); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	l := s.Broadcaster().Subscribe()
	defer s.Broadcaster().Unsubscribe(l)
	do(t, http.MethodPost, ts.URL+"/api/player", `{"seek":{"time":500}}`)

	select {
	case ev := <-l.C:
		if ev.Song != "demo" || ev.Line == nil || ev.Line.Text != "A" {
			t.Errorf("event = %+v, want line A of demo", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no lyric event")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
