package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestBuiltin(t *testing.T) {
	c := Builtin()
	if len(c.Songs) != 4 {
		t.Fatalf("songs = %d, want 4", len(c.Songs))
	}
	n, ok := c.Newest()
	if !ok || n.ID != "2019-09-18-Polar-nights" {
		t.Errorf("Newest = %q, want 2019-09-18-Polar-nights", n.ID)
	}
	if c.IsNew(c.Songs[1]) {
		t.Error("only the first song is new")
	}
	s, err := c.Get("2019-07-13-hurry-up")
	if err != nil || s.Title != "Hurry up!" {
		t.Errorf("Get = %+v, %v", s, err)
	}
}

func TestGetUnknown(t *testing.T) {
	_, err := Builtin().Get("nope")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestParse(t *testing.T) {
	data := []byte(`
songs:
  - title: Demo
    id: demo
    published: 2020/01/01
    lyric_src: lyrics/demo.txt
    audio_src: mp3/demo.mp3
    duration_ms: 180000
  - title: Other
    lyric_src: lyrics/other.txt
    audio_src: mp3/other.mp3
`)
	c, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(c.Songs) != 2 {
		t.Fatalf("songs = %d, want 2", len(c.Songs))
	}
	if c.Songs[0].ID != "demo" || c.Songs[0].DurationMs != 180000 {
		t.Errorf("song 0 = %+v", c.Songs[0])
	}
	if c.Songs[1].ID != "other" {
		t.Errorf("derived id = %q, want other", c.Songs[1].ID)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"bad yaml", "songs: [\n"},
		{"missing lyric_src", "songs:\n  - title: X\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.data)); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestLoadMissingFileFallsBack(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "songs.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(c.Songs) != len(Builtin().Songs) {
		t.Errorf("songs = %d, want the built-in catalog", len(c.Songs))
	}
}

func TestLoadFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "songs.yaml")
	if err := os.WriteFile(file, []byte("songs:\n  - title: A\n    lyric_src: lyrics/a.txt\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := Load(file)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(c.Songs) != 1 || c.Songs[0].ID != "a" {
		t.Errorf("songs = %+v", c.Songs)
	}
}

func TestLoadSchedule(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "lyrics"), 0o755); err != nil {
		t.Fatal(err)
	}
	text := "[00:00:000-00:09:916]〜前奏〜\n\n[00:09:916-00:15:882]瞬いていた\nnot a range\n"
	if err := os.WriteFile(filepath.Join(root, "lyrics", "a.txt"), []byte(text), 0o644); err != nil {
		t.Fatal(err)
	}
	sched, err := LoadSchedule(Song{ID: "a", LyricSrc: "lyrics/a.txt"}, root)
	if err != nil {
		t.Fatalf("LoadSchedule: %v", err)
	}
	if len(sched) != 2 || sched[1].Start != 9916 || sched[1].Text != "瞬いていた" {
		t.Errorf("schedule = %v", sched)
	}

	if _, err := LoadSchedule(Song{ID: "b", LyricSrc: "lyrics/b.txt"}, root); err == nil {
		t.Error("expected an error for a missing lyric file")
	}
}
