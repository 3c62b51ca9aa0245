// Package catalog lists the published songs and loads their lyric schedules.
package catalog

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/keroxp/sounds/internal/lyric"
)

// ErrNotFound is returned for an unknown song id.
var ErrNotFound = errors.New("catalog: song not found")

// Song is one catalog entry. Src paths are relative to the public directory.
type Song struct {
	ID          string `yaml:"id" json:"id"`
	Title       string `yaml:"title" json:"title"`
	Description string `yaml:"description" json:"description"`
	Published   string `yaml:"published" json:"published"`
	ThumbSrc    string `yaml:"thumb_src,omitempty" json:"thumbSrc,omitempty"`
	LyricSrc    string `yaml:"lyric_src" json:"lyricSrc"`
	AudioSrc    string `yaml:"audio_src" json:"audioSrc"`
	DurationMs  int64  `yaml:"duration_ms,omitempty" json:"durationMs,omitempty"`
}

// Catalog is the song list, newest first.
type Catalog struct {
	Songs []Song `yaml:"songs"`
}

// Builtin returns the catalog used when no catalog file exists.
func Builtin() *Catalog {
	c := &Catalog{Songs: []Song{
		{
			Title:       "Polar nights",
			Description: "あ",
			Published:   "2019/09/18",
			LyricSrc:    "lyrics/2019-09-18-Polar-nights.txt",
			AudioSrc:    "mp3/2019-09-18-Polar-nights.mp3",
		},
		{
			Title:       "どうしたのって聞かれても",
			Description: "あ",
			Published:   "2019/08/12",
			ThumbSrc:    "img/03.png",
			LyricSrc:    "lyrics/2019-08-12-どうしたのって聞かれても.txt",
			AudioSrc:    "mp3/2019-08-12-どうしたのって聞かれても.mp3",
		},
		{
			Title:       "Hurry up!",
			Description: "あ",
			Published:   "2019/07/13",
			ThumbSrc:    "img/02.png",
			LyricSrc:    "lyrics/2019-07-13-hurry-up.txt",
			AudioSrc:    "mp3/2019-07-13-hurry-up.mp3",
		},
		{
			Title:       "空っぽの歌",
			Description: "あ",
			Published:   "2019/07/01",
			ThumbSrc:    "img/01.png",
			LyricSrc:    "lyrics/2019-07-01-空っぽの歌.txt",
			AudioSrc:    "mp3/2019-07-01-空っぽの歌.mp3",
		},
	}}
	c.normalize()
	return c
}

// Load reads a YAML catalog. A missing file falls back to Builtin.
func Load(file string) (*Catalog, error) {
	data, err := os.ReadFile(file)
	if errors.Is(err, fs.ErrNotExist) {
		log.Printf("catalog: %s not found, using built-in songs", file)
		return Builtin(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", file, err)
	}
	return Parse(data)
}

// Parse decodes a YAML catalog.
func Parse(data []byte) (*Catalog, error) {
	c := &Catalog{}
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	for i, s := range c.Songs {
		if s.LyricSrc == "" {
			return nil, fmt.Errorf("parse catalog: song %d (%q) has no lyric_src", i, s.Title)
		}
	}
	c.normalize()
	return c, nil
}

// normalize fills in ids derived from the lyric file name.
func (c *Catalog) normalize() {
	for i := range c.Songs {
		s := &c.Songs[i]
		if s.ID == "" {
			base := path.Base(filepath.ToSlash(s.LyricSrc))
			s.ID = strings.TrimSuffix(base, path.Ext(base))
		}
	}
}

// Get returns the song with the given id.
func (c *Catalog) Get(id string) (Song, error) {
	for _, s := range c.Songs {
		if s.ID == id {
			return s, nil
		}
	}
	return Song{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// Newest returns the first song, which the song list marks as new.
func (c *Catalog) Newest() (Song, bool) {
	if len(c.Songs) == 0 {
		return Song{}, false
	}
	return c.Songs[0], true
}

// IsNew reports whether s is the newest song.
func (c *Catalog) IsNew(s Song) bool {
	n, ok := c.Newest()
	return ok && n.ID == s.ID
}

// LoadSchedule parses the lyric schedule of s from the public directory root.
func LoadSchedule(s Song, root string) (lyric.Schedule, error) {
	f, err := os.Open(filepath.Join(root, filepath.FromSlash(s.LyricSrc)))
	if err != nil {
		return nil, fmt.Errorf("open lyrics for %s: %w", s.ID, err)
	}
	defer f.Close()
	sched, err := lyric.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("lyrics for %s: %w", s.ID, err)
	}
	return sched, nil
}
