package config

import (
	"math"
	"os"
	"strconv"
	"time"
)

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

// Config holds all runtime configuration, loaded from environment variables.
type Config struct {
	// Server
	Port      int
	PublicDir string // static files, lyric texts and mp3s
	Catalog   string // song catalog YAML
	Song      string // song loaded at startup; empty means the newest

	// Lyric sync
	PollInterval time.Duration // syncer extrapolation tick

	// Timeline editor
	FrameInterval time.Duration // redraw cadence
	EditorWidth   float64       // canvas pixels
	EditorHeight  float64
	LocatorHeight float64

	// lyrictap
	TapHistoryFile string
}

// Load reads configuration from environment variables with sane defaults.
func Load() Config {
	return Config{
		Port:      envInt("SOUNDS_PORT", 3030),
		PublicDir: envStr("SOUNDS_PUBLIC_DIR", "./public"),
		Catalog:   envStr("SOUNDS_CATALOG", "./songs.yaml"),
		Song:      envStr("SOUNDS_SONG", ""),

		PollInterval: envMillis("SOUNDS_POLL_INTERVAL_MS", 16),

		FrameInterval: envMillis("SOUNDS_FRAME_INTERVAL_MS", 16),
		EditorWidth:   envSize("SOUNDS_EDITOR_WIDTH", 1200),
		EditorHeight:  envSize("SOUNDS_EDITOR_HEIGHT", 60),
		LocatorHeight: envSize("SOUNDS_LOCATOR_HEIGHT", 200),

		TapHistoryFile: envStr("LYRICTAP_HISTORY", "/tmp/lyrictap.history"),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

// envMillis reads a positive millisecond count.
func envMillis(key string, fallback int) time.Duration {
	n := envInt(key, fallback)
	if n <= 0 {
		n = fallback
	}
	return time.Duration(n) * time.Millisecond
}

// envSize reads a positive, finite pixel extent.
func envSize(key string, fallback float64) float64 {
	f := envFloat(key, fallback)
	if !(f > 0) || math.IsInf(f, 0) {
		return fallback
	}
	return f
}
