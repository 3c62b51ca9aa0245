// Command lyrictap records lyric timings by tapping Enter along with a song.
package main

import (
	"log"

	"github.com/keroxp/sounds/internal/clipboard"
	"github.com/keroxp/sounds/internal/clock"
	"github.com/keroxp/sounds/internal/config"
	"github.com/keroxp/sounds/internal/tap"
)

func main() {
	cfg := config.Load()

	copyFn, pasteFn := clipboard.WriteAll, clipboard.ReadAll
	if clipboard.Unsupported() {
		log.Println("clipboard unavailable, copy and paste are disabled")
		copyFn, pasteFn = nil, nil
	}

	sh := tap.NewShell(tap.New(clock.Real{}), copyFn, pasteFn)
	if err := sh.Run(cfg.TapHistoryFile); err != nil {
		log.Fatalf("lyrictap: %v", err)
	}
}
