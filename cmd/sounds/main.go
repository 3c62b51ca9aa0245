package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/keroxp/sounds/internal/catalog"
	"github.com/keroxp/sounds/internal/clock"
	"github.com/keroxp/sounds/internal/config"
	"github.com/keroxp/sounds/internal/server"
)

func main() {
	cfg := config.Load()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Println("sounds starting up...")

	cat, err := catalog.Load(cfg.Catalog)
	if err != nil {
		log.Fatalf("catalog: %v", err)
	}
	log.Printf("catalog: %d songs", len(cat.Songs))

	srv := server.New(cfg, cat, clock.Real{})

	// Start on the requested song, or the newest one
	song := cfg.Song
	if song == "" {
		if newest, ok := cat.Newest(); ok {
			song = newest.ID
		}
	}
	if song != "" {
		if err := srv.LoadSong(song); err != nil {
			log.Printf("load %s: %v (pick another song from the page)", song, err)
		}
	}

	go srv.Run(ctx)

	addr := fmt.Sprintf(":%d", cfg.Port)
	httpSrv := &http.Server{Addr: addr, Handler: srv.Handler()}

	go func() {
		<-ctx.Done()
		log.Println("Shutting down...")
		httpSrv.Close()
	}()

	log.Printf("sounds live on %s", addr)
	if err := httpSrv.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("HTTP server error: %v", err)
	}
}
