// Package server wires the song catalog, the player and lyric syncer, the
// timeline editors and the lyric event streams into one HTTP handler.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/keroxp/sounds/internal/catalog"
	"github.com/keroxp/sounds/internal/clock"
	"github.com/keroxp/sounds/internal/config"
	"github.com/keroxp/sounds/internal/editor"
	"github.com/keroxp/sounds/internal/geom"
	"github.com/keroxp/sounds/internal/lyric"
	"github.com/keroxp/sounds/internal/player"
	"github.com/keroxp/sounds/internal/stream"
	"github.com/keroxp/sounds/internal/syncer"
)

// ErrNoSong is returned by editor operations before a song is loaded.
var ErrNoSong = errors.New("no song loaded")

// Server is the song page backend.
type Server struct {
	cfg     config.Config
	catalog *catalog.Catalog
	clk     clock.Clock

	events      chan stream.Event
	broadcaster *stream.Broadcaster
	webrtc      *stream.WebRTCHandler
	syncer      *syncer.Syncer
	player      *player.Player
	songID      atomic.Value // string; read from syncer callbacks

	mu         sync.Mutex
	runCtx     context.Context
	stopEditor context.CancelFunc
	song       catalog.Song
	editor     *editor.RangeEditor
	editorSVG  *editor.SVGSurface
	locator    *editor.Locator
	locatorSVG *editor.SVGSurface
}

// New builds a Server. Nothing runs until Run.
func New(cfg config.Config, cat *catalog.Catalog, clk clock.Clock) *Server {
	s := &Server{
		cfg:         cfg,
		catalog:     cat,
		clk:         clk,
		events:      make(chan stream.Event, 64),
		broadcaster: stream.NewBroadcaster(),
	}
	s.songID.Store("")
	s.webrtc = stream.NewWebRTCHandler(s.broadcaster)
	s.syncer = syncer.New(nil, clk, s.onLyric, syncer.WithPollInterval(cfg.PollInterval))
	s.player = player.New(s.syncer)
	s.webrtc.SetMessageFunc(func(peer string, msg []byte) {
		var u player.Update
		if err := json.Unmarshal(msg, &u); err != nil {
			log.Printf("WebRTC peer %s: bad player update: %v", peer, err)
			return
		}
		s.dispatch(u)
	})
	return s
}

// onLyric runs under the syncer's lock, so it only queues the event.
func (s *Server) onLyric(r *lyric.Range) {
	ev := stream.Event{Song: s.songID.Load().(string), Line: r}
	if r != nil {
		ev.At = r.Start
	}
	select {
	case s.events <- ev:
	default:
		log.Printf("lyric event dropped: queue full")
	}
}

// Broadcaster exposes the lyric event fan-out.
func (s *Server) Broadcaster() *stream.Broadcaster { return s.broadcaster }

// Player exposes the player.
func (s *Server) Player() *player.Player { return s.player }

// LoadSong makes id the current song: the player and syncer restart on its
// schedule and fresh editors are built over a copy of it.
func (s *Server) LoadSong(id string) error {
	song, err := s.catalog.Get(id)
	if err != nil {
		return err
	}
	sched, err := catalog.LoadSchedule(song, s.cfg.PublicDir)
	if err != nil {
		return err
	}

	trackMs := song.DurationMs
	if trackMs < sched.End() {
		trackMs = sched.End()
	}
	edSize := geom.NewSize(s.cfg.EditorWidth, s.cfg.EditorHeight)
	locSize := geom.NewSize(s.cfg.EditorWidth, s.cfg.LocatorHeight)

	ed := editor.NewRangeEditor(sched.Clone(), trackMs, edSize)
	ed.OnEdited(func(edited lyric.Schedule) {
		s.syncer.SetSchedule(edited)
		log.Printf("schedule of %s edited (%d lines)", song.ID, len(edited))
	})
	loc := editor.NewLocator(trackMs, locSize)
	loc.OnSeek(func(ms int64) {
		s.player.Dispatch(player.Update{Seek: &player.Seek{Time: ms, Sync: true}})
	})

	s.songID.Store(song.ID)
	s.player.Load(song.ID, sched.Clone())

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopEditor != nil {
		s.stopEditor()
		s.stopEditor = nil
	}
	s.song = song
	s.editor, s.editorSVG = ed, editor.NewSVGSurface(edSize)
	s.locator, s.locatorSVG = loc, editor.NewSVGSurface(locSize)
	if s.runCtx != nil {
		s.startEditors()
	}
	return nil
}

// startEditors runs the redraw loops of the current editors. Must be called
// with mu held.
func (s *Server) startEditors() {
	ctx, cancel := context.WithCancel(s.runCtx)
	s.stopEditor = cancel
	go s.editor.Run(ctx, s.clk, s.cfg.FrameInterval, s.editorSVG)
	go s.locator.Run(ctx, s.clk, s.cfg.FrameInterval, s.locatorSVG)
}

// Run fans out lyric events and redraws the editors until ctx is cancelled.
func (s *Server) Run(ctx context.Context) {
	s.mu.Lock()
	s.runCtx = ctx
	if s.editor != nil {
		s.startEditors()
	}
	s.mu.Unlock()

	s.broadcaster.Run(ctx, s.events)

	s.syncer.Stop()
	s.webrtc.Close()
}

// dispatch applies a player update and moves the locator with playback.
func (s *Server) dispatch(u player.Update) player.State {
	st := s.player.Dispatch(u)
	s.mu.Lock()
	loc := s.locator
	s.mu.Unlock()
	if loc != nil && u.Seek != nil {
		loc.SetPosition(st.SeekTime)
	}
	return st
}

type surfaces struct {
	song    catalog.Song
	editor  *editor.RangeEditor
	edSVG   *editor.SVGSurface
	locator *editor.Locator
	locSVG  *editor.SVGSurface
}

func (s *Server) current() (surfaces, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.editor == nil {
		return surfaces{}, ErrNoSong
	}
	return surfaces{s.song, s.editor, s.editorSVG, s.locator, s.locatorSVG}, nil
}

// PointerRequest is one pointer event for an editor. Target is "ranges"
// (the default) or "locator"; Type is "down", "move" or "up".
type PointerRequest struct {
	Target string              `json:"target"`
	Type   string              `json:"type"`
	Event  editor.PointerEvent `json:"event"`
}

// WheelRequest is one wheel event for an editor.
type WheelRequest struct {
	Target string            `json:"target"`
	Event  editor.WheelEvent `json:"event"`
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	json.NewEncoder(w).Encode(v)
}

func httpStatus(err error) int {
	switch {
	case errors.Is(err, catalog.ErrNotFound), errors.Is(err, ErrNoSong):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Static page, lyric texts and mp3s
	mux.Handle("/", http.FileServer(http.Dir(s.cfg.PublicDir)))

	// Lyric event streams
	mux.Handle("GET /api/lyrics/events", stream.NewHTTPHandler(s.broadcaster))
	mux.Handle("/offer", s.webrtc)

	mux.HandleFunc("GET /api/songs", func(w http.ResponseWriter, r *http.Request) {
		newest, _ := s.catalog.Newest()
		writeJSON(w, map[string]any{
			"songs":  s.catalog.Songs,
			"newest": newest.ID,
		})
	})

	mux.HandleFunc("GET /api/songs/{id}/lyrics", func(w http.ResponseWriter, r *http.Request) {
		song, err := s.catalog.Get(r.PathValue("id"))
		if err != nil {
			http.Error(w, err.Error(), httpStatus(err))
			return
		}
		sched, err := catalog.LoadSchedule(song, s.cfg.PublicDir)
		if err != nil {
			log.Printf("lyrics for %s: %v", song.ID, err)
			http.Error(w, "lyrics unavailable", http.StatusNotFound)
			return
		}
		writeJSON(w, map[string]any{"song": song.ID, "lines": sched})
	})

	mux.HandleFunc("POST /api/songs/{id}/load", func(w http.ResponseWriter, r *http.Request) {
		if err := s.LoadSong(r.PathValue("id")); err != nil {
			http.Error(w, err.Error(), httpStatus(err))
			return
		}
		writeJSON(w, map[string]any{"ok": true, "song": r.PathValue("id")})
	})

	mux.HandleFunc("GET /api/player", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, s.player.Status())
	})

	mux.HandleFunc("POST /api/player", func(w http.ResponseWriter, r *http.Request) {
		var u player.Update
		if err := json.NewDecoder(r.Body).Decode(&u); err != nil {
			http.Error(w, "invalid player update", http.StatusBadRequest)
			return
		}
		writeJSON(w, s.dispatch(u))
	})

	mux.HandleFunc("GET /api/lyrics/current", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{
			"song":      s.songID.Load().(string),
			"seek_time": s.syncer.SeekTime(),
			"line":      s.syncer.Current(),
		})
	})

	mux.HandleFunc("POST /api/editor/pointer", func(w http.ResponseWriter, r *http.Request) {
		var req PointerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid pointer event", http.StatusBadRequest)
			return
		}
		cur, err := s.current()
		if err != nil {
			http.Error(w, err.Error(), httpStatus(err))
			return
		}
		if req.Target == "locator" {
			if !pointer(cur.locator, req) {
				http.Error(w, "unknown pointer event type", http.StatusBadRequest)
				return
			}
			writeJSON(w, map[string]any{
				"position": cur.locator.Position(),
				"dragging": cur.locator.Dragging(),
			})
			return
		}
		if !pointer(cur.editor, req) {
			http.Error(w, "unknown pointer event type", http.StatusBadRequest)
			return
		}
		resp := map[string]any{"cursor": cur.editor.Cursor()}
		if hit, ok := cur.editor.Trimming(); ok {
			resp["trim"] = hit.Kind.String()
			resp["index"] = hit.Index
		}
		writeJSON(w, resp)
	})

	mux.HandleFunc("POST /api/editor/wheel", func(w http.ResponseWriter, r *http.Request) {
		var req WheelRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid wheel event", http.StatusBadRequest)
			return
		}
		cur, err := s.current()
		if err != nil {
			http.Error(w, err.Error(), httpStatus(err))
			return
		}
		var m geom.Matrix
		if req.Target == "locator" {
			cur.locator.Wheel(req.Event)
			m = cur.locator.View()
		} else {
			cur.editor.Wheel(req.Event)
			m = cur.editor.View()
		}
		writeJSON(w, map[string]any{"zoom": m.A, "offset": m.E})
	})

	mux.HandleFunc("GET /api/editor/timeline.svg", func(w http.ResponseWriter, r *http.Request) {
		cur, err := s.current()
		if err != nil {
			http.Error(w, err.Error(), httpStatus(err))
			return
		}
		var frame []byte
		if r.URL.Query().Get("target") == "locator" {
			cur.locator.Frame(cur.locSVG)
			frame = cur.locSVG.LastFrame()
		} else {
			cur.editor.Frame(cur.edSVG)
			frame = cur.edSVG.LastFrame()
		}
		w.Header().Set("Content-Type", "image/svg+xml")
		w.Header().Set("Cache-Control", "no-cache")
		w.Write(frame)
	})

	mux.HandleFunc("GET /api/editor/export", func(w http.ResponseWriter, r *http.Request) {
		cur, err := s.current()
		if err != nil {
			http.Error(w, err.Error(), httpStatus(err))
			return
		}
		sched := cur.editor.Schedule()
		if err := sched.Validate(); err != nil {
			log.Printf("export %s: %v", cur.song.ID, err)
			http.Error(w, "schedule is inconsistent", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.txt"`, cur.song.ID))
		fmt.Fprint(w, sched.String())
	})

	mux.HandleFunc("GET /api/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{
			"song":             s.songID.Load().(string),
			"player":           s.player.Status(),
			"scheduling":       s.syncer.Scheduling(),
			"sse_listeners":    s.broadcaster.ListenerCount(),
			"webrtc_listeners": s.webrtc.PeerCount(),
		})
	})

	return mux
}

type pointerTarget interface {
	PointerDown(editor.PointerEvent)
	PointerMove(editor.PointerEvent)
	PointerUp(editor.PointerEvent)
}

func pointer(t pointerTarget, req PointerRequest) bool {
	switch req.Type {
	case "down":
		t.PointerDown(req.Event)
	case "move":
		t.PointerMove(req.Event)
	case "up":
		t.PointerUp(req.Event)
	default:
		return false
	}
	return true
}
