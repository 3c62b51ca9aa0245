package stream

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"
)

// KeepAlive is how often an idle event stream sends a comment line so
// proxies keep the connection open.
const KeepAlive = 15 * time.Second

// HTTPHandler serves lyric events as a server-sent event stream.
type HTTPHandler struct {
	broadcaster *Broadcaster
	keepAlive   time.Duration
}

// NewHTTPHandler creates an event stream handler.
func NewHTTPHandler(b *Broadcaster) *HTTPHandler {
	return &HTTPHandler{broadcaster: b, keepAlive: KeepAlive}
}

func (h *HTTPHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache, no-store")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	listener := h.broadcaster.Subscribe()
	defer h.broadcaster.Unsubscribe(listener)

	log.Printf("SSE listener %s connected (total: %d)", listener.ID, h.broadcaster.ListenerCount())
	defer log.Printf("SSE listener %s disconnected", listener.ID)

	ping := time.NewTicker(h.keepAlive)
	defer ping.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-listener.done:
			return
		case <-ping.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case ev := <-listener.C:
			if err := writeEvent(w, ev); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "id: %d\nevent: lyric\ndata: %s\n\n", ev.Seq, data)
	return err
}
