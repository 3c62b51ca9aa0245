package stream

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/pion/webrtc/v4"
)

// LyricsChannel is the label of the data channel the page opens in its offer.
const LyricsChannel = "lyrics"

// MessageFunc handles a message a peer sent on the lyrics channel.
type MessageFunc func(peerID string, msg []byte)

// WebRTCHandler serves WebRTC SDP negotiation. Each peer's lyrics data
// channel receives every broadcast event as JSON, and messages the page sends
// back are handed to the MessageFunc.
type WebRTCHandler struct {
	broadcaster *Broadcaster
	config      webrtc.Configuration

	mu        sync.Mutex
	peers     map[string]*webrtc.PeerConnection
	onMessage MessageFunc
}

// NewWebRTCHandler creates a WebRTC lyrics handler.
func NewWebRTCHandler(b *Broadcaster) *WebRTCHandler {
	return &WebRTCHandler{
		broadcaster: b,
		peers:       make(map[string]*webrtc.PeerConnection),
	}
}

// SetMessageFunc sets the handler for messages from peers.
func (h *WebRTCHandler) SetMessageFunc(fn MessageFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onMessage = fn
}

// PeerCount returns the number of active WebRTC peers.
func (h *WebRTCHandler) PeerCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.peers)
}

func (h *WebRTCHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.WriteHeader(http.StatusOK)
		return
	}

	if r.Method != http.MethodPost {
		http.Error(w, "POST required", http.StatusMethodNotAllowed)
		return
	}

	var offer webrtc.SessionDescription
	if err := json.NewDecoder(r.Body).Decode(&offer); err != nil || offer.Type != webrtc.SDPTypeOffer {
		http.Error(w, "invalid SDP offer", http.StatusBadRequest)
		return
	}

	pc, err := webrtc.NewPeerConnection(h.config)
	if err != nil {
		http.Error(w, "create peer connection failed", http.StatusInternalServerError)
		return
	}
	id := uuid.NewString()

	pc.OnDataChannel(func(dc *webrtc.DataChannel) {
		if dc.Label() != LyricsChannel {
			log.Printf("WebRTC peer %s: ignoring data channel %q", id, dc.Label())
			return
		}
		dc.OnOpen(func() { go h.streamToPeer(id, dc) })
		dc.OnMessage(func(msg webrtc.DataChannelMessage) {
			h.mu.Lock()
			fn := h.onMessage
			h.mu.Unlock()
			if fn != nil && msg.IsString {
				fn(id, msg.Data)
			}
		})
	})

	if err := pc.SetRemoteDescription(offer); err != nil {
		pc.Close()
		http.Error(w, "set remote description failed", http.StatusBadRequest)
		return
	}

	answer, err := pc.CreateAnswer(nil)
	if err != nil {
		pc.Close()
		http.Error(w, "create answer failed", http.StatusInternalServerError)
		return
	}

	if err := pc.SetLocalDescription(answer); err != nil {
		pc.Close()
		http.Error(w, "set local description failed", http.StatusInternalServerError)
		return
	}

	// Wait for ICE gathering to complete
	gatherComplete := webrtc.GatheringCompletePromise(pc)
	<-gatherComplete

	h.mu.Lock()
	h.peers[id] = pc
	h.mu.Unlock()

	log.Printf("WebRTC peer %s connected (total: %d)", id, h.PeerCount())

	// Clean up on disconnect
	pc.OnConnectionStateChange(func(s webrtc.PeerConnectionState) {
		if s == webrtc.PeerConnectionStateFailed ||
			s == webrtc.PeerConnectionStateClosed ||
			s == webrtc.PeerConnectionStateDisconnected {
			if h.removePeer(id) {
				pc.Close()
				log.Printf("WebRTC peer %s disconnected (remaining: %d)", id, h.PeerCount())
			}
		}
	})

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("X-Peer-Id", id)
	json.NewEncoder(w).Encode(pc.LocalDescription())
}

func (h *WebRTCHandler) streamToPeer(id string, dc *webrtc.DataChannel) {
	listener := h.broadcaster.Subscribe()
	defer h.broadcaster.Unsubscribe(listener)

	closed := make(chan struct{})
	var once sync.Once
	dc.OnClose(func() { once.Do(func() { close(closed) }) })

	for {
		select {
		case <-closed:
			return
		case <-listener.done:
			return
		case ev := <-listener.C:
			data, err := json.Marshal(ev)
			if err != nil {
				log.Printf("WebRTC peer %s: encode event: %v", id, err)
				continue
			}
			if err := dc.SendText(string(data)); err != nil {
				return
			}
		}
	}
}

func (h *WebRTCHandler) removePeer(id string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.peers[id]; !ok {
		return false
	}
	delete(h.peers, id)
	return true
}

// Close hangs up every peer.
func (h *WebRTCHandler) Close() {
	h.mu.Lock()
	peers := h.peers
	h.peers = make(map[string]*webrtc.PeerConnection)
	h.mu.Unlock()
	for _, pc := range peers {
		pc.Close()
	}
}
