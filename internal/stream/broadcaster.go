package stream

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/keroxp/sounds/internal/lyric"
)

// Event announces a lyric line change. Line is nil when no line is shown.
type Event struct {
	Seq  uint64       `json:"seq"`
	Song string       `json:"song"`
	At   int64        `json:"at"` // playback position of the change, ms
	Line *lyric.Range `json:"line"`
}

// Broadcaster fans out lyric events from one source to N listeners.
type Broadcaster struct {
	mu        sync.RWMutex
	listeners map[*Listener]struct{}
	last      *Event
	seq       uint64
}

// Listener receives events from the broadcaster.
type Listener struct {
	ID   string
	C    chan Event
	done chan struct{}
	once sync.Once
}

// Done is closed when the listener is unsubscribed.
func (l *Listener) Done() <-chan struct{} { return l.done }

// NewBroadcaster creates a new broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		listeners: make(map[*Listener]struct{}),
	}
}

// Subscribe registers a new listener. The most recent event, if any, is
// queued first so a late subscriber sees the line currently shown.
func (b *Broadcaster) Subscribe() *Listener {
	l := &Listener{
		ID:   uuid.NewString(),
		C:    make(chan Event, 32),
		done: make(chan struct{}),
	}
	b.mu.Lock()
	b.listeners[l] = struct{}{}
	if b.last != nil {
		l.C <- *b.last
	}
	b.mu.Unlock()
	return l
}

// Unsubscribe removes a listener and signals it to stop. It is safe to call
// more than once.
func (b *Broadcaster) Unsubscribe(l *Listener) {
	b.mu.Lock()
	delete(b.listeners, l)
	b.mu.Unlock()
	l.once.Do(func() { close(l.done) })
}

// ListenerCount returns the number of active listeners.
func (b *Broadcaster) ListenerCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.listeners)
}

// Last returns the most recent event.
func (b *Broadcaster) Last() (Event, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.last == nil {
		return Event{}, false
	}
	return *b.last, true
}

// Publish numbers ev and delivers it to every listener.
// Slow listeners get events dropped rather than blocking the broadcast.
func (b *Broadcaster) Publish(ev Event) Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.seq++
	ev.Seq = b.seq
	b.last = &ev
	for l := range b.listeners {
		select {
		case l.C <- ev:
		default:
			// listener too slow, drop event to keep broadcast moving
		}
	}
	return ev
}

// Run reads events from source and publishes them until ctx is cancelled or
// source is closed.
func (b *Broadcaster) Run(ctx context.Context, source <-chan Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-source:
			if !ok {
				return
			}
			b.Publish(ev)
		}
	}
}
