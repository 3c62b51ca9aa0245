package stream

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/keroxp/sounds/internal/lyric"
)

func line(text string) *lyric.Range {
	return &lyric.Range{Start: 0, End: 1000, Text: text}
}

func TestNewBroadcaster(t *testing.T) {
	b := NewBroadcaster()
	if b == nil {
		t.Fatal("NewBroadcaster returned nil")
	}
	if b.ListenerCount() != 0 {
		t.Errorf("Initial ListenerCount = %d, want 0", b.ListenerCount())
	}
	if _, ok := b.Last(); ok {
		t.Error("new broadcaster has a last event")
	}
}

func TestSubscribeUnsubscribe(t *testing.T) {
	b := NewBroadcaster()

	l1 := b.Subscribe()
	if b.ListenerCount() != 1 {
		t.Errorf("After 1 subscribe: ListenerCount = %d, want 1", b.ListenerCount())
	}

	l2 := b.Subscribe()
	if b.ListenerCount() != 2 {
		t.Errorf("After 2 subscribes: ListenerCount = %d, want 2", b.ListenerCount())
	}
	if l1.ID == l2.ID {
		t.Errorf("listener ids collide: %s", l1.ID)
	}

	b.Unsubscribe(l1)
	if b.ListenerCount() != 1 {
		t.Errorf("After 1 unsubscribe: ListenerCount = %d, want 1", b.ListenerCount())
	}

	b.Unsubscribe(l2)
	b.Unsubscribe(l2)
	if b.ListenerCount() != 0 {
		t.Errorf("After all unsubscribed: ListenerCount = %d, want 0", b.ListenerCount())
	}
}

func TestPublishNumbersEvents(t *testing.T) {
	b := NewBroadcaster()
	l := b.Subscribe()
	defer b.Unsubscribe(l)

	b.Publish(Event{Song: "s", Line: line("A")})
	b.Publish(Event{Song: "s", Line: line("B")})

	for i, want := range []string{"A", "B"} {
		ev := <-l.C
		if ev.Seq != uint64(i+1) || ev.Line.Text != want {
			t.Errorf("event %d = {seq %d, %s}, want {seq %d, %s}", i, ev.Seq, ev.Line.Text, i+1, want)
		}
	}
}

func TestLateSubscriberGetsLastEvent(t *testing.T) {
	b := NewBroadcaster()
	b.Publish(Event{Line: line("A")})
	b.Publish(Event{Line: line("B")})

	l := b.Subscribe()
	defer b.Unsubscribe(l)
	select {
	case ev := <-l.C:
		if ev.Line.Text != "B" {
			t.Errorf("replayed %s, want B", ev.Line.Text)
		}
	default:
		t.Fatal("late subscriber got nothing")
	}
	select {
	case ev := <-l.C:
		t.Errorf("unexpected extra event %+v", ev)
	default:
	}
}

func TestBroadcastDelivers(t *testing.T) {
	b := NewBroadcaster()
	l := b.Subscribe()

	ctx, cancel := context.WithCancel(context.Background())
	source := make(chan Event, 10)

	go b.Run(ctx, source)

	source <- Event{Song: "polar-nights", At: 9916, Line: line("瞬いていた")}

	select {
	case got := <-l.C:
		if got.Song != "polar-nights" || got.At != 9916 || got.Line.Text != "瞬いていた" {
			t.Errorf("received %+v", got)
		}
	case <-time.After(time.Second):
		t.Fatal("Timeout waiting for event")
	}

	cancel()
	b.Unsubscribe(l)
}

func TestBroadcastMultipleListeners(t *testing.T) {
	b := NewBroadcaster()
	listeners := make([]*Listener, 5)
	for i := range listeners {
		listeners[i] = b.Subscribe()
	}

	b.Publish(Event{At: 42})

	for i, l := range listeners {
		select {
		case got := <-l.C:
			if got.At != 42 {
				t.Errorf("Listener %d got At=%d, want 42", i, got.At)
			}
		case <-time.After(time.Second):
			t.Errorf("Listener %d timed out", i)
		}
	}

	for _, l := range listeners {
		b.Unsubscribe(l)
	}
}

func TestBroadcastDropsSlowListener(t *testing.T) {
	b := NewBroadcaster()
	slow := b.Subscribe()

	for i := range 100 {
		b.Publish(Event{At: int64(i)})
	}

	slowCount := 0
	for {
		select {
		case <-slow.C:
			slowCount++
			continue
		default:
		}
		break
	}
	if slowCount != cap(slow.C) {
		t.Errorf("Slow listener got %d events, want buffer size %d", slowCount, cap(slow.C))
	}
	if ev, _ := b.Last(); ev.At != 99 {
		t.Errorf("Last = %d, want 99", ev.At)
	}
	b.Unsubscribe(slow)
}

func TestBroadcastStopsOnContextCancel(t *testing.T) {
	b := NewBroadcaster()
	ctx, cancel := context.WithCancel(context.Background())
	source := make(chan Event, 10)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		b.Run(ctx, source)
	}()

	cancel()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Broadcaster did not stop after context cancel")
	}
}

func TestBroadcastStopsOnSourceClose(t *testing.T) {
	b := NewBroadcaster()
	source := make(chan Event)
	done := make(chan struct{})
	go func() {
		b.Run(context.Background(), source)
		close(done)
	}()

	close(source)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Broadcaster did not stop after source closed")
	}
}

func TestListenerDoneChannel(t *testing.T) {
	b := NewBroadcaster()
	l := b.Subscribe()

	b.Unsubscribe(l)

	select {
	case <-l.Done():
	default:
		t.Error("Listener done channel not closed after unsubscribe")
	}
}
