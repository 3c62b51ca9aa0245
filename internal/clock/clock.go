// Package clock is the timer capability handed to the syncer and the editor
// render loop: a monotonic Now, one-shot callbacks and repeating callbacks,
// each cancellable through its Timer handle.
package clock

import (
	"sync"
	"time"
)

// Timer is a handle to a scheduled callback. Stop is idempotent and reports
// whether the call prevented a future firing.
type Timer interface {
	Stop() bool
}

// Clock schedules callbacks. Callbacks may run on another goroutine.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
	Every(d time.Duration, f func()) Timer
}

// Real is the wall clock.
type Real struct{}

func (Real) Now() time.Time { return time.Now() }

func (Real) AfterFunc(d time.Duration, f func()) Timer {
	if d < 0 {
		d = 0
	}
	return time.AfterFunc(d, f)
}

// Every runs f on its own goroutine each time the ticker fires until the
// returned Timer is stopped.
func (Real) Every(d time.Duration, f func()) Timer {
	t := &ticker{t: time.NewTicker(d), done: make(chan struct{})}
	go func() {
		for {
			select {
			case <-t.done:
				return
			case <-t.t.C:
				f()
			}
		}
	}()
	return t
}

type ticker struct {
	t    *time.Ticker
	once sync.Once
	done chan struct{}
}

func (t *ticker) Stop() bool {
	stopped := false
	t.once.Do(func() {
		t.t.Stop()
		close(t.done)
		stopped = true
	})
	return stopped
}
