// Package player holds the playback state reported by the song page and
// keeps the lyric syncer in step with it.
package player

import (
	"log"
	"sync"

	"github.com/keroxp/sounds/internal/lyric"
	"github.com/keroxp/sounds/internal/syncer"
)

// State mirrors the page's player. SeekTime and Duration are milliseconds.
// Sync marks a SeekTime that the audio element must jump to (a finished drag
// on the slider); timeupdate reports carry Sync false.
type State struct {
	SeekTime int64   `json:"seek_time"`
	Sync     bool    `json:"sync"`
	Dragging bool    `json:"dragging"`
	Playing  bool    `json:"playing"`
	Loading  bool    `json:"loading"`
	Volume   float64 `json:"volume"`
	Duration int64   `json:"duration"`
}

// Initial is the state for a freshly selected song.
func Initial() State {
	return State{Sync: true, Loading: true, Volume: 1}
}

// Update is a partial State; nil fields are left unchanged. A seek always
// carries its sync flag.
type Update struct {
	Seek     *Seek    `json:"seek,omitempty"`
	Dragging *bool    `json:"dragging,omitempty"`
	Playing  *bool    `json:"playing,omitempty"`
	Loading  *bool    `json:"loading,omitempty"`
	Volume   *float64 `json:"volume,omitempty"`
	Duration *int64   `json:"duration,omitempty"`
}

type Seek struct {
	Time int64 `json:"time"`
	Sync bool  `json:"sync"`
}

// Apply returns s with the fields set in u replaced.
func (s State) Apply(u Update) State {
	if u.Seek != nil {
		s.SeekTime = u.Seek.Time
		s.Sync = u.Seek.Sync
	}
	if u.Dragging != nil {
		s.Dragging = *u.Dragging
	}
	if u.Playing != nil {
		s.Playing = *u.Playing
	}
	if u.Loading != nil {
		s.Loading = *u.Loading
	}
	if u.Volume != nil {
		s.Volume = *u.Volume
	}
	if u.Duration != nil {
		s.Duration = *u.Duration
	}
	return s
}

// Player is the server side of one page's player.
type Player struct {
	syncer *syncer.Syncer

	mu    sync.RWMutex
	song  string
	state State
}

// New returns a Player driving s.
func New(s *syncer.Syncer) *Player {
	return &Player{syncer: s, state: Initial()}
}

// Load switches to another song: playback state is reset and the syncer
// starts over on the new schedule.
func (p *Player) Load(songID string, schedule lyric.Schedule) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.syncer.Reset()
	p.syncer.SetSchedule(schedule)
	p.song = songID
	p.state = Initial()
	log.Printf("player: loaded %s (%d lines)", songID, len(schedule))
}

// Dispatch merges u into the state and forwards positions to the syncer.
// Reported positions are authoritative except while the slider is dragged,
// when the lyrics hold until the drag ends. The syncer polls only while
// playing.
func (p *Player) Dispatch(u Update) State {
	p.mu.Lock()
	defer p.mu.Unlock()
	prev := p.state
	next := prev.Apply(u)
	p.state = next

	if u.Seek != nil && !next.Dragging {
		p.syncer.Sync(next.SeekTime, false)
	}
	switch {
	case next.Playing && !prev.Playing:
		p.syncer.Start()
	case !next.Playing && prev.Playing:
		p.syncer.Stop()
	}
	return next
}

// State returns the current state.
func (p *Player) State() State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

// Status is the player summary served to clients.
type Status struct {
	Song      string       `json:"song"`
	Position  string       `json:"position"`
	Remaining string       `json:"remaining"`
	SeekTime  int64        `json:"seek_time"`
	Duration  int64        `json:"duration"`
	Playing   bool         `json:"playing"`
	Line      *lyric.Range `json:"line"`
}

// Status reports the playback position as the syncer currently sees it.
func (p *Player) Status() Status {
	p.mu.RLock()
	song, st := p.song, p.state
	p.mu.RUnlock()

	seek := p.syncer.SeekTime()
	remaining := st.Duration - seek
	if remaining < 0 {
		remaining = 0
	}
	return Status{
		Song:      song,
		Position:  lyric.FormatClock(float64(seek) / 1000),
		Remaining: "-" + lyric.FormatClock(float64(remaining)/1000),
		SeekTime:  seek,
		Duration:  st.Duration,
		Playing:   st.Playing,
		Line:      p.syncer.Current(),
	}
}
