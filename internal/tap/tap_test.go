package tap

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/keroxp/sounds/internal/clock"
)

func TestMarkBeforeStart(t *testing.T) {
	c := New(clock.NewFake())
	if _, err := c.Mark(); !errors.Is(err, ErrNotStarted) {
		t.Errorf("Mark = %v, want ErrNotStarted", err)
	}
	if c.Elapsed() != 0 {
		t.Errorf("Elapsed = %d before Start", c.Elapsed())
	}
}

func TestElapsedMeasuresFromStart(t *testing.T) {
	clk := clock.NewFake()
	clk.Advance(900 * time.Microsecond)
	c := New(clk)
	c.Start()
	clk.Advance(200 * time.Microsecond)
	// the readings straddle a millisecond edge, but only 0.2ms passed
	if got := c.Elapsed(); got != 0 {
		t.Errorf("Elapsed = %d, want 0", got)
	}
	clk.Advance(1800 * time.Microsecond)
	if got := c.Elapsed(); got != 2 {
		t.Errorf("Elapsed = %d, want 2", got)
	}
}

func TestCounter(t *testing.T) {
	clk := clock.NewFake()
	c := New(clk)
	c.Start()
	clk.Advance(9916 * time.Millisecond)
	r, err := c.Mark()
	if err != nil || r.Start != 0 || r.End != 9916 {
		t.Fatalf("Mark = %v, %v; want [0, 9916)", r, err)
	}
	clk.Advance(5966 * time.Millisecond)
	c.Mark()

	want := "[00:00:000-00:09:916]\n[00:09:916-00:15:882]\n"
	if got := c.String(); got != want {
		t.Errorf("String = %q, want %q", got, want)
	}

	sched := c.Schedule([]string{"〜前奏〜", "瞬いていた"})
	if len(sched) != 2 || sched[1].Text != "瞬いていた" {
		t.Errorf("Schedule = %v", sched)
	}
	if err := sched.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
	if got := c.Schedule([]string{"only one"}); len(got) != 1 {
		t.Errorf("Schedule with one text = %v, want one range", got)
	}
}

func TestUndoReopensRange(t *testing.T) {
	clk := clock.NewFake()
	c := New(clk)
	c.Start()
	clk.Advance(time.Second)
	c.Mark()
	clk.Advance(time.Second)
	c.Mark()
	if !c.Undo() {
		t.Fatal("Undo = false")
	}
	clk.Advance(time.Second)
	r, _ := c.Mark()
	if r.Start != 1000 || r.End != 3000 {
		t.Errorf("Mark after Undo = [%d, %d), want [1000, 3000)", r.Start, r.End)
	}
	c.Start()
	if c.Undo() {
		t.Error("Start should forget all marks")
	}
}

func TestZeroLengthTapsLeftOut(t *testing.T) {
	clk := clock.NewFake()
	c := New(clk)
	c.Start()
	clk.Advance(time.Second)
	c.Mark()
	c.Mark()
	if got := c.Schedule([]string{"a", "b"}); len(got) != 1 {
		t.Errorf("Schedule = %v, want the empty range dropped", got)
	}
}

func newTestShell() (*Shell, *clock.Fake, *bytes.Buffer, *string) {
	clk := clock.NewFake()
	var out bytes.Buffer
	var copied string
	s := &Shell{Counter: New(clk), Out: &out, Copy: func(text string) error {
		copied = text
		return nil
	}}
	return s, clk, &out, &copied
}

func TestShellSession(t *testing.T) {
	s, clk, out, copied := newTestShell()

	s.HandleCommand("")
	if !strings.Contains(out.String(), "not started") {
		t.Errorf("output = %q, want a not started hint", out.String())
	}

	lyrics := filepath.Join(t.TempDir(), "lyrics.txt")
	if err := os.WriteFile(lyrics, []byte("first\n\nsecond\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	s.HandleCommand("load " + lyrics)
	s.HandleCommand("start")
	clk.Advance(1500 * time.Millisecond)
	s.HandleCommand("")
	clk.Advance(time.Second)
	s.HandleCommand("mark")

	if !strings.Contains(out.String(), "[00:00:000-00:01:500]first") {
		t.Errorf("mark output missing:\n%s", out.String())
	}

	s.HandleCommand("copy")
	want := "[00:00:000-00:01:500]first\n[00:01:500-00:02:500]second\n"
	if *copied != want {
		t.Errorf("copied %q, want %q", *copied, want)
	}

	out.Reset()
	s.HandleCommand("print")
	if out.String() != want {
		t.Errorf("print = %q, want %q", out.String(), want)
	}
	if s.HandleCommand("exit") {
		t.Error("exit should end the session")
	}
}

func TestShellCopyError(t *testing.T) {
	s, _, out, _ := newTestShell()
	s.Copy = func(string) error { return errors.New("no clipboard") }
	s.HandleCommand("copy")
	if !strings.Contains(out.String(), "copy: no clipboard") {
		t.Errorf("output = %q", out.String())
	}

	out.Reset()
	s.Copy = nil
	s.HandleCommand("copy")
	if !strings.Contains(out.String(), "use print") {
		t.Errorf("copy without clipboard = %q", out.String())
	}
}

func TestShellPaste(t *testing.T) {
	s, clk, out, copied := newTestShell()
	s.Paste = func() (string, error) { return "first\n\n  second  \n", nil }
	s.HandleCommand("paste")
	if !strings.Contains(out.String(), "loaded 2 lines") {
		t.Fatalf("output = %q", out.String())
	}
	s.HandleCommand("start")
	clk.Advance(1500 * time.Millisecond)
	s.HandleCommand("")
	clk.Advance(1000 * time.Millisecond)
	s.HandleCommand("")
	s.HandleCommand("copy")
	want := "[00:00:000-00:01:500]first\n[00:01:500-00:02:500]second\n"
	if *copied != want {
		t.Errorf("copied = %q, want %q", *copied, want)
	}

	out.Reset()
	s.Paste = func() (string, error) { return "", errors.New("xclip failed") }
	s.HandleCommand("paste")
	if !strings.Contains(out.String(), "paste: xclip failed") {
		t.Errorf("output = %q", out.String())
	}

	out.Reset()
	s.Paste = nil
	s.HandleCommand("paste")
	if !strings.Contains(out.String(), "use load") {
		t.Errorf("paste without clipboard = %q", out.String())
	}
}

func TestShellUnknownCommand(t *testing.T) {
	s, _, out, _ := newTestShell()
	if !s.HandleCommand("dance") {
		t.Error("unknown command ended the session")
	}
	if !strings.Contains(out.String(), `unknown command "dance"`) {
		t.Errorf("output = %q", out.String())
	}
	out.Reset()
	s.HandleCommand("load")
	if !strings.Contains(out.String(), "usage") {
		t.Errorf("load without a file = %q", out.String())
	}
}
