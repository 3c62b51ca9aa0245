package tap

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"

	"github.com/keroxp/sounds/internal/lyric"
)

// Shell is the interactive front end of a Counter. An empty line marks.
type Shell struct {
	Counter *Counter
	Out     io.Writer
	Copy    func(string) error     // clipboard writer
	Paste   func() (string, error) // clipboard reader

	texts []string
}

// NewShell returns a shell printing to stdout. Nil clipboard functions
// disable copy and paste.
func NewShell(c *Counter, copyFn func(string) error, pasteFn func() (string, error)) *Shell {
	return &Shell{Counter: c, Out: os.Stdout, Copy: copyFn, Paste: pasteFn}
}

// Completer lists the shell commands for tab completion.
func (s *Shell) Completer() readline.AutoCompleter {
	return readline.NewPrefixCompleter(
		readline.PcItem("start"),
		readline.PcItem("mark"),
		readline.PcItem("undo"),
		readline.PcItem("load"),
		readline.PcItem("paste"),
		readline.PcItem("print"),
		readline.PcItem("copy"),
		readline.PcItem("status"),
		readline.PcItem("help"),
		readline.PcItem("exit"),
	)
}

// Run reads commands until exit, EOF or Ctrl-C.
func (s *Shell) Run(historyFile string) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:       "lyrictap> ",
		HistoryFile:  historyFile,
		AutoComplete: s.Completer(),
	})
	if err != nil {
		return fmt.Errorf("init readline: %w", err)
	}
	defer rl.Close()

	s.printCommands()
	for {
		input, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt || err == io.EOF {
				fmt.Fprintln(s.Out, "bye")
				return nil
			}
			return fmt.Errorf("read input: %w", err)
		}
		if !s.HandleCommand(input) {
			return nil
		}
	}
}

// HandleCommand runs one command line. It returns false on exit.
func (s *Shell) HandleCommand(input string) bool {
	fields := strings.Fields(input)
	if len(fields) == 0 {
		s.mark()
		return true
	}
	switch fields[0] {
	case "start":
		s.Counter.Start()
		fmt.Fprintln(s.Out, "started, press enter at every line boundary")
	case "mark":
		s.mark()
	case "undo":
		if !s.Counter.Undo() {
			fmt.Fprintln(s.Out, "nothing to undo")
		}
	case "load":
		if len(fields) < 2 {
			fmt.Fprintln(s.Out, "usage: load <lyrics.txt>")
			break
		}
		if err := s.load(fields[1]); err != nil {
			fmt.Fprintf(s.Out, "load: %v\n", err)
		}
	case "paste":
		if s.Paste == nil {
			fmt.Fprintln(s.Out, "paste: no clipboard, use load")
			break
		}
		text, err := s.Paste()
		if err != nil {
			fmt.Fprintf(s.Out, "paste: %v\n", err)
			break
		}
		if err := s.setTexts(strings.NewReader(text)); err != nil {
			fmt.Fprintf(s.Out, "paste: %v\n", err)
		}
	case "print":
		fmt.Fprint(s.Out, s.render())
	case "copy":
		if s.Copy == nil {
			fmt.Fprintln(s.Out, "copy: no clipboard, use print")
			break
		}
		text := s.render()
		if err := s.Copy(text); err != nil {
			fmt.Fprintf(s.Out, "copy: %v\n", err)
			break
		}
		fmt.Fprintf(s.Out, "copied %d lines\n", strings.Count(text, "\n"))
	case "status":
		fmt.Fprintf(s.Out, "position %s, %d ranges, %d lyric lines\n",
			lyric.FormatMs(s.Counter.Elapsed()), len(s.Counter.Ranges()), len(s.texts))
	case "help":
		s.printCommands()
	case "exit", "quit":
		return false
	default:
		fmt.Fprintf(s.Out, "unknown command %q, try help\n", fields[0])
	}
	return true
}

func (s *Shell) mark() {
	r, err := s.Counter.Mark()
	if err != nil {
		fmt.Fprintln(s.Out, "not started, type start when playback begins")
		return
	}
	fmt.Fprintf(s.Out, "[%s-%s]", lyric.FormatMs(r.Start), lyric.FormatMs(r.End))
	if i := len(s.Counter.Ranges()) - 1; i < len(s.texts) {
		fmt.Fprint(s.Out, s.texts[i])
	}
	fmt.Fprintln(s.Out)
}

// load reads lyric texts from a file.
func (s *Shell) load(file string) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()
	return s.setTexts(f)
}

// setTexts replaces the lyric texts, one non-empty line per range.
func (s *Shell) setTexts(r io.Reader) error {
	var texts []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			texts = append(texts, line)
		}
	}
	if err := sc.Err(); err != nil {
		return err
	}
	s.texts = texts
	fmt.Fprintf(s.Out, "loaded %d lines\n", len(texts))
	return nil
}

// render is the schedule when lyric texts are loaded, the bare ranges otherwise.
func (s *Shell) render() string {
	if len(s.texts) > 0 {
		return s.Counter.Schedule(s.texts).String()
	}
	return s.Counter.String()
}

func (s *Shell) printCommands() {
	fmt.Fprintf(s.Out, "\nCommands:\n")
	fmt.Fprintf(s.Out, "  start            Start the clock when playback starts\n")
	fmt.Fprintf(s.Out, "  <enter> | mark   Close the current range\n")
	fmt.Fprintf(s.Out, "  undo             Drop the last mark\n")
	fmt.Fprintf(s.Out, "  load <file>      Load lyric lines to pair with the ranges\n")
	fmt.Fprintf(s.Out, "  paste            Load lyric lines from the clipboard\n")
	fmt.Fprintf(s.Out, "  print            Print the ranges\n")
	fmt.Fprintf(s.Out, "  copy             Copy the ranges to the clipboard\n")
	fmt.Fprintf(s.Out, "  status           Show position and counts\n")
	fmt.Fprintf(s.Out, "  exit             Quit\n\n")
}
