// Package lyric parses lyric timing schedules and answers which line is
// active at a given playback offset.
package lyric

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"regexp"
	"strings"
)

// Range is one lyric line and the half-open window [Start, End) in
// milliseconds from track start during which it is shown.
type Range struct {
	Start int64  `json:"start"`
	End   int64  `json:"end"`
	Text  string `json:"text"`
}

// Contains reports whether t falls inside [Start, End).
func (r Range) Contains(t int64) bool {
	return r.Start <= t && t < r.End
}

// Duration of the range in milliseconds.
func (r Range) Duration() int64 { return r.End - r.Start }

// String renders the range in schedule line form.
func (r Range) String() string {
	return fmt.Sprintf("[%s-%s]%s", FormatMs(r.Start), FormatMs(r.End), r.Text)
}

// Schedule is an ordered, non-overlapping list of ranges. Editors trim the
// ranges in place through the slice; entries are never added or removed.
type Schedule []Range

var lineRe = regexp.MustCompile(`^\[(\d{2}:\d{2}:\d{3})-(\d{2}:\d{2}:\d{3})\](.+)$`)

// Parse reads a schedule with one `[MM:SS:mmm-MM:SS:mmm]text` entry per line.
// Blank and non-matching lines are skipped. Entries that would break the
// ordering (empty, inverted or overlapping the previous entry) are dropped
// with a log line.
func Parse(r io.Reader) (Schedule, error) {
	var s Schedule
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		rng, ok := parseLine(line)
		if !ok {
			continue
		}
		if rng.Start >= rng.End {
			log.Printf("lyric: line %d: empty range %s-%s, skipped", lineNo, FormatMs(rng.Start), FormatMs(rng.End))
			continue
		}
		if n := len(s); n > 0 && rng.Start < s[n-1].End {
			log.Printf("lyric: line %d: overlaps previous range, skipped", lineNo)
			continue
		}
		s = append(s, rng)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read schedule: %w", err)
	}
	return s, nil
}

// ParseString is Parse over an in-memory schedule.
func ParseString(text string) (Schedule, error) {
	return Parse(strings.NewReader(text))
}

func parseLine(line string) (Range, bool) {
	match := lineRe.FindStringSubmatch(line)
	if match == nil {
		return Range{}, false
	}
	start, err := ParseMs(match[1])
	if err != nil {
		return Range{}, false
	}
	end, err := ParseMs(match[2])
	if err != nil {
		return Range{}, false
	}
	return Range{Start: start, End: end, Text: match[3]}, true
}

// FindContaining returns the range with Start <= t < End and its index.
// ok is false when t falls in a gap, before the first range or past the last.
func (s Schedule) FindContaining(t int64) (Range, int, bool) {
	for i, r := range s {
		if r.Contains(t) {
			return r, i, true
		}
	}
	return Range{}, -1, false
}

// Validate checks the ordering invariant and returns the first violation.
func (s Schedule) Validate() error {
	for i, r := range s {
		if r.Start >= r.End {
			return fmt.Errorf("range %d: start %d >= end %d", i, r.Start, r.End)
		}
		if i > 0 && r.Start < s[i-1].End {
			return fmt.Errorf("range %d: starts at %d before previous end %d", i, r.Start, s[i-1].End)
		}
	}
	return nil
}

// Clone returns a deep copy so a session can trim ranges without touching
// the parsed original.
func (s Schedule) Clone() Schedule {
	if s == nil {
		return nil
	}
	out := make(Schedule, len(s))
	copy(out, s)
	return out
}

// End returns the end of the last range, or 0 for an empty schedule.
func (s Schedule) End() int64 {
	if len(s) == 0 {
		return 0
	}
	return s[len(s)-1].End
}

// String renders the schedule back into its line format, one range per line.
func (s Schedule) String() string {
	var b strings.Builder
	for _, r := range s {
		b.WriteString(r.String())
		b.WriteString("\n")
	}
	return b.String()
}
