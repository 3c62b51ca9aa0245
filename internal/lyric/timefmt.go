package lyric

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
)

// ErrBadTimestamp is returned when a timestamp is not in MM:SS:mmm form.
var ErrBadTimestamp = errors.New("lyric: bad timestamp")

var timestampRe = regexp.MustCompile(`^(\d{2}):(\d{2}):(\d{3})$`)

// FormatMs renders a millisecond offset as MM:SS:mmm. Minutes are not
// wrapped into hours, so offsets past 99 minutes widen the first field.
func FormatMs(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	m := ms / 60000
	s := (ms - m*60000) / 1000
	rest := ms - m*60000 - s*1000
	return fmt.Sprintf("%02d:%02d:%03d", m, s, rest)
}

// ParseMs is the inverse of FormatMs.
func ParseMs(s string) (int64, error) {
	match := timestampRe.FindStringSubmatch(s)
	if match == nil {
		return 0, fmt.Errorf("%w: %q", ErrBadTimestamp, s)
	}
	min, _ := strconv.ParseInt(match[1], 10, 64)
	sec, _ := strconv.ParseInt(match[2], 10, 64)
	ms, _ := strconv.ParseInt(match[3], 10, 64)
	return min*60000 + sec*1000 + ms, nil
}

// FormatClock renders seconds as MM:SS for the player's elapsed/remaining labels.
func FormatClock(sec float64) string {
	if sec < 0 || math.IsNaN(sec) {
		sec = 0
	}
	whole := int64(math.Floor(sec))
	return fmt.Sprintf("%02d:%02d", whole/60, whole%60)
}
