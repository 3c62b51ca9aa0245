// Package clipboard copies text to and from the system clipboard.
package clipboard

import (
	"errors"

	"github.com/atotto/clipboard"
)

// ErrEmpty is returned when asked to copy nothing.
var ErrEmpty = errors.New("clipboard: nothing to copy")

// Unsupported reports whether no clipboard utility is available, as on a
// headless machine.
func Unsupported() bool { return clipboard.Unsupported }

// ReadAll returns the clipboard text.
func ReadAll() (string, error) {
	return clipboard.ReadAll()
}

// WriteAll replaces the clipboard text.
func WriteAll(text string) error {
	if text == "" {
		return ErrEmpty
	}
	return clipboard.WriteAll(text)
}

// Equals reports whether the clipboard currently holds text. Read errors
// count as a mismatch.
func Equals(text string) bool {
	current, err := clipboard.ReadAll()
	if err != nil {
		return false
	}
	return current == text
}
