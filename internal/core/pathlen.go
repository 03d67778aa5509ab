package core

import (
	"path/filepath"
	"unicode/utf8"
)

// RemainingPathLength returns how many more units fit in path before it hits
// max. Units are bytes when byBytes is set and characters otherwise, matching
// how the destination filesystem counts its limit. The path is made absolute
// first; the result is negative when path is already too long.
func RemainingPathLength(path string, byBytes bool, max int) int {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	if byBytes {
		return max - len(path)
	}
	return max - utf8.RuneCountInString(path)
}
