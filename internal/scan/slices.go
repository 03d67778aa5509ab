package scan

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
)

// Reasons a group of files sharing one identifier is not a sliced title.
var (
	ErrCrossDirectory  = errors.New("files are in different directories")
	ErrSlicePattern    = errors.New("slice pattern failed to compile")
	ErrAmbiguousSlices = errors.New("slice tokens are missing or repeated")
	ErrSliceSequence   = errors.New("slice tokens must start at 0, 1 or a and be contiguous")
)

// SliceError explains why ResolveSlices rejected a group.
type SliceError struct {
	Err       error
	Files     []string
	Prefix    string
	Remaining []string
	Tokens    []string
}

func (e *SliceError) Error() string {
	switch {
	case errors.Is(e.Err, ErrCrossDirectory):
		return e.Err.Error()
	case len(e.Tokens) > 0:
		return fmt.Sprintf("%v: prefix=%q tokens=%q", e.Err, e.Prefix, e.Tokens)
	default:
		return fmt.Sprintf("%v: prefix=%q remaining=%q", e.Err, e.Prefix, e.Remaining)
	}
}

func (e *SliceError) Unwrap() error { return e.Err }

// sliceStarts are the tokens a slice sequence may begin with.
var sliceStarts = []rune{'0', '1', 'a'}

// ResolveSlices decides whether files sharing one identifier are sequential
// parts of one title. Parts must live in one directory and differ only by a
// single alphanumeric token right after their common name prefix, such as
// TITLE-001a.mp4 and TITLE-001b.mp4. Tokens must form a gapless run starting
// at 0, 1 or a. On success the files are returned in slice order; otherwise
// the error is a *SliceError.
//
// With single-character tokens at most 10 numeric or 26 alphabetic slices are
// supported. Shared leading characters such as the 0 in 01, 02 end up in the
// prefix, so zero-padded numbering still works.
func ResolveSlices(files []string) ([]string, error) {
	if len(files) < 2 {
		return slices.Clone(files), nil
	}

	dirs := make(map[string]struct{}, 1)
	for _, f := range files {
		dirs[filepath.Dir(f)] = struct{}{}
	}
	if len(dirs) > 1 {
		return nil, &SliceError{Err: ErrCrossDirectory, Files: slices.Clone(files)}
	}

	basenames := make([]string, len(files))
	for i, f := range files {
		basenames[i] = filepath.Base(f)
	}
	prefix := commonPrefix(basenames)

	re, err := regexp.Compile(`(?i)` + regexp.QuoteMeta(prefix) + `\s*([a-z\d])\s*`)
	if err != nil {
		return nil, &SliceError{Err: fmt.Errorf("%w: %v", ErrSlicePattern, err), Files: slices.Clone(files), Prefix: prefix}
	}

	// After substitution a well formed name collapses to token + postfix.
	remaining := make([]string, len(basenames))
	tokens := make([]rune, len(basenames))
	postfixes := make(map[string]struct{}, 1)
	seen := make(map[rune]struct{}, len(basenames))
	ambiguous := false
	for i, name := range basenames {
		remaining[i] = strings.ToLower(re.ReplaceAllString(name, "${1}"))
		runes := []rune(remaining[i])
		if len(runes) == 0 {
			ambiguous = true
			continue
		}
		tokens[i] = runes[0]
		postfixes[string(runes[1:])] = struct{}{}
		if _, dup := seen[runes[0]]; dup {
			ambiguous = true
		}
		seen[runes[0]] = struct{}{}
	}
	if ambiguous || len(postfixes) != 1 {
		return nil, &SliceError{Err: ErrAmbiguousSlices, Files: slices.Clone(files), Prefix: prefix, Remaining: remaining}
	}

	sorted := slices.Clone(tokens)
	slices.Sort(sorted)
	first, last := sorted[0], sorted[len(sorted)-1]
	if !slices.Contains(sliceStarts, first) || last != first+rune(len(sorted)-1) {
		return nil, &SliceError{Err: ErrSliceSequence, Files: slices.Clone(files), Prefix: prefix, Remaining: remaining, Tokens: runesToStrings(sorted)}
	}

	ordered := make([]string, len(files))
	for i, tok := range sorted {
		ordered[i] = files[slices.Index(tokens, tok)]
	}
	return ordered, nil
}

// commonPrefix returns the longest rune-aligned prefix shared by names.
func commonPrefix(names []string) string {
	if len(names) == 0 {
		return ""
	}
	prefix := []rune(names[0])
	for _, name := range names[1:] {
		runes := []rune(name)
		n := min(len(prefix), len(runes))
		i := 0
		for i < n && prefix[i] == runes[i] {
			i++
		}
		prefix = prefix[:i]
	}
	return string(prefix)
}

func runesToStrings(rs []rune) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = string(r)
	}
	return out
}
