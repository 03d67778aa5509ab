// Package library reads the layout of an organized destination library.
package library

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/Digital-Shane/title-sieve/internal/avid"
)

// NumVariable is the placeholder that carries a title's identifier.
const NumVariable = "num"

// segmentMatcher matches one directory level of the output template.
type segmentMatcher struct {
	re *regexp.Regexp
	// num is the capture group index of the identifier, or 0 when the
	// segment does not carry it.
	num int
}

// candidate is a directory that matched the template so far.
type candidate struct {
	path string
	num  string
}

// ExistingIDs lists the identifiers already organized under the directory
// layout described by pattern, such as "#sorted/{actress}/[{num}] {title}".
// The literal prefix of the pattern is the library root; each following
// segment is matched against directory names one level at a time. Captured
// identifiers are normalized with avid.Normalize.
//
// A pattern without {num}, a missing root or unreadable directories yield an
// empty set. The error is reserved for segments that cannot be compiled.
func ExistingIDs(pattern string) (map[string]struct{}, error) {
	existing := make(map[string]struct{})
	if !hasNum(pattern) {
		return existing, nil
	}

	base, segments := splitPattern(pattern)
	if len(segments) == 0 {
		return existing, nil
	}
	if base == "" {
		base = "."
	}
	base = filepath.Clean(filepath.FromSlash(base))
	if fi, err := os.Stat(base); err != nil || !fi.IsDir() {
		return existing, nil
	}

	matchers := make([]segmentMatcher, len(segments))
	for i, seg := range segments {
		m, err := compileSegment(seg)
		if err != nil {
			return nil, err
		}
		matchers[i] = m
	}

	candidates := []candidate{{path: base}}
	for _, m := range matchers {
		var next []candidate
		for _, c := range candidates {
			entries, err := os.ReadDir(c.path)
			if err != nil {
				continue
			}
			for _, e := range entries {
				if !isDir(c.path, e) {
					continue
				}
				match := m.re.FindStringSubmatch(e.Name())
				if match == nil {
					continue
				}
				found := candidate{path: filepath.Join(c.path, e.Name()), num: c.num}
				if m.num > 0 && match[m.num] != "" {
					found.num = match[m.num]
				}
				next = append(next, found)
			}
		}
		candidates = next
		if len(candidates) == 0 {
			break
		}
	}

	for _, c := range candidates {
		if id := avid.Normalize(c.num); id != "" {
			existing[id] = struct{}{}
		}
	}
	return existing, nil
}

// splitPattern separates the literal directory prefix of pattern from the
// segments that contain placeholders. Backslashes are treated as separators.
func splitPattern(pattern string) (base string, segments []string) {
	normalized := strings.TrimSpace(strings.ReplaceAll(pattern, `\`, "/"))
	first := strings.Index(normalized, "{")
	var tail string
	switch {
	case first == -1:
		base = normalized
	default:
		if sep := strings.LastIndex(normalized[:first], "/"); sep == -1 {
			tail = normalized
		} else {
			base, tail = normalized[:sep], normalized[sep+1:]
		}
	}
	base = strings.TrimRight(base, "/")
	for _, seg := range strings.Split(tail, "/") {
		if seg != "" {
			segments = append(segments, seg)
		}
	}
	return base, segments
}

// compileSegment builds an anchored matcher for one template segment. The
// first {num} captures; other placeholders match any single path component.
func compileSegment(segment string) (segmentMatcher, error) {
	var (
		b     strings.Builder
		last  int
		group int
		m     segmentMatcher
	)
	for _, loc := range variablePattern.FindAllStringSubmatchIndex(segment, -1) {
		b.WriteString(regexp.QuoteMeta(segment[last:loc[0]]))
		name := strings.TrimSpace(segment[loc[2]:loc[3]])
		if name == NumVariable && m.num == 0 {
			group++
			m.num = group
			b.WriteString(`([^/]+)`)
		} else {
			b.WriteString(`[^/]+`)
		}
		last = loc[1]
	}
	b.WriteString(regexp.QuoteMeta(segment[last:]))

	expr := b.String()
	if expr == "" {
		expr = `.+`
	}
	re, err := regexp.Compile(`^` + expr + `$`)
	if err != nil {
		return segmentMatcher{}, fmt.Errorf("invalid template segment %q: %w", segment, err)
	}
	m.re = re
	return m, nil
}

// hasNum reports whether pattern carries the identifier placeholder.
func hasNum(pattern string) bool {
	for _, match := range variablePattern.FindAllStringSubmatch(pattern, -1) {
		if strings.TrimSpace(match[1]) == NumVariable {
			return true
		}
	}
	return false
}

// isDir follows symlinks so linked library folders are walked too.
func isDir(parent string, e os.DirEntry) bool {
	if e.IsDir() {
		return true
	}
	if e.Type()&os.ModeSymlink == 0 {
		return false
	}
	fi, err := os.Stat(filepath.Join(parent, e.Name()))
	return err == nil && fi.IsDir()
}
