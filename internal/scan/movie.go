package scan

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Digital-Shane/title-sieve/internal/avid"
)

// ReasonUnrecognized marks files whose identifier could not be extracted.
const ReasonUnrecognized = "unrecognized"

// Movie is one logical title ready for downstream processing. At least one of
// DVDID and CID is set. Files holds the slices in playback order.
type Movie struct {
	DVDID  string      `json:"dvdid,omitempty"`
	CID    string      `json:"cid,omitempty"`
	Files  []string    `json:"files"`
	Source avid.Source `json:"source"`
	// Attr is the variant-attribute suffix carried by the filename, such as
	// "-C" for hard-subtitled releases.
	Attr string `json:"attr,omitempty"`
}

// ID returns the primary identifier, preferring the DVD id.
func (m Movie) ID() string {
	if m.DVDID != "" {
		return m.DVDID
	}
	return m.CID
}

// DuplicateKey returns the identifier used to decide whether two movies are
// the same title, ignoring cosmetic suffixes. It is "" when the movie has no
// identifier.
func (m Movie) DuplicateKey() string {
	id := m.ID()
	if id == "" {
		return ""
	}
	return avid.Normalize(id + m.Attr)
}

// FailedItem records files that could not be identified.
type FailedItem struct {
	Files  []string `json:"files"`
	Reason string   `json:"reason"`
}

// Result is the outcome of one scan. Everything in it belongs to the caller.
type Result struct {
	Root   string       `json:"root"`
	Movies []Movie      `json:"movies"`
	Failed []FailedItem `json:"failed"`
	// Duplicates maps identifiers to files that share them but could not be
	// resolved into one sliced title.
	Duplicates map[string][]string `json:"duplicates"`
	// DuplicateOrder lists Duplicates keys in the order they were found.
	DuplicateOrder []string `json:"-"`
	// Skipped lists files below the minimum size that joined no group.
	Skipped []string `json:"skipped"`
}

// DuplicateReport renders the unresolved duplicates with paths relative to
// the scan root, or "" when there are none.
func (r *Result) DuplicateReport() string {
	var b strings.Builder
	for _, id := range r.DuplicateOrder {
		fmt.Fprintf(&b, "%s:\n", id)
		for _, f := range r.Duplicates[id] {
			rel, err := filepath.Rel(r.Root, f)
			if err != nil {
				rel = f
			}
			fmt.Fprintf(&b, "  %s\n", rel)
		}
	}
	return b.String()
}

// attrSuffixes are checked against the upper-cased stem of a title's first
// file, longest first.
var attrSuffixes = []string{"-UC", "-C", "-U"}

// detectAttr returns the variant-attribute suffix named by path.
func detectAttr(path string) string {
	base := filepath.Base(path)
	name := strings.ToUpper(strings.TrimSuffix(base, filepath.Ext(base)))
	for _, suffix := range attrSuffixes {
		if strings.HasSuffix(name, suffix) {
			return suffix
		}
	}
	return ""
}
