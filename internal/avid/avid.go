// Package avid extracts and classifies the identifiers that name titles in a
// media library.
//
// Two identifier families exist. A DVD id is the label-number code printed on
// the package ("ABC-123"); a content id (cid) is the lower-case code a store
// uses internally ("abc00123"). Both can usually be recovered from a filename.
package avid

import (
	"strings"

	csmap "github.com/mhmtszr/concurrent-swiss-map"
)

// Source tags which identifier family should drive downstream metadata lookup.
type Source string

const (
	SourceNormal Source = "normal"
	SourceCID    Source = "cid"
	SourceFC2    Source = "fc2"
	SourceGetchu Source = "getchu"
	SourceGyutto Source = "gyutto"
)

// Classify maps an identifier to the source family its shape belongs to.
func Classify(id string) Source {
	switch {
	case id == "":
		return SourceNormal
	case fc2ClassRe.MatchString(id):
		return SourceFC2
	case getchuClassRe.MatchString(id):
		return SourceGetchu
	case gyuttoClassRe.MatchString(id):
		return SourceGyutto
	case extractCID(id) == id:
		return SourceCID
	default:
		return SourceNormal
	}
}

// DVDID returns the DVD id found in the basename of path, or "".
func DVDID(path string) string {
	return extractDVDID(path)
}

// CID returns the content id found in the basename of path, or "".
func CID(path string) string {
	return extractCID(path)
}

type extraction struct {
	dvdid string
	cid   string
}

// Extractor memoizes identifier extraction per basename. Scans revisit the
// same names when small files are merged back into their groups, and a
// single Extractor may be shared by concurrent scans.
type Extractor struct {
	memo *csmap.CsMap[string, extraction]
}

// NewExtractor creates an Extractor with an empty memo.
func NewExtractor() *Extractor {
	return &Extractor{
		memo: csmap.Create[string, extraction](),
	}
}

// DVDID returns the DVD id for path.
func (e *Extractor) DVDID(path string) string {
	return e.lookup(path).dvdid
}

// CID returns the content id for path.
func (e *Extractor) CID(path string) string {
	return e.lookup(path).cid
}

// Classify returns the source family of id.
func (e *Extractor) Classify(id string) Source {
	return Classify(id)
}

// Cached reports how many basenames are memoized.
func (e *Extractor) Cached() int {
	return e.memo.Count()
}

func (e *Extractor) lookup(path string) extraction {
	key := path
	if i := strings.LastIndexAny(key, `/\`); i != -1 {
		key = key[i+1:]
	}
	if got, ok := e.memo.Load(key); ok {
		return got
	}
	res := extraction{dvdid: extractDVDID(key), cid: extractCID(key)}
	e.memo.Store(key, res)
	return res
}
