// Package scan walks a media library, groups video files by identifier and
// assembles the movie records the rest of the pipeline works on.
package scan

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/Digital-Shane/title-sieve/internal/avid"
	"github.com/Digital-Shane/title-sieve/internal/config"
	"github.com/charmbracelet/log"
)

// ErrInvalidRoot is returned when the scan root is missing or not a directory.
var ErrInvalidRoot = errors.New("invalid scan root")

// Extractor recovers identifiers from file paths. *avid.Extractor satisfies it.
type Extractor interface {
	DVDID(path string) string
	CID(path string) string
	Classify(id string) avid.Source
}

// Progress is reported once per directory entered and once per video found.
type Progress struct {
	Path string
	// TopLevel is the entry directly below the root that Path belongs to.
	TopLevel string
	Dirs     int
	Videos   int
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithLogger sets the logger used for scan diagnostics.
func WithLogger(l *log.Logger) Option {
	return func(s *Scanner) { s.logger = l }
}

// WithExtractor replaces the default memoizing extractor.
func WithExtractor(e Extractor) Option {
	return func(s *Scanner) { s.ids = e }
}

// WithProgress registers a callback invoked synchronously during the walk.
func WithProgress(fn func(Progress)) Option {
	return func(s *Scanner) { s.progress = fn }
}

// Scanner discovers movies below a root directory. A Scanner holds no
// per-scan state and may run several scans concurrently.
type Scanner struct {
	ignore     *regexp.Regexp
	skipNFODir bool
	exts       map[string]struct{}
	minSize    int64

	ids      Extractor
	logger   *log.Logger
	progress func(Progress)
}

// New builds a Scanner from the scanner section of the configuration.
func New(cfg config.ScannerConfig, opts ...Option) (*Scanner, error) {
	ignore, err := cfg.IgnoredFolderRegexp()
	if err != nil {
		return nil, err
	}
	minSize, err := cfg.MinimumSizeBytes()
	if err != nil {
		return nil, err
	}
	s := &Scanner{
		ignore:     ignore,
		skipNFODir: cfg.SkipNFODir,
		exts:       cfg.ExtensionSet(),
		minSize:    minSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.ids == nil {
		s.ids = avid.NewExtractor()
	}
	if s.logger == nil {
		s.logger = log.New(io.Discard)
	}
	return s, nil
}

// groupTable keeps identifier groups in first-seen order.
type groupTable struct {
	order []string
	files map[string][]string
}

func newGroupTable() *groupTable {
	return &groupTable{files: make(map[string][]string)}
}

func (g *groupTable) add(id string, paths ...string) {
	if _, ok := g.files[id]; !ok {
		g.order = append(g.order, id)
	}
	g.files[id] = append(g.files[id], paths...)
}

func (g *groupTable) has(id string) bool {
	_, ok := g.files[id]
	return ok
}

// walkState is everything a single walk accumulates.
type walkState struct {
	groups     *groupTable
	smallOrder []string
	small      map[string][]string
	failed     []FailedItem
	progress   Progress
}

// Scan walks root and returns the movies found below it. Only an invalid root
// or a cancelled context produce an error; every other problem is recorded in
// the Result and logged.
func (s *Scanner) Scan(ctx context.Context, root string) (*Result, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRoot, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrInvalidRoot, root)
	}

	st := &walkState{
		groups: newGroupTable(),
		small:  make(map[string][]string),
	}
	if err := s.walk(ctx, root, st); err != nil {
		return nil, err
	}

	res := &Result{
		Root:       root,
		Failed:     st.failed,
		Duplicates: make(map[string][]string),
	}
	res.Skipped = s.mergeSmall(st)
	s.resolveGroups(st.groups, res)
	res.Movies = s.assemble(st.groups)
	return res, nil
}

func (s *Scanner) walk(ctx context.Context, root string, st *walkState) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			if path == root {
				return fmt.Errorf("%w: %v", ErrInvalidRoot, err)
			}
			s.logger.Debug("skipping unreadable entry", "path", path, "err", err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if path == root {
				return nil
			}
			if s.ignore != nil && s.ignore.MatchString(d.Name()) {
				s.logger.Debug("ignoring directory", "path", path)
				return fs.SkipDir
			}
			if s.skipNFODir && hasNFO(path) {
				s.logger.Info("skipping organized directory", "path", path)
				return fs.SkipDir
			}
			st.progress.Dirs++
			s.report(root, path, st)
			return nil
		}

		ext := strings.ToLower(filepath.Ext(d.Name()))
		if _, ok := s.exts[ext]; !ok {
			return nil
		}
		fi, err := d.Info()
		if err == nil && d.Type()&fs.ModeSymlink != 0 {
			// Measure the video behind the link, not the link itself.
			fi, err = os.Stat(path)
		}
		if err != nil {
			s.logger.Debug("skipping unreadable file", "path", path, "err", err)
			return nil
		}
		st.progress.Videos++
		s.report(root, path, st)

		if fi.Size() < s.minSize {
			name := d.Name()
			if _, ok := st.small[name]; !ok {
				st.smallOrder = append(st.smallOrder, name)
			}
			st.small[name] = append(st.small[name], path)
			return nil
		}

		// A content id wins over the DVD id, which is usually a misread
		// when both match.
		id := s.ids.CID(path)
		if id == "" {
			id = s.ids.DVDID(path)
		}
		if id == "" {
			st.failed = append(st.failed, FailedItem{Files: []string{path}, Reason: ReasonUnrecognized})
			s.logger.Error("could not extract an identifier", "path", path)
			return nil
		}
		st.groups.add(id, path)
		return nil
	})
}

func (s *Scanner) report(root, path string, st *walkState) {
	if s.progress == nil {
		return
	}
	st.progress.Path = path
	st.progress.TopLevel = topLevel(root, path)
	s.progress(st.progress)
}

// mergeSmall folds undersized files back into groups that share their
// identifier, since the trailing slices of a title are often short. The
// remaining small files are returned sorted by name.
func (s *Scanner) mergeSmall(st *walkState) []string {
	var withID []string
	remaining := make(map[string][]string)
	for _, name := range st.smallOrder {
		id := s.ids.CID(name)
		if id == "" {
			id = s.ids.DVDID(name)
		}
		switch {
		case id != "" && st.groups.has(id):
			st.groups.add(id, st.small[name]...)
		default:
			if id != "" {
				withID = append(withID, name)
			}
			remaining[name] = st.small[name]
		}
	}

	names := make([]string, 0, len(remaining))
	for name := range remaining {
		names = append(names, name)
	}
	slices.Sort(names)
	var skipped []string
	for _, name := range names {
		paths := slices.Clone(remaining[name])
		slices.Sort(paths)
		skipped = append(skipped, paths...)
	}

	if len(skipped) > 0 {
		if len(withID) > 0 {
			s.logger.Info("skipped small video files", "count", len(skipped), "identified", strings.Join(withID, ", "))
		} else {
			s.logger.Info("skipped small video files", "count", len(skipped))
		}
		s.logger.Debug("skipped files:\n" + strings.Join(skipped, "\n"))
	}
	return skipped
}

// resolveGroups validates every multi-file group as a sliced title. Groups
// that fail are moved from the table into res.Duplicates.
func (s *Scanner) resolveGroups(groups *groupTable, res *Result) {
	kept := groups.order[:0:0]
	for _, id := range groups.order {
		files := groups.files[id]
		if len(files) == 1 {
			kept = append(kept, id)
			continue
		}
		ordered, err := ResolveSlices(files)
		if err != nil {
			var se *SliceError
			if errors.As(err, &se) && !errors.Is(err, ErrCrossDirectory) {
				s.logger.Debug("slice detection failed", "id", id, "err", err)
			}
			res.Duplicates[id] = files
			res.DuplicateOrder = append(res.DuplicateOrder, id)
			delete(groups.files, id)
			continue
		}
		groups.files[id] = ordered
		kept = append(kept, id)
	}
	groups.order = kept

	if report := res.DuplicateReport(); report != "" {
		s.logger.Error("these identifiers map to several files that are not slices of one title; fix them and scan again:\n" + report)
	}
}

// assemble turns validated groups into movie records.
func (s *Scanner) assemble(groups *groupTable) []Movie {
	movies := make([]Movie, 0, len(groups.order))
	for _, id := range groups.order {
		files := groups.files[id]
		src := s.ids.Classify(id)
		m := Movie{Files: files, Source: src, Attr: detectAttr(files[0])}
		if src != avid.SourceCID {
			m.DVDID = id
		} else {
			m.CID = id
			// Keep a DVD id so lookups can fall back when the cid was a misread.
			m.DVDID = s.ids.DVDID(files[0])
		}
		s.logger.Debug("assembled movie", "id", id, "source", src, "files", len(files))
		movies = append(movies, m)
	}
	return movies
}

// hasNFO reports whether dir directly contains an .nfo file.
func hasNFO(dir string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".nfo") {
			return true
		}
	}
	return false
}

func topLevel(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return ""
	}
	first, _, _ := strings.Cut(filepath.ToSlash(rel), "/")
	return first
}
