// Package subtitle locates external subtitle files that belong to a title.
package subtitle

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/Digital-Shane/title-sieve/internal/avid"
	"github.com/Digital-Shane/treeview"
	"github.com/patrickmn/go-cache"
)

// Extensions are the subtitle formats the finder recognizes.
var Extensions = []string{".srt", ".ass"}

const defaultMaxDepth = 16

type treeBuilderFunc func(context.Context, string, bool, ...treeview.Option[treeview.FileInfo]) (*treeview.Tree[treeview.FileInfo], error)

var subtitleTreeBuilder treeBuilderFunc = treeview.NewTreeFromFileSystem

// Index maps upper-case DVD ids to subtitle paths found below one directory.
type Index map[string]string

// Finder indexes subtitle files per directory and answers lookups by DVD id.
// Each directory is walked once; the index is kept until Invalidate or Flush
// drops it, so callers that add or remove subtitles must invalidate.
type Finder struct {
	cache    *cache.Cache
	ids      func(path string) string
	maxDepth int
}

// Option configures a Finder.
type Option func(*Finder)

// WithIDFunc sets the function that extracts a DVD id from a subtitle path.
func WithIDFunc(fn func(path string) string) Option {
	return func(f *Finder) { f.ids = fn }
}

// WithMaxDepth limits how deep below a directory subtitles are searched.
func WithMaxDepth(depth int) Option {
	return func(f *Finder) { f.maxDepth = depth }
}

// NewFinder creates a Finder with an empty cache.
func NewFinder(opts ...Option) *Finder {
	f := &Finder{
		cache:    cache.New(cache.NoExpiration, 0),
		ids:      avid.DVDID,
		maxDepth: defaultMaxDepth,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Find returns the subtitle below dir whose name carries dvdid.
func (f *Finder) Find(ctx context.Context, dir, dvdid string) (string, bool, error) {
	if dvdid == "" {
		return "", false, nil
	}
	idx, err := f.Index(ctx, dir)
	if err != nil {
		return "", false, err
	}
	path, ok := idx[strings.ToUpper(dvdid)]
	return path, ok, nil
}

// Index returns the subtitle index of dir, walking it on first use.
func (f *Finder) Index(ctx context.Context, dir string) (Index, error) {
	key := cacheKey(dir)
	if cached, ok := f.cache.Get(key); ok {
		return cached.(Index), nil
	}

	t, err := subtitleTreeBuilder(ctx, dir, false,
		treeview.WithMaxDepth[treeview.FileInfo](f.maxDepth),
		treeview.WithFilterFunc(func(fi treeview.FileInfo) bool {
			return fi.IsDir() || IsSubtitle(fi.Name())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("index subtitles in %s: %w", dir, err)
	}

	idx := make(Index)
	for info, err := range t.All(ctx) {
		if err != nil {
			return nil, err
		}
		data := info.Node.Data()
		if data.IsDir() || !IsSubtitle(data.Name()) {
			continue
		}
		id := strings.ToUpper(f.ids(data.Path))
		if id == "" {
			continue
		}
		// First file wins when several subtitles carry the same id.
		if _, ok := idx[id]; !ok {
			idx[id] = data.Path
		}
	}
	f.cache.Set(key, idx, cache.NoExpiration)
	return idx, nil
}

// Invalidate drops the cached index of dir.
func (f *Finder) Invalidate(dir string) {
	f.cache.Delete(cacheKey(dir))
}

// Flush drops every cached index.
func (f *Finder) Flush() {
	f.cache.Flush()
}

// Cached reports how many directory indexes are held.
func (f *Finder) Cached() int {
	return f.cache.ItemCount()
}

// IsSubtitle reports whether name has a recognized subtitle extension.
func IsSubtitle(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return slices.Contains(Extensions, ext)
}

func cacheKey(dir string) string {
	if abs, err := filepath.Abs(dir); err == nil {
		return abs
	}
	return filepath.Clean(dir)
}
