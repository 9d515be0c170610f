// Package cache holds fetched documents and assets keyed by "<ref>:<sourcePath>",
// plus the single-slot cached navigation tree.
package cache

import (
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"git.home.luguber.info/inful/docmirror/internal/docmodel"
	"git.home.luguber.info/inful/docmirror/internal/logfields"
	"git.home.luguber.info/inful/docmirror/internal/metrics"
)

const (
	kindDocument = "document"
	kindAsset    = "asset"
)

// Options configure a Store.
type Options struct {
	TTL        time.Duration
	MaxEntries int
	Recorder   metrics.Recorder
	// Now overrides the clock used for FetchedAt expiry checks.
	Now func() time.Time
}

// Stats is a point-in-time view of the store.
type Stats struct {
	Documents int    `json:"documents"`
	Assets    int    `json:"assets"`
	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	NavCached bool   `json:"nav_cached"`
}

// Store is a TTL and capacity bounded cache safe for concurrent use.
type Store struct {
	docs   *expirable.LRU[string, docmodel.CachedDocument]
	assets *expirable.LRU[string, docmodel.CachedAsset]
	nav    atomic.Pointer[navSlot]

	ttl      time.Duration
	now      func() time.Time
	recorder metrics.Recorder

	hits   atomic.Uint64
	misses atomic.Uint64
}

// New creates a Store. Non-positive TTL or capacity fall back to 5 minutes and 500 entries.
func New(opts Options) *Store {
	if opts.TTL <= 0 {
		opts.TTL = 5 * time.Minute
	}
	if opts.MaxEntries <= 0 {
		opts.MaxEntries = 500
	}
	if opts.Recorder == nil {
		opts.Recorder = metrics.NoopRecorder{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Store{
		docs:     expirable.NewLRU[string, docmodel.CachedDocument](opts.MaxEntries, nil, opts.TTL),
		assets:   expirable.NewLRU[string, docmodel.CachedAsset](opts.MaxEntries, nil, opts.TTL),
		ttl:      opts.TTL,
		now:      opts.Now,
		recorder: opts.Recorder,
	}
}

// TTL returns the configured entry lifetime.
func (s *Store) TTL() time.Duration { return s.ttl }

func (s *Store) expired(fetchedAt time.Time) bool {
	return s.now().Sub(fetchedAt) >= s.ttl
}

func (s *Store) record(kind string, hit bool) {
	if hit {
		s.hits.Add(1)
	} else {
		s.misses.Add(1)
	}
	s.recorder.IncCacheLookup(kind, hit)
}

// GetDocument returns a copy of the cached document for key, or nil when absent or expired.
func (s *Store) GetDocument(key string) *docmodel.CachedDocument {
	doc, ok := s.docs.Get(key)
	if ok && s.expired(doc.FetchedAt) {
		s.docs.Remove(key)
		ok = false
	}
	s.record(kindDocument, ok)
	if !ok {
		return nil
	}
	return &doc
}

// PutDocument stores doc under key, replacing any previous entry.
func (s *Store) PutDocument(key string, doc docmodel.CachedDocument) {
	s.docs.Add(key, doc)
}

// GetAsset returns a copy of the cached asset for key, or nil when absent or expired.
func (s *Store) GetAsset(key string) *docmodel.CachedAsset {
	asset, ok := s.assets.Get(key)
	if ok && s.expired(asset.FetchedAt) {
		s.assets.Remove(key)
		ok = false
	}
	s.record(kindAsset, ok)
	if !ok {
		return nil
	}
	return &asset
}

// PutAsset stores asset under key, replacing any previous entry.
func (s *Store) PutAsset(key string, asset docmodel.CachedAsset) {
	s.assets.Add(key, asset)
}

// InvalidatePrefix removes every document and asset whose key starts with prefix
// and returns the number removed.
func (s *Store) InvalidatePrefix(prefix string) int {
	removed := 0
	for _, k := range s.docs.Keys() {
		if strings.HasPrefix(k, prefix) && s.docs.Remove(k) {
			removed++
		}
	}
	for _, k := range s.assets.Keys() {
		if strings.HasPrefix(k, prefix) && s.assets.Remove(k) {
			removed++
		}
	}
	slog.Debug("Cache prefix invalidated", logfields.Prefix(prefix), logfields.Entries(removed))
	return removed
}

// InvalidateAll empties both caches and the navigation slot.
func (s *Store) InvalidateAll() {
	s.docs.Purge()
	s.assets.Purge()
	s.ClearNavTree()
}

// navSlot pairs a navigation tree with the catalog generation it came from.
type navSlot struct {
	tree       docmodel.NavTree
	generation uint64
}

// CacheNavTree stores tree in the navigation slot.
func (s *Store) CacheNavTree(tree docmodel.NavTree) {
	s.nav.Store(&navSlot{tree: tree})
}

// CurrentNavTree returns the cached navigation tree.
func (s *Store) CurrentNavTree() (docmodel.NavTree, bool) {
	p := s.nav.Load()
	if p == nil {
		return nil, false
	}
	return p.tree, true
}

// CacheNavTreeAt stores tree built from catalog generation.
func (s *Store) CacheNavTreeAt(generation uint64, tree docmodel.NavTree) {
	s.nav.Store(&navSlot{tree: tree, generation: generation})
}

// NavTreeAt returns the cached tree only when it was built from generation.
// A tree from any other generation counts as a miss.
func (s *Store) NavTreeAt(generation uint64) (docmodel.NavTree, bool) {
	p := s.nav.Load()
	if p == nil || p.generation != generation {
		return nil, false
	}
	return p.tree, true
}

// ClearNavTree empties the navigation slot.
func (s *Store) ClearNavTree() {
	s.nav.Store(nil)
}

// Stats reports entry counts and lookup counters.
func (s *Store) Stats() Stats {
	return Stats{
		Documents: s.docs.Len(),
		Assets:    s.assets.Len(),
		Hits:      s.hits.Load(),
		Misses:    s.misses.Load(),
		NavCached: s.nav.Load() != nil,
	}
}
