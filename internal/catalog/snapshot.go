package catalog

import (
	"sort"
	"strings"
	"time"

	"git.home.luguber.info/inful/docmirror/internal/docmodel"
)

// Snapshot is an immutable view of the catalog. It is replaced wholesale on reload.
type Snapshot struct {
	entries    []docmodel.Entry
	bySlug     map[string]docmodel.Entry
	order      []string
	nav        docmodel.NavTree
	builtAt    time.Time
	generation uint64 // assigned when the snapshot is swapped in
}

func emptySnapshot(now time.Time) *Snapshot {
	return &Snapshot{bySlug: map[string]docmodel.Entry{}, nav: docmodel.NavTree{}, builtAt: now}
}

// newSnapshot sorts entries (root first, then by slug) and derives the indexes.
func newSnapshot(entries []docmodel.Entry, reservedPrefix string, now time.Time) *Snapshot {
	sorted := append([]docmodel.Entry(nil), entries...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].Slug, sorted[j].Slug
		if a == docmodel.RootSlug || b == docmodel.RootSlug {
			return a == docmodel.RootSlug && b != docmodel.RootSlug
		}
		return a < b
	})

	s := &Snapshot{
		entries: sorted,
		bySlug:  make(map[string]docmodel.Entry, len(sorted)),
		order:   make([]string, 0, len(sorted)),
		builtAt: now,
	}
	for _, e := range sorted {
		s.bySlug[e.Slug] = e
		s.order = append(s.order, e.Slug)
	}
	s.nav = buildNavTree(sorted, reservedPrefix)
	return s
}

// Entries returns the ordered entries. Callers must not modify the slice.
func (s *Snapshot) Entries() []docmodel.Entry { return s.entries }

// BuiltAt reports when the snapshot was built.
func (s *Snapshot) BuiltAt() time.Time { return s.builtAt }

// Generation returns the reload generation that produced the snapshot.
func (s *Snapshot) Generation() uint64 { return s.generation }

// Len returns the number of documents.
func (s *Snapshot) Len() int { return len(s.entries) }

func (s *Snapshot) find(slug string) (docmodel.Entry, bool) {
	e, ok := s.bySlug[slug]
	return e, ok
}

func (s *Snapshot) firstStartingWith(prefix string) (docmodel.Entry, bool) {
	for _, e := range s.entries {
		if strings.HasPrefix(e.Slug, prefix) {
			return e, true
		}
	}
	return docmodel.Entry{}, false
}

func (s *Snapshot) neighbors(slug string) docmodel.NeighborLinks {
	var links docmodel.NeighborLinks
	for i, candidate := range s.order {
		if candidate != slug {
			continue
		}
		if i > 0 {
			prev := s.bySlug[s.order[i-1]]
			links.Previous = &docmodel.NavLink{Title: prev.Title, Path: prev.Slug}
		}
		if i+1 < len(s.order) {
			next := s.bySlug[s.order[i+1]]
			links.Next = &docmodel.NavLink{Title: next.Title, Path: next.Slug}
		}
		break
	}
	return links
}
