// Package catalog builds the immutable index of documentation pages and their
// navigation tree from a local directory or a remote repository tree.
package catalog

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/docmirror/internal/docmodel"
	"git.home.luguber.info/inful/docmirror/internal/logfields"
	"git.home.luguber.info/inful/docmirror/internal/metrics"
)

// EventCatalogReloaded is the journal event type written after every reload.
const EventCatalogReloaded = "catalog.reloaded"

// Journal records sync events.
type Journal interface {
	Record(ctx context.Context, eventType string, payload any) error
}

// Options configure a Catalog.
type Options struct {
	Lister         Lister
	Ref            string // tracked default branch
	Root           string // docs root, e.g. "docs"
	RootDocument   string // extra root page name, e.g. "overview"
	ReservedPrefix string // e.g. "api-reference"
	Recorder       metrics.Recorder
	Journal        Journal
	// TitleConcurrency bounds parallel content reads for titles.
	TitleConcurrency int
}

// Catalog serves lookups from the current Snapshot. Readers never block; reloads
// are serialized and swap the snapshot atomically.
type Catalog struct {
	opts       Options
	snap       atomic.Pointer[Snapshot]
	mu         sync.Mutex
	generation uint64 // guarded by mu
}

// New creates a Catalog. The first snapshot is built lazily on first use.
func New(opts Options) *Catalog {
	if opts.Recorder == nil {
		opts.Recorder = metrics.NoopRecorder{}
	}
	if opts.TitleConcurrency <= 0 {
		opts.TitleConcurrency = 8
	}
	return &Catalog{opts: opts}
}

// Root returns the configured docs root.
func (c *Catalog) Root() string { return c.opts.Root }

// Reload rebuilds the snapshot from the source and swaps it in. On listing
// failure the new snapshot is empty and the error is returned for reporting only.
func (c *Catalog) Reload(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reloadLocked(ctx)
}

func (c *Catalog) reloadLocked(ctx context.Context) error {
	start := time.Now()
	snap, err := c.build(ctx)
	if err != nil {
		slog.Warn("Catalog reload failed; serving empty catalog",
			logfields.Ref(c.opts.Ref),
			logfields.Error(err))
		snap = emptySnapshot(time.Now())
	}
	c.generation++
	snap.generation = c.generation
	c.snap.Store(snap)

	elapsed := time.Since(start)
	c.opts.Recorder.ObserveCatalogReload(elapsed, snap.Len(), err == nil)
	slog.Info("Catalog reloaded",
		logfields.Ref(c.opts.Ref),
		logfields.Entries(snap.Len()),
		logfields.DurationMS(float64(elapsed.Milliseconds())))

	if c.opts.Journal != nil {
		payload := map[string]any{"ref": c.opts.Ref, "entries": snap.Len(), "duration_ms": elapsed.Milliseconds()}
		if err != nil {
			payload["error"] = err.Error()
		}
		if jerr := c.opts.Journal.Record(ctx, EventCatalogReloaded, payload); jerr != nil {
			slog.Warn("Failed to journal catalog reload", logfields.Error(jerr))
		}
	}
	return err
}

func (c *Catalog) build(ctx context.Context) (*Snapshot, error) {
	files, err := c.opts.Lister.List(ctx, c.opts.Ref)
	if err != nil {
		return nil, err
	}

	type candidate struct {
		entry docmodel.Entry
		file  SourceFile
	}
	seen := make(map[string]struct{}, len(files))
	candidates := make([]candidate, 0, len(files))
	for _, f := range files {
		slug, ok := DeriveSlug(f.Path, c.opts.Root, c.opts.RootDocument)
		if !ok {
			continue
		}
		if _, dup := seen[slug]; dup {
			slog.Debug("Duplicate slug dropped", logfields.Slug(slug), logfields.SourcePath(f.Path))
			continue
		}
		seen[slug] = struct{}{}
		candidates = append(candidates, candidate{entry: docmodel.Entry{Slug: slug, SourcePath: f.Path}, file: f})
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.TitleConcurrency)
	for i := range candidates {
		cand := &candidates[i]
		g.Go(func() error {
			if cand.file.Read != nil {
				content, rerr := cand.file.Read(gctx)
				if rerr != nil {
					slog.Debug("Title read failed; using path title",
						logfields.SourcePath(cand.entry.SourcePath), logfields.Error(rerr))
				} else {
					cand.entry.Title = TitleFromContent(content)
				}
			}
			if cand.entry.Title == "" {
				cand.entry.Title = fallbackTitle(cand.entry.Slug)
			}
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries := make([]docmodel.Entry, len(candidates))
	for i, cand := range candidates {
		entries[i] = cand.entry
	}
	return newSnapshot(entries, c.opts.ReservedPrefix, time.Now()), nil
}

// Snapshot returns the current snapshot, building the first one if needed.
// The first build is detached from ctx cancellation since every reader shares it.
func (c *Catalog) Snapshot(ctx context.Context) *Snapshot {
	if s := c.snap.Load(); s != nil {
		return s
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if s := c.snap.Load(); s != nil {
		return s
	}
	_ = c.reloadLocked(context.WithoutCancel(ctx))
	return c.snap.Load()
}

// Find looks up an entry by slug.
func (c *Catalog) Find(ctx context.Context, slug string) (docmodel.Entry, bool) {
	return c.Snapshot(ctx).find(slug)
}

// FirstEntryStartingWith returns the first entry in catalog order whose slug has prefix.
func (c *Catalog) FirstEntryStartingWith(ctx context.Context, prefix string) (docmodel.Entry, bool) {
	return c.Snapshot(ctx).firstStartingWith(prefix)
}

// NavTree returns the navigation tree of the current snapshot.
func (c *Catalog) NavTree(ctx context.Context) docmodel.NavTree {
	return c.Snapshot(ctx).nav
}

// Navigation returns the navigation tree together with the generation of the
// snapshot it was built from.
func (c *Catalog) Navigation(ctx context.Context) (docmodel.NavTree, uint64) {
	s := c.Snapshot(ctx)
	return s.nav, s.generation
}

// Generation returns the generation of the current snapshot. It increases on
// every reload.
func (c *Catalog) Generation(ctx context.Context) uint64 {
	return c.Snapshot(ctx).generation
}

// Neighbors returns the previous and next documents around slug.
func (c *Catalog) Neighbors(ctx context.Context, slug string) docmodel.NeighborLinks {
	return c.Snapshot(ctx).neighbors(slug)
}

// AllSlugs returns every slug in catalog order.
func (c *Catalog) AllSlugs(ctx context.Context) []string {
	return append([]string(nil), c.Snapshot(ctx).order...)
}
