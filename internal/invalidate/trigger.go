// Package invalidate clears cached content for the tracked branch and rebuilds
// the catalog when the upstream source changes.
package invalidate

import (
	"context"
	"log/slog"
	"sync"

	"git.home.luguber.info/inful/docmirror/internal/broadcast"
	"git.home.luguber.info/inful/docmirror/internal/eventstore"
	"git.home.luguber.info/inful/docmirror/internal/forge"
	"git.home.luguber.info/inful/docmirror/internal/foundation/errors"
	"git.home.luguber.info/inful/docmirror/internal/logfields"
	"git.home.luguber.info/inful/docmirror/internal/metrics"
)

// Invalidation sources, used for metrics and the journal.
const (
	SourceWebhook   = "webhook"
	SourceWatcher   = "watcher"
	SourceSchedule  = "schedule"
	SourceManual    = "manual"
	SourceBroadcast = "broadcast"
)

// ErrInvalidSignature is returned when a webhook secret is configured and the
// payload signature does not match.
var ErrInvalidSignature = errors.AuthError("invalid webhook signature").Build()

// Cache is the subset of the cache store the trigger needs.
type Cache interface {
	InvalidatePrefix(prefix string) int
	ClearNavTree()
}

// Catalog is rebuilt after every invalidation.
type Catalog interface {
	Reload(ctx context.Context) error
}

// Journal records sync events.
type Journal interface {
	Record(ctx context.Context, eventType string, payload any) error
}

// Broadcaster announces invalidations to other replicas.
type Broadcaster interface {
	Publish(ctx context.Context, ref, prefix string) error
}

// Options configure a Trigger.
type Options struct {
	Branch      string // tracked default branch
	Root        string // docs root
	Secret      string // webhook HMAC secret; empty disables verification
	Cache       Cache
	Catalog     Catalog
	Journal     Journal
	Broadcaster Broadcaster
	Recorder    metrics.Recorder
}

// Result describes what a webhook delivery caused.
type Result struct {
	Ref         string `json:"ref"`
	Invalidated bool   `json:"invalidated"`
	Removed     int    `json:"removed"`
}

// Trigger handles push events and other invalidation sources.
type Trigger struct {
	opts Options
	// serializes invalidate+reload so concurrent pushes do not interleave
	mu sync.Mutex
}

var warnUnsignedOnce sync.Once

// New creates a Trigger.
func New(opts Options) *Trigger {
	if opts.Recorder == nil {
		opts.Recorder = metrics.NoopRecorder{}
	}
	if opts.Secret == "" {
		warnUnsignedOnce.Do(func() {
			slog.Warn("Webhook secret not configured; push payloads are accepted without signature verification")
		})
	}
	return &Trigger{opts: opts}
}

// Prefix returns the cache key prefix covering the tracked branch and root.
func (t *Trigger) Prefix() string {
	return PrefixFor(t.opts.Branch, t.opts.Root)
}

// PrefixFor returns "<ref>:<root>/", or "<ref>:" when root is empty.
func PrefixFor(ref, root string) string {
	if root == "" {
		return ref + ":"
	}
	return ref + ":" + root + "/"
}

// Handle processes a push payload. Pushes to the tracked branch invalidate the
// branch prefix, clear the navigation slot and reload the catalog before
// returning; anything else is acknowledged and ignored.
func (t *Trigger) Handle(ctx context.Context, payload []byte, signature string) (Result, error) {
	if t.opts.Secret != "" && !forge.ValidateSignature(payload, signature, t.opts.Secret) {
		t.journal(ctx, eventstore.TypeWebhookRejected, map[string]any{"reason": "signature"})
		return Result{}, ErrInvalidSignature
	}

	ev, err := forge.ParsePushEvent(payload)
	if err != nil {
		slog.Debug("Ignoring webhook without usable ref", logfields.Error(err))
		t.journal(ctx, eventstore.TypeWebhookIgnored, map[string]any{"reason": "no ref"})
		return Result{}, nil
	}

	if ev.Branch != t.opts.Branch {
		slog.Info("Ignoring push to untracked ref", logfields.Ref(ev.Ref), logfields.Event("push"))
		t.journal(ctx, eventstore.TypeWebhookIgnored, map[string]any{"ref": ev.Ref})
		return Result{Ref: ev.Ref}, nil
	}

	removed := t.Invalidate(ctx, SourceWebhook)
	return Result{Ref: ev.Ref, Invalidated: true, Removed: removed}, nil
}

// Invalidate clears the tracked branch prefix, reloads the catalog and
// announces the invalidation to other replicas. It returns the number of
// cache entries removed.
func (t *Trigger) Invalidate(ctx context.Context, source string) int {
	removed := t.apply(ctx, source, t.Prefix())
	if t.opts.Broadcaster != nil {
		if err := t.opts.Broadcaster.Publish(ctx, t.opts.Branch, t.Prefix()); err != nil {
			slog.Warn("Failed to broadcast invalidation", logfields.Error(err))
		}
	}
	return removed
}

// ApplyBroadcast applies an invalidation announced by another replica.
func (t *Trigger) ApplyBroadcast(ctx context.Context, msg broadcast.Message) {
	t.apply(ctx, SourceBroadcast, msg.Prefix)
}

func (t *Trigger) apply(ctx context.Context, source, prefix string) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	// The rebuilt snapshot outlives the request that triggered it.
	ctx = context.WithoutCancel(ctx)
	removed := t.opts.Cache.InvalidatePrefix(prefix)
	if err := t.opts.Catalog.Reload(ctx); err != nil {
		slog.Warn("Catalog reload after invalidation failed", logfields.Error(err))
	}
	t.opts.Cache.ClearNavTree()

	t.opts.Recorder.IncInvalidation(source, removed)
	slog.Info("Cache invalidated",
		slog.String("source", source),
		logfields.Prefix(prefix),
		logfields.Entries(removed))
	t.journal(ctx, eventstore.TypeCacheInvalidated, map[string]any{
		"source":  source,
		"prefix":  prefix,
		"removed": removed,
	})
	return removed
}

func (t *Trigger) journal(ctx context.Context, eventType string, payload any) {
	if t.opts.Journal == nil {
		return
	}
	if err := t.opts.Journal.Record(ctx, eventType, payload); err != nil {
		slog.Warn("Failed to journal sync event", logfields.Error(err))
	}
}
