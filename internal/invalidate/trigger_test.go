package invalidate

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docmirror/internal/broadcast"
	"git.home.luguber.info/inful/docmirror/internal/cache"
	"git.home.luguber.info/inful/docmirror/internal/catalog"
	"git.home.luguber.info/inful/docmirror/internal/docmodel"
	"git.home.luguber.info/inful/docmirror/internal/eventstore"
	"git.home.luguber.info/inful/docmirror/internal/forge"
)

type countingLister struct {
	calls atomic.Int32
	files []catalog.SourceFile
}

func (l *countingLister) List(context.Context, string) ([]catalog.SourceFile, error) {
	l.calls.Add(1)
	return l.files, nil
}

// cancellingLister cancels the caller's context while the listing runs.
type cancellingLister struct {
	cancel context.CancelFunc
	files  []catalog.SourceFile
}

func (l *cancellingLister) List(ctx context.Context, _ string) ([]catalog.SourceFile, error) {
	l.cancel()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return l.files, nil
}

type recordingBroadcaster struct{ prefixes []string }

func (b *recordingBroadcaster) Publish(_ context.Context, _, prefix string) error {
	b.prefixes = append(b.prefixes, prefix)
	return nil
}

type fixture struct {
	store   *cache.Store
	lister  *countingLister
	catalog *catalog.Catalog
	journal *eventstore.SQLiteStore
	bus     *recordingBroadcaster
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	j, err := eventstore.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })

	l := &countingLister{files: []catalog.SourceFile{{Path: "docs/intro.md"}}}
	f := &fixture{
		store:   cache.New(cache.Options{TTL: time.Hour}),
		lister:  l,
		catalog: catalog.New(catalog.Options{Lister: l, Ref: "main", Root: "docs"}),
		journal: j,
		bus:     &recordingBroadcaster{},
	}
	now := time.Now()
	f.store.PutDocument("main:docs/intro.md", docmodel.CachedDocument{FetchedAt: now})
	f.store.PutAsset("main:docs/img/a.png", docmodel.CachedAsset{FetchedAt: now})
	f.store.PutDocument("feature-x:docs/intro.md", docmodel.CachedDocument{FetchedAt: now})
	f.store.CacheNavTree(docmodel.NavTree{{Title: "Documentation"}})
	return f
}

func (f *fixture) trigger(secret string) *Trigger {
	return New(Options{
		Branch: "main", Root: "docs", Secret: secret,
		Cache: f.store, Catalog: f.catalog, Journal: f.journal, Broadcaster: f.bus,
	})
}

func TestHandle_TrackedBranchInvalidatesAndReloads(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.trigger("").Handle(ctx, []byte(`{"ref":"refs/heads/main"}`), "")
	require.NoError(t, err)
	require.True(t, res.Invalidated)
	require.Equal(t, 2, res.Removed)

	require.Nil(t, f.store.GetDocument("main:docs/intro.md"))
	require.Nil(t, f.store.GetAsset("main:docs/img/a.png"))
	require.NotNil(t, f.store.GetDocument("feature-x:docs/intro.md"))
	_, navCached := f.store.CurrentNavTree()
	require.False(t, navCached)

	require.Equal(t, int32(1), f.lister.calls.Load(), "reload runs synchronously before returning")
	require.Equal(t, []string{"intro"}, f.catalog.AllSlugs(ctx))
	require.Equal(t, int32(1), f.lister.calls.Load())
	require.Equal(t, []string{"main:docs/"}, f.bus.prefixes)

	events, err := f.journal.Recent(ctx, 5)
	require.NoError(t, err)
	require.Equal(t, eventstore.TypeCacheInvalidated, events[0].Type)
}

func TestHandle_SenderDisconnectDoesNotEmptyCatalog(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	l := &cancellingLister{cancel: cancel, files: []catalog.SourceFile{{Path: "docs/intro.md"}}}
	cat := catalog.New(catalog.Options{Lister: l, Ref: "main", Root: "docs"})
	trig := New(Options{Branch: "main", Root: "docs", Cache: cache.New(cache.Options{}), Catalog: cat})

	res, err := trig.Handle(ctx, []byte(`{"ref":"refs/heads/main"}`), "")
	require.NoError(t, err)
	require.True(t, res.Invalidated)
	require.Error(t, ctx.Err())
	require.Equal(t, []string{"intro"}, cat.AllSlugs(context.Background()))
}

func TestHandle_OtherBranchIsIgnored(t *testing.T) {
	f := newFixture(t)

	res, err := f.trigger("").Handle(context.Background(), []byte(`{"ref":"refs/heads/feature-x"}`), "")
	require.NoError(t, err)
	require.False(t, res.Invalidated)

	require.NotNil(t, f.store.GetDocument("main:docs/intro.md"))
	require.NotNil(t, f.store.GetDocument("feature-x:docs/intro.md"))
	_, navCached := f.store.CurrentNavTree()
	require.True(t, navCached)
	require.Equal(t, int32(0), f.lister.calls.Load())
	require.Empty(t, f.bus.prefixes)
}

func TestHandle_MissingRefIsAcknowledged(t *testing.T) {
	f := newFixture(t)
	res, err := f.trigger("").Handle(context.Background(), []byte(`{"zen":"ping"}`), "")
	require.NoError(t, err)
	require.False(t, res.Invalidated)
}

func TestHandle_Signature(t *testing.T) {
	f := newFixture(t)
	tr := f.trigger("s3cret")
	payload := []byte(`{"ref":"refs/heads/main"}`)

	_, err := tr.Handle(context.Background(), payload, "sha256=deadbeef")
	require.ErrorIs(t, err, ErrInvalidSignature)
	require.NotNil(t, f.store.GetDocument("main:docs/intro.md"))

	res, err := tr.Handle(context.Background(), payload, forge.Sign(payload, "s3cret"))
	require.NoError(t, err)
	require.True(t, res.Invalidated)
}

func TestApplyBroadcastDoesNotRepublish(t *testing.T) {
	f := newFixture(t)
	f.trigger("").ApplyBroadcast(context.Background(), broadcast.Message{Ref: "main", Prefix: "main:docs/", Origin: "peer"})

	require.Nil(t, f.store.GetDocument("main:docs/intro.md"))
	require.Empty(t, f.bus.prefixes)
}

func TestPrefixFor(t *testing.T) {
	require.Equal(t, "main:docs/", PrefixFor("main", "docs"))
	require.Equal(t, "main:", PrefixFor("main", ""))
}
