// Package fetch resolves document and asset paths to bytes through the cache,
// reading the local tree or issuing conditional requests against the remote source.
package fetch

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"git.home.luguber.info/inful/docmirror/internal/cache"
	"git.home.luguber.info/inful/docmirror/internal/config"
	"git.home.luguber.info/inful/docmirror/internal/docmodel"
	"git.home.luguber.info/inful/docmirror/internal/forge"
	"git.home.luguber.info/inful/docmirror/internal/logfields"
	"git.home.luguber.info/inful/docmirror/internal/metrics"
	"git.home.luguber.info/inful/docmirror/internal/retry"
)

// RawSource issues conditional reads against the remote repository.
type RawSource interface {
	FetchRaw(ctx context.Context, ref, filePath string, v forge.Validators) (*forge.RawResponse, error)
}

// Options configure a Service.
type Options struct {
	Mode       config.SourceMode
	LocalBase  string // local mode: directory containing the docs root
	Root       string // docs root; local reads outside it are rejected
	DefaultRef string
	Remote     RawSource
	Store      *cache.Store
	Retry      retry.Policy
	Recorder   metrics.Recorder
	Now        func() time.Time
}

// Service fetches documents and assets, writing through to the cache.
type Service struct {
	opts  Options
	group singleflight.Group
}

// New creates a Service.
func New(opts Options) *Service {
	if opts.Recorder == nil {
		opts.Recorder = metrics.NoopRecorder{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Retry == (retry.Policy{}) {
		opts.Retry = retry.DefaultPolicy()
	}
	if opts.Store == nil {
		opts.Store = cache.New(cache.Options{Recorder: opts.Recorder})
	}
	return &Service{opts: opts}
}

// Mode reports the configured source mode.
func (s *Service) Mode() config.SourceMode { return s.opts.Mode }

// DefaultRef returns the tracked branch used when callers pass an empty ref.
func (s *Service) DefaultRef() string { return s.opts.DefaultRef }

func (s *Service) ref(ref string) string {
	if ref == "" {
		return s.opts.DefaultRef
	}
	return ref
}

// FetchDocument returns the document at sourcePath and ref. It fails with
// ErrDocumentNotFound when the document does not exist.
func (s *Service) FetchDocument(ctx context.Context, sourcePath, ref string) (*docmodel.CachedDocument, error) {
	ref = s.ref(ref)
	key := docmodel.CacheKey(ref, sourcePath)
	v, err := s.shared(ctx, "doc:"+key, func(ctx context.Context) (any, error) {
		start := time.Now()
		defer func() { s.opts.Recorder.ObserveFetchDuration(string(s.opts.Mode), time.Since(start)) }()

		cached := s.opts.Store.GetDocument(key)
		state := CacheState{Present: cached != nil, HasValidators: cached.HasValidators()}
		switch Decide(state, s.opts.Mode) {
		case Reuse:
			s.opts.Recorder.IncFetch(string(s.opts.Mode), metrics.FetchReused)
			return cached, nil
		default:
			if s.opts.Mode == config.SourceModeLocal {
				return s.localDocument(ctx, key, sourcePath, cached)
			}
			return s.remoteDocument(ctx, key, sourcePath, ref, cached)
		}
	})
	if err != nil {
		return nil, err
	}
	return v.(*docmodel.CachedDocument), nil
}

// FetchAsset returns the asset at sourcePath and ref. It fails with
// ErrAssetNotFound when the asset does not exist.
func (s *Service) FetchAsset(ctx context.Context, sourcePath, ref string) (*docmodel.CachedAsset, error) {
	ref = s.ref(ref)
	key := docmodel.CacheKey(ref, sourcePath)
	v, err := s.shared(ctx, "asset:"+key, func(ctx context.Context) (any, error) {
		start := time.Now()
		defer func() { s.opts.Recorder.ObserveFetchDuration(string(s.opts.Mode), time.Since(start)) }()

		cached := s.opts.Store.GetAsset(key)
		state := CacheState{Present: cached != nil, HasValidators: cached.HasValidators()}
		switch Decide(state, s.opts.Mode) {
		case Reuse:
			s.opts.Recorder.IncFetch(string(s.opts.Mode), metrics.FetchReused)
			return cached, nil
		default:
			if s.opts.Mode == config.SourceModeLocal {
				return s.localAsset(ctx, key, sourcePath, cached)
			}
			return s.remoteAsset(ctx, key, sourcePath, ref, cached)
		}
	})
	if err != nil {
		return nil, err
	}
	return v.(*docmodel.CachedAsset), nil
}

// ReadDocument returns the raw Markdown body of a document.
func (s *Service) ReadDocument(ctx context.Context, sourcePath, ref string) ([]byte, error) {
	doc, err := s.FetchDocument(ctx, sourcePath, ref)
	if err != nil {
		return nil, err
	}
	return []byte(doc.Body), nil
}

// shared collapses identical concurrent fetches. The shared call is detached
// from any single caller's cancellation; each caller returns as soon as its own
// context is done.
func (s *Service) shared(ctx context.Context, key string, fn func(context.Context) (any, error)) (any, error) {
	detached := context.WithoutCancel(ctx)
	ch := s.group.DoChan(key, func() (any, error) { return fn(detached) })
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Shared {
			slog.Debug("Fetch shared with concurrent caller", logfields.Path(key))
		}
		return res.Val, res.Err
	}
}
