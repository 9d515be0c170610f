package fetch

import (
	"context"
	"errors"
	"log/slog"

	"github.com/inful/mdfp"

	"git.home.luguber.info/inful/docmirror/internal/docmodel"
	"git.home.luguber.info/inful/docmirror/internal/forge"
	derrors "git.home.luguber.info/inful/docmirror/internal/foundation/errors"
	"git.home.luguber.info/inful/docmirror/internal/logfields"
	"git.home.luguber.info/inful/docmirror/internal/metrics"
)

const modeRemote = "remote"

// fetchRaw performs the conditional request, retrying retryable failures with backoff.
func (s *Service) fetchRaw(ctx context.Context, ref, sourcePath string, v forge.Validators) (*forge.RawResponse, error) {
	if s.opts.Remote == nil {
		return nil, derrors.ConfigError("remote source not configured").Build()
	}
	var lastErr error
	for attempt := 0; attempt <= s.opts.Retry.MaxRetries; attempt++ {
		if attempt > 0 {
			s.opts.Recorder.IncFetchRetry(modeRemote)
			slog.Debug("Retrying upstream fetch",
				logfields.SourcePath(sourcePath),
				logfields.Ref(ref),
				logfields.Attempt(attempt),
				logfields.Error(lastErr))
			if err := s.opts.Retry.Wait(ctx, attempt); err != nil {
				return nil, err
			}
		}
		resp, err := s.opts.Remote.FetchRaw(ctx, ref, sourcePath, v)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !derrors.IsRetryable(err) || ctx.Err() != nil {
			break
		}
	}
	return nil, lastErr
}

// classifyRemote maps a failed fetch onto notFound or a network error.
func classifyRemote(err error, notFound *derrors.ClassifiedError, sourcePath, ref string) error {
	if derrors.HasCategory(err, derrors.CategoryNotFound) {
		return notFound.WithContext("source_path", sourcePath).WithContext("ref", ref)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if derrors.IsClassified(err) {
		return err
	}
	return derrors.NetworkError("upstream fetch failed").
		WithCause(err).
		WithContext("source_path", sourcePath).
		WithContext("ref", ref).
		Build()
}

func (s *Service) outcomeFor(err error) metrics.FetchOutcome {
	if derrors.HasCategory(err, derrors.CategoryNotFound) {
		return metrics.FetchNotFound
	}
	return metrics.FetchError
}

func (s *Service) remoteDocument(ctx context.Context, key, sourcePath, ref string, cached *docmodel.CachedDocument) (*docmodel.CachedDocument, error) {
	var v forge.Validators
	if cached != nil {
		v = forge.Validators{ETag: cached.ETag, LastModified: cached.LastModified}
	}

	resp, err := s.fetchRaw(ctx, ref, sourcePath, v)
	if err != nil {
		s.opts.Recorder.IncFetch(modeRemote, s.outcomeFor(err))
		return nil, classifyRemote(err, ErrDocumentNotFound, sourcePath, ref)
	}
	if resp.NotModified {
		if cached == nil {
			s.opts.Recorder.IncFetch(modeRemote, metrics.FetchNotFound)
			return nil, ErrDocumentNotFound.WithContext("source_path", sourcePath).WithContext("ref", ref)
		}
		s.opts.Recorder.IncFetch(modeRemote, metrics.FetchNotModified)
		return cached, nil
	}

	doc := docmodel.CachedDocument{
		SourcePath:   sourcePath,
		Body:         string(resp.Body),
		ETag:         resp.ETag,
		LastModified: resp.LastModified,
		FetchedAt:    s.opts.Now(),
		Fingerprint:  Fingerprint(resp.Body),
	}
	s.opts.Store.PutDocument(key, doc)
	s.opts.Recorder.IncFetch(modeRemote, metrics.FetchFresh)
	return &doc, nil
}

func (s *Service) remoteAsset(ctx context.Context, key, sourcePath, ref string, cached *docmodel.CachedAsset) (*docmodel.CachedAsset, error) {
	var v forge.Validators
	if cached != nil {
		v = forge.Validators{ETag: cached.ETag, LastModified: cached.LastModified}
	}

	resp, err := s.fetchRaw(ctx, ref, sourcePath, v)
	if err != nil {
		s.opts.Recorder.IncFetch(modeRemote, s.outcomeFor(err))
		return nil, classifyRemote(err, ErrAssetNotFound, sourcePath, ref)
	}
	if resp.NotModified {
		if cached == nil {
			s.opts.Recorder.IncFetch(modeRemote, metrics.FetchNotFound)
			return nil, ErrAssetNotFound.WithContext("source_path", sourcePath).WithContext("ref", ref)
		}
		s.opts.Recorder.IncFetch(modeRemote, metrics.FetchNotModified)
		return cached, nil
	}

	asset := docmodel.CachedAsset{
		SourcePath:   sourcePath,
		Bytes:        resp.Body,
		ContentType:  contentType(sourcePath, resp.ContentType, resp.Body),
		ETag:         resp.ETag,
		LastModified: resp.LastModified,
		FetchedAt:    s.opts.Now(),
		Fingerprint:  mdfp.CalculateFingerprintFromParts("", string(resp.Body)),
	}
	s.opts.Store.PutAsset(key, asset)
	s.opts.Recorder.IncFetch(modeRemote, metrics.FetchFresh)
	return &asset, nil
}
