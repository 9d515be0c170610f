package metrics

import "time"

// FetchOutcome enumerates results of a fetch against the upstream source.
type FetchOutcome string

const (
	FetchFresh       FetchOutcome = "fresh"        // new content stored
	FetchNotModified FetchOutcome = "not_modified" // upstream 304 or unchanged local content
	FetchReused      FetchOutcome = "reused"       // served from cache without upstream contact
	FetchNotFound    FetchOutcome = "not_found"
	FetchError       FetchOutcome = "error"
)

// Recorder defines observability hooks for cache, fetch, catalog and invalidation events.
type Recorder interface {
	IncCacheLookup(kind string, hit bool)
	IncFetch(mode string, outcome FetchOutcome)
	ObserveFetchDuration(mode string, d time.Duration)
	IncFetchRetry(mode string)
	ObserveCatalogReload(d time.Duration, entries int, ok bool)
	IncInvalidation(source string, removed int)
	ObserveRenderDuration(d time.Duration)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) IncCacheLookup(string, bool)                  {}
func (NoopRecorder) IncFetch(string, FetchOutcome)                {}
func (NoopRecorder) ObserveFetchDuration(string, time.Duration)   {}
func (NoopRecorder) IncFetchRetry(string)                         {}
func (NoopRecorder) ObserveCatalogReload(time.Duration, int, bool) {}
func (NoopRecorder) IncInvalidation(string, int)                  {}
func (NoopRecorder) ObserveRenderDuration(time.Duration)          {}
