package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	cacheLookups   *prom.CounterVec
	fetches        *prom.CounterVec
	fetchDuration  *prom.HistogramVec
	fetchRetries   *prom.CounterVec
	reloadDuration *prom.HistogramVec
	catalogEntries prom.Gauge
	invalidations  *prom.CounterVec
	invalidated    *prom.CounterVec
	renderDuration prom.Histogram
}

// NewPrometheusRecorder constructs and registers the pipeline metrics on reg.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		cacheLookups: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "docmirror",
			Name:      "cache_lookups_total",
			Help:      "Cache lookups by entry kind and result",
		}, []string{"kind", "result"}),
		fetches: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "docmirror",
			Name:      "fetches_total",
			Help:      "Fetch outcomes by source mode",
		}, []string{"mode", "outcome"}),
		fetchDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "docmirror",
			Name:      "fetch_duration_seconds",
			Help:      "Duration of upstream reads",
			Buckets:   prom.DefBuckets,
		}, []string{"mode"}),
		fetchRetries: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "docmirror",
			Name:      "fetch_retries_total",
			Help:      "Upstream request retries after transient failures",
		}, []string{"mode"}),
		reloadDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "docmirror",
			Name:      "catalog_reload_duration_seconds",
			Help:      "Duration of catalog rebuilds",
			Buckets:   prom.DefBuckets,
		}, []string{"result"}),
		catalogEntries: prom.NewGauge(prom.GaugeOpts{
			Namespace: "docmirror",
			Name:      "catalog_entries",
			Help:      "Documents in the current catalog snapshot",
		}),
		invalidations: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "docmirror",
			Name:      "invalidations_total",
			Help:      "Invalidation requests by trigger source",
		}, []string{"source"}),
		invalidated: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "docmirror",
			Name:      "invalidated_entries_total",
			Help:      "Cache entries removed by invalidation",
		}, []string{"source"}),
		renderDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: "docmirror",
			Name:      "render_duration_seconds",
			Help:      "Markdown render and sanitize duration",
			Buckets:   prom.DefBuckets,
		}),
	}
	reg.MustRegister(pr.cacheLookups, pr.fetches, pr.fetchDuration, pr.fetchRetries,
		pr.reloadDuration, pr.catalogEntries, pr.invalidations, pr.invalidated, pr.renderDuration)
	return pr
}

func (p *PrometheusRecorder) IncCacheLookup(kind string, hit bool) {
	res := "miss"
	if hit {
		res = "hit"
	}
	p.cacheLookups.WithLabelValues(kind, res).Inc()
}

func (p *PrometheusRecorder) IncFetch(mode string, outcome FetchOutcome) {
	p.fetches.WithLabelValues(mode, string(outcome)).Inc()
}

func (p *PrometheusRecorder) ObserveFetchDuration(mode string, d time.Duration) {
	p.fetchDuration.WithLabelValues(mode).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncFetchRetry(mode string) {
	p.fetchRetries.WithLabelValues(mode).Inc()
}

func (p *PrometheusRecorder) ObserveCatalogReload(d time.Duration, entries int, ok bool) {
	res := "failed"
	if ok {
		res = "success"
	}
	p.reloadDuration.WithLabelValues(res).Observe(d.Seconds())
	p.catalogEntries.Set(float64(entries))
}

func (p *PrometheusRecorder) IncInvalidation(source string, removed int) {
	p.invalidations.WithLabelValues(source).Inc()
	p.invalidated.WithLabelValues(source).Add(float64(removed))
}

func (p *PrometheusRecorder) ObserveRenderDuration(d time.Duration) {
	p.renderDuration.Observe(d.Seconds())
}
