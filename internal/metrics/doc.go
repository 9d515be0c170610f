// Package metrics provides observability hooks for the documentation pipeline.
//
// Components receive a Recorder through their constructors and default to
// NoopRecorder, so no caller needs nil checks. The serve command swaps in a
// PrometheusRecorder when metrics are enabled and exposes it through HTTPHandler.
package metrics
