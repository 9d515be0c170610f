package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"git.home.luguber.info/inful/docmirror/internal/cache"
	"git.home.luguber.info/inful/docmirror/internal/catalog"
	"git.home.luguber.info/inful/docmirror/internal/eventstore"
	"git.home.luguber.info/inful/docmirror/internal/foundation/errors"
	"git.home.luguber.info/inful/docmirror/internal/invalidate"
	"git.home.luguber.info/inful/docmirror/internal/logfields"
	"git.home.luguber.info/inful/docmirror/internal/server/responses"
	"git.home.luguber.info/inful/docmirror/internal/version"
)

// recentEventLimit bounds the journal entries included in /__status.
const recentEventLimit = 20

// SnapshotSource exposes the current catalog snapshot.
type SnapshotSource interface {
	Snapshot(ctx context.Context) *catalog.Snapshot
}

// StatsSource reports cache statistics.
type StatsSource interface {
	Stats() cache.Stats
}

// EventSource lists recent journal entries.
type EventSource interface {
	Recent(ctx context.Context, limit int) ([]eventstore.Event, error)
}

// Reloader invalidates the tracked branch and rebuilds the catalog.
type Reloader interface {
	Invalidate(ctx context.Context, source string) int
}

// AdminOptions configure AdminHandlers.
type AdminOptions struct {
	Mode       string
	DefaultRef string
	Catalog    SnapshotSource
	Cache      StatsSource
	Journal    EventSource // optional
	Reloader   Reloader
	StartTime  time.Time
}

// AdminHandlers serve status, health and manual reload endpoints.
type AdminHandlers struct {
	opts         AdminOptions
	errorAdapter *errors.HTTPErrorAdapter
}

// NewAdminHandlers creates the admin handlers.
func NewAdminHandlers(opts AdminOptions) *AdminHandlers {
	if opts.StartTime.IsZero() {
		opts.StartTime = time.Now()
	}
	return &AdminHandlers{opts: opts, errorAdapter: errors.NewHTTPErrorAdapter(slog.Default())}
}

// HandleHealth reports liveness.
func (h *AdminHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.errorAdapter.WriteErrorResponse(w, r, methodNotAllowed(r, http.MethodGet))
		return
	}
	health := responses.HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Version:   version.Version,
		Uptime:    time.Since(h.opts.StartTime).Seconds(),
	}
	if err := writeJSONPretty(w, r, http.StatusOK, health); err != nil {
		h.errorAdapter.WriteErrorResponse(w, r,
			errors.WrapError(err, errors.CategoryInternal, "failed to write health response").Build())
	}
}

// HandleStatus reports catalog size, cache statistics and recent sync events.
func (h *AdminHandlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.errorAdapter.WriteErrorResponse(w, r, methodNotAllowed(r, http.MethodGet))
		return
	}
	ctx := r.Context()
	snap := h.opts.Catalog.Snapshot(ctx)

	status := responses.StatusResponse{
		Status:       "ok",
		Timestamp:    time.Now().UTC(),
		Mode:         h.opts.Mode,
		DefaultRef:   h.opts.DefaultRef,
		CatalogSize:  snap.Len(),
		CatalogBuilt: snap.BuiltAt().UTC(),
		Cache:        h.opts.Cache.Stats(),
		RecentEvents: []eventstore.Event{},
	}
	if h.opts.Journal != nil {
		events, err := h.opts.Journal.Recent(ctx, recentEventLimit)
		if err != nil {
			slog.Warn("Failed to read sync journal", logfields.Error(err))
		} else if events != nil {
			status.RecentEvents = events
		}
	}

	if err := writeJSONPretty(w, r, http.StatusOK, status); err != nil {
		h.errorAdapter.WriteErrorResponse(w, r,
			errors.WrapError(err, errors.CategoryInternal, "failed to write status response").Build())
	}
}

// HandleReload invalidates the tracked branch and rebuilds the catalog.
func (h *AdminHandlers) HandleReload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.errorAdapter.WriteErrorResponse(w, r, methodNotAllowed(r, http.MethodPost))
		return
	}
	removed := h.opts.Reloader.Invalidate(r.Context(), invalidate.SourceManual)
	if err := writeJSON(w, http.StatusOK, responses.ReloadResponse{Status: "reloaded", Removed: removed}); err != nil {
		h.errorAdapter.WriteErrorResponse(w, r,
			errors.WrapError(err, errors.CategoryInternal, "failed to write reload response").Build())
	}
}
