package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docmirror/internal/cache"
	"git.home.luguber.info/inful/docmirror/internal/catalog"
	"git.home.luguber.info/inful/docmirror/internal/eventstore"
	"git.home.luguber.info/inful/docmirror/internal/server/responses"
)

type countingReloader struct{ calls atomic.Int32 }

func (r *countingReloader) Invalidate(context.Context, string) int {
	r.calls.Add(1)
	return 3
}

func newAdminFixture(t *testing.T) (*AdminHandlers, *countingReloader) {
	t.Helper()
	base := writeTree(t, map[string]string{"docs/a.md": "# A\n", "docs/b.md": "# B\n"})
	journal, err := eventstore.NewSQLiteStore("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = journal.Close() })

	cat := catalog.New(catalog.Options{
		Lister:  catalog.LocalLister{Base: base, Root: "docs"},
		Ref:     "main",
		Root:    "docs",
		Journal: journal,
	})
	reloader := &countingReloader{}
	return NewAdminHandlers(AdminOptions{
		Mode:       "local",
		DefaultRef: "main",
		Catalog:    cat,
		Cache:      cache.New(cache.Options{TTL: time.Minute}),
		Journal:    journal,
		Reloader:   reloader,
	}), reloader
}

func TestHandleStatus(t *testing.T) {
	h, _ := newAdminFixture(t)

	rec := httptest.NewRecorder()
	h.HandleStatus(rec, httptest.NewRequest(http.MethodGet, "/__status", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var status responses.StatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	require.Equal(t, "ok", status.Status)
	require.Equal(t, 2, status.CatalogSize)
	require.Equal(t, "main", status.DefaultRef)
	require.NotEmpty(t, status.RecentEvents)
	require.Equal(t, catalog.EventCatalogReloaded, status.RecentEvents[0].Type)
}

func TestHandleHealth(t *testing.T) {
	h, _ := newAdminFixture(t)

	rec := httptest.NewRecorder()
	h.HandleHealth(rec, httptest.NewRequest(http.MethodGet, "/healthz?pretty=1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "\n  \"status\": \"healthy\"")
}

func TestHandleReload(t *testing.T) {
	h, reloader := newAdminFixture(t)

	rec := httptest.NewRecorder()
	h.HandleReload(rec, httptest.NewRequest(http.MethodGet, "/__reload", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, int32(0), reloader.calls.Load())

	rec = httptest.NewRecorder()
	h.HandleReload(rec, httptest.NewRequest(http.MethodPost, "/__reload", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"reloaded","removed":3}`, rec.Body.String())
	require.Equal(t, int32(1), reloader.calls.Load())
}
