package handlers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docmirror/internal/cache"
	"git.home.luguber.info/inful/docmirror/internal/catalog"
	"git.home.luguber.info/inful/docmirror/internal/docmodel"
	"git.home.luguber.info/inful/docmirror/internal/forge"
	"git.home.luguber.info/inful/docmirror/internal/invalidate"
)

func newWebhookFixture(t *testing.T, secret string) (*WebhookHandlers, *cache.Store, *catalog.Catalog, string) {
	t.Helper()
	base := writeTree(t, map[string]string{"docs/intro.md": "# Intro\n"})
	store := cache.New(cache.Options{TTL: time.Hour})
	cat := catalog.New(catalog.Options{Lister: catalog.LocalLister{Base: base, Root: "docs"}, Ref: "main", Root: "docs"})
	trigger := invalidate.New(invalidate.Options{
		Branch: "main", Root: "docs", Secret: secret,
		Cache: store, Catalog: cat,
	})
	now := time.Now()
	store.PutDocument("main:docs/intro.md", docmodel.CachedDocument{FetchedAt: now})
	store.PutDocument("feature-x:docs/intro.md", docmodel.CachedDocument{FetchedAt: now})
	return NewWebhookHandlers(trigger), store, cat, base
}

func postPush(h *WebhookHandlers, body []byte, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/__hooks/github", bytes.NewReader(body))
	req.Header.Set("X-GitHub-Event", "push")
	if signature != "" {
		req.Header.Set(forge.SignatureHeader, signature)
	}
	rec := httptest.NewRecorder()
	h.HandlePush(rec, req)
	return rec
}

func TestHandlePush_TrackedBranch(t *testing.T) {
	h, store, cat, base := newWebhookFixture(t, "")
	ctx := context.Background()
	require.Equal(t, []string{"intro"}, cat.AllSlugs(ctx))

	writeFile(t, base, "docs/added.md", "# Added\n")

	rec := postPush(h, []byte(`{"ref":"refs/heads/main"}`), "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	require.Nil(t, store.GetDocument("main:docs/intro.md"))
	require.NotNil(t, store.GetDocument("feature-x:docs/intro.md"))
	require.Equal(t, []string{"added", "intro"}, cat.AllSlugs(ctx), "next lookup sees the rebuilt snapshot")
}

func TestHandlePush_OtherBranchLeavesCache(t *testing.T) {
	h, store, _, _ := newWebhookFixture(t, "")

	rec := postPush(h, []byte(`{"ref":"refs/heads/feature-x"}`), "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	require.NotNil(t, store.GetDocument("main:docs/intro.md"))
	require.NotNil(t, store.GetDocument("feature-x:docs/intro.md"))
}

func TestHandlePush_GarbageIsAcknowledged(t *testing.T) {
	h, store, _, _ := newWebhookFixture(t, "")

	rec := postPush(h, []byte(`not json`), "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, store.GetDocument("main:docs/intro.md"))
}

func TestHandlePush_Signature(t *testing.T) {
	h, store, _, _ := newWebhookFixture(t, "topsecret")
	payload := []byte(`{"ref":"refs/heads/main"}`)

	rec := postPush(h, payload, "sha256=0000")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.NotNil(t, store.GetDocument("main:docs/intro.md"))

	rec = postPush(h, payload, forge.Sign(payload, "topsecret"))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Nil(t, store.GetDocument("main:docs/intro.md"))
}

func TestHandlePush_RejectsGet(t *testing.T) {
	h, _, _, _ := newWebhookFixture(t, "")
	rec := httptest.NewRecorder()
	h.HandlePush(rec, httptest.NewRequest(http.MethodGet, "/__hooks/github", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
