package forge

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docmirror/internal/foundation/errors"
)

func newTestClient(t *testing.T, srv *httptest.Server) *GitHubClient {
	t.Helper()
	c, err := NewGitHubClient(Options{
		Owner:             "acme",
		Repo:              "handbook",
		APIURL:            srv.URL + "/api",
		RawContentBaseURL: srv.URL + "/raw",
		Token:             "tok",
		HTTPClient:        srv.Client(),
	})
	require.NoError(t, err)
	return c
}

func TestNewGitHubClient_RequiresRepository(t *testing.T) {
	_, err := NewGitHubClient(Options{Owner: "acme"})
	require.Error(t, err)
	require.True(t, errors.HasCategory(err, errors.CategoryConfig))
}

func TestListTree(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/repos/acme/handbook/git/trees/main", r.URL.Path)
		assert.Equal(t, "1", r.URL.Query().Get("recursive"))
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"sha":"abc","truncated":false,"tree":[
			{"path":"docs","type":"tree"},
			{"path":"docs/intro.md","type":"blob","size":12}]}`))
	}))
	defer srv.Close()

	entries, truncated, err := newTestClient(t, srv).ListTree(context.Background(), "main")
	require.NoError(t, err)
	require.False(t, truncated)
	require.Len(t, entries, 2)
	require.Equal(t, "docs/intro.md", entries[1].Path)
	require.Equal(t, "blob", entries[1].Type)
}

func TestListTree_NotFoundIsClassified(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, _, err := newTestClient(t, srv).ListTree(context.Background(), "nope")
	require.Error(t, err)
	require.True(t, errors.HasCategory(err, errors.CategoryNotFound))
	require.False(t, errors.IsRetryable(err))
}

func TestFetchRaw_ConditionalHeaders(t *testing.T) {
	lm := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/raw/acme/handbook/main/docs/intro.md", r.URL.Path)
		if r.Header.Get("If-None-Match") == `"v1"` {
			assert.Equal(t, lm.Format(http.TimeFormat), r.Header.Get("If-Modified-Since"))
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		w.Header().Set("Last-Modified", lm.Format(http.TimeFormat))
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("# Intro\n"))
	}))
	defer srv.Close()
	c := newTestClient(t, srv)

	first, err := c.FetchRaw(context.Background(), "main", "docs/intro.md", Validators{})
	require.NoError(t, err)
	require.False(t, first.NotModified)
	require.Equal(t, "# Intro\n", string(first.Body))
	require.Equal(t, `"v1"`, first.ETag)
	require.True(t, first.LastModified.Equal(lm))

	second, err := c.FetchRaw(context.Background(), "main", "docs/intro.md", Validators{ETag: first.ETag, LastModified: first.LastModified})
	require.NoError(t, err)
	require.True(t, second.NotModified)
	require.Empty(t, second.Body)
}

func TestFetchRaw_ServerErrorIsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv).FetchRaw(context.Background(), "main", "docs/a.md", Validators{})
	require.Error(t, err)
	require.True(t, errors.HasCategory(err, errors.CategoryNetwork))
	require.True(t, errors.IsRetryable(err))
}

func TestRawURL(t *testing.T) {
	c, err := NewGitHubClient(Options{Owner: "acme", Repo: "handbook"})
	require.NoError(t, err)
	require.Equal(t, "https://raw.githubusercontent.com/acme/handbook/v2/docs/a.md", c.RawURL("v2", "/docs/a.md"))
	require.Equal(t, "acme/handbook", c.FullName())
}
