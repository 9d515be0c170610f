package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)

	pr.IncCacheLookup("document", true)
	pr.IncCacheLookup("document", false)
	pr.IncCacheLookup("document", false)
	pr.IncFetch("remote", FetchNotModified)
	pr.ObserveFetchDuration("remote", 20*time.Millisecond)
	pr.IncFetchRetry("remote")
	pr.ObserveCatalogReload(150*time.Millisecond, 12, true)
	pr.IncInvalidation("webhook", 4)
	pr.ObserveRenderDuration(time.Millisecond)

	require.Equal(t, 2.0, testutil.ToFloat64(pr.cacheLookups.WithLabelValues("document", "miss")))
	require.Equal(t, 12.0, testutil.ToFloat64(pr.catalogEntries))
	require.Equal(t, 4.0, testutil.ToFloat64(pr.invalidated.WithLabelValues("webhook")))

	mfs, err := reg.Gather()
	require.NoError(t, err)
	require.NotEmpty(t, mfs)
}

func TestHTTPHandlerServesRegistry(t *testing.T) {
	reg := prom.NewRegistry()
	NewPrometheusRecorder(reg).IncFetch("local", FetchFresh)

	srv := httptest.NewServer(HTTPHandler(reg))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.True(t, strings.Contains(string(body), "docmirror_fetches_total"))
}

func TestNoopRecorderSatisfiesInterface(t *testing.T) {
	var r Recorder = NoopRecorder{}
	r.IncCacheLookup("asset", true)
	r.ObserveCatalogReload(time.Second, 0, false)
}
