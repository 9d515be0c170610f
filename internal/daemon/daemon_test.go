package daemon

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docmirror/internal/config"
)

func localConfig(t *testing.T) (*config.Config, string) {
	t.Helper()
	base := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(base, "docs", "guides"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(base, "docs", "README.md"), []byte("# Home\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(base, "docs", "guides", "setup.md"), []byte("# Setup\n"), 0o644))

	var cfg config.Config
	cfg.Source.LocalPath = base
	cfg.HTTP.Addr = "127.0.0.1:0"
	cfg.Metrics.Enabled = true
	cfg.Watch.Enabled = true
	cfg.Watch.Debounce = "50ms"
	cfg.Schedule.ReloadInterval = "1h"
	config.ApplyDefaults(&cfg)
	require.NoError(t, config.Validate(&cfg))
	return &cfg, base
}

func fetchBody(t *testing.T, method, url string) (int, string) {
	t.Helper()
	req, err := http.NewRequest(method, url, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(b)
}

func TestDaemon_StartServeStop(t *testing.T) {
	cfg, base := localConfig(t)
	d, err := NewDaemon(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })

	ctx := context.Background()
	require.NoError(t, d.Start(ctx))
	require.Equal(t, StatusRunning, d.GetStatus())
	require.Error(t, d.Start(ctx), "second start is rejected")

	url := "http://" + d.HTTPServer().Addr()

	code, body := fetchBody(t, http.MethodGet, url+"/")
	require.Equal(t, http.StatusOK, code)
	require.Contains(t, body, "<title>Home</title>")

	code, body = fetchBody(t, http.MethodGet, url+"/guides/setup")
	require.Equal(t, http.StatusOK, code)
	require.Contains(t, body, "Setup")

	code, body = fetchBody(t, http.MethodGet, url+"/metrics")
	require.Equal(t, http.StatusOK, code)
	require.Contains(t, body, "docmirror_")

	require.NoError(t, os.WriteFile(filepath.Join(base, "docs", "faq.md"), []byte("# FAQ\n"), 0o644))
	require.Eventually(t, func() bool {
		_, ok := d.Catalog().Find(ctx, "faq")
		return ok
	}, 5*time.Second, 25*time.Millisecond, "watcher invalidates and reloads")

	code, body = fetchBody(t, http.MethodPost, url+"/__reload")
	require.Equal(t, http.StatusOK, code)
	require.Contains(t, body, `"status":"reloaded"`)

	code, body = fetchBody(t, http.MethodGet, url+"/__status")
	require.Equal(t, http.StatusOK, code)
	require.Contains(t, body, `"catalog_size":3`)
	require.Contains(t, body, "cache.invalidated")

	stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	require.NoError(t, d.Stop(stopCtx))
	require.Equal(t, StatusStopped, d.GetStatus())
	require.NoError(t, d.Stop(stopCtx))
}

func TestDaemon_RunStopsOnCancel(t *testing.T) {
	cfg, _ := localConfig(t)
	cfg.Watch.Enabled = false
	d, err := NewDaemon(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx, 2*time.Second) }()

	require.Eventually(t, func() bool { return d.GetStatus() == StatusRunning }, 5*time.Second, 10*time.Millisecond)
	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("daemon did not stop")
	}
	require.Equal(t, StatusStopped, d.GetStatus())
}

func TestNewDaemon_RemoteModeDoesNotDial(t *testing.T) {
	cfg := &config.Config{}
	cfg.Source.Owner = "acme"
	cfg.Source.Repo = "handbook"
	config.ApplyDefaults(cfg)
	require.Equal(t, config.SourceModeRemote, cfg.Source.Mode)

	d, err := NewDaemon(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	require.Equal(t, StatusStopped, d.GetStatus())
	require.NotNil(t, d.Renderer())
	require.Equal(t, config.SourceModeRemote, d.Fetcher().Mode())
}
