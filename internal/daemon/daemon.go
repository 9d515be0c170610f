// Package daemon assembles the catalog, cache, fetch, invalidation and HTTP
// components into one long-running service.
package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/docmirror/internal/broadcast"
	"git.home.luguber.info/inful/docmirror/internal/cache"
	"git.home.luguber.info/inful/docmirror/internal/catalog"
	"git.home.luguber.info/inful/docmirror/internal/config"
	"git.home.luguber.info/inful/docmirror/internal/eventstore"
	"git.home.luguber.info/inful/docmirror/internal/fetch"
	"git.home.luguber.info/inful/docmirror/internal/forge"
	"git.home.luguber.info/inful/docmirror/internal/invalidate"
	"git.home.luguber.info/inful/docmirror/internal/logfields"
	"git.home.luguber.info/inful/docmirror/internal/markdown"
	"git.home.luguber.info/inful/docmirror/internal/metrics"
	"git.home.luguber.info/inful/docmirror/internal/retry"
	"git.home.luguber.info/inful/docmirror/internal/scheduler"
	"git.home.luguber.info/inful/docmirror/internal/server/handlers"
	"git.home.luguber.info/inful/docmirror/internal/server/httpserver"
	"git.home.luguber.info/inful/docmirror/internal/version"
	"git.home.luguber.info/inful/docmirror/internal/watch"
)

// Status represents the current state of the daemon.
type Status string

const (
	StatusStopped  Status = "stopped"
	StatusStarting Status = "starting"
	StatusRunning  Status = "running"
	StatusStopping Status = "stopping"
	StatusError    Status = "error"
)

// Daemon owns every runtime component.
type Daemon struct {
	config    *config.Config
	status    atomic.Value // Status
	startTime time.Time
	mu        sync.Mutex

	registry *prometheus.Registry
	recorder metrics.Recorder
	journal  eventstore.Store

	store    *cache.Store
	fetcher  *fetch.Service
	catalog  *catalog.Catalog
	renderer *markdown.Renderer
	trigger  *invalidate.Trigger

	bus        *broadcast.Bus
	scheduler  *scheduler.Scheduler
	watcher    *watch.Watcher
	httpServer *httpserver.Server
}

// NewDaemon builds all components from cfg. Nothing is started and no network
// connection is made until Start.
func NewDaemon(cfg *config.Config) (*Daemon, error) {
	d := &Daemon{config: cfg}
	d.status.Store(StatusStopped)

	d.registry = prometheus.NewRegistry()
	if cfg.Metrics.Enabled {
		d.recorder = metrics.NewPrometheusRecorder(d.registry)
	} else {
		d.recorder = metrics.NoopRecorder{}
	}

	journal, err := eventstore.NewSQLiteStore(cfg.Journal.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sync journal: %w", err)
	}
	d.journal = journal

	d.store = cache.New(cache.Options{
		TTL:        cfg.Source.CacheTTL(),
		MaxEntries: cfg.Source.MaxCacheEntries,
		Recorder:   d.recorder,
	})

	fetchOpts := fetch.Options{
		Mode:       cfg.Source.Mode,
		Root:       cfg.Source.DocsRoot,
		DefaultRef: cfg.Source.DefaultBranch,
		Store:      d.store,
		Retry:      retry.FromConfig(cfg.HTTP),
		Recorder:   d.recorder,
	}

	var lister catalog.Lister
	switch cfg.Source.Mode {
	case config.SourceModeRemote:
		client, cerr := forge.NewGitHubClient(forge.Options{
			Owner:             cfg.Source.Owner,
			Repo:              cfg.Source.Repo,
			APIURL:            cfg.Source.APIURL,
			RawContentBaseURL: cfg.Source.RawContentBaseURL,
			Token:             cfg.Source.AccessToken,
			HTTPClient: forge.NewHTTPClient(
				config.Duration(cfg.HTTP.ConnectTimeout, 5*time.Second),
				config.Duration(cfg.HTTP.RequestTimeout, 15*time.Second)),
		})
		if cerr != nil {
			_ = journal.Close()
			return nil, cerr
		}
		fetchOpts.Remote = client
		d.fetcher = fetch.New(fetchOpts)
		lister = catalog.RemoteLister{
			Client:         client,
			Reader:         d.fetcher,
			Root:           cfg.Source.DocsRoot,
			PrivateSegment: cfg.Source.PrivateSegment,
		}
	default:
		base, aerr := filepath.Abs(cfg.Source.LocalPath)
		if aerr != nil {
			_ = journal.Close()
			return nil, fmt.Errorf("failed to resolve source.local_path: %w", aerr)
		}
		fetchOpts.LocalBase = base
		d.fetcher = fetch.New(fetchOpts)
		lister = catalog.LocalLister{Base: base, Root: cfg.Source.DocsRoot}
	}

	d.catalog = catalog.New(catalog.Options{
		Lister:         lister,
		Ref:            cfg.Source.DefaultBranch,
		Root:           cfg.Source.DocsRoot,
		RootDocument:   cfg.Source.RootDocument,
		ReservedPrefix: cfg.Source.ReservedPrefix,
		Recorder:       d.recorder,
		Journal:        journal,
	})
	d.renderer = markdown.New(d.recorder)
	d.trigger = d.newTrigger(nil)
	d.httpServer = d.newHTTPServer()
	return d, nil
}

func (d *Daemon) newTrigger(b invalidate.Broadcaster) *invalidate.Trigger {
	return invalidate.New(invalidate.Options{
		Branch:      d.config.Source.DefaultBranch,
		Root:        d.config.Source.DocsRoot,
		Secret:      d.config.Webhook.Secret,
		Cache:       d.store,
		Catalog:     d.catalog,
		Journal:     d.journal,
		Broadcaster: b,
		Recorder:    d.recorder,
	})
}

func (d *Daemon) newHTTPServer() *httpserver.Server {
	var private string
	if d.config.Source.Mode == config.SourceModeRemote {
		private = d.config.Source.PrivateSegment
	}
	return httpserver.New(d.config, httpserver.Options{
		Docs: handlers.NewDocsHandlers(handlers.DocsOptions{
			Root:           d.config.Source.DocsRoot,
			RootDocument:   d.config.Source.RootDocument,
			BasePath:       d.config.HTTP.BasePath,
			PrivateSegment: private,
			Catalog:        d.catalog,
			Fetcher:        d.fetcher,
			Renderer:       d.renderer,
			Nav:            d.store,
		}),
		Webhook: handlers.NewWebhookHandlers(d.trigger),
		Admin: handlers.NewAdminHandlers(handlers.AdminOptions{
			Mode:       string(d.config.Source.Mode),
			DefaultRef: d.config.Source.DefaultBranch,
			Catalog:    d.catalog,
			Cache:      d.store,
			Journal:    d.journal,
			Reloader:   d.trigger,
		}),
		MetricsHandler: metrics.HTTPHandler(d.registry),
	})
}

// Catalog returns the documentation catalog.
func (d *Daemon) Catalog() *catalog.Catalog { return d.catalog }

// Fetcher returns the fetch service.
func (d *Daemon) Fetcher() *fetch.Service { return d.fetcher }

// Renderer returns the Markdown renderer.
func (d *Daemon) Renderer() *markdown.Renderer { return d.renderer }

// Trigger returns the invalidation trigger.
func (d *Daemon) Trigger() *invalidate.Trigger { return d.trigger }

// HTTPServer returns the HTTP server wiring.
func (d *Daemon) HTTPServer() *httpserver.Server { return d.httpServer }

// GetStatus returns the current daemon status.
func (d *Daemon) GetStatus() Status {
	status, ok := d.status.Load().(Status)
	if !ok {
		return StatusError
	}
	return status
}

// Start connects the broadcast bus, warms the catalog and starts the
// scheduler, watcher and HTTP server. It returns once everything is running.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.GetStatus() != StatusStopped {
		return fmt.Errorf("daemon is not in stopped state: %s", d.GetStatus())
	}
	d.status.Store(StatusStarting)
	d.startTime = time.Now()
	slog.Info("Starting docmirror", slog.String("version", version.Version), logfields.Mode(string(d.config.Source.Mode)))

	if url := d.config.Broadcast.NATSURL; url != "" {
		bus, err := broadcast.Connect(url, d.config.Broadcast.Subject)
		if err != nil {
			slog.Warn("Invalidation broadcast disabled", logfields.Error(err))
		} else {
			d.bus = bus
			d.trigger = d.newTrigger(bus)
			d.httpServer = d.newHTTPServer()
			if err := bus.Subscribe(d.trigger.ApplyBroadcast); err != nil {
				slog.Warn("Failed to subscribe to invalidation broadcasts", logfields.Error(err))
			}
		}
	}

	if err := d.catalog.Reload(ctx); err != nil {
		slog.Warn("Initial catalog load failed", logfields.Error(err))
	}

	if interval := config.Duration(d.config.Schedule.ReloadInterval, 0); interval > 0 {
		s, err := scheduler.New()
		if err != nil {
			d.status.Store(StatusError)
			return err
		}
		if _, err := s.ScheduleReload(context.WithoutCancel(ctx), interval, d.catalog); err != nil {
			d.status.Store(StatusError)
			return err
		}
		s.Start()
		d.scheduler = s
	}

	if d.config.Watch.Enabled && d.config.Source.Mode == config.SourceModeLocal {
		root := filepath.Join(d.config.Source.LocalPath, filepath.FromSlash(d.config.Source.DocsRoot))
		w, err := watch.New(root, config.Duration(d.config.Watch.Debounce, 500*time.Millisecond), d.trigger)
		if err != nil {
			slog.Warn("File watcher disabled", logfields.Error(err))
		} else if err := w.Start(context.WithoutCancel(ctx)); err != nil {
			slog.Warn("File watcher disabled", logfields.Error(err))
			_ = w.Stop()
		} else {
			d.watcher = w
		}
	}

	if err := d.httpServer.Start(ctx); err != nil {
		d.status.Store(StatusError)
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	d.status.Store(StatusRunning)
	slog.Info("docmirror started",
		slog.String("addr", d.httpServer.Addr()),
		logfields.Ref(d.config.Source.DefaultBranch),
		slog.String("docs_root", d.config.Source.DocsRoot))
	return nil
}

// Run starts the daemon and blocks until ctx is cancelled, then stops it.
func (d *Daemon) Run(ctx context.Context, shutdownTimeout time.Duration) error {
	if err := d.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	return d.Stop(stopCtx)
}

// Stop shuts components down in reverse order and closes the journal.
func (d *Daemon) Stop(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	current := d.GetStatus()
	if current == StatusStopped || current == StatusStopping {
		return nil
	}
	d.status.Store(StatusStopping)
	slog.Info("Stopping docmirror")

	if err := d.httpServer.Stop(ctx); err != nil {
		slog.Error("Failed to stop HTTP server", logfields.Error(err))
	}
	if d.watcher != nil {
		if err := d.watcher.Stop(); err != nil {
			slog.Error("Failed to stop file watcher", logfields.Error(err))
		}
		d.watcher = nil
	}
	if d.scheduler != nil {
		if err := d.scheduler.Stop(); err != nil {
			slog.Error("Failed to stop scheduler", logfields.Error(err))
		}
		d.scheduler = nil
	}
	if d.bus != nil {
		if err := d.bus.Close(); err != nil {
			slog.Error("Failed to close broadcast bus", logfields.Error(err))
		}
		d.bus = nil
	}

	d.status.Store(StatusStopped)
	slog.Info("docmirror stopped", slog.Duration("uptime", time.Since(d.startTime)))
	return nil
}

// Close releases resources held since NewDaemon.
func (d *Daemon) Close() error {
	if d.journal == nil {
		return nil
	}
	return d.journal.Close()
}
