// Package httpserver wires the documentation, webhook and admin handlers into one HTTP server.
package httpserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"git.home.luguber.info/inful/docmirror/internal/config"
	derrors "git.home.luguber.info/inful/docmirror/internal/foundation/errors"
	"git.home.luguber.info/inful/docmirror/internal/linkrewrite"
	"git.home.luguber.info/inful/docmirror/internal/logfields"
	handlers "git.home.luguber.info/inful/docmirror/internal/server/handlers"
	smw "git.home.luguber.info/inful/docmirror/internal/server/middleware"
)

// Options carries the handler modules the server routes to.
type Options struct {
	Docs    *handlers.DocsHandlers
	Webhook *handlers.WebhookHandlers
	Admin   *handlers.AdminHandlers

	// Optional: Prometheus exposition handler mounted at metrics.path.
	MetricsHandler http.Handler
}

// Server manages the HTTP listener.
type Server struct {
	cfg    *config.Config
	opts   Options
	mchain func(http.Handler) http.Handler

	mu   sync.Mutex
	srv  *http.Server
	addr net.Addr
}

// New constructs a new HTTP server wiring instance.
func New(cfg *config.Config, opts Options) *Server {
	adapter := derrors.NewHTTPErrorAdapter(slog.Default())
	return &Server{
		cfg:    cfg,
		opts:   opts,
		mchain: smw.Chain(slog.Default(), adapter),
	}
}

// Handler returns the routed handler wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	if s.opts.Webhook != nil {
		mux.HandleFunc(s.cfg.Webhook.Path, s.opts.Webhook.HandlePush)
	}
	if s.opts.Admin != nil {
		mux.HandleFunc("/healthz", s.opts.Admin.HandleHealth)
		mux.HandleFunc("/__status", s.opts.Admin.HandleStatus)
		mux.HandleFunc("/__reload", s.opts.Admin.HandleReload)
	}
	if s.opts.MetricsHandler != nil && s.cfg.Metrics.Enabled {
		mux.Handle(s.cfg.Metrics.Path, s.opts.MetricsHandler)
	}

	if s.opts.Docs != nil {
		docs := http.NewServeMux()
		docs.HandleFunc(linkrewrite.DefaultAssetPath+"/", s.opts.Docs.HandleAsset)
		docs.HandleFunc("/", s.opts.Docs.HandleDocument)

		base := s.cfg.HTTP.BasePath
		if base == "" {
			mux.Handle("/", docs)
		} else {
			mux.Handle(base+"/", http.StripPrefix(base, docs))
		}
	}

	return s.mchain(mux)
}

// Start binds the configured address and serves in the background.
func (s *Server) Start(ctx context.Context) error {
	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", s.cfg.HTTP.Addr)
	if err != nil {
		return fmt.Errorf("http startup failed: %w", err)
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       config.Duration(s.cfg.HTTP.ReadTimeout, 30*time.Second),
		WriteTimeout:      config.Duration(s.cfg.HTTP.WriteTimeout, 30*time.Second),
		IdleTimeout:       60 * time.Second,
	}

	s.mu.Lock()
	s.srv = srv
	s.addr = ln.Addr()
	s.mu.Unlock()

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", logfields.Error(err))
		}
	}()

	slog.Info("HTTP server started",
		slog.String("addr", ln.Addr().String()),
		slog.String("base_path", s.cfg.HTTP.BasePath),
		slog.String("webhook_path", s.cfg.Webhook.Path))
	return nil
}

// Addr reports the bound address once started.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.addr == nil {
		return ""
	}
	return s.addr.String()
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv := s.srv
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	slog.Info("HTTP server stopped")
	return nil
}
