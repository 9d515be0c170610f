package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"git.home.luguber.info/inful/docmirror/internal/daemon"
)

// ServeCmd implements the 'serve' command.
type ServeCmd struct {
	Addr            string        `help:"Listen address (overrides http.addr)"`
	ShutdownTimeout time.Duration `name:"shutdown-timeout" help:"Graceful shutdown timeout" default:"30s"`
}

func (s *ServeCmd) Run(_ *Global, root *CLI) error {
	cfg, err := root.LoadConfig()
	if err != nil {
		return err
	}
	if s.Addr != "" {
		cfg.HTTP.Addr = s.Addr
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	d, err := daemon.NewDaemon(cfg)
	if err != nil {
		return fmt.Errorf("failed to create daemon: %w", err)
	}
	defer func() { _ = d.Close() }()

	return d.Run(ctx, s.ShutdownTimeout)
}
