// Package commands implements the docmirror CLI subcommands.
package commands

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/docmirror/internal/config"
	derrors "git.home.luguber.info/inful/docmirror/internal/foundation/errors"
)

// Global context passed to subcommands.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags.
type CLI struct {
	Config     string           `short:"c" help:"Configuration file path" default:"docmirror.yaml" type:"path"`
	SourceRoot string           `name:"source-root" help:"Serve a local directory without a configuration file"`
	Verbose    bool             `short:"v" help:"Enable verbose logging"`
	Version    kong.VersionFlag `name:"version" help:"Show version and exit"`

	Serve   ServeCmd   `cmd:"" default:"withargs" help:"Serve rendered documentation over HTTP"`
	Catalog CatalogCmd `cmd:"" help:"Print the documentation catalog"`
	Render  RenderCmd  `cmd:"" help:"Render one document to stdout"`
	Init    InitCmd    `cmd:"" help:"Write an example configuration file"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	return nil
}

// LoadConfig reads the configuration file, or builds a local-mode
// configuration from --source-root when no file exists.
func (c *CLI) LoadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if _, statErr := os.Stat(c.Config); statErr != nil && c.SourceRoot != "" {
		cfg = &config.Config{}
		config.ApplyDefaults(cfg)
	} else {
		cfg, err = config.Load(c.Config)
		if err != nil {
			return nil, derrors.ConfigError("failed to load configuration").
				WithCause(err).
				WithContext("path", c.Config).
				Build()
		}
	}

	if c.SourceRoot != "" {
		cfg.Source.Mode = config.SourceModeLocal
		cfg.Source.LocalPath = c.SourceRoot
		if err := config.Validate(cfg); err != nil {
			return nil, derrors.ConfigError(err.Error()).Build()
		}
	}

	SetupLogging(cfg.Logging, c.Verbose, os.Stderr)
	return cfg, nil
}

// SetupLogging installs the slog handler selected by the configuration.
func SetupLogging(lc config.LoggingConfig, verbose bool, w io.Writer) {
	level := lc.Level.SlogLevel()
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	if lc.Format == config.LogFormatJSON {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	slog.SetDefault(slog.New(h))
}

func printf(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
