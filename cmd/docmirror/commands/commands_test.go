package commands

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docmirror/internal/config"
)

func writeDocs(t *testing.T) string {
	t.Helper()
	base := t.TempDir()
	for name, content := range map[string]string{
		"docs/overview.md":      "# Overview\n\nHello.\n",
		"docs/guides/setup.md":  "---\ntitle: Setup Guide\n---\n## Install\n\nSee [overview](../overview.md).\n",
		"docs/api-reference.md": "# API\n",
	} {
		p := filepath.Join(base, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	return base
}

func parse(t *testing.T, cli *CLI, args ...string) *kong.Context {
	t.Helper()
	parser, err := kong.New(cli, kong.Vars{"version": "test"}, kong.Exit(func(int) { t.Fatal("unexpected exit") }))
	require.NoError(t, err)
	ctx, err := parser.Parse(args)
	require.NoError(t, err)
	return ctx
}

func TestCatalogCmd_Slugs(t *testing.T) {
	base := writeDocs(t)
	var cli CLI
	ctx := parse(t, &cli, "--config", filepath.Join(base, "missing.yaml"), "--source-root", base, "catalog", "--slugs")

	var out bytes.Buffer
	cli.Catalog.out = &out
	require.NoError(t, ctx.Run(&Global{Logger: slog.Default()}, &cli))
	require.Equal(t, "/\napi-reference\nguides/setup\n", out.String())
}

func TestCatalogCmd_Tree(t *testing.T) {
	base := writeDocs(t)
	var cli CLI
	ctx := parse(t, &cli, "--config", filepath.Join(base, "missing.yaml"), "--source-root", base, "catalog")

	var out bytes.Buffer
	cli.Catalog.out = &out
	require.NoError(t, ctx.Run(&Global{Logger: slog.Default()}, &cli))
	require.Contains(t, out.String(), "Documentation (/)\n")
	require.Contains(t, out.String(), "API Reference (/api-reference)\n")
	require.Contains(t, out.String(), "    Setup Guide (/guides/setup)\n")
}

func TestRenderCmd(t *testing.T) {
	base := writeDocs(t)
	var cli CLI
	ctx := parse(t, &cli, "--config", filepath.Join(base, "missing.yaml"), "--source-root", base, "render", "guides/setup", "--json")

	var out bytes.Buffer
	cli.Render.out = &out
	require.NoError(t, ctx.Run(&Global{Logger: slog.Default()}, &cli))
	require.Contains(t, out.String(), `"title": "Setup Guide"`)
	require.Contains(t, out.String(), `"anchor": "install"`)
	require.Contains(t, out.String(), `href=\"/\"`)
}

func TestRenderCmd_UnknownSlug(t *testing.T) {
	base := writeDocs(t)
	var cli CLI
	ctx := parse(t, &cli, "--config", filepath.Join(base, "missing.yaml"), "--source-root", base, "render", "nope")

	cli.Render.out = &bytes.Buffer{}
	err := ctx.Run(&Global{Logger: slog.Default()}, &cli)
	require.Error(t, err)
	require.Contains(t, err.Error(), "no document with this slug")
}

func TestInitCmd(t *testing.T) {
	dir := t.TempDir()
	var cli CLI
	ctx := parse(t, &cli, "init", "--output", dir)

	var out bytes.Buffer
	cli.Init.out = &out
	require.NoError(t, ctx.Run(&Global{Logger: slog.Default()}, &cli))
	require.Contains(t, out.String(), "initialized successfully")
	_, err := os.Stat(filepath.Join(dir, "docmirror.yaml"))
	require.NoError(t, err)

	ctx = parse(t, &cli, "init", "--output", dir)
	cli.Init.out = &out
	require.Error(t, ctx.Run(&Global{Logger: slog.Default()}, &cli))
}

func TestSetupLogging_JSON(t *testing.T) {
	var buf bytes.Buffer
	old := slog.Default()
	t.Cleanup(func() { slog.SetDefault(old) })

	SetupLogging(config.LoggingConfig{Level: config.LogLevelWarn, Format: config.LogFormatJSON}, false, &buf)
	slog.Info("hidden")
	slog.Warn("shown")
	require.NotContains(t, buf.String(), "hidden")
	require.Contains(t, buf.String(), `"msg":"shown"`)
}
