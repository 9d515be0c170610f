package main

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/docmirror/cmd/docmirror/commands"
	derrors "git.home.luguber.info/inful/docmirror/internal/foundation/errors"
	"git.home.luguber.info/inful/docmirror/internal/version"
)

func main() {
	var cli commands.CLI
	ctx := kong.Parse(&cli,
		kong.Name("docmirror"),
		kong.Description("Mirror, cache and render Markdown documentation from a local tree or a GitHub repository."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
	)

	if err := ctx.Run(&commands.Global{Logger: slog.Default()}, &cli); err != nil {
		adapter := derrors.NewCLIErrorAdapter(cli.Verbose, slog.Default())
		os.Exit(adapter.Report(err))
	}
}
