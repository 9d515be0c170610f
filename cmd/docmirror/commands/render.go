package commands

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"os"
	"strings"

	"git.home.luguber.info/inful/docmirror/internal/daemon"
	"git.home.luguber.info/inful/docmirror/internal/fetch"
	derrors "git.home.luguber.info/inful/docmirror/internal/foundation/errors"
	"git.home.luguber.info/inful/docmirror/internal/linkrewrite"
)

// RenderCmd implements the 'render' command.
type RenderCmd struct {
	Slug string `arg:"" optional:"" help:"Document slug; empty renders the root document"`
	Ref  string `help:"Ref to render (defaults to source.default_branch)"`
	JSON bool   `name:"json" help:"Print HTML, metadata and table of contents as JSON"`

	out io.Writer
}

type renderOutput struct {
	Slug string `json:"slug"`
	Ref  string `json:"ref"`
	HTML string `json:"html"`
	Meta any    `json:"meta"`
	TOC  any    `json:"toc"`
}

func (r *RenderCmd) Run(_ *Global, root *CLI) error {
	cfg, err := root.LoadConfig()
	if err != nil {
		return err
	}
	d, err := daemon.NewDaemon(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = d.Close() }()

	ctx := context.Background()
	slug := strings.Trim(r.Slug, "/")
	entry, ok := d.Catalog().Find(ctx, slug)
	if !ok {
		return derrors.NotFoundError("no document with this slug").WithContext("slug", slug).Build()
	}

	ref := r.Ref
	if ref == "" {
		ref = cfg.Source.DefaultBranch
	}
	doc, err := d.Fetcher().FetchDocument(ctx, entry.SourcePath, ref)
	if err != nil {
		if stderrors.Is(err, fetch.ErrDocumentNotFound) {
			return derrors.NotFoundError("document missing at ref").
				WithContext("slug", slug).
				WithContext("ref", ref).
				Build()
		}
		return err
	}

	result, err := d.Renderer().Render([]byte(doc.Body), "/"+slug)
	if err != nil {
		return err
	}
	html, err := linkrewrite.Rewrite(result.HTML, linkrewrite.Options{
		RequestPath:  "/" + slug,
		SourcePath:   entry.SourcePath,
		RootPrefix:   cfg.Source.DocsRoot,
		RootDocument: cfg.Source.RootDocument,
		Ref:          ref,
		BasePath:     cfg.HTTP.BasePath,
		AssetPath:    cfg.HTTP.BasePath + linkrewrite.DefaultAssetPath,
	})
	if err != nil {
		return err
	}

	w := r.out
	if w == nil {
		w = os.Stdout
	}
	if r.JSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(renderOutput{Slug: slug, Ref: ref, HTML: html, Meta: result.Meta, TOC: result.TOC})
	}
	printf(w, "%s\n", html)
	return nil
}
