package commands

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"

	"git.home.luguber.info/inful/docmirror/internal/daemon"
	"git.home.luguber.info/inful/docmirror/internal/docmodel"
)

// CatalogCmd implements the 'catalog' command.
type CatalogCmd struct {
	Slugs bool `help:"Print slugs in catalog order instead of the navigation tree"`
	JSON  bool `name:"json" help:"Print the navigation tree as JSON"`

	out io.Writer
}

func (c *CatalogCmd) Run(_ *Global, root *CLI) error {
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
	if err := d.Catalog().Reload(ctx); err != nil {
		return err
	}
	w := c.out
	if w == nil {
		w = os.Stdout
	}

	switch {
	case c.Slugs:
		for _, slug := range d.Catalog().AllSlugs(ctx) {
			if slug == docmodel.RootSlug {
				slug = "/"
			}
			printf(w, "%s\n", slug)
		}
	case c.JSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(d.Catalog().NavTree(ctx))
	default:
		printNav(w, d.Catalog().NavTree(ctx), 0)
	}
	return nil
}

func printNav(w io.Writer, nodes []*docmodel.NavNode, depth int) {
	for _, n := range nodes {
		printf(w, "%s%s (/%s)\n", strings.Repeat("  ", depth), n.Title, n.Path)
		printNav(w, n.Children, depth+1)
	}
}
