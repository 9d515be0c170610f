package handlers

import (
	"html/template"
	"io"
	"net/http"

	"git.home.luguber.info/inful/docmirror/internal/docmodel"
)

// DocumentPage is everything a composer needs to wrap a rendered document.
type DocumentPage struct {
	Ref       string
	Slug      string
	Meta      docmodel.Meta
	HTML      string // sanitized and link-rewritten fragment
	TOC       []docmodel.TocEntry
	Nav       docmodel.NavTree
	Neighbors docmodel.NeighborLinks
	LinkBase  string // prefix for nav and neighbor paths
}

// NotFoundPage is rendered when no document or fallback matches.
type NotFoundPage struct {
	Path     string
	Nav      docmodel.NavTree
	LinkBase string
}

// PageComposer turns rendered fragments into full pages.
type PageComposer interface {
	ComposeDocument(w io.Writer, page DocumentPage) error
	ComposeNotFound(w io.Writer, page NotFoundPage) error
	ComposeError(w io.Writer, status int) error
}

// TemplateComposer is a minimal html/template based PageComposer.
type TemplateComposer struct {
	tmpl *template.Template
}

// NewTemplateComposer parses the built-in page templates.
func NewTemplateComposer() *TemplateComposer {
	funcs := template.FuncMap{
		"route": routeFor,
		// HTML is sanitized by the renderer before it reaches the composer.
		"trusted": func(s string) template.HTML { return template.HTML(s) }, //nolint:gosec
		"statusText": http.StatusText,
	}
	return &TemplateComposer{tmpl: template.Must(template.New("pages").Funcs(funcs).Parse(pageTemplates))}
}

// navItem is a nav node with its href resolved for templates.
type navItem struct {
	Title    string
	Href     string
	Children []navItem
}

func navItems(tree docmodel.NavTree, base string) []navItem {
	items := make([]navItem, 0, len(tree))
	for _, n := range tree {
		if n == nil {
			continue
		}
		items = append(items, navItem{
			Title:    n.Title,
			Href:     routeFor(base, n.Path),
			Children: navItems(n.Children, base),
		})
	}
	return items
}

// ComposeDocument writes a documentation page.
func (c *TemplateComposer) ComposeDocument(w io.Writer, page DocumentPage) error {
	return c.tmpl.ExecuteTemplate(w, "document", struct {
		DocumentPage
		NavItems []navItem
	}{page, navItems(page.Nav, page.LinkBase)})
}

// ComposeNotFound writes the 404 page.
func (c *TemplateComposer) ComposeNotFound(w io.Writer, page NotFoundPage) error {
	return c.tmpl.ExecuteTemplate(w, "notfound", struct {
		NotFoundPage
		NavItems []navItem
	}{page, navItems(page.Nav, page.LinkBase)})
}

// ComposeError writes a generic error page for status.
func (c *TemplateComposer) ComposeError(w io.Writer, status int) error {
	return c.tmpl.ExecuteTemplate(w, "error", status)
}

const pageTemplates = `
{{define "navlist"}}<ul>{{range .}}<li><a href="{{.Href}}">{{.Title}}</a>{{with .Children}}{{template "navlist" .}}{{end}}</li>{{end}}</ul>{{end}}
{{define "nav"}}<nav>{{template "navlist" .NavItems}}</nav>{{end}}
{{define "document"}}<!doctype html>
<html><head><meta charset="utf-8"><title>{{.Meta.Title}}</title>{{with .Meta.Description}}<meta name="description" content="{{.}}">{{end}}</head>
<body>
{{template "nav" .}}
<main>
{{if .TOC}}<aside><ul>{{range .TOC}}<li class="toc-{{.Level}}"><a href="#{{.Anchor}}">{{.Text}}</a></li>{{end}}</ul></aside>{{end}}
<article>{{trusted .HTML}}</article>
<footer>{{with .Neighbors.Previous}}<a rel="prev" href="{{route $.LinkBase .Path}}">{{.Title}}</a>{{end}} {{with .Neighbors.Next}}<a rel="next" href="{{route $.LinkBase .Path}}">{{.Title}}</a>{{end}}</footer>
</main>
</body></html>{{end}}
{{define "notfound"}}<!doctype html>
<html><head><meta charset="utf-8"><title>Page not found</title></head>
<body>
<h1>Page not found</h1>
<p>No documentation exists at <code>{{.Path}}</code>.</p>
{{template "nav" .}}
</body></html>{{end}}
{{define "error"}}<!doctype html>
<html><head><meta charset="utf-8"><title>{{statusText .}}</title></head>
<body><h1>{{statusText .}}</h1><p>The documentation could not be loaded. Please try again shortly.</p></body></html>{{end}}
`
