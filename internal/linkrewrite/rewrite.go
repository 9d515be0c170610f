// Package linkrewrite maps repository-relative links and images in rendered
// HTML onto the site's documentation routes and asset proxy.
package linkrewrite

import (
	"bytes"
	"net/url"
	"path"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"git.home.luguber.info/inful/docmirror/internal/catalog"
	"git.home.luguber.info/inful/docmirror/internal/foundation/errors"
)

// DocLinkAttr marks anchors that point at another documentation page.
const DocLinkAttr = "data-doc-link"

// DefaultAssetPath is the route prefix of the asset proxy.
const DefaultAssetPath = "/__asset"

// Options describe the document being rewritten.
type Options struct {
	RequestPath  string // route of the current page, used for error context
	SourcePath   string // e.g. "docs/guide/setup.md"
	RootPrefix   string // e.g. "docs"
	RootDocument string // extra root page name, e.g. "overview"
	Ref          string
	BasePath     string // e.g. "/docs" or ""
	AssetPath    string // default DefaultAssetPath
}

// Rewrite rewrites every <a href> and <img src> in fragment according to opts.
func Rewrite(fragment string, opts Options) (string, error) {
	if opts.AssetPath == "" {
		opts.AssetPath = DefaultAssetPath
	}
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), body)
	if err != nil {
		return "", errors.RenderError("failed to parse rendered html").
			WithCause(err).
			WithContext("path", opts.RequestPath).
			Build()
	}

	var buf bytes.Buffer
	for _, n := range nodes {
		walk(n, &opts)
		if err := html.Render(&buf, n); err != nil {
			return "", errors.RenderError("failed to serialize rewritten html").
				WithCause(err).
				WithContext("path", opts.RequestPath).
				Build()
		}
	}
	return buf.String(), nil
}

func walk(n *html.Node, opts *Options) {
	if n.Type == html.ElementNode {
		switch n.DataAtom {
		case atom.A:
			rewriteAnchor(n, opts)
		case atom.Img:
			rewriteImage(n, opts)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, opts)
	}
}

func rewriteAnchor(n *html.Node, opts *Options) {
	href, ok := getAttr(n, "href")
	if !ok || href == "" {
		return
	}
	switch {
	case isExternal(href):
		setAttr(n, "rel", "noopener")
		setAttr(n, "target", "_blank")
		return
	case strings.HasPrefix(href, "#"), !isRelative(href):
		return
	}

	target, fragment := splitFragment(href)
	if target == "" {
		return
	}
	resolved := resolve(opts.SourcePath, target)
	if !withinRoot(resolved, opts.RootPrefix) {
		return
	}
	if isDocTarget(resolved) {
		route := DocRoute(resolved, opts.RootPrefix, opts.RootDocument, opts.BasePath)
		if fragment != "" {
			route += "#" + fragment
		}
		setAttr(n, "href", route)
		setAttr(n, DocLinkAttr, "true")
		return
	}
	setAttr(n, "href", AssetRoute(resolved, opts.RootPrefix, opts.Ref, opts.AssetPath))
}

func rewriteImage(n *html.Node, opts *Options) {
	src, ok := getAttr(n, "src")
	if !ok || src == "" || !isRelative(src) {
		return
	}
	target, _ := splitFragment(src)
	if target == "" {
		return
	}
	resolved := resolve(opts.SourcePath, target)
	if !withinRoot(resolved, opts.RootPrefix) {
		return
	}
	setAttr(n, "src", AssetRoute(resolved, opts.RootPrefix, opts.Ref, opts.AssetPath))
}

// DocRoute builds the page route for a root-prefixed Markdown path.
func DocRoute(resolved, rootPrefix, rootDocument, basePath string) string {
	candidate := resolved
	if path.Ext(candidate) == "" {
		candidate += ".md"
	}
	slug, ok := catalog.DeriveSlug(candidate, rootPrefix, rootDocument)
	if !ok {
		slug = strings.TrimSuffix(stripRoot(resolved, rootPrefix), ".md")
	}
	base := strings.TrimSuffix(basePath, "/")
	if slug == "" {
		if base == "" {
			return "/"
		}
		return base
	}
	return base + "/" + slug
}

// AssetRoute builds the asset proxy URL for a root-prefixed path.
func AssetRoute(resolved, rootPrefix, ref, assetPath string) string {
	u := strings.TrimSuffix(assetPath, "/") + "/" + stripRoot(resolved, rootPrefix)
	if ref != "" {
		u += "?ref=" + url.QueryEscape(ref)
	}
	return u
}

func stripRoot(p, rootPrefix string) string {
	if rootPrefix == "" {
		return p
	}
	if p == rootPrefix {
		return ""
	}
	return strings.TrimPrefix(p, rootPrefix+"/")
}

// withinRoot reports whether a resolved path stays inside the docs root.
// Links that climb above it have no route and are left as written.
func withinRoot(p, rootPrefix string) bool {
	return rootPrefix == "" || p == rootPrefix || strings.HasPrefix(p, rootPrefix+"/")
}

func resolve(sourcePath, target string) string {
	joined := path.Join(path.Dir(sourcePath), target)
	return strings.TrimPrefix(path.Clean("/"+joined), "/")
}

func isDocTarget(p string) bool {
	switch strings.ToLower(path.Ext(p)) {
	case ".md", ".markdown", "":
		return true
	}
	return false
}

func isExternal(href string) bool {
	lower := strings.ToLower(href)
	return strings.HasPrefix(lower, "http://") ||
		strings.HasPrefix(lower, "https://") ||
		strings.HasPrefix(lower, "mailto:")
}

// isRelative reports whether ref has neither a scheme nor a leading slash.
func isRelative(ref string) bool {
	if strings.HasPrefix(ref, "/") {
		return false
	}
	u, err := url.Parse(ref)
	if err != nil {
		return false
	}
	return u.Scheme == "" && u.Host == ""
}

func splitFragment(href string) (target, fragment string) {
	target, fragment, _ = strings.Cut(href, "#")
	if i := strings.IndexByte(target, '?'); i >= 0 {
		target = target[:i]
	}
	return target, fragment
}

func getAttr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}
