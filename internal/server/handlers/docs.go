package handlers

import (
	"bytes"
	"context"
	stderrors "errors"
	"log/slog"
	"net/http"
	"strings"

	"git.home.luguber.info/inful/docmirror/internal/docmodel"
	"git.home.luguber.info/inful/docmirror/internal/fetch"
	"git.home.luguber.info/inful/docmirror/internal/foundation/errors"
	"git.home.luguber.info/inful/docmirror/internal/linkrewrite"
	"git.home.luguber.info/inful/docmirror/internal/logfields"
	"git.home.luguber.info/inful/docmirror/internal/markdown"
)

const (
	documentCacheControl = "public, max-age=60"
	assetCacheControl    = "public, max-age=86400"
)

// Catalog resolves slugs against the current snapshot.
type Catalog interface {
	Find(ctx context.Context, slug string) (docmodel.Entry, bool)
	FirstEntryStartingWith(ctx context.Context, prefix string) (docmodel.Entry, bool)
	NavTree(ctx context.Context) docmodel.NavTree
	Navigation(ctx context.Context) (docmodel.NavTree, uint64)
	Generation(ctx context.Context) uint64
	Neighbors(ctx context.Context, slug string) docmodel.NeighborLinks
}

// Fetcher loads documents and assets through the cache.
type Fetcher interface {
	FetchDocument(ctx context.Context, sourcePath, ref string) (*docmodel.CachedDocument, error)
	FetchAsset(ctx context.Context, sourcePath, ref string) (*docmodel.CachedAsset, error)
	DefaultRef() string
}

// NavCache holds the shared navigation tree slot, keyed by catalog generation.
type NavCache interface {
	NavTreeAt(generation uint64) (docmodel.NavTree, bool)
	CacheNavTreeAt(generation uint64, tree docmodel.NavTree)
}

// DocsOptions configure DocsHandlers.
type DocsOptions struct {
	Root           string // docs root, e.g. "docs"
	RootDocument   string
	BasePath       string // public mount point, "" or "/docs"
	PrivateSegment string // hides "<root>/<segment>/..." from the asset proxy
	Catalog        Catalog
	Fetcher        Fetcher
	Renderer       *markdown.Renderer
	Composer       PageComposer
	Nav            NavCache
}

// DocsHandlers serve rendered documents and proxied assets.
type DocsHandlers struct {
	opts         DocsOptions
	errorAdapter *errors.HTTPErrorAdapter
}

// NewDocsHandlers creates the document and asset handlers.
func NewDocsHandlers(opts DocsOptions) *DocsHandlers {
	if opts.Renderer == nil {
		opts.Renderer = markdown.New(nil)
	}
	if opts.Composer == nil {
		opts.Composer = NewTemplateComposer()
	}
	opts.BasePath = strings.TrimSuffix(opts.BasePath, "/")
	return &DocsHandlers{opts: opts, errorAdapter: errors.NewHTTPErrorAdapter(slog.Default())}
}

// HandleDocument renders the document addressed by the request path. The path
// is relative to the mount point.
func (h *DocsHandlers) HandleDocument(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(r, http.MethodGet, http.MethodHead) {
		h.errorAdapter.WriteErrorResponse(w, r, methodNotAllowed(r, http.MethodGet, http.MethodHead))
		return
	}
	ctx := r.Context()
	ref, slug, pinned := resolveRoute(r.URL.Path, h.opts.Fetcher.DefaultRef())
	slug = strings.ToLower(slug)
	base := linkBase(h.opts.BasePath, ref, pinned)

	entry, ok := h.opts.Catalog.Find(ctx, slug)
	if !ok {
		h.notFound(w, r, slug, base)
		return
	}

	doc, err := h.opts.Fetcher.FetchDocument(ctx, entry.SourcePath, ref)
	if err != nil {
		if stderrors.Is(err, fetch.ErrDocumentNotFound) {
			slog.Debug("Document missing at ref", logfields.Slug(slug), logfields.Ref(ref))
			h.notFound(w, r, slug, base)
			return
		}
		h.serverError(w, r, err)
		return
	}

	etag := documentETag(doc)
	if etag != "" && matchesETag(r.Header.Get("If-None-Match"), etag) {
		w.Header().Set("ETag", etag)
		w.Header().Set("Cache-Control", documentCacheControl)
		w.WriteHeader(http.StatusNotModified)
		return
	}

	rendered, err := h.opts.Renderer.Render([]byte(doc.Body), r.URL.Path)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	fragment, err := linkrewrite.Rewrite(rendered.HTML, linkrewrite.Options{
		RequestPath:  r.URL.Path,
		SourcePath:   entry.SourcePath,
		RootPrefix:   h.opts.Root,
		RootDocument: h.opts.RootDocument,
		Ref:          ref,
		BasePath:     base,
		AssetPath:    h.opts.BasePath + linkrewrite.DefaultAssetPath,
	})
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	var buf bytes.Buffer
	page := DocumentPage{
		Ref:       ref,
		Slug:      slug,
		Meta:      rendered.Meta,
		HTML:      fragment,
		TOC:       rendered.TOC,
		Nav:       h.navTree(ctx),
		Neighbors: h.opts.Catalog.Neighbors(ctx, slug),
		LinkBase:  base,
	}
	if err := h.opts.Composer.ComposeDocument(&buf, page); err != nil {
		h.serverError(w, r, errors.RenderError("failed to compose page").WithCause(err).Build())
		return
	}

	hdr := w.Header()
	hdr.Set("Content-Type", "text/html; charset=utf-8")
	hdr.Set("Cache-Control", documentCacheControl)
	if etag != "" {
		hdr.Set("ETag", etag)
	}
	if !doc.LastModified.IsZero() {
		hdr.Set("Last-Modified", doc.LastModified.UTC().Format(http.TimeFormat))
	}
	w.WriteHeader(http.StatusOK)
	if r.Method != http.MethodHead {
		_, _ = w.Write(buf.Bytes())
	}
}

// HandleAsset proxies /__asset/<path>?ref=<ref> to the fetch service.
func (h *DocsHandlers) HandleAsset(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(r, http.MethodGet, http.MethodHead) {
		h.errorAdapter.WriteErrorResponse(w, r, methodNotAllowed(r, http.MethodGet, http.MethodHead))
		return
	}
	rel := strings.Trim(strings.TrimPrefix(r.URL.Path, linkrewrite.DefaultAssetPath), "/")
	if rel == "" {
		h.notFoundPlain(w)
		return
	}
	if first, _, _ := strings.Cut(rel, "/"); h.opts.PrivateSegment != "" && first == h.opts.PrivateSegment {
		slog.Debug("Asset under private segment rejected", logfields.Path(rel))
		h.notFoundPlain(w)
		return
	}
	ref := r.URL.Query().Get("ref")
	sourcePath := rel
	if h.opts.Root != "" {
		sourcePath = h.opts.Root + "/" + rel
	}

	asset, err := h.opts.Fetcher.FetchAsset(r.Context(), sourcePath, ref)
	if err != nil {
		if stderrors.Is(err, fetch.ErrAssetNotFound) {
			slog.Debug("Asset not found", logfields.SourcePath(sourcePath), logfields.Ref(ref))
			h.notFoundPlain(w)
			return
		}
		if errors.HasCategory(err, errors.CategoryValidation) {
			h.notFoundPlain(w)
			return
		}
		h.serverError(w, r, err)
		return
	}

	hdr := w.Header()
	hdr.Set("Content-Type", asset.ContentType)
	hdr.Set("Cache-Control", assetCacheControl)
	if asset.ETag != "" {
		hdr.Set("ETag", asset.ETag)
		if matchesETag(r.Header.Get("If-None-Match"), asset.ETag) {
			w.WriteHeader(http.StatusNotModified)
			return
		}
	}
	if !asset.LastModified.IsZero() {
		hdr.Set("Last-Modified", asset.LastModified.UTC().Format(http.TimeFormat))
	}
	w.WriteHeader(http.StatusOK)
	if r.Method != http.MethodHead {
		_, _ = w.Write(asset.Bytes)
	}
}

// notFound applies the fallback chain: the first child of a matching nav
// folder, then the first catalog entry under the requested prefix, then a 404
// page with the navigation tree.
func (h *DocsHandlers) notFound(w http.ResponseWriter, r *http.Request, slug, base string) {
	ctx := r.Context()
	nav := h.navTree(ctx)

	if target, ok := navFallback(nav, slug); ok {
		http.Redirect(w, r, routeFor(base, target), http.StatusFound)
		return
	}
	if slug != "" {
		if e, ok := h.opts.Catalog.FirstEntryStartingWith(ctx, slug); ok && e.Slug != slug {
			http.Redirect(w, r, routeFor(base, e.Slug), http.StatusFound)
			return
		}
	}

	var buf bytes.Buffer
	if err := h.opts.Composer.ComposeNotFound(&buf, NotFoundPage{Path: r.URL.Path, Nav: nav, LinkBase: base}); err != nil {
		slog.Error("Failed to compose not-found page", logfields.Path(r.URL.Path), logfields.Error(err))
		h.notFoundPlain(w)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	_, _ = w.Write(buf.Bytes())
}

func (h *DocsHandlers) notFoundPlain(w http.ResponseWriter) {
	http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
}

// serverError logs err and renders a generic error page with the classified status.
func (h *DocsHandlers) serverError(w http.ResponseWriter, r *http.Request, err error) {
	h.errorAdapter.Log(r, err)
	status := h.errorAdapter.StatusCodeFor(err)
	if status < http.StatusInternalServerError {
		status = http.StatusInternalServerError
	}

	var buf bytes.Buffer
	if cerr := h.opts.Composer.ComposeError(&buf, status); cerr != nil {
		http.Error(w, http.StatusText(status), status)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// navTree serves the cached nav slot while it matches the current catalog
// generation and refills it from the catalog otherwise.
func (h *DocsHandlers) navTree(ctx context.Context) docmodel.NavTree {
	if h.opts.Nav == nil {
		return h.opts.Catalog.NavTree(ctx)
	}
	if tree, ok := h.opts.Nav.NavTreeAt(h.opts.Catalog.Generation(ctx)); ok {
		return tree
	}
	tree, generation := h.opts.Catalog.Navigation(ctx)
	h.opts.Nav.CacheNavTreeAt(generation, tree)
	return tree
}

// navFallback finds the first nav node whose children live under slug and
// returns its first child's path. The empty slug matches the first section.
func navFallback(tree docmodel.NavTree, slug string) (string, bool) {
	var visit func(nodes []*docmodel.NavNode) (string, bool)
	visit = func(nodes []*docmodel.NavNode) (string, bool) {
		for _, n := range nodes {
			if n == nil || len(n.Children) == 0 {
				continue
			}
			first := n.Children[0].Path
			if slug == "" || strings.HasPrefix(first, slug+"/") {
				if first != slug {
					return first, true
				}
			}
			if p, ok := visit(n.Children); ok {
				return p, true
			}
		}
		return "", false
	}
	return visit(tree)
}

// documentETag prefers the upstream validator and falls back to a weak tag
// derived from the local content fingerprint.
func documentETag(doc *docmodel.CachedDocument) string {
	if doc.ETag != "" {
		return doc.ETag
	}
	if doc.Fingerprint != "" {
		return `W/"` + doc.Fingerprint + `"`
	}
	return ""
}

// matchesETag implements the weak comparison used for If-None-Match.
func matchesETag(header, etag string) bool {
	if header == "" {
		return false
	}
	want := strings.TrimPrefix(etag, "W/")
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || strings.TrimPrefix(candidate, "W/") == want {
			return true
		}
	}
	return false
}
