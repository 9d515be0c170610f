// Package markdown renders documentation Markdown into sanitized HTML with
// stable heading anchors, a table of contents and resolved metadata.
package markdown

import (
	"bytes"
	"log/slog"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"

	"git.home.luguber.info/inful/docmirror/internal/docmodel"
	"git.home.luguber.info/inful/docmirror/internal/foundation/errors"
	"git.home.luguber.info/inful/docmirror/internal/frontmatter"
	"git.home.luguber.info/inful/docmirror/internal/logfields"
	"git.home.luguber.info/inful/docmirror/internal/metrics"
)

// DefaultTitle is used when neither front-matter nor an H1 provides a title.
const DefaultTitle = "Documentation"

// Result is the output of Render.
type Result struct {
	HTML string
	Meta docmodel.Meta
	TOC  []docmodel.TocEntry
}

// Renderer converts Markdown to sanitized HTML. It is safe for concurrent use.
type Renderer struct {
	md       goldmark.Markdown
	policy   *bluemonday.Policy
	recorder metrics.Recorder
}

// New constructs a Renderer with GFM extensions and the documentation allow-list.
func New(recorder metrics.Recorder) *Renderer {
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		// Raw HTML passes through goldmark and is filtered by the sanitizer.
		goldmark.WithRendererOptions(html.WithUnsafe()),
	)
	return &Renderer{md: md, policy: newPolicy(), recorder: recorder}
}

// Render converts markdown (with optional front-matter) to HTML, metadata and TOC.
// Rendering the same input twice yields identical output.
func (r *Renderer) Render(markdown []byte, requestPath string) (Result, error) {
	start := time.Now()
	defer func() { r.recorder.ObserveRenderDuration(time.Since(start)) }()

	fields, body := frontmatter.Parse(markdown)

	doc := r.md.Parser().Parse(text.NewReader(body))
	outline := collectOutline(doc, body)
	outline.apply(doc)

	var buf bytes.Buffer
	if err := r.md.Renderer().Render(&buf, body, doc); err != nil {
		slog.Warn("Markdown render failed", logfields.Path(requestPath), logfields.Error(err))
		return Result{}, errors.RenderError("failed to render markdown").
			WithCause(err).
			WithContext("path", requestPath).
			Build()
	}

	return Result{
		HTML: r.policy.Sanitize(buf.String()),
		Meta: resolveMeta(fields, outline),
		TOC:  outline.toc,
	}, nil
}

func resolveMeta(f frontmatter.Fields, o *outline) docmodel.Meta {
	meta := docmodel.Meta{
		Title:        f.Title,
		Description:  f.Description,
		Tags:         f.Tags,
		Section:      f.Section,
		SectionTitle: f.SectionTitle,
		Order:        f.Order,
	}
	if meta.Title == "" {
		meta.Title = o.firstH1
	}
	if meta.Title == "" {
		meta.Title = DefaultTitle
	}
	if meta.Description == "" {
		meta.Description = o.firstParagraph
	}
	if meta.Tags == nil {
		meta.Tags = []string{}
	}
	return meta
}
