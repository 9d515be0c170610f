package markdown

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docmirror/internal/docmodel"
	"git.home.luguber.info/inful/docmirror/internal/frontmatter"
)

func TestAnchorSlug(t *testing.T) {
	cases := map[string]string{
		"Overview":             "overview",
		"Hello, World!":        "hello-world",
		"  Multiple   Spaces ": "multiple-spaces",
		"Keep-hyphens v2":      "keep-hyphens-v2",
		"Ünïcode":              "ncode",
	}
	for in, want := range cases {
		require.Equal(t, want, AnchorSlug(in), in)
	}
}

func TestRender_DuplicateHeadingsGetSuffix(t *testing.T) {
	r := New(nil)
	res, err := r.Render([]byte("# Title\n\n## Overview\n\ntext\n\n## Overview\n\n### Overview\n"), "/guide")
	require.NoError(t, err)

	require.Equal(t, []docmodel.TocEntry{
		{Level: 2, Text: "Overview", Anchor: "overview"},
		{Level: 2, Text: "Overview", Anchor: "overview-2"},
		{Level: 3, Text: "Overview", Anchor: "overview-3"},
	}, res.TOC)
	require.Contains(t, res.HTML, `<h1 id="title">Title</h1>`)
	require.Contains(t, res.HTML, `<h2 id="overview-2">Overview</h2>`)
}

func TestRender_Idempotent(t *testing.T) {
	r := New(nil)
	src := []byte("---\ntitle: Setup\ntags: [a]\n---\n# Setup\n\nFirst *para*.\n\n## Install\n\n## Install\n")
	a, err := r.Render(src, "/setup")
	require.NoError(t, err)
	b, err := r.Render(src, "/setup")
	require.NoError(t, err)
	require.Equal(t, a, b)
}

func TestRender_StripsScript(t *testing.T) {
	r := New(nil)
	res, err := r.Render([]byte("# Hi\n\n<script>alert(1)</script>\n\n<p onclick=\"x()\">para</p>\n\n[bad](javascript:alert(1))\n"), "/")
	require.NoError(t, err)
	require.NotContains(t, strings.ToLower(res.HTML), "<script")
	require.NotContains(t, res.HTML, "onclick")
	require.NotContains(t, res.HTML, "javascript:")
}

func TestRender_KeepsAllowedMarkup(t *testing.T) {
	r := New(nil)
	res, err := r.Render([]byte("# T\n\n| a | b |\n|---|---|\n| 1 | 2 |\n\n```go\nfmt.Println()\n```\n\n![logo](img/logo.png)\n\n[next](../intro.md#install) and <https://example.com>\n"), "/")
	require.NoError(t, err)
	require.Contains(t, res.HTML, "<table>")
	require.Contains(t, res.HTML, `<code class="language-go">`)
	require.Contains(t, res.HTML, `<img src="img/logo.png" alt="logo">`)
	require.Contains(t, res.HTML, `href="../intro.md#install"`)
	require.Contains(t, res.HTML, `href="https://example.com"`)
}

func TestRender_MetaFallbacks(t *testing.T) {
	r := New(nil)

	res, err := r.Render([]byte("Intro paragraph\nspanning lines.\n\n## Details\n"), "/x")
	require.NoError(t, err)
	require.Equal(t, DefaultTitle, res.Meta.Title)
	require.Equal(t, "Intro paragraph spanning lines.", res.Meta.Description)
	require.Equal(t, frontmatter.OrderUnset, res.Meta.Order)
	require.Empty(t, res.Meta.Tags)

	res, err = r.Render([]byte("# Heading Title\n\nBody text.\n"), "/x")
	require.NoError(t, err)
	require.Equal(t, "Heading Title", res.Meta.Title)
	require.Equal(t, "Body text.", res.Meta.Description)

	res, err = r.Render([]byte("---\ntitle: FM\ndescription: D\nsection: guide\nsectionTitle: Guides\norder: 2\n---\n# Heading\n"), "/x")
	require.NoError(t, err)
	require.Equal(t, docmodel.Meta{Title: "FM", Description: "D", Tags: []string{}, Section: "guide", SectionTitle: "Guides", Order: 2}, res.Meta)
}

func TestRender_MalformedFrontMatterFallsBack(t *testing.T) {
	r := New(nil)
	res, err := r.Render([]byte("---\ntitle: [broken\n---\n# Real\n"), "/x")
	require.NoError(t, err)
	require.Equal(t, "Real", res.Meta.Title)
}
