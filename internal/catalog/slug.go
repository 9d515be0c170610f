package catalog

import (
	"bufio"
	"bytes"
	"path"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"git.home.luguber.info/inful/docmirror/internal/docmodel"
	"git.home.luguber.info/inful/docmirror/internal/frontmatter"
)

// isMarkdownFile reports whether name has a Markdown extension.
func isMarkdownFile(name string) bool {
	ext := strings.ToLower(path.Ext(name))
	return ext == ".md" || ext == ".markdown"
}

// DeriveSlug maps a root-prefixed source path (e.g. "docs/guide/setup.md") to its
// slug. ok is false for paths outside root or non-Markdown files.
func DeriveSlug(sourcePath, root, rootDocument string) (slug string, ok bool) {
	rel := strings.TrimPrefix(sourcePath, "/")
	if root != "" {
		var found bool
		rel, found = strings.CutPrefix(rel, root+"/")
		if !found {
			return "", false
		}
	}
	if !isMarkdownFile(rel) {
		return "", false
	}

	rel = strings.ToLower(rel)
	rel = strings.TrimSuffix(strings.TrimSuffix(rel, ".md"), ".markdown")

	dir, base := path.Split(rel)
	dir = strings.TrimSuffix(dir, "/")
	switch {
	case base == "readme" || base == "index":
		return dir, true
	case dir == "" && rootDocument != "" && base == strings.ToLower(rootDocument):
		return docmodel.RootSlug, true
	}
	return rel, true
}

// TitleFromContent returns the text of the first level-1 ATX heading, skipping
// front-matter and fenced code blocks.
func TitleFromContent(content []byte) string {
	if _, body, had, err := frontmatter.Split(content); err == nil && had {
		content = body
	}
	sc := bufio.NewScanner(bytes.NewReader(content))
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	inFence := false
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			inFence = !inFence
			continue
		}
		if inFence {
			continue
		}
		if t, ok := strings.CutPrefix(line, "# "); ok {
			t = strings.TrimSpace(strings.TrimRight(strings.TrimSpace(t), "#"))
			if t != "" {
				return t
			}
		}
	}
	return ""
}

// HumanizeSegment turns "getting-started" into "Getting Started".
func HumanizeSegment(seg string) string {
	seg = strings.NewReplacer("-", " ", "_", " ").Replace(seg)
	// Casers are stateful; one per call keeps this safe for concurrent use.
	return cases.Title(language.English).String(strings.Join(strings.Fields(seg), " "))
}

// fallbackTitle derives a title from the slug when the content has no H1.
func fallbackTitle(slug string) string {
	if slug == docmodel.RootSlug {
		return "Overview"
	}
	return HumanizeSegment(path.Base(slug))
}
