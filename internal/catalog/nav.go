package catalog

import (
	"strings"

	"git.home.luguber.info/inful/docmirror/internal/docmodel"
)

const (
	documentationTitle = "Documentation"
	apiReferenceTitle  = "API Reference"
)

// buildNavTree groups sorted entries into the "Documentation" section and, when
// present, the reserved-prefix "API Reference" section.
func buildNavTree(entries []docmodel.Entry, reservedPrefix string) docmodel.NavTree {
	var docs, api []docmodel.Entry
	for _, e := range entries {
		if reservedPrefix != "" && (e.Slug == reservedPrefix || strings.HasPrefix(e.Slug, reservedPrefix+"/")) {
			api = append(api, e)
			continue
		}
		docs = append(docs, e)
	}

	tree := docmodel.NavTree{}
	if len(docs) > 0 {
		tree = append(tree, section(documentationTitle, docs, ""))
	}
	if len(api) > 0 {
		tree = append(tree, section(apiReferenceTitle, api, reservedPrefix))
	}
	return tree
}

// section groups entries by the first segment of their slug below prefix.
// An entry whose remainder equals a folder name is that folder's index page.
func section(title string, entries []docmodel.Entry, prefix string) *docmodel.NavNode {
	remainder := func(slug string) string {
		if prefix == "" {
			return slug
		}
		return strings.TrimPrefix(strings.TrimPrefix(slug, prefix), "/")
	}

	folders := make(map[string]bool)
	for _, e := range entries {
		if first, _, nested := strings.Cut(remainder(e.Slug), "/"); nested {
			folders[first] = true
		}
	}

	node := &docmodel.NavNode{Title: title}
	sectionIndex := ""
	hasSectionIndex := false
	byFolder := make(map[string]*docmodel.NavNode)

	for _, e := range entries {
		rest := remainder(e.Slug)
		first, _, nested := strings.Cut(rest, "/")

		switch {
		case rest == "" && prefix != "":
			// the reserved prefix's own index page
			sectionIndex, hasSectionIndex = e.Slug, true
			continue
		case !nested && !folders[rest]:
			node.Children = append(node.Children, &docmodel.NavNode{Title: e.Title, Path: e.Slug})
			if e.Slug == docmodel.RootSlug {
				sectionIndex, hasSectionIndex = e.Slug, true
			}
			continue
		}

		folder := byFolder[first]
		if folder == nil {
			folder = &docmodel.NavNode{Title: HumanizeSegment(first), Path: e.Slug}
			byFolder[first] = folder
			node.Children = append(node.Children, folder)
		}
		if !nested {
			folder.Path = e.Slug
			continue
		}
		folder.Children = append(folder.Children, &docmodel.NavNode{Title: e.Title, Path: e.Slug})
	}

	switch {
	case hasSectionIndex:
		node.Path = sectionIndex
	case len(node.Children) > 0:
		node.Path = node.Children[0].Path
	}
	return node
}
