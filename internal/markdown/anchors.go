package markdown

import (
	"strconv"
	"strings"

	gmast "github.com/yuin/goldmark/ast"

	"git.home.luguber.info/inful/docmirror/internal/docmodel"
)

// outline is the result of the first walk: one anchor per heading in pre-order,
// plus the title and description fallbacks.
type outline struct {
	anchors        []string
	toc            []docmodel.TocEntry
	firstH1        string
	firstParagraph string
}

// collectOutline walks the document once, assigning unique anchors by heading ordinal.
func collectOutline(doc gmast.Node, source []byte) *outline {
	o := &outline{toc: []docmodel.TocEntry{}}
	used := make(map[string]bool)

	_ = gmast.Walk(doc, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *gmast.Heading:
			txt := plainText(node, source)
			anchor := uniqueAnchor(AnchorSlug(txt), used)
			o.anchors = append(o.anchors, anchor)
			if node.Level == 1 && o.firstH1 == "" {
				o.firstH1 = txt
			}
			if node.Level == 2 || node.Level == 3 {
				o.toc = append(o.toc, docmodel.TocEntry{Level: node.Level, Text: txt, Anchor: anchor})
			}
			return gmast.WalkSkipChildren, nil
		case *gmast.Paragraph:
			if o.firstParagraph == "" {
				o.firstParagraph = plainText(node, source)
			}
			return gmast.WalkSkipChildren, nil
		}
		return gmast.WalkContinue, nil
	})
	return o
}

// apply is the second walk: it sets each heading's id from the anchor at the
// same ordinal.
func (o *outline) apply(doc gmast.Node) {
	i := 0
	_ = gmast.Walk(doc, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		if h, ok := n.(*gmast.Heading); ok {
			if i < len(o.anchors) {
				h.SetAttributeString("id", []byte(o.anchors[i]))
			}
			i++
			return gmast.WalkSkipChildren, nil
		}
		return gmast.WalkContinue, nil
	})
}

// AnchorSlug lower-cases s, drops characters outside [a-z0-9 whitespace -] and
// joins whitespace runs with a single hyphen.
func AnchorSlug(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		case r == ' ', r == '\t', r == '\n', r == '\r', r == '\f', r == '\v':
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), "-")
}

func uniqueAnchor(base string, used map[string]bool) string {
	if base == "" {
		base = "section"
	}
	candidate := base
	for n := 2; used[candidate]; n++ {
		candidate = base + "-" + strconv.Itoa(n)
	}
	used[candidate] = true
	return candidate
}

// plainText concatenates the literal text below n.
func plainText(n gmast.Node, source []byte) string {
	var b strings.Builder
	var walk func(gmast.Node)
	walk = func(n gmast.Node) {
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			switch t := c.(type) {
			case *gmast.Text:
				b.Write(t.Segment.Value(source))
				if t.SoftLineBreak() || t.HardLineBreak() {
					b.WriteByte(' ')
				}
			case *gmast.String:
				b.Write(t.Value)
			case *gmast.RawHTML:
				// inline markup contributes no text
			default:
				walk(c)
			}
		}
	}
	walk(n)
	return strings.Join(strings.Fields(b.String()), " ")
}
