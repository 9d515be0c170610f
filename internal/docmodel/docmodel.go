// Package docmodel holds the value types shared by the catalog, cache, fetch and
// render stages of the documentation pipeline.
package docmodel

import (
	"math"
	"time"
)

// RootSlug is the slug of the documentation landing page.
const RootSlug = ""

// OrderLast is the sort order assigned to documents without an explicit order.
const OrderLast = math.MaxInt

// Entry is one discoverable Markdown document after slug normalization.
type Entry struct {
	Slug       string `json:"slug"`
	Title      string `json:"title"`
	SourcePath string `json:"source_path"`
}

// NavNode is a node of the navigation tree. Path is a slug, not a URL.
type NavNode struct {
	Title    string     `json:"title"`
	Path     string     `json:"path"`
	Children []*NavNode `json:"children,omitempty"`
}

// NavTree is the ordered list of top-level navigation sections.
type NavTree []*NavNode

// NavLink points at a neighbouring document.
type NavLink struct {
	Title string `json:"title"`
	Path  string `json:"path"`
}

// NeighborLinks holds the previous/next documents in catalog order.
type NeighborLinks struct {
	Previous *NavLink `json:"previous,omitempty"`
	Next     *NavLink `json:"next,omitempty"`
}

// CachedDocument is a fetched Markdown body with its validators.
// A zero LastModified means the upstream did not send one.
type CachedDocument struct {
	SourcePath   string
	Body         string
	ETag         string
	LastModified time.Time
	FetchedAt    time.Time
	Fingerprint  string
}

// HasValidators reports whether a conditional request can be built from the entry.
func (d *CachedDocument) HasValidators() bool {
	return d != nil && (d.ETag != "" || !d.LastModified.IsZero())
}

// CachedAsset is a fetched binary asset with its validators.
type CachedAsset struct {
	SourcePath   string
	Bytes        []byte
	ContentType  string
	ETag         string
	LastModified time.Time
	FetchedAt    time.Time
	Fingerprint  string
}

// HasValidators reports whether a conditional request can be built from the entry.
func (a *CachedAsset) HasValidators() bool {
	return a != nil && (a.ETag != "" || !a.LastModified.IsZero())
}

// Meta is the resolved metadata of a rendered document.
type Meta struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Tags         []string `json:"tags,omitempty"`
	Section      string   `json:"section,omitempty"`
	SectionTitle string   `json:"section_title,omitempty"`
	Order        int      `json:"order"`
}

// TocEntry is a table-of-contents line for a level 2 or 3 heading.
type TocEntry struct {
	Level  int    `json:"level"`
	Text   string `json:"text"`
	Anchor string `json:"anchor"`
}

// CacheKey builds the cache key for a source path at a ref.
func CacheKey(ref, sourcePath string) string {
	return ref + ":" + sourcePath
}
