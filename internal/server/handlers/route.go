package handlers

import "strings"

// VersionPrefix pins a request to an explicit ref: /v/<ref>/<slug>.
const VersionPrefix = "/v/"

// ResolveRoute splits a request path into the ref to serve and the slug.
// Without a /v/<ref>/ prefix the default ref and the whole path are used.
func ResolveRoute(requestPath, defaultRef string) (ref, slug string) {
	ref, slug, _ = resolveRoute(requestPath, defaultRef)
	return ref, slug
}

func resolveRoute(requestPath, defaultRef string) (ref, slug string, pinned bool) {
	if !strings.HasPrefix(requestPath, "/") {
		requestPath = "/" + requestPath
	}
	if rest, ok := strings.CutPrefix(requestPath, VersionPrefix); ok {
		pin, remainder, _ := strings.Cut(rest, "/")
		if pin != "" {
			return pin, strings.Trim(remainder, "/"), true
		}
	}
	return defaultRef, strings.Trim(requestPath, "/"), false
}

// linkBase is the route prefix documents on ref are linked under.
func linkBase(basePath, ref string, pinned bool) string {
	base := strings.TrimSuffix(basePath, "/")
	if pinned {
		return base + VersionPrefix + ref
	}
	return base
}

// routeFor builds the URL of slug below base.
func routeFor(base, slug string) string {
	if slug == "" {
		if base == "" {
			return "/"
		}
		return base
	}
	return base + "/" + slug
}
