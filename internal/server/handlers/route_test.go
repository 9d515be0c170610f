package handlers

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveRoute(t *testing.T) {
	cases := []struct {
		path, ref, slug string
	}{
		{"/", "main", ""},
		{"", "main", ""},
		{"/guides/setup", "main", "guides/setup"},
		{"/guides/setup/", "main", "guides/setup"},
		{"/v/feature-x/guides/setup", "feature-x", "guides/setup"},
		{"/v/v2", "v2", ""},
		{"/v/v2/", "v2", ""},
		{"/v/", "main", "v"},
		{"/versions/list", "main", "versions/list"},
	}
	for _, tc := range cases {
		ref, slug := ResolveRoute(tc.path, "main")
		require.Equal(t, tc.ref, ref, tc.path)
		require.Equal(t, tc.slug, slug, tc.path)
	}
}

func TestRouteFor(t *testing.T) {
	require.Equal(t, "/", routeFor("", ""))
	require.Equal(t, "/docs", routeFor("/docs", ""))
	require.Equal(t, "/docs/intro", routeFor("/docs", "intro"))
	require.Equal(t, "/v/dev/intro", routeFor(linkBase("", "dev", true), "intro"))
	require.Equal(t, "/docs", linkBase("/docs/", "main", false))
}
