package fetch

import (
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docmirror/internal/config"
)

func TestDecide(t *testing.T) {
	cases := []struct {
		name  string
		state CacheState
		mode  config.SourceMode
		want  Decision
	}{
		{"remote miss", CacheState{}, config.SourceModeRemote, Miss},
		{"local miss", CacheState{}, config.SourceModeLocal, Miss},
		{"remote with validators", CacheState{Present: true, HasValidators: true}, config.SourceModeRemote, Refresh},
		{"remote without validators", CacheState{Present: true}, config.SourceModeRemote, Reuse},
		{"local entry", CacheState{Present: true}, config.SourceModeLocal, Refresh},
		{"local entry ignores validators", CacheState{Present: true, HasValidators: true}, config.SourceModeLocal, Refresh},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, Decide(tc.state, tc.mode))
		})
	}
	require.Equal(t, "refresh", Refresh.String())
}
