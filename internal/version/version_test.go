package version

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestString(t *testing.T) {
	old := Version
	t.Cleanup(func() { Version = old })

	Version = "v1.2.3"
	require.Contains(t, String(), "docmirror v1.2.3")
	require.Contains(t, String(), "commit "+GitCommit)
}
