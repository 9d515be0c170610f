// Package version exposes build metadata set via ldflags:
// go build -ldflags "-X git.home.luguber.info/inful/docmirror/internal/version.Version=v0.3.0".
package version

import "fmt"

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String formats the build metadata for CLI output.
func String() string {
	return fmt.Sprintf("docmirror %s (commit %s, built %s)", Version, GitCommit, BuildTime)
}
