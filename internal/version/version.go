// Package version carries build metadata stamped in by the magefile.
package version

import "fmt"

// Set with -ldflags "-X github.com/dkoosis/tally/internal/version.CommitHash=...".
var (
	Version    = "dev"
	CommitHash = "unknown"
	BuildDate  = "unknown"
)

// String formats the build metadata for --version.
func String() string {
	return fmt.Sprintf("%s (commit %s, built %s)", Version, CommitHash, BuildDate)
}
