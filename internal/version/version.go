// Package version holds build metadata injected via ldflags
// (-X github.com/octoseek/searchdex/internal/version.Version=... etc).
package version

import "fmt"

//nolint:revive // Set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// String renders a one-line build stamp for logs and the health report.
func String() string {
	return fmt.Sprintf("searchdex %s (%s, built %s)", Version, Commit, Date)
}
