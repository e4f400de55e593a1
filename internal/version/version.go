// Package version holds build metadata injected via ldflags.
package version

import "fmt"

//nolint:revive // Set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// String renders the build as "bookrag <version> (<commit>, built <date>)".
func String() string {
	return fmt.Sprintf("bookrag %s (%s, built %s)", Version, Commit, Date)
}
