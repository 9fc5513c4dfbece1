package version

import "fmt"

// Build information set by ldflags
var (
	Version = "dev"     // -X github.com/arthur-debert/snapback/internal/version.Version={{.Version}}
	Commit  = "unknown" // -X github.com/arthur-debert/snapback/internal/version.Commit={{.Commit}}
	Date    = "unknown" // -X github.com/arthur-debert/snapback/internal/version.Date={{.Date}}
)

// String returns the one-line version banner
func String() string {
	return fmt.Sprintf("snapback %s (commit %s, built %s)", Version, Commit, Date)
}
