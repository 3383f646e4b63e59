// Package version holds build metadata, set at link time with
// -ldflags "-X github.com/banshee-data/coco-export/internal/version.Version=...".
package version

import "fmt"

var (
	// Version is the current application version
	Version = "dev"
	// GitSHA is the git commit SHA
	GitSHA = "unknown"
	// BuildTime is the build timestamp
	BuildTime = "unknown"
)

// String is the -version output of a program.
func String(program string) string {
	return fmt.Sprintf("%s %s (commit %s, built %s)", program, Version, GitSHA, BuildTime)
}

// UserAgent identifies media downloads.
func UserAgent() string {
	return "coco-export/" + Version
}
