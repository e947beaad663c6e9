// Package version holds build metadata, set at link time with
// -ldflags "-X github.com/MrSnakeDoc/bookmarkd/internal/version.Version=...".
package version

import (
	"fmt"
	"runtime"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
	GoVersion = runtime.Version()
)

// String is the one-line build summary logged at startup.
func String() string {
	return fmt.Sprintf("bookmarkd %s (commit=%s, built=%s, go=%s)", Version, Commit, BuildDate, GoVersion)
}
