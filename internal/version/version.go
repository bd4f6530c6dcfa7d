// Package version reports build metadata.
package version

import (
	"fmt"
	"runtime/debug"
)

// Set with -ldflags "-X github.com/example/mes/internal/version.Commit=...".
// When unset, Commit falls back to the VCS revision the Go toolchain embeds.
var (
	Version   = "dev"
	Commit    = ""
	BuildTime = "unknown"
)

// readBuildInfo is swapped in tests.
var readBuildInfo = debug.ReadBuildInfo

// String returns e.g. "mes dev (commit: 0123456, built: 2026-03-02T08:00:00Z)".
// A "+dirty" suffix marks builds from a modified tree.
func String() string {
	return fmt.Sprintf("mes %s (commit: %s, built: %s)", Version, commit(), BuildTime)
}

func commit() string {
	if Commit != "" {
		return short(Commit)
	}

	info, ok := readBuildInfo()
	if !ok {
		return "unknown"
	}
	rev, dirty := "", false
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			rev = s.Value
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	if rev == "" {
		return "unknown"
	}
	if dirty {
		return short(rev) + "+dirty"
	}
	return short(rev)
}

func short(rev string) string {
	if len(rev) > 7 {
		return rev[:7]
	}
	return rev
}
