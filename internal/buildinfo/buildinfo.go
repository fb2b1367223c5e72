// Package buildinfo carries version stamps set with -ldflags -X.
package buildinfo

import (
	"fmt"
	"runtime/debug"
)

var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// Short returns a compact build identifier for titles and logs.
func Short() string {
	if Version != "" && Version != "dev" {
		return Version
	}
	if c := commit(); c != "" {
		if len(c) > 7 {
			c = c[:7]
		}
		return c
	}
	return "dev"
}

// Long describes the build on one line.
func Long() string {
	c := commit()
	if c == "" {
		c = "unknown"
	}
	return fmt.Sprintf("tumble %s (commit %s, built %s)", Version, c, Date)
}

// commit prefers the linker stamp and falls back to the VCS revision the Go
// toolchain embeds.
func commit() string {
	if Commit != "" && Commit != "unknown" {
		return Commit
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" {
			return s.Value
		}
	}
	return ""
}
