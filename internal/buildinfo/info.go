package buildinfo

import (
	"fmt"
	"runtime/debug"
)

// Name is the binary name.
const Name = "bnc"

var (
	// Version will be set via ldflags during build.
	Version = "dev"
	// Commit will be set via ldflags during build.
	Commit = "none"
	// Date will be set via ldflags during build.
	Date = "unknown"
)

// Info identifies a build. It is computed once in main and passed down.
type Info struct {
	Name    string
	Version string
	Commit  string
	Date    string
}

// Current returns the linked build values, falling back to the module
// version recorded by `go install` when no version was linked in.
func Current() Info {
	info := Info{Name: Name, Version: Version, Commit: Commit, Date: Date}
	if info.Version == "dev" {
		if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
			info.Version = bi.Main.Version
		}
	}
	return info
}

// String renders the version line printed by --version.
func (i Info) String() string {
	return fmt.Sprintf("%s (commit %s, built %s)", i.Version, i.Commit, i.Date)
}

// UserAgent is sent with outbound HTTP requests.
func (i Info) UserAgent() string {
	return i.Name + "/" + i.Version
}
