// Package version provides build information for crmsync.
package version

import "runtime"

// Set at build time with -ldflags "-X github.com/cristianoliveira/crmsync/internal/version.Version=...".
var (
	Version = "development"
	Commit  = "unknown"
	Date    = ""
)

// Info is the build information reported by the version command.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit,omitempty"`
	Date      string `json:"date,omitempty"`
	GoVersion string `json:"goVersion"`
}

// Get returns the build information of the running binary.
func Get() Info {
	info := Info{Version: Version, Date: Date, GoVersion: runtime.Version()}
	if Commit != "unknown" {
		info.Commit = Commit
	}
	return info
}

// String returns the version with the commit appended when it is known.
func String() string {
	if Commit != "unknown" && Commit != "" {
		return Version + "+" + Commit
	}
	return Version
}
