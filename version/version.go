// Package version exposes the build identity of the geodex binary.
//
// Release builds stamp Version, Commit, and Date through ldflags; a plain
// `go build` falls back to whatever the Go toolchain embedded about the
// enclosing VCS checkout.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Set by the release pipeline:
//
//	-ldflags "-X github.com/teranos/geodex/version.Version=v1.2.3 ..."
var (
	Version = "dev"
	Commit  = ""
	Date    = ""
)

// Info is the resolved build identity, serializable for --json output.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// Get resolves build identity, preferring ldflags values and filling gaps
// from the module build info embedded by the toolchain.
func Get() Info {
	info := Info{
		Version:   Version,
		Commit:    Commit,
		Date:      Date,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				if info.Commit == "" {
					info.Commit = s.Value
				}
			case "vcs.time":
				if info.Date == "" {
					info.Date = s.Value
				}
			}
		}
	}
	if info.Commit == "" {
		info.Commit = "unknown"
	}
	if info.Date == "" {
		info.Date = "unknown"
	}
	return info
}

func (i Info) String() string {
	commit := i.Commit
	if len(commit) > 7 {
		commit = commit[:7]
	}
	return fmt.Sprintf("geodex %s (commit %s, built %s)", i.Version, commit, i.Date)
}
