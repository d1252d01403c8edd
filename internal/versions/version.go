// Package versions provides build version information.
package versions

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"time"
)

// Version information set by build using -ldflags
var (
	// Version is the current version of the scan orchestrator
	Version = "dev"
	// Commit is the git commit hash of the build
	Commit = "unknown"
	// BuildDate is the date the binary was built
	BuildDate = "unknown"
)

// VersionInfo represents the version information of the binary
type VersionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// GetVersionInfo returns the version information, filling in what the
// linker did not set from the embedded build info
func GetVersionInfo() VersionInfo {
	commit := Commit
	buildDate := BuildDate

	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			switch setting.Key {
			case "vcs.revision":
				if commit == "unknown" {
					commit = setting.Value
				}
			case "vcs.time":
				if buildDate == "unknown" {
					buildDate = setting.Value
				}
			}
		}
	}

	if t, err := time.Parse(time.RFC3339, buildDate); err == nil {
		buildDate = t.Format(time.RFC3339)
	}

	return VersionInfo{
		Version:   Version,
		Commit:    commit,
		BuildDate: buildDate,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}
