// Package contracts holds the types shared by the CLI, the HTTP API and
// their clients.
package contracts

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

const (
	// Version of assaymerge
	Version = "0.3.0"

	// OutputFormatVersion changes whenever the merged CSV layout does
	OutputFormatVersion = "v1"

	// APIVersion of the HTTP API
	APIVersion = "v1"
)

// Set with -ldflags "-X assaymerge/pkg/contracts.GitCommit=..."; when left
// unset they are filled from the module's VCS build info.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// VersionInfo is what /api/version and `assaymerge version` report
type VersionInfo struct {
	Version      string `json:"version"`
	BuildTime    string `json:"build_time"`
	GitCommit    string `json:"git_commit"`
	GoVersion    string `json:"go_version"`
	OS           string `json:"os"`
	Architecture string `json:"architecture"`
	OutputFormat string `json:"output_format"`
	APIVersion   string `json:"api_version"`
}

// GetVersionInfo collects version and build information
func GetVersionInfo() VersionInfo {
	info := VersionInfo{
		Version:      Version,
		BuildTime:    BuildTime,
		GitCommit:    GitCommit,
		GoVersion:    runtime.Version(),
		OS:           runtime.GOOS,
		Architecture: runtime.GOARCH,
		OutputFormat: OutputFormatVersion,
		APIVersion:   APIVersion,
	}

	if build, ok := debug.ReadBuildInfo(); ok {
		for _, s := range build.Settings {
			switch {
			case s.Key == "vcs.revision" && info.GitCommit == "unknown":
				info.GitCommit = s.Value
			case s.Key == "vcs.time" && info.BuildTime == "unknown":
				info.BuildTime = s.Value
			}
		}
	}
	return info
}

// GetVersionString returns "assaymerge v<version>"
func GetVersionString() string {
	return "assaymerge v" + Version
}

// GetFullVersionString adds build, commit and platform to GetVersionString
func GetFullVersionString() string {
	info := GetVersionInfo()
	return fmt.Sprintf("%s (output %s, built: %s, commit: %s, go: %s, os: %s/%s)",
		GetVersionString(), info.OutputFormat, info.BuildTime, info.GitCommit,
		info.GoVersion, info.OS, info.Architecture)
}
