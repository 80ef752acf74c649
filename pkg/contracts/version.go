// Package contracts holds the types shared by the HTTP API, the CLI and
// the pipeline.
package contracts

import (
	"fmt"
	"runtime"
)

const (
	Version = "0.3.0"

	// DataFormatVersion changes whenever the master table columns change
	DataFormatVersion = "v1"

	// APIVersion covers the HTTP routes and websocket events
	APIVersion = "v1"
)

// Set with -ldflags "-X viewership/pkg/contracts.BuildTime=..."
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// VersionInfo is what `viewership version --json` prints
type VersionInfo struct {
	Version      string `json:"version"`
	BuildTime    string `json:"build_time"`
	GitCommit    string `json:"git_commit"`
	GoVersion    string `json:"go_version"`
	OS           string `json:"os"`
	Architecture string `json:"architecture"`
	DataFormat   string `json:"data_format"`
	APIVersion   string `json:"api_version"`
}

func GetVersionInfo() VersionInfo {
	return VersionInfo{
		Version:      Version,
		BuildTime:    BuildTime,
		GitCommit:    GitCommit,
		GoVersion:    runtime.Version(),
		OS:           runtime.GOOS,
		Architecture: runtime.GOARCH,
		DataFormat:   DataFormatVersion,
		APIVersion:   APIVersion,
	}
}

func GetVersionString() string {
	return "viewership v" + Version
}

// GetFullVersionString is the one-line form printed by the CLI
func GetFullVersionString() string {
	i := GetVersionInfo()
	return fmt.Sprintf("%s (built: %s, commit: %s, go: %s, os: %s/%s)",
		GetVersionString(), i.BuildTime, i.GitCommit, i.GoVersion, i.OS, i.Architecture)
}
