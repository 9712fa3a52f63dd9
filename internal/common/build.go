package common

import (
	"fmt"
	"runtime/debug"
)

// Set with -ldflags "-X github.com/jivas-io/jvmanager/internal/common.Version=..."
var (
	Version   = "dev"
	GitCommit = "unknown"
)

type BuildInfo struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
}

// GetBuildInfo prefers linker-provided values and falls back to the module
// build info embedded by the go tool.
func GetBuildInfo() (BuildInfo, bool) {
	if Version != "dev" {
		return BuildInfo{Version: Version, GitCommit: GitCommit}, true
	}

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return BuildInfo{Version: Version, GitCommit: GitCommit}, false
	}

	build := BuildInfo{Version: info.Main.Version}
	for _, setting := range info.Settings {
		if setting.Key == "vcs.revision" {
			build.GitCommit = setting.Value
			break
		}
	}
	return build, true
}

func GetVersion() string {
	build, ok := GetBuildInfo()
	if !ok {
		return "unknown"
	}
	return fmt.Sprintf("%s (git: %s)", build.Version, build.GitCommit)
}
