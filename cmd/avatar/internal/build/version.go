// Package build holds build-time version information injected via ldflags.
//
//	go build -ldflags "-X github.com/haivivi/avatar/cmd/avatar/internal/build.Version=v1.0.0 \
//	  -X github.com/haivivi/avatar/cmd/avatar/internal/build.Commit=$(git rev-parse --short HEAD) \
//	  -X github.com/haivivi/avatar/cmd/avatar/internal/build.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
//
// Without ldflags, Commit and Date fall back to the VCS stamp the go tool
// embeds in the binary.
package build

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// These variables are set at build time via -ldflags.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// String returns a formatted version string.
func String() string {
	commit, date := Commit, Date
	if info, ok := debug.ReadBuildInfo(); ok {
		commit, date = fromSettings(info.Settings, commit, date)
	}
	return fmt.Sprintf("avatar %s (%s) built %s %s/%s",
		Version, commit, date, runtime.GOOS, runtime.GOARCH)
}

// fromSettings fills unset commit and date from vcs.* build settings.
func fromSettings(settings []debug.BuildSetting, commit, date string) (string, string) {
	for _, s := range settings {
		switch s.Key {
		case "vcs.revision":
			if commit == "unknown" && s.Value != "" {
				commit = s.Value[:min(len(s.Value), 7)]
			}
		case "vcs.time":
			if date == "unknown" && s.Value != "" {
				date = s.Value
			}
		}
	}
	return commit, date
}
