// Package version reports the build of the chat manager.
package version

import (
	"fmt"
	"runtime/debug"
	"sync"
)

// Set with -ldflags "-X github.com/memohai/chatmanager/internal/version.Version=...".
var (
	Version    = "dev"
	CommitHash = ""
	BuildTime  = ""
)

// Info is the resolved build information.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit,omitempty"`
	BuildTime string `json:"build_time,omitempty"`
}

var (
	once     sync.Once
	resolved Info
)

// Get returns the build information, falling back to the VCS stamp
// embedded by the go toolchain when ldflags were not set.
func Get() Info {
	once.Do(func() {
		resolved = Info{Version: Version, Commit: CommitHash, BuildTime: BuildTime}
		if resolved.Commit != "" {
			return
		}
		bi, ok := debug.ReadBuildInfo()
		if !ok {
			return
		}
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				resolved.Commit = s.Value
			case "vcs.time":
				if resolved.BuildTime == "" {
					resolved.BuildTime = s.Value
				}
			}
		}
	})
	return resolved
}

// GetInfo returns the version with a short commit hash, e.g. "1.2.0 (3f9c2ab)".
func GetInfo() string {
	info := Get()
	if info.Commit == "" {
		return info.Version
	}
	short := info.Commit
	if len(short) > 7 {
		short = short[:7]
	}
	return fmt.Sprintf("%s (%s)", info.Version, short)
}
