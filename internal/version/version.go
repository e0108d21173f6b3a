// Package version holds build information injected with -ldflags, e.g.
//
//	go build -ldflags "-X github.com/longkey1/codeqa/internal/version.Version=v1.0.0"
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildTime = "unknown"
)

// Short returns the version number only
func Short() string {
	if Version == "dev" {
		if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
			return info.Main.Version
		}
	}
	return Version
}

// Info returns the full version information
func Info() string {
	return fmt.Sprintf("codeqa %s\n  commit: %s\n  built:  %s\n  go:     %s %s/%s",
		Short(), Commit, BuildTime, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
