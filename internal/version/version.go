// Package version holds the build version, set at link time with
// -ldflags "-X github.com/bnema/notebooklm-cli/internal/version.Version=v1.2.3".
package version

import "runtime/debug"

var Version = "dev"

// String prefers the link-time value and falls back to the module version
// recorded by `go install`.
func String() string {
	if Version != "dev" {
		return Version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return Version
}
