// Package version carries build metadata. Version and BuildDate are set with
// -ldflags "-X github.com/keshon/luci/internal/version.Version=...".
package version

import "runtime/debug"

const AppName = "Luci"

var (
	Version   = "dev"
	BuildDate = ""
)

// String returns the version, falling back to the module version recorded
// by the Go toolchain.
func String() string {
	if Version != "dev" {
		return Version
	}
	if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		return bi.Main.Version
	}
	return Version
}
