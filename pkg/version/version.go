// Package version exposes the pybundle build version.
package version

// Version is the semantic version of the binary, injected at build time via
// ldflags. It defaults to "dev" for local builds.
var Version = "dev" //nolint:gochecknoglobals // Set via ldflags at build time

// GetVersion returns the current binary version.
func GetVersion() string {
	return Version
}
