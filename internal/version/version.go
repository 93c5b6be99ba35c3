// Package version carries build identification, injected at link time via
// -ldflags "-X github.com/flowbox-vr/flowbox/internal/version.Version=...".
package version

var (
	// Version is the current engine version
	Version = "dev"
	// GitSHA is the git commit SHA
	GitSHA = "unknown"
	// BuildTime is the build timestamp
	BuildTime = "unknown"
)

// String formats the build identification for banners and health output.
func String() string {
	return Version + " (" + GitSHA + ", built " + BuildTime + ")"
}
