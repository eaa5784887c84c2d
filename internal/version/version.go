// Package version carries build metadata injected with -ldflags.
package version

var (
	// Version is the tlbeval release
	Version = "dev"
	// GitSHA is the git commit SHA
	GitSHA = "unknown"
	// BuildTime is the build timestamp
	BuildTime = "unknown"
)

// String formats the build metadata for `tlbeval version`.
func String() string {
	return "tlbeval " + Version + " (" + GitSHA + ", built " + BuildTime + ")"
}
