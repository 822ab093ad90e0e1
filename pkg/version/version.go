// Package version exposes build-time version information for skillet.
package version

// These are overridden at build time via -ldflags.
var (
	// Version is the current skillet version.
	Version = "dev"

	// GitCommit is the git commit SHA that was built.
	GitCommit = "unknown"
)

// Info represents version information.
type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"gitCommit"`
}

// Get returns the version information.
func Get() Info {
	return Info{
		Version:   Version,
		GitCommit: GitCommit,
	}
}
