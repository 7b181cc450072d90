package swagsync

import "fmt"

var (
	// version is set via ldflags during build by GoReleaser
	// For development builds, this will show "dev"
	version = "dev"
)

// Version returns the compiled version or 'dev' if run from source
func Version() string {
	return version
}

// UserAgent returns the User-Agent string to use for upstream HTTP calls
func UserAgent() string {
	return fmt.Sprintf("swagsync/%s", version)
}
