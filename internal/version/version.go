// Package version provides build and version information for chaintour.
package version

// Version is the current release version of chaintour.
// This can be overridden at build time using:
//
//	go build -ldflags "-X github.com/AaronLay10/chaintour/internal/version.Version=x.y.z"
var Version = "0.3.0"
