// Package version holds the build version of the persons service.
package version

// Version is overridden at build time with
//
//	-ldflags "-X github.com/getpup/persons-api/pkg/version.Version=1.2.3"
var Version = "0.1.0-dev"
