// Package version exposes build-time version metadata.
package version

// HNBlacklistVersion is the semantic version string embedded at build time.
var HNBlacklistVersion = "0.0.0-src"

// Set version at compile time with
// go build -ldflags "-X hnblacklist/pkg/version.HNBlacklistVersion=1.0.0" -o hnblacklist
