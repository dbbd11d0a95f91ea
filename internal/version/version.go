// Package version exposes the CLI version stamped at build time.
package version

// version is injected via -ldflags; see the Build mage target.
var version = ""

// Value returns the stamped version, or an empty string for dev builds.
func Value() string {
	return version
}
