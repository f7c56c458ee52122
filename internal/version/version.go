// Package version provides build and version information.
package version

import "fmt"

// Version is the current application version.
const Version = "0.3.0"

// Commit is set at build time with -ldflags "-X .../version.Commit=...".
var Commit = ""

// UserAgent is sent with every outbound HTTP request.
func UserAgent() string {
	if Commit != "" {
		return fmt.Sprintf("ls-spacelight/%s (%s)", Version, Commit)
	}
	return "ls-spacelight/" + Version
}

// Milestones:
// 0.3.0 - Feed pollers with staleness tracking, SGP4 ISS fallback, metrics endpoint
// 0.2.0 - Moon phase and rise/set, aurora threshold from Kp
// 0.1.0 - Initial release: sky visibility TUI, headless summary and JSON
