package texlive

import (
	"runtime"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Platform is the operating system family of the runner.
type Platform string

// Supported platforms, named after GOOS.
const (
	Linux   Platform = "linux"
	Darwin  Platform = "darwin"
	Windows Platform = "windows"
)

// CurrentPlatform returns the platform of the running process.
func CurrentPlatform() Platform {
	return Platform(runtime.GOOS)
}

// IsWindows reports whether p is Windows.
func (p Platform) IsWindows() bool {
	return p == Windows
}

// DisplayName returns a human-readable platform name.
func (p Platform) DisplayName() string {
	switch p {
	case Darwin:
		return "macOS"
	case "":
		return "Unknown"
	default:
		return cases.Title(language.English).String(string(p))
	}
}
