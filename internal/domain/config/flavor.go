package config

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Flavor is the configured optimisation/assertion profile of the
// toolchain build, spelled as CMake's CMAKE_BUILD_TYPE.
type Flavor string

const (
	// FlavorDebug builds without optimisation.
	FlavorDebug Flavor = "Debug"
	// FlavorRelease builds optimised; assertions stay enabled.
	FlavorRelease Flavor = "Release"
)

// String returns the CMake spelling.
func (f Flavor) String() string {
	return string(f)
}

// FlavorFor returns Debug when debug is set, Release otherwise.
func FlavorFor(debug bool) Flavor {
	if debug {
		return FlavorDebug
	}
	return FlavorRelease
}

// ParseFlavor accepts any casing of "debug" or "release".
func ParseFlavor(s string) (Flavor, error) {
	f := Flavor(cases.Title(language.Und).String(strings.ToLower(strings.TrimSpace(s))))
	switch f {
	case FlavorDebug, FlavorRelease:
		return f, nil
	default:
		return "", fmt.Errorf("unknown build flavor %q (want debug or release)", s)
	}
}
