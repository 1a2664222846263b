// Package texlive models TeX Live releases and the capabilities that differ
// between them.
package texlive

import (
	"context"
	"strconv"
	"strings"

	"github.com/felixgeelhaar/setup-texlive/internal/domain/fault"
	"github.com/felixgeelhaar/setup-texlive/internal/ports"
)

// Supported release range.
const (
	MinYear = 1996
	MaxYear = 2022
)

// LatestAlias is the version string that selects the newest release.
const LatestAlias = "latest"

// Release years in which behavior changed.
const (
	// YearConfCommand introduced `tlmgr conf`.
	YearConfCommand = 2010
	// YearRepositoryCommand introduced `tlmgr repository`.
	YearRepositoryCommand = 2012
	// YearPinningCommand introduced `tlmgr pinning`.
	YearPinningCommand = 2013
	// YearInfraOnlyScheme introduced `scheme-infraonly`.
	YearInfraOnlyScheme = 2016
	// YearProfileOptionRename renamed `option_*` profile keys.
	YearProfileOptionRename = 2017
)

// Version is a TeX Live release year. The zero value is invalid; use
// ParseVersion, NewVersion or Latest.
type Version struct {
	year int
}

// NewVersion returns the version for year, or a configuration error if the
// year is outside the supported range.
func NewVersion(year int) (Version, error) {
	if year < MinYear || year > MaxYear {
		return Version{}, fault.Configuration("TeX Live %d is not supported", year).
			WithSuggestion("Use a year between 1996 and 2022, or \"latest\"")
	}
	return Version{year: year}, nil
}

// MustVersion is like NewVersion but panics on error.
func MustVersion(year int) Version {
	v, err := NewVersion(year)
	if err != nil {
		panic(err)
	}
	return v
}

// Latest returns the newest supported release.
func Latest() Version {
	return Version{year: MaxYear}
}

// ParseVersion parses a release year or the "latest" alias.
func ParseVersion(s string) (Version, error) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, LatestAlias) {
		return Latest(), nil
	}
	year, err := strconv.Atoi(s)
	if err != nil || len(s) != 4 {
		return Version{}, fault.Configuration("invalid TeX Live version %q", s).
			WithContext("version").
			WithSuggestion("Use a four-digit year between 1996 and 2022, or \"latest\"")
	}
	v, err := NewVersion(year)
	if err != nil {
		return Version{}, err
	}
	return v, nil
}

// Year returns the release year.
func (v Version) Year() int {
	return v.year
}

// IsZero reports whether v is the zero value.
func (v Version) IsZero() bool {
	return v.year == 0
}

// IsLatest reports whether v is the newest supported release.
func (v Version) IsLatest() bool {
	return v.year == MaxYear
}

// Compare returns -1, 0 or +1 depending on whether v is older than, equal
// to, or newer than other.
func (v Version) Compare(other Version) int {
	switch {
	case v.year < other.year:
		return -1
	case v.year > other.year:
		return 1
	default:
		return 0
	}
}

// Before reports whether v was released before year.
func (v Version) Before(year int) bool {
	return v.year < year
}

// AtLeast reports whether v was released in or after year.
func (v Version) AtLeast(year int) bool {
	return v.year >= year
}

// String returns the release year as a string.
func (v Version) String() string {
	return strconv.Itoa(v.year)
}

// MarshalText implements encoding.TextMarshaler.
func (v Version) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *Version) UnmarshalText(text []byte) error {
	parsed, err := ParseVersion(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// ResolveLatest asks lookup for the current release and returns it when it
// is supported. Lookup failures and unsupported releases are logged and the
// compiled-in latest release is returned instead.
func ResolveLatest(ctx context.Context, lookup ports.ReleaseLookup, logger ports.Logger) Version {
	year, err := lookup.LatestRelease(ctx)
	if err != nil {
		logger.Warn(ctx, "Failed to check for the latest version of TeX Live", ports.Err(err))
		return Latest()
	}
	v, err := NewVersion(year)
	if err != nil {
		logger.Warn(ctx, "The latest release of TeX Live is not supported by this version",
			ports.F("latest", year), ports.F("using", MaxYear))
		return Latest()
	}
	logger.Info(ctx, "Latest version of TeX Live", ports.F("version", v.String()))
	return v
}
