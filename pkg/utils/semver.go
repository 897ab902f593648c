package utils

import (
	"sort"

	"github.com/Masterminds/semver/v3"
	"github.com/rs/zerolog/log"
)

// ParseVersion parses a version string as semver.
func ParseVersion(version string) (*semver.Version, error) {
	return semver.NewVersion(version)
}

// MaxVersion returns the version string with the greatest parsed value.
// Unparseable entries are logged and ignored; if nothing parses, the
// lexicographic maximum of the raw strings is returned so a single
// result is still produced. The empty string is returned only for an
// empty input.
func MaxVersion(versions []string) string {
	var (
		max    *semver.Version
		maxRaw string
	)
	for _, v := range versions {
		sv, err := semver.NewVersion(v)
		if err != nil {
			log.Warn().Str("version", v).Err(err).Msg("skipping unparseable version")
			continue
		}
		if max == nil || sv.GreaterThan(max) {
			max = sv
			maxRaw = v
		}
	}
	if max != nil {
		return maxRaw
	}
	for _, v := range versions {
		if v > maxRaw {
			maxRaw = v
		}
	}
	return maxRaw
}

// SortVersionsDescending orders version strings newest first.
// Unparseable entries sink to the end in their original order.
func SortVersionsDescending(versions []string) []string {
	type entry struct {
		raw    string
		parsed *semver.Version
	}
	entries := make([]entry, len(versions))
	for i, v := range versions {
		sv, err := semver.NewVersion(v)
		if err != nil {
			log.Warn().Str("version", v).Err(err).Msg("skipping unparseable version")
		}
		entries[i] = entry{raw: v, parsed: sv}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i].parsed, entries[j].parsed
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.GreaterThan(b)
		}
	})
	result := make([]string, len(entries))
	for i, e := range entries {
		result[i] = e.raw
	}
	return result
}

// CompareVersions orders two version strings by parsed value: -1, 0 or 1.
// An unparseable version orders before any parseable one.
func CompareVersions(a, b string) int {
	av, aerr := semver.NewVersion(a)
	bv, berr := semver.NewVersion(b)
	switch {
	case aerr != nil && berr != nil:
		return 0
	case aerr != nil:
		return -1
	case berr != nil:
		return 1
	}
	return av.Compare(bv)
}

// IsPrerelease reports whether a version carries a prerelease tag.
func IsPrerelease(version string) bool {
	sv, err := semver.NewVersion(version)
	if err != nil {
		return false
	}
	return sv.Prerelease() != ""
}
