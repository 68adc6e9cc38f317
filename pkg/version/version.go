// Package version resolves a cargo-style semver requirement against a
// descriptor's own recorded release versions. This is a pure function over
// data the descriptor already carries — no network access, no discovery.
package version

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/clyde-pm/clyde/pkg/descriptor"
)

// Resolve implements spec.md §4.2: given a descriptor and a cargo-style
// version requirement, return the best-matching concrete version string.
// Candidates are walked in descending semantic-version order and the
// first one satisfying req wins, so among ties the greatest version is
// preferred. Pre-release versions participate in ordering but only match
// a requirement that explicitly asks for a pre-release, which is
// Masterminds/semver's default constraint-checking behavior.
func Resolve(d *descriptor.Descriptor, req string) (string, bool) {
	c, err := semver.NewConstraint(normalizeRequirement(req))
	if err != nil {
		return "", false
	}

	for _, v := range d.SortedReleaseVersions() {
		if c.Check(v) {
			return v.Original(), true
		}
	}
	return "", false
}

func normalizeRequirement(req string) string {
	if req == "" {
		return "*"
	}
	return req
}

// LooksLikeExactVersion reports whether req names one specific version
// rather than a range, for callers parsing the `NAME@REQ` argument
// grammar (spec.md §6).
func LooksLikeExactVersion(req string) bool {
	if req == "" || strings.ContainsAny(req, "*^~><=, ") {
		return false
	}
	_, err := semver.StrictNewVersion(req)
	return err == nil
}

// Satisfies reports whether version satisfies req, for callers (upgrade
// planning) that already have a candidate version in hand.
func Satisfies(version, req string) (bool, error) {
	v, err := semver.NewVersion(version)
	if err != nil {
		return false, fmt.Errorf("invalid version %q: %w", version, err)
	}
	c, err := semver.NewConstraint(normalizeRequirement(req))
	if err != nil {
		return false, fmt.Errorf("invalid requirement %q: %w", req, err)
	}
	return c.Check(v), nil
}
