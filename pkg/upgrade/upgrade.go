// Package upgrade implements spec.md §4.9: diffing installed state
// against the store to classify each package as upgradable (acted on) or
// blocked (pinned away from an available newer version, reported only).
// Grounded on the teacher's pkg/installer/registry.go for the
// walk-all-then-report-a-plan shape, generalized from "which manager
// backend resolves this package" to "is a newer version available".
package upgrade

import (
	"context"
	"sort"

	"github.com/Masterminds/semver/v3"
	"github.com/clyde-pm/clyde/pkg/dbstore"
	"github.com/clyde-pm/clyde/pkg/installer"
	"github.com/clyde-pm/clyde/pkg/store"
	ver "github.com/clyde-pm/clyde/pkg/version"
	"github.com/flanksource/commons/logger"
)

// Status classifies one package's upgrade plan entry.
type Status string

const (
	// UpToDate means installed_version already satisfies requested_version
	// at the greatest available release.
	UpToDate Status = "up_to_date"
	// Upgradable means a greater version satisfying requested_version is
	// available in the store and will be installed.
	Upgradable Status = "upgradable"
	// Blocked means a greater version exists in the store but does not
	// satisfy requested_version (the user has pinned away from it).
	Blocked Status = "blocked"
	// Failed means the package's descriptor could not be read; the rest
	// of the plan still proceeds (spec.md §7's propagation policy).
	Failed Status = "failed"
)

// PlanEntry is one row of an upgrade plan.
type PlanEntry struct {
	Name             string
	InstalledVersion string
	RequestedVersion string
	TargetVersion    string // set for Upgradable and Blocked
	Status           Status
	Err              error // set for Failed
}

// Plan computes (without acting on) the upgrade plan for every installed
// package, per spec.md §4.9's two-pass version comparison.
func Plan(s *store.Store, db *dbstore.DB) ([]PlanEntry, error) {
	installed, err := db.GetInstalledPackages()
	if err != nil {
		return nil, err
	}

	entries := make([]PlanEntry, 0, len(installed))
	for _, pkg := range installed {
		entry := PlanEntry{
			Name:             pkg.Name,
			InstalledVersion: pkg.InstalledVersion.Original(),
			RequestedVersion: pkg.RequestedVersion,
		}

		d, _, err := s.Get(pkg.Name)
		if err != nil {
			logger.Warnf("upgrade: skipping %s: %v", pkg.Name, err)
			entry.Status = Failed
			entry.Err = err
			entries = append(entries, entry)
			continue
		}

		if target, ok := ver.Resolve(d, pkg.RequestedVersion); ok {
			if isNewer(target, entry.InstalledVersion) {
				entry.Status = Upgradable
				entry.TargetVersion = target
				entries = append(entries, entry)
				continue
			}
		}

		if target, ok := ver.Resolve(d, "*"); ok && isNewer(target, entry.InstalledVersion) {
			entry.Status = Blocked
			entry.TargetVersion = target
			entries = append(entries, entry)
			continue
		}

		entry.Status = UpToDate
		entries = append(entries, entry)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

// Run computes the plan and installs every Upgradable entry, preserving
// each package's original requested_version (spec.md §4.9 last
// paragraph). The first failing install aborts the batch, per spec.md
// §7's "multi-package commands abort on first failure" policy — the
// planner's own per-package descriptor-lookup failures are warnings, but
// once an upgrade is committed to running it fails fast like any other
// install.
func Run(ctx context.Context, inst *installer.Installer, s *store.Store, db *dbstore.DB) ([]PlanEntry, error) {
	plan, err := Plan(s, db)
	if err != nil {
		return nil, err
	}

	for _, entry := range plan {
		if entry.Status != Upgradable {
			continue
		}
		if err := inst.Install(ctx, entry.Name, entry.RequestedVersion, installer.WithReinstall(true)); err != nil {
			return plan, err
		}
	}
	return plan, nil
}

// isNewer reports whether candidate is a strictly greater version than
// current, per spec.md §4.9's "strictly greater than installed_version"
// gate. Unparseable versions never compare as newer.
func isNewer(candidate, current string) bool {
	c, err := semver.NewVersion(candidate)
	if err != nil {
		return false
	}
	cur, err := semver.NewVersion(current)
	if err != nil {
		return false
	}
	return c.GreaterThan(cur)
}
