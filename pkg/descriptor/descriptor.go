// Package descriptor models the package descriptor data described in
// spec.md §3: a name, metadata, a map of releases keyed by version and
// (arch, os), and a sparse map of install-specs keyed the same way.
package descriptor

import (
	"fmt"
	"sort"

	"github.com/Masterminds/semver/v3"
	"github.com/clyde-pm/clyde/pkg/archos"
	"github.com/samber/lo"
)

// Asset is a downloadable release artifact with a content hash.
type Asset struct {
	URL    string `yaml:"url"`
	Sha256 string `yaml:"sha256"`
}

// FileEntry is one entry of an install-spec's ordered files mapping.
// Descriptors serialize this as an ordered YAML mapping; we keep
// insertion order because later components (placement) must walk
// entries deterministically.
type FileEntry struct {
	Src string
	Dst string
}

// InstallSpec is the per-version, per-arch-os mapping from archive-relative
// paths to prefix-relative paths, plus strip count and optional test commands.
type InstallSpec struct {
	Strip      int
	Files      []FileEntry
	ExtraFiles []FileEntry
	Tests      []string
}

// FetcherKind is the tag discriminating which update-fetcher a descriptor
// declares. The install core never acts on it (spec.md §9); it is carried
// faithfully for the auxiliary tooling in pkg/fetcher.
type FetcherKind string

const (
	FetcherAuto    FetcherKind = "auto"
	FetcherOff     FetcherKind = "off"
	FetcherGitHub  FetcherKind = "github"
	FetcherGitLab  FetcherKind = "gitlab"
	FetcherForgejo FetcherKind = "forgejo"
	FetcherScript  FetcherKind = "script"
)

// Fetcher is the opaque (to the core) fetcher configuration tag.
type Fetcher struct {
	Kind        FetcherKind
	Repository  string // GitHub{...} / GitLab{...} / Forgejo{...}: "owner/repo"
	BaseURL     string // GitLab{...} / Forgejo{...}: self-hosted instance base URL
	Command     string // Script: the command to run
	VersionExpr string // GitHub{...} / GitLab{...} / Forgejo{...}: optional CEL expression filtering/renaming discovered release candidates
}

// Descriptor is a single package's full definition.
type Descriptor struct {
	Name        string
	Description string
	Homepage    string
	Repository  string
	Fetcher     Fetcher

	// Releases maps version -> arch-os -> asset. Sparse: not every
	// version needs every arch-os.
	Releases map[string]map[archos.ArchOs]Asset

	// Installs maps version -> arch-os -> install-spec. Sparse: an
	// install-spec applies from its version up to (excluding) the next
	// recorded installs-version, per spec.md §3 "Install lookup".
	Installs map[string]map[archos.ArchOs]InstallSpec
}

// SortedReleaseVersions returns the descriptor's release versions sorted in
// descending semantic-version order, skipping any key that fails to parse
// (descriptors are validated at load time; this is a defensive fallback for
// callers operating on a Descriptor built by hand, e.g. in tests).
func (d *Descriptor) SortedReleaseVersions() []*semver.Version {
	return sortedVersions(keys(d.Releases))
}

// SortedInstallVersions returns the descriptor's installs-version keys in
// descending order.
func (d *Descriptor) SortedInstallVersions() []*semver.Version {
	return sortedVersions(keys(d.Installs))
}

func keys[V any](m map[string]V) []string {
	return lo.Keys(m)
}

func sortedVersions(raw []string) []*semver.Version {
	versions := make([]*semver.Version, 0, len(raw))
	for _, r := range raw {
		v, err := semver.NewVersion(r)
		if err != nil {
			continue
		}
		versions = append(versions, v)
	}
	sort.Sort(sort.Reverse(bySemver(versions)))
	return versions
}

type bySemver []*semver.Version

func (b bySemver) Len() int           { return len(b) }
func (b bySemver) Less(i, j int) bool { return b[i].LessThan(b[j]) }
func (b bySemver) Swap(i, j int)      { b[i], b[j] = b[j], b[i] }

// ResolveAsset implements the asset lookup fallback ladder from spec.md §3:
// try (arch, os), then (any, os), then (arch, any), then (any, any).
func (d *Descriptor) ResolveAsset(version string, host archos.ArchOs) (Asset, bool) {
	assets, ok := d.Releases[version]
	if !ok {
		return Asset{}, false
	}
	for _, key := range archos.Ladder(host) {
		if a, ok := assets[key]; ok {
			return a, true
		}
	}
	return Asset{}, false
}

// ResolveInstallSpec implements "Install lookup" from spec.md §3: find the
// greatest installs-version <= the requested version, then apply the same
// arch/os fallback ladder within that version.
func (d *Descriptor) ResolveInstallSpec(version string, host archos.ArchOs) (InstallSpec, bool) {
	target, err := semver.NewVersion(version)
	if err != nil {
		return InstallSpec{}, false
	}

	var best *semver.Version
	for _, v := range d.SortedInstallVersions() {
		if !v.GreaterThan(target) {
			best = v
			break
		}
	}
	if best == nil {
		return InstallSpec{}, false
	}

	specs := d.Installs[best.Original()]
	if specs == nil {
		// Original() may not match the map key verbatim (e.g. leading "v");
		// fall back to a direct string scan keyed by parsed equality.
		for k, v := range d.Installs {
			if kv, err := semver.NewVersion(k); err == nil && kv.Equal(best) {
				specs = v
				break
			}
		}
	}
	for _, key := range archos.Ladder(host) {
		if s, ok := specs[key]; ok {
			return s, true
		}
	}
	return InstallSpec{}, false
}

// Validate checks the invariants from spec.md §3: name matches filename
// stem (checked by the caller, which knows the path), every version key
// parses as semver, every release resolves to some install-spec, and no
// destination escapes the prefix.
func (d *Descriptor) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("descriptor has no name")
	}
	if len(d.Releases) == 0 {
		return fmt.Errorf("descriptor %s has no releases", d.Name)
	}

	for version, assets := range d.Releases {
		if _, err := semver.NewVersion(version); err != nil {
			return fmt.Errorf("descriptor %s: invalid version key %q: %w", d.Name, version, err)
		}
		if len(assets) == 0 {
			return fmt.Errorf("descriptor %s: release %s has no assets", d.Name, version)
		}
		for key, asset := range assets {
			if asset.URL == "" {
				return fmt.Errorf("descriptor %s: release %s/%s has no url", d.Name, version, key)
			}
			if asset.Sha256 == "" {
				return fmt.Errorf("descriptor %s: release %s/%s has no sha256", d.Name, version, key)
			}
			if _, ok := d.ResolveInstallSpec(version, key); !ok {
				return fmt.Errorf("descriptor %s: release %s/%s has no matching install-spec", d.Name, version, key)
			}
		}
	}

	for version := range d.Installs {
		if _, err := semver.NewVersion(version); err != nil {
			return fmt.Errorf("descriptor %s: invalid installs version key %q: %w", d.Name, version, err)
		}
	}

	for version, specs := range d.Installs {
		for key, spec := range specs {
			for _, f := range append(append([]FileEntry{}, spec.Files...), spec.ExtraFiles...) {
				if err := validateDestination(f.Dst); err != nil {
					return fmt.Errorf("descriptor %s: installs %s/%s: %w", d.Name, version, key, err)
				}
			}
		}
	}

	return nil
}

func validateDestination(dst string) error {
	if dst == "" {
		return nil // empty destination takes the source's relative path
	}
	if len(dst) > 0 && dst[0] == '/' {
		return fmt.Errorf("destination %q must not be absolute", dst)
	}
	// no ".." path component anywhere
	start := 0
	for i := 0; i <= len(dst); i++ {
		if i == len(dst) || dst[i] == '/' {
			if dst[start:i] == ".." {
				return fmt.Errorf("destination %q must not contain ..", dst)
			}
			start = i + 1
		}
	}
	return nil
}
