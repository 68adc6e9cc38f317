// Package installer implements spec.md §4.7 and §4.8: the transactional
// install/uninstall engine that orchestrates resolve → download → verify
// → unpack → place → record, and its inverse. Grounded on the teacher's
// pkg/installer/installer.go for overall shape (functional options,
// *task.Task progress plumbing, fail-fast propagation) and on
// original_source/src/{install,uninstall}.rs for the exact step ordering
// and failure policy.
package installer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Masterminds/semver/v3"
	"github.com/clyde-pm/clyde/pkg/archos"
	"github.com/clyde-pm/clyde/pkg/cache"
	"github.com/clyde-pm/clyde/pkg/checksum"
	"github.com/clyde-pm/clyde/pkg/clydeerr"
	"github.com/clyde-pm/clyde/pkg/dbstore"
	"github.com/clyde-pm/clyde/pkg/download"
	"github.com/clyde-pm/clyde/pkg/extract"
	"github.com/clyde-pm/clyde/pkg/home"
	"github.com/clyde-pm/clyde/pkg/placement"
	"github.com/clyde-pm/clyde/pkg/store"
	"github.com/clyde-pm/clyde/pkg/vars"
	ver "github.com/clyde-pm/clyde/pkg/version"
	"github.com/flanksource/commons/logger"
)

// Installer owns the three collaborators every install/uninstall needs:
// the descriptor store, the installation database, and the home layout.
type Installer struct {
	Store *store.Store
	DB    *dbstore.DB
	Home  *home.Home
}

// New builds an Installer for a validated home.
func New(s *store.Store, db *dbstore.DB, h *home.Home) *Installer {
	return &Installer{Store: s, DB: db, Home: h}
}

// Install implements spec.md §4.7's ten-step algorithm.
func (i *Installer) Install(ctx context.Context, name, requestedVersion string, opts ...InstallOption) error {
	options := defaultOptions()
	for _, opt := range opts {
		opt(&options)
	}
	t := options.Task

	// Step 1: read descriptor, determine host arch-os.
	d, resourceDir, err := i.Store.Get(name)
	if err != nil {
		return err
	}
	host := archos.Current()

	// Step 2: resolve concrete version.
	version, ok := ver.Resolve(d, requestedVersion)
	if !ok {
		return clydeerr.New(clydeerr.NoMatchingVersion, name, fmt.Sprintf("no version matches %q", requestedVersion), nil)
	}

	// Step 3: resolve asset and install-spec.
	asset, ok := d.ResolveAsset(version, host)
	if !ok {
		return clydeerr.New(clydeerr.NoAssetForHost, name, fmt.Sprintf("no asset for %s at version %s", host, version), nil)
	}
	spec, ok := d.ResolveInstallSpec(version, host)
	if !ok {
		return clydeerr.New(clydeerr.NoInstallSpec, name, fmt.Sprintf("no install spec for %s at version %s", host, version), nil)
	}

	// Step 4: consult the database for the currently installed version.
	existing, err := i.DB.GetPackage(name)
	if err != nil {
		return err
	}
	if existing != nil {
		if existing.InstalledVersion.Original() == version && !options.Reinstall {
			return clydeerr.New(clydeerr.AlreadyInstalled, name, fmt.Sprintf("%s is already installed", version), nil)
		}
	}

	// Step 5: download and verify.
	logger.Debugf("resolved %s@%s -> %s", name, requestedVersion, version)
	assetPath, err := download.Fetch(ctx, i.Home.Download, name, version, asset.URL, download.WithTask(t))
	if err != nil {
		return err
	}
	if err := checksum.Verify(name, assetPath, asset.Sha256); err != nil {
		_ = cache.Remove(i.Home.Download, name, version, asset.URL)
		return err
	}

	// Step 6: clear and recreate scratch, unpack.
	scratchDir := filepath.Join(i.Home.Tmp, name)
	result, err := extract.Unpack(assetPath, scratchDir, spec.Strip, t)
	if err != nil {
		return err
	}

	// Step 7: uninstall the previous install, now that the new asset is
	// verified and unpacked (spec.md §4.7 step 7 ordering).
	if existing != nil {
		if err := i.Uninstall(name); err != nil {
			return err
		}
	}

	// Step 8: place files, then extra_files if a resource dir exists.
	known := buildVars(name, host, result.AssetName)
	placed, err := placement.Place(scratchDir, i.Home.Inst, spec.Files, known, placement.Move, name)
	if err != nil {
		return err
	}
	if info, statErr := os.Stat(resourceDir); statErr == nil && info.IsDir() && len(spec.ExtraFiles) > 0 {
		extraPlaced, err := placement.Place(resourceDir, i.Home.Inst, spec.ExtraFiles, known, placement.Copy, name)
		if err != nil {
			return err
		}
		placed = append(placed, extraPlaced...)
	}

	// Step 9: record in the database.
	parsedVersion, err := semver.NewVersion(version)
	if err != nil {
		return clydeerr.Wrap(clydeerr.DatabaseError, name, err)
	}
	requested := requestedVersion
	if requested == "" {
		requested = "*"
	}
	if err := i.DB.AddPackage(name, parsedVersion, requested, placed); err != nil {
		return err
	}

	// Step 10: remove the scratch directory.
	if err := os.RemoveAll(scratchDir); err != nil {
		logger.Warnf("cleaning up scratch dir %s: %v", scratchDir, err)
	}

	logger.Debugf("installed %s %s", name, version)
	return nil
}

// buildVars assembles the known variable map the install engine injects
// for §4.6's expander.
func buildVars(pkg string, host archos.ArchOs, assetName string) vars.Map {
	exeExt := ""
	if host.OS == archos.OSWindows {
		exeExt = ".exe"
	}
	m := vars.Map{
		"exe_ext":       exeExt,
		"doc_dir":       fmt.Sprintf("share/doc/%s/", pkg),
		"bash_comp_dir": "share/bash-completions/completions/",
		"zsh_comp_dir":  "share/zsh-completions/",
	}
	if assetName != "" {
		m["asset_name"] = assetName
	}
	return m
}
