package installer

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/clyde-pm/clyde/pkg/clydeerr"
	"github.com/flanksource/commons/logger"
)

// Uninstall implements spec.md §4.8: remove every file the database
// recorded as owned by name, tolerating files already missing (a user may
// have deleted them by hand), then drop the package's database rows.
//
// It is called both directly (the `uninstall` command) and internally by
// Install step 7, which is why it takes only a name and relies on the
// Installer's own DB/Home rather than accepting them as parameters.
func (i *Installer) Uninstall(name string) error {
	files, err := i.DB.GetPackageFiles(name)
	if err != nil {
		return err
	}

	self, err := os.Executable()
	if err != nil {
		self = ""
	}

	for _, rel := range files {
		full := filepath.Join(i.Home.Inst, rel)
		if err := removeOwned(full, self); err != nil {
			logger.Warnf("uninstall %s: removing %s: %v", name, full, err)
		}
	}

	if err := i.DB.RemovePackage(name); err != nil {
		return err
	}
	return nil
}

// removeOwned removes a single installed file, handling the
// self-replacement hazard: on POSIX, unlinking a running executable's
// inode is always legal and the running process keeps its own open
// handle, so a plain remove suffices. On Windows the file is locked while
// mapped into a running process, so instead of failing outright we rename
// it out of the way with an underscore prefix. The renamed copy is left
// behind; nothing in Clyde removes it later.
//
// Lstat (not Stat) detects the file so a dangling symlink is still
// correctly removed rather than reported as "missing".
func removeOwned(path, self string) error {
	info, err := os.Lstat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return clydeerr.Wrap(clydeerr.IoError, "", err)
	}

	if runtime.GOOS == "windows" && isSelf(path, self) {
		renamed := filepath.Join(filepath.Dir(path), "_"+filepath.Base(path))
		if err := os.Rename(path, renamed); err != nil {
			return clydeerr.Wrap(clydeerr.IoError, "", fmt.Errorf("renaming running executable %s: %w", path, err))
		}
		return nil
	}

	if info.IsDir() {
		return nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return clydeerr.Wrap(clydeerr.IoError, "", err)
	}
	return nil
}

// isSelf reports whether path and self name the same file, comparing
// cleaned absolute paths since os.Executable may resolve symlinks
// differently than the installed path was recorded.
func isSelf(path, self string) bool {
	if self == "" {
		return false
	}
	absPath, err1 := filepath.Abs(path)
	absSelf, err2 := filepath.Abs(self)
	return err1 == nil && err2 == nil && absPath == absSelf
}
