// Package placement implements the file-placement engine from spec.md
// §4.5: evaluating an install-spec's files/extra_files maps against a
// scratch directory (or a package's extra_files resource directory) and
// a prefix, producing the set of prefix-relative paths to record in the
// database. Grounded on pkg/installer/installer.go's move/copy helpers
// and pkg/installer/directory_moving_test.go's directory-recursion
// expectations, generalized to the descriptor's (src, dst) file maps.
package placement

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/clyde-pm/clyde/pkg/clydeerr"
	"github.com/clyde-pm/clyde/pkg/descriptor"
	"github.com/clyde-pm/clyde/pkg/vars"
	"github.com/flanksource/commons/logger"
)

// Mode selects whether an entry's source files are moved (the scratch
// tree is disposable) or copied (extra_files live in the store and must
// survive), per spec.md §4.5.
type Mode int

const (
	Move Mode = iota
	Copy
)

// Place evaluates one files/extra_files map against baseDir (the
// directory the map's sources are relative to) and prefix (the
// installation root), returning every prefix-relative path it placed.
func Place(baseDir, prefix string, entries []descriptor.FileEntry, known vars.Map, mode Mode, pkg string) ([]string, error) {
	var placed []string
	for _, entry := range entries {
		src, err := vars.ExpandChecked(entry.Src, known)
		if err != nil {
			return placed, clydeerr.Wrap(clydeerr.UnknownVariable, pkg, err)
		}
		dst, err := vars.ExpandChecked(entry.Dst, known)
		if err != nil {
			return placed, clydeerr.Wrap(clydeerr.UnknownVariable, pkg, err)
		}

		srcPath := filepath.Join(baseDir, filepath.FromSlash(src))
		info, err := os.Lstat(srcPath)
		if err != nil {
			return placed, clydeerr.Wrap(clydeerr.IoError, pkg, fmt.Errorf("placing %s: %w", src, err))
		}

		if info.IsDir() {
			dirDst := dst
			if dirDst == "" {
				dirDst = src
			}
			rel, err := placeDir(srcPath, prefix, dirDst, mode, pkg)
			if err != nil {
				return placed, err
			}
			placed = append(placed, rel...)
			continue
		}

		destRel := destinationFor(src, dst)
		if err := placeOne(srcPath, filepath.Join(prefix, filepath.FromSlash(destRel)), mode, pkg); err != nil {
			return placed, err
		}
		placed = append(placed, destRel)
	}
	return placed, nil
}

// destinationFor implements spec.md §4.5's dst rules: a trailing slash
// takes the source basename, an empty dst takes src's own path.
func destinationFor(src, dst string) string {
	if dst == "" {
		return src
	}
	if dst[len(dst)-1] == '/' {
		return path.Join(dst, path.Base(src))
	}
	return dst
}

// placeDir recurses through a source directory, placing every contained
// file under dst while preserving the relative layout underneath it —
// the mechanism by which a package installs an entire share/ subtree.
func placeDir(srcDir, prefix, dst string, mode Mode, pkg string) ([]string, error) {
	var placed []string
	err := filepath.WalkDir(srcDir, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(srcDir, p)
		if err != nil {
			return err
		}
		relSlash := filepath.ToSlash(rel)
		destRel := path.Join(dst, relSlash)
		if err := placeOne(p, filepath.Join(prefix, filepath.FromSlash(destRel)), mode, pkg); err != nil {
			return err
		}
		placed = append(placed, destRel)
		return nil
	})
	if err != nil {
		return placed, clydeerr.Wrap(clydeerr.IoError, pkg, fmt.Errorf("placing directory %s: %w", srcDir, err))
	}
	return placed, nil
}

func placeOne(src, dst string, mode Mode, pkg string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return clydeerr.Wrap(clydeerr.IoError, pkg, fmt.Errorf("creating directory for %s: %w", dst, err))
	}

	switch mode {
	case Move:
		if err := moveFile(src, dst); err != nil {
			return clydeerr.Wrap(clydeerr.IoError, pkg, fmt.Errorf("moving %s to %s: %w", src, dst, err))
		}
	case Copy:
		if err := copyFile(src, dst); err != nil {
			return clydeerr.Wrap(clydeerr.IoError, pkg, fmt.Errorf("copying %s to %s: %w", src, dst, err))
		}
	}
	logger.Debugf("placed %s -> %s (mode=%v)", src, dst, mode)
	return nil
}

func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	// Cross-device rename (scratch and prefix on different filesystems):
	// fall back to copy-then-remove, same as a plain move would do.
	if err := copyFile(src, dst); err != nil {
		return err
	}
	return os.Remove(src)
}

func copyFile(src, dst string) error {
	info, err := os.Lstat(src)
	if err != nil {
		return err
	}
	if info.Mode()&os.ModeSymlink != 0 {
		target, err := os.Readlink(src)
		if err != nil {
			return err
		}
		os.Remove(dst)
		return os.Symlink(target, dst)
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
