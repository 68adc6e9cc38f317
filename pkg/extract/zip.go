package extract

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/clyde-pm/clyde/pkg/clydeerr"
)

// zipUnpacker handles .zip archives (spec.md §4.4).
type zipUnpacker struct{}

func (zipUnpacker) Supports(name string, header []byte) bool {
	return strings.HasSuffix(strings.ToLower(name), ".zip")
}

const zipSymlinkMode = 0o120000 // Unix external attrs high bits for S_IFLNK

func (zipUnpacker) Unpack(archivePath, scratchDir string, strip int) (string, error) {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return "", clydeerr.Wrap(clydeerr.UnsupportedArchive, "", fmt.Errorf("opening zip: %w", err))
	}
	defer r.Close()

	for _, entry := range r.File {
		rel, ok := stripPath(entry.Name, strip)
		if !ok {
			continue
		}
		dest, err := safeJoin(scratchDir, rel)
		if err != nil {
			return "", err
		}

		if entry.FileInfo().IsDir() {
			continue
		}

		unixMode := entry.ExternalAttrs >> 16
		if unixMode&zipSymlinkMode == zipSymlinkMode {
			if err := extractZipSymlink(entry, dest); err != nil {
				return "", err
			}
			continue
		}

		if err := extractZipFile(entry, dest, os.FileMode(unixMode)); err != nil {
			return "", err
		}
	}
	return "", nil
}

func extractZipSymlink(entry *zip.File, dest string) error {
	rc, err := entry.Open()
	if err != nil {
		return clydeerr.Wrap(clydeerr.IoError, "", err)
	}
	defer rc.Close()
	target, err := io.ReadAll(rc)
	if err != nil {
		return clydeerr.Wrap(clydeerr.IoError, "", err)
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return clydeerr.Wrap(clydeerr.IoError, "", err)
	}
	os.Remove(dest)
	if err := os.Symlink(string(target), dest); err != nil {
		return clydeerr.Wrap(clydeerr.IoError, "", fmt.Errorf("creating symlink %s: %w", dest, err))
	}
	return nil
}

func extractZipFile(entry *zip.File, dest string, unixMode os.FileMode) error {
	rc, err := entry.Open()
	if err != nil {
		return clydeerr.Wrap(clydeerr.IoError, "", err)
	}
	defer rc.Close()

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return clydeerr.Wrap(clydeerr.IoError, "", err)
	}

	mode := os.FileMode(0o644)
	if runtime.GOOS != "windows" && unixMode.Perm() != 0 {
		mode = unixMode.Perm()
	}
	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return clydeerr.Wrap(clydeerr.IoError, "", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, rc); err != nil {
		return clydeerr.Wrap(clydeerr.IoError, "", fmt.Errorf("writing %s: %w", dest, err))
	}

	// Executable bit preservation on POSIX (spec.md §4.4).
	if runtime.GOOS != "windows" && unixMode&0o111 != 0 {
		os.Chmod(dest, mode|0o111)
	}
	return nil
}
