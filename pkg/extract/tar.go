package extract

import (
	"archive/tar"
	"compress/bzip2"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/clyde-pm/clyde/pkg/clydeerr"
	"github.com/ulikunitz/xz"
)

// tarUnpacker handles .tar.gz/.tgz, .tar.bz2/.tbz2 and .tar.xz archives,
// per spec.md §4.4's format table.
type tarUnpacker struct{}

func (tarUnpacker) Supports(name string, header []byte) bool {
	lower := strings.ToLower(name)
	for _, suffix := range []string{".tar.gz", ".tgz", ".tar.bz2", ".tbz2", ".tar.xz"} {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	return false
}

func (tarUnpacker) Unpack(archivePath, scratchDir string, strip int) (string, error) {
	f, err := os.Open(archivePath)
	if err != nil {
		return "", clydeerr.Wrap(clydeerr.IoError, "", err)
	}
	defer f.Close()

	r, err := tarReader(archivePath, f)
	if err != nil {
		return "", err
	}

	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", clydeerr.Wrap(clydeerr.UnsupportedArchive, "", fmt.Errorf("reading tar entry: %w", err))
		}

		rel, ok := stripPath(hdr.Name, strip)
		if !ok {
			continue
		}
		dest, err := safeJoin(scratchDir, rel)
		if err != nil {
			return "", err
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			// Directory entries are never extracted as files (spec.md §4.4);
			// implicit intermediate directories are created lazily below.
			continue
		case tar.TypeSymlink:
			if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
				return "", clydeerr.Wrap(clydeerr.IoError, "", err)
			}
			os.Remove(dest)
			if err := os.Symlink(hdr.Linkname, dest); err != nil {
				return "", clydeerr.Wrap(clydeerr.IoError, "", fmt.Errorf("creating symlink %s: %w", dest, err))
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
				return "", clydeerr.Wrap(clydeerr.IoError, "", err)
			}
			mode := os.FileMode(hdr.Mode) & 0o777
			if runtime.GOOS == "windows" {
				mode = 0o644
			}
			out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
			if err != nil {
				return "", clydeerr.Wrap(clydeerr.IoError, "", err)
			}
			if _, err := io.Copy(out, tr); err != nil {
				out.Close()
				return "", clydeerr.Wrap(clydeerr.IoError, "", fmt.Errorf("writing %s: %w", dest, err))
			}
			out.Close()
			// Executable bit preservation on POSIX (spec.md §4.4).
			if runtime.GOOS != "windows" && hdr.Mode&0o111 != 0 {
				os.Chmod(dest, mode|0o111)
			}
		}
	}
	return "", nil
}

func tarReader(name string, f *os.File) (io.Reader, error) {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".tar.gz") || strings.HasSuffix(lower, ".tgz"):
		gr, err := gzip.NewReader(f)
		if err != nil {
			return nil, clydeerr.Wrap(clydeerr.UnsupportedArchive, "", fmt.Errorf("opening gzip stream: %w", err))
		}
		return gr, nil
	case strings.HasSuffix(lower, ".tar.bz2") || strings.HasSuffix(lower, ".tbz2"):
		return bzip2.NewReader(f), nil
	case strings.HasSuffix(lower, ".tar.xz"):
		xr, err := xz.NewReader(f)
		if err != nil {
			return nil, clydeerr.Wrap(clydeerr.UnsupportedArchive, "", fmt.Errorf("opening xz stream: %w", err))
		}
		return xr, nil
	}
	return f, nil
}
