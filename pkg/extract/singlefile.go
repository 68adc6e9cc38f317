package extract

import (
	"bytes"
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

// singleFileUnpacker handles a single compressed, non-tar file:
// .gz/.bz2/.xz (spec.md §4.4). It reports the decompressed name so the
// install map's ${asset_name} variable can reference it.
type singleFileUnpacker struct{}

func (singleFileUnpacker) Supports(name string, header []byte) bool {
	lower := strings.ToLower(name)
	if strings.HasSuffix(lower, ".tar.gz") || strings.HasSuffix(lower, ".tgz") ||
		strings.HasSuffix(lower, ".tar.bz2") || strings.HasSuffix(lower, ".tbz2") ||
		strings.HasSuffix(lower, ".tar.xz") {
		return false
	}
	return strings.HasSuffix(lower, ".gz") || strings.HasSuffix(lower, ".bz2") || strings.HasSuffix(lower, ".xz")
}

func (singleFileUnpacker) Unpack(archivePath, scratchDir string, strip int) (string, error) {
	f, err := os.Open(archivePath)
	if err != nil {
		return "", clydeerr.Wrap(clydeerr.IoError, "", err)
	}
	defer f.Close()

	lower := strings.ToLower(archivePath)
	base := filepath.Base(archivePath)
	var r io.Reader
	var outName string

	switch {
	case strings.HasSuffix(lower, ".gz"):
		gr, err := gzip.NewReader(f)
		if err != nil {
			return "", clydeerr.Wrap(clydeerr.UnsupportedArchive, "", fmt.Errorf("opening gzip stream: %w", err))
		}
		defer gr.Close()
		r = gr
		outName = strings.TrimSuffix(base, filepath.Ext(base))
		if gr.Name != "" {
			outName = gr.Name
		}
	case strings.HasSuffix(lower, ".bz2"):
		r = bzip2.NewReader(f)
		outName = strings.TrimSuffix(base, filepath.Ext(base))
	case strings.HasSuffix(lower, ".xz"):
		xr, err := xz.NewReader(f)
		if err != nil {
			return "", clydeerr.Wrap(clydeerr.UnsupportedArchive, "", fmt.Errorf("opening xz stream: %w", err))
		}
		r = xr
		outName = strings.TrimSuffix(base, filepath.Ext(base))
	default:
		return "", clydeerr.Wrap(clydeerr.UnsupportedArchive, "", fmt.Errorf("unrecognized single-file archive: %s", archivePath))
	}

	dest := filepath.Join(scratchDir, outName)
	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return "", clydeerr.Wrap(clydeerr.IoError, "", err)
	}
	defer out.Close()
	if _, err := io.Copy(out, r); err != nil {
		return "", clydeerr.Wrap(clydeerr.IoError, "", fmt.Errorf("decompressing %s: %w", archivePath, err))
	}

	// Single-file paths force +x on POSIX (spec.md §4.4).
	if runtime.GOOS != "windows" {
		os.Chmod(dest, 0o755)
	}
	return outName, nil
}

// executableUnpacker handles a bare native executable asset (no
// compression at all): the host-format header (ELF/Mach-O/PE) is the
// trigger, per spec.md §4.4's fall-through row.
type executableUnpacker struct{}

var (
	elfMagic   = []byte{0x7f, 'E', 'L', 'F'}
	peMagic    = []byte{'M', 'Z'}
	machoMagics = [][]byte{
		{0xfe, 0xed, 0xfa, 0xce}, // 32-bit
		{0xfe, 0xed, 0xfa, 0xcf}, // 64-bit
		{0xce, 0xfa, 0xed, 0xfe}, // 32-bit reversed
		{0xcf, 0xfa, 0xed, 0xfe}, // 64-bit reversed
		{0xca, 0xfe, 0xba, 0xbe}, // fat binary
	}
)

func (executableUnpacker) Supports(name string, header []byte) bool {
	return isNativeExecutable(header)
}

func isNativeExecutable(header []byte) bool {
	if bytes.HasPrefix(header, elfMagic) {
		return true
	}
	if bytes.HasPrefix(header, peMagic) {
		return true
	}
	for _, magic := range machoMagics {
		if bytes.HasPrefix(header, magic) {
			return true
		}
	}
	return false
}

func (executableUnpacker) Unpack(archivePath, scratchDir string, strip int) (string, error) {
	name := filepath.Base(archivePath)
	dest := filepath.Join(scratchDir, name)

	in, err := os.Open(archivePath)
	if err != nil {
		return "", clydeerr.Wrap(clydeerr.IoError, "", err)
	}
	defer in.Close()

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o755)
	if err != nil {
		return "", clydeerr.Wrap(clydeerr.IoError, "", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return "", clydeerr.Wrap(clydeerr.IoError, "", fmt.Errorf("copying executable %s: %w", archivePath, err))
	}

	if runtime.GOOS != "windows" {
		os.Chmod(dest, 0o755)
	}
	return name, nil
}
