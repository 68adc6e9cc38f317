// Package extract implements the unpack dispatcher from spec.md §4.4: a
// closed, tagged set of extractors selected by format sniffing, each
// implementing {supports, unpack(scratch, strip) -> singleton name}
// (spec.md §9's polymorphism-over-format note). Grounded on
// original_source/src/unpacker/{mod,tar_unpacker,zip_unpacker,
// single_file_unpacker,exe_unpacker}.rs for the dispatch table and strip
// semantics, and on the teacher's extract.go for the package's overall
// shape (extension-driven switch, *task.Task progress plumbing).
package extract

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/clyde-pm/clyde/pkg/clydeerr"
	"github.com/flanksource/clicky/task"
	"github.com/flanksource/commons/logger"
)

// Unpacker is the capability interface spec.md §9 describes: a format
// can say whether it applies to a given asset name/header, and extract
// it into scratch, optionally reporting a single resulting file name
// (used by the install map's ${asset_name} variable).
type Unpacker interface {
	Supports(name string, header []byte) bool
	Unpack(archivePath, scratchDir string, strip int) (singleName string, err error)
}

// unpackers is the closed, ordered list of formats this dispatcher knows
// about. Order matters: tar/zip are tried by extension before the
// fall-through single-file/executable sniffers.
var unpackers = []Unpacker{
	tarUnpacker{},
	zipUnpacker{},
	singleFileUnpacker{},
	executableUnpacker{},
}

// Result is what Unpack reports back to the install engine.
type Result struct {
	// AssetName is the filename the unpacker reports when the asset was
	// a single file (tar/zip archives leave this empty).
	AssetName string
}

// Unpack dispatches archivePath to the first unpacker whose Supports
// predicate matches, clearing and recreating scratchDir first (spec.md
// §4.7 step 6: "Clear and recreate the scratch unpack directory").
func Unpack(archivePath, scratchDir string, strip int, t *task.Task) (Result, error) {
	if err := os.RemoveAll(scratchDir); err != nil {
		return Result{}, clydeerr.Wrap(clydeerr.IoError, "", fmt.Errorf("clearing scratch dir: %w", err))
	}
	if err := os.MkdirAll(scratchDir, 0o755); err != nil {
		return Result{}, clydeerr.Wrap(clydeerr.IoError, "", fmt.Errorf("creating scratch dir: %w", err))
	}

	header := readHeader(archivePath)
	name := filepath.Base(archivePath)

	for _, u := range unpackers {
		if !u.Supports(name, header) {
			continue
		}
		if t != nil {
			t.Debugf("extract: unpacking %s with %T (strip=%d)", archivePath, u, strip)
		}
		logger.Debugf("unpacking %s with %T (strip=%d)", archivePath, u, strip)
		single, err := u.Unpack(archivePath, scratchDir, strip)
		if err != nil {
			return Result{}, err
		}
		return Result{AssetName: single}, nil
	}
	return Result{}, clydeerr.Wrap(clydeerr.UnsupportedArchive, "", fmt.Errorf("no unpacker supports %s", name))
}

func readHeader(path string) []byte {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	buf := make([]byte, 264) // enough for ELF/Mach-O/PE/gzip/bzip2/xz magic
	n, _ := io.ReadFull(f, buf)
	return buf[:n]
}

// stripPath drops the first n leading path components of a slash-separated
// archive entry path. Returns ("", false) when the entry becomes empty
// (spec.md §4.4: "entries whose path becomes empty are skipped").
func stripPath(entryPath string, n int) (string, bool) {
	entryPath = strings.TrimPrefix(entryPath, "./")
	if n <= 0 {
		if entryPath == "" {
			return "", false
		}
		return entryPath, true
	}
	parts := strings.Split(entryPath, "/")
	if len(parts) <= n {
		return "", false
	}
	rest := strings.Join(parts[n:], "/")
	if rest == "" {
		return "", false
	}
	return rest, true
}

// safeJoin joins scratchDir with a (stripped) archive-relative entry
// path, refusing any path that would escape scratchDir (spec.md §4.4's
// safety requirement, ErrorKind::UnsafeArchive).
func safeJoin(scratchDir, entryPath string) (string, error) {
	cleaned := filepath.Clean(filepath.Join(scratchDir, filepath.FromSlash(entryPath)))
	scratchClean := filepath.Clean(scratchDir)
	if cleaned != scratchClean && !strings.HasPrefix(cleaned, scratchClean+string(filepath.Separator)) {
		return "", clydeerr.Wrap(clydeerr.UnsafeArchive, "", fmt.Errorf("entry %q escapes scratch directory", entryPath))
	}
	return cleaned, nil
}
