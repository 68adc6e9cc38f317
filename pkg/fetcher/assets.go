package fetcher

import (
	"strings"

	"github.com/clyde-pm/clyde/pkg/archos"
)

// detectArchOs guesses the (arch, os) pair an upstream release asset
// targets from its filename, the same substring-matching approach the
// teacher's asset filter (pkg/manager/asset_filter.go) uses to classify
// release assets before a descriptor exists to declare it explicitly.
func detectArchOs(name string) (archos.ArchOs, bool) {
	lower := strings.ToLower(name)

	var os archos.OS
	switch {
	case strings.Contains(lower, "linux"):
		os = archos.OSLinux
	case strings.Contains(lower, "darwin"), strings.Contains(lower, "macos"), strings.Contains(lower, "osx"):
		os = archos.OSMacos
	case strings.Contains(lower, "windows"), strings.Contains(lower, "win64"), strings.Contains(lower, "win32"):
		os = archos.OSWindows
	default:
		return archos.ArchOs{}, false
	}

	var arch archos.Arch
	switch {
	case strings.Contains(lower, "x86_64"), strings.Contains(lower, "amd64"), strings.Contains(lower, "x64"):
		arch = archos.ArchX86_64
	case strings.Contains(lower, "aarch64"), strings.Contains(lower, "arm64"):
		arch = archos.ArchAarch64
	case strings.Contains(lower, "386"), strings.Contains(lower, "i686"), strings.Contains(lower, "x86"):
		arch = archos.ArchX86
	default:
		return archos.ArchOs{}, false
	}

	return archos.ArchOs{Arch: arch, OS: os}, true
}

// isArchiveOrBinary filters out checksum/signature/metadata files that
// ride along in a release's asset list (checksums.txt, .sig, .sbom, ...).
func isArchiveOrBinary(name string) bool {
	lower := strings.ToLower(name)
	for _, suffix := range []string{".sig", ".asc", ".sbom", ".pem", ".txt", ".json", ".yaml", ".yml"} {
		if strings.HasSuffix(lower, suffix) {
			return false
		}
	}
	return true
}
