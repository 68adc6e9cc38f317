// Package checksum verifies a downloaded asset against the sha256 digest
// recorded in its descriptor entry (spec.md §4.3, §4.4).
package checksum

import (
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/clyde-pm/clyde/pkg/clydeerr"
)

// HashType identifies a digest algorithm. Descriptors always record
// sha256 (spec.md's Asset.sha256 field), but the type is kept distinct
// from a bare string so a future descriptor format revision adding other
// algorithms doesn't need a signature change here.
type HashType string

const HashTypeSHA256 HashType = "sha256"

// Of computes the sha256 digest of the file at path, as a lowercase hex
// string with no type prefix — the form descriptors store.
func Of(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hashing %s: %w", path, err)
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

// Verify computes path's sha256 digest and compares it against expected,
// returning a *clydeerr.ChecksumMismatchError (not a plain error) on
// mismatch so the CLI can print both digests per spec.md §7.
func Verify(pkg, path, expected string) error {
	expected = normalize(expected)

	actual, err := Of(path)
	if err != nil {
		return clydeerr.Wrap(clydeerr.IoError, pkg, err)
	}

	if !strings.EqualFold(actual, expected) {
		return &clydeerr.ChecksumMismatchError{
			Package:  pkg,
			Expected: expected,
			Received: actual,
		}
	}
	return nil
}

// normalize strips an optional "sha256:" prefix some descriptors may
// carry over from upstream release metadata.
func normalize(digest string) string {
	digest = strings.TrimSpace(digest)
	if idx := strings.Index(digest, ":"); idx >= 0 {
		return digest[idx+1:]
	}
	return digest
}
