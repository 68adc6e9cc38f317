// Package cache implements the content-addressed download cache from
// spec.md §4.3: a URL is turned into a local path idempotently, keyed by
// package name, version, and the URL's basename, under
// "<home>/download/<pkg>/<version>/<file>".
package cache

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
)

// Path returns the cache path for a package/version/url triple. It does
// not touch the filesystem.
func Path(downloadDir, pkg, version, rawURL string) string {
	return filepath.Join(downloadDir, pkg, version, basename(rawURL))
}

// PartialPath returns the in-progress download path for Path — a
// sibling file with a .partial suffix, so a resumed or failed download
// never leaves a half-written file at the final name.
func PartialPath(path string) string {
	return path + ".partial"
}

func basename(rawURL string) string {
	if u, err := url.Parse(rawURL); err == nil && u.Path != "" {
		return filepath.Base(u.Path)
	}
	return filepath.Base(rawURL)
}

// Lookup reports whether a completed download already exists in the
// cache for this package/version/url.
func Lookup(downloadDir, pkg, version, rawURL string) (string, bool) {
	if downloadDir == "" {
		return "", false
	}
	path := Path(downloadDir, pkg, version, rawURL)
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		return path, true
	}
	return "", false
}

// EnsureDir creates the cache directory for a package/version pair.
func EnsureDir(downloadDir, pkg, version string) (string, error) {
	dir := filepath.Join(downloadDir, pkg, version)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating cache directory %s: %w", dir, err)
	}
	return dir, nil
}

// Remove deletes a cached download and its partial counterpart, used by
// the explicit cleanup policy spec.md §4.3 describes (cached downloads
// otherwise persist indefinitely across runs).
func Remove(downloadDir, pkg, version, rawURL string) error {
	path := Path(downloadDir, pkg, version, rawURL)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing cached download %s: %w", path, err)
	}
	if err := os.Remove(PartialPath(path)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing partial download %s: %w", path, err)
	}
	return nil
}
