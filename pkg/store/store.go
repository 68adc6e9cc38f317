// Package store implements spec.md §4.1: mapping a package name to a
// descriptor file on disk, name/description search, and delegating
// corpus setup/update to git. Grounded on pkg/config/config.go's
// multi-path lookup-order pattern and original_source/src/store.rs's
// GitStore for the git-backed setup/update split.
package store

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/clyde-pm/clyde/pkg/clydeerr"
	"github.com/clyde-pm/clyde/pkg/descriptor"
	"github.com/flanksource/commons/logger"
	"github.com/samber/lo"
)

// Store locates descriptors under a directory tree synchronised from an
// upstream git repository (spec.md §4.1).
type Store struct {
	Dir string
}

// New returns a Store rooted at dir. dir is not required to exist yet;
// Setup creates it.
func New(dir string) *Store {
	return &Store{Dir: dir}
}

// candidatePaths implements the lookup order from spec.md §4.1.
func (s *Store) candidatePaths(name string) []string {
	paths := []string{
		filepath.Join(s.Dir, "packages", name, "index.yaml"),
		filepath.Join(s.Dir, "packages", name+".yaml"),
		filepath.Join(s.Dir, name, "index.yaml"),
		filepath.Join(s.Dir, name+".yaml"),
	}
	if strings.HasSuffix(name, ".yaml") {
		paths = append(paths, name)
	}
	return paths
}

// Resolve returns the descriptor file path for name, and the directory
// a sibling extra_files/ resource tree would live in.
func (s *Store) Resolve(name string) (path string, resourceDir string, err error) {
	for _, candidate := range s.candidatePaths(name) {
		if info, statErr := os.Stat(candidate); statErr == nil && !info.IsDir() {
			return candidate, filepath.Join(filepath.Dir(candidate), "extra_files"), nil
		}
	}
	suggestion := s.suggest(name)
	msg := fmt.Sprintf("package %q not found", name)
	if suggestion != "" {
		msg = fmt.Sprintf("%s (did you mean %q?)", msg, suggestion)
	}
	return "", "", clydeerr.New(clydeerr.PackageNotFound, name, msg, nil)
}

// Get loads, validates and returns the descriptor for name.
func (s *Store) Get(name string) (*descriptor.Descriptor, string, error) {
	path, resourceDir, err := s.Resolve(name)
	if err != nil {
		return nil, "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", clydeerr.Wrap(clydeerr.IoError, name, err)
	}
	d, err := descriptor.Parse(data, identityName(name, path))
	if err != nil {
		return nil, "", clydeerr.Wrap(clydeerr.DescriptorParse, name, err)
	}
	return d, resourceDir, nil
}

// identityName picks the name spec.md §3 requires the descriptor to
// equal: the filename stem, or the enclosing directory name when the
// descriptor file is itself "index.yaml".
func identityName(requested, path string) string {
	base := filepath.Base(path)
	if strings.EqualFold(base, "index.yaml") {
		return filepath.Base(filepath.Dir(path))
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// suggest returns the closest known package name to a failed lookup, by
// edit distance, for a friendlier PackageNotFound message.
func (s *Store) suggest(name string) string {
	names, err := s.allNames()
	if err != nil || len(names) == 0 {
		return ""
	}
	best := ""
	bestDist := -1
	for _, candidate := range names {
		d := levenshtein.ComputeDistance(strings.ToLower(name), strings.ToLower(candidate))
		if bestDist == -1 || d < bestDist {
			bestDist = d
			best = candidate
		}
	}
	if bestDist <= 3 {
		return best
	}
	return ""
}

// SearchResult is one hit from Search: a package name plus its
// descriptor's description, for name and description matches alike.
type SearchResult struct {
	Name        string
	Description string
}

// Search implements spec.md §4.1: two banded result lists (name matches,
// then description matches) merged in order, never aborting on a
// malformed descriptor — those are collected separately. A query
// containing glob metacharacters (*, ?, [) is also matched against each
// name with doublestar, so `search 'rip*p'` finds "ripgrep" without the
// caller needing a plain substring.
func (s *Store) Search(query string) (results []SearchResult, malformed []error) {
	names, err := s.allNames()
	if err != nil {
		return nil, []error{err}
	}
	sort.Strings(names)

	lowerQuery := strings.ToLower(query)
	isGlob := strings.ContainsAny(query, "*?[")
	var nameHits, descHits []SearchResult
	seen := map[string]bool{}

	for _, name := range names {
		path, _, err := s.Resolve(name)
		if err != nil {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			malformed = append(malformed, fmt.Errorf("%s: %w", name, err))
			continue
		}
		d, err := descriptor.Parse(data, identityName(name, path))
		if err != nil {
			malformed = append(malformed, fmt.Errorf("%s: %w", name, err))
			continue
		}

		nameMatches := strings.Contains(strings.ToLower(d.Name), lowerQuery)
		if !nameMatches && isGlob {
			if ok, _ := doublestar.Match(lowerQuery, strings.ToLower(d.Name)); ok {
				nameMatches = true
			}
		}
		if nameMatches {
			nameHits = append(nameHits, SearchResult{Name: d.Name, Description: d.Description})
			seen[d.Name] = true
			continue
		}
		if strings.Contains(strings.ToLower(d.Description), lowerQuery) && !seen[d.Name] {
			descHits = append(descHits, SearchResult{Name: d.Name, Description: d.Description})
			seen[d.Name] = true
		}
	}

	return append(nameHits, descHits...), malformed
}

// allNames walks the store tree for descriptor files and returns their
// package names, used by Search and the near-miss suggest helper.
func (s *Store) allNames() ([]string, error) {
	var names []string
	err := filepath.WalkDir(s.Dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".yaml" {
			return nil
		}
		names = append(names, identityName("", path))
		return nil
	})
	if err != nil {
		return nil, clydeerr.Wrap(clydeerr.IoError, "", err)
	}
	return lo.Uniq(names), nil
}

// Setup clones the descriptor corpus from url into the store directory,
// delegating to git exactly as original_source's GitStore::setup does
// (a shallow clone, fast-forward-only thereafter via Update).
func (s *Store) Setup(url string) error {
	cmd := exec.Command("git", "clone", "--depth", "1", url, s.Dir)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	logger.Debugf("cloning store %s into %s", url, s.Dir)
	if err := cmd.Run(); err != nil {
		return clydeerr.Wrap(clydeerr.IoError, "", fmt.Errorf("cloning store %s: %w", url, err))
	}
	return nil
}

// Update fast-forward-pulls the store's git clone.
func (s *Store) Update() error {
	cmd := exec.Command("git", "-C", s.Dir, "pull", "--ff-only")
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	logger.Debugf("updating store at %s", s.Dir)
	if err := cmd.Run(); err != nil {
		return clydeerr.Wrap(clydeerr.IoError, "", fmt.Errorf("updating store: %w", err))
	}
	return nil
}
