// Package fetcher implements the auxiliary update-fetcher collaborator
// described in spec.md §9: given a descriptor's opaque `fetcher` tag, it
// discovers whether a newer upstream release exists and, if so, the
// arch-os -> URL map for its assets. The install core never imports this
// package (spec.md §1 scopes it out as an external collaborator); it
// exists to back cmd/clydetools and give the descriptor's `fetcher` field
// a real, testable implementation.
package fetcher

import (
	"context"
	"time"

	"github.com/clyde-pm/clyde/pkg/archos"
	"github.com/clyde-pm/clyde/pkg/descriptor"
)

// Candidate is a single upstream release tag discovered by a Fetcher,
// prior to being matched against assets and written into a descriptor.
type Candidate struct {
	Tag        string
	Version    string
	Published  time.Time
	Prerelease bool
}

// AssetCandidate pairs a release asset's download URL with the arch-os
// pair inferred from its filename.
type AssetCandidate struct {
	ArchOs archos.ArchOs
	Name   string
	URL    string
}

// UpdateStatus is the result of running a Fetcher against a descriptor,
// exactly the shape spec.md §9 specifies for the collaborator contract.
type UpdateStatus struct {
	UpToDate bool
	Version  string
	URLs     map[archos.ArchOs]string
}

// Fetcher discovers upstream releases for one descriptor `fetcher` tag
// kind. Dispatch across kinds lives in Resolve.
type Fetcher interface {
	CanFetch(d *descriptor.Descriptor) bool
	Fetch(ctx context.Context, d *descriptor.Descriptor) (UpdateStatus, error)
}

// Resolve picks the Fetcher implementation matching a descriptor's
// fetcher tag. GitHub and GitLab (with a repository set) are handled
// directly, and Script (with a command set) wraps the GitHub fetcher,
// re-filtering its candidates through the descriptor's command expression.
// Off, Auto, Forgejo, an unrecognized kind, or a GitHub/GitLab/Script tag
// missing its repository or command gets ErrNoFetcher.
func Resolve(d *descriptor.Descriptor) (Fetcher, error) {
	gh := NewGitHubFetcher()
	candidates := []Fetcher{
		gh,
		NewGitLabFetcher(""),
		NewScriptFetcher(gh),
	}
	for _, f := range candidates {
		if f.CanFetch(d) {
			return f, nil
		}
	}
	return nil, ErrNoFetcher{Name: d.Name, Kind: d.Fetcher.Kind}
}

// ErrNoFetcher is returned when no Fetcher implementation can act on a
// descriptor's fetcher tag (see Resolve for the cases).
type ErrNoFetcher struct {
	Name string
	Kind descriptor.FetcherKind
}

func (e ErrNoFetcher) Error() string {
	return "clydetools: " + e.Name + ": no fetcher for kind " + string(e.Kind)
}
