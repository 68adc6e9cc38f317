package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/clyde-pm/clyde/pkg/archos"
	"github.com/clyde-pm/clyde/pkg/descriptor"
	clydehttp "github.com/clyde-pm/clyde/pkg/http"
	"github.com/clyde-pm/clyde/pkg/utils"
)

// gitlabRelease is the subset of GitLab's releases REST response this
// fetcher needs. Grounded on pkg/manager/gitlab/gitlab.go's GitLabRelease/
// GitLabReleaseAsset structs, trimmed to the REST endpoint (the teacher's
// GraphQL path exists only to work around REST pagination limits across
// many packages, which a single-descriptor lookup does not hit).
type gitlabRelease struct {
	TagName         string `json:"tag_name"`
	ReleasedAt      string `json:"released_at"`
	UpcomingRelease bool   `json:"upcoming_release"`
	Assets          struct {
		Links []struct {
			Name        string `json:"name"`
			DirectAsset string `json:"direct_asset_url"`
			URL         string `json:"url"`
		} `json:"links"`
	} `json:"assets"`
}

// GitLabFetcher discovers releases through a GitLab instance's REST API,
// backing a descriptor's `GitLab{repository, base_url}` fetcher tag.
type GitLabFetcher struct {
	client     *http.Client
	defaultURL string
}

// NewGitLabFetcher builds a fetcher defaulting to gitlab.com when a
// descriptor's fetcher tag omits base_url (self-hosted GitLab instances
// set it explicitly). Only GitLab-tagged descriptors are accepted.
func NewGitLabFetcher(defaultURL string) *GitLabFetcher {
	if defaultURL == "" {
		defaultURL = "https://gitlab.com"
	}
	return &GitLabFetcher{client: clydehttp.GetHttpClient(), defaultURL: defaultURL}
}

func (f *GitLabFetcher) CanFetch(d *descriptor.Descriptor) bool {
	return d.Fetcher.Kind == descriptor.FetcherGitLab && d.Fetcher.Repository != ""
}

// Fetch lists the project's releases, runs them through the descriptor's
// version_expr (ApplyVersionExpr) if it set one, and classifies the first
// candidate newer than the descriptor's best-known release's assets by
// filename into an arch-os -> URL map.
func (f *GitLabFetcher) Fetch(ctx context.Context, d *descriptor.Descriptor) (UpdateStatus, error) {
	base := d.Fetcher.BaseURL
	if base == "" {
		base = f.defaultURL
	}
	projectPath := url.PathEscape(d.Fetcher.Repository)
	endpoint := fmt.Sprintf("%s/api/v4/projects/%s/releases", strings.TrimRight(base, "/"), projectPath)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return UpdateStatus{}, err
	}
	if token := os.Getenv("GITLAB_TOKEN"); token != "" {
		req.Header.Set("PRIVATE-TOKEN", token)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return UpdateStatus{}, fmt.Errorf("listing GitLab releases for %s: %w", d.Fetcher.Repository, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return UpdateStatus{}, fmt.Errorf("GitLab releases request for %s failed: %s", d.Fetcher.Repository, resp.Status)
	}

	var releases []gitlabRelease
	if err := json.NewDecoder(resp.Body).Decode(&releases); err != nil {
		return UpdateStatus{}, fmt.Errorf("decoding GitLab releases for %s: %w", d.Fetcher.Repository, err)
	}

	byTag := make(map[string]gitlabRelease, len(releases))
	candidates := make([]Candidate, 0, len(releases))
	for _, release := range releases {
		byTag[release.TagName] = release
		published, _ := time.Parse(time.RFC3339, release.ReleasedAt)
		candidates = append(candidates, Candidate{
			Tag:        release.TagName,
			Version:    utils.Normalize(release.TagName),
			Published:  published,
			Prerelease: release.UpcomingRelease,
		})
	}

	candidates, err = ApplyVersionExpr(candidates, d.Fetcher.VersionExpr)
	if err != nil {
		return UpdateStatus{}, err
	}

	known := knownVersions(d)
	for _, c := range candidates {
		if known[c.Version] {
			return UpdateStatus{UpToDate: true}, nil
		}

		urls := make(map[archos.ArchOs]string)
		for _, asset := range byTag[c.Tag].Assets.Links {
			link := asset.DirectAsset
			if link == "" {
				link = asset.URL
			}
			if !isArchiveOrBinary(asset.Name) {
				continue
			}
			if ao, ok := detectArchOs(asset.Name); ok {
				urls[ao] = link
			}
		}
		if len(urls) == 0 {
			continue
		}
		return UpdateStatus{Version: c.Version, URLs: urls}, nil
	}

	return UpdateStatus{UpToDate: true}, nil
}
