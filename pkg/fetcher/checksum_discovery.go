package fetcher

import (
	"bufio"
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	clydehttp "github.com/clyde-pm/clyde/pkg/http"
)

// checksumClient carries the same timeout, logging and User-Agent behavior
// as the GitHub/GitLab fetchers use, instead of reaching for
// http.DefaultClient's unconfigured zero-timeout behavior.
var checksumClient = clydehttp.GetHttpClient()

// DiscoverChecksum tries, in order, a goreleaser-style checksums.txt
// sitting alongside assetURL and an individual "<asset>.sha256" file,
// falling back to downloading the asset itself and hashing it. Used by
// `clydetools fetch` to populate a proposed release's sha256 field
// without requiring the descriptor author to compute it by hand.
//
// Grounded on the teacher's checksum discovery strategies
// (GoreleaserStrategy / IndividualFileStrategy in the now-removed
// pkg/version/checksum_discovery.go), simplified to operate on a single
// asset URL instead of a full types.Resolution.
func DiscoverChecksum(ctx context.Context, assetURL string) (string, error) {
	dir := assetURL[:strings.LastIndex(assetURL, "/")+1]
	name := filepath.Base(assetURL)

	if digest, err := fetchChecksumsFile(ctx, dir+"checksums.txt", name); err == nil {
		return digest, nil
	}
	if digest, err := fetchChecksumsFile(ctx, assetURL+".sha256", name); err == nil {
		return digest, nil
	}
	return hashRemoteFile(ctx, assetURL)
}

// fetchChecksumsFile downloads a plaintext "<digest>  <filename>" listing
// (or a bare single-file digest) and returns the entry matching name.
func fetchChecksumsFile(ctx context.Context, url, name string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := checksumClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%s: %s", url, resp.Status)
	}

	scanner := bufio.NewScanner(resp.Body)
	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}

	for _, line := range lines {
		fields := strings.Fields(line)
		if len(fields) == 1 {
			return strings.ToLower(fields[0]), nil
		}
		if len(fields) >= 2 && strings.TrimPrefix(fields[1], "*") == name {
			return strings.ToLower(fields[0]), nil
		}
	}
	return "", fmt.Errorf("no checksum entry for %s in %s", name, url)
}

func hashRemoteFile(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := checksumClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%s: %s", url, resp.Status)
	}

	h := sha256.New()
	if _, err := io.Copy(h, resp.Body); err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}
