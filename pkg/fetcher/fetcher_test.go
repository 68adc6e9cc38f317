package fetcher

import (
	"testing"

	"github.com/clyde-pm/clyde/pkg/archos"
	"github.com/clyde-pm/clyde/pkg/descriptor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectArchOs(t *testing.T) {
	cases := map[string]archos.ArchOs{
		"hello_1.2.0_linux_amd64.tar.gz":   {Arch: archos.ArchX86_64, OS: archos.OSLinux},
		"hello-darwin-arm64.tar.gz":        {Arch: archos.ArchAarch64, OS: archos.OSMacos},
		"hello_windows_x86.zip":            {Arch: archos.ArchX86, OS: archos.OSWindows},
		"hello-1.2.0-aarch64-unknown.tgz":  {},
	}
	for name, want := range cases {
		ao, ok := detectArchOs(name)
		if want == (archos.ArchOs{}) {
			assert.False(t, ok, name)
			continue
		}
		require.True(t, ok, name)
		assert.Equal(t, want, ao, name)
	}
}

func TestIsArchiveOrBinary(t *testing.T) {
	assert.True(t, isArchiveOrBinary("hello_linux_amd64.tar.gz"))
	assert.False(t, isArchiveOrBinary("checksums.txt"))
	assert.False(t, isArchiveOrBinary("hello.sig"))
}

func TestResolveNoFetcher(t *testing.T) {
	d := &descriptor.Descriptor{Name: "hello", Fetcher: descriptor.Fetcher{Kind: descriptor.FetcherOff}}
	_, err := Resolve(d)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no fetcher")
}

func TestGitHubFetcherCanFetch(t *testing.T) {
	f := NewGitHubFetcher()
	assert.True(t, f.CanFetch(&descriptor.Descriptor{
		Fetcher: descriptor.Fetcher{Kind: descriptor.FetcherGitHub, Repository: "agateau/clyde"},
	}))
	assert.False(t, f.CanFetch(&descriptor.Descriptor{Fetcher: descriptor.Fetcher{Kind: descriptor.FetcherOff}}))
	assert.False(t, f.CanFetch(&descriptor.Descriptor{Fetcher: descriptor.Fetcher{Kind: descriptor.FetcherGitHub}}))
}

func TestApplyVersionExprPassthroughOnEmpty(t *testing.T) {
	candidates := []Candidate{{Tag: "v1.0.0", Version: "1.0.0"}}
	out, err := ApplyVersionExpr(candidates, "")
	require.NoError(t, err)
	assert.Equal(t, candidates, out)
}

func TestKnownVersionsStripsVPrefix(t *testing.T) {
	d := &descriptor.Descriptor{Releases: map[string]map[archos.ArchOs]descriptor.Asset{
		"v1.2.0": {},
	}}
	known := knownVersions(d)
	assert.True(t, known["1.2.0"])
}
