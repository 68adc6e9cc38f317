package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscoverChecksumFromChecksumsFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/checksums.txt":
			w.Write([]byte("deadbeef  hello_linux_amd64.tar.gz\ncafef00d  hello_darwin_amd64.tar.gz\n"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	digest, err := DiscoverChecksum(context.Background(), srv.URL+"/hello_linux_amd64.tar.gz")
	require.NoError(t, err)
	assert.Equal(t, "deadbeef", digest)
}

func TestDiscoverChecksumFallsBackToHashingAsset(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/hello.tar.gz" {
			w.Write([]byte("payload"))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	digest, err := DiscoverChecksum(context.Background(), srv.URL+"/hello.tar.gz")
	require.NoError(t, err)
	assert.Len(t, digest, 64)
}
