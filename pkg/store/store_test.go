package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/clyde-pm/clyde/pkg/clydeerr"
	"github.com/stretchr/testify/require"
)

const helloDescriptor = `
name: hello
description: says hello
releases:
  1.2.0:
    any-any:
      url: file:///tmp/hello.tar.gz
      sha256: "0000000000000000000000000000000000000000000000000000000000000000"
installs:
  1.2.0:
    any-any:
      strip: 1
      files:
        bin/hello: bin/
`

func writeDescriptor(t *testing.T, dir, relPath, content string) {
	t.Helper()
	full := filepath.Join(dir, relPath)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func TestResolveLookupOrder(t *testing.T) {
	dir := t.TempDir()
	writeDescriptor(t, dir, "packages/hello/index.yaml", helloDescriptor)

	s := New(dir)
	d, _, err := s.Get("hello")
	require.NoError(t, err)
	require.Equal(t, "hello", d.Name)
}

func TestResolveFlatYaml(t *testing.T) {
	dir := t.TempDir()
	writeDescriptor(t, dir, "hello.yaml", helloDescriptor)

	s := New(dir)
	d, _, err := s.Get("hello")
	require.NoError(t, err)
	require.Equal(t, "hello", d.Name)
}

func TestResolveNotFound(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)
	_, _, err := s.Get("nope")
	require.Error(t, err)
	kind, ok := clydeerr.KindOf(err)
	require.True(t, ok)
	require.Equal(t, clydeerr.PackageNotFound, kind)
}

func TestSearchBandsNameBeforeDescription(t *testing.T) {
	dir := t.TempDir()
	writeDescriptor(t, dir, "hello.yaml", helloDescriptor)
	writeDescriptor(t, dir, "greeter.yaml", `
name: greeter
description: says hello to everyone
releases:
  1.0.0:
    any-any:
      url: file:///tmp/greeter.tar.gz
      sha256: "0000000000000000000000000000000000000000000000000000000000000000"
installs:
  1.0.0:
    any-any:
      files:
        bin/greeter: bin/
`)

	s := New(dir)
	results, malformed := s.Search("hello")
	require.Empty(t, malformed)
	require.Len(t, results, 2)
	require.Equal(t, "hello", results[0].Name)
	require.Equal(t, "greeter", results[1].Name)
}
