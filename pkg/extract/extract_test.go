package extract

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"os"
	"path/filepath"
	"testing"

	"github.com/clyde-pm/clyde/pkg/clydeerr"
	"github.com/stretchr/testify/require"
)

func writeTarGz(t *testing.T, dir, name string, entries map[string]string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	gw := gzip.NewWriter(f)
	tw := tar.NewWriter(gw)
	for entryName, content := range entries {
		hdr := &tar.Header{Name: entryName, Mode: 0o755, Size: int64(len(content))}
		require.NoError(t, tw.WriteHeader(hdr))
		_, err := tw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gw.Close())
	return path
}

func writeZip(t *testing.T, dir, name string, entries map[string]string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	for entryName, content := range entries {
		w, err := zw.Create(entryName)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return path
}

func TestUnpackTarGzWithStrip(t *testing.T) {
	srcDir := t.TempDir()
	archive := writeTarGz(t, srcDir, "hello.tar.gz", map[string]string{
		"hello/bin/hello": "binary-content",
	})

	scratch := filepath.Join(t.TempDir(), "scratch")
	_, err := Unpack(archive, scratch, 1, nil)
	require.NoError(t, err)

	content, err := os.ReadFile(filepath.Join(scratch, "bin", "hello"))
	require.NoError(t, err)
	require.Equal(t, "binary-content", string(content))
}

func TestUnpackStripBeyondDepthProducesNoFiles(t *testing.T) {
	srcDir := t.TempDir()
	archive := writeTarGz(t, srcDir, "hello.tar.gz", map[string]string{
		"hello/bin/hello": "binary-content",
	})

	scratch := filepath.Join(t.TempDir(), "scratch")
	_, err := Unpack(archive, scratch, 5, nil)
	require.NoError(t, err)

	entries, err := os.ReadDir(scratch)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestUnpackZip(t *testing.T) {
	srcDir := t.TempDir()
	archive := writeZip(t, srcDir, "tool.zip", map[string]string{
		"tool-1.0/bin/tool": "zip-content",
	})

	scratch := filepath.Join(t.TempDir(), "scratch")
	_, err := Unpack(archive, scratch, 1, nil)
	require.NoError(t, err)

	content, err := os.ReadFile(filepath.Join(scratch, "bin", "tool"))
	require.NoError(t, err)
	require.Equal(t, "zip-content", string(content))
}

func TestUnpackSingleGz(t *testing.T) {
	srcDir := t.TempDir()
	path := filepath.Join(srcDir, "tool.gz")
	f, err := os.Create(path)
	require.NoError(t, err)
	gw := gzip.NewWriter(f)
	gw.Name = "tool"
	_, err = gw.Write([]byte("single-file-content"))
	require.NoError(t, err)
	require.NoError(t, gw.Close())
	require.NoError(t, f.Close())

	scratch := filepath.Join(t.TempDir(), "scratch")
	result, err := Unpack(path, scratch, 0, nil)
	require.NoError(t, err)
	require.Equal(t, "tool", result.AssetName)

	content, err := os.ReadFile(filepath.Join(scratch, "tool"))
	require.NoError(t, err)
	require.Equal(t, "single-file-content", string(content))
}

func TestUnpackNativeExecutable(t *testing.T) {
	srcDir := t.TempDir()
	path := filepath.Join(srcDir, "mytool")
	elf := append([]byte{0x7f, 'E', 'L', 'F'}, bytes.Repeat([]byte{0}, 32)...)
	require.NoError(t, os.WriteFile(path, elf, 0o644))

	scratch := filepath.Join(t.TempDir(), "scratch")
	result, err := Unpack(path, scratch, 0, nil)
	require.NoError(t, err)
	require.Equal(t, "mytool", result.AssetName)

	info, err := os.Stat(filepath.Join(scratch, "mytool"))
	require.NoError(t, err)
	if info.Mode()&0o111 == 0 {
		t.Errorf("expected executable bit to be set")
	}
}

func TestUnpackUnsafeArchiveRejected(t *testing.T) {
	srcDir := t.TempDir()
	archive := writeTarGz(t, srcDir, "evil.tar.gz", map[string]string{
		"../../etc/passwd": "pwned",
	})

	scratch := filepath.Join(t.TempDir(), "scratch")
	_, err := Unpack(archive, scratch, 0, nil)
	require.Error(t, err)
	kind, ok := clydeerr.KindOf(err)
	require.True(t, ok)
	require.Equal(t, clydeerr.UnsafeArchive, kind)
}
