package installer

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/clyde-pm/clyde/pkg/clydeerr"
	"github.com/clyde-pm/clyde/pkg/dbstore"
	"github.com/clyde-pm/clyde/pkg/home"
	"github.com/clyde-pm/clyde/pkg/store"
	"github.com/stretchr/testify/require"
)

// writeArchive builds a tar.gz with a single top-level directory, mirroring
// how a real release asset is laid out, and returns its path and sha256.
func writeArchive(t *testing.T, dir, topLevel, binContent string) (path, sha string) {
	t.Helper()
	path = filepath.Join(dir, "asset.tar.gz")
	f, err := os.Create(path)
	require.NoError(t, err)

	gw := gzip.NewWriter(f)
	tw := tar.NewWriter(gw)
	hdr := &tar.Header{Name: topLevel + "/bin/hello", Mode: 0o755, Size: int64(len(binContent))}
	require.NoError(t, tw.WriteHeader(hdr))
	_, err = tw.Write([]byte(binContent))
	require.NoError(t, err)
	require.NoError(t, tw.Close())
	require.NoError(t, gw.Close())
	require.NoError(t, f.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	sum := sha256.Sum256(data)
	return path, hex.EncodeToString(sum[:])
}

func descriptorYAML(assetPath, sha256sum string) string {
	return fmt.Sprintf(`
name: hello
description: says hello
releases:
  1.0.0:
    any-any:
      url: file://%s
      sha256: %q
installs:
  1.0.0:
    any-any:
      strip: 1
      files:
        bin/hello: bin/
`, assetPath, sha256sum)
}

func setupInstaller(t *testing.T) (*Installer, *home.Home) {
	t.Helper()
	root := t.TempDir()
	h := home.New(root)
	require.NoError(t, h.Create())

	db, err := dbstore.Open(h.DBPath)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	s := store.New(h.Store)
	return New(s, db, h), h
}

func TestInstallPlacesFilesAndRecordsDatabase(t *testing.T) {
	assetDir := t.TempDir()
	archivePath, sha := writeArchive(t, assetDir, "hello-1.0.0", "binary-content")

	inst, h := setupInstaller(t)
	require.NoError(t, os.MkdirAll(filepath.Join(h.Store, "packages", "hello"), 0o755))
	require.NoError(t, os.WriteFile(
		filepath.Join(h.Store, "packages", "hello", "index.yaml"),
		[]byte(descriptorYAML(archivePath, sha)), 0o644))

	err := inst.Install(context.Background(), "hello", "")
	require.NoError(t, err)

	content, err := os.ReadFile(filepath.Join(h.Inst, "bin", "hello"))
	require.NoError(t, err)
	require.Equal(t, "binary-content", string(content))

	pkg, err := inst.DB.GetPackage("hello")
	require.NoError(t, err)
	require.NotNil(t, pkg)
	require.Equal(t, "1.0.0", pkg.InstalledVersion.Original())

	entries, err := os.ReadDir(filepath.Join(h.Tmp))
	require.NoError(t, err)
	require.Empty(t, entries, "scratch directory should be cleaned up")
}

func TestInstallAlreadyInstalledFailsWithoutReinstall(t *testing.T) {
	assetDir := t.TempDir()
	archivePath, sha := writeArchive(t, assetDir, "hello-1.0.0", "binary-content")

	inst, h := setupInstaller(t)
	require.NoError(t, os.MkdirAll(filepath.Join(h.Store, "packages", "hello"), 0o755))
	require.NoError(t, os.WriteFile(
		filepath.Join(h.Store, "packages", "hello", "index.yaml"),
		[]byte(descriptorYAML(archivePath, sha)), 0o644))

	ctx := context.Background()
	require.NoError(t, inst.Install(ctx, "hello", ""))

	err := inst.Install(ctx, "hello", "")
	require.Error(t, err)
	kind, ok := clydeerr.KindOf(err)
	require.True(t, ok)
	require.Equal(t, clydeerr.AlreadyInstalled, kind)

	require.NoError(t, inst.Install(ctx, "hello", "", WithReinstall(true)))
}

func TestInstallChecksumMismatchRemovesCachedAsset(t *testing.T) {
	assetDir := t.TempDir()
	archivePath, _ := writeArchive(t, assetDir, "hello-1.0.0", "binary-content")

	inst, h := setupInstaller(t)
	require.NoError(t, os.MkdirAll(filepath.Join(h.Store, "packages", "hello"), 0o755))
	require.NoError(t, os.WriteFile(
		filepath.Join(h.Store, "packages", "hello", "index.yaml"),
		[]byte(descriptorYAML(archivePath, "0000000000000000000000000000000000000000000000000000000000000000")),
		0o644))

	err := inst.Install(context.Background(), "hello", "")
	require.Error(t, err)
	kind, ok := clydeerr.KindOf(err)
	require.True(t, ok)
	require.Equal(t, clydeerr.ChecksumMismatch, kind)

	_, err = os.Stat(filepath.Join(h.Download, "hello", "1.0.0", filepath.Base(archivePath)))
	require.Error(t, err)
	require.True(t, os.IsNotExist(err), "failed checksum should not leave the asset cached")
}

func TestUninstallRemovesOwnedFilesAndDatabaseRow(t *testing.T) {
	assetDir := t.TempDir()
	archivePath, sha := writeArchive(t, assetDir, "hello-1.0.0", "binary-content")

	inst, h := setupInstaller(t)
	require.NoError(t, os.MkdirAll(filepath.Join(h.Store, "packages", "hello"), 0o755))
	require.NoError(t, os.WriteFile(
		filepath.Join(h.Store, "packages", "hello", "index.yaml"),
		[]byte(descriptorYAML(archivePath, sha)), 0o644))

	ctx := context.Background()
	require.NoError(t, inst.Install(ctx, "hello", ""))

	binPath := filepath.Join(h.Inst, "bin", "hello")
	_, err := os.Stat(binPath)
	require.NoError(t, err)

	require.NoError(t, inst.Uninstall("hello"))

	_, err = os.Stat(binPath)
	require.True(t, os.IsNotExist(err))

	pkg, err := inst.DB.GetPackage("hello")
	require.NoError(t, err)
	require.Nil(t, pkg)
}

func TestUninstallToleratesAlreadyMissingFile(t *testing.T) {
	assetDir := t.TempDir()
	archivePath, sha := writeArchive(t, assetDir, "hello-1.0.0", "binary-content")

	inst, h := setupInstaller(t)
	require.NoError(t, os.MkdirAll(filepath.Join(h.Store, "packages", "hello"), 0o755))
	require.NoError(t, os.WriteFile(
		filepath.Join(h.Store, "packages", "hello", "index.yaml"),
		[]byte(descriptorYAML(archivePath, sha)), 0o644))

	ctx := context.Background()
	require.NoError(t, inst.Install(ctx, "hello", ""))
	require.NoError(t, os.Remove(filepath.Join(h.Inst, "bin", "hello")))

	require.NoError(t, inst.Uninstall("hello"))
}
