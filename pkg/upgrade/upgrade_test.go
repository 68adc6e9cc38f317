package upgrade

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

	"github.com/clyde-pm/clyde/pkg/dbstore"
	"github.com/clyde-pm/clyde/pkg/home"
	"github.com/clyde-pm/clyde/pkg/installer"
	"github.com/clyde-pm/clyde/pkg/store"
	"github.com/stretchr/testify/require"
)

func writeArchive(t *testing.T, dir, topLevel, content string) (path, sha string) {
	t.Helper()
	path = filepath.Join(dir, topLevel+".tar.gz")
	f, err := os.Create(path)
	require.NoError(t, err)

	gw := gzip.NewWriter(f)
	tw := tar.NewWriter(gw)
	hdr := &tar.Header{Name: topLevel + "/bin/hello", Mode: 0o755, Size: int64(len(content))}
	require.NoError(t, tw.WriteHeader(hdr))
	_, err = tw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, tw.Close())
	require.NoError(t, gw.Close())
	require.NoError(t, f.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	sum := sha256.Sum256(data)
	return path, hex.EncodeToString(sum[:])
}

func writeDescriptor(t *testing.T, storeDir string, releases map[string]struct{ path, sha string }) {
	t.Helper()
	body := "name: hello\ndescription: says hello\nreleases:\n"
	for v, r := range releases {
		body += fmt.Sprintf("  %s:\n    any-any:\n      url: file://%s\n      sha256: %q\n", v, r.path, r.sha)
	}
	body += "installs:\n"
	for v := range releases {
		body += fmt.Sprintf("  %s:\n    any-any:\n      strip: 1\n      files:\n        bin/hello: bin/\n", v)
	}
	require.NoError(t, os.MkdirAll(filepath.Join(storeDir, "packages", "hello"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(storeDir, "packages", "hello", "index.yaml"), []byte(body), 0o644))
}

func setupUpgrade(t *testing.T) (*installer.Installer, *store.Store, *dbstore.DB, *home.Home) {
	t.Helper()
	root := t.TempDir()
	h := home.New(root)
	require.NoError(t, h.Create())
	db, err := dbstore.Open(h.DBPath)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	s := store.New(h.Store)
	return installer.New(s, db, h), s, db, h
}

func TestPlanClassifiesUpgradable(t *testing.T) {
	assetDir := t.TempDir()
	oldPath, oldSha := writeArchive(t, assetDir, "hello-1.0.0", "old")
	newPath, newSha := writeArchive(t, assetDir, "hello-1.1.0", "new")

	inst, s, db, _ := setupUpgrade(t)
	writeDescriptor(t, s.Dir, map[string]struct{ path, sha string }{
		"1.0.0": {oldPath, oldSha},
	})
	require.NoError(t, inst.Install(context.Background(), "hello", ""))

	writeDescriptor(t, s.Dir, map[string]struct{ path, sha string }{
		"1.0.0": {oldPath, oldSha},
		"1.1.0": {newPath, newSha},
	})

	plan, err := Plan(s, db)
	require.NoError(t, err)
	require.Len(t, plan, 1)
	require.Equal(t, Upgradable, plan[0].Status)
	require.Equal(t, "1.1.0", plan[0].TargetVersion)
}

func TestPlanClassifiesBlockedWhenPinned(t *testing.T) {
	assetDir := t.TempDir()
	oldPath, oldSha := writeArchive(t, assetDir, "hello-1.2.0", "old")
	newPath, newSha := writeArchive(t, assetDir, "hello-1.3.0", "new")

	inst, s, db, _ := setupUpgrade(t)
	writeDescriptor(t, s.Dir, map[string]struct{ path, sha string }{
		"1.2.0": {oldPath, oldSha},
	})
	require.NoError(t, inst.Install(context.Background(), "hello", "1.2.*"))

	writeDescriptor(t, s.Dir, map[string]struct{ path, sha string }{
		"1.2.0": {oldPath, oldSha},
		"1.3.0": {newPath, newSha},
	})

	plan, err := Plan(s, db)
	require.NoError(t, err)
	require.Len(t, plan, 1)
	require.Equal(t, Blocked, plan[0].Status)
	require.Equal(t, "1.3.0", plan[0].TargetVersion)
}

func TestRunInstallsUpgradableAndPreservesRequestedVersion(t *testing.T) {
	assetDir := t.TempDir()
	oldPath, oldSha := writeArchive(t, assetDir, "hello-1.0.0", "old")
	newPath, newSha := writeArchive(t, assetDir, "hello-2.0.0", "new")

	inst, s, db, h := setupUpgrade(t)
	writeDescriptor(t, s.Dir, map[string]struct{ path, sha string }{
		"1.0.0": {oldPath, oldSha},
	})
	require.NoError(t, inst.Install(context.Background(), "hello", "*"))

	writeDescriptor(t, s.Dir, map[string]struct{ path, sha string }{
		"1.0.0": {oldPath, oldSha},
		"2.0.0": {newPath, newSha},
	})

	plan, err := Run(context.Background(), inst, s, db)
	require.NoError(t, err)
	require.Len(t, plan, 1)
	require.Equal(t, Upgradable, plan[0].Status)

	pkg, err := db.GetPackage("hello")
	require.NoError(t, err)
	require.Equal(t, "2.0.0", pkg.InstalledVersion.Original())
	require.Equal(t, "*", pkg.RequestedVersion)

	content, err := os.ReadFile(filepath.Join(h.Inst, "bin", "hello"))
	require.NoError(t, err)
	require.Equal(t, "new", string(content))
}
