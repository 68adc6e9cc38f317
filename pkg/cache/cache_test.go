package cache

import (
	"os"
	"path/filepath"
	"testing"
)

func TestPath(t *testing.T) {
	got := Path("/home/download", "widget", "1.2.0", "https://example.com/releases/widget-1.2.0-linux.tar.gz")
	want := filepath.Join("/home/download", "widget", "1.2.0", "widget-1.2.0-linux.tar.gz")
	if got != want {
		t.Errorf("Path() = %q, want %q", got, want)
	}
}

func TestPartialPath(t *testing.T) {
	if got := PartialPath("/x/y/file.tar.gz"); got != "/x/y/file.tar.gz.partial" {
		t.Errorf("PartialPath() = %q", got)
	}
}

func TestLookup(t *testing.T) {
	dir := t.TempDir()
	url := "https://example.com/widget-1.0.0.tar.gz"

	if _, ok := Lookup(dir, "widget", "1.0.0", url); ok {
		t.Fatal("expected no cached file before download")
	}

	cacheDir, err := EnsureDir(dir, "widget", "1.0.0")
	if err != nil {
		t.Fatalf("EnsureDir() error = %v", err)
	}
	path := filepath.Join(cacheDir, "widget-1.0.0.tar.gz")
	if err := os.WriteFile(path, []byte("data"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	got, ok := Lookup(dir, "widget", "1.0.0", url)
	if !ok {
		t.Fatal("expected cached file after download")
	}
	if got != path {
		t.Errorf("Lookup() = %q, want %q", got, path)
	}
}

func TestRemove(t *testing.T) {
	dir := t.TempDir()
	url := "https://example.com/widget-1.0.0.tar.gz"
	cacheDir, _ := EnsureDir(dir, "widget", "1.0.0")
	path := filepath.Join(cacheDir, "widget-1.0.0.tar.gz")
	os.WriteFile(path, []byte("data"), 0o644)

	if err := Remove(dir, "widget", "1.0.0", url); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if _, ok := Lookup(dir, "widget", "1.0.0", url); ok {
		t.Error("expected file to be removed")
	}
}
