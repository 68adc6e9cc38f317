package checksum

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/clyde-pm/clyde/pkg/clydeerr"
)

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "asset")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestOf(t *testing.T) {
	path := writeTempFile(t, "hello world")
	digest, err := Of(path)
	if err != nil {
		t.Fatalf("Of() error = %v", err)
	}
	want := "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"
	if digest != want {
		t.Errorf("Of() = %q, want %q", digest, want)
	}
}

func TestVerifyMatches(t *testing.T) {
	path := writeTempFile(t, "hello world")
	if err := Verify("widget", path, "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"); err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
}

func TestVerifyMismatch(t *testing.T) {
	path := writeTempFile(t, "hello world")
	err := Verify("widget", path, "0000000000000000000000000000000000000000000000000000000000000000")
	if err == nil {
		t.Fatal("expected a checksum mismatch error")
	}

	var mismatch *clydeerr.ChecksumMismatchError
	if !errorsAs(err, &mismatch) {
		t.Fatalf("expected *clydeerr.ChecksumMismatchError, got %T", err)
	}
	if mismatch.Package != "widget" {
		t.Errorf("mismatch.Package = %q, want widget", mismatch.Package)
	}
}

func TestVerifyAcceptsTypePrefixedDigest(t *testing.T) {
	path := writeTempFile(t, "hello world")
	if err := Verify("widget", path, "sha256:b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"); err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
}

func errorsAs(err error, target **clydeerr.ChecksumMismatchError) bool {
	if e, ok := err.(*clydeerr.ChecksumMismatchError); ok {
		*target = e
		return true
	}
	return false
}
