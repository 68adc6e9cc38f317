package descriptor

import (
	"reflect"
	"testing"

	"github.com/clyde-pm/clyde/pkg/archos"
)

const sampleYAML = `
name: widget
description: a small widget
homepage: https://example.com/widget
releases:
  1.0.0:
    x86_64-linux:
      url: https://example.com/widget-1.0.0-linux-x86_64.tar.gz
      sha256: "abc123"
    aarch64-macos:
      url: https://example.com/widget-1.0.0-macos-aarch64.tar.gz
      sha256: "def456"
installs:
  1.0.0:
    any-any:
      strip: 1
      files:
        widget: ~
        README.md: docs/README.md
`

func TestParseAndResolve(t *testing.T) {
	d, err := Parse([]byte(sampleYAML), "widget")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	asset, ok := d.ResolveAsset("1.0.0", archos.ArchOs{Arch: archos.ArchX86_64, OS: archos.OSLinux})
	if !ok {
		t.Fatal("expected asset for x86_64-linux")
	}
	if asset.Sha256 != "abc123" {
		t.Errorf("asset.Sha256 = %q, want abc123", asset.Sha256)
	}

	spec, ok := d.ResolveInstallSpec("1.0.0", archos.ArchOs{Arch: archos.ArchX86_64, OS: archos.OSLinux})
	if !ok {
		t.Fatal("expected install spec via any-any fallback")
	}
	if spec.Strip != 1 {
		t.Errorf("spec.Strip = %d, want 1", spec.Strip)
	}
	if len(spec.Files) != 2 {
		t.Fatalf("len(spec.Files) = %d, want 2", len(spec.Files))
	}
	if spec.Files[0].Src != "widget" || spec.Files[0].Dst != "" {
		t.Errorf("spec.Files[0] = %+v, want {widget }", spec.Files[0])
	}
	if spec.Files[1].Dst != "docs/README.md" {
		t.Errorf("spec.Files[1].Dst = %q, want docs/README.md", spec.Files[1].Dst)
	}
}

func TestMarshalParseRoundTrip(t *testing.T) {
	d, err := Parse([]byte(sampleYAML), "widget")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	data, err := Marshal(d)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	roundTripped, err := Parse(data, "widget")
	if err != nil {
		t.Fatalf("Parse(Marshal(d)) error = %v, yaml:\n%s", err, data)
	}

	if !reflect.DeepEqual(d, roundTripped) {
		t.Fatalf("Parse(Marshal(d)) != d\nwant: %+v\ngot:  %+v\nyaml:\n%s", d, roundTripped, data)
	}
}

func TestParseNameMismatch(t *testing.T) {
	if _, err := Parse([]byte(sampleYAML), "other-name"); err == nil {
		t.Fatal("expected error for mismatched name")
	}
}

func TestValidateRejectsUnresolvableRelease(t *testing.T) {
	d := &Descriptor{
		Name: "widget",
		Releases: map[string]map[archos.ArchOs]Asset{
			"1.0.0": {
				{Arch: archos.ArchX86_64, OS: archos.OSWindows}: {URL: "u", Sha256: "s"},
			},
		},
		Installs: map[string]map[archos.ArchOs]InstallSpec{
			"1.0.0": {
				{Arch: archos.ArchX86_64, OS: archos.OSLinux}: {},
			},
		},
	}
	if err := d.Validate(); err == nil {
		t.Fatal("expected validation error for release with no matching install-spec")
	}
}

func TestValidateRejectsEscapingDestination(t *testing.T) {
	key := archos.ArchOs{Arch: archos.ArchAny, OS: archos.OSAny}
	d := &Descriptor{
		Name: "widget",
		Releases: map[string]map[archos.ArchOs]Asset{
			"1.0.0": {key: {URL: "u", Sha256: "s"}},
		},
		Installs: map[string]map[archos.ArchOs]InstallSpec{
			"1.0.0": {key: {Files: []FileEntry{{Src: "a", Dst: "../../etc/passwd"}}}},
		},
	}
	if err := d.Validate(); err == nil {
		t.Fatal("expected validation error for escaping destination")
	}
}

func TestResolveInstallSpecSparseVersioning(t *testing.T) {
	key := archos.ArchOs{Arch: archos.ArchAny, OS: archos.OSAny}
	d := &Descriptor{
		Name: "widget",
		Releases: map[string]map[archos.ArchOs]Asset{
			"1.0.0": {key: {URL: "u", Sha256: "s"}},
			"1.5.0": {key: {URL: "u", Sha256: "s"}},
		},
		Installs: map[string]map[archos.ArchOs]InstallSpec{
			"1.0.0": {key: {Strip: 0}},
		},
	}
	spec, ok := d.ResolveInstallSpec("1.5.0", key)
	if !ok {
		t.Fatal("expected the 1.0.0 install-spec to apply to 1.5.0")
	}
	if spec.Strip != 0 {
		t.Errorf("spec.Strip = %d, want 0", spec.Strip)
	}
}
