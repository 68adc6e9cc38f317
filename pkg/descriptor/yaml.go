package descriptor

import (
	"fmt"

	"github.com/clyde-pm/clyde/pkg/archos"
	"gopkg.in/yaml.v3"
)

// orderedFiles decodes a YAML mapping into an order-preserving slice of
// FileEntry. gopkg.in/yaml.v3 unmarshals mappings into Go maps without
// preserving key order, but spec.md §3 calls `files` an "ordered mapping" —
// so we decode through the raw *yaml.Node instead, walking its Content pairs.
type orderedFiles []FileEntry

func (o *orderedFiles) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("expected a mapping, got %v", node.Kind)
	}
	entries := make([]FileEntry, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i]
		val := node.Content[i+1]
		var dst string
		if val.Value == "~" {
			dst = ""
		} else {
			dst = val.Value
		}
		entries = append(entries, FileEntry{Src: key.Value, Dst: dst})
	}
	*o = entries
	return nil
}

// MarshalYAML renders orderedFiles back to a mapping node preserving the
// slice's order, so Marshal's output round-trips through UnmarshalYAML
// instead of losing order to Go's randomized map iteration.
func (o orderedFiles) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, f := range o {
		keyNode := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: f.Src}
		valNode := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: f.Dst}
		if f.Dst == "" {
			valNode.Tag = "!!null"
			valNode.Value = "~"
		}
		node.Content = append(node.Content, keyNode, valNode)
	}
	return node, nil
}

type yamlInstallSpec struct {
	Strip      int          `yaml:"strip"`
	Files      orderedFiles `yaml:"files,omitempty"`
	ExtraFiles orderedFiles `yaml:"extra_files,omitempty"`
	Tests      []string     `yaml:"tests,omitempty"`
}

type yamlFetcher struct {
	raw any
}

func (f *yamlFetcher) UnmarshalYAML(node *yaml.Node) error {
	var v any
	if err := node.Decode(&v); err != nil {
		return err
	}
	f.raw = v
	return nil
}

func (f *yamlFetcher) toFetcher() (Fetcher, error) {
	if f == nil || f.raw == nil {
		return Fetcher{Kind: FetcherAuto}, nil
	}
	switch v := f.raw.(type) {
	case string:
		switch v {
		case "", "Auto", "auto":
			return Fetcher{Kind: FetcherAuto}, nil
		case "Off", "off":
			return Fetcher{Kind: FetcherOff}, nil
		case "Script", "script":
			return Fetcher{Kind: FetcherScript}, nil
		default:
			return Fetcher{}, fmt.Errorf("unknown fetcher tag %q", v)
		}
	case map[string]any:
		for tag, body := range v {
			m, _ := body.(map[string]any)
			switch tag {
			case "GitHub", "github":
				return Fetcher{Kind: FetcherGitHub, Repository: stringField(m, "repository"), VersionExpr: stringField(m, "version_expr")}, nil
			case "GitLab", "gitlab":
				return Fetcher{Kind: FetcherGitLab, Repository: stringField(m, "repository"), BaseURL: stringField(m, "base_url"), VersionExpr: stringField(m, "version_expr")}, nil
			case "Forgejo", "forgejo":
				return Fetcher{Kind: FetcherForgejo, Repository: stringField(m, "repository"), BaseURL: stringField(m, "base_url"), VersionExpr: stringField(m, "version_expr")}, nil
			case "Script", "script":
				return Fetcher{Kind: FetcherScript, Command: stringField(m, "command")}, nil
			default:
				return Fetcher{}, fmt.Errorf("unknown fetcher tag %q", tag)
			}
		}
		return Fetcher{Kind: FetcherAuto}, nil
	default:
		return Fetcher{}, fmt.Errorf("unsupported fetcher value %v", v)
	}
}

func stringField(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	if s, ok := m[key].(string); ok {
		return s
	}
	return ""
}

type yamlDescriptor struct {
	Name        string                                `yaml:"name"`
	Description string                                `yaml:"description"`
	Homepage    string                                `yaml:"homepage"`
	Repository  string                                `yaml:"repository"`
	Fetcher     *yamlFetcher                          `yaml:"fetcher"`
	Releases    map[string]map[string]Asset           `yaml:"releases"`
	Installs    map[string]map[string]yamlInstallSpec `yaml:"installs"`
}

// Parse decodes a descriptor YAML document. `name` is the identity the
// caller resolved the descriptor under (filename stem or directory name);
// per spec.md §3 it must equal the descriptor's `name` field.
func Parse(data []byte, name string) (*Descriptor, error) {
	var y yamlDescriptor
	if err := yaml.Unmarshal(data, &y); err != nil {
		return nil, fmt.Errorf("parsing descriptor %s: %w", name, err)
	}

	if y.Name == "" {
		y.Name = name
	}
	if y.Name != name {
		return nil, fmt.Errorf("descriptor %s: name field %q does not match %q", name, y.Name, name)
	}

	fetcher, err := y.Fetcher.toFetcher()
	if err != nil {
		return nil, fmt.Errorf("descriptor %s: %w", name, err)
	}

	d := &Descriptor{
		Name:        y.Name,
		Description: y.Description,
		Homepage:    y.Homepage,
		Repository:  y.Repository,
		Fetcher:     fetcher,
		Releases:    make(map[string]map[archos.ArchOs]Asset),
		Installs:    make(map[string]map[archos.ArchOs]InstallSpec),
	}

	for version, perArch := range y.Releases {
		m := make(map[archos.ArchOs]Asset, len(perArch))
		for key, asset := range perArch {
			ao, err := archos.Parse(key)
			if err != nil {
				return nil, fmt.Errorf("descriptor %s: releases.%s: %w", name, version, err)
			}
			m[ao] = asset
		}
		d.Releases[version] = m
	}

	for version, perArch := range y.Installs {
		m := make(map[archos.ArchOs]InstallSpec, len(perArch))
		for key, spec := range perArch {
			ao, err := archos.Parse(key)
			if err != nil {
				return nil, fmt.Errorf("descriptor %s: installs.%s: %w", name, version, err)
			}
			m[ao] = InstallSpec{
				Strip:      spec.Strip,
				Files:      []FileEntry(spec.Files),
				ExtraFiles: []FileEntry(spec.ExtraFiles),
				Tests:      spec.Tests,
			}
		}
		d.Installs[version] = m
	}

	if err := d.Validate(); err != nil {
		return nil, err
	}

	return d, nil
}

// fetcherToYAML renders a Fetcher back to the tagged-union shape toFetcher
// parses: a bare string for Auto/Off/Script-without-command, a single-key
// mapping otherwise.
func fetcherToYAML(f Fetcher) any {
	switch f.Kind {
	case FetcherOff:
		return "Off"
	case FetcherScript:
		if f.Command == "" {
			return "Script"
		}
		return map[string]any{"Script": map[string]any{"command": f.Command}}
	case FetcherGitHub:
		return map[string]any{"GitHub": repoFields(f)}
	case FetcherGitLab:
		return map[string]any{"GitLab": repoFields(f)}
	case FetcherForgejo:
		return map[string]any{"Forgejo": repoFields(f)}
	default:
		return "Auto"
	}
}

func repoFields(f Fetcher) map[string]any {
	m := map[string]any{"repository": f.Repository}
	if f.BaseURL != "" {
		m["base_url"] = f.BaseURL
	}
	if f.VersionExpr != "" {
		m["version_expr"] = f.VersionExpr
	}
	return m
}

// Marshal serializes a descriptor back to the YAML form Parse reads, such
// that Parse(Marshal(d), d.Name) yields a Descriptor equal to d (spec.md
// §3's "serialising a descriptor then parsing it yields an equal
// descriptor" invariant).
func Marshal(d *Descriptor) ([]byte, error) {
	out := struct {
		Name        string                                `yaml:"name"`
		Description string                                `yaml:"description,omitempty"`
		Homepage    string                                `yaml:"homepage,omitempty"`
		Repository  string                                `yaml:"repository,omitempty"`
		Fetcher     any                                   `yaml:"fetcher,omitempty"`
		Releases    map[string]map[string]Asset           `yaml:"releases"`
		Installs    map[string]map[string]yamlInstallSpec `yaml:"installs,omitempty"`
	}{
		Name:        d.Name,
		Description: d.Description,
		Homepage:    d.Homepage,
		Repository:  d.Repository,
		Fetcher:     fetcherToYAML(d.Fetcher),
		Releases:    make(map[string]map[string]Asset, len(d.Releases)),
		Installs:    make(map[string]map[string]yamlInstallSpec, len(d.Installs)),
	}

	for version, assets := range d.Releases {
		m := make(map[string]Asset, len(assets))
		for key, asset := range assets {
			m[key.String()] = asset
		}
		out.Releases[version] = m
	}

	for version, specs := range d.Installs {
		m := make(map[string]yamlInstallSpec, len(specs))
		for key, spec := range specs {
			m[key.String()] = yamlInstallSpec{
				Strip:      spec.Strip,
				Files:      orderedFiles(spec.Files),
				ExtraFiles: orderedFiles(spec.ExtraFiles),
				Tests:      spec.Tests,
			}
		}
		out.Installs[version] = m
	}

	return yaml.Marshal(out)
}
