package site

import (
	"os"
	"sort"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// sitesFile is the on-disk layout of a site configuration file.
type sitesFile struct {
	Sites map[string]Adapter `yaml:"sites"`
	// Order optionally fixes registration order; unlisted keys follow sorted.
	Order []string `yaml:"order,omitempty"`
}

// UnmarshalYAML accepts the spellings ParseVariant accepts.
func (v *Variant) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseVariant(s)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// Parse decodes a YAML site configuration document into adapters.
func Parse(data []byte) ([]Adapter, error) {
	var f sitesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrap(err, "site: parse yaml")
	}

	keys := make([]string, 0, len(f.Sites))
	listed := make(map[string]bool, len(f.Order))
	for _, k := range f.Order {
		if _, ok := f.Sites[k]; !ok {
			return nil, eris.Errorf("site: order lists unknown site %q", k)
		}
		if !listed[k] {
			listed[k] = true
			keys = append(keys, k)
		}
	}
	rest := make([]string, 0, len(f.Sites))
	for k := range f.Sites {
		if !listed[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	keys = append(keys, rest...)

	out := make([]Adapter, 0, len(keys))
	for _, k := range keys {
		a := f.Sites[k]
		a.Key = k
		if a.Variant == "" {
			a.Variant = Standard
		}
		if err := a.Validate(); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

// LoadFile reads a YAML site configuration file.
func LoadFile(path string) ([]Adapter, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "site: read %s", path)
	}
	return Parse(data)
}

// NewRegistryFromConfig returns the built-in sites, overridden and extended
// by the adapters in path when path is non-empty.
func NewRegistryFromConfig(path string) (*Registry, error) {
	r := NewRegistry()
	for _, a := range Defaults() {
		if err := r.Register(a); err != nil {
			return nil, eris.Wrapf(err, "site: register built-in %s", a.Key)
		}
	}
	if path == "" {
		return r, nil
	}
	extra, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	for _, a := range extra {
		if err := r.Register(a); err != nil {
			return nil, err
		}
	}
	return r, nil
}
