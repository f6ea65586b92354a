// Package catalog holds the read-only table of avatars, keyed by the name
// users pass on the command line. The built-in set is embedded in the binary;
// additional catalogs can be loaded from YAML or HCL files and merged over it.
package catalog

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/brianholle/custom-claude-avatar/internal/avatar"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// ErrUnknownAvatarKey is returned by Lookup for a key the catalog lacks.
var ErrUnknownAvatarKey = errors.New("unknown avatar key")

// UnknownKeyError carries the requested key and the valid choices.
type UnknownKeyError struct {
	Key       string
	Available []string
}

func (e *UnknownKeyError) Error() string {
	return fmt.Sprintf("%s %q (available: %s)", ErrUnknownAvatarKey, e.Key, strings.Join(e.Available, ", "))
}

func (e *UnknownKeyError) Unwrap() error {
	return ErrUnknownAvatarKey
}

// Catalog is an immutable key → avatar table.
type Catalog struct {
	avatars map[string]avatar.Avatar
	keys    []string
}

// New validates every avatar and returns a catalog over a private copy of
// the map.
func New(avatars map[string]avatar.Avatar) (*Catalog, error) {
	c := &Catalog{avatars: make(map[string]avatar.Avatar, len(avatars))}
	for key, a := range avatars {
		if strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("%w: empty avatar key", avatar.ErrMalformedDefinition)
		}
		if err := a.Validate(); err != nil {
			return nil, fmt.Errorf("catalog entry %q: %w", key, err)
		}
		c.avatars[key] = a
		c.keys = append(c.keys, key)
	}
	sort.Strings(c.keys)
	return c, nil
}

// Default returns the built-in catalog.
func Default() (*Catalog, error) {
	c, err := Parse(defaultsYAML)
	if err != nil {
		return nil, fmt.Errorf("built-in catalog: %w", err)
	}
	return c, nil
}

// yamlFile is the on-disk YAML shape. Shared holds anchored lines that
// avatars alias; it is not itself part of the catalog.
type yamlFile struct {
	Shared  map[string]avatar.Line   `yaml:"shared,omitempty"`
	Avatars map[string]avatar.Avatar `yaml:"avatars"`
}

// Parse decodes a YAML catalog. Unknown fields are rejected.
func Parse(data []byte) (*Catalog, error) {
	var f yamlFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to parse catalog YAML: %w", err)
	}
	if len(f.Avatars) == 0 {
		return nil, fmt.Errorf("catalog defines no avatars")
	}
	return New(f.Avatars)
}

// LoadFile reads a catalog from disk, choosing the decoder by extension:
// .yaml/.yml or .hcl.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		c, err := Parse(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return c, nil
	case ".hcl":
		return ParseHCL(data, path)
	default:
		return nil, fmt.Errorf("unsupported catalog format %q (want .yaml, .yml or .hcl)", ext)
	}
}

// Lookup returns the avatar for key, or an *UnknownKeyError.
func (c *Catalog) Lookup(key string) (avatar.Avatar, error) {
	a, ok := c.avatars[key]
	if !ok {
		return avatar.Avatar{}, &UnknownKeyError{Key: key, Available: c.Keys()}
	}
	return a, nil
}

// Keys returns the sorted keys.
func (c *Catalog) Keys() []string {
	out := make([]string, len(c.keys))
	copy(out, c.keys)
	return out
}

// Len returns the number of avatars.
func (c *Catalog) Len() int {
	return len(c.keys)
}

// Merge returns a new catalog with the entries of other layered over c.
// Neither input is modified.
func (c *Catalog) Merge(other *Catalog) *Catalog {
	merged := &Catalog{avatars: make(map[string]avatar.Avatar, len(c.avatars))}
	for k, a := range c.avatars {
		merged.avatars[k] = a
	}
	if other != nil {
		for k, a := range other.avatars {
			merged.avatars[k] = a
		}
	}
	for k := range merged.avatars {
		merged.keys = append(merged.keys, k)
	}
	sort.Strings(merged.keys)
	return merged
}
