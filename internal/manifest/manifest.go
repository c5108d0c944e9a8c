// Package manifest reads the TOML file describing datasets to preload at
// startup.
package manifest

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

type Entry struct {
	Name  string `toml:"name"`
	Path  string `toml:"path"`
	Label string `toml:"label"`
}

type Manifest struct {
	Datasets []Entry `toml:"dataset"`
}

// Load parses and validates the manifest at path.
func Load(path string) (*Manifest, error) {
	var m Manifest
	if _, err := toml.DecodeFile(path, &m); err != nil {
		return nil, fmt.Errorf("decoding manifest %s: %w", path, err)
	}
	for i, entry := range m.Datasets {
		if entry.Name == "" {
			return nil, fmt.Errorf("manifest entry %d: name is required", i)
		}
		if entry.Path == "" {
			return nil, fmt.Errorf("manifest entry %d (%s): path is required", i, entry.Name)
		}
		if entry.Label == "" {
			return nil, fmt.Errorf("manifest entry %d (%s): label is required", i, entry.Name)
		}
	}
	return &m, nil
}
