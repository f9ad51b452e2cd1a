package cmd

import (
	"bytes"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/robcore/Hulk-Kernel-V2/sim/workload"
)

// DefaultsConfig represents the full defaults.yaml structure.
// All top-level sections must be listed to satisfy KnownFields(true) strict parsing.
type DefaultsConfig struct {
	Version   string                   `yaml:"version"`
	Workloads map[string]workload.Spec `yaml:"workloads"`
}

// loadDefaultsConfig parses defaults.yaml with strict field checking and
// validates every preset.
func loadDefaultsConfig(path string) (*DefaultsConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading defaults file %s: %w", path, err)
	}
	var cfg DefaultsConfig
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parsing defaults file %s: %w", path, err)
	}
	for name, spec := range cfg.Workloads {
		if err := spec.Validate(); err != nil {
			return nil, fmt.Errorf("preset %q: %w", name, err)
		}
	}
	return &cfg, nil
}

// Preset returns the named workload preset.
func (c *DefaultsConfig) Preset(name string) (workload.Spec, error) {
	spec, ok := c.Workloads[name]
	if !ok {
		return workload.Spec{}, fmt.Errorf("unknown workload preset %q (have %v)", name, c.PresetNames())
	}
	return spec, nil
}

// PresetNames returns preset names in sorted order.
func (c *DefaultsConfig) PresetNames() []string {
	names := make([]string, 0, len(c.Workloads))
	for name := range c.Workloads {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
