package sim

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/robcore/Hulk-Kernel-V2/sim/blockdev"
	"github.com/robcore/Hulk-Kernel-V2/sim/edf"
	"github.com/robcore/Hulk-Kernel-V2/sim/workload"
)

// RunConfig holds everything one simulation run needs, loadable from a
// YAML file. Sections absent from the file keep their defaults.
type RunConfig struct {
	Scheduler  edf.Config            `yaml:"scheduler"`
	Workload   workload.Spec         `yaml:"workload"`
	Queue      blockdev.QueueConfig  `yaml:"queue"`
	Device     blockdev.DeviceConfig `yaml:"device"`
	Simulation SimulationConfig      `yaml:"simulation"`
}

// DefaultRunConfig returns the built-in defaults for every section.
func DefaultRunConfig() RunConfig {
	return RunConfig{
		Scheduler:  edf.DefaultConfig(),
		Workload:   workload.DefaultSpec(),
		Queue:      blockdev.DefaultQueueConfig(),
		Device:     blockdev.DefaultDeviceConfig(),
		Simulation: DefaultSimulationConfig(),
	}
}

// LoadRunConfig reads and parses a YAML run configuration file.
func LoadRunConfig(path string) (*RunConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading run config: %w", err)
	}
	return ParseRunConfig(data)
}

// ParseRunConfig decodes YAML over the defaults. Unknown fields are errors.
func ParseRunConfig(data []byte) (*RunConfig, error) {
	cfg := DefaultRunConfig()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing run config: %w", err)
	}
	return &cfg, nil
}

// Validate checks every section.
func (c *RunConfig) Validate() error {
	if err := c.Scheduler.Validate(); err != nil {
		return fmt.Errorf("scheduler: %w", err)
	}
	if err := c.Workload.Validate(); err != nil {
		return fmt.Errorf("workload: %w", err)
	}
	if err := c.Queue.Validate(); err != nil {
		return fmt.Errorf("queue: %w", err)
	}
	if err := c.Device.Validate(); err != nil {
		return fmt.Errorf("device: %w", err)
	}
	if err := c.Simulation.Validate(); err != nil {
		return fmt.Errorf("simulation: %w", err)
	}
	return nil
}
