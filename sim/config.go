package sim

import (
	"fmt"

	"github.com/robcore/Hulk-Kernel-V2/sim/trace"
)

// SimulationConfig groups run-level parameters.
type SimulationConfig struct {
	Seed           int64  `yaml:"seed"`
	Horizon        int64  `yaml:"horizon"`         // ticks; arrivals and unplugs past it are dropped
	UnplugInterval int64  `yaml:"unplug_interval"` // ticks; 0 unplugs exactly at the next deadline
	TraceLevel     string `yaml:"trace_level"`     // "none" (default) or "decisions"
}

// DefaultSimulationConfig runs one minute of simulated time on a 1000
// ticks/s clock.
func DefaultSimulationConfig() SimulationConfig {
	return SimulationConfig{Seed: 42, Horizon: 60_000, TraceLevel: string(trace.TraceLevelNone)}
}

// Validate checks ranges and names.
func (c SimulationConfig) Validate() error {
	if c.Horizon <= 0 {
		return fmt.Errorf("horizon must be positive, got %d", c.Horizon)
	}
	if c.UnplugInterval < 0 {
		return fmt.Errorf("unplug_interval must be non-negative, got %d", c.UnplugInterval)
	}
	if !trace.IsValidTraceLevel(c.TraceLevel) {
		return fmt.Errorf("unknown trace level %q", c.TraceLevel)
	}
	return nil
}
