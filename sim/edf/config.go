package edf

import (
	"fmt"
	"math"
	"math/bits"
)

// ScanMode selects how Dispatch walks a queue.
type ScanMode string

const (
	// ScanOrdered stops at the first request whose deadline is still in the
	// future. Correct only while each queue stays deadline-ordered.
	ScanOrdered ScanMode = "ordered"
	// ScanFull visits every queued request and releases all expired ones,
	// wherever they sit. O(n) per queue.
	ScanFull ScanMode = "full"
)

// ValidScanModes is the set of recognized scan mode names.
// Empty string means ScanOrdered.
var ValidScanModes = map[ScanMode]bool{"": true, ScanOrdered: true, ScanFull: true}

const (
	DefaultTicksPerSecond     int64 = 1000
	DefaultTimesliceQuantumMs int64 = 2000
	DefaultReadWeight               = 2
	DefaultWriteWeight              = 4

	// MaxTunable is the upper clamp for every writable tunable.
	MaxTunable = math.MaxInt32

	// MaxTicksPerSecond keeps MaxTunable milliseconds representable in ticks.
	MaxTicksPerSecond int64 = math.MaxInt64 / MaxTunable
)

// Config groups the scheduler tunables.
type Config struct {
	TicksPerSecond     int64    `yaml:"ticks_per_second"`     // logical clock rate (must be > 0)
	TimesliceQuantumMs int64    `yaml:"timeslice_quantum_ms"` // quantum in milliseconds
	ReadWeight         int      `yaml:"read_weight"`          // quantum multiplier for reads
	WriteWeight        int      `yaml:"write_weight"`         // quantum multiplier for writes
	DispatchScan       ScanMode `yaml:"dispatch_scan"`        // "ordered" (default) or "full"
}

// DefaultConfig returns the stock tunables: 2s quantum, weights 2 and 4.
func DefaultConfig() Config {
	return Config{
		TicksPerSecond:     DefaultTicksPerSecond,
		TimesliceQuantumMs: DefaultTimesliceQuantumMs,
		ReadWeight:         DefaultReadWeight,
		WriteWeight:        DefaultWriteWeight,
		DispatchScan:       ScanOrdered,
	}
}

// Validate checks ranges and names.
func (c Config) Validate() error {
	if c.TicksPerSecond <= 0 || c.TicksPerSecond > MaxTicksPerSecond {
		return fmt.Errorf("ticks_per_second must be in [1, %d], got %d", MaxTicksPerSecond, c.TicksPerSecond)
	}
	if c.TimesliceQuantumMs < 0 || c.TimesliceQuantumMs > MaxTunable {
		return fmt.Errorf("timeslice_quantum_ms must be in [0, %d], got %d", MaxTunable, c.TimesliceQuantumMs)
	}
	if c.ReadWeight < 0 || c.ReadWeight > MaxTunable {
		return fmt.Errorf("read_weight must be in [0, %d], got %d", MaxTunable, c.ReadWeight)
	}
	if c.WriteWeight < 0 || c.WriteWeight > MaxTunable {
		return fmt.Errorf("write_weight must be in [0, %d], got %d", MaxTunable, c.WriteWeight)
	}
	if !ValidScanModes[c.DispatchScan] {
		return fmt.Errorf("unknown dispatch_scan %q", c.DispatchScan)
	}
	return nil
}

// MsecsToTicks converts milliseconds to ticks, rounding up so that a
// non-zero duration never becomes zero ticks. Saturates at math.MaxInt64.
func MsecsToTicks(ms, ticksPerSecond int64) int64 {
	if ms <= 0 || ticksPerSecond <= 0 {
		return 0
	}
	if ms > math.MaxInt64/ticksPerSecond {
		return math.MaxInt64
	}
	product := ms * ticksPerSecond
	ticks := product / 1000
	if product%1000 != 0 {
		ticks++
	}
	return ticks
}

// TicksToMsecs converts ticks to whole milliseconds. Saturates at
// math.MaxInt64.
func TicksToMsecs(ticks, ticksPerSecond int64) int64 {
	if ticks <= 0 || ticksPerSecond <= 0 {
		return 0
	}
	whole := ticks / ticksPerSecond
	if whole >= math.MaxInt64/1000 {
		return math.MaxInt64
	}
	hi, lo := bits.Mul64(uint64(ticks%ticksPerSecond), 1000)
	frac, _ := bits.Div64(hi, lo, uint64(ticksPerSecond))
	return whole*1000 + int64(frac)
}

func clampTunable(v int64) int64 {
	if v < 0 {
		return 0
	}
	if v > MaxTunable {
		return MaxTunable
	}
	return v
}
