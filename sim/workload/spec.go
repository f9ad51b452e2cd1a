package workload

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ValidArrivalProcesses is the set of recognized arrival process names.
// Empty string means poisson.
var ValidArrivalProcesses = map[string]bool{"": true, "poisson": true, "gamma": true, "constant": true}

// Spec describes a synthetic block I/O stream.
type Spec struct {
	Rate            float64     `yaml:"rate"`         // requests per second
	MaxRequests     int         `yaml:"max_requests"` // 0 = unlimited (horizon only)
	Arrival         ArrivalSpec `yaml:"arrival"`
	ReadRatio       float64     `yaml:"read_ratio"`       // fraction of reads in [0, 1]
	SequentialRatio float64     `yaml:"sequential_ratio"` // chance a request continues its direction's stream
	SectorsMin      int64       `yaml:"sectors_min"`
	SectorsMax      int64       `yaml:"sectors_max"`
	Sizes           *SizeSpec   `yaml:"sizes,omitempty"` // nil = uniform over [sectors_min, sectors_max]
	DeviceSectors   int64       `yaml:"device_sectors"`  // addressable range
}

// ArrivalSpec configures the inter-arrival time process.
type ArrivalSpec struct {
	Process string   `yaml:"process"`
	CV      *float64 `yaml:"cv,omitempty"`
}

// DefaultSpec returns a mixed workload: 200 req/s, 70% reads, half sequential.
func DefaultSpec() Spec {
	return Spec{
		Rate:            200,
		MaxRequests:     1000,
		Arrival:         ArrivalSpec{Process: "poisson"},
		ReadRatio:       0.7,
		SequentialRatio: 0.5,
		SectorsMin:      8,
		SectorsMax:      256,
		DeviceSectors:   1 << 24,
	}
}

// Validate checks ranges and names.
func (s *Spec) Validate() error {
	if s.Rate <= 0 {
		return fmt.Errorf("rate must be positive, got %f", s.Rate)
	}
	if s.MaxRequests < 0 {
		return fmt.Errorf("max_requests must be non-negative, got %d", s.MaxRequests)
	}
	if !ValidArrivalProcesses[s.Arrival.Process] {
		return fmt.Errorf("unknown arrival process %q", s.Arrival.Process)
	}
	if s.Arrival.CV != nil && *s.Arrival.CV <= 0 {
		return fmt.Errorf("arrival cv must be positive, got %f", *s.Arrival.CV)
	}
	if s.ReadRatio < 0 || s.ReadRatio > 1 {
		return fmt.Errorf("read_ratio must be in [0, 1], got %f", s.ReadRatio)
	}
	if s.SequentialRatio < 0 || s.SequentialRatio > 1 {
		return fmt.Errorf("sequential_ratio must be in [0, 1], got %f", s.SequentialRatio)
	}
	if s.SectorsMin <= 0 || s.SectorsMax < s.SectorsMin {
		return fmt.Errorf("sector range [%d, %d] is invalid", s.SectorsMin, s.SectorsMax)
	}
	if s.DeviceSectors < s.SectorsMax {
		return fmt.Errorf("device_sectors %d is smaller than sectors_max %d", s.DeviceSectors, s.SectorsMax)
	}
	if s.Sizes != nil {
		if !ValidSizeDistributions[s.Sizes.Type] {
			return fmt.Errorf("unknown size distribution %q", s.Sizes.Type)
		}
		if _, err := NewSizeSampler(s.Sizes, s.SectorsMin, s.SectorsMax); err != nil {
			return fmt.Errorf("sizes: %w", err)
		}
	}
	return nil
}

// LoadSpec reads a workload spec from YAML with strict field checking.
func LoadSpec(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading workload spec: %w", err)
	}
	spec := DefaultSpec()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&spec); err != nil {
		return nil, fmt.Errorf("parsing workload spec: %w", err)
	}
	return &spec, nil
}
