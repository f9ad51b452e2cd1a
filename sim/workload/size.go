package workload

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strconv"
)

// ValidSizeDistributions is the set of recognized request size distributions.
// Empty string means uniform over [sectors_min, sectors_max].
var ValidSizeDistributions = map[string]bool{"": true, "uniform": true, "gaussian": true, "exponential": true, "constant": true, "empirical": true}

// SizeSpec selects the request size distribution. Params depend on Type:
// gaussian needs mean and std_dev, exponential needs mean, constant needs
// value, and empirical maps sector counts to weights.
type SizeSpec struct {
	Type   string             `yaml:"type"`
	Params map[string]float64 `yaml:"params,omitempty"`
}

// SizeSampler draws request sizes in sectors. Every sample lies in
// [lo, hi] of the sampler's range.
type SizeSampler interface {
	Sample(rng *rand.Rand) int64
}

type sizeRange struct{ lo, hi int64 }

func (r sizeRange) clamp(v float64) int64 {
	if math.IsNaN(v) {
		return r.lo
	}
	return int64(math.Round(math.Min(float64(r.hi), math.Max(float64(r.lo), v))))
}

// UniformSizeSampler draws uniformly from the range.
type UniformSizeSampler struct{ sizeRange }

func (s *UniformSizeSampler) Sample(rng *rand.Rand) int64 {
	if s.hi == s.lo {
		return s.lo
	}
	return s.lo + rng.Int63n(s.hi-s.lo+1)
}

// GaussianSizeSampler produces clamped Gaussian sizes.
type GaussianSizeSampler struct {
	sizeRange
	mean, stdDev float64
}

func (s *GaussianSizeSampler) Sample(rng *rand.Rand) int64 {
	return s.clamp(rng.NormFloat64()*s.stdDev + s.mean)
}

// ExponentialSizeSampler produces clamped exponential sizes, so most
// requests are small with a long tail.
type ExponentialSizeSampler struct {
	sizeRange
	mean float64
}

func (s *ExponentialSizeSampler) Sample(rng *rand.Rand) int64 {
	return s.clamp(rng.ExpFloat64() * s.mean)
}

// ConstantSizeSampler always returns the same clamped size.
type ConstantSizeSampler struct {
	sizeRange
	value float64
}

func (s *ConstantSizeSampler) Sample(_ *rand.Rand) int64 {
	return s.clamp(s.value)
}

// EmpiricalSizeSampler samples a weighted histogram by inverse CDF.
type EmpiricalSizeSampler struct {
	values []int64   // sorted sizes
	cdf    []float64 // cumulative probability, same length as values
}

// NewEmpiricalSizeSampler builds a sampler from size → weight. Weights are
// normalized; non-positive weights and sizes outside [lo, hi] are dropped.
func NewEmpiricalSizeSampler(pdf map[int64]float64, lo, hi int64) (*EmpiricalSizeSampler, error) {
	keys := make([]int64, 0, len(pdf))
	total := 0.0
	for k, p := range pdf {
		if p > 0 && k >= lo && k <= hi {
			keys = append(keys, k)
			total += p
		}
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("empirical size distribution has no bins in [%d, %d]", lo, hi)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	s := &EmpiricalSizeSampler{values: keys, cdf: make([]float64, len(keys))}
	cumulative := 0.0
	for i, k := range keys {
		cumulative += pdf[k] / total
		s.cdf[i] = cumulative
	}
	s.cdf[len(s.cdf)-1] = 1.0
	return s, nil
}

func (s *EmpiricalSizeSampler) Sample(rng *rand.Rand) int64 {
	idx := sort.SearchFloat64s(s.cdf, rng.Float64())
	if idx >= len(s.values) {
		idx = len(s.values) - 1
	}
	return s.values[idx]
}

func requireParam(params map[string]float64, keys ...string) error {
	for _, k := range keys {
		if _, ok := params[k]; !ok {
			return fmt.Errorf("size distribution requires parameter %q", k)
		}
	}
	return nil
}

// NewSizeSampler creates a SizeSampler over [lo, hi] from spec. A nil spec
// gives the uniform sampler.
func NewSizeSampler(spec *SizeSpec, lo, hi int64) (SizeSampler, error) {
	r := sizeRange{lo: lo, hi: hi}
	if spec == nil {
		return &UniformSizeSampler{r}, nil
	}
	switch spec.Type {
	case "", "uniform":
		return &UniformSizeSampler{r}, nil

	case "gaussian":
		if err := requireParam(spec.Params, "mean", "std_dev"); err != nil {
			return nil, err
		}
		return &GaussianSizeSampler{sizeRange: r, mean: spec.Params["mean"], stdDev: spec.Params["std_dev"]}, nil

	case "exponential":
		if err := requireParam(spec.Params, "mean"); err != nil {
			return nil, err
		}
		return &ExponentialSizeSampler{sizeRange: r, mean: spec.Params["mean"]}, nil

	case "constant":
		if err := requireParam(spec.Params, "value"); err != nil {
			return nil, err
		}
		return &ConstantSizeSampler{sizeRange: r, value: spec.Params["value"]}, nil

	case "empirical":
		pdf := make(map[int64]float64, len(spec.Params))
		for k, v := range spec.Params {
			sectors, err := strconv.ParseInt(k, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("empirical size key %q is not an integer: %w", k, err)
			}
			pdf[sectors] = v
		}
		return NewEmpiricalSizeSampler(pdf, lo, hi)

	default:
		return nil, fmt.Errorf("unknown size distribution %q", spec.Type)
	}
}
