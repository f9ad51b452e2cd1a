package workload

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSizeSampler_StaysInRange(t *testing.T) {
	tests := []struct {
		name string
		spec *SizeSpec
	}{
		{"nil is uniform", nil},
		{"uniform", &SizeSpec{Type: "uniform"}},
		{"gaussian", &SizeSpec{Type: "gaussian", Params: map[string]float64{"mean": 64, "std_dev": 100}}},
		{"exponential", &SizeSpec{Type: "exponential", Params: map[string]float64{"mean": 32}}},
		{"constant above range clamps", &SizeSpec{Type: "constant", Params: map[string]float64{"value": 4096}}},
		{"empirical", &SizeSpec{Type: "empirical", Params: map[string]float64{"8": 3, "64": 1, "9999": 5}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s, err := NewSizeSampler(tc.spec, 8, 256)
			require.NoError(t, err)
			rng := rand.New(rand.NewSource(1))
			for i := 0; i < 500; i++ {
				v := s.Sample(rng)
				assert.GreaterOrEqual(t, v, int64(8))
				assert.LessOrEqual(t, v, int64(256))
			}
		})
	}
}

func TestEmpiricalSizeSampler_DropsOutOfRangeBins(t *testing.T) {
	// GIVEN a histogram with most weight outside the range
	s, err := NewSizeSampler(&SizeSpec{Type: "empirical", Params: map[string]float64{"16": 1, "4096": 100}}, 8, 256)
	require.NoError(t, err)

	// THEN only the in-range bin is ever drawn
	rng := rand.New(rand.NewSource(2))
	for i := 0; i < 100; i++ {
		assert.Equal(t, int64(16), s.Sample(rng))
	}
}

func TestNewSizeSampler_Errors(t *testing.T) {
	tests := []struct {
		name string
		spec *SizeSpec
	}{
		{"unknown type", &SizeSpec{Type: "zipf"}},
		{"gaussian missing std_dev", &SizeSpec{Type: "gaussian", Params: map[string]float64{"mean": 1}}},
		{"exponential missing mean", &SizeSpec{Type: "exponential"}},
		{"constant missing value", &SizeSpec{Type: "constant"}},
		{"empirical bad key", &SizeSpec{Type: "empirical", Params: map[string]float64{"big": 1}}},
		{"empirical no bins in range", &SizeSpec{Type: "empirical", Params: map[string]float64{"1": 1}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewSizeSampler(tc.spec, 8, 256)
			assert.Error(t, err)
		})
	}
}

func TestUniformSizeSampler_DegenerateRange(t *testing.T) {
	s, err := NewSizeSampler(nil, 32, 32)
	require.NoError(t, err)
	assert.Equal(t, int64(32), s.Sample(rand.New(rand.NewSource(0))))
}
