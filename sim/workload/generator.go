package workload

import (
	"fmt"
	"math/rand"

	"github.com/robcore/Hulk-Kernel-V2/sim/edf"
)

// Record is one generated request, before it becomes an edf.Request.
type Record struct {
	ID          string
	Dir         edf.Direction
	Sector      int64
	Sectors     int64
	ArrivalTime int64
}

// Generate creates a request sequence from spec. ticksPerSecond converts
// the per-second rate to the simulation clock. Deterministic given the
// same spec and rng state. Returns records sorted by ArrivalTime with
// sequential IDs.
func Generate(spec *Spec, rng *rand.Rand, ticksPerSecond, horizon int64) ([]Record, error) {
	if horizon <= 0 {
		return nil, nil
	}
	if ticksPerSecond <= 0 {
		return nil, fmt.Errorf("ticks per second must be positive, got %d", ticksPerSecond)
	}
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("invalid workload spec: %w", err)
	}

	sampler := NewArrivalSampler(spec.Arrival, spec.Rate/float64(ticksPerSecond))
	sizes, err := NewSizeSampler(spec.Sizes, spec.SectorsMin, spec.SectorsMax)
	if err != nil {
		return nil, fmt.Errorf("invalid workload spec: %w", err)
	}
	var cursor [2]int64 // next sequential sector per direction
	for i := range cursor {
		cursor[i] = randomSector(rng, spec, spec.SectorsMax)
	}

	var records []Record
	currentTime := int64(0)
	for spec.MaxRequests == 0 || len(records) < spec.MaxRequests {
		currentTime += sampler.SampleIAT(rng)
		if currentTime >= horizon {
			break
		}

		dir := edf.Write
		if rng.Float64() < spec.ReadRatio {
			dir = edf.Read
		}
		sectors := sizes.Sample(rng)

		var sector int64
		if rng.Float64() < spec.SequentialRatio && cursor[dir]+sectors <= spec.DeviceSectors {
			sector = cursor[dir]
		} else {
			sector = randomSector(rng, spec, sectors)
		}
		cursor[dir] = sector + sectors

		records = append(records, Record{
			ID:          fmt.Sprintf("request_%d", len(records)),
			Dir:         dir,
			Sector:      sector,
			Sectors:     sectors,
			ArrivalTime: currentTime,
		})
	}
	return records, nil
}

// randomSector picks an 8-sector aligned start that leaves room for sectors.
func randomSector(rng *rand.Rand, spec *Spec, sectors int64) int64 {
	span := (spec.DeviceSectors - sectors) / 8
	if span <= 0 {
		return 0
	}
	return rng.Int63n(span+1) * 8
}
