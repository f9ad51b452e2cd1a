// Tracks simulation-wide and per-direction performance metrics such as:
// request latency, dispatch wait, deadline lateness and merge counts.

package sim

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/olekukonko/tablewriter"
	"gonum.org/v1/gonum/stat"

	"github.com/robcore/Hulk-Kernel-V2/sim/edf"
)

// Metrics aggregates statistics about the simulation for final reporting.
// It implements edf.Observer.
type Metrics struct {
	TicksPerSecond int64

	Submitted  [2]int // arrivals handed to the request queue
	Admitted   [2]int
	Dispatched [2]int
	Completed  [2]int // original submissions, absorbed ones included

	Merges       int // merge calls observed
	Repositioned int // merges that moved the survivor

	Latencies [2][]int64 // completion - arrival, per submission
	Waits     [2][]int64 // dispatch - arrival, per dispatched request
	Lateness  [2][]int64 // ticks past deadline at dispatch, 0 when released early

	MergedRequests  uint64 // scheduler counter at shutdown
	BatchedRequests uint64 // scheduler counter at shutdown
	SimEndedTime    int64
}

// NewMetrics creates an empty Metrics for a clock of ticksPerSecond.
func NewMetrics(ticksPerSecond int64) *Metrics {
	return &Metrics{TicksPerSecond: ticksPerSecond}
}

// ObserveAdmit implements edf.Observer.
func (m *Metrics) ObserveAdmit(r *edf.Request, _ int64) {
	m.Admitted[r.Dir]++
}

// ObserveMerge implements edf.Observer.
func (m *Metrics) ObserveMerge(_, _ *edf.Request, repositioned bool) {
	m.Merges++
	if repositioned {
		m.Repositioned++
	}
}

// ObserveDispatch implements edf.Observer.
func (m *Metrics) ObserveDispatch(r *edf.Request, now int64) {
	m.Dispatched[r.Dir]++
	m.Waits[r.Dir] = append(m.Waits[r.Dir], now-r.ArrivalTime)
	m.Lateness[r.Dir] = append(m.Lateness[r.Dir], r.Lateness(now))
}

var _ edf.Observer = (*Metrics)(nil)

// RecordCompletion records that submission r finished at now.
func (m *Metrics) RecordCompletion(r *edf.Request, now int64) {
	m.Completed[r.Dir]++
	m.Latencies[r.Dir] = append(m.Latencies[r.Dir], now-r.ArrivalTime)
}

// Distribution summarizes a sample in ticks.
type Distribution struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stddev"`
	P50    float64 `json:"p50"`
	P90    float64 `json:"p90"`
	P99    float64 `json:"p99"`
	Max    float64 `json:"max"`
}

// Summarize computes a Distribution over values. Empty input gives the
// zero Distribution.
func Summarize(values []int64) Distribution {
	if len(values) == 0 {
		return Distribution{}
	}
	data := make([]float64, len(values))
	for i, v := range values {
		data[i] = float64(v)
	}
	sort.Float64s(data)

	d := Distribution{Count: len(data), Max: data[len(data)-1]}
	if len(data) == 1 {
		d.Mean = data[0]
	} else {
		d.Mean, d.StdDev = stat.MeanStdDev(data, nil)
	}
	d.P50 = stat.Quantile(0.50, stat.Empirical, data, nil)
	d.P90 = stat.Quantile(0.90, stat.Empirical, data, nil)
	d.P99 = stat.Quantile(0.99, stat.Empirical, data, nil)
	return d
}

// DirectionResults holds the summary for one direction.
type DirectionResults struct {
	Direction  string       `json:"direction"`
	Submitted  int          `json:"submitted"`
	Admitted   int          `json:"admitted"`
	Dispatched int          `json:"dispatched"`
	Completed  int          `json:"completed"`
	Latency    Distribution `json:"latency_ticks"`
	Wait       Distribution `json:"wait_ticks"`
	Lateness   Distribution `json:"lateness_ticks"`
}

// Results is the serializable end-of-run summary.
type Results struct {
	TicksPerSecond  int64              `json:"ticks_per_second"`
	SimEndedTime    int64              `json:"sim_ended_time"`
	Merges          int                `json:"merges"`
	Repositioned    int                `json:"repositioned"`
	MergedRequests  uint64             `json:"merged_requests"`
	BatchedRequests uint64             `json:"batched_requests"`
	Directions      []DirectionResults `json:"directions"`
}

// Results summarizes everything recorded so far.
func (m *Metrics) Results() Results {
	res := Results{
		TicksPerSecond:  m.TicksPerSecond,
		SimEndedTime:    m.SimEndedTime,
		Merges:          m.Merges,
		Repositioned:    m.Repositioned,
		MergedRequests:  m.MergedRequests,
		BatchedRequests: m.BatchedRequests,
	}
	for _, dir := range edf.Directions {
		res.Directions = append(res.Directions, DirectionResults{
			Direction:  dir.String(),
			Submitted:  m.Submitted[dir],
			Admitted:   m.Admitted[dir],
			Dispatched: m.Dispatched[dir],
			Completed:  m.Completed[dir],
			Latency:    Summarize(m.Latencies[dir]),
			Wait:       Summarize(m.Waits[dir]),
			Lateness:   Summarize(m.Lateness[dir]),
		})
	}
	return res
}

// Print writes the end-of-run report, with times converted to milliseconds.
func (m *Metrics) Print(w io.Writer) {
	res := m.Results()
	fmt.Fprintln(w, "=== Simulation Metrics ===")
	fmt.Fprintf(w, "Simulation ended     : %d ticks\n", res.SimEndedTime)
	fmt.Fprintf(w, "Merges               : %d (%d repositioned)\n", res.Merges, res.Repositioned)
	fmt.Fprintf(w, "merged_requests      : %d\n", res.MergedRequests)
	fmt.Fprintf(w, "batched_requests     : %d\n", res.BatchedRequests)

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Direction", "Metric", "Count", "Mean ms", "StdDev ms", "P50 ms", "P90 ms", "P99 ms", "Max ms"})
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	for _, d := range res.Directions {
		for _, row := range []struct {
			name string
			dist Distribution
		}{
			{"latency", d.Latency},
			{"wait", d.Wait},
			{"lateness", d.Lateness},
		} {
			table.Append([]string{
				d.Direction,
				row.name,
				fmt.Sprint(row.dist.Count),
				m.ms(row.dist.Mean),
				m.ms(row.dist.StdDev),
				m.ms(row.dist.P50),
				m.ms(row.dist.P90),
				m.ms(row.dist.P99),
				m.ms(row.dist.Max),
			})
		}
	}
	table.Render()
}

func (m *Metrics) ms(ticks float64) string {
	if m.TicksPerSecond <= 0 {
		return "-"
	}
	return fmt.Sprintf("%.2f", ticks*1000/float64(m.TicksPerSecond))
}

// SaveResults writes the Results as indented JSON to path.
func (m *Metrics) SaveResults(path string) error {
	data, err := json.MarshalIndent(m.Results(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling results: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing results to %s: %w", path, err)
	}
	return nil
}
