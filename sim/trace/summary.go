package trace

// TraceSummary aggregates statistics from a SimulationTrace.
type TraceSummary struct {
	TotalAdmits       int
	TotalMerges       int
	RepositionedCount int
	TotalDispatches   int
	MeanLateness      float64 // early releases count as 0
	MaxLateness       int64
	DispatchesByDir   map[string]int // direction → count of dispatched requests
}

// Summarize computes aggregate statistics from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SimulationTrace) *TraceSummary {
	summary := &TraceSummary{
		DispatchesByDir: make(map[string]int),
	}
	if st == nil {
		return summary
	}

	summary.TotalAdmits = len(st.Admits)
	summary.TotalMerges = len(st.Merges)
	for _, m := range st.Merges {
		if m.Repositioned {
			summary.RepositionedCount++
		}
	}

	if len(st.Dispatches) > 0 {
		var total int64
		for _, d := range st.Dispatches {
			summary.DispatchesByDir[d.Direction]++
			late := max(d.Lateness, 0)
			total += late
			if late > summary.MaxLateness {
				summary.MaxLateness = late
			}
		}
		summary.TotalDispatches = len(st.Dispatches)
		summary.MeanLateness = float64(total) / float64(len(st.Dispatches))
	}

	return summary
}
