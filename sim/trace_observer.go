package sim

import (
	"github.com/robcore/Hulk-Kernel-V2/sim/edf"
	"github.com/robcore/Hulk-Kernel-V2/sim/trace"
)

// traceObserver turns scheduler decisions into trace records.
type traceObserver struct {
	st *trace.SimulationTrace
}

func (o *traceObserver) ObserveAdmit(r *edf.Request, now int64) {
	o.st.RecordAdmit(trace.AdmitRecord{
		RequestID: r.ID,
		Direction: r.Dir.String(),
		Clock:     now,
		Deadline:  r.Deadline,
		Sector:    r.Sector,
		Sectors:   r.Sectors,
	})
}

func (o *traceObserver) ObserveMerge(node, candidate *edf.Request, repositioned bool) {
	o.st.RecordMerge(trace.MergeRecord{
		NodeID:       node.ID,
		CandidateID:  candidate.ID,
		Direction:    node.Dir.String(),
		Deadline:     node.Deadline,
		Repositioned: repositioned,
	})
}

func (o *traceObserver) ObserveDispatch(r *edf.Request, now int64) {
	o.st.RecordDispatch(trace.DispatchRecord{
		RequestID: r.ID,
		Direction: r.Dir.String(),
		Clock:     now,
		Deadline:  r.Deadline,
		Lateness:  r.Lateness(now),
	})
}
