// Package trace provides decision-trace recording for scheduler analysis.
// This package has no dependencies on sim/ or sim/edf/; it stores pure data types.
package trace

// AdmitRecord captures a single admission and the deadline it was given.
type AdmitRecord struct {
	RequestID string
	Direction string
	Clock     int64
	Deadline  int64
	Sector    int64
	Sectors   int64
}

// MergeRecord captures a merge decision. NodeID survives; CandidateID is
// removed from the queues.
type MergeRecord struct {
	NodeID       string
	CandidateID  string
	Direction    string
	Deadline     int64 // surviving deadline
	Repositioned bool  // node moved into the candidate's slot
}

// DispatchRecord captures a request being released to the device.
type DispatchRecord struct {
	RequestID string
	Direction string
	Clock     int64
	Deadline  int64
	Lateness  int64 // max(0, Clock - Deadline)
}
