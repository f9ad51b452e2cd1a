// Package sim provides the discrete-event harness that drives the EDF block
// I/O scheduler.
//
// # Reading Guide
//
// Start with these files to understand the simulation loop:
//   - event.go: Event types that drive the simulation (Arrival, Unplug, Completion)
//   - simulator.go: The event loop, unplug arming, and the end-of-run drain
//   - metrics.go: Per-direction latency, wait and lateness summaries
//
// # Architecture
//
// The scheduler itself and the harness pieces live in sub-packages:
//   - sim/edf/: Deadline queues, admission, merge and dispatch
//   - sim/blockdev/: Merge candidacy (sector index) and the device model
//   - sim/workload/: Synthetic request streams
//   - sim/trace/: Decision trace recording
//   - sim/promexport/: Prometheus export of scheduler decisions
//
// The simulator is single-threaded; the event loop is the serialization
// point every scheduler call happens under. Observers (metrics, trace,
// Prometheus) are fanned out through edf.Observers.
package sim
