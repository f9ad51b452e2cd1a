package sim

import (
	"github.com/sirupsen/logrus"

	"github.com/robcore/Hulk-Kernel-V2/sim/edf"
	"github.com/robcore/Hulk-Kernel-V2/sim/workload"
)

// Event defines the interface for all simulation events.
// Each event has a Timestamp (in ticks), a Priority that orders events
// sharing a timestamp (lower runs first), and an Execute method that
// advances simulation state when invoked.
type Event interface {
	Timestamp() int64
	Priority() int
	Execute(*Simulator)
}

// Same-tick ordering: the device frees up first, new requests are admitted
// next, and the unplug sees all of them.
const (
	priorityCompletion = iota
	priorityArrival
	priorityUnplug
)

// ArrivalEvent submits one workload record to the request queue.
type ArrivalEvent struct {
	time   int64
	Record workload.Record
}

// Timestamp returns the scheduled time of the ArrivalEvent.
func (e *ArrivalEvent) Timestamp() int64 { return e.time }

// Priority orders arrivals after completions.
func (e *ArrivalEvent) Priority() int { return priorityArrival }

// Execute admits the request and makes sure an unplug is armed for the
// earliest deadline.
func (e *ArrivalEvent) Execute(sim *Simulator) {
	logrus.Debugf("<< Arrival: %s at %d ticks", e.Record.ID, e.time)
	r := edf.NewRequest(e.Record.ID, e.Record.Dir, e.Record.Sector, e.Record.Sectors)
	sim.Metrics.Submitted[r.Dir]++
	sim.Queue.Submit(r, e.time)
	sim.armUnplug(e.time)
}

// UnplugEvent runs a dispatch pass over the deadline queues.
type UnplugEvent struct {
	time int64
}

// Timestamp returns the scheduled time of the UnplugEvent.
func (e *UnplugEvent) Timestamp() int64 { return e.time }

// Priority orders unplugs after everything else at the same tick.
func (e *UnplugEvent) Priority() int { return priorityUnplug }

// Execute dispatches expired requests and hands them to the device. Stale
// unplugs, superseded by an earlier one, do nothing.
func (e *UnplugEvent) Execute(sim *Simulator) {
	if e.time != sim.nextUnplug {
		return
	}
	sim.nextUnplug = noUnplug
	if n := sim.Queue.Run(e.time); n > 0 {
		logrus.Debugf("<< Unplug at %d ticks: dispatched %d", e.time, n)
		sim.startDevice(e.time)
	}
	sim.armUnplug(e.time)
}

// CompletionEvent finishes the request in flight on the device.
type CompletionEvent struct {
	time int64
}

// Timestamp returns the scheduled time of the CompletionEvent.
func (e *CompletionEvent) Timestamp() int64 { return e.time }

// Priority orders completions first.
func (e *CompletionEvent) Priority() int { return priorityCompletion }

// Execute records completion of every submission folded into the finished
// request and starts the next one.
func (e *CompletionEvent) Execute(sim *Simulator) {
	r := sim.Device.Finish()
	for _, done := range sim.Queue.Complete(r) {
		sim.Metrics.RecordCompletion(done, e.time)
	}
	logrus.Debugf("<< Completion: %s at %d ticks", r.ID, e.time)
	sim.startDevice(e.time)
}
