package edf

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
)

// Scheduler is the EDF core: a read queue, a write queue, the tunables that
// shape deadlines, and two running counters.
//
// A Scheduler has no internal locking. Every call, attribute access
// included, must happen under one serialization point held by the caller.
type Scheduler struct {
	queues [numDirections]*DeadlineQueue

	ticksPerSecond int64
	quantum        int64 // ticks
	weights        [numDirections]int64
	scan           ScanMode

	mergedRequests  uint64
	batchedRequests uint64

	observer Observer
}

// NewScheduler creates a scheduler with empty queues. Panics on an invalid
// config; callers are expected to Validate user input first.
func NewScheduler(cfg Config) *Scheduler {
	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("NewScheduler: %v", err))
	}
	s := &Scheduler{
		ticksPerSecond: cfg.TicksPerSecond,
		quantum:        MsecsToTicks(cfg.TimesliceQuantumMs, cfg.TicksPerSecond),
		scan:           cfg.DispatchScan,
	}
	if s.scan == "" {
		s.scan = ScanOrdered
	}
	s.weights[Read] = int64(cfg.ReadWeight)
	s.weights[Write] = int64(cfg.WriteWeight)
	for _, dir := range Directions {
		s.queues[dir] = newDeadlineQueue(dir)
	}
	if s.quantum == 0 || s.weights[Read] == 0 || s.weights[Write] == 0 {
		logrus.Warnf("edf: zero deadline window (quantum=%d ticks, read_weight=%d, write_weight=%d); requests expire on admission",
			s.quantum, s.weights[Read], s.weights[Write])
	}
	return s
}

// SetObserver installs o; nil disables observation.
func (s *Scheduler) SetObserver(o Observer) {
	s.observer = o
}

// Shutdown tears the scheduler down. Both queues must already be empty;
// drain them first.
func (s *Scheduler) Shutdown() {
	for _, dir := range Directions {
		if n := s.queues[dir].Len(); n != 0 {
			panic(fmt.Sprintf("Shutdown: %d requests still queued on the %s queue", n, dir))
		}
	}
	logrus.Debugf("edf: shutdown (merged=%d, batched=%d)", s.mergedRequests, s.batchedRequests)
	s.observer = nil
}

// DeadlineFor returns the deadline a request of direction dir admitted at
// now would receive. Saturates at math.MaxInt64.
func (s *Scheduler) DeadlineFor(dir Direction, now int64) int64 {
	window := s.quantum * s.weight(dir)
	if s.weight(dir) != 0 && window/s.weight(dir) != s.quantum {
		return math.MaxInt64
	}
	if now > 0 && window > math.MaxInt64-now {
		return math.MaxInt64
	}
	return now + window
}

// Admit stamps r with its deadline and appends it to its direction's queue.
func (s *Scheduler) Admit(r *Request, now int64) {
	if r == nil {
		panic("Admit: req must not be nil")
	}
	if r.state != Unlinked {
		panic(fmt.Sprintf("Admit: request %q is already queued", r.ID))
	}
	q := s.queue(r.Dir)
	r.ArrivalTime = now
	r.Deadline = s.DeadlineFor(r.Dir, now)
	if tail := q.Back(); tail != nil && tail.Deadline > r.Deadline {
		logrus.Debugf("edf: %s %s deadline %d precedes tail %s (%d); ordered scan may hold it back",
			r.Dir, r.ID, r.Deadline, tail.ID, tail.Deadline)
	}
	q.PushBack(r)
	logrus.Debugf("edf: admit %s %s at %d, deadline %d", r.Dir, r.ID, now, r.Deadline)
	if s.observer != nil {
		s.observer.ObserveAdmit(r, now)
	}
}

// Merge folds candidate into node. If candidate expires strictly earlier,
// node takes over candidate's queue position and deadline. candidate is
// then unlinked. If either request is already unlinked nothing happens.
func (s *Scheduler) Merge(node, candidate *Request) {
	if node == nil || candidate == nil {
		panic("Merge: requests must not be nil")
	}
	if !node.Linked() || !candidate.Linked() {
		return
	}
	if node == candidate {
		panic(fmt.Sprintf("Merge: request %q cannot merge with itself", node.ID))
	}
	s.mustOwn("Merge", node)
	s.mustOwn("Merge", candidate)
	if node.Dir != candidate.Dir {
		panic(fmt.Sprintf("Merge: %s request %q and %s request %q differ in direction",
			node.Dir, node.ID, candidate.Dir, candidate.ID))
	}

	q := s.queue(node.Dir)
	repositioned := false
	if candidate.Deadline < node.Deadline {
		q.MoveAfter(node, candidate)
		node.Deadline = candidate.Deadline
		s.mergedRequests++
		repositioned = true
	}
	q.Remove(candidate)

	logrus.Debugf("edf: merge %s into %s (deadline %d, repositioned=%t)",
		candidate.ID, node.ID, node.Deadline, repositioned)
	if s.observer != nil {
		s.observer.ObserveMerge(node, candidate, repositioned)
	}
}

// Dispatch releases every expired request to sink, reads before writes,
// and returns how many were released. A request expires once now reaches
// its deadline.
//
// With ScanOrdered the walk of a queue stops at the first request that has
// not expired, so an expired request queued behind it waits for a later
// call. ScanFull removes that limitation at O(n) cost.
func (s *Scheduler) Dispatch(now int64, sink DispatchSink) int {
	if sink == nil {
		panic("Dispatch: sink must not be nil")
	}
	ctr := 0
	for _, dir := range Directions {
		ctr += s.dispatchQueue(s.queues[dir], now, sink)
	}
	return ctr
}

func (s *Scheduler) dispatchQueue(q *DeadlineQueue, now int64, sink DispatchSink) int {
	ctr := 0
	for r := q.Front(); r != nil; {
		next := r.next
		if now < r.Deadline {
			if s.scan == ScanOrdered {
				break
			}
			r = next
			continue
		}
		s.release(q, r, now, sink)
		ctr++
		r = next
	}
	return ctr
}

// Drain releases every queued request regardless of deadline, reads first.
// Used to empty the scheduler ahead of Shutdown.
func (s *Scheduler) Drain(now int64, sink DispatchSink) int {
	if sink == nil {
		panic("Drain: sink must not be nil")
	}
	ctr := 0
	for _, dir := range Directions {
		q := s.queues[dir]
		for r := q.Front(); r != nil; r = q.Front() {
			s.release(q, r, now, sink)
			ctr++
		}
	}
	return ctr
}

func (s *Scheduler) release(q *DeadlineQueue, r *Request, now int64, sink DispatchSink) {
	q.Remove(r)
	s.batchedRequests++
	logrus.Debugf("edf: dispatch %s %s at %d (deadline %d)", r.Dir, r.ID, now, r.Deadline)
	sink.AddTail(r)
	if s.observer != nil {
		s.observer.ObserveDispatch(r, now)
	}
}

// Former returns the request queued ahead of r in r's direction, or nil.
func (s *Scheduler) Former(r *Request) *Request {
	if r == nil || !r.Linked() {
		return nil
	}
	s.mustOwn("Former", r)
	return r.prev
}

// Latter returns the request queued behind r in r's direction, or nil.
func (s *Scheduler) Latter(r *Request) *Request {
	if r == nil || !r.Linked() {
		return nil
	}
	s.mustOwn("Latter", r)
	return r.next
}

// Empty reports whether both queues are empty.
func (s *Scheduler) Empty() bool {
	return s.queues[Read].Len() == 0 && s.queues[Write].Len() == 0
}

// Len returns the number of requests queued in direction dir.
func (s *Scheduler) Len(dir Direction) int {
	return s.queue(dir).Len()
}

// Queue exposes the queue for dir. Callers must not mutate it directly.
func (s *Scheduler) Queue(dir Direction) *DeadlineQueue {
	return s.queue(dir)
}

// Tunables and counters.

func (s *Scheduler) ReadWeight() int64       { return s.weights[Read] }
func (s *Scheduler) WriteWeight() int64      { return s.weights[Write] }
func (s *Scheduler) TimesliceQuantum() int64 { return s.quantum }
func (s *Scheduler) TicksPerSecond() int64   { return s.ticksPerSecond }
func (s *Scheduler) ScanMode() ScanMode      { return s.scan }
func (s *Scheduler) MergedRequests() uint64  { return s.mergedRequests }
func (s *Scheduler) BatchedRequests() uint64 { return s.batchedRequests }

// SetReadWeight clamps w to [0, MaxTunable].
func (s *Scheduler) SetReadWeight(w int64) { s.weights[Read] = clampTunable(w) }

// SetWriteWeight clamps w to [0, MaxTunable].
func (s *Scheduler) SetWriteWeight(w int64) { s.weights[Write] = clampTunable(w) }

// SetTimesliceQuantum sets the quantum in ticks, clamped to
// [0, MaxTunable ms]. Requests already queued keep their deadlines.
func (s *Scheduler) SetTimesliceQuantum(ticks int64) {
	s.quantum = min(max(ticks, 0), s.maxQuantum())
}

func (s *Scheduler) maxQuantum() int64 {
	return MsecsToTicks(MaxTunable, s.ticksPerSecond)
}

// SetTimesliceQuantumMs clamps ms to [0, MaxTunable] and stores it as ticks.
func (s *Scheduler) SetTimesliceQuantumMs(ms int64) {
	s.quantum = MsecsToTicks(clampTunable(ms), s.ticksPerSecond)
}

// ResetCounters zeroes merged_requests and batched_requests.
func (s *Scheduler) ResetCounters() {
	s.mergedRequests = 0
	s.batchedRequests = 0
}

func (s *Scheduler) weight(dir Direction) int64 {
	if dir >= numDirections {
		panic(fmt.Sprintf("edf: invalid direction %d", uint8(dir)))
	}
	return s.weights[dir]
}

func (s *Scheduler) queue(dir Direction) *DeadlineQueue {
	if dir >= numDirections {
		panic(fmt.Sprintf("edf: invalid direction %d", uint8(dir)))
	}
	return s.queues[dir]
}

func (s *Scheduler) mustOwn(op string, r *Request) {
	if r.queue == nil || r.Dir >= numDirections || s.queues[r.Dir] != r.queue {
		panic(fmt.Sprintf("%s: request %q is not queued on this scheduler", op, r.ID))
	}
}
