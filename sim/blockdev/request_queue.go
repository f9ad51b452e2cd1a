package blockdev

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/robcore/Hulk-Kernel-V2/sim/edf"
)

// QueueConfig groups the merge policy of a RequestQueue.
type QueueConfig struct {
	MaxSectors int64 `yaml:"max_sectors"` // largest merged request; 0 = unlimited
	NoMerges   bool  `yaml:"nomerges"`    // admit only, never merge
}

// DefaultQueueConfig caps merged requests at 1024 sectors.
func DefaultQueueConfig() QueueConfig {
	return QueueConfig{MaxSectors: 1024}
}

// Validate checks ranges.
func (c QueueConfig) Validate() error {
	if c.MaxSectors < 0 {
		return fmt.Errorf("max_sectors must be non-negative, got %d", c.MaxSectors)
	}
	return nil
}

// RequestQueue sits between request producers and the scheduler. It admits
// requests, finds contiguous neighbors to merge, and forwards dispatched
// requests to a sink. Like the scheduler it does no locking.
type RequestQueue struct {
	sched *edf.Scheduler
	sink  edf.DispatchSink
	cfg   QueueConfig

	index [2]*sectorIndex
	// absorbed maps a surviving request to the requests merged into it, so
	// completion can be reported for each original submission.
	absorbed map[*edf.Request][]*edf.Request

	BackMerges  int // a later range appended to an earlier one
	FrontMerges int // a later range prepended to an earlier one
}

// NewRequestQueue wires a scheduler to a dispatch sink.
func NewRequestQueue(sched *edf.Scheduler, sink edf.DispatchSink, cfg QueueConfig) *RequestQueue {
	if sched == nil || sink == nil {
		panic("NewRequestQueue: scheduler and sink must not be nil")
	}
	q := &RequestQueue{
		sched:    sched,
		sink:     sink,
		cfg:      cfg,
		absorbed: make(map[*edf.Request][]*edf.Request),
	}
	for _, dir := range edf.Directions {
		q.index[dir] = newSectorIndex()
	}
	return q
}

// Submit admits r at now and tries to merge it with a queued neighbor.
// Returns true if r was merged (into a neighbor, or a neighbor into r).
func (q *RequestQueue) Submit(r *edf.Request, now int64) bool {
	q.sched.Admit(r, now)
	ix := q.index[r.Dir]
	ix.insert(r)
	if q.cfg.NoMerges {
		return false
	}

	// Streaming writers and readers hit the request admitted just before.
	if former := q.sched.Former(r); former != nil && former.End() == r.Sector && q.fits(former, r) {
		q.merge(former, r)
		q.BackMerges++
		return true
	}
	if prev := ix.endingAt(r.Sector, r); prev != nil && q.fits(prev, r) {
		q.merge(prev, r)
		q.BackMerges++
		return true
	}
	if next := ix.startingAt(r.End(), r); next != nil && q.fits(r, next) {
		q.merge(r, next)
		q.FrontMerges++
		return true
	}
	return false
}

// merge folds cand into node and grows node's range to cover both.
func (q *RequestQueue) merge(node, cand *edf.Request) {
	ix := q.index[node.Dir]
	ix.remove(node)
	ix.remove(cand)

	q.sched.Merge(node, cand)

	node.Sector = min(node.Sector, cand.Sector)
	node.Sectors += cand.Sectors
	ix.insert(node)

	q.absorbed[node] = append(q.absorbed[node], cand)
	q.absorbed[node] = append(q.absorbed[node], q.absorbed[cand]...)
	delete(q.absorbed, cand)
	logrus.Debugf("blockdev: merged %s into %s, now %d+%d", cand.ID, node.ID, node.Sector, node.Sectors)
}

func (q *RequestQueue) fits(a, b *edf.Request) bool {
	return q.cfg.MaxSectors == 0 || a.Sectors+b.Sectors <= q.cfg.MaxSectors
}

// Run dispatches every expired request to the sink and returns the count.
func (q *RequestQueue) Run(now int64) int {
	return q.sched.Dispatch(now, q)
}

// Drain forces every queued request out to the sink.
func (q *RequestQueue) Drain(now int64) int {
	return q.sched.Drain(now, q)
}

// AddTail implements edf.DispatchSink: it drops r from the sector index
// before handing it on.
func (q *RequestQueue) AddTail(r *edf.Request) {
	q.index[r.Dir].remove(r)
	q.sink.AddTail(r)
}

// Complete returns r and every request merged into it. Each original
// submission is reported exactly once.
func (q *RequestQueue) Complete(r *edf.Request) []*edf.Request {
	done := append([]*edf.Request{r}, q.absorbed[r]...)
	delete(q.absorbed, r)
	return done
}

// Pending returns the number of requests queued in the scheduler.
func (q *RequestQueue) Pending() int {
	return q.sched.Len(edf.Read) + q.sched.Len(edf.Write)
}

// Indexed returns the number of requests in the sector index for dir.
func (q *RequestQueue) Indexed(dir edf.Direction) int {
	return q.index[dir].len()
}
