package blockdev

import (
	"fmt"
	"strings"

	"github.com/robcore/Hulk-Kernel-V2/sim/edf"
)

// DispatchQueue is the FIFO of requests the scheduler has released but the
// device has not started yet.
type DispatchQueue struct {
	queue []*edf.Request
}

// Enqueue adds a request to the back of the dispatch queue.
func (dq *DispatchQueue) Enqueue(r *edf.Request) {
	if r == nil {
		panic("Enqueue: req must not be nil")
	}
	dq.queue = append(dq.queue, r)
}

func (dq *DispatchQueue) String() string {
	var sb strings.Builder
	sb.WriteString("[")
	for i, r := range dq.queue {
		sb.WriteString(r.ID)
		if i < len(dq.queue)-1 {
			sb.WriteString(" ")
		}
	}
	sb.WriteString("]")
	return sb.String()
}

// Len returns the number of requests in the queue.
func (dq *DispatchQueue) Len() int {
	return len(dq.queue)
}

// Peek returns the request at the front of the queue without removing it.
// Returns nil if the queue is empty.
func (dq *DispatchQueue) Peek() *edf.Request {
	if len(dq.queue) == 0 {
		return nil
	}
	return dq.queue[0]
}

// Items returns the queue contents for iteration.
// The returned slice is the queue's internal storage; callers MUST NOT
// append to or reslice it.
func (dq *DispatchQueue) Items() []*edf.Request {
	return dq.queue
}

// Dequeue removes and returns the request at the front of the queue.
func (dq *DispatchQueue) Dequeue() *edf.Request {
	if len(dq.queue) == 0 {
		return nil
	}
	r := dq.queue[0]
	dq.queue[0] = nil
	dq.queue = dq.queue[1:]
	return r
}

// AddTail implements edf.DispatchSink.
func (dq *DispatchQueue) AddTail(r *edf.Request) {
	dq.Enqueue(r)
}

var _ edf.DispatchSink = (*DispatchQueue)(nil)

func (dq *DispatchQueue) mustBeEmpty(op string) {
	if len(dq.queue) != 0 {
		panic(fmt.Sprintf("%s: %d requests still waiting", op, len(dq.queue)))
	}
}
