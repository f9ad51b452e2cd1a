package edf

import (
	"fmt"
	"strings"
)

// DeadlineQueue is an intrusive doubly-linked FIFO of requests sharing one
// direction. Insertion, removal and repositioning are O(1); the links live
// in the Request itself, so a request can sit in at most one queue.
//
// The queue does not sort. Deadlines stay non-decreasing from head to tail
// only as long as callers admit in time order with fixed weights.
type DeadlineQueue struct {
	dir        Direction
	head, tail *Request
	n          int
}

func newDeadlineQueue(dir Direction) *DeadlineQueue {
	return &DeadlineQueue{dir: dir}
}

// Direction returns the direction this queue holds.
func (q *DeadlineQueue) Direction() Direction {
	return q.dir
}

// Len returns the number of queued requests.
func (q *DeadlineQueue) Len() int {
	return q.n
}

// Front returns the head of the queue, or nil.
func (q *DeadlineQueue) Front() *Request {
	return q.head
}

// Back returns the tail of the queue, or nil.
func (q *DeadlineQueue) Back() *Request {
	return q.tail
}

// Contains reports whether r is linked into q.
func (q *DeadlineQueue) Contains(r *Request) bool {
	return r != nil && r.state == Queued && r.queue == q
}

// PushBack appends an unlinked request to the tail.
func (q *DeadlineQueue) PushBack(r *Request) {
	if r == nil {
		panic("PushBack: req must not be nil")
	}
	if r.state != Unlinked {
		panic(fmt.Sprintf("PushBack: request %q is already queued", r.ID))
	}
	q.link(r, q.tail)
}

// Remove unlinks r from q. r must belong to q.
func (q *DeadlineQueue) Remove(r *Request) {
	q.mustContain("Remove", r)
	q.unlink(r)
	r.state = Unlinked
	r.queue = nil
}

// MoveAfter repositions r directly behind mark. Both must belong to q and
// must differ.
func (q *DeadlineQueue) MoveAfter(r, mark *Request) {
	q.mustContain("MoveAfter", r)
	q.mustContain("MoveAfter", mark)
	if r == mark {
		panic(fmt.Sprintf("MoveAfter: request %q cannot follow itself", r.ID))
	}
	q.unlink(r)
	q.link(r, mark)
}

// Prev returns the request ahead of r, or nil at the head.
func (q *DeadlineQueue) Prev(r *Request) *Request {
	q.mustContain("Prev", r)
	return r.prev
}

// Next returns the request behind r, or nil at the tail.
func (q *DeadlineQueue) Next(r *Request) *Request {
	q.mustContain("Next", r)
	return r.next
}

// Items returns a snapshot of the queue from head to tail.
func (q *DeadlineQueue) Items() []*Request {
	items := make([]*Request, 0, q.n)
	for r := q.head; r != nil; r = r.next {
		items = append(items, r)
	}
	return items
}

func (q *DeadlineQueue) String() string {
	var sb strings.Builder
	sb.WriteString("[")
	for r := q.head; r != nil; r = r.next {
		sb.WriteString(fmt.Sprintf("%s@%d", r.ID, r.Deadline))
		if r.next != nil {
			sb.WriteString(" ")
		}
	}
	sb.WriteString("]")
	return sb.String()
}

// link inserts r after at; a nil at means the head.
func (q *DeadlineQueue) link(r, at *Request) {
	r.queue = q
	r.state = Queued
	r.prev = at
	if at == nil {
		r.next = q.head
		q.head = r
	} else {
		r.next = at.next
		at.next = r
	}
	if r.next != nil {
		r.next.prev = r
	} else {
		q.tail = r
	}
	q.n++
}

// unlink detaches r's pointers; the state tag is left to the caller.
func (q *DeadlineQueue) unlink(r *Request) {
	if r.prev != nil {
		r.prev.next = r.next
	} else {
		q.head = r.next
	}
	if r.next != nil {
		r.next.prev = r.prev
	} else {
		q.tail = r.prev
	}
	r.prev, r.next = nil, nil
	q.n--
}

func (q *DeadlineQueue) mustContain(op string, r *Request) {
	if r == nil {
		panic(op + ": req must not be nil")
	}
	if !q.Contains(r) {
		panic(fmt.Sprintf("%s: request %q is not queued on the %s queue", op, r.ID, q.dir))
	}
}
