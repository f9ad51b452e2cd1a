package edf

import (
	"fmt"
)

// Direction is the data direction of a block request.
type Direction uint8

const (
	Read Direction = iota
	Write

	numDirections = 2
)

func (d Direction) String() string {
	switch d {
	case Read:
		return "read"
	case Write:
		return "write"
	default:
		return fmt.Sprintf("direction(%d)", uint8(d))
	}
}

// Directions lists the directions in dispatch order.
var Directions = [numDirections]Direction{Read, Write}

// LinkState tags whether a request is a member of a queue.
type LinkState uint8

const (
	// Unlinked requests are inert: Merge and Dispatch never touch them.
	Unlinked LinkState = iota
	// Queued requests belong to exactly one DeadlineQueue.
	Queued
)

func (s LinkState) String() string {
	if s == Queued {
		return "queued"
	}
	return "unlinked"
}

// Request is a single block I/O request. The caller owns it; a scheduler
// only links it into one of its queues between Admit and Dispatch (or
// until it is merged away).
type Request struct {
	ID      string    // Unique identifier, used for logging and tracing only
	Dir     Direction // Read or Write
	Sector  int64     // First sector
	Sectors int64     // Length in sectors

	ArrivalTime int64 // Tick at which the request was admitted
	Deadline    int64 // Set by Admit; only ever lowered afterwards, by Merge

	state      LinkState
	queue      *DeadlineQueue
	prev, next *Request
}

// NewRequest returns an unlinked request.
func NewRequest(id string, dir Direction, sector, sectors int64) *Request {
	return &Request{ID: id, Dir: dir, Sector: sector, Sectors: sectors}
}

// End returns the sector just past the request.
func (r *Request) End() int64 {
	return r.Sector + r.Sectors
}

// Lateness returns how far past its deadline r is at now. Releases ahead
// of the deadline, such as forced drains, count as 0.
func (r *Request) Lateness(now int64) int64 {
	return max(0, now-r.Deadline)
}

// Linked reports whether the request is currently queued.
func (r *Request) Linked() bool {
	return r.state == Queued
}

func (r *Request) String() string {
	return fmt.Sprintf("Request: (ID: %s, Dir: %s, Sector: %d+%d, Deadline: %d, State: %s)",
		r.ID, r.Dir, r.Sector, r.Sectors, r.Deadline, r.state)
}
