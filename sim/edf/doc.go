// Package edf implements an earliest-deadline-first block I/O scheduler.
//
// # Model
//
// Every admitted request receives a synthetic deadline
//
//	deadline = now + timeslice_quantum * weight(direction)
//
// and is appended to the tail of its direction's queue (reads or writes).
// Dispatch releases requests whose deadline has elapsed, reads first.
// Merge folds an adjacent request into another one; the survivor always
// carries the earlier of the two deadlines.
//
// # Reading Guide
//
//   - request.go: Request, Direction and the queued/unlinked state tag
//   - queue.go: DeadlineQueue, the intrusive FIFO both queues are built on
//   - scheduler.go: Admit, Merge, Dispatch, Former, Latter, Shutdown
//   - attrs.go: the name/value administrative surface (sysfs-style)
//
// # Concurrency
//
// Nothing in this package locks. Callers hold a single serialization point
// around every call on a Scheduler, including attribute access.
package edf
