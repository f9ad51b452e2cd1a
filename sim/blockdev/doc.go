// Package blockdev models the two collaborators around the EDF scheduler:
// a request queue that admits requests and decides which ones are
// contiguous enough to merge, and a device that consumes dispatched
// requests one at a time.
package blockdev
