package edf

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrUnknownAttr is returned for attribute names the scheduler does not expose.
var ErrUnknownAttr = errors.New("unknown attribute")

// attr is one entry of the administrative surface. A nil store accepts and
// discards writes.
type attr struct {
	name  string
	show  func(s *Scheduler) int64
	store func(s *Scheduler, v int64)
}

var attrTable = []attr{
	{
		name:  "read_weight",
		show:  func(s *Scheduler) int64 { return s.ReadWeight() },
		store: func(s *Scheduler, v int64) { s.SetReadWeight(v) },
	},
	{
		name:  "write_weight",
		show:  func(s *Scheduler) int64 { return s.WriteWeight() },
		store: func(s *Scheduler, v int64) { s.SetWriteWeight(v) },
	},
	{
		// exposed in milliseconds, kept in ticks
		name:  "timeslice_quanta",
		show:  func(s *Scheduler) int64 { return clampTunable(TicksToMsecs(s.quantum, s.ticksPerSecond)) },
		store: func(s *Scheduler, v int64) { s.SetTimesliceQuantumMs(v) },
	},
	{
		name: "batched_requests",
		show: func(s *Scheduler) int64 { return saturate(s.batchedRequests) },
	},
	{
		name: "merged_requests",
		show: func(s *Scheduler) int64 { return saturate(s.mergedRequests) },
	},
}

// Attrs lists the attribute names in display order.
func (s *Scheduler) Attrs() []string {
	names := make([]string, len(attrTable))
	for i, a := range attrTable {
		names[i] = a.name
	}
	return names
}

// IsWritableAttr reports whether writes to name change scheduler state.
// Counter attributes accept writes but discard them.
func IsWritableAttr(name string) bool {
	a, ok := lookupAttr(name)
	return ok && a.store != nil
}

// ShowAttr renders the named attribute as a decimal line.
func (s *Scheduler) ShowAttr(name string) (string, error) {
	a, ok := lookupAttr(name)
	if !ok {
		return "", fmt.Errorf("show %q: %w", name, ErrUnknownAttr)
	}
	return fmt.Sprintf("%d\n", a.show(s)), nil
}

// StoreAttr parses the leading decimal integer of value and writes it to the
// named attribute, clamped to [0, MaxTunable]. Text that does not start
// with a number stores 0, like strtol. Counters ignore the write.
func (s *Scheduler) StoreAttr(name, value string) error {
	a, ok := lookupAttr(name)
	if !ok {
		return fmt.Errorf("store %q: %w", name, ErrUnknownAttr)
	}
	if a.store == nil {
		return nil
	}
	a.store(s, clampTunable(parseLeadingInt(value)))
	return nil
}

func lookupAttr(name string) (attr, bool) {
	for _, a := range attrTable {
		if a.name == name {
			return a, true
		}
	}
	return attr{}, false
}

// parseLeadingInt reads an optionally signed base-10 integer from the start
// of s, after leading whitespace, and ignores the rest. Overflow saturates.
func parseLeadingInt(s string) int64 {
	s = strings.TrimLeft(s, " \t\n\v\f\r")
	neg := false
	if len(s) > 0 && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}
	var v int64
	for i := 0; i < len(s) && s[i] >= '0' && s[i] <= '9'; i++ {
		d := int64(s[i] - '0')
		if v > (math.MaxInt64-d)/10 {
			v = math.MaxInt64
			break
		}
		v = v*10 + d
	}
	if neg {
		return -v
	}
	return v
}

func saturate(v uint64) int64 {
	if v > math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(v)
}
