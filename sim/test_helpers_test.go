package sim

import "container/heap"

func popEvent(s *Simulator) Event {
	return heap.Pop(&s.EventQueue).(queuedEvent).Event
}
