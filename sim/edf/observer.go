package edf

// Observer receives scheduler decisions as they happen. Implementations run
// inside the caller's serialization point and must not call back into the
// Scheduler.
type Observer interface {
	ObserveAdmit(r *Request, now int64)
	// ObserveMerge is called after candidate has been unlinked. node carries
	// the surviving deadline; repositioned reports whether it moved.
	ObserveMerge(node, candidate *Request, repositioned bool)
	ObserveDispatch(r *Request, now int64)
}

// Observers fans every call out to each member in order.
type Observers []Observer

func (obs Observers) ObserveAdmit(r *Request, now int64) {
	for _, o := range obs {
		o.ObserveAdmit(r, now)
	}
}

func (obs Observers) ObserveMerge(node, candidate *Request, repositioned bool) {
	for _, o := range obs {
		o.ObserveMerge(node, candidate, repositioned)
	}
}

func (obs Observers) ObserveDispatch(r *Request, now int64) {
	for _, o := range obs {
		o.ObserveDispatch(r, now)
	}
}

// DispatchSink accepts requests released by Dispatch, in release order.
type DispatchSink interface {
	AddTail(r *Request)
}

// DispatchList is a DispatchSink that collects released requests.
type DispatchList []*Request

// AddTail appends r.
func (l *DispatchList) AddTail(r *Request) {
	*l = append(*l, r)
}
