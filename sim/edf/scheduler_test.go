package edf

import (
	"math"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestScheduler returns a scheduler with quantum = 100 ticks and the
// default weights (read 2, write 4).
func newTestScheduler(t *testing.T) *Scheduler {
	t.Helper()
	s := NewScheduler(DefaultConfig())
	s.SetTimesliceQuantum(100)
	return s
}

func dispatchIDs(l DispatchList) []string {
	ids := make([]string, len(l))
	for i, r := range l {
		ids[i] = r.ID
	}
	return ids
}

func TestNewScheduler_Defaults(t *testing.T) {
	// GIVEN the default config
	s := NewScheduler(DefaultConfig())

	// THEN queues are empty and tunables match the stock values
	assert.True(t, s.Empty())
	assert.Equal(t, int64(2), s.ReadWeight())
	assert.Equal(t, int64(4), s.WriteWeight())
	assert.Equal(t, int64(2000), s.TimesliceQuantum(), "2s at 1000 ticks/s")
	assert.Equal(t, ScanOrdered, s.ScanMode())
	assert.Zero(t, s.MergedRequests())
	assert.Zero(t, s.BatchedRequests())
}

func TestNewScheduler_InvalidConfig_Panics(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TicksPerSecond = 0
	assert.Panics(t, func() { NewScheduler(cfg) })
}

func TestNewScheduler_TicksPerSecondScalesQuantum(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TicksPerSecond = 250

	s := NewScheduler(cfg)

	assert.Equal(t, int64(500), s.TimesliceQuantum())
}

func TestScheduler_DeadlineFor(t *testing.T) {
	s := newTestScheduler(t)

	assert.Equal(t, int64(200), s.DeadlineFor(Read, 0))
	assert.Equal(t, int64(410), s.DeadlineFor(Write, 10))
}

func TestScheduler_DeadlineFor_Saturates(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TicksPerSecond = MaxTicksPerSecond
	cfg.TimesliceQuantumMs = MaxTunable
	cfg.WriteWeight = MaxTunable
	s := NewScheduler(cfg)

	assert.Equal(t, int64(math.MaxInt64), s.DeadlineFor(Write, 0), "quantum*weight overflow")
	assert.Equal(t, int64(math.MaxInt64), newTestScheduler(t).DeadlineFor(Read, math.MaxInt64-1), "now+window overflow")
}

func TestScheduler_FastestClock_LargestQuantum_DeadlineInFuture(t *testing.T) {
	// GIVEN the fastest accepted clock and the largest quantum
	cfg := DefaultConfig()
	cfg.TicksPerSecond = MaxTicksPerSecond
	cfg.TimesliceQuantumMs = MaxTunable
	require.NoError(t, cfg.Validate())
	s := NewScheduler(cfg)

	// WHEN a read is admitted at 1000
	r := NewRequest("r", Read, 0, 8)
	s.Admit(r, 1000)

	// THEN the quantum stays positive and nothing is released yet
	assert.Equal(t, int64(9223372036854776), s.TimesliceQuantum())
	assert.Greater(t, r.Deadline, int64(1000))
	var out DispatchList
	assert.Zero(t, s.Dispatch(1000, &out))
	assert.True(t, r.Linked())
}

func TestScheduler_SetTimesliceQuantum_ClampsToLargestTunable(t *testing.T) {
	tests := []struct {
		name           string
		ticksPerSecond int64
		ticks          int64
		wantTicks      int64
		wantShown      string
	}{
		{"negative", 1000, -1, 0, "0\n"},
		{"in range", 1000, 1500, 1500, "1500\n"},
		{"huge at 1000/s", 1000, math.MaxInt64 / 2, MaxTunable, "2147483647\n"},
		{"huge at 100/s", 100, math.MaxInt64, 214748365, "2147483647\n"},
		{"huge at fastest clock", MaxTicksPerSecond, math.MaxInt64, 9223372036854776, "2147483647\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.TicksPerSecond = tc.ticksPerSecond
			s := NewScheduler(cfg)

			s.SetTimesliceQuantum(tc.ticks)

			assert.Equal(t, tc.wantTicks, s.TimesliceQuantum())
			got, err := s.ShowAttr("timeslice_quanta")
			require.NoError(t, err)
			assert.Equal(t, tc.wantShown, got)
		})
	}
}

// Scenario: a read admitted at 0 expires at 200.
func TestScheduler_ReadExpiresAfterTwoQuanta(t *testing.T) {
	// GIVEN a read admitted at now=0
	s := newTestScheduler(t)
	r := NewRequest("r", Read, 0, 8)
	s.Admit(r, 0)
	require.Equal(t, int64(200), r.Deadline)

	// WHEN Dispatch runs before the deadline
	var out DispatchList
	n := s.Dispatch(150, &out)

	// THEN nothing is released
	assert.Equal(t, 0, n)
	assert.Empty(t, out)

	// WHEN Dispatch runs at the deadline
	n = s.Dispatch(200, &out)

	// THEN the read is released
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"r"}, dispatchIDs(out))
	assert.False(t, r.Linked())
	assert.True(t, s.Empty())
}

// Scenario: merging a later write into an earlier one keeps the earlier deadline.
func TestScheduler_Merge_LaterCandidate_NodeKeepsDeadline(t *testing.T) {
	// GIVEN write A at 0 (deadline 400) and write B at 10 (deadline 410)
	s := newTestScheduler(t)
	a, b := NewRequest("A", Write, 0, 8), NewRequest("B", Write, 8, 8)
	s.Admit(a, 0)
	s.Admit(b, 10)

	// WHEN B is merged into A
	s.Merge(a, b)

	// THEN A keeps deadline 400 and its position, and B is gone
	assert.Equal(t, int64(400), a.Deadline)
	assert.False(t, b.Linked())
	assert.Equal(t, []string{"A"}, queueIDs(s.Queue(Write)))
	// the counter tracks repositioning merges only
	assert.Zero(t, s.MergedRequests())
}

// Scenario: merging an earlier write moves the node into its slot.
func TestScheduler_Merge_EarlierCandidate_NodeAdoptsDeadlineAndPosition(t *testing.T) {
	// GIVEN write A at 0 (deadline 400), write C at 20, and write B at 50
	// whose deadline was forced down to 300
	s := newTestScheduler(t)
	a := NewRequest("A", Write, 0, 8)
	c := NewRequest("C", Write, 64, 8)
	b := NewRequest("B", Write, 8, 8)
	s.Admit(a, 0)
	s.Admit(c, 20)
	s.Admit(b, 50)
	b.Deadline = 300

	// WHEN B is merged into A
	s.Merge(a, b)

	// THEN A adopts deadline 300 and B's position behind C
	assert.Equal(t, int64(300), a.Deadline)
	assert.False(t, b.Linked())
	assert.Equal(t, []string{"C", "A"}, queueIDs(s.Queue(Write)))
	assert.Equal(t, uint64(1), s.MergedRequests())
}

// Scenario: reads admitted at 0,1,2 dispatch together in admission order.
func TestScheduler_Dispatch_ReleasesInAdmissionOrder(t *testing.T) {
	s := newTestScheduler(t)
	for i, id := range []string{"r0", "r1", "r2"} {
		s.Admit(NewRequest(id, Read, int64(i)*8, 8), int64(i))
	}
	assert.Equal(t, []int64{200, 201, 202}, deadlines(s.Queue(Read)))

	var out DispatchList
	n := s.Dispatch(500, &out)

	assert.Equal(t, 3, n)
	assert.Equal(t, []string{"r0", "r1", "r2"}, dispatchIDs(out))
	assert.Equal(t, uint64(3), s.BatchedRequests())
}

// Scenario: a zero write weight makes writes expire on admission.
func TestScheduler_ZeroWriteWeight_ImmediateDispatch(t *testing.T) {
	s := newTestScheduler(t)
	s.SetWriteWeight(0)
	w := NewRequest("w", Write, 0, 8)
	s.Admit(w, 70)

	var out DispatchList
	n := s.Dispatch(70, &out)

	assert.Equal(t, int64(70), w.Deadline)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"w"}, dispatchIDs(out))
}

func TestScheduler_Dispatch_ReadsBeforeWrites(t *testing.T) {
	// GIVEN a write that expires before a read
	s := newTestScheduler(t)
	s.SetWriteWeight(1)
	s.Admit(NewRequest("w", Write, 0, 8), 0) // 100
	s.Admit(NewRequest("r", Read, 0, 8), 0)  // 200

	// WHEN both are expired
	var out DispatchList
	s.Dispatch(1000, &out)

	// THEN the read queue is served first
	assert.Equal(t, []string{"r", "w"}, dispatchIDs(out))
}

func TestScheduler_Dispatch_EmptyQueues_ReturnsZero(t *testing.T) {
	s := newTestScheduler(t)
	var out DispatchList

	assert.Equal(t, 0, s.Dispatch(math.MaxInt64, &out))
	assert.Empty(t, out)
}

func TestScheduler_Dispatch_NilSink_Panics(t *testing.T) {
	s := newTestScheduler(t)
	assert.Panics(t, func() { s.Dispatch(0, nil) })
	assert.Panics(t, func() { s.Drain(0, nil) })
}

func TestScheduler_Dispatch_OrderedScan_StopsAtFirstPending(t *testing.T) {
	// GIVEN a write queue whose head expires late but whose tail expires early
	s := newTestScheduler(t)
	late := NewRequest("late", Write, 0, 8)
	early := NewRequest("early", Write, 8, 8)
	s.Admit(late, 0) // 400
	s.SetWriteWeight(0)
	s.Admit(early, 10) // 10

	// WHEN Dispatch runs between the two deadlines
	var out DispatchList
	n := s.Dispatch(100, &out)

	// THEN the ordered scan stops at the head and strands the expired tail
	assert.Equal(t, 0, n)
	assert.True(t, early.Linked())
}

func TestScheduler_Dispatch_FullScan_ReleasesExpiredAnywhere(t *testing.T) {
	// GIVEN the same out-of-order queue under a full scan
	cfg := DefaultConfig()
	cfg.DispatchScan = ScanFull
	s := NewScheduler(cfg)
	s.SetTimesliceQuantum(100)
	late := NewRequest("late", Write, 0, 8)
	early := NewRequest("early", Write, 8, 8)
	s.Admit(late, 0)
	s.SetWriteWeight(0)
	s.Admit(early, 10)

	// WHEN Dispatch runs between the two deadlines
	var out DispatchList
	n := s.Dispatch(100, &out)

	// THEN the expired tail is released and the head stays queued
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"early"}, dispatchIDs(out))
	assert.True(t, late.Linked())
}

func TestScheduler_Admit_AlreadyQueued_Panics(t *testing.T) {
	s := newTestScheduler(t)
	r := NewRequest("r", Read, 0, 8)
	s.Admit(r, 0)

	assert.Panics(t, func() { s.Admit(r, 1) })
	assert.Panics(t, func() { s.Admit(nil, 1) })
}

func TestScheduler_Merge_UnlinkedSide_NoOp(t *testing.T) {
	// GIVEN a queued write and one already dispatched
	s := newTestScheduler(t)
	a, b := NewRequest("A", Write, 0, 8), NewRequest("B", Write, 8, 8)
	s.Admit(b, 0)
	s.Admit(a, 10)
	var out DispatchList
	s.SetWriteWeight(0)
	b.Deadline = 0
	require.Equal(t, 1, s.Dispatch(0, &out))
	before := a.Deadline

	// WHEN Merge is called with the cleared request on either side
	s.Merge(a, b)
	s.Merge(b, a)

	// THEN nothing changes
	assert.True(t, a.Linked())
	assert.Equal(t, before, a.Deadline)
	assert.Equal(t, 1, s.Len(Write))
	assert.Zero(t, s.MergedRequests())
}

func TestScheduler_Merge_ContractViolations_Panic(t *testing.T) {
	s := newTestScheduler(t)
	other := newTestScheduler(t)
	r := NewRequest("r", Read, 0, 8)
	w := NewRequest("w", Write, 8, 8)
	foreign := NewRequest("f", Read, 16, 8)
	s.Admit(r, 0)
	s.Admit(w, 0)
	other.Admit(foreign, 0)

	assert.Panics(t, func() { s.Merge(r, r) }, "self merge")
	assert.Panics(t, func() { s.Merge(r, w) }, "direction mismatch")
	assert.Panics(t, func() { s.Merge(r, foreign) }, "foreign candidate")
	assert.Panics(t, func() { s.Merge(nil, r) }, "nil node")
}

func TestScheduler_FormerLatter(t *testing.T) {
	// GIVEN reads [A, B, C] and a lone write W
	s := newTestScheduler(t)
	a, b, c := NewRequest("A", Read, 0, 8), NewRequest("B", Read, 8, 8), NewRequest("C", Read, 16, 8)
	w := NewRequest("W", Write, 0, 8)
	for _, r := range []*Request{a, b, c, w} {
		s.Admit(r, 0)
	}

	// THEN neighbors come from the request's own direction queue
	assert.Nil(t, s.Former(a))
	assert.Same(t, a, s.Former(b))
	assert.Same(t, c, s.Latter(b))
	assert.Nil(t, s.Latter(c))
	assert.Nil(t, s.Former(w))
	assert.Nil(t, s.Latter(w))
}

func TestScheduler_FormerLatter_UnlinkedOrForeign(t *testing.T) {
	s := newTestScheduler(t)
	other := newTestScheduler(t)
	loose := NewRequest("loose", Read, 0, 8)
	foreign := NewRequest("f", Read, 0, 8)
	other.Admit(foreign, 0)

	assert.Nil(t, s.Former(loose))
	assert.Nil(t, s.Latter(nil))
	assert.Panics(t, func() { s.Former(foreign) })
}

func TestScheduler_Drain_ReleasesEverything(t *testing.T) {
	s := newTestScheduler(t)
	s.Admit(NewRequest("w", Write, 0, 8), 0)
	s.Admit(NewRequest("r", Read, 0, 8), 0)

	var out DispatchList
	n := s.Drain(0, &out)

	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"r", "w"}, dispatchIDs(out))
	assert.Equal(t, uint64(2), s.BatchedRequests())
	assert.NotPanics(t, s.Shutdown)
}

func TestScheduler_Shutdown_NonEmpty_Panics(t *testing.T) {
	s := newTestScheduler(t)
	s.Admit(NewRequest("w", Write, 0, 8), 0)

	assert.Panics(t, s.Shutdown)
}

func TestScheduler_SetTunables_Clamp(t *testing.T) {
	s := newTestScheduler(t)

	s.SetReadWeight(-3)
	s.SetWriteWeight(math.MaxInt64)
	s.SetTimesliceQuantum(-1)

	assert.Equal(t, int64(0), s.ReadWeight())
	assert.Equal(t, int64(MaxTunable), s.WriteWeight())
	assert.Equal(t, int64(0), s.TimesliceQuantum())

	s.SetTimesliceQuantumMs(1500)
	assert.Equal(t, int64(1500), s.TimesliceQuantum())
}

func TestScheduler_ResetCounters(t *testing.T) {
	s := newTestScheduler(t)
	s.Admit(NewRequest("r", Read, 0, 8), 0)
	var out DispatchList
	s.Drain(0, &out)
	require.Equal(t, uint64(1), s.BatchedRequests())

	s.ResetCounters()

	assert.Zero(t, s.BatchedRequests())
	assert.Zero(t, s.MergedRequests())
}

type recordingObserver struct {
	admits, merges, dispatches []string
	repositioned               []bool
}

func (o *recordingObserver) ObserveAdmit(r *Request, _ int64) { o.admits = append(o.admits, r.ID) }
func (o *recordingObserver) ObserveMerge(node, cand *Request, moved bool) {
	o.merges = append(o.merges, node.ID+"<-"+cand.ID)
	o.repositioned = append(o.repositioned, moved)
}
func (o *recordingObserver) ObserveDispatch(r *Request, _ int64) {
	o.dispatches = append(o.dispatches, r.ID)
}

func TestScheduler_Observer_SeesEveryDecision(t *testing.T) {
	// GIVEN a scheduler with two observers fanned out
	s := newTestScheduler(t)
	o1, o2 := &recordingObserver{}, &recordingObserver{}
	s.SetObserver(Observers{o1, o2})

	// WHEN requests are admitted, merged, and dispatched
	a, b := NewRequest("A", Read, 0, 8), NewRequest("B", Read, 8, 8)
	s.Admit(a, 0)
	s.Admit(b, 5)
	s.Merge(a, b)
	var out DispatchList
	s.Dispatch(1000, &out)

	// THEN both observers saw the same decisions in order
	for _, o := range []*recordingObserver{o1, o2} {
		assert.Equal(t, []string{"A", "B"}, o.admits)
		assert.Equal(t, []string{"A<-B"}, o.merges)
		assert.Equal(t, []bool{false}, o.repositioned)
		assert.Equal(t, []string{"A"}, o.dispatches)
	}
}

func deadlines(q *DeadlineQueue) []int64 {
	var ds []int64
	for _, r := range q.Items() {
		ds = append(ds, r.Deadline)
	}
	return ds
}

func TestScheduler_Admit_AfterWeightDrop_LogsOrderBreak(t *testing.T) {
	hook := logtest.NewGlobal()
	defer hook.Reset()
	prev := logrus.GetLevel()
	logrus.SetLevel(logrus.DebugLevel)
	defer logrus.SetLevel(prev)

	// GIVEN a read admitted at 0 with deadline 200
	s := newTestScheduler(t)
	a := NewRequest("a", Read, 0, 8)
	s.Admit(a, 0)

	// WHEN the read weight drops and a second read gets an earlier deadline
	s.SetReadWeight(1)
	b := NewRequest("b", Read, 8, 8)
	s.Admit(b, 10)

	// THEN it still queues behind a, the ordered scan holds it back, and the
	// break in deadline order is logged
	assert.Equal(t, int64(110), b.Deadline)
	assert.Same(t, b, s.Queue(Read).Back())
	var out DispatchList
	assert.Zero(t, s.Dispatch(150, &out))
	found := false
	for _, e := range hook.AllEntries() {
		if strings.Contains(e.Message, "precedes tail a") {
			found = true
		}
	}
	assert.True(t, found, "expected an order-break debug entry")
}
