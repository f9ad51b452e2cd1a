package edf

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// randomRun drives a scheduler through admissions, neighbor merges and
// dispatches with fixed tunables, checking invariants after every step.
type randomRun struct {
	t       *testing.T
	s       *Scheduler
	rng     *rand.Rand
	now     int64
	live    map[*Request]bool // admitted, not yet dispatched or merged away
	seen    map[*Request]int  // dispatch count per request
	merged  uint64
	batched uint64
}

func newRandomRun(t *testing.T, seed int64) *randomRun {
	s := NewScheduler(DefaultConfig())
	s.SetTimesliceQuantum(100)
	return &randomRun{
		t:    t,
		s:    s,
		rng:  rand.New(rand.NewSource(seed)),
		live: make(map[*Request]bool),
		seen: make(map[*Request]int),
	}
}

func (rr *randomRun) step(i int) {
	rr.now += int64(rr.rng.Intn(20))
	switch op := rr.rng.Intn(10); {
	case op < 5:
		dir := Directions[rr.rng.Intn(2)]
		r := NewRequest(fmt.Sprintf("req_%d", i), dir, int64(i)*8, 8)
		rr.s.Admit(r, rr.now)
		rr.live[r] = true
	case op < 7:
		rr.mergeNeighbors()
	default:
		rr.dispatch()
	}
	rr.checkInvariants()
}

func (rr *randomRun) mergeNeighbors() {
	q := rr.s.Queue(Directions[rr.rng.Intn(2)])
	items := q.Items()
	if len(items) < 2 {
		return
	}
	k := rr.rng.Intn(len(items) - 1)
	node, cand := items[k], items[k+1]
	if rr.rng.Intn(2) == 0 {
		node, cand = cand, node
	}
	oldNode, oldCand := node.Deadline, cand.Deadline
	before := rr.s.MergedRequests()

	rr.s.Merge(node, cand)

	// merge never raises a deadline
	assert.LessOrEqual(rr.t, node.Deadline, min(oldNode, oldCand))
	assert.False(rr.t, cand.Linked())
	if oldCand < oldNode {
		rr.merged++
		assert.Equal(rr.t, before+1, rr.s.MergedRequests())
	} else {
		assert.Equal(rr.t, before, rr.s.MergedRequests())
	}
	delete(rr.live, cand)

	// merging the cleared candidate again is a no-op
	rr.s.Merge(node, cand)
	rr.s.Merge(cand, node)
	assert.True(rr.t, node.Linked())
	assert.Equal(rr.t, rr.merged, rr.s.MergedRequests())
}

func (rr *randomRun) dispatch() {
	var out DispatchList
	before := rr.s.BatchedRequests()
	n := rr.s.Dispatch(rr.now, &out)
	require.Len(rr.t, out, n)
	assert.Equal(rr.t, before+uint64(n), rr.s.BatchedRequests())
	rr.batched += uint64(n)
	for _, r := range out {
		// no early dispatch
		assert.LessOrEqual(rr.t, r.Deadline, rr.now, "request %s released early", r.ID)
		assert.True(rr.t, rr.live[r], "request %s released while not live", r.ID)
		rr.seen[r]++
		delete(rr.live, r)
	}
}

func (rr *randomRun) checkInvariants() {
	queued := 0
	for _, dir := range Directions {
		q := rr.s.Queue(dir)
		items := q.Items()
		require.Len(rr.t, items, q.Len())
		for i, r := range items {
			// membership exclusivity: linked to this queue only, right direction
			require.True(rr.t, q.Contains(r))
			require.Equal(rr.t, dir, r.Dir)
			require.False(rr.t, rr.s.Queue(otherDir(dir)).Contains(r))
			if i > 0 {
				assert.LessOrEqual(rr.t, items[i-1].Deadline, r.Deadline, "queue %s lost deadline order", dir)
			}
		}
		queued += len(items)
	}
	assert.Equal(rr.t, len(rr.live), queued)
}

func otherDir(d Direction) Direction {
	if d == Read {
		return Write
	}
	return Read
}

func TestScheduler_RandomOperations_HoldInvariants(t *testing.T) {
	for _, seed := range []int64{1, 7, 42, 1234, 99991} {
		t.Run(fmt.Sprintf("seed_%d", seed), func(t *testing.T) {
			rr := newRandomRun(t, seed)
			for i := 0; i < 2000; i++ {
				rr.step(i)
			}

			// eventual dispatch: advancing time past every deadline releases
			// each live request exactly once
			var out DispatchList
			rr.now += 10_000
			rr.s.Dispatch(rr.now, &out)
			for _, r := range out {
				rr.seen[r]++
				delete(rr.live, r)
			}
			assert.Empty(t, rr.live)
			for r, n := range rr.seen {
				assert.Equal(t, 1, n, "request %s dispatched %d times", r.ID, n)
			}
			assert.True(t, rr.s.Empty())
			assert.NotPanics(t, rr.s.Shutdown)
		})
	}
}

func TestScheduler_AdmissionDeadlinesNonDecreasing(t *testing.T) {
	// GIVEN fixed weights and quantum
	s := NewScheduler(DefaultConfig())
	rng := rand.New(rand.NewSource(3))
	now := int64(0)

	// WHEN requests of each direction are admitted in time order
	for i := 0; i < 500; i++ {
		now += int64(rng.Intn(5))
		s.Admit(NewRequest(fmt.Sprintf("req_%d", i), Directions[rng.Intn(2)], int64(i), 1), now)
	}

	// THEN deadlines within each queue never decrease
	for _, dir := range Directions {
		ds := deadlines(s.Queue(dir))
		for i := 1; i < len(ds); i++ {
			require.LessOrEqual(t, ds[i-1], ds[i])
		}
	}
}
