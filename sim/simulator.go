package sim

import (
	"container/heap"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/robcore/Hulk-Kernel-V2/sim/blockdev"
	"github.com/robcore/Hulk-Kernel-V2/sim/edf"
	"github.com/robcore/Hulk-Kernel-V2/sim/trace"
	"github.com/robcore/Hulk-Kernel-V2/sim/workload"
)

// EventQueue implements heap.Interface and orders events by timestamp,
// then priority, then insertion order.
// See canonical Golang example here: https://pkg.go.dev/container/heap#example-package-IntHeap
type EventQueue []queuedEvent

type queuedEvent struct {
	Event
	seq int64
}

func (eq EventQueue) Len() int { return len(eq) }
func (eq EventQueue) Less(i, j int) bool {
	if eq[i].Timestamp() != eq[j].Timestamp() {
		return eq[i].Timestamp() < eq[j].Timestamp()
	}
	if eq[i].Priority() != eq[j].Priority() {
		return eq[i].Priority() < eq[j].Priority()
	}
	return eq[i].seq < eq[j].seq
}
func (eq EventQueue) Swap(i, j int) { eq[i], eq[j] = eq[j], eq[i] }

func (eq *EventQueue) Push(x any) {
	*eq = append(*eq, x.(queuedEvent))
}

func (eq *EventQueue) Pop() any {
	old := *eq
	n := len(old)
	item := old[n-1]
	*eq = old[0 : n-1]
	return item
}

const noUnplug = int64(-1)

// Simulator is the core object that holds simulation time, the scheduler
// under test, its request queue, the device, and the event loop.
type Simulator struct {
	Clock   int64
	Horizon int64
	// EventQueue has all the simulator events: arrivals, unplugs, completions
	EventQueue EventQueue

	Sched  *edf.Scheduler
	Queue  *blockdev.RequestQueue
	Device *blockdev.Device

	Metrics *Metrics
	Trace   *trace.SimulationTrace // nil when tracing is off
	RNG     *PartitionedRNG

	unplugInterval int64
	nextUnplug     int64
	seq            int64
}

// NewSimulator wires a scheduler, request queue and device from cfg.
// Extra observers (for example Prometheus export) see every scheduler
// decision alongside the simulator's own metrics.
func NewSimulator(cfg *RunConfig, observers ...edf.Observer) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid run config: %w", err)
	}
	sched := edf.NewScheduler(cfg.Scheduler)
	device := blockdev.NewDevice(cfg.Device)
	rng := NewPartitionedRNG(NewSimulationKey(cfg.Simulation.Seed))
	device.SetRNG(rng.ForSubsystem(SubsystemDevice))
	s := &Simulator{
		Horizon:        cfg.Simulation.Horizon,
		EventQueue:     make(EventQueue, 0),
		Sched:          sched,
		Device:         device,
		Queue:          blockdev.NewRequestQueue(sched, device, cfg.Queue),
		Metrics:        NewMetrics(cfg.Scheduler.TicksPerSecond),
		RNG:            rng,
		unplugInterval: cfg.Simulation.UnplugInterval,
		nextUnplug:     noUnplug,
	}

	all := edf.Observers{s.Metrics}
	traceCfg := trace.TraceConfig{Level: trace.TraceLevel(cfg.Simulation.TraceLevel)}
	if traceCfg.Enabled() {
		s.Trace = trace.NewSimulationTrace(traceCfg)
		all = append(all, &traceObserver{st: s.Trace})
	}
	for _, o := range observers {
		if o != nil {
			all = append(all, o)
		}
	}
	sched.SetObserver(all)
	return s, nil
}

// Schedule pushes an event into the simulator's EventQueue.
func (sim *Simulator) Schedule(ev Event) {
	sim.seq++
	heap.Push(&sim.EventQueue, queuedEvent{Event: ev, seq: sim.seq})
}

// InjectArrivals schedules one ArrivalEvent per record.
func (sim *Simulator) InjectArrivals(records []workload.Record) {
	for _, rec := range records {
		sim.Schedule(&ArrivalEvent{time: rec.ArrivalTime, Record: rec})
	}
}

// Run processes events until the queue empties or the horizon passes, then
// drains the scheduler, lets the device finish, and shuts the scheduler down.
func (sim *Simulator) Run() {
	for len(sim.EventQueue) > 0 {
		ev := heap.Pop(&sim.EventQueue).(queuedEvent)
		if ev.Timestamp() > sim.Horizon {
			heap.Push(&sim.EventQueue, ev)
			break
		}
		sim.Clock = ev.Timestamp()
		logrus.Debugf("[tick %07d] Executing %T", sim.Clock, ev.Event)
		ev.Execute(sim)
	}
	sim.finish()
	logrus.Infof("[tick %07d] Simulation ended", sim.Clock)
}

// finish forces every queued request out and runs the device dry. Pending
// arrivals and unplugs past the horizon are dropped; completions are kept.
func (sim *Simulator) finish() {
	kept := sim.EventQueue[:0]
	for _, ev := range sim.EventQueue {
		if _, ok := ev.Event.(*CompletionEvent); ok {
			kept = append(kept, ev)
		}
	}
	sim.EventQueue = kept
	heap.Init(&sim.EventQueue)
	sim.nextUnplug = noUnplug
	if n := sim.Queue.Drain(sim.Clock); n > 0 {
		logrus.Infof("[tick %07d] Drained %d requests", sim.Clock, n)
	}
	if !sim.Device.Busy() {
		sim.startDevice(sim.Clock)
	}
	for len(sim.EventQueue) > 0 {
		ev := heap.Pop(&sim.EventQueue).(queuedEvent)
		sim.Clock = ev.Timestamp()
		ev.Execute(sim)
	}
	sim.Metrics.SimEndedTime = sim.Clock
	sim.Metrics.MergedRequests = sim.Sched.MergedRequests()
	sim.Metrics.BatchedRequests = sim.Sched.BatchedRequests()
	sim.Sched.Shutdown()
	sim.Device.Close()
}

// startDevice begins the next dispatched request if the device is idle.
func (sim *Simulator) startDevice(now int64) {
	if done, ok := sim.Device.Start(now); ok {
		sim.Schedule(&CompletionEvent{time: done})
	}
}

// armUnplug schedules an unplug for the earliest time a queued request can
// be released, unless one is already due no later.
func (sim *Simulator) armUnplug(now int64) {
	at, ok := sim.nextRelease()
	if !ok {
		return
	}
	if sim.unplugInterval > 0 && at%sim.unplugInterval != 0 && at <= math.MaxInt64-sim.unplugInterval {
		at += sim.unplugInterval - at%sim.unplugInterval
	}
	at = max(at, now)
	if sim.nextUnplug != noUnplug && sim.nextUnplug <= at {
		return
	}
	sim.nextUnplug = at
	sim.Schedule(&UnplugEvent{time: at})
}

// nextRelease returns the earliest deadline a dispatch pass would act on.
// An ordered scan can only release behind a queue's head, so only heads
// count; a full scan can release anything.
func (sim *Simulator) nextRelease() (int64, bool) {
	earliest, found := int64(math.MaxInt64), false
	for _, dir := range edf.Directions {
		q := sim.Sched.Queue(dir)
		if sim.Sched.ScanMode() == edf.ScanFull {
			for _, r := range q.Items() {
				earliest, found = min(earliest, r.Deadline), true
			}
			continue
		}
		if front := q.Front(); front != nil {
			earliest, found = min(earliest, front.Deadline), true
		}
	}
	return earliest, found
}

// RunSimulation generates the workload for cfg, runs it to completion and
// returns the finished simulator.
func RunSimulation(cfg *RunConfig, observers ...edf.Observer) (*Simulator, error) {
	s, err := NewSimulator(cfg, observers...)
	if err != nil {
		return nil, err
	}
	records, err := workload.Generate(&cfg.Workload, s.RNG.ForSubsystem(SubsystemWorkload),
		cfg.Scheduler.TicksPerSecond, cfg.Simulation.Horizon)
	if err != nil {
		return nil, fmt.Errorf("generating workload: %w", err)
	}
	logrus.Infof("Generated %d requests over %d ticks", len(records), cfg.Simulation.Horizon)
	s.InjectArrivals(records)
	s.Run()
	return s, nil
}
