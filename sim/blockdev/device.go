package blockdev

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/sirupsen/logrus"

	"github.com/robcore/Hulk-Kernel-V2/sim/edf"
)

// DeviceConfig groups the device service-time model.
type DeviceConfig struct {
	SeekTicks      int64   `yaml:"seek_ticks"`       // cost of a non-contiguous access
	TicksPerSector float64 `yaml:"ticks_per_sector"` // transfer cost
	JitterTicks    int64   `yaml:"jitter_ticks"`     // uniform extra service time in [0, JitterTicks]
}

// DefaultDeviceConfig models a small SSD-like device on a 1000 ticks/s clock.
func DefaultDeviceConfig() DeviceConfig {
	return DeviceConfig{SeekTicks: 2, TicksPerSector: 0.01}
}

// Validate checks ranges.
func (c DeviceConfig) Validate() error {
	if c.SeekTicks < 0 {
		return fmt.Errorf("seek_ticks must be non-negative, got %d", c.SeekTicks)
	}
	if c.TicksPerSector < 0 || math.IsNaN(c.TicksPerSector) {
		return fmt.Errorf("ticks_per_sector must be non-negative, got %f", c.TicksPerSector)
	}
	if c.JitterTicks < 0 {
		return fmt.Errorf("jitter_ticks must be non-negative, got %d", c.JitterTicks)
	}
	return nil
}

// Device services dispatched requests one at a time, in dispatch order.
type Device struct {
	cfg      DeviceConfig
	rng      *rand.Rand // nil disables jitter
	pending  DispatchQueue
	inFlight *edf.Request
	head     int64 // sector after the last transfer

	Served    int   // requests completed
	BusyTicks int64 // total service time
}

// NewDevice creates an idle device.
func NewDevice(cfg DeviceConfig) *Device {
	return &Device{cfg: cfg}
}

// SetRNG supplies the source for service-time jitter.
func (d *Device) SetRNG(rng *rand.Rand) {
	d.rng = rng
}

// AddTail implements edf.DispatchSink.
func (d *Device) AddTail(r *edf.Request) {
	d.pending.Enqueue(r)
}

var _ edf.DispatchSink = (*Device)(nil)

// Pending returns the number of requests waiting for the device.
func (d *Device) Pending() int {
	return d.pending.Len()
}

// Busy reports whether a request is in flight.
func (d *Device) Busy() bool {
	return d.inFlight != nil
}

// ServiceTime returns how long r takes given the current head position.
// Always at least one tick.
func (d *Device) ServiceTime(r *edf.Request) int64 {
	t := int64(math.Ceil(float64(r.Sectors) * d.cfg.TicksPerSector))
	if r.Sector != d.head {
		t += d.cfg.SeekTicks
	}
	if t < 1 {
		t = 1
	}
	return t
}

// Start begins the next pending request if the device is idle. It returns
// the tick at which the request will complete.
func (d *Device) Start(now int64) (done int64, ok bool) {
	if d.inFlight != nil || d.pending.Len() == 0 {
		return 0, false
	}
	r := d.pending.Dequeue()
	service := d.ServiceTime(r)
	if d.rng != nil && d.cfg.JitterTicks > 0 {
		service += d.rng.Int63n(d.cfg.JitterTicks + 1)
	}
	d.inFlight = r
	d.head = r.End()
	d.BusyTicks += service
	logrus.Debugf("device: start %s %s at %d, %d ticks", r.Dir, r.ID, now, service)
	return now + service, true
}

// Finish completes the in-flight request and returns it.
func (d *Device) Finish() *edf.Request {
	if d.inFlight == nil {
		panic("Finish: no request in flight")
	}
	r := d.inFlight
	d.inFlight = nil
	d.Served++
	return r
}

// Close verifies the device has nothing left to do.
func (d *Device) Close() {
	if d.inFlight != nil {
		panic(fmt.Sprintf("Close: request %q still in flight", d.inFlight.ID))
	}
	d.pending.mustBeEmpty("Close")
}
