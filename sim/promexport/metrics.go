// Package promexport exposes scheduler decisions as Prometheus metrics.
//
// A *Metrics implements edf.Observer. Methods handle a nil receiver, so a
// nil *Metrics is a no-op observer when export is disabled.
package promexport

import (
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/robcore/Hulk-Kernel-V2/sim/edf"
)

// Metrics tracks scheduler activity.
//
// Metrics tracked:
//   - Admissions by direction
//   - Merges, and how many of them repositioned the surviving request
//   - Dispatches by direction
//   - Dispatch lateness in ticks (dispatch time minus deadline)
//   - Queue depth by direction
type Metrics struct {
	// Admitted counts admitted requests.
	// Labels: direction=[read, write]
	Admitted *prometheus.CounterVec

	// Merged counts merges by outcome.
	// Labels: repositioned=[true, false]
	Merged *prometheus.CounterVec

	// Dispatched counts released requests.
	// Labels: direction=[read, write]
	Dispatched *prometheus.CounterVec

	// Lateness tracks how far past its deadline each request was released.
	// Labels: direction=[read, write]
	Lateness *prometheus.HistogramVec

	// QueueDepth tracks requests waiting in each deadline queue.
	// Labels: direction=[read, write]
	QueueDepth *prometheus.GaugeVec
}

// LatenessBuckets covers zero through roughly ten seconds at 1000 ticks/s.
var LatenessBuckets = prometheus.ExponentialBuckets(1, 4, 8)

// NewMetrics creates and registers the scheduler metrics.
// If registerer is nil, prometheus.DefaultRegisterer is used.
func NewMetrics(registerer prometheus.Registerer) (*Metrics, error) {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		Admitted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "edf_admitted_requests_total",
				Help: "Total requests admitted by direction",
			},
			[]string{"direction"},
		),
		Merged: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "edf_merged_requests_total",
				Help: "Total request merges by whether the survivor was repositioned",
			},
			[]string{"repositioned"},
		),
		Dispatched: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "edf_dispatched_requests_total",
				Help: "Total requests released to the dispatch list by direction",
			},
			[]string{"direction"},
		),
		Lateness: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "edf_dispatch_lateness_ticks",
				Help:    "Ticks between a request's deadline and its release",
				Buckets: LatenessBuckets,
			},
			[]string{"direction"},
		),
		QueueDepth: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "edf_queue_depth",
				Help: "Requests waiting in each deadline queue",
			},
			[]string{"direction"},
		),
	}
	for _, c := range []prometheus.Collector{m.Admitted, m.Merged, m.Dispatched, m.Lateness, m.QueueDepth} {
		if err := registerer.Register(c); err != nil {
			return nil, fmt.Errorf("registering edf metrics: %w", err)
		}
	}
	// Pre-create label sets so a quiet direction still reports zero.
	for _, dir := range edf.Directions {
		m.Admitted.WithLabelValues(dir.String())
		m.Dispatched.WithLabelValues(dir.String())
		m.QueueDepth.WithLabelValues(dir.String())
	}
	return m, nil
}

// ObserveAdmit implements edf.Observer.
func (m *Metrics) ObserveAdmit(r *edf.Request, _ int64) {
	if m == nil {
		return
	}
	m.Admitted.WithLabelValues(r.Dir.String()).Inc()
	m.QueueDepth.WithLabelValues(r.Dir.String()).Inc()
}

// ObserveMerge implements edf.Observer.
func (m *Metrics) ObserveMerge(_, candidate *edf.Request, repositioned bool) {
	if m == nil {
		return
	}
	m.Merged.WithLabelValues(fmt.Sprint(repositioned)).Inc()
	m.QueueDepth.WithLabelValues(candidate.Dir.String()).Dec()
}

// ObserveDispatch implements edf.Observer.
func (m *Metrics) ObserveDispatch(r *edf.Request, now int64) {
	if m == nil {
		return
	}
	dir := r.Dir.String()
	m.Dispatched.WithLabelValues(dir).Inc()
	m.QueueDepth.WithLabelValues(dir).Dec()
	m.Lateness.WithLabelValues(dir).Observe(float64(r.Lateness(now)))
}

var _ edf.Observer = (*Metrics)(nil)

// WriteText writes every metric family g gathers in the Prometheus text
// exposition format.
func WriteText(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return fmt.Errorf("gathering metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("writing metric family %s: %w", mf.GetName(), err)
		}
	}
	return nil
}
