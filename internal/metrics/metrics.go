// Package metrics defines the Prometheus collectors exported by the router.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/mpconte/VR-Projects-sub003/internal/controller"
	"github.com/mpconte/VR-Projects-sub003/internal/event"
	"github.com/mpconte/VR-Projects-sub003/internal/filter"
)

// Namespace prefixes every metric name.
const Namespace = "inputrouter"

// Metrics contains the router's Prometheus collectors.
type Metrics struct {
	// Device input
	eventsReceived *prometheus.CounterVec
	deviceErrors   *prometheus.CounterVec

	// Filter chain
	filterOutcomes *prometheus.CounterVec
	processErrors  prometheus.Counter
	processLatency prometheus.Histogram

	// Controllers
	routeResults *prometheus.CounterVec
	delivered    prometheus.Counter

	// ControllerEvents is the counter driven by the "count" controller.
	ControllerEvents *prometheus.CounterVec

	// Interlock
	exclusiveWait prometheus.Histogram
	reloads       *prometheus.CounterVec
}

// New creates the collectors and registers them with reg. A nil reg
// creates unregistered collectors.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		eventsReceived: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "device_events_total",
				Help:      "Total number of events received from devices",
			},
			[]string{"device", "type"},
		),

		deviceErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "device_errors_total",
				Help:      "Total number of device read or dispatch errors",
			},
			[]string{"device"},
		),

		filterOutcomes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "filter_outcomes_total",
				Help:      "Total number of filter invocations by filter and status",
			},
			[]string{"filter", "status"},
		),

		processErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "filter_process_errors_total",
				Help:      "Total number of filter chain runs that ended in error",
			},
		),

		processLatency: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "dispatch_duration_seconds",
				Help:      "Duration of event dispatch through filters and controllers",
				Buckets:   prometheus.ExponentialBuckets(0.000001, 2, 16), // 1µs to 32ms
			},
		),

		routeResults: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "route_results_total",
				Help:      "Total number of controller routing outcomes",
			},
			[]string{"result"},
		),

		delivered: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "delivered_events_total",
				Help:      "Total number of events delivered to the application",
			},
		),

		ControllerEvents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "controller_events_total",
				Help:      "Total number of events counted by count controllers",
			},
			[]string{"output", "device"},
		),

		exclusiveWait: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "interlock_exclusive_wait_seconds",
				Help:      "Time spent waiting for exclusive access to the frame interlock",
				Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10), // 10µs to 2.6s
			},
		),

		reloads: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "config_reloads_total",
				Help:      "Total number of configuration reloads",
			},
			[]string{"result"},
		),
	}
}

// RecordEvent records an event arriving from a device.
func (m *Metrics) RecordEvent(ev *event.Event) {
	if m == nil {
		return
	}
	m.eventsReceived.WithLabelValues(ev.Device, ev.Type().String()).Inc()
}

// RecordDeviceError records a device failure.
func (m *Metrics) RecordDeviceError(device string) {
	if m == nil {
		return
	}
	m.deviceErrors.WithLabelValues(device).Inc()
}

// RecordFilter records one filter outcome. It has the filter.Observer
// signature.
func (m *Metrics) RecordFilter(entry *filter.Entry, _ *event.Event, status filter.Status) {
	if m == nil {
		return
	}
	m.filterOutcomes.WithLabelValues(entry.String(), status.String()).Inc()
}

// RecordProcessError records a failed filter chain run.
func (m *Metrics) RecordProcessError() {
	if m == nil {
		return
	}
	m.processErrors.Inc()
}

// ObserveDispatch records how long one dispatch took.
func (m *Metrics) ObserveDispatch(d time.Duration) {
	if m == nil {
		return
	}
	m.processLatency.Observe(d.Seconds())
}

// RecordRoute records a controller routing outcome.
func (m *Metrics) RecordRoute(status controller.RouteStatus) {
	if m == nil {
		return
	}
	m.routeResults.WithLabelValues(status.String()).Inc()
}

// RecordDelivered records an event handed to the application.
func (m *Metrics) RecordDelivered() {
	if m == nil {
		return
	}
	m.delivered.Inc()
}

// ObserveExclusiveWait records an exclusive interlock wait. It has the
// signature expected by interlock.WithExclusiveWaitHook.
func (m *Metrics) ObserveExclusiveWait(d time.Duration) {
	if m == nil {
		return
	}
	m.exclusiveWait.Observe(d.Seconds())
}

// RecordReload records a configuration reload attempt.
func (m *Metrics) RecordReload(err error) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.reloads.WithLabelValues(result).Inc()
}
