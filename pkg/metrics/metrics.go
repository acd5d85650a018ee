package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "azspray"

// Recorder receives spray events
type Recorder interface {
	// RecordAttempt counts one completed attempt by outcome kind
	RecordAttempt(outcome string, duration time.Duration)
	// RecordSkip counts a candidate skipped because its user is resolved
	RecordSkip()
	// RecordTransportError counts an attempt that failed before classification
	RecordTransportError()
	// RecordFinding counts a fact reported for the first time
	RecordFinding(kind string)
	// IncInFlight and DecInFlight bracket an attempt waiting on the network
	IncInFlight()
	DecInFlight()
}

// Ensure Metrics implements Recorder interface at compile time
var _ Recorder = (*Metrics)(nil)

// Metrics holds the Prometheus collectors for a spray
type Metrics struct {
	registry *prometheus.Registry

	AttemptsTotal        *prometheus.CounterVec
	AttemptDuration      prometheus.Histogram
	SkippedTotal         prometheus.Counter
	TransportErrorsTotal prometheus.Counter
	FindingsTotal        *prometheus.CounterVec
	InFlight             prometheus.Gauge
}

// New creates collectors registered on a private registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		AttemptsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "attempts_total",
				Help:      "Password grant attempts by classified outcome",
			},
			[]string{"outcome"},
		),
		AttemptDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "attempt_duration_seconds",
				Help:      "Round trip time of password grant attempts",
				Buckets:   prometheus.DefBuckets,
			},
		),
		SkippedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "skipped_total",
				Help:      "Candidates skipped because the user was already resolved",
			},
		),
		TransportErrorsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "transport_errors_total",
				Help:      "Attempts that failed before a provider answer was classified",
			},
		),
		FindingsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "findings_total",
				Help:      "Facts reported, by kind",
			},
			[]string{"kind"},
		),
		InFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "attempts_in_flight",
				Help:      "Attempts waiting on the network",
			},
		),
	}
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) RecordAttempt(outcome string, duration time.Duration) {
	m.AttemptsTotal.WithLabelValues(outcome).Inc()
	m.AttemptDuration.Observe(duration.Seconds())
}

func (m *Metrics) RecordSkip() {
	m.SkippedTotal.Inc()
}

func (m *Metrics) RecordTransportError() {
	m.TransportErrorsTotal.Inc()
}

func (m *Metrics) RecordFinding(kind string) {
	m.FindingsTotal.WithLabelValues(kind).Inc()
}

func (m *Metrics) IncInFlight() {
	m.InFlight.Inc()
}

func (m *Metrics) DecInFlight() {
	m.InFlight.Dec()
}
