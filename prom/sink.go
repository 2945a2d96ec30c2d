// Package prom adapts breaker.MetricSink onto Prometheus collectors, kept
// outside the core package so importing breaker alone never pulls in
// github.com/prometheus/client_golang.
package prom

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Sink implements breaker.MetricSink against a caller-supplied registry.
// Gauge values are recorded against a GaugeVec keyed by metric name;
// Counter deltas against a CounterVec keyed by metric name. Both vecs are
// registered eagerly in New so duplicate registration errors surface
// immediately rather than on first use.
type Sink struct {
	namespace string
	gauges    *prometheus.GaugeVec
	counters  *prometheus.CounterVec
}

// New registers a gauge vec and a counter vec, both labeled by "metric"
// and "breaker", against registry and returns a Sink that writes to them. namespace
// prefixes both collector names (e.g. "circuitbreaker").
func New(registry *prometheus.Registry, namespace string) (*Sink, error) {
	gauges := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "breaker_gauge",
			Help:      "Circuit breaker gauge readings, labeled by metric name.",
		},
		[]string{"metric", "breaker"},
	)
	counters := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "breaker_total",
			Help:      "Circuit breaker counter totals, labeled by metric name.",
		},
		[]string{"metric", "breaker"},
	)

	if err := registry.Register(gauges); err != nil {
		return nil, err
	}
	if err := registry.Register(counters); err != nil {
		return nil, err
	}

	return &Sink{namespace: namespace, gauges: gauges, counters: counters}, nil
}

// NewForBreaker returns a per-breaker view of s whose Gauge/Counter calls
// are pre-labeled with the given breaker name, suitable for passing directly to
// breaker.WithMetricSink.
func (s *Sink) NewForBreaker(name string) *breakerSink {
	return &breakerSink{sink: s, breaker: name}
}

// breakerSink binds a Sink to a single breaker name so it satisfies
// breaker.MetricSink's two-argument (name, value) shape per call site
// while still emitting per-breaker labels.
type breakerSink struct {
	sink    *Sink
	breaker string
}

// Gauge implements breaker.MetricSink.
func (b *breakerSink) Gauge(name string, value float64) {
	b.sink.gauges.WithLabelValues(name, b.breaker).Set(value)
}

// Counter implements breaker.MetricSink.
func (b *breakerSink) Counter(name string, delta float64) {
	b.sink.counters.WithLabelValues(name, b.breaker).Add(delta)
}
