// Package otel adapts breaker.MetricSink and breaker.Hooks onto
// OpenTelemetry metrics and tracing, kept outside the core package so
// importing breaker alone never pulls in go.opentelemetry.io/otel.
package otel

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Sink implements breaker.MetricSink by lazily creating and caching
// Float64Counter/Float64UpDownCounter instruments per metric name,
// mirroring the double-checked-locking instrument cache used throughout
// this corpus's own telemetry package.
type Sink struct {
	meter     metric.Meter
	breaker   string
	mu        sync.RWMutex
	counters  map[string]metric.Float64Counter
	gauges    map[string]metric.Float64UpDownCounter
	gaugeLast map[string]float64
}

// New returns a Sink whose instruments are created against the named
// meter and labeled with the given breaker name.
func New(meterName, breakerName string) *Sink {
	return &Sink{
		meter:     otel.Meter(meterName),
		breaker:   breakerName,
		counters:  make(map[string]metric.Float64Counter),
		gauges:    make(map[string]metric.Float64UpDownCounter),
		gaugeLast: make(map[string]float64),
	}
}

// Counter implements breaker.MetricSink.
func (s *Sink) Counter(name string, delta float64) {
	ctx := context.Background()
	s.mu.RLock()
	c, ok := s.counters[name]
	s.mu.RUnlock()
	if !ok {
		s.mu.Lock()
		if c, ok = s.counters[name]; !ok {
			var err error
			c, err = s.meter.Float64Counter(name)
			if err != nil {
				s.mu.Unlock()
				return
			}
			s.counters[name] = c
		}
		s.mu.Unlock()
	}
	c.Add(ctx, delta, metric.WithAttributes(attribute.String("breaker", s.breaker)))
}

// Gauge implements breaker.MetricSink. OpenTelemetry has no direct
// set-to-value gauge instrument usable off the hot path without an
// observable callback, so gauges are modeled as an UpDownCounter: each
// call adds value minus the last value recorded for that metric name, so
// the counter's running total tracks the current value rather than
// accumulating every absolute reading. Instrument lookup and the
// last-value diff happen under the same exclusive lock so concurrent
// Gauge calls for the same name can't race on gaugeLast.
func (s *Sink) Gauge(name string, value float64) {
	ctx := context.Background()
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.gauges[name]
	if !ok {
		var err error
		g, err = s.meter.Float64UpDownCounter(name)
		if err != nil {
			return
		}
		s.gauges[name] = g
	}

	delta := value - s.gaugeLast[name]
	s.gaugeLast[name] = value
	g.Add(ctx, delta, metric.WithAttributes(attribute.String("breaker", s.breaker)))
}
