package breaker

// Hooks is a record of optional observer callbacks fired synchronously by
// the goroutine that completed the corresponding transition or outcome
// report. Hooks must be non-blocking; the engine does not catch or mask a
// panic raised from a hook; it propagates to the caller's goroutine after
// the engine's own state has already been updated consistently.
type Hooks struct {
	OnOpen          func(name string)
	OnClose         func(name string)
	OnHalfOpen      func(name string)
	OnCallPermitted func(name string, admission Admission)
	OnCallRejected  func(name string)
	OnSuccess       func(name string)
	OnFailure       func(name string, err error)
}

func (h Hooks) fireOpen(name string) {
	if h.OnOpen != nil {
		h.OnOpen(name)
	}
}

func (h Hooks) fireClose(name string) {
	if h.OnClose != nil {
		h.OnClose(name)
	}
}

func (h Hooks) fireHalfOpen(name string) {
	if h.OnHalfOpen != nil {
		h.OnHalfOpen(name)
	}
}

func (h Hooks) firePermitted(name string, a Admission) {
	if h.OnCallPermitted != nil {
		h.OnCallPermitted(name, a)
	}
}

func (h Hooks) fireRejected(name string) {
	if h.OnCallRejected != nil {
		h.OnCallRejected(name)
	}
}

func (h Hooks) fireSuccess(name string) {
	if h.OnSuccess != nil {
		h.OnSuccess(name)
	}
}

func (h Hooks) fireFailure(name string, err error) {
	if h.OnFailure != nil {
		h.OnFailure(name, err)
	}
}

// MetricSink receives numeric counters and gauges sampled on change. The
// breaker calls Gauge for "state" and "probes_in_flight", and Counter for
// "calls_total", "failures_total", "rejections_total", and
// "transitions_total". See the otel and prom subpackages for concrete
// sinks.
type MetricSink interface {
	Gauge(name string, value float64)
	Counter(name string, delta float64)
}

// noopSink discards every sample. It is the default MetricSink.
type noopSink struct{}

func (noopSink) Gauge(string, float64)   {}
func (noopSink) Counter(string, float64) {}
