package breaker

import (
	"fmt"
)

// StatsSnapshot is the external name for a point-in-time Stats read,
// returned by Breaker.Stats (spec §6).
type StatsSnapshot = StatsView

// Breaker is a single circuit breaker instance: an FSM cell, a Stats
// accounting block, and the Config it was built with. The zero value is
// not usable; construct one with New.
type Breaker struct {
	cfg   Config
	fsm   *fsm
	stats *Stats
}

func newBreaker(cfg Config) *Breaker {
	return &Breaker{
		cfg:   cfg,
		fsm:   newFSM(),
		stats: newStats(cfg.Clock, cfg.WindowWidth, cfg.EMAAlpha, cfg.MinThroughput),
	}
}

// Name returns the breaker's configured identifier.
func (b *Breaker) Name() string { return b.cfg.Name }

// State returns the FSM's current state.
func (b *Breaker) State() State { return b.fsm.load() }

// Stats returns a point-in-time snapshot of the failure/success counters.
func (b *Breaker) Stats() StatsSnapshot { return b.stats.Snapshot() }

// admit implements spec §4.D's admission rules. It never blocks and
// never runs user code.
func (b *Breaker) admit() (Admission, error) {
	for {
		switch b.fsm.load() {
		case Closed:
			return Permit, nil

		case Open:
			openedAt := b.fsm.openedAtNano.Load()
			now := b.cfg.Clock.Now()
			if now.UnixNano()-openedAt < b.cfg.Cooldown.Nanoseconds() {
				return Reject, newOpenError(b.cfg.Name, false)
			}
			if b.fsm.tryTransition(Open, HalfOpen, 0) {
				b.stats.consecutiveFailures.Store(0)
				b.stats.consecutiveSuccesses.Store(0)
				b.cfg.Hooks.fireHalfOpen(b.cfg.Name)
				b.cfg.MetricSink.Gauge("state", float64(HalfOpen))
				b.cfg.MetricSink.Counter("transitions_total", 1)
				b.cfg.Logger.Info("circuit breaker half-open", map[string]interface{}{
					"breaker": b.cfg.Name,
				})
			}
			// Either we won the race and entered HalfOpen, or another
			// caller did; either way re-read and decide from there.
			continue

		case HalfOpen:
			return b.admitProbe()

		default:
			return Reject, newOpenError(b.cfg.Name, false)
		}
	}
}

// admitProbe enforces the concurrent-probe budget (config.ProbeInterval)
// via a CAS-increment-or-reject loop.
func (b *Breaker) admitProbe() (Admission, error) {
	for {
		cur := b.fsm.probesInFlight.Load()
		if cur >= int32(b.cfg.ProbeInterval) {
			return Reject, newOpenError(b.cfg.Name, true)
		}
		if b.fsm.probesInFlight.CompareAndSwap(cur, cur+1) {
			b.fsm.probesAdmitted.Add(1)
			b.cfg.MetricSink.Gauge("probes_in_flight", float64(cur+1))
			return PermitProbe, nil
		}
	}
}

// report implements spec §4.D's report rules, consulting Policy and
// driving the FSM's remaining transitions.
func (b *Breaker) report(admission Admission, err error) {
	switch admission {
	case Permit:
		b.reportClosed(err)
	case PermitProbe:
		b.reportProbe(err)
	}
}

func (b *Breaker) reportClosed(err error) {
	if err == nil {
		b.stats.RecordSuccess()
		b.cfg.Hooks.fireSuccess(b.cfg.Name)
		b.cfg.MetricSink.Counter("calls_total", 1)
		return
	}

	b.stats.RecordFailure()
	b.cfg.Hooks.fireFailure(b.cfg.Name, err)
	b.cfg.MetricSink.Counter("calls_total", 1)
	b.cfg.MetricSink.Counter("failures_total", 1)

	if b.cfg.Policy.ShouldTrip(b.stats.Snapshot()) {
		b.tripToOpen()
	}
}

func (b *Breaker) reportProbe(err error) {
	defer func() {
		remaining := b.fsm.probesInFlight.Add(-1)
		b.cfg.MetricSink.Gauge("probes_in_flight", float64(remaining))
	}()

	if err == nil {
		b.stats.RecordSuccess()
		b.cfg.Hooks.fireSuccess(b.cfg.Name)
		b.cfg.MetricSink.Counter("calls_total", 1)

		if b.cfg.Policy.ShouldReset(b.stats.Snapshot()) {
			b.resetToClosed()
		}
		return
	}

	b.stats.RecordFailure()
	b.cfg.Hooks.fireFailure(b.cfg.Name, err)
	b.cfg.MetricSink.Counter("calls_total", 1)
	b.cfg.MetricSink.Counter("failures_total", 1)

	// Per the resolved Open Question, a probe failure reopens the
	// circuit unconditionally, independent of Policy.
	b.tripToOpen()
}

func (b *Breaker) tripToOpen() {
	now := b.cfg.Clock.Now()
	from := b.fsm.load()
	if from == Open || !b.fsm.tryTransition(from, Open, now.UnixNano()) {
		return
	}
	b.cfg.Hooks.fireOpen(b.cfg.Name)
	b.cfg.MetricSink.Gauge("state", float64(Open))
	b.cfg.MetricSink.Counter("transitions_total", 1)
	b.cfg.Logger.Warn("circuit breaker open", map[string]interface{}{
		"breaker": b.cfg.Name,
	})
}

func (b *Breaker) resetToClosed() {
	if !b.fsm.tryTransition(HalfOpen, Closed, 0) {
		return
	}
	b.stats.Reset()
	b.cfg.Hooks.fireClose(b.cfg.Name)
	b.cfg.MetricSink.Gauge("state", float64(Closed))
	b.cfg.MetricSink.Counter("transitions_total", 1)
	b.cfg.Logger.Info("circuit breaker closed", map[string]interface{}{
		"breaker": b.cfg.Name,
	})
}

// ForceOpen forces the breaker into Open regardless of current state and
// accounting. The cooldown starts from the moment of the call, so admit
// rejects until it has elapsed.
func (b *Breaker) ForceOpen() {
	now := b.cfg.Clock.Now()
	from := b.fsm.load()
	if b.fsm.tryTransition(from, Open, now.UnixNano()) {
		b.cfg.Hooks.fireOpen(b.cfg.Name)
		b.cfg.MetricSink.Gauge("state", float64(Open))
		b.cfg.MetricSink.Counter("transitions_total", 1)
	}
}

// ForceClose forces the breaker into Closed and resets Stats, regardless
// of current state.
func (b *Breaker) ForceClose() {
	from := b.fsm.load()
	if b.fsm.tryTransition(from, Closed, 0) {
		b.stats.Reset()
		b.cfg.Hooks.fireClose(b.cfg.Name)
		b.cfg.MetricSink.Gauge("state", float64(Closed))
		b.cfg.MetricSink.Counter("transitions_total", 1)
	}
}

// Reset is a synonym for ForceClose: it returns the breaker to Closed
// with a freshly zeroed Stats block.
func (b *Breaker) Reset() {
	b.ForceClose()
}

// Call runs op, admitting it through the breaker first. It returns the
// admission error (a *BreakerError with Kind KindOpen or
// KindHalfOpenProbeLimit) without invoking op if the circuit refuses the
// call; otherwise op's outcome is reported to Stats and, on failure,
// returned wrapped as a *BreakerError with Kind KindOperation so callers
// can errors.As into *BreakerError uniformly regardless of outcome,
// unwrapping to op's own error via errors.Is/As.
func Call[T any](b *Breaker, op func() (T, error)) (T, error) {
	var zero T

	admission, err := b.admit()
	if err != nil {
		b.cfg.Hooks.fireRejected(b.cfg.Name)
		b.cfg.MetricSink.Counter("rejections_total", 1)
		return zero, err
	}
	b.cfg.Hooks.firePermitted(b.cfg.Name, admission)

	opReturned := false
	defer func() {
		if opReturned {
			return
		}
		if r := recover(); r != nil {
			b.report(admission, fmt.Errorf("panic recovered: %v", r))
			panic(r)
		}
	}()

	result, opErr := op()
	opReturned = true
	b.report(admission, opErr)
	if opErr != nil {
		return zero, newOperationError(b.cfg.Name, opErr)
	}
	return result, nil
}
