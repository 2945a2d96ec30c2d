package breaker

import (
	"math"
	"sync/atomic"
	"time"
)

// Stats is the failure/success accounting engine described in spec §4.B.
// Every counter is updated with unsynchronized atomic read-modify-write;
// slight skew between fields is tolerated because Policy reads are
// advisory and every failure re-evaluates the trip/reset decision under
// the FSM's own linearization point.
type Stats struct {
	consecutiveFailures  atomic.Int64
	consecutiveSuccesses atomic.Int64
	totalCalls           atomic.Int64
	totalFailures        atomic.Int64
	emaBits              atomic.Uint64 // math.Float64bits(ema_error_rate)

	windowCalls    atomic.Int64
	windowFailures atomic.Int64
	windowStartNs  atomic.Int64 // clock instant (UnixNano) the current window began

	clock         Clock
	windowWidth   time.Duration
	alpha         float64
	minThroughput int
}

func newStats(clock Clock, windowWidth time.Duration, alpha float64, minThroughput int) *Stats {
	s := &Stats{
		clock:         clock,
		windowWidth:   windowWidth,
		alpha:         alpha,
		minThroughput: minThroughput,
	}
	s.windowStartNs.Store(clock.Now().UnixNano())
	return s
}

// StatsView is a read-only, point-in-time snapshot of Stats, handed to
// Policy predicates. It is built from a sequence of separate atomic loads
// taken after the outcome that triggered the read has been fully
// recorded; records made concurrently by other goroutines may be only
// partly visible, so fields can be slightly skewed relative to each other.
type StatsView struct {
	ConsecutiveFailures  int64
	ConsecutiveSuccesses int64
	TotalCalls           int64
	TotalFailures         int64
	EMAErrorRate         float64
	WindowCalls          int64
	WindowFailures       int64
}

// ErrorRate returns window_failures/window_calls when window_calls has
// reached min_throughput, otherwise 0 (spec §4.B).
func (v StatsView) ErrorRate(minThroughput int) float64 {
	if v.WindowCalls < int64(minThroughput) || v.WindowCalls == 0 {
		return 0
	}
	return float64(v.WindowFailures) / float64(v.WindowCalls)
}

func (s *Stats) loadEMA() float64 {
	return math.Float64frombits(s.emaBits.Load())
}

func (s *Stats) storeEMA(v float64) {
	s.emaBits.Store(math.Float64bits(v))
}

// updateEMA applies ema <- alpha*sample + (1-alpha)*ema via a CAS retry
// loop (no lock, matching the engine's unsynchronized-counter discipline).
func (s *Stats) updateEMA(sample float64) {
	for {
		old := s.emaBits.Load()
		oldVal := math.Float64frombits(old)
		newVal := s.alpha*sample + (1-s.alpha)*oldVal
		if s.emaBits.CompareAndSwap(old, math.Float64bits(newVal)) {
			return
		}
	}
}

// rollWindowIfNeeded tumbles the fixed window lazily: the next record
// after expiry resets window_calls/window_failures and advances
// window_started_at. Windows are non-overlapping.
func (s *Stats) rollWindowIfNeeded(now time.Time) {
	start := s.windowStartNs.Load()
	if now.Sub(time.Unix(0, start)) < s.windowWidth {
		return
	}
	if s.windowStartNs.CompareAndSwap(start, now.UnixNano()) {
		s.windowCalls.Store(0)
		s.windowFailures.Store(0)
	}
}

// RecordSuccess accounts a successful call.
func (s *Stats) RecordSuccess() {
	now := s.clock.Now()
	s.rollWindowIfNeeded(now)

	s.totalCalls.Add(1)
	s.consecutiveSuccesses.Add(1)
	s.consecutiveFailures.Store(0)
	s.updateEMA(0)
	s.windowCalls.Add(1)
}

// RecordFailure accounts a failed call.
func (s *Stats) RecordFailure() {
	now := s.clock.Now()
	s.rollWindowIfNeeded(now)

	s.totalCalls.Add(1)
	s.totalFailures.Add(1)
	s.consecutiveFailures.Add(1)
	s.consecutiveSuccesses.Store(0)
	s.updateEMA(1)
	s.windowCalls.Add(1)
	s.windowFailures.Add(1)
}

// Snapshot returns a point-in-time read of every counter.
func (s *Stats) Snapshot() StatsView {
	return StatsView{
		ConsecutiveFailures:  s.consecutiveFailures.Load(),
		ConsecutiveSuccesses: s.consecutiveSuccesses.Load(),
		TotalCalls:           s.totalCalls.Load(),
		TotalFailures:        s.totalFailures.Load(),
		EMAErrorRate:         s.loadEMA(),
		WindowCalls:          s.windowCalls.Load(),
		WindowFailures:       s.windowFailures.Load(),
	}
}

// Reset zeroes every counter and restarts the window at now (spec
// invariant 6: entering Closed resets all Stats counters).
func (s *Stats) Reset() {
	s.consecutiveFailures.Store(0)
	s.consecutiveSuccesses.Store(0)
	s.totalCalls.Store(0)
	s.totalFailures.Store(0)
	s.emaBits.Store(0)
	s.windowCalls.Store(0)
	s.windowFailures.Store(0)
	s.windowStartNs.Store(s.clock.Now().UnixNano())
}
