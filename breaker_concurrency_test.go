package breaker

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// TestConcurrentCallsRespectProbeBudget drives many goroutines through
// Call concurrently against a breaker parked in HalfOpen with a fixed
// probe budget, and asserts the number of calls that actually ran the
// operation never exceeds probe_interval at any instant -- invariant 5
// (admission never exceeds the configured probe budget) under real
// concurrency, matching this corpus's own goroutine-fan-out concurrency
// tests (core/circuit_breaker_test.go, resilience/circuit_breaker_bench_test.go).
func TestConcurrentCallsRespectProbeBudget(t *testing.T) {
	cases := []struct {
		name          string
		probeInterval int
		workers       int
	}{
		{"single probe slot", 1, 16},
		{"four probe slots", 4, 32},
		{"probe slots exceed workers", 8, 4},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			clock := NewVirtualClock(time.Unix(0, 0))
			b, err := New(
				WithClock(clock),
				WithConsecutiveFailuresTrip(1),
				WithCooldown(time.Second),
				WithProbeInterval(tc.probeInterval),
			)
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}

			_, _ = Call(b, fail)
			clock.Advance(2 * time.Second)

			var inFlight atomic.Int32
			var maxObserved atomic.Int32
			var rejections atomic.Int64
			var admitted atomic.Int64

			var wg sync.WaitGroup
			wg.Add(tc.workers)
			for i := 0; i < tc.workers; i++ {
				go func() {
					defer wg.Done()
					_, callErr := Call(b, func() (int, error) {
						cur := inFlight.Add(1)
						for {
							max := maxObserved.Load()
							if cur <= max || maxObserved.CompareAndSwap(max, cur) {
								break
							}
						}
						admitted.Add(1)
						time.Sleep(time.Millisecond)
						inFlight.Add(-1)
						return 1, nil
					})
					if callErr != nil {
						rejections.Add(1)
					}
				}()
			}
			wg.Wait()

			if got := maxObserved.Load(); got > int32(tc.probeInterval) {
				t.Errorf("observed %d concurrent probes in flight, want <= %d", got, tc.probeInterval)
			}
			if admitted.Load()+rejections.Load() != int64(tc.workers) {
				t.Errorf("admitted(%d) + rejected(%d) != workers(%d)", admitted.Load(), rejections.Load(), tc.workers)
			}
		})
	}
}

// TestConcurrentClosedCallsNeverCorruptCounters hammers a Closed breaker
// from many goroutines and asserts totals add up exactly, i.e. no
// unsynchronized read-modify-write loses an update under -race.
func TestConcurrentClosedCallsNeverCorruptCounters(t *testing.T) {
	b, err := New(WithFailureThreshold(0.99), WithMinThroughput(1_000_000), WithConsecutiveFailuresTrip(1_000_000))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	const workers = 64
	const perWorker = 200

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		i := i
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				if (i+j)%3 == 0 {
					_, _ = Call(b, fail)
				} else {
					_, _ = Call(b, succeed)
				}
			}
		}()
	}
	wg.Wait()

	if got := b.Stats().TotalCalls; got != int64(workers*perWorker) {
		t.Errorf("TotalCalls = %d, want %d", got, workers*perWorker)
	}
	if b.State() != Closed {
		t.Errorf("State() = %v, want Closed (thresholds are intentionally unreachable)", b.State())
	}
}
