package breaker

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultPolicyShouldTrip(t *testing.T) {
	p := DefaultPolicy{
		FailureThreshold:        0.5,
		MinThroughput:           4,
		ConsecutiveFailuresTrip: 5,
	}

	cases := []struct {
		name  string
		view  StatsView
		trips bool
	}{
		{"below min throughput, high rate, no consecutive run", StatsView{WindowCalls: 2, WindowFailures: 2, ConsecutiveFailures: 2}, false},
		{"at min throughput, rate at threshold", StatsView{WindowCalls: 4, WindowFailures: 2, ConsecutiveFailures: 2}, true},
		{"at min throughput, rate below threshold", StatsView{WindowCalls: 4, WindowFailures: 1, ConsecutiveFailures: 1}, false},
		{"consecutive failures trip bypasses throughput gate", StatsView{WindowCalls: 1, WindowFailures: 1, ConsecutiveFailures: 5}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.trips, p.ShouldTrip(tc.view))
		})
	}
}

func TestDefaultPolicyShouldReset(t *testing.T) {
	p := DefaultPolicy{ConsecutiveSuccessesReset: 2}

	assert.False(t, p.ShouldReset(StatsView{ConsecutiveSuccesses: 1}))
	assert.True(t, p.ShouldReset(StatsView{ConsecutiveSuccesses: 2}))
	assert.True(t, p.ShouldReset(StatsView{ConsecutiveSuccesses: 3}))
}

func TestDefaultPolicyConsecutiveFailuresTripDisabledWhenZero(t *testing.T) {
	p := DefaultPolicy{FailureThreshold: 0.9, MinThroughput: 100, ConsecutiveFailuresTrip: 0}
	assert.False(t, p.ShouldTrip(StatsView{ConsecutiveFailures: 1000, WindowCalls: 1, WindowFailures: 1}))
}
