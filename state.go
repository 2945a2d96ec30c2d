package breaker

import "sync/atomic"

// State is the circuit breaker's current mode.
type State int32

const (
	// Closed allows every call through; failures are accounted for but
	// do not block admission until the trip policy fires.
	Closed State = iota
	// Open rejects every call until the cooldown elapses.
	Open
	// HalfOpen admits a bounded number of probe calls to test recovery.
	HalfOpen
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// Admission is the outcome of asking the FSM whether a call may proceed.
type Admission int32

const (
	// Reject means the call must not run; no outcome will be reported.
	Reject Admission = iota
	// Permit means the call may run normally (State was Closed).
	Permit
	// PermitProbe means the call may run as a HalfOpen probe; its outcome
	// counts toward the probe budget and the reset/re-trip decision.
	PermitProbe
)

// fsm is the atomically-updated cell described in spec §3: current state,
// when the current Open episode began, and the probe-admission counters
// for the current HalfOpen episode. All transitions go through
// tryTransition, which performs a single compare-and-swap so exactly one
// caller wins a given transition; losers re-read and re-decide.
type fsm struct {
	state          atomic.Int32 // State
	openedAtNano   atomic.Int64 // clock instant (UnixNano) Open began
	probesInFlight atomic.Int32
	probesAdmitted atomic.Int32
	generation     atomic.Uint64 // bumped on every transition, for listeners/debugging
}

func newFSM() *fsm {
	f := &fsm{}
	f.state.Store(int32(Closed))
	return f
}

func (f *fsm) load() State {
	return State(f.state.Load())
}

// tryTransition performs the single compare-and-swap that moves the FSM
// from `from` to `to`. On success it records openedAtNano when entering
// Open, zeroes the probe counters when entering HalfOpen, and bumps the
// generation; the Stats counters are reset by the Breaker, not here.
// Returns whether this call won the transition.
func (f *fsm) tryTransition(from, to State, openedAtNano int64) bool {
	if !f.state.CompareAndSwap(int32(from), int32(to)) {
		return false
	}
	if to == Open {
		f.openedAtNano.Store(openedAtNano)
	}
	if to == HalfOpen {
		f.probesInFlight.Store(0)
		f.probesAdmitted.Store(0)
	}
	f.generation.Add(1)
	return true
}
