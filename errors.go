package breaker

import (
	"errors"
	"fmt"
)

// Sentinel errors for comparison with errors.Is. BreakerError wraps one of
// these as its Err field for the Open/HalfOpenProbeLimit/ConfigurationError
// kinds; the Operation kind wraps the caller's own error instead.
var (
	// ErrOpen is returned when admission is refused because the circuit is
	// Open and its cooldown has not elapsed. A refusal while HalfOpen
	// carries ErrHalfOpenProbeLimit instead.
	ErrOpen = errors.New("circuit breaker is open")

	// ErrHalfOpenProbeLimit is returned when admission is refused while
	// HalfOpen because the probe budget is exhausted. It is a separate
	// sentinel: errors.Is does not match it against ErrOpen, while IsOpen
	// reports true for both.
	ErrHalfOpenProbeLimit = errors.New("circuit breaker half-open probe limit reached")

	// ErrInvalidConfiguration is wrapped by builder-time ConfigurationError
	// failures.
	ErrInvalidConfiguration = errors.New("invalid circuit breaker configuration")
)

// BreakerErrorKind classifies a BreakerError.
type BreakerErrorKind string

const (
	// KindOpen indicates admission was refused; the operation never ran.
	KindOpen BreakerErrorKind = "open"
	// KindOperation indicates the operation ran and returned an error of
	// the caller's own type; the breaker has already accounted for it.
	KindOperation BreakerErrorKind = "operation"
	// KindHalfOpenProbeLimit is a refinement of KindOpen: refusal was due
	// to the half-open probe budget being exhausted.
	KindHalfOpenProbeLimit BreakerErrorKind = "half_open_probe_limit"
	// KindConfiguration indicates a builder-time validation failure.
	KindConfiguration BreakerErrorKind = "configuration"
)

// BreakerError is returned by Call/CallContext and by New. Op identifies
// the breaker (its configured Name) that produced the error.
type BreakerError struct {
	Op   string
	Kind BreakerErrorKind
	Err  error
}

// Error implements the error interface.
func (e *BreakerError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("breaker %q: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("breaker: %s: %v", e.Kind, e.Err)
}

// Unwrap allows errors.Is/errors.As to see through to the underlying
// sentinel (for KindOpen/KindHalfOpenProbeLimit/KindConfiguration) or the
// caller's own error (for KindOperation).
func (e *BreakerError) Unwrap() error {
	return e.Err
}

func newOpenError(name string, probeSaturated bool) *BreakerError {
	if probeSaturated {
		return &BreakerError{Op: name, Kind: KindHalfOpenProbeLimit, Err: ErrHalfOpenProbeLimit}
	}
	return &BreakerError{Op: name, Kind: KindOpen, Err: ErrOpen}
}

func newOperationError(name string, err error) *BreakerError {
	return &BreakerError{Op: name, Kind: KindOperation, Err: err}
}

func newConfigurationError(name string, err error) *BreakerError {
	return &BreakerError{Op: name, Kind: KindConfiguration, Err: fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)}
}

// IsOpen reports whether err is a BreakerError produced by a rejected
// admission (either KindOpen or KindHalfOpenProbeLimit).
func IsOpen(err error) bool {
	var be *BreakerError
	if errors.As(err, &be) {
		return be.Kind == KindOpen || be.Kind == KindHalfOpenProbeLimit
	}
	return false
}
