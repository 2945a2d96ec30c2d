package breaker

import (
	"context"
	"fmt"
)

// callResult carries a generic op's outcome across the goroutine boundary
// in CallContext, mirroring resilience.CircuitBreaker.ExecuteWithTimeout's
// internal result channel.
type callResult[T any] struct {
	value T
	err   error
}

// CallContext runs op in its own goroutine, admitting it through the
// breaker first exactly as Call does, then waits for either op to finish
// or ctx to be done. If ctx is done first, the call is reported as a
// Failure (spec §4.F/§9's resolved default) and ctx.Err() is returned
// wrapped as a *BreakerError with Kind KindOperation, exactly like a
// regular operation failure; op's goroutine is left to finish in the
// background and its late result is discarded. A panic inside op is
// recovered, reported as a Failure, and re-raised on the calling
// goroutine.
func CallContext[T any](ctx context.Context, b *Breaker, op func(context.Context) (T, error)) (T, error) {
	var zero T

	admission, err := b.admit()
	if err != nil {
		b.cfg.Hooks.fireRejected(b.cfg.Name)
		b.cfg.MetricSink.Counter("rejections_total", 1)
		return zero, err
	}
	b.cfg.Hooks.firePermitted(b.cfg.Name, admission)

	done := make(chan callResult[T], 1)
	panicked := make(chan any, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				panicked <- r
			}
		}()
		v, e := op(ctx)
		done <- callResult[T]{value: v, err: e}
	}()

	select {
	case r := <-done:
		b.report(admission, r.err)
		if r.err != nil {
			return zero, newOperationError(b.cfg.Name, r.err)
		}
		return r.value, nil

	case r := <-panicked:
		b.report(admission, fmt.Errorf("panic recovered: %v", r))
		panic(r)

	case <-ctx.Done():
		b.report(admission, ctx.Err())
		return zero, newOperationError(b.cfg.Name, ctx.Err())
	}
}
