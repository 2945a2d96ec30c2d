package otel

import (
	"context"
	"sync"

	breaker "github.com/copyleftdev/circuitbreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracingHooks builds a breaker.Hooks value whose OnCallPermitted starts
// a span and whose OnSuccess/OnFailure end the span most recently started
// for that breaker name, recording the error on failure. This mirrors the
// span-per-attempt pattern this corpus uses around chained provider
// calls, generalized from a single named operation to the breaker's own
// permitted/success/failure callback triple.
//
// Spans are tracked per breaker name in a small map rather than per call,
// since breaker.Hooks carries no per-call token; callers that need
// span-per-concurrent-call correlation should start their own span
// around the call and thread it through ctx to their own op instead.
type TracingHooks struct {
	tracer trace.Tracer
	mu     sync.Mutex
	active map[string]trace.Span
}

// NewTracingHooks returns a TracingHooks using the named tracer.
func NewTracingHooks(tracerName string) *TracingHooks {
	return &TracingHooks{
		tracer: otel.Tracer(tracerName),
		active: make(map[string]trace.Span),
	}
}

// Hooks returns a breaker.Hooks wired to this tracer's span lifecycle.
// Compose it with your own Hooks by calling the fields you also need
// directly; breaker.Hooks has no merge helper since at most one Hooks
// value is ever installed per breaker.
func (t *TracingHooks) Hooks() breaker.Hooks {
	return breaker.Hooks{
		OnCallPermitted: t.onPermitted,
		OnSuccess:       t.onSuccess,
		OnFailure:       t.onFailure,
	}
}

func (t *TracingHooks) onPermitted(name string, _ breaker.Admission) {
	_, span := t.tracer.Start(context.Background(), "circuitbreaker.call",
		trace.WithAttributes(attribute.String("breaker", name)))
	t.mu.Lock()
	t.active[name] = span
	t.mu.Unlock()
}

func (t *TracingHooks) take(name string) (trace.Span, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	span, ok := t.active[name]
	if ok {
		delete(t.active, name)
	}
	return span, ok
}

func (t *TracingHooks) onSuccess(name string) {
	if span, ok := t.take(name); ok {
		span.SetStatus(codes.Ok, "")
		span.End()
	}
}

func (t *TracingHooks) onFailure(name string, err error) {
	if span, ok := t.take(name); ok {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.End()
	}
}
