// Package breaker implements a process-local circuit breaker: a
// fault-isolation primitive that wraps calls to an unreliable collaborator
// and short-circuits them once failures cross a configured threshold,
// giving the collaborator time to recover before traffic resumes.
//
// The engine is lock-free on its hot paths (admission and outcome
// reporting use atomic compare-and-swap, never a mutex held across user
// code) and is polymorphic over the caller's operation: Call wraps a
// func() (T, error), CallContext wraps a func(context.Context) (T, error)
// for cooperative suspension.
//
// Metric export and trace emission are out of the core; see the otel and
// prom subpackages for optional, additive adapters.
package breaker
