// Package trace records what the backend is doing while it lowers units.
//
// Events are spans (begin/end pairs) and points, tagged with a Scope:
//
//   - ScopeDriver: CLI commands
//   - ScopeUnit: one unit file through load, lower and write
//   - ScopeRoutine: one procedure, function or main block
//   - ScopeStmt: one lowered statement
//
// The Level decides which scopes reach the tracer. Tracers write
// immediately (StreamTracer), keep the last N events in memory
// (RingTracer), or both (MultiTracer).
//
// Tracers travel through the pipeline in a context:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	span := trace.Begin(trace.FromContext(ctx), trace.ScopeUnit, "lower", 0)
//	defer span.End("")
package trace
