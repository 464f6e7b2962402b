// Package trace records what the executor does, one event at a time.
//
// It is the logging layer of deprio: executor runs, task lifecycles and
// individual polls are emitted as events to a Tracer chosen at startup.
//
// # Usage
//
//	deprio run --trace=- --trace-level=poll scenario.toml
//
// # Tracers
//
//   - Nop: zero-overhead tracer used when tracing is off
//   - StreamTracer: writes each event immediately (text or NDJSON)
//   - RingTracer: keeps the last N events in memory for dumps
//   - MultiTracer: fans out to several tracers
//
// # Levels and scopes
//
// Each event carries a Scope (run, task, poll). The Level decides which
// scopes reach the output:
//
//   - LevelOff: nothing
//   - LevelError: only failures
//   - LevelRun: executor run boundaries
//   - LevelTask: plus spawn, completion and cancellation of tasks
//   - LevelPoll: plus every single poll
//
// # Context propagation
//
//	ctx = trace.WithTracer(ctx, tracer)
//	t := trace.FromContext(ctx)
//
//	span := trace.Begin(t, trace.ScopeRun, "run", 0)
//	defer span.End("")
package trace
