// Package store provides SQLite-backed storage for parse traces.
//
// A trace is the stream of diagnostics events one parse session emits:
//   - Sessions: one row per session, closed by its finish event
//   - Events: compile, consume, produce and finish records
//
// The Recorder plugs into an engine driver as diag.Hooks. Writing is best
// effort: a failed write is logged and the parse carries on.
//
// # Ordering
//
// Events are ordered by seq within a session. Seq comes from the driver's
// clock, never from wall time, so the same input replays to the same trace.
// Sessions are listed in the order they were first recorded.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
