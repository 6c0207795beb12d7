// Package engine drives a grammar over a push sequence.
//
// ARCHITECTURE:
//
// A Driver turns a Grammar into a function from a push sequence of source
// elements to a push sequence of results. Every subscription is a session:
//
//	Idle -> Compiling -> Matching -> (Advancing -> Matching)* -> Completed | Failed
//
//  1. The session subscribes a cursor.Feed to the source. The producer's
//     goroutine only appends to the feed; the parse runs in the session's
//     own goroutine and blocks on the feed when it needs an element that has
//     not arrived.
//  2. Compiling builds the parser once.
//  3. Matching evaluates it at the root cursor and emits every result.
//  4. Advancing moves the root cursor by the longest result of the pass,
//     which lets the cursor drop history nobody can reach any more.
//  5. A pass without a result that consumed input ends the session. In
//     strict mode that is an error if input remains.
//
// ERROR HANDLING:
//
// Inside a parse, source errors, parse errors and cancellation travel as
// panics raised by cursor.Raise. Every combinator disposes its branches in
// deferred calls, so the panic unwinds them all on its way to the session
// loop, which recovers it and reports a RuntimeError. Cancellation ends the
// session silently.
//
// Diagnostics hooks see compile, consume, produce and finish events. They
// are called through a recover guard and cannot affect the parse.
//
// INVARIANTS:
//   - At most one session per driver is active at a time.
//   - Results are emitted in source order; the results of one pass share
//     their starting index and keep the grammar's order.
//   - Every cursor branch is disposed before the session signals its end.
package engine
