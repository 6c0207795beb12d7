// Package cursor implements the replayable, branchable view over a push
// sequence that the parse engine backtracks on.
//
// ARCHITECTURE:
//
// A push source can be subscribed to only once and never rewinds. The engine
// subscribes a Feed to it; the Feed queues whatever the source delivers. A
// root Cursor pulls from the Feed into a history buffer shared by reference
// with every Branch spawned from it, so competing grammar alternatives can
// each re-read the same positions without asking the source again.
//
// Suspension:
// Peek and Move are the only operations that wait. When a cursor needs an
// index that has not arrived, it blocks on the Feed's signal channel or on
// the session context, whichever fires first.
//
// Trimming:
// Every live cursor pins its index. When the lowest pin moves up (a cursor
// advances or is disposed) the elements below it are dropped, so memory is
// bounded by the distance between the slowest live branch and the newest
// element, not by the length of the stream.
//
// INVARIANTS:
//   - Index never decreases.
//   - AtEndOfSequence ⇔ IsSequenceTerminated ∧ Index == LatestIndex+1.
//   - Advancing a branch never changes the index of its parent or siblings.
//   - Every branch is disposed exactly once; a second Dispose panics.
//
// Failure modes:
// Programmer errors panic with *UsageError. Source errors and cancellation
// are raised as *Raised so that deferred Dispose calls unwind every branch;
// the session boundary turns them back into errors with Recover or AsFault.
package cursor
