// Package sequence defines the push-sequence contract consumed and produced by
// the parse engine, plus thin adapters that bridge slices, strings, readers and
// channels into it.
//
// A Sequence delivers elements to exactly one Observer over time through three
// signals: OnNext for each element, then at most one of OnError or OnCompleted.
// Calls on an Observer are serialized by the producer. Sequences are
// forward-only and single-subscription: subscribing twice to the same Subject
// panics, and the engine never re-subscribes.
//
// Nothing in this package buffers or replays. Replay and branching are the job
// of the cursor package.
package sequence
