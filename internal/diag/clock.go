package diag

import "sync/atomic"

// Sequencer stamps events with increasing sequence numbers.
// Implemented by Clock (production) and testutil.Clock (tests).
type Sequencer interface {
	Next() int64
}

// Clock is a monotonic logical clock for event ordering.
//
// Every event is stamped with a strictly increasing seq number from the
// clock, so the order of a recorded trace never depends on wall-clock time
// and traces from concurrent sessions interleave unambiguously.
//
// Thread-safety: Clock is safe for concurrent use (atomic operations).
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a new clock starting at a specific sequence number.
// Used to continue numbering after the events already in a trace store.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next returns the next sequence number and increments the clock.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current sequence number without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
