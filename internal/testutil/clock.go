package testutil

import "sync/atomic"

// Clock is a diag.Sequencer for tests. Rewind puts it back to where it
// started, so a scenario run twice stamps its events with the same numbers.
type Clock struct {
	start int64
	seq   atomic.Int64
}

// NewClock returns a clock whose first Next is 1.
func NewClock() *Clock {
	return NewClockFrom(0)
}

// NewClockFrom returns a clock whose first Next is start+1.
func NewClockFrom(start int64) *Clock {
	c := &Clock{start: start}
	c.seq.Store(start)
	return c
}

func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Last is the most recent number handed out, or the start if none was.
func (c *Clock) Last() int64 {
	return c.seq.Load()
}

func (c *Clock) Rewind() {
	c.seq.Store(c.start)
}
