package cursor

import (
	"context"
	"slices"
)

// Option configures a root cursor.
type Option[T any] func(*history[T])

// WithObserver registers fn to be called once for every element, in source
// order, as it enters the shared buffer.
func WithObserver[T any](fn func(index int, v T)) Option[T] {
	return func(h *history[T]) {
		h.observe = fn
	}
}

// Cursor is a positional, branchable view over a push sequence.
//
// A root cursor is created once per parse session over a Feed. Branches share
// the root's buffered history and advance independently; none of them can
// disturb the position of another. Every cursor other than the root must be
// disposed exactly once by whoever created it.
//
// A Cursor is not safe for concurrent use. All cursors of one session belong
// to the goroutine driving that session.
type Cursor[T any] struct {
	h         *history[T]
	parent    *Cursor[T]
	index     int
	branches  []*Cursor[T]
	disposed  bool
	orphaned  bool
	ambiguous bool
}

// New creates a root cursor reading from feed. ctx bounds every suspension:
// once it is done, any cursor waiting for data raises ctx.Err().
func New[T any](ctx context.Context, feed *Feed[T], opts ...Option[T]) *Cursor[T] {
	h := newHistory(ctx, feed)
	for _, opt := range opts {
		opt(h)
	}
	c := &Cursor[T]{h: h}
	h.pin(0)
	return c
}

// Index is the current position.
func (c *Cursor[T]) Index() int {
	return c.index
}

// LatestIndex is the highest index buffered so far, or -1 before the first
// element arrives.
func (c *Cursor[T]) LatestIndex() int {
	return c.h.latest()
}

// IsSequenceTerminated reports whether the source has completed or failed, as
// far as the buffer has observed.
func (c *Cursor[T]) IsSequenceTerminated() bool {
	return c.h.terminated
}

// AtEndOfSequence reports whether the cursor sits just past the last element
// of a terminated sequence. It never waits.
func (c *Cursor[T]) AtEndOfSequence() bool {
	return c.h.terminated && c.index == c.h.latest()+1
}

// IsForwardOnly is always true: positions never decrease.
func (c *Cursor[T]) IsForwardOnly() bool {
	return true
}

// IsSynchronized reports whether the source side may deliver from another
// goroutine while the cursor is read. The feed serializes delivery, so this is
// always true; branches themselves are single-goroutine.
func (c *Cursor[T]) IsSynchronized() bool {
	return true
}

// Ambiguous reports whether alternations evaluated against this cursor should
// yield every matching alternative instead of the first.
func (c *Cursor[T]) Ambiguous() bool {
	return c.ambiguous
}

// SetAmbiguous switches the evaluation mode of this cursor. Branches inherit
// the mode of the cursor they were spawned from.
func (c *Cursor[T]) SetAmbiguous(on bool) {
	c.check("set-ambiguous")
	c.ambiguous = on
}

// Peek returns the element at the current position, waiting for the source if
// it has not arrived yet. ok is false at the end of the sequence.
func (c *Cursor[T]) Peek() (v T, ok bool) {
	c.check("peek")
	if !c.h.ensure(c.index) {
		return v, false
	}
	return c.h.at(c.index), true
}

// Move advances the cursor by n elements, waiting for the source if needed.
// Moving backward or past the end of a terminated sequence panics.
func (c *Cursor[T]) Move(n int) {
	c.check("move")
	if n < 0 {
		panic(usage("move", "cannot move backward by %d", -n))
	}
	if n == 0 {
		return
	}
	target := c.index + n
	if !c.h.ensure(target - 1) {
		panic(usage("move", "cannot move to %d past the end of the sequence at %d", target, c.h.latest()+1))
	}
	c.moveTo(target)
}

// MoveToEnd consumes the rest of the sequence, waiting for the source to
// terminate. Elements passed over are released as the cursor advances.
func (c *Cursor[T]) MoveToEnd() {
	c.check("move-to-end")
	for c.h.ensure(c.index) {
		c.moveTo(c.h.latest() + 1)
	}
}

func (c *Cursor[T]) moveTo(target int) {
	old := c.index
	c.index = target
	c.h.pin(target)
	c.h.unpin(old)
}

// Branch creates an independent cursor at the current position that shares
// this cursor's buffered history. The caller owns the branch and must
// Dispose it.
func (c *Cursor[T]) Branch() *Cursor[T] {
	c.check("branch")
	b := &Cursor[T]{
		h:         c.h,
		parent:    c,
		index:     c.index,
		ambiguous: c.ambiguous,
	}
	c.branches = append(c.branches, b)
	c.h.pin(b.index)
	return b
}

// Remainder creates a branch positioned skip elements ahead, the continuation
// after a match of length skip.
func (c *Cursor[T]) Remainder(skip int) *Cursor[T] {
	b := c.Branch()
	b.Move(skip)
	return b
}

// Branches is the number of live branches spawned directly from c.
func (c *Cursor[T]) Branches() int {
	return len(c.branches)
}

// Buffered is the number of elements the shared history currently holds.
func (c *Cursor[T]) Buffered() int {
	return c.h.buffered()
}

// Dispose releases the cursor and every branch still alive beneath it.
// Disposing the same cursor twice panics. Disposing a branch whose ancestor
// was already disposed is a no-op.
func (c *Cursor[T]) Dispose() {
	if c.orphaned {
		return
	}
	if c.disposed {
		panic(usage("dispose", "cursor at %d disposed twice", c.index))
	}
	c.release()
	if p := c.parent; p != nil && !p.disposed {
		if i := slices.Index(p.branches, c); i >= 0 {
			p.branches = slices.Delete(p.branches, i, i+1)
		}
	}
}

func (c *Cursor[T]) release() {
	c.disposed = true
	for _, b := range c.branches {
		if !b.disposed {
			b.orphaned = true
			b.release()
		}
	}
	c.branches = nil
	c.h.unpin(c.index)
}

func (c *Cursor[T]) check(op string) {
	if c.disposed {
		panic(usage(op, "cursor at %d has been disposed", c.index))
	}
}
