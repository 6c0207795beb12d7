package cursor

import (
	"context"
	"slices"
)

// history is the buffer shared by a root cursor and every branch spawned from
// it. Elements are addressed by absolute index; elems[0] is index base.
//
// Every live cursor pins the index it sits on. low is a lower bound on the
// smallest pinned index; everything below it is unreachable and trimmed.
// Branches are always created at or above an existing pin and cursors only
// move forward, so low never has to move back.
type history[T any] struct {
	ctx        context.Context
	feed       *Feed[T]
	base       int
	elems      []T
	terminated bool
	failure    error

	pins map[int]int
	low  int

	observe func(index int, v T)
}

func newHistory[T any](ctx context.Context, feed *Feed[T]) *history[T] {
	return &history[T]{
		ctx:  ctx,
		feed: feed,
		pins: make(map[int]int),
	}
}

// latest is the highest buffered index, or base-1 when nothing is buffered.
func (h *history[T]) latest() int {
	return h.base + len(h.elems) - 1
}

// ensure waits until index is buffered. It reports false once the sequence
// has terminated before index. This is the engine's only suspension point.
func (h *history[T]) ensure(index int) bool {
	for h.latest() < index {
		if h.failure != nil {
			Raise(&SourceError{Err: h.failure})
		}
		if h.terminated {
			return false
		}
		if h.pull() {
			continue
		}
		select {
		case <-h.ctx.Done():
			Raise(h.ctx.Err())
		case <-h.feed.Wait():
		}
	}
	return true
}

// pull moves whatever the feed holds into the buffer. It reports whether it
// made progress (new elements or a terminal signal).
func (h *history[T]) pull() bool {
	before := len(h.elems)
	var ended bool
	var err error
	h.elems, ended, err = h.feed.Drain(h.elems)
	if h.observe != nil {
		for i := before; i < len(h.elems); i++ {
			h.observe(h.base+i, h.elems[i])
		}
	}
	if ended && !h.terminated {
		h.terminated = true
		h.failure = err
		return true
	}
	return len(h.elems) > before
}

func (h *history[T]) at(index int) T {
	if index < h.base {
		panic(usage("read", "index %d was trimmed (buffer starts at %d)", index, h.base))
	}
	return h.elems[index-h.base]
}

func (h *history[T]) pin(index int) {
	h.pins[index]++
}

func (h *history[T]) unpin(index int) {
	n := h.pins[index] - 1
	if n > 0 {
		h.pins[index] = n
		return
	}
	delete(h.pins, index)
	if index == h.low {
		h.trim()
	}
}

// trim advances low past every unpinned index and drops the elements below it.
func (h *history[T]) trim() {
	for h.low <= h.latest() && h.pins[h.low] == 0 {
		h.low++
	}
	n := h.low - h.base
	if n <= 0 {
		return
	}
	if n > len(h.elems) {
		n = len(h.elems)
	}
	clear(h.elems[:n])
	h.elems = h.elems[n:]
	h.base += n
	if len(h.elems) == 0 {
		h.elems = nil
	} else if len(h.elems) < cap(h.elems)/4 {
		h.elems = slices.Clone(h.elems)
	}
}

// buffered is the number of elements currently held.
func (h *history[T]) buffered() int {
	return len(h.elems)
}
