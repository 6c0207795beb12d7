package cursor

import "sync"

// Feed is the hand-off between a push source and the parse goroutine.
//
// It implements sequence.Observer so it can be subscribed directly to a
// source. The producer side (OnNext, OnError, OnCompleted) is safe from any
// goroutine; the consumer side (Drain, Wait) belongs to the single goroutine
// that owns the cursors reading from it.
//
// The feed is unbounded: a push source has no back-pressure, so elements are
// accepted as fast as they arrive and released as soon as the history has
// taken them.
type Feed[T any] struct {
	mu     sync.Mutex
	items  []T
	ended  bool
	err    error
	signal chan struct{} // buffered, size 1; closed once the feed has ended
}

// NewFeed creates an empty, open feed.
func NewFeed[T any]() *Feed[T] {
	return &Feed[T]{
		items:  make([]T, 0, 64),
		signal: make(chan struct{}, 1),
	}
}

// OnNext appends v. Elements pushed after a terminal signal are dropped.
func (f *Feed[T]) OnNext(v T) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.ended {
		return
	}
	f.items = append(f.items, v)

	select {
	case f.signal <- struct{}{}:
	default:
	}
}

// OnError ends the feed with err. Elements already queued remain drainable.
func (f *Feed[T]) OnError(err error) {
	f.end(err)
}

// OnCompleted ends the feed normally.
func (f *Feed[T]) OnCompleted() {
	f.end(nil)
}

func (f *Feed[T]) end(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.ended {
		return
	}
	f.ended = true
	f.err = err
	close(f.signal)
}

// Drain moves every queued element to the end of dst and returns it. ended
// reports whether the feed has reached its terminal signal and has nothing
// left; err is the source error, if that signal was OnError.
func (f *Feed[T]) Drain(dst []T) (out []T, ended bool, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out = append(dst, f.items...)
	clear(f.items)
	f.items = f.items[:0]
	return out, f.ended, f.err
}

// Wait returns a channel that signals when elements may be available. It is
// closed once the feed has ended, so a select on it never blocks afterwards.
func (f *Feed[T]) Wait() <-chan struct{} {
	return f.signal
}

// Len returns the number of queued elements.
func (f *Feed[T]) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.items)
}
