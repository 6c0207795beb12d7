package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/roach88/rxparse/internal/cursor"
	"github.com/roach88/rxparse/internal/sequence"
)

// Cursor returns a root cursor over a completed feed holding items. The
// cursor is disposed when the test ends.
func Cursor[T any](t testing.TB, items ...T) *cursor.Cursor[T] {
	t.Helper()
	f := cursor.NewFeed[T]()
	for _, v := range items {
		f.OnNext(v)
	}
	f.OnCompleted()
	c := cursor.New(context.Background(), f)
	t.Cleanup(c.Dispose)
	return c
}

// Ticking pushes one element of items per tick of interval from a producer
// goroutine, then completes. It models a source that delivers slower than the
// parse consumes, so every read past the buffer has to wait.
func Ticking[T any](interval time.Duration, items ...T) sequence.Sequence[T] {
	return sequence.Paced(interval, items)
}

// Failing pushes items and then fails with err.
func Failing[T any](err error, items ...T) sequence.Sequence[T] {
	return sequence.Create(func(ctx context.Context, o sequence.Observer[T]) {
		for _, v := range items {
			o.OnNext(v)
		}
		o.OnError(err)
	})
}
