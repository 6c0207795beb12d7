package cursor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestCursor creates a root cursor over a feed already holding items and
// completed.
func newTestCursor[T any](t *testing.T, items ...T) *Cursor[T] {
	t.Helper()
	f := NewFeed[T]()
	for _, v := range items {
		f.OnNext(v)
	}
	f.OnCompleted()
	c := New(context.Background(), f)
	t.Cleanup(func() {
		if !c.disposed {
			c.Dispose()
		}
	})
	return c
}

func TestCursor_PeekAndMove(t *testing.T) {
	c := newTestCursor(t, 1, 2, 3)

	v, ok := c.Peek()
	require.True(t, ok)
	assert.Equal(t, 1, v)

	c.Move(2)
	assert.Equal(t, 2, c.Index())
	v, ok = c.Peek()
	require.True(t, ok)
	assert.Equal(t, 3, v)

	c.Move(1)
	_, ok = c.Peek()
	assert.False(t, ok)
	assert.True(t, c.AtEndOfSequence())
	assert.True(t, c.IsSequenceTerminated())
	assert.Equal(t, 2, c.LatestIndex())
}

func TestCursor_AtEndRequiresTermination(t *testing.T) {
	f := NewFeed[int]()
	f.OnNext(1)
	c := New(context.Background(), f)
	defer c.Dispose()

	c.Move(1)
	assert.False(t, c.AtEndOfSequence(), "sequence not terminated yet")

	f.OnCompleted()
	_, ok := c.Peek()
	assert.False(t, ok)
	assert.True(t, c.AtEndOfSequence())
}

func TestCursor_MoveBackwardPanics(t *testing.T) {
	c := newTestCursor(t, 1, 2)

	assert.PanicsWithError(t, "cursor: move: cannot move backward by 1", func() {
		c.Move(-1)
	})
}

func TestCursor_MovePastEndPanics(t *testing.T) {
	c := newTestCursor(t, 1, 2)

	defer func() {
		r := recover()
		require.NotNil(t, r)
		err, ok := AsFault(r)
		require.True(t, ok)
		assert.True(t, IsUsageError(err))
	}()
	c.Move(3)
}

func TestCursor_BranchIsolation(t *testing.T) {
	c := newTestCursor(t, 'a', 'b', 'c', 'd')

	b1 := c.Branch()
	b2 := c.Branch()
	assert.Equal(t, 2, c.Branches())

	b1.Move(3)
	assert.Equal(t, 0, c.Index(), "parent must not move")
	assert.Equal(t, 0, b2.Index(), "sibling must not move")
	assert.Equal(t, 3, b1.Index())

	v, ok := b2.Peek()
	require.True(t, ok)
	assert.Equal(t, 'a', v)

	b1.Dispose()
	b2.Dispose()
	assert.Equal(t, 0, c.Branches())
}

func TestCursor_Remainder(t *testing.T) {
	c := newTestCursor(t, 10, 20, 30)

	r := c.Remainder(2)
	defer r.Dispose()

	assert.Equal(t, 2, r.Index())
	assert.Equal(t, 0, c.Index())
	v, ok := r.Peek()
	require.True(t, ok)
	assert.Equal(t, 30, v)
}

func TestCursor_IdempotentBuffering(t *testing.T) {
	c := newTestCursor(t, 'x', 'y', 'z')

	read := func() []rune {
		b := c.Branch()
		defer b.Dispose()
		var out []rune
		for {
			v, ok := b.Peek()
			if !ok {
				return out
			}
			out = append(out, v)
			b.Move(1)
		}
	}

	assert.Equal(t, read(), read())
	assert.Equal(t, []rune{'x', 'y', 'z'}, read())
}

func TestCursor_DisposeTwicePanics(t *testing.T) {
	c := newTestCursor(t, 1)

	b := c.Branch()
	b.Dispose()
	assert.Panics(t, func() { b.Dispose() })
	assert.Panics(t, func() { b.Peek() }, "disposed cursor must not be read")
}

func TestCursor_DisposeCascades(t *testing.T) {
	c := newTestCursor(t, 1, 2, 3)

	b := c.Branch()
	child := b.Branch()
	b.Dispose()

	assert.True(t, child.disposed)
	assert.NotPanics(t, func() { child.Dispose() }, "orphaned branch dispose is a no-op")
}

func TestCursor_TrimsBelowLowestPin(t *testing.T) {
	c := newTestCursor(t, 1, 2, 3, 4, 5)

	// Pull everything into the buffer.
	b := c.Remainder(4)
	assert.Equal(t, 5, c.Buffered())

	c.Move(3)
	assert.Equal(t, 2, c.Buffered(), "elements below the root are released")

	v, ok := b.Peek()
	require.True(t, ok)
	assert.Equal(t, 5, v)
	b.Dispose()
	assert.Equal(t, 2, c.Buffered(), "root still pins index 3")
}

func TestCursor_BranchPinsHistory(t *testing.T) {
	c := newTestCursor(t, 1, 2, 3, 4)

	keep := c.Branch()
	c.Move(4)
	assert.Equal(t, 4, c.Buffered(), "the branch at 0 keeps everything alive")

	v, ok := keep.Peek()
	require.True(t, ok)
	assert.Equal(t, 1, v)

	keep.Dispose()
	assert.Equal(t, 0, c.Buffered())
}

func TestCursor_WaitsForSource(t *testing.T) {
	f := NewFeed[int]()
	c := New(context.Background(), f)
	defer c.Dispose()

	go func() {
		time.Sleep(10 * time.Millisecond)
		f.OnNext(42)
	}()

	v, ok := c.Peek()
	require.True(t, ok)
	assert.Equal(t, 42, v)
}

func TestCursor_SourceErrorIsRaised(t *testing.T) {
	f := NewFeed[int]()
	f.OnNext(1)
	boom := errors.New("boom")
	f.OnError(boom)
	c := New(context.Background(), f)
	defer c.Dispose()

	var err error
	func() {
		defer Recover(&err)
		c.Move(1)
		c.Peek()
	}()

	require.Error(t, err)
	var se *SourceError
	require.True(t, errors.As(err, &se))
	assert.ErrorIs(t, err, boom)
}

func TestCursor_CancellationIsRaised(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	f := NewFeed[int]()
	c := New(ctx, f)
	defer c.Dispose()

	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	var err error
	func() {
		defer Recover(&err)
		c.Peek()
	}()
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCursor_MoveToEnd(t *testing.T) {
	c := newTestCursor(t, 1, 2, 3)

	c.MoveToEnd()
	assert.True(t, c.AtEndOfSequence())
	assert.Equal(t, 3, c.Index())
	assert.Equal(t, 0, c.Buffered())
}

func TestCursor_ObserverSeesEachElementOnce(t *testing.T) {
	f := NewFeed[string]()
	for _, s := range []string{"a", "b", "c"} {
		f.OnNext(s)
	}
	f.OnCompleted()

	var seen []string
	c := New(context.Background(), f, WithObserver(func(i int, v string) {
		seen = append(seen, v)
	}))
	defer c.Dispose()

	b1 := c.Remainder(3)
	b2 := c.Remainder(3)
	b1.Dispose()
	b2.Dispose()

	assert.Equal(t, []string{"a", "b", "c"}, seen)
}

func TestCursor_Attributes(t *testing.T) {
	c := newTestCursor[int](t)

	assert.True(t, c.IsForwardOnly())
	assert.True(t, c.IsSynchronized())
	assert.Equal(t, -1, c.LatestIndex())
	assert.False(t, c.Ambiguous())

	c.SetAmbiguous(true)
	b := c.Branch()
	defer b.Dispose()
	assert.True(t, b.Ambiguous(), "branches inherit the evaluation mode")
}
