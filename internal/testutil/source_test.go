package testutil

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rxparse/internal/sequence"
)

func TestCursor_Completed(t *testing.T) {
	c := Cursor(t, 'a', 'b')
	v, ok := c.Peek()
	require.True(t, ok)
	assert.Equal(t, 'a', v)
	c.Move(2)
	assert.True(t, c.AtEndOfSequence())
}

func TestTicking_DeliversInOrder(t *testing.T) {
	got, err := sequence.Collect(context.Background(), Ticking(time.Millisecond, 1, 2, 3))
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, got)
}

func TestFailing(t *testing.T) {
	boom := errors.New("boom")
	var got []int
	var gotErr error
	done := make(chan struct{})
	Failing(boom, 1, 2).Subscribe(sequence.Funcs[int]{
		Next:  func(v int) { got = append(got, v) },
		Error: func(err error) { gotErr = err; close(done) },
	})
	<-done
	assert.Equal(t, []int{1, 2}, got)
	assert.ErrorIs(t, gotErr, boom)
}
