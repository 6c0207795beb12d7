package sequence

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromSlice(t *testing.T) {
	got, err := Collect(context.Background(), FromSlice([]int{1, 2, 3}))
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, got)
}

func TestFromString(t *testing.T) {
	got, err := Collect(context.Background(), FromString("héllo"))
	require.NoError(t, err)
	assert.Equal(t, []rune("héllo"), got)
}

func TestFromReader(t *testing.T) {
	got, err := Collect(context.Background(), FromReader(strings.NewReader("abc")))
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), got)
}

type failingReader struct{ err error }

func (r failingReader) Read([]byte) (int, error) { return 0, r.err }

func TestFromReader_Error(t *testing.T) {
	boom := errors.New("disk gone")
	_, err := Collect(context.Background(), FromReader(failingReader{err: boom}))
	assert.ErrorIs(t, err, boom)
}

func TestFromRuneReader(t *testing.T) {
	got, err := Collect(context.Background(), FromRuneReader(strings.NewReader("añb")))
	require.NoError(t, err)
	assert.Equal(t, []rune("añb"), got)
}

func TestPaced(t *testing.T) {
	start := time.Now()
	got, err := Collect(context.Background(), Paced(2*time.Millisecond, []int{1, 2, 3}))
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, got)
	assert.GreaterOrEqual(t, time.Since(start), 6*time.Millisecond)
}

func TestFromChannel(t *testing.T) {
	ch := make(chan string, 2)
	ch <- "a"
	ch <- "b"
	close(ch)
	got, err := Collect(context.Background(), FromChannel(ch))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestCreate_UnsubscribeStopsDelivery(t *testing.T) {
	started := make(chan struct{})
	stopped := make(chan struct{})
	seq := Create(func(ctx context.Context, o Observer[int]) {
		close(started)
		<-ctx.Done()
		o.OnNext(1)
		close(stopped)
	})

	var got []int
	sub := seq.Subscribe(Funcs[int]{Next: func(v int) { got = append(got, v) }})
	<-started
	sub.Unsubscribe()
	<-stopped

	select {
	case <-sub.Done():
	case <-time.After(time.Second):
		t.Fatal("subscription not done after producer returned")
	}
	assert.Empty(t, got, "signals after cancellation are dropped")
}

func TestCreate_SingleTerminalSignal(t *testing.T) {
	seq := Create(func(ctx context.Context, o Observer[int]) {
		o.OnCompleted()
		o.OnError(errors.New("late"))
		o.OnNext(9)
	})
	got, err := Collect(context.Background(), seq)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCollect_ContextDone(t *testing.T) {
	seq := Create(func(ctx context.Context, o Observer[int]) {
		<-ctx.Done()
	})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := Collect(ctx, seq)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSubject_ReplaysQueuedSignals(t *testing.T) {
	s := NewSubject[int]()
	s.Push(1)
	s.Push(2)

	var got []int
	completed := false
	sub := s.Subscribe(Funcs[int]{
		Next:      func(v int) { got = append(got, v) },
		Completed: func() { completed = true },
	})
	s.Push(3)
	s.Complete()
	s.Push(4)

	assert.Equal(t, []int{1, 2, 3}, got)
	assert.True(t, completed)
	select {
	case <-sub.Done():
	default:
		t.Fatal("subscription should be done after completion")
	}
}

func TestSubject_Fail(t *testing.T) {
	s := NewSubject[int]()
	boom := errors.New("boom")
	s.Fail(boom)
	_, err := Collect(context.Background(), Sequence[int](s))
	assert.ErrorIs(t, err, boom)
}

func TestSubject_Unsubscribe(t *testing.T) {
	s := NewSubject[int]()
	var got []int
	sub := s.Subscribe(Funcs[int]{Next: func(v int) { got = append(got, v) }})
	s.Push(1)
	sub.Unsubscribe()
	s.Push(2)
	assert.Equal(t, []int{1}, got)
}

func TestSubject_SecondSubscribePanics(t *testing.T) {
	s := NewSubject[int]()
	s.Subscribe(Funcs[int]{})
	assert.Panics(t, func() { s.Subscribe(Funcs[int]{}) })
}
