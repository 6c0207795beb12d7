package diag

import (
	"bytes"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClock_Next(t *testing.T) {
	c := NewClock()
	assert.Equal(t, int64(0), c.Current())
	assert.Equal(t, int64(1), c.Next())
	assert.Equal(t, int64(2), c.Next())
	assert.Equal(t, int64(2), c.Current())

	resumed := NewClockAt(100)
	assert.Equal(t, int64(101), resumed.Next())
}

func TestClock_ThreadSafe(t *testing.T) {
	c := NewClock()
	const goroutines = 50
	const calls = 100

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = make(map[int64]bool)
	)
	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range calls {
				seq := c.Next()
				mu.Lock()
				seen[seq] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Len(t, seen, goroutines*calls)
}

func TestMulti_FansOutInOrder(t *testing.T) {
	var order []string
	a := HookFunc(func(Event) { order = append(order, "a") })
	b := HookFunc(func(Event) { order = append(order, "b") })

	Multi(a, nil, b).Observe(Event{Kind: KindCompile})
	assert.Equal(t, []string{"a", "b"}, order)
}

func TestRecording(t *testing.T) {
	rec := NewRecording(KindProduce, KindFinish)
	rec.Observe(Event{Seq: 1, Kind: KindCompile})
	rec.Observe(Event{Seq: 2, Kind: KindProduce, Value: "x", Length: 1})
	rec.Observe(Event{Seq: 3, Kind: KindConsume})
	rec.Observe(Event{Seq: 4, Kind: KindFinish})

	events := rec.Events()
	require.Len(t, events, 2)
	assert.Equal(t, int64(2), events[0].Seq)
	assert.Equal(t, KindFinish, events[1].Kind)

	rec.Reset()
	assert.Empty(t, rec.Events())
}

func TestEvent_String(t *testing.T) {
	assert.Equal(t, "#3 produce @2+1 x", Event{Seq: 3, Kind: KindProduce, Index: 2, Length: 1, Value: "x"}.String())
	assert.Equal(t, "#1 compile", Event{Seq: 1, Kind: KindCompile}.String())
	assert.Equal(t, "#9 finish @4 error: boom", Event{Seq: 9, Kind: KindFinish, Index: 4, Err: errors.New("boom")}.String())
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	hooks := Logger(logger, false)

	hooks.Observe(Event{Seq: 1, Session: "s1", Kind: KindConsume, Value: 'a'})
	assert.Empty(t, buf.String(), "consume events skipped")

	hooks.Observe(Event{Seq: 2, Session: "s1", Grammar: "words", Kind: KindProduce, Index: 0, Length: 3, Value: "cat"})
	out := buf.String()
	assert.Contains(t, out, "msg=\"parse produce\"")
	assert.Contains(t, out, "session=s1")
	assert.Contains(t, out, "value=cat")
	assert.Contains(t, out, "length=3")
}

func TestLogger_DisabledLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
	Logger(logger, true).Observe(Event{Kind: KindProduce})
	assert.Empty(t, buf.String())
}
