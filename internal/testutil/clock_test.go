package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/rxparse/internal/diag"
)

var _ diag.Sequencer = (*Clock)(nil)

func TestClock_Next(t *testing.T) {
	c := NewClock()
	assert.Equal(t, int64(0), c.Last())
	assert.Equal(t, int64(1), c.Next())
	assert.Equal(t, int64(2), c.Next())
	assert.Equal(t, int64(2), c.Last())
}

func TestClock_From(t *testing.T) {
	c := NewClockFrom(40)
	assert.Equal(t, int64(41), c.Next())

	c.Rewind()
	assert.Equal(t, int64(40), c.Last())
	assert.Equal(t, int64(41), c.Next())
}

func TestClock_RewindReplaysSequence(t *testing.T) {
	c := NewClock()
	var first []int64
	for range 5 {
		first = append(first, c.Next())
	}

	c.Rewind()
	var second []int64
	for range 5 {
		second = append(second, c.Next())
	}
	assert.Equal(t, first, second)
}

func TestClock_Concurrent(t *testing.T) {
	c := NewClock()
	const workers, calls = 50, 100

	var (
		mu   sync.Mutex
		seen = make(map[int64]bool)
		wg   sync.WaitGroup
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range calls {
				v := c.Next()
				mu.Lock()
				seen[v] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, workers*calls)
	assert.Equal(t, int64(workers*calls), c.Last())
}
