package sequence

import (
	"bufio"
	"context"
	"errors"
	"io"
	"sync"
	"time"
)

// FromSlice pushes every element of items synchronously during Subscribe, then
// completes. The returned subscription is already done.
func FromSlice[T any](items []T) Sequence[T] {
	return SequenceFunc[T](func(o Observer[T]) Subscription {
		for _, v := range items {
			o.OnNext(v)
		}
		o.OnCompleted()
		sub := newSubscription(func() {})
		sub.finish()
		return sub
	})
}

// FromString pushes the runes of s.
func FromString(s string) Sequence[rune] {
	return FromSlice([]rune(s))
}

// FromReader pushes the bytes read from r from a producer goroutine. Read
// errors other than io.EOF are delivered through OnError.
func FromReader(r io.Reader) Sequence[byte] {
	return Create(func(ctx context.Context, o Observer[byte]) {
		buf := make([]byte, 4096)
		for ctx.Err() == nil {
			n, err := r.Read(buf)
			for _, b := range buf[:n] {
				o.OnNext(b)
			}
			if errors.Is(err, io.EOF) {
				o.OnCompleted()
				return
			}
			if err != nil {
				o.OnError(err)
				return
			}
		}
	})
}

// FromRuneReader pushes the runes of UTF-8 text read from r. Invalid encodings
// surface as utf8.RuneError, as bufio.Reader reports them.
func FromRuneReader(r io.Reader) Sequence[rune] {
	return Create(func(ctx context.Context, o Observer[rune]) {
		br := bufio.NewReader(r)
		for ctx.Err() == nil {
			ch, _, err := br.ReadRune()
			if errors.Is(err, io.EOF) {
				o.OnCompleted()
				return
			}
			if err != nil {
				o.OnError(err)
				return
			}
			o.OnNext(ch)
		}
	})
}

// Paced pushes one element of items per tick of interval from a producer
// goroutine, then completes.
func Paced[T any](interval time.Duration, items []T) Sequence[T] {
	return Create(func(ctx context.Context, o Observer[T]) {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for _, v := range items {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			o.OnNext(v)
		}
		o.OnCompleted()
	})
}

// FromChannel pushes values received from ch until it is closed.
func FromChannel[T any](ch <-chan T) Sequence[T] {
	return Create(func(ctx context.Context, o Observer[T]) {
		for {
			select {
			case <-ctx.Done():
				return
			case v, ok := <-ch:
				if !ok {
					o.OnCompleted()
					return
				}
				o.OnNext(v)
			}
		}
	})
}

// Collect subscribes to seq and gathers every element until it completes,
// fails, or ctx is done.
func Collect[T any](ctx context.Context, seq Sequence[T]) ([]T, error) {
	var (
		mu    sync.Mutex
		items []T
		err   error
	)
	done := make(chan struct{})
	var once sync.Once
	finish := func() { once.Do(func() { close(done) }) }

	sub := seq.Subscribe(Funcs[T]{
		Next: func(v T) {
			mu.Lock()
			items = append(items, v)
			mu.Unlock()
		},
		Error: func(e error) {
			mu.Lock()
			err = e
			mu.Unlock()
			finish()
		},
		Completed: finish,
	})

	select {
	case <-done:
	case <-ctx.Done():
		sub.Unsubscribe()
		return nil, ctx.Err()
	}

	mu.Lock()
	defer mu.Unlock()
	return items, err
}
