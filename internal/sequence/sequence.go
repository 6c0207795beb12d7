package sequence

import (
	"context"
	"sync"
)

// Observer receives the signals of a Sequence.
type Observer[T any] interface {
	OnNext(v T)
	OnError(err error)
	OnCompleted()
}

// Sequence is a forward-only push source.
type Sequence[T any] interface {
	Subscribe(o Observer[T]) Subscription
}

// Subscription is the handle returned by Subscribe.
//
// Unsubscribe is idempotent and safe from any goroutine. Done is closed once the
// producer has stopped delivering, whether it finished or was unsubscribed.
type Subscription interface {
	Unsubscribe()
	Done() <-chan struct{}
}

// Funcs adapts plain functions to an Observer. Nil fields are ignored.
type Funcs[T any] struct {
	Next      func(T)
	Error     func(error)
	Completed func()
}

func (f Funcs[T]) OnNext(v T) {
	if f.Next != nil {
		f.Next(v)
	}
}

func (f Funcs[T]) OnError(err error) {
	if f.Error != nil {
		f.Error(err)
	}
}

func (f Funcs[T]) OnCompleted() {
	if f.Completed != nil {
		f.Completed()
	}
}

// SequenceFunc adapts a function to a Sequence.
type SequenceFunc[T any] func(o Observer[T]) Subscription

func (f SequenceFunc[T]) Subscribe(o Observer[T]) Subscription {
	return f(o)
}

// subscription is a cancel func plus a done channel.
type subscription struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

func newSubscription(cancel context.CancelFunc) *subscription {
	return &subscription{cancel: cancel, done: make(chan struct{})}
}

func (s *subscription) Unsubscribe() {
	if s.cancel != nil {
		s.cancel()
	}
}

func (s *subscription) Done() <-chan struct{} {
	return s.done
}

func (s *subscription) finish() {
	s.once.Do(func() { close(s.done) })
}

// Create returns a Sequence whose producer runs produce in its own goroutine
// each time it is subscribed. The context passed to produce is cancelled by
// Unsubscribe; produce is expected to return promptly once it is.
//
// Signals emitted after cancellation are dropped, so an unsubscribed observer
// never sees a late OnNext.
func Create[T any](produce func(ctx context.Context, o Observer[T])) Sequence[T] {
	return SequenceFunc[T](func(o Observer[T]) Subscription {
		ctx, cancel := context.WithCancel(context.Background())
		sub := newSubscription(cancel)
		guarded := &guard[T]{ctx: ctx, o: o}
		go func() {
			defer sub.finish()
			defer cancel()
			produce(ctx, guarded)
		}()
		return sub
	})
}

// guard drops signals once its context is cancelled or a terminal signal has
// been delivered.
type guard[T any] struct {
	ctx  context.Context
	o    Observer[T]
	mu   sync.Mutex
	done bool
}

func (g *guard[T]) live() bool {
	return !g.done && g.ctx.Err() == nil
}

func (g *guard[T]) OnNext(v T) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.live() {
		g.o.OnNext(v)
	}
}

func (g *guard[T]) OnError(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.live() {
		g.done = true
		g.o.OnError(err)
	}
}

func (g *guard[T]) OnCompleted() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.live() {
		g.done = true
		g.o.OnCompleted()
	}
}
