package sequence

import "sync"

type signalKind int

const (
	signalNext signalKind = iota + 1
	signalError
	signalCompleted
)

type signal[T any] struct {
	kind  signalKind
	value T
	err   error
}

// Subject is a manually driven, single-subscriber Sequence. Signals pushed
// before the subscriber arrives are queued and replayed to it in order, so a
// test can feed a parse whose subscription happens on another goroutine.
//
// Subscribing a second time panics.
type Subject[T any] struct {
	mu         sync.Mutex
	o          Observer[T]
	queued     []signal[T]
	terminated bool
	subscribed bool
	sub        *subscription
}

// NewSubject creates an unsubscribed Subject.
func NewSubject[T any]() *Subject[T] {
	return &Subject[T]{}
}

// Subscribe attaches o and replays any queued signals.
func (s *Subject[T]) Subscribe(o Observer[T]) Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.subscribed {
		panic("sequence: Subject supports a single subscription")
	}
	s.subscribed = true
	s.o = o
	s.sub = newSubscription(s.detach)
	for _, sig := range s.queued {
		s.deliverLocked(sig)
	}
	s.queued = nil
	return s.sub
}

// detach is the subscription's cancel func.
func (s *Subject[T]) detach() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.o = nil
	s.sub.finish()
}

// Push delivers v, or queues it if nobody has subscribed yet. Pushing after a
// terminal signal is ignored.
func (s *Subject[T]) Push(v T) {
	s.emit(signal[T]{kind: signalNext, value: v})
}

// Fail terminates the subject with err.
func (s *Subject[T]) Fail(err error) {
	s.emit(signal[T]{kind: signalError, err: err})
}

// Complete terminates the subject normally.
func (s *Subject[T]) Complete() {
	s.emit(signal[T]{kind: signalCompleted})
}

func (s *Subject[T]) emit(sig signal[T]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.terminated {
		return
	}
	if sig.kind != signalNext {
		s.terminated = true
	}
	if !s.subscribed {
		s.queued = append(s.queued, sig)
		return
	}
	s.deliverLocked(sig)
}

func (s *Subject[T]) deliverLocked(sig signal[T]) {
	if s.o == nil {
		return
	}
	switch sig.kind {
	case signalNext:
		s.o.OnNext(sig.value)
	case signalError:
		s.o.OnError(sig.err)
		s.sub.finish()
	case signalCompleted:
		s.o.OnCompleted()
		s.sub.finish()
	}
}
