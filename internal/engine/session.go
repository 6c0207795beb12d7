package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/rxparse/internal/cursor"
	"github.com/roach88/rxparse/internal/diag"
	"github.com/roach88/rxparse/internal/parse"
	"github.com/roach88/rxparse/internal/sequence"
)

// State is the lifecycle state of a session.
type State int32

const (
	StateIdle State = iota
	StateCompiling
	StateMatching
	StateAdvancing
	StateCompleted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCompiling:
		return "compiling"
	case StateMatching:
		return "matching"
	case StateAdvancing:
		return "advancing"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int32(s))
}

type session[S, R any] struct {
	d       *Driver[S, R]
	id      string
	out     sequence.Observer[Match[R]]
	results int
}

// run is one session. It owns the source subscription and the root cursor
// and releases both on every exit path.
func (d *Driver[S, R]) run(ctx context.Context, source sequence.Sequence[S], o sequence.Observer[Match[R]]) {
	if !d.active.CompareAndSwap(false, true) {
		o.OnError(&RuntimeError{
			Code:    ErrCodeReentrantParse,
			Message: "driver already has an active session",
			Grammar: d.name,
		})
		return
	}
	// The guard is released before the terminal signal, so an observer that
	// starts the next session from OnCompleted is not refused.
	released := false
	release := func() {
		if !released {
			released = true
			d.active.Store(false)
		}
	}
	defer release()

	s := &session[S, R]{d: d, id: d.ids.Generate(), out: o}
	logger := d.logger.With("grammar", d.name, "session", s.id)
	logger.Debug("session started")

	feed := cursor.NewFeed[S]()
	var opts []cursor.Option[S]
	if d.hooks != nil {
		opts = append(opts, cursor.WithObserver(func(index int, v S) {
			d.observe(diag.Event{Session: s.id, Kind: diag.KindConsume, Index: index, Value: v})
		}))
	}
	c := cursor.New(ctx, feed, opts...)
	sub := source.Subscribe(feed)

	err := s.loop(c)
	index := c.Index()
	c.Dispose()
	sub.Unsubscribe()

	d.observe(diag.Event{Session: s.id, Kind: diag.KindFinish, Index: index, Err: err})
	switch {
	case err == nil:
		d.state.Store(int32(StateCompleted))
		logger.Debug("session completed", "index", index, "results", s.results)
		release()
		o.OnCompleted()
	case ctx.Err() != nil && errors.Is(err, ctx.Err()):
		d.state.Store(int32(StateFailed))
		logger.Debug("session cancelled", "index", index)
		release()
	default:
		d.state.Store(int32(StateFailed))
		logger.Warn("session failed", "index", index, "error", err)
		release()
		o.OnError(err)
	}
}

func (s *session[S, R]) setState(st State) {
	s.d.state.Store(int32(st))
}

// loop drives the state machine until the session ends. Errors raised inside
// the grammar unwind to here.
func (s *session[S, R]) loop(c *cursor.Cursor[S]) (err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		fault, ok := cursor.AsFault(r)
		if !ok {
			panic(r)
		}
		err = s.classify(fault, c)
	}()

	s.setState(StateCompiling)
	p := s.d.grammar(parse.Next[S]())
	s.d.observe(diag.Event{Session: s.id, Kind: diag.KindCompile})

	for {
		// Nothing is matched past the end of the sequence, so a grammar that
		// accepts empty input does not produce a trailing empty result.
		if _, more := c.Peek(); !more {
			return nil
		}

		s.setState(StateMatching)
		start := c.Index()
		longest := 0
		for r := range p.Parse(c) {
			longest = max(longest, r.Length)
			s.emit(Match[R]{Value: r.Value, Index: start, Length: r.Length})
		}

		if longest > 0 {
			s.setState(StateAdvancing)
			c.Move(longest)
			continue
		}

		if s.d.strict {
			return &RuntimeError{
				Code:    ErrCodeUnmatchedInput,
				Message: "grammar does not match the remaining input",
				Session: s.id,
				Grammar: s.d.name,
				Index:   start,
			}
		}
		c.MoveToEnd()
		return nil
	}
}

func (s *session[S, R]) emit(m Match[R]) {
	s.results++
	s.d.observe(diag.Event{Session: s.id, Kind: diag.KindProduce, Index: m.Index, Length: m.Length, Value: m.Value})
	s.out.OnNext(m)
}

// classify turns a raised fault into the session's error.
func (s *session[S, R]) classify(fault error, c *cursor.Cursor[S]) error {
	re := &RuntimeError{
		Session: s.id,
		Grammar: s.d.name,
		Index:   c.Index(),
		Err:     fault,
		Message: fault.Error(),
	}

	var (
		se *cursor.SourceError
		pe *parse.Error
	)
	switch {
	case cursor.IsUsageError(fault):
		re.Code = ErrCodeUsageError
	case errors.As(fault, &se):
		re.Code = ErrCodeSourceError
		re.Message = se.Err.Error()
	case errors.As(fault, &pe):
		re.Code = ErrCodeParseError
		re.Index = pe.Index
		re.Message = pe.Err.Error()
	case errors.Is(fault, context.Canceled), errors.Is(fault, context.DeadlineExceeded):
		return fault
	default:
		re.Code = ErrCodeParseError
	}
	return re
}
