package engine

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/roach88/rxparse/internal/diag"
	"github.com/roach88/rxparse/internal/parse"
	"github.com/roach88/rxparse/internal/sequence"
)

// Grammar builds the parser a session runs. It receives the parser that
// matches one source element and is called once per session, before the
// first element is read.
type Grammar[S, R any] func(next parse.Parser[S, S]) parse.Parser[S, R]

// Match is one result of a session together with where it was found.
type Match[R any] struct {
	Value R

	// Index is the source position the match starts at.
	Index int

	// Length is the number of source elements the match consumed.
	Length int
}

// DefaultName is the grammar name used when WithName is not given.
const DefaultName = "grammar"

type settings struct {
	name   string
	hooks  diag.Hooks
	clock  diag.Sequencer
	logger *slog.Logger
	ids    SessionIDGenerator
	strict bool
}

// Option configures a Driver.
type Option func(*settings)

// WithName names the grammar in logs, errors and trace events.
func WithName(name string) Option {
	return func(s *settings) {
		s.name = name
	}
}

// WithHooks attaches diagnostics hooks.
func WithHooks(hooks diag.Hooks) Option {
	return func(s *settings) {
		s.hooks = hooks
	}
}

// WithClock sets the clock that stamps trace events.
//
// Default: a fresh diag.Clock per driver.
func WithClock(clock diag.Sequencer) Option {
	return func(s *settings) {
		s.clock = clock
	}
}

// WithLogger sets the logger for session lifecycle messages.
//
// Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		s.logger = logger
	}
}

// WithSessionIDs sets the session ID generator.
//
// Default: UUIDv7Generator.
func WithSessionIDs(ids SessionIDGenerator) Option {
	return func(s *settings) {
		s.ids = ids
	}
}

// WithStrict makes a session fail with UNMATCHED_INPUT when the grammar stops
// matching before the input ends. Without it the rest of the input is
// skipped and the session completes.
func WithStrict(strict bool) Option {
	return func(s *settings) {
		s.strict = strict
	}
}

// Driver runs a grammar over push sequences.
//
// Each subscription to Parse or Matches is one session. The session builds
// the grammar, then repeatedly matches it at the current position, emits
// every result and advances by the longest one, until the grammar stops
// matching or the input ends.
//
// Thread-safety model:
//   - Parse(), Matches(), Collect(): safe from any goroutine
//   - At most one session is active per driver; a second concurrent
//     session fails with REENTRANT_PARSE
//   - Each session runs in its own goroutine, so observers of the result
//     sequence are called from that goroutine
type Driver[S, R any] struct {
	settings
	grammar Grammar[S, R]
	active  atomic.Bool
	state   atomic.Int32
}

// New creates a Driver for grammar.
func New[S, R any](grammar Grammar[S, R], opts ...Option) *Driver[S, R] {
	d := &Driver[S, R]{
		settings: settings{
			name:   DefaultName,
			clock:  diag.NewClock(),
			logger: slog.Default(),
			ids:    UUIDv7Generator{},
		},
		grammar: grammar,
	}
	for _, opt := range opts {
		opt(&d.settings)
	}
	return d
}

// Name returns the grammar name.
func (d *Driver[S, R]) Name() string {
	return d.name
}

// State returns the state of the current or most recent session.
func (d *Driver[S, R]) State() State {
	return State(d.state.Load())
}

// Matches parses source and emits every match with its position.
//
// The session starts when the returned sequence is subscribed to. Its
// subscription is released when the session ends; unsubscribing cancels the
// session, which releases the source subscription and every buffered element
// without emitting anything further.
func (d *Driver[S, R]) Matches(source sequence.Sequence[S]) sequence.Sequence[Match[R]] {
	return sequence.Create(func(ctx context.Context, o sequence.Observer[Match[R]]) {
		d.run(ctx, source, o)
	})
}

// Parse parses source and emits every match's value.
func (d *Driver[S, R]) Parse(source sequence.Sequence[S]) sequence.Sequence[R] {
	matches := d.Matches(source)
	return sequence.SequenceFunc[R](func(o sequence.Observer[R]) sequence.Subscription {
		return matches.Subscribe(sequence.Funcs[Match[R]]{
			Next:      func(m Match[R]) { o.OnNext(m.Value) },
			Error:     o.OnError,
			Completed: o.OnCompleted,
		})
	})
}

// Collect parses source to completion and returns every value.
func (d *Driver[S, R]) Collect(ctx context.Context, source sequence.Sequence[S]) ([]R, error) {
	return sequence.Collect(ctx, d.Parse(source))
}

// observe stamps ev and hands it to the hooks. A panicking hook is logged
// and otherwise ignored.
func (d *Driver[S, R]) observe(ev diag.Event) {
	if d.hooks == nil {
		return
	}
	ev.Seq = d.clock.Next()
	ev.Grammar = d.name
	defer func() {
		if r := recover(); r != nil {
			d.logger.Warn("diagnostics hook panicked",
				"grammar", d.name,
				"session", ev.Session,
				"kind", ev.Kind,
				"panic", r,
			)
		}
	}()
	d.hooks.Observe(ev)
}
