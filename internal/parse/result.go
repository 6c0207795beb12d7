package parse

import (
	"slices"

	"github.com/roach88/rxparse/internal/cursor"
)

// Result states that a match consumed Length elements from the position it
// was evaluated at and produced Value.
type Result[R any] struct {
	Value  R
	Length int
}

// Success is shorthand for a Result literal.
func Success[R any](v R, length int) Result[R] {
	return Result[R]{Value: v, Length: length}
}

// Join combines two consecutive results. The length of the combined result is
// the sum of both lengths.
func Join[A, B, C any](a Result[A], b Result[B], combine func(A, B) C) Result[C] {
	return Result[C]{Value: combine(a.Value, b.Value), Length: a.Length + b.Length}
}

// Append concatenates two consecutive value sequences in encounter order.
// The inputs are never modified, so results shared between interpretations
// stay intact.
func Append[R any](a, b Result[[]R]) Result[[]R] {
	return Join(a, b, func(x, y []R) []R {
		return append(slices.Clip(x), y...)
	})
}

// Lookahead is a result whose acceptance is deferred. Its value must not be
// treated as final until Commit (or Decide(true)) is called. Whatever backs
// the speculative match stays reserved until the decision.
type Lookahead[R any] struct {
	Result[R]
	release  func()
	onCommit []func(R)
	decided  bool
}

// OnCommit registers fn to run with the value if the lookahead is committed.
func (l *Lookahead[R]) OnCommit(fn func(R)) {
	l.onCommit = append(l.onCommit, fn)
}

// Decide settles the lookahead. It may be called once.
func (l *Lookahead[R]) Decide(success bool) {
	if l.decided {
		panic(&cursor.UsageError{Op: "decide", Message: "lookahead decided twice"})
	}
	l.decided = true
	if l.release != nil {
		defer l.release()
	}
	if success {
		for _, fn := range l.onCommit {
			fn(l.Value)
		}
	}
}

// Commit accepts the speculative match.
func (l *Lookahead[R]) Commit() {
	l.Decide(true)
}

// Abort discards the speculative match.
func (l *Lookahead[R]) Abort() {
	l.Decide(false)
}

// Decided reports whether Commit or Abort has been called.
func (l *Lookahead[R]) Decided() bool {
	return l.decided
}
