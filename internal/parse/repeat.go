package parse

import (
	"fmt"
	"iter"
	"slices"

	"github.com/roach88/rxparse/internal/cursor"
)

// Exactly matches p n times in a row. Zero repetitions match without
// consuming anything.
func Exactly[S, R any](n int, p Parser[S, R]) Parser[S, []R] {
	if n < 0 {
		panic(&cursor.UsageError{Op: "exactly", Message: fmt.Sprintf("negative count %d", n)})
	}
	every := Lazy(func() Parser[S, []R] {
		return And(slices.Repeat([]Parser[S, R]{p}, n)...)
	})
	return Func[S, []R](func(c *cursor.Cursor[S]) iter.Seq[Result[[]R]] {
		if c.Ambiguous() {
			return every.Parse(c)
		}
		return func(yield func(Result[[]R]) bool) {
			if r, ok := repeat(c, p, n, n); ok {
				yield(r)
			}
		}
	})
}

// OneOrMore matches p as many times as it will match, at least once. It is
// greedy: the longest run is produced first, and under ordinary evaluation
// it is the only one. Under ambiguous evaluation every shorter run follows.
//
// A repetition of p that consumes nothing ends the run.
func OneOrMore[S, R any](p Parser[S, R]) Parser[S, []R] {
	var self Parser[S, []R]
	self = Func[S, []R](func(c *cursor.Cursor[S]) iter.Seq[Result[[]R]] {
		return func(yield func(Result[[]R]) bool) {
			if !c.Ambiguous() {
				if r, ok := repeat(c, p, 1, -1); ok {
					yield(r)
				}
				return
			}
			for head := range p.Parse(c) {
				single := Result[[]R]{Value: []R{head.Value}, Length: head.Length}
				if head.Length == 0 {
					if !yield(single) {
						return
					}
					continue
				}
				tails := Any(self, Return[S]([]R(nil)))
				more := continueAt(c, head.Length, func(rest *cursor.Cursor[S]) bool {
					for tail := range tails.Parse(rest) {
						if !yield(Append(single, tail)) {
							return false
						}
					}
					return true
				})
				if !more {
					return
				}
			}
		}
	})
	return self
}

// NoneOrMore is OneOrMore that also matches zero repetitions, producing an
// empty slice.
func NoneOrMore[S, R any](p Parser[S, R]) Parser[S, []R] {
	return Any(OneOrMore(p), Return[S]([]R{}))
}

// SeparatedBy matches one or more p separated by sep and keeps the values of
// p.
func SeparatedBy[S, R, X any](p Parser[S, R], sep Parser[S, X]) Parser[S, []R] {
	return Then(p, NoneOrMore(Right(sep, p)), func(x R, xs []R) []R {
		return append([]R{x}, xs...)
	})
}

// repeat matches p up to most times (no limit when most is negative) by
// walking a single branch forward, keeping the first interpretation of each
// repetition. It reports whether at least least repetitions matched.
func repeat[S, R any](c *cursor.Cursor[S], p Parser[S, R], least, most int) (Result[[]R], bool) {
	pos := c.Branch()
	defer pos.Dispose()
	out := Result[[]R]{Value: []R{}}
	for most < 0 || len(out.Value) < most {
		r, ok := first(p.Parse(pos))
		if !ok {
			break
		}
		out.Value = append(out.Value, r.Value)
		out.Length += r.Length
		if r.Length == 0 {
			if most < 0 {
				break
			}
			continue
		}
		pos.Move(r.Length)
	}
	return out, len(out.Value) >= least
}

func first[R any](seq iter.Seq[R]) (R, bool) {
	for v := range seq {
		return v, true
	}
	var zero R
	return zero, false
}
