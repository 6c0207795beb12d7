package parse

import (
	"iter"
	"slices"

	"github.com/roach88/rxparse/internal/cursor"
)

// Then matches p, then q where p left off, and combines both values. If p
// fails q never runs. The length of each result is the sum of both lengths.
func Then[S, A, B, C any](p Parser[S, A], q Parser[S, B], combine func(A, B) C) Parser[S, C] {
	return Bind(p, func(a A) Parser[S, C] {
		return Map(q, func(b B) C { return combine(a, b) })
	})
}

// Left matches p then q and keeps the value of p.
func Left[S, A, B any](p Parser[S, A], q Parser[S, B]) Parser[S, A] {
	return Then(p, q, func(a A, _ B) A { return a })
}

// Right matches p then q and keeps the value of q.
func Right[S, A, B any](p Parser[S, A], q Parser[S, B]) Parser[S, B] {
	return Then(p, q, func(_ A, b B) B { return b })
}

// Between matches open, p, closing and keeps the value of p.
func Between[S, O, R, C any](open Parser[S, O], p Parser[S, R], closing Parser[S, C]) Parser[S, R] {
	return Right(open, Left(p, closing))
}

// Bind matches p and continues with the parser next builds from its value.
// This is how a grammar reads a length and then that many elements.
func Bind[S, A, B any](p Parser[S, A], next func(A) Parser[S, B]) Parser[S, B] {
	return Func[S, B](func(c *cursor.Cursor[S]) iter.Seq[Result[B]] {
		return func(yield func(Result[B]) bool) {
			for a := range p.Parse(c) {
				q := next(a.Value)
				more := continueAt(c, a.Length, func(rest *cursor.Cursor[S]) bool {
					for b := range q.Parse(rest) {
						if !yield(Result[B]{Value: b.Value, Length: a.Length + b.Length}) {
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
}

// And matches every parser in order and collects their values.
func And[S, R any](ps ...Parser[S, R]) Parser[S, []R] {
	acc := Return[S]([]R(nil))
	for _, p := range ps {
		acc = Then(acc, p, func(xs []R, x R) []R {
			return append(slices.Clip(xs), x)
		})
	}
	return acc
}

// Concat matches every parser in order and concatenates their value
// sequences.
func Concat[S, R any](ps ...Parser[S, []R]) Parser[S, []R] {
	acc := Return[S]([]R(nil))
	for _, p := range ps {
		acc = Then(acc, p, func(xs, ys []R) []R {
			return append(slices.Clip(xs), ys...)
		})
	}
	return acc
}

// All requires every parser to match, one after another in the listed order.
// See AllUnordered for the order-independent form.
func All[S, R any](ps ...Parser[S, R]) Parser[S, []R] {
	return And(ps...)
}
