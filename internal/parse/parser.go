package parse

import (
	"fmt"
	"iter"

	"github.com/roach88/rxparse/internal/cursor"
)

// Parser is the unit of composition.
//
// Parse evaluates the parser at the position of c and returns the accepted
// interpretations. The sequence is lazy: nothing is read until it is ranged
// over. No result means no match. More than one result only happens under
// ambiguous evaluation.
//
// A parser reads through c (and branches of it) but never moves c itself. The
// caller decides how far to advance from the Length of the result it keeps.
type Parser[S, R any] interface {
	Parse(c *cursor.Cursor[S]) iter.Seq[Result[R]]
}

// Func adapts a function to a Parser.
type Func[S, R any] func(c *cursor.Cursor[S]) iter.Seq[Result[R]]

func (f Func[S, R]) Parse(c *cursor.Cursor[S]) iter.Seq[Result[R]] {
	return f(c)
}

// Next matches exactly one element. It fails only at the end of the sequence.
func Next[S any]() Parser[S, S] {
	return Func[S, S](func(c *cursor.Cursor[S]) iter.Seq[Result[S]] {
		return func(yield func(Result[S]) bool) {
			if v, ok := c.Peek(); ok {
				yield(Success(v, 1))
			}
		}
	})
}

// Return matches without consuming anything and produces v.
func Return[S, R any](v R) Parser[S, R] {
	return Func[S, R](func(*cursor.Cursor[S]) iter.Seq[Result[R]] {
		return func(yield func(Result[R]) bool) {
			yield(Result[R]{Value: v})
		}
	})
}

// Empty never matches.
func Empty[S, R any]() Parser[S, R] {
	return Func[S, R](func(*cursor.Cursor[S]) iter.Seq[Result[R]] {
		return func(func(Result[R]) bool) {}
	})
}

// Fail raises err as a parse error when evaluated.
func Fail[S, R any](err error) Parser[S, R] {
	return Func[S, R](func(c *cursor.Cursor[S]) iter.Seq[Result[R]] {
		return func(func(Result[R]) bool) {
			Raise(c, err)
		}
	})
}

// Failf is Fail with a formatted error.
func Failf[S, R any](format string, args ...any) Parser[S, R] {
	return Fail[S, R](fmt.Errorf(format, args...))
}

// Where keeps only the results whose value satisfies pred.
func Where[S, R any](p Parser[S, R], pred func(R) bool) Parser[S, R] {
	return Func[S, R](func(c *cursor.Cursor[S]) iter.Seq[Result[R]] {
		return func(yield func(Result[R]) bool) {
			for r := range p.Parse(c) {
				if pred(r.Value) && !yield(r) {
					return
				}
			}
		}
	})
}

// Map transforms the value of every result.
func Map[S, A, B any](p Parser[S, A], f func(A) B) Parser[S, B] {
	return Func[S, B](func(c *cursor.Cursor[S]) iter.Seq[Result[B]] {
		return func(yield func(Result[B]) bool) {
			for r := range p.Parse(c) {
				if !yield(Result[B]{Value: f(r.Value), Length: r.Length}) {
					return
				}
			}
		}
	})
}

// Convert transforms the value of every result with a function that may
// reject it. A rejection is raised as a parse error at the match position,
// not treated as a failed match.
func Convert[S, A, B any](p Parser[S, A], f func(A) (B, error)) Parser[S, B] {
	return Func[S, B](func(c *cursor.Cursor[S]) iter.Seq[Result[B]] {
		return func(yield func(Result[B]) bool) {
			for r := range p.Parse(c) {
				v, err := f(r.Value)
				if err != nil {
					Raise(c, err)
				}
				if !yield(Result[B]{Value: v, Length: r.Length}) {
					return
				}
			}
		}
	})
}

// continueAt evaluates fn against a branch positioned skip elements past c
// and disposes that branch on every exit path.
func continueAt[S any](c *cursor.Cursor[S], skip int, fn func(rest *cursor.Cursor[S]) bool) bool {
	rest := c.Remainder(skip)
	defer rest.Dispose()
	return fn(rest)
}
