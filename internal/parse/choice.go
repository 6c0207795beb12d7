package parse

import (
	"iter"

	"github.com/roach88/rxparse/internal/cursor"
)

// Choice is ordered alternation. Each alternative is tried against its own
// branch; the first one that produces a result wins and the rest are never
// attempted. Under ambiguous evaluation every alternative is tried and every
// result is yielded, in candidate order.
//
// A Choice keeps no state between evaluations, so one instance may be nested
// inside its own alternatives or evaluated again while a previous evaluation
// is suspended.
type Choice[S, R any] struct {
	alts []Parser[S, R]
}

// Any builds an ordered alternation.
func Any[S, R any](alts ...Parser[S, R]) *Choice[S, R] {
	return &Choice[S, R]{alts: alts}
}

// Len is the number of alternatives.
func (ch *Choice[S, R]) Len() int {
	return len(ch.alts)
}

func (ch *Choice[S, R]) Parse(c *cursor.Cursor[S]) iter.Seq[Result[R]] {
	return func(yield func(Result[R]) bool) {
		for r := range ch.Select(c, nil) {
			if !yield(r) {
				return
			}
		}
	}
}

// Select evaluates the alternation and pairs each result with the index of
// the alternative that produced it. Alternatives whose index is set in except
// are skipped.
func (ch *Choice[S, R]) Select(c *cursor.Cursor[S], except map[int]bool) iter.Seq2[Result[R], int] {
	return func(yield func(Result[R], int) bool) {
		for i, alt := range ch.alts {
			if except[i] {
				continue
			}
			matched, more := attempt(c, alt, func(r Result[R]) bool {
				return yield(r, i)
			})
			if !more {
				return
			}
			if matched && !c.Ambiguous() {
				return
			}
		}
	}
}

// attempt evaluates p on a private branch of c, passing every result to emit.
func attempt[S, R any](c *cursor.Cursor[S], p Parser[S, R], emit func(Result[R]) bool) (matched, more bool) {
	b := c.Branch()
	defer b.Dispose()
	for r := range p.Parse(b) {
		matched = true
		if !emit(r) {
			return true, false
		}
	}
	return matched, true
}

// Maybe matches p, or nothing and produces fallback.
func Maybe[S, R any](p Parser[S, R], fallback R) Parser[S, R] {
	return Any(p, Return[S](fallback))
}

// Probe speculatively evaluates p at the position of c and returns its first
// result as a Lookahead. The branch the match was read from stays open, and
// the elements it covers stay buffered, until the lookahead is decided.
func Probe[S, R any](c *cursor.Cursor[S], p Parser[S, R]) (*Lookahead[R], bool) {
	b := c.Branch()
	owned := false
	defer func() {
		if !owned {
			b.Dispose()
		}
	}()
	for r := range p.Parse(b) {
		owned = true
		return &Lookahead[R]{Result: r, release: b.Dispose}, true
	}
	return nil, false
}

// Not succeeds without consuming anything when p does not match at the
// current position, and fails when it does.
func Not[S, R any](p Parser[S, R]) Parser[S, struct{}] {
	return Func[S, struct{}](func(c *cursor.Cursor[S]) iter.Seq[Result[struct{}]] {
		return func(yield func(Result[struct{}]) bool) {
			if la, ok := Probe(c, p); ok {
				la.Abort()
				return
			}
			yield(Result[struct{}]{})
		}
	})
}

// Ahead succeeds without consuming anything when p matches at the current
// position, producing p's value.
func Ahead[S, R any](p Parser[S, R]) Parser[S, R] {
	return Func[S, R](func(c *cursor.Cursor[S]) iter.Seq[Result[R]] {
		return func(yield func(Result[R]) bool) {
			la, ok := Probe(c, p)
			if !ok {
				return
			}
			v := la.Value
			la.Commit()
			yield(Result[R]{Value: v})
		}
	})
}
