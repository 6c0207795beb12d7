package parse

import (
	"iter"
	"maps"

	"github.com/roach88/rxparse/internal/cursor"
)

// AmbiguousOption bounds an ambiguous match.
type AmbiguousOption func(*ambiguousConfig)

type ambiguousConfig struct {
	max   int
	until func(matches int) bool
}

// MaxMatches stops after n interpretations have been yielded.
func MaxMatches(n int) AmbiguousOption {
	return func(cfg *ambiguousConfig) {
		cfg.max = n
	}
}

// Until stops as soon as stop returns true. It is evaluated before each
// attempt with the number of interpretations yielded so far.
func Until(stop func(matches int) bool) AmbiguousOption {
	return func(cfg *ambiguousConfig) {
		cfg.until = stop
	}
}

// ambiguousMatch is the per-position state of one ambiguous evaluation.
type ambiguousMatch[R any] struct {
	cfg      ambiguousConfig
	matches  int
	longest  int
	deferred []Result[R]
}

func (m *ambiguousMatch[R]) stopped() bool {
	if m.cfg.max > 0 && m.matches >= m.cfg.max {
		return true
	}
	return m.cfg.until != nil && m.cfg.until(m.matches)
}

// Ambiguous evaluates p so that every alternation inside it yields all of its
// matching alternatives rather than the first. Every interpretation is
// yielded as a separate result from the same starting position.
//
// Zero-length interpretations are held back and yielded only when no
// interpretation consumed anything; otherwise the position would be matched
// again without progress.
func Ambiguous[S, R any](p Parser[S, R], opts ...AmbiguousOption) Parser[S, R] {
	var cfg ambiguousConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	return Func[S, R](func(c *cursor.Cursor[S]) iter.Seq[Result[R]] {
		return func(yield func(Result[R]) bool) {
			b := c.Branch()
			defer b.Dispose()
			b.SetAmbiguous(true)

			m := &ambiguousMatch[R]{cfg: cfg}
			if m.stopped() {
				return
			}
			for r := range p.Parse(b) {
				if r.Length == 0 {
					m.deferred = append(m.deferred, r)
					continue
				}
				m.matches++
				m.longest = max(m.longest, r.Length)
				if !yield(r) || m.stopped() {
					return
				}
			}
			if m.longest > 0 {
				return
			}
			for _, r := range m.deferred {
				m.matches++
				if !yield(r) || m.stopped() {
					return
				}
			}
		}
	})
}

// AllUnordered requires every parser to match exactly once, in any order, and
// collects the values in the order they matched. At each step the remaining
// parsers are tried as an ordered alternation; a parser that has already
// matched is excluded from the rest of the evaluation.
func AllUnordered[S, R any](ps ...Parser[S, R]) Parser[S, []R] {
	ch := Any(ps...)

	var match func(c *cursor.Cursor[S], selected map[int]bool) iter.Seq[Result[[]R]]
	match = func(c *cursor.Cursor[S], selected map[int]bool) iter.Seq[Result[[]R]] {
		return func(yield func(Result[[]R]) bool) {
			if len(selected) == ch.Len() {
				yield(Result[[]R]{})
				return
			}
			for r, i := range ch.Select(c, selected) {
				next := maps.Clone(selected)
				next[i] = true
				head := Result[[]R]{Value: []R{r.Value}, Length: r.Length}
				more := continueAt(c, r.Length, func(rest *cursor.Cursor[S]) bool {
					for tail := range match(rest, next) {
						if !yield(Append(head, tail)) {
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
	}

	return Func[S, []R](func(c *cursor.Cursor[S]) iter.Seq[Result[[]R]] {
		return match(c, map[int]bool{})
	})
}
