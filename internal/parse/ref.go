package parse

import (
	"iter"
	"sync"

	"github.com/roach88/rxparse/internal/cursor"
)

// Ref is a parser defined after it is first referenced, for grammars whose
// rules refer to each other. Evaluating a Ref before Define is a usage error.
type Ref[S, R any] struct {
	name string
	p    Parser[S, R]
}

// NewRef returns an undefined reference. The name appears in usage errors.
func NewRef[S, R any](name string) *Ref[S, R] {
	return &Ref[S, R]{name: name}
}

// Define binds the reference. It may be called once.
func (r *Ref[S, R]) Define(p Parser[S, R]) {
	if r.p != nil {
		panic(&cursor.UsageError{Op: "define", Message: "rule " + r.name + " is already defined"})
	}
	r.p = p
}

func (r *Ref[S, R]) Parse(c *cursor.Cursor[S]) iter.Seq[Result[R]] {
	if r.p == nil {
		panic(&cursor.UsageError{Op: "parse", Message: "rule " + r.name + " is not defined"})
	}
	return r.p.Parse(c)
}

// Lazy defers building a parser until its first evaluation. build runs at
// most once.
func Lazy[S, R any](build func() Parser[S, R]) Parser[S, R] {
	get := sync.OnceValue(build)
	return Func[S, R](func(c *cursor.Cursor[S]) iter.Seq[Result[R]] {
		return get().Parse(c)
	})
}
