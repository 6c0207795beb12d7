package cursor

import (
	"errors"
	"fmt"
)

// UsageError reports a programmer error: moving backward, moving past the end
// of a terminated sequence, disposing twice, or touching a disposed cursor.
// It is raised with panic and is not meant to be recovered inside a grammar.
type UsageError struct {
	Op      string
	Message string
}

func (e *UsageError) Error() string {
	return fmt.Sprintf("cursor: %s: %s", e.Op, e.Message)
}

func usage(op, format string, args ...any) *UsageError {
	return &UsageError{Op: op, Message: fmt.Sprintf(format, args...)}
}

// SourceError wraps an error signalled by the underlying push sequence.
type SourceError struct {
	Err error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("source error: %v", e.Err)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

// Raised carries an error raised from inside a parse. Raising unwinds every
// active branch through its deferred Dispose.
type Raised struct {
	Err error
}

func (r *Raised) Error() string {
	return r.Err.Error()
}

func (r *Raised) Unwrap() error {
	return r.Err
}

// Raise aborts the current parse with err.
func Raise(err error) {
	panic(&Raised{Err: err})
}

// Recover converts a raised error back into a return value. It must be
// deferred directly:
//
//	defer cursor.Recover(&err)
//
// Any other panic, usage errors included, continues unwinding.
func Recover(errp *error) {
	r := recover()
	if r == nil {
		return
	}
	raised, ok := r.(*Raised)
	if !ok {
		panic(r)
	}
	*errp = raised.Err
}

// AsFault classifies a recovered panic value. It reports the error carried by
// a raise or a usage error, and false for anything else.
func AsFault(r any) (error, bool) {
	switch v := r.(type) {
	case *Raised:
		return v.Err, true
	case *UsageError:
		return v, true
	}
	return nil, false
}

// IsUsageError reports whether err is or wraps a UsageError.
func IsUsageError(err error) bool {
	var ue *UsageError
	return errors.As(err, &ue)
}
