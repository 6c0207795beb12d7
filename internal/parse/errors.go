package parse

import (
	"errors"
	"fmt"

	"github.com/roach88/rxparse/internal/cursor"
)

// ErrMalformed marks input that matched a grammar's shape but violates its
// format, such as a length prefix with too many continuation bytes.
var ErrMalformed = errors.New("malformed input")

// Error is a parse error raised at a source position. Unlike a failed match,
// which simply produces no result, an Error ends the parse session.
type Error struct {
	Index int
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("parse error at %d: %v", e.Index, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Raise aborts the parse with err, positioned at c.
func Raise[S any](c *cursor.Cursor[S], err error) {
	cursor.Raise(&Error{Index: c.Index(), Err: err})
}

// IsError reports whether err is or wraps a parse Error.
func IsError(err error) bool {
	var pe *Error
	return errors.As(err, &pe)
}
