package engine

import (
	"errors"
	"fmt"
)

// RuntimeError represents an error that ended a parse session.
//
// Runtime errors include:
//   - Source error: the push source signalled an error
//   - Parse error: a grammar rejected malformed input
//   - Usage error: the grammar misused a cursor or an undefined rule
//   - Re-entrant parse: the driver already had an active session
//   - Unmatched input: strict mode and input left that the grammar rejects
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// Session identifies the failed session.
	Session string

	// Grammar is the name of the driver.
	Grammar string

	// Index is the source position the session had reached.
	Index int

	// Err is the underlying cause, if any.
	Err error
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeSourceError indicates the push source failed.
	ErrCodeSourceError RuntimeErrorCode = "SOURCE_ERROR"

	// ErrCodeParseError indicates a grammar raised a parse error.
	ErrCodeParseError RuntimeErrorCode = "PARSE_ERROR"

	// ErrCodeUsageError indicates a programming error in a grammar.
	ErrCodeUsageError RuntimeErrorCode = "USAGE_ERROR"

	// ErrCodeReentrantParse indicates a second session on a busy driver.
	ErrCodeReentrantParse RuntimeErrorCode = "REENTRANT_PARSE"

	// ErrCodeUnmatchedInput indicates input the grammar could not match in
	// strict mode.
	ErrCodeUnmatchedInput RuntimeErrorCode = "UNMATCHED_INPUT"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	if e.Session != "" {
		return fmt.Sprintf("%s: %s (session=%s, index=%d)", e.Code, e.Message, e.Session, e.Index)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *RuntimeError) Unwrap() error {
	return e.Err
}

func hasCode(err error, code RuntimeErrorCode) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == code
	}
	return false
}

// IsSourceError returns true if the session failed because its source did.
func IsSourceError(err error) bool {
	return hasCode(err, ErrCodeSourceError)
}

// IsParseError returns true if the session failed on malformed input.
func IsParseError(err error) bool {
	return hasCode(err, ErrCodeParseError)
}

// IsUsageError returns true if the session failed on a programming error.
func IsUsageError(err error) bool {
	return hasCode(err, ErrCodeUsageError)
}

// IsReentrantError returns true if the session was refused because the
// driver was busy.
func IsReentrantError(err error) bool {
	return hasCode(err, ErrCodeReentrantParse)
}

// IsUnmatchedError returns true if strict mode found unmatched input.
func IsUnmatchedError(err error) bool {
	return hasCode(err, ErrCodeUnmatchedInput)
}

// ErrorCode extracts the RuntimeErrorCode of err, or "" if err is not a
// RuntimeError.
func ErrorCode(err error) RuntimeErrorCode {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code
	}
	return ""
}
