package store

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
)

// marshalValue converts an event value to JSON TEXT for storage.
// Values with a String method are stored as that string; anything JSON can't
// encode falls back to its %v rendering.
func marshalValue(v any) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	if s, ok := v.(fmt.Stringer); ok {
		v = s.String()
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		buf.Reset()
		if err := enc.Encode(fmt.Sprintf("%v", v)); err != nil {
			return sql.NullString{}
		}
	}
	// Encoder adds a trailing newline, remove it
	return sql.NullString{String: strings.TrimSpace(buf.String()), Valid: true}
}

// marshalError converts a session error to nullable TEXT.
func marshalError(err error) sql.NullString {
	if err == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: err.Error(), Valid: true}
}
