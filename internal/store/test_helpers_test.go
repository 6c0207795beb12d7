package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/rxparse/internal/diag"
)

// createTestStore opens a fresh store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "trace.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestEvent builds an event of the "words" grammar.
func createTestEvent(session string, seq int64, kind diag.Kind, index int) diag.Event {
	return diag.Event{
		Seq:     seq,
		Session: session,
		Grammar: "words",
		Kind:    kind,
		Index:   index,
	}
}
