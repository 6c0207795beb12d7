package testutil

// FixedSessionGenerator hands out the same session ID every time.
//
// Traces recorded with it are byte-identical across runs, so they can be
// compared against golden files. Unlike engine.FixedGenerator, which walks a
// list of IDs, this generator never changes.
//
// Thread-safety: FixedSessionGenerator is stateless and safe for concurrent use.
type FixedSessionGenerator struct {
	id string
}

// NewFixedSessionGenerator creates a generator for id.
//
// The ID is typically set in the scenario YAML:
//
//	session_id: "test-session-0001"
//
// If id is empty, Generate() returns "test-session-default".
func NewFixedSessionGenerator(id string) *FixedSessionGenerator {
	if id == "" {
		id = "test-session-default"
	}
	return &FixedSessionGenerator{id: id}
}

// Generate returns the fixed session ID.
//
// Implements engine.SessionIDGenerator.
func (g *FixedSessionGenerator) Generate() string {
	return g.id
}
