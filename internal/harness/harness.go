package harness

import (
	"bytes"
	"context"
	stdbinary "encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/roach88/rxparse/internal/binary"
	"github.com/roach88/rxparse/internal/engine"
	"github.com/roach88/rxparse/internal/grammars"
	"github.com/roach88/rxparse/internal/layout"
	"github.com/roach88/rxparse/internal/store"
	"github.com/roach88/rxparse/internal/testutil"
	"github.com/roach88/rxparse/internal/text"
)

// Timeout bounds a single scenario run.
const Timeout = 10 * time.Second

// tickInterval is the per-element delay of "tick" delivery.
const tickInterval = time.Millisecond

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
// Deterministic helpers ensure reproducible results.
//
// Execution flow:
// 1. Create fresh in-memory database
// 2. Build the grammar configuration (layouts, byte order, encoding)
// 3. Drive the grammar over the input, recording the trace
// 4. Read the trace back and compare it with the expectations
// 5. Return result with pass/fail, trace, and errors
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(store.MemoryPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	cfg, err := grammarConfig(scenario)
	if err != nil {
		return nil, err
	}

	input, err := scenario.Input.Bytes()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), Timeout)
	defer cancel()

	// Suppress logs in tests
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sessionID := testutil.NewFixedSessionGenerator(scenario.SessionID).Generate()

	matches, runErr := grammars.Run(ctx, scenario.Grammar, bytes.NewReader(input), cfg,
		engine.WithClock(testutil.NewClock()),
		engine.WithSessionIDs(testutil.NewFixedSessionGenerator(sessionID)),
		engine.WithHooks(st.Recorder(ctx, logger)),
		engine.WithLogger(logger),
		engine.WithStrict(scenario.Strict),
	)
	if runErr != nil && engine.ErrorCode(runErr) == "" {
		// Not a session failure: the grammar could not be built.
		return nil, fmt.Errorf("failed to run grammar: %w", runErr)
	}

	result := NewResult()
	result.Session = sessionID
	for _, m := range matches {
		result.Produced = append(result.Produced, Produced{
			Index:  m.Index,
			Length: m.Length,
			Value:  m.String(),
		})
	}
	if runErr != nil {
		result.ErrorCode = string(engine.ErrorCode(runErr))
		result.Error = runErr.Error()
	}

	if err := loadTrace(ctx, st, result); err != nil {
		return nil, err
	}

	checkExpect(scenario.Expect, result)

	actx := &AssertionContext{
		Store: st,
		Ctx:   ctx,
	}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}

	return result, nil
}

// grammarConfig translates the scenario's grammar settings.
func grammarConfig(s *Scenario) (grammars.Config, error) {
	var cfg grammars.Config

	cfg.ByteOrder = stdbinary.LittleEndian
	if strings.EqualFold(s.ByteOrder, "big") {
		cfg.ByteOrder = stdbinary.BigEndian
	}

	enc, err := binary.EncodingByName(s.Encoding)
	if err != nil {
		return cfg, err
	}
	cfg.Encoding = enc

	names, err := text.ComparerByName(s.Names)
	if err != nil {
		return cfg, err
	}
	cfg.Names = names

	if s.Layouts != "" {
		set, err := layout.Load(s.Layouts)
		if err != nil {
			return cfg, fmt.Errorf("failed to load layouts: %w", err)
		}
		cfg.Layouts = set
	}

	if s.Delivery == "tick" {
		cfg.Pace = tickInterval
	}
	return cfg, nil
}

// loadTrace reads the recorded session back from the store.
func loadTrace(ctx context.Context, st *store.Store, result *Result) error {
	session, err := st.ReadSession(ctx, result.Session)
	if err != nil {
		return fmt.Errorf("failed to read session: %w", err)
	}
	result.Status = session.Status
	result.FinalIndex = session.FinalIndex

	events, err := st.ReadEvents(ctx, result.Session)
	if err != nil {
		return fmt.Errorf("failed to read trace: %w", err)
	}
	for _, ev := range events {
		te := TraceEvent{
			Seq:    ev.Seq,
			Kind:   string(ev.Kind),
			Index:  ev.Index,
			Length: ev.Length,
			Error:  ev.Error,
		}
		if ev.Value != "" {
			te.Value = json.RawMessage(ev.Value)
		}
		result.Trace = append(result.Trace, te)
	}
	return nil
}

// checkExpect compares the session outcome with the scenario's expectations.
func checkExpect(expect Expect, result *Result) {
	if result.ErrorCode != expect.Error {
		switch {
		case expect.Error == "":
			result.AddError(fmt.Sprintf("expected session to complete, got %s: %s", result.ErrorCode, result.Error))
		case result.ErrorCode == "":
			result.AddError(fmt.Sprintf("expected error %s, session completed", expect.Error))
		default:
			result.AddError(fmt.Sprintf("expected error %s, got %s: %s", expect.Error, result.ErrorCode, result.Error))
		}
	}

	if expect.Values == nil {
		return
	}
	got := result.Values()
	if len(got) != len(expect.Values) {
		result.AddError(fmt.Sprintf("expected %d values %q, got %d values %q",
			len(expect.Values), expect.Values, len(got), got))
		return
	}
	for i := range got {
		if got[i] != expect.Values[i] {
			result.AddError(fmt.Sprintf("value[%d]: expected %q, got %q", i, expect.Values[i], got[i]))
		}
	}
}
