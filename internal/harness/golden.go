package harness

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/rxparse/internal/diag"
)

// GoldenDir is where golden trace snapshots live, relative to the test's
// package directory.
const GoldenDir = "testdata/golden"

// GoldenSuffix is the file extension of golden trace snapshots.
const GoldenSuffix = ".golden"

// TraceSnapshot captures the deterministic part of a scenario's trace.
//
// Consume events are left out: the source delivers in batches, so where
// they fall between produce events varies from run to run, and so do the
// seq numbers of everything after them.
type TraceSnapshot struct {
	ScenarioName string          `json:"scenario_name"`
	Session      string          `json:"session"`
	Grammar      string          `json:"grammar"`
	Status       string          `json:"status"`
	FinalIndex   int             `json:"final_index"`
	ErrorCode    string          `json:"error_code,omitempty"`
	Trace        []SnapshotEvent `json:"trace"`
}

// SnapshotEvent is a trace event without its seq.
type SnapshotEvent struct {
	Kind   string          `json:"kind"`
	Index  int             `json:"index"`
	Length int             `json:"length,omitempty"`
	Value  json.RawMessage `json:"value,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// NewSnapshot builds the snapshot of a scenario result.
func NewSnapshot(scenario *Scenario, result *Result) TraceSnapshot {
	snapshot := TraceSnapshot{
		ScenarioName: scenario.Name,
		Session:      result.Session,
		Grammar:      scenario.Grammar,
		Status:       result.Status,
		FinalIndex:   result.FinalIndex,
		ErrorCode:    result.ErrorCode,
		Trace:        []SnapshotEvent{},
	}
	for _, ev := range result.Trace {
		if ev.Kind == string(diag.KindConsume) {
			continue
		}
		snapshot.Trace = append(snapshot.Trace, SnapshotEvent{
			Kind:   ev.Kind,
			Index:  ev.Index,
			Length: ev.Length,
			Value:  ev.Value,
			Error:  ev.Error,
		})
	}
	return snapshot
}

// Marshal renders the snapshot as indented JSON with a trailing newline.
func (s TraceSnapshot) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// RunWithGolden executes a scenario and compares the trace against a golden file.
// The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if trace doesn't match golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	return AssertGolden(t, scenario, result)
}

// AssertGolden compares the given result's trace against a golden file.
// This is useful when you've already run a scenario and want to compare
// the result against a golden file without re-running.
func AssertGolden(t *testing.T, scenario *Scenario, result *Result) error {
	t.Helper()

	traceJSON, err := NewSnapshot(scenario, result).Marshal()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir(GoldenDir),
		goldie.WithNameSuffix(GoldenSuffix),
	)
	g.Assert(t, scenario.Name, traceJSON)

	return nil
}
