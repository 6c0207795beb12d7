package harness

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/rxparse/internal/binary"
	"github.com/roach88/rxparse/internal/text"
)

// Scenario defines a parse scenario: a grammar, the input delivered to it,
// and what the session must produce.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Grammar is a grammar name: words, lines, xml, binary:<type> or
	// layout:<Name>.
	Grammar string `yaml:"grammar"`

	// Input is the data the source delivers.
	Input Input `yaml:"input"`

	// ByteOrder is "little" (default) or "big", for binary grammars.
	ByteOrder string `yaml:"byte_order,omitempty"`

	// Encoding is the text encoding of binary strings. Default: utf-8.
	Encoding string `yaml:"encoding,omitempty"`

	// Names is the XML name comparer: "ordinal" (default) or "ignore-case".
	Names string `yaml:"names,omitempty"`

	// Layouts is a directory of CUE layouts for layout grammars.
	// Relative paths are resolved against the scenario file's directory.
	Layouts string `yaml:"layouts,omitempty"`

	// Delivery is "all" (default) to stream the input at once or "tick" to
	// deliver one element per millisecond.
	Delivery string `yaml:"delivery,omitempty"`

	// Strict fails the session on input the grammar cannot match.
	Strict bool `yaml:"strict,omitempty"`

	// SessionID is a fixed session ID for deterministic traces.
	// If empty, defaults to "test-session-default".
	SessionID string `yaml:"session_id,omitempty"`

	// Expect validates the session outcome.
	Expect Expect `yaml:"expect"`

	// Assertions validate the trace.
	// Supported types: trace_contains, trace_order, trace_count, final_index
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Input is scenario input, written as text or as hex bytes. Whitespace in
// hex is ignored.
type Input struct {
	Text string `yaml:"text,omitempty"`
	Hex  string `yaml:"hex,omitempty"`
}

// Bytes returns the raw input.
func (in Input) Bytes() ([]byte, error) {
	if in.Hex == "" {
		return []byte(in.Text), nil
	}
	data, err := hex.DecodeString(strings.Join(strings.Fields(in.Hex), ""))
	if err != nil {
		return nil, fmt.Errorf("input hex: %w", err)
	}
	return data, nil
}

// Expect specifies the expected session outcome.
type Expect struct {
	// Values are the rendered produced values, in order. Nil means
	// unchecked; an empty list expects no values.
	Values []string `yaml:"values"`

	// Error is the expected runtime error code, e.g. UNMATCHED_INPUT.
	// Empty expects the session to complete.
	Error string `yaml:"error,omitempty"`
}

// Assertion validates the trace.
type Assertion struct {
	// Type specifies the assertion type:
	// - "trace_contains": a produced value, optionally at Index
	// - "trace_order": produced values appear in this order
	// - "trace_count": exactly Count events of Kind (default produce)
	// - "final_index": the session finished at Index
	Type string `yaml:"type"`

	// Value is the rendered value (used by trace_contains).
	Value string `yaml:"value,omitempty"`

	// Index is a source position (used by trace_contains and final_index).
	Index *int `yaml:"index,omitempty"`

	// Values is the expected value order (used by trace_order).
	Values []string `yaml:"values,omitempty"`

	// Kind is the event kind to count (used by trace_count).
	Kind string `yaml:"kind,omitempty"`

	// Count is the expected number of events (used by trace_count).
	Count int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertFinalIndex    = "final_index"
)

// LoadScenario reads and parses a scenario YAML file. Relative paths in the
// scenario are resolved against the file's directory.
//
// Returns an error if the file doesn't exist, is malformed, contains unknown
// fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file, resolving
// relative paths against basePath.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Reject unknown fields (catches typos like "assertion:" vs "assertions:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Layouts != "" && !filepath.IsAbs(scenario.Layouts) && basePath != "" {
		scenario.Layouts = filepath.Join(basePath, scenario.Layouts)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Grammar == "" {
		return fmt.Errorf("grammar is required")
	}

	if s.Input.Text != "" && s.Input.Hex != "" {
		return fmt.Errorf("input: give text or hex, not both")
	}
	if _, err := s.Input.Bytes(); err != nil {
		return err
	}

	switch strings.ToLower(s.ByteOrder) {
	case "", "little", "big":
	default:
		return fmt.Errorf("byte_order must be little or big, got %q", s.ByteOrder)
	}

	if _, err := binary.EncodingByName(s.Encoding); err != nil {
		return fmt.Errorf("encoding: %w", err)
	}

	if _, err := text.ComparerByName(s.Names); err != nil {
		return fmt.Errorf("names: %w", err)
	}

	switch s.Delivery {
	case "", "all", "tick":
	default:
		return fmt.Errorf("delivery must be all or tick, got %q", s.Delivery)
	}

	if s.Layouts != "" {
		if _, err := os.Stat(s.Layouts); os.IsNotExist(err) {
			return fmt.Errorf("layouts directory not found: %s", s.Layouts)
		}
	}

	if s.Expect.Values == nil && s.Expect.Error == "" && len(s.Assertions) == 0 {
		return fmt.Errorf("expect or assertions is required")
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTraceContains:
		if a.Value == "" {
			return fmt.Errorf("assertions[%d]: value is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Values) == 0 {
			return fmt.Errorf("assertions[%d]: values list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative", index)
		}
	case AssertFinalIndex:
		if a.Index == nil {
			return fmt.Errorf("assertions[%d]: index is required for final_index", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
