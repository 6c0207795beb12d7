package harness

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/rxparse/internal/diag"
	"github.com/roach88/rxparse/internal/store"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string     // Assertion type for categorization
	Expected string     // Human-readable expected outcome
	Actual   string     // Human-readable actual outcome
	Produced []Produced // Produced values for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Produced) > 0 {
		fmt.Fprintf(&buf, "\nProduced:\n")
		for i, p := range e.Produced {
			fmt.Fprintf(&buf, "  [%d] @%d+%d %q\n", i+1, p.Index, p.Length, p.Value)
		}
	}

	return buf.String()
}

// assertTraceContains checks that a produced value matches, optionally at a
// given source index.
func assertTraceContains(produced []Produced, assertion Assertion) error {
	for _, p := range produced {
		if p.Value != assertion.Value {
			continue
		}
		if assertion.Index == nil || *assertion.Index == p.Index {
			return nil
		}
	}

	expected := fmt.Sprintf("value %q", assertion.Value)
	if assertion.Index != nil {
		expected += fmt.Sprintf(" at index %d", *assertion.Index)
	}
	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: expected,
		Actual:   "not produced",
		Produced: produced,
	}
}

// assertTraceOrder checks that values were produced in the specified order.
// They don't need to be consecutive (intervening values are allowed).
func assertTraceOrder(produced []Produced, assertion Assertion) error {
	next := 0
	for _, p := range produced {
		if next < len(assertion.Values) && p.Value == assertion.Values[next] {
			next++
		}
	}
	if next == len(assertion.Values) {
		return nil
	}

	return &AssertionError{
		Type:     AssertTraceOrder,
		Expected: fmt.Sprintf("values in order: %q", assertion.Values),
		Actual:   fmt.Sprintf("%q not produced after %q", assertion.Values[next], assertion.Values[:next]),
		Produced: produced,
	}
}

// assertTraceCount checks that the trace holds exactly Count events of the
// given kind.
func assertTraceCount(result *Result, assertion Assertion) error {
	kind := assertion.Kind
	if kind == "" {
		kind = string(diag.KindProduce)
	}

	count := 0
	for _, ev := range result.Trace {
		if ev.Kind == kind {
			count++
		}
	}
	if count == assertion.Count {
		return nil
	}

	return &AssertionError{
		Type:     AssertTraceCount,
		Expected: fmt.Sprintf("%d %s events", assertion.Count, kind),
		Actual:   fmt.Sprintf("%d %s events", count, kind),
		Produced: result.Produced,
	}
}

// assertFinalIndex checks the stored session's final position.
func assertFinalIndex(ctx context.Context, st *store.Store, session string, assertion Assertion) error {
	s, err := st.ReadSession(ctx, session)
	if err != nil {
		return fmt.Errorf("final_index: %w", err)
	}
	if s.FinalIndex == *assertion.Index {
		return nil
	}
	return &AssertionError{
		Type:     AssertFinalIndex,
		Expected: fmt.Sprintf("session finished at index %d", *assertion.Index),
		Actual:   fmt.Sprintf("session finished at index %d (status %s)", s.FinalIndex, s.Status),
	}
}

// AssertionContext provides access to the trace store for assertions that
// read the recorded session rather than the in-memory result.
type AssertionContext struct {
	Store *store.Store
	Ctx   context.Context
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
// The actx parameter provides database access for final_index assertions.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertTraceContains:
			err = assertTraceContains(result.Produced, assertion)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Produced, assertion)
		case AssertTraceCount:
			err = assertTraceCount(result, assertion)
		case AssertFinalIndex:
			switch {
			case assertion.Index == nil:
				err = fmt.Errorf("assertion[%d]: final_index requires an index", i)
			case actx == nil || actx.Store == nil:
				err = fmt.Errorf("assertion[%d]: final_index requires database context", i)
			default:
				err = assertFinalIndex(actx.Ctx, actx.Store, result.Session, assertion)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
