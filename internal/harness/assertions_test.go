package harness

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rxparse/internal/diag"
	"github.com/roach88/rxparse/internal/store"
)

func intPtr(i int) *int { return &i }

func sampleResult() *Result {
	return &Result{
		Session: "s-1",
		Produced: []Produced{
			{Index: 0, Length: 2, Value: "ab"},
			{Index: 2, Length: 3, Value: "cd"},
			{Index: 5, Length: 3, Value: "ab"},
		},
		Trace: []TraceEvent{
			{Seq: 1, Kind: "compile"},
			{Seq: 2, Kind: "consume", Index: 0},
			{Seq: 3, Kind: "produce", Index: 0, Length: 2},
			{Seq: 4, Kind: "produce", Index: 2, Length: 3},
			{Seq: 5, Kind: "produce", Index: 5, Length: 3},
			{Seq: 6, Kind: "finish", Index: 8},
		},
	}
}

func TestAssertTraceContains_Found(t *testing.T) {
	err := assertTraceContains(sampleResult().Produced, Assertion{Type: AssertTraceContains, Value: "cd"})
	assert.NoError(t, err)
}

func TestAssertTraceContains_AtIndex(t *testing.T) {
	produced := sampleResult().Produced

	assert.NoError(t, assertTraceContains(produced, Assertion{Value: "ab", Index: intPtr(5)}))
	assert.NoError(t, assertTraceContains(produced, Assertion{Value: "ab", Index: intPtr(0)}))

	err := assertTraceContains(produced, Assertion{Value: "cd", Index: intPtr(0)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `value "cd" at index 0`)
}

func TestAssertTraceContains_NotFound(t *testing.T) {
	err := assertTraceContains(sampleResult().Produced, Assertion{Value: "zz"})
	require.Error(t, err)

	var assertErr *AssertionError
	require.ErrorAs(t, err, &assertErr)
	assert.Equal(t, AssertTraceContains, assertErr.Type)
	assert.Equal(t, "not produced", assertErr.Actual)
	assert.Len(t, assertErr.Produced, 3)
}

func TestAssertTraceOrder_Correct(t *testing.T) {
	err := assertTraceOrder(sampleResult().Produced, Assertion{Values: []string{"ab", "cd"}})
	assert.NoError(t, err)
}

func TestAssertTraceOrder_RepeatedValues(t *testing.T) {
	err := assertTraceOrder(sampleResult().Produced, Assertion{Values: []string{"ab", "cd", "ab"}})
	assert.NoError(t, err)
}

func TestAssertTraceOrder_InterveningValuesAllowed(t *testing.T) {
	err := assertTraceOrder(sampleResult().Produced, Assertion{Values: []string{"ab", "ab"}})
	assert.NoError(t, err)
}

func TestAssertTraceOrder_WrongOrder(t *testing.T) {
	err := assertTraceOrder(sampleResult().Produced, Assertion{Values: []string{"cd", "cd"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"cd" not produced after ["cd"]`)
}

func TestAssertTraceOrder_MissingValue(t *testing.T) {
	err := assertTraceOrder(sampleResult().Produced, Assertion{Values: []string{"ab", "ef"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"ef" not produced`)
}

func TestAssertTraceCount(t *testing.T) {
	tests := []struct {
		name    string
		kind    string
		count   int
		wantErr string
	}{
		{name: "produce by default", count: 3},
		{name: "explicit kind", kind: "finish", count: 1},
		{name: "consume", kind: "consume", count: 1},
		{name: "zero", kind: "missing", count: 0},
		{name: "too few", count: 4, wantErr: "Actual: 3 produce events"},
		{name: "too many", kind: "compile", count: 0, wantErr: "Expected: 0 compile events"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := assertTraceCount(sampleResult(), Assertion{Kind: tt.kind, Count: tt.count})
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

// finishedStore records a session that finished at index 8.
func finishedStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(store.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	ctx := context.Background()
	require.NoError(t, st.WriteEvent(ctx, diag.Event{Seq: 1, Session: "s-1", Grammar: "words", Kind: diag.KindCompile}))
	require.NoError(t, st.WriteEvent(ctx, diag.Event{Seq: 2, Session: "s-1", Grammar: "words", Kind: diag.KindFinish, Index: 8}))
	return st
}

func TestAssertFinalIndex(t *testing.T) {
	st := finishedStore(t)
	ctx := context.Background()

	assert.NoError(t, assertFinalIndex(ctx, st, "s-1", Assertion{Index: intPtr(8)}))

	err := assertFinalIndex(ctx, st, "s-1", Assertion{Index: intPtr(3)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session finished at index 8 (status completed)")

	err = assertFinalIndex(ctx, st, "missing", Assertion{Index: intPtr(8)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "final_index")
}

func TestEvaluateAssertions_AllPass(t *testing.T) {
	st := finishedStore(t)

	assertions := []Assertion{
		{Type: AssertTraceContains, Value: "ab"},
		{Type: AssertTraceContains, Value: "cd", Index: intPtr(2)},
		{Type: AssertTraceOrder, Values: []string{"ab", "cd"}},
		{Type: AssertTraceCount, Count: 3},
		{Type: AssertFinalIndex, Index: intPtr(8)},
	}

	errors := EvaluateAssertions(sampleResult(), assertions, &AssertionContext{Store: st, Ctx: context.Background()})
	assert.Empty(t, errors)
}

func TestEvaluateAssertions_SomeFail(t *testing.T) {
	assertions := []Assertion{
		{Type: AssertTraceContains, Value: "ab"}, // Should pass
		{Type: AssertTraceContains, Value: "ef"}, // Should fail - not produced
		{Type: AssertTraceCount, Count: 1},       // Should fail - count is 3, not 1
	}

	errors := EvaluateAssertions(sampleResult(), assertions, nil)
	require.Len(t, errors, 2)
	assert.Contains(t, errors[0], `"ef"`)
	assert.Contains(t, errors[1], "3 produce events")
}

func TestEvaluateAssertions_FinalIndexWithoutContext(t *testing.T) {
	errors := EvaluateAssertions(sampleResult(), []Assertion{{Type: AssertFinalIndex, Index: intPtr(8)}}, nil)
	require.Len(t, errors, 1)
	assert.Contains(t, errors[0], "final_index requires database context")
}

func TestEvaluateAssertions_UnknownType(t *testing.T) {
	errors := EvaluateAssertions(&Result{}, []Assertion{{Type: "unknown_assertion_type"}}, nil)
	require.Len(t, errors, 1)
	assert.Contains(t, errors[0], "unknown assertion type")
}

func TestAssertionError_ErrorFormat(t *testing.T) {
	err := &AssertionError{
		Type:     AssertTraceContains,
		Expected: `value "ef"`,
		Actual:   "not produced",
		Produced: []Produced{{Index: 0, Length: 2, Value: "ab"}},
	}

	errorStr := err.Error()
	assert.Contains(t, errorStr, "Assertion failed: trace_contains")
	assert.Contains(t, errorStr, `Expected: value "ef"`)
	assert.Contains(t, errorStr, "Actual: not produced")
	assert.Contains(t, errorStr, "Produced:")
	assert.Contains(t, errorStr, `[1] @0+2 "ab"`)
}
