package harness

import "encoding/json"

// TraceEvent is one recorded diagnostics event of a scenario's session, as
// read back from the trace store.
type TraceEvent struct {
	Seq    int64           `json:"seq"`
	Kind   string          `json:"kind"`
	Index  int             `json:"index"`
	Length int             `json:"length,omitempty"`
	Value  json.RawMessage `json:"value,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// Produced is one value the session produced, rendered for comparison.
type Produced struct {
	Index  int    `json:"index"`
	Length int    `json:"length"`
	Value  string `json:"value"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if the expectations and every assertion hold.
	Pass bool `json:"pass"`

	// Session is the ID of the parse session.
	Session string `json:"session"`

	// Status is the stored session status: completed, failed or cancelled.
	Status string `json:"status"`

	// FinalIndex is the source position the session finished at.
	FinalIndex int `json:"final_index"`

	// Produced lists the session's results in emission order.
	Produced []Produced `json:"produced"`

	// ErrorCode is the runtime error code of a failed session.
	ErrorCode string `json:"error_code,omitempty"`

	// Error is the message of a failed session.
	Error string `json:"error,omitempty"`

	// Trace contains every stored event of the session in seq order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:     true,
		Produced: []Produced{},
		Trace:    []TraceEvent{},
		Errors:   []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Values returns the rendered produced values in order.
func (r *Result) Values() []string {
	values := make([]string, len(r.Produced))
	for i, p := range r.Produced {
		values[i] = p.Value
	}
	return values
}
