package harness

// TraceEvent records one executed step.
type TraceEvent struct {
	Step   int      `json:"step"`
	Op     string   `json:"op"`
	Effect string   `json:"effect"`
	Target string   `json:"target,omitempty"` // parameter or clip name
	Time   *float64 `json:"time,omitempty"`
	Until  *float64 `json:"until,omitempty"`
	Value  string   `json:"value,omitempty"` // value read or written, as text
	Error  string   `json:"error,omitempty"` // status code of a failed step
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall success: every step expectation and every
	// assertion held.
	Pass bool `json:"pass"`

	// Trace contains every executed step in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends a step to the trace.
func (r *Result) AddTrace(ev TraceEvent) {
	r.Trace = append(r.Trace, ev)
}
