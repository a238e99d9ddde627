package harness

import "github.com/yravipati/countydata/internal/lookup"

// Trace event types.
const (
	EventLoad   = "load"
	EventLookup = "lookup"
)

// CaseOK is the outcome of a successful step.
const CaseOK = "ok"

// TraceEvent records one executed step.
type TraceEvent struct {
	Type    string          `json:"type"`
	Seq     int64           `json:"seq"`
	Source  string          `json:"source,omitempty"`
	Table   string          `json:"table,omitempty"`
	Request *lookup.Request `json:"request,omitempty"`
	Case    string          `json:"case"`
	Message string          `json:"message,omitempty"`
	Rows    int64           `json:"rows"`
	Records []lookup.Record `json:"records,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every expect clause and assertion held.
	Pass bool `json:"pass"`

	// Trace contains the executed steps in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages.
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

// AddTrace appends an event to the trace.
func (r *Result) AddTrace(event TraceEvent) {
	r.Trace = append(r.Trace, event)
}
