package harness

// TraceEvent records one HTTP exchange of a scenario flow.
type TraceEvent struct {
	Seq     int               `json:"seq"`
	Method  string            `json:"method"`
	Path    string            `json:"path"`
	Form    map[string]string `json:"form,omitempty"`
	Status  int               `json:"status"`
	Trigger bool              `json:"trigger"`

	// Items lists the item element ids (todo-N) in the response body, in
	// document order.
	Items []string `json:"items"`

	// Body is the raw response body. Kept for assertions; not part of
	// golden snapshots.
	Body string `json:"-"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if all expect clauses and assertions hold.
	Pass bool `json:"pass"`

	// Trace contains every flow request in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains failure messages.
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

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends ev, numbering it.
func (r *Result) AddTrace(ev TraceEvent) {
	ev.Seq = len(r.Trace) + 1
	r.Trace = append(r.Trace, ev)
}

// TriggerCount is the number of responses that carried the change
// notification header.
func (r *Result) TriggerCount() int {
	n := 0
	for _, ev := range r.Trace {
		if ev.Trigger {
			n++
		}
	}
	return n
}
