package harness

import (
	"github.com/roach88/advcases/internal/ir"
)

// TraceEvent records what one step did.
type TraceEvent struct {
	Step     int
	Kind     string
	Message  string
	Selector string
	ID       string
	Seq      int64
	Writes   int
	Output   string
	Value    ir.Value
	Error    string // error code; empty on success
}

// ToIR renders the event for golden files.
func (e TraceEvent) ToIR() ir.Object {
	obj := ir.Object{
		"step":    ir.Int(e.Step),
		"kind":    ir.String(e.Kind),
		"message": ir.String(e.Message),
	}
	if e.Error != "" {
		obj["error"] = ir.String(e.Error)
		return obj
	}
	obj["selector"] = ir.String(e.Selector)
	obj["seq"] = ir.Int(e.Seq)
	obj["writes"] = ir.Int(e.Writes)
	obj["output"] = ir.String(e.Output)
	if e.Value != nil {
		obj["value"] = e.Value
	}
	if e.ID != "" {
		obj["id"] = ir.String(e.ID)
	}
	return obj
}

// Result is the outcome of running a scenario.
type Result struct {
	// Pass is true when every expectation and assertion held.
	Pass bool

	// Trace holds one event per step, in order.
	Trace []TraceEvent

	// Errors lists failed expectations and assertions.
	Errors []string

	// StateDigest hashes the final storage cells.
	StateDigest string
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError records a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
