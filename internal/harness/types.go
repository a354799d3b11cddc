package harness

import "github.com/roach88/ubt/internal/evaluator"

// Status is the outcome of one check.
type Status string

const (
	StatusPass Status = "pass"
	StatusFail Status = "fail"

	// StatusError marks a check that could not be evaluated: a missing
	// parameter, an unknown formula, an out-of-domain value.
	StatusError Status = "error"

	// StatusIncomplete marks a check over a placeholder formula. It does
	// not count as a pass or a failure.
	StatusIncomplete Status = "incomplete"
)

// CheckOutcome is the result of one check.
type CheckOutcome struct {
	Name   string `json:"name"`
	Type   string `json:"type"`
	Status Status `json:"status"`

	// Observed is the measured quantity: the spread for flat and
	// not_flat, the value for value and simplify, the largest
	// difference for agree and roundtrip.
	Observed float64 `json:"observed"`

	Tolerance float64 `json:"tolerance"`

	// Simplified is the printed simplified expression (simplify only).
	Simplified string `json:"simplified,omitempty"`

	Code    evaluator.ErrorCode `json:"code,omitempty"`
	Message string              `json:"message,omitempty"`
}

// Result is the outcome of running a suite.
type Result struct {
	Suite string `json:"suite"`

	// Pass is true when no check failed or errored. Incomplete checks do
	// not affect it.
	Pass bool `json:"pass"`

	Checks []CheckOutcome `json:"checks"`

	Passed     int `json:"passed"`
	Failed     int `json:"failed"`
	Incomplete int `json:"incomplete"`

	// Errors holds one message per failed or errored check.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult(suite string) *Result {
	return &Result{
		Suite:  suite,
		Pass:   true,
		Checks: []CheckOutcome{},
		Errors: []string{},
	}
}

// Add records an outcome and updates the counts.
func (r *Result) Add(o CheckOutcome) {
	r.Checks = append(r.Checks, o)
	switch o.Status {
	case StatusPass:
		r.Passed++
	case StatusIncomplete:
		r.Incomplete++
	default:
		r.Failed++
		r.Pass = false
		r.Errors = append(r.Errors, o.Name+": "+o.Message)
	}
}
