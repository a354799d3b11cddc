package evaluator

import (
	"fmt"
	"sort"
	"strings"
)

// Status records whether a formula computes real physics or stands in for
// something not yet worked out.
type Status string

const (
	// Implemented formulas are evaluated and checked normally.
	Implemented Status = "implemented"

	// Placeholder formulas return a fixed or simplified value. Checks that
	// depend on them report "incomplete" instead of pass or fail.
	Placeholder Status = "placeholder"
)

// Func is the body of a formula. It receives a validated parameter set
// containing every declared parameter.
type Func func(p Params) (float64, error)

// Formula is a pure, named, closed-form function of named parameters.
// Formulas are immutable values; the same Formula may be evaluated any
// number of times.
type Formula struct {
	Name        string
	Params      []string
	Fn          Func
	Status      Status
	Description string
}

// Arity returns the number of parameters the formula takes.
func (f Formula) Arity() int { return len(f.Params) }

// Signature renders the formula as name(p1, p2, ...).
func (f Formula) Signature() string {
	return fmt.Sprintf("%s(%s)", f.Name, strings.Join(f.Params, ", "))
}

// HasParam reports whether name is one of the formula's parameters.
func (f Formula) HasParam(name string) bool {
	for _, p := range f.Params {
		if p == name {
			return true
		}
	}
	return false
}

// IsPlaceholder reports whether the formula is a stand-in.
func (f Formula) IsPlaceholder() bool { return f.Status == Placeholder }

// Params is a parameter set: parameter name to value.
type Params map[string]float64

// Clone returns an independent copy of p.
func (p Params) Clone() Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// With returns a copy of p with name set to value.
func (p Params) With(name string, value float64) Params {
	out := p.Clone()
	out[name] = value
	return out
}

// Names returns the parameter names in sorted order.
func (p Params) Names() []string {
	names := make([]string, 0, len(p))
	for k := range p {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
