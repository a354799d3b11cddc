package evaluator

import (
	"fmt"
	"io"
	"log/slog"
	"math"
)

// Evaluator evaluates formulas and sweeps them over parameter ranges.
//
// An Evaluator holds no mutable state besides its logger; every call works
// on its own copy of the parameters.
type Evaluator struct {
	logger *slog.Logger
}

// New creates an Evaluator. A nil logger discards all log output.
func New(logger *slog.Logger) *Evaluator {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Evaluator{logger: logger}
}

var std = New(nil)

// Evaluate evaluates f with the package default Evaluator.
func Evaluate(f Formula, params Params) (float64, error) { return std.Evaluate(f, params) }

// Sweep sweeps f with the package default Evaluator.
func Sweep(f Formula, varying string, values []float64, fixed Params) (*SweepResult, error) {
	return std.Sweep(f, varying, values, fixed)
}

// SweepCoScaled co-scales f with the package default Evaluator.
func SweepCoScaled(f Formula, scaling map[string]float64, factors []float64, base Params) (*SweepResult, error) {
	return std.SweepCoScaled(f, scaling, factors, base)
}

// Evaluate computes f at params.
//
// Every parameter f declares must be present and finite; missing ones are
// an InputError, never defaulted. Extra entries in params are ignored. A
// non-finite result is a NumericError.
func (e *Evaluator) Evaluate(f Formula, params Params) (float64, error) {
	if f.Fn == nil {
		return 0, NewInputError(ErrCodeUnknownFormula, "formula %q has no body", f.Name)
	}

	bound := make(Params, len(f.Params))
	for _, name := range f.Params {
		v, ok := params[name]
		if !ok {
			return 0, MissingParameter(f.Name, name)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			err := NewInputError(ErrCodeInvalidParameter, "parameter %q is not finite: %v", name, v)
			err.Formula = f.Name
			err.Param = name
			return 0, err
		}
		bound[name] = v
	}

	out, err := f.Fn(bound)
	if err != nil {
		return 0, withFormula(err, f.Name)
	}
	out, err = Finite(f.Name, out)
	if err != nil {
		return 0, withFormula(err, f.Name)
	}

	e.logger.Debug("evaluated", "formula", f.Name, "params", bound, "result", out)
	return out, nil
}

// Point is one evaluated sample of a sweep.
type Point struct {
	Value  float64 `json:"value"`
	Output float64 `json:"output"`
}

// SweepResult is the ordered output of a sweep. Points appear in exactly
// the order of the input sequence.
type SweepResult struct {
	Formula string  `json:"formula"`
	Param   string  `json:"param"`
	Points  []Point `json:"points"`
}

// Outputs returns the evaluated outputs in sweep order.
func (r *SweepResult) Outputs() []float64 {
	out := make([]float64, len(r.Points))
	for i, p := range r.Points {
		out[i] = p.Output
	}
	return out
}

// Sweep evaluates f once per value of varying, holding fixed constant.
//
// values must be non-empty and varying must be a parameter of f. A value
// of varying already present in fixed is overridden at each point.
func (e *Evaluator) Sweep(f Formula, varying string, values []float64, fixed Params) (*SweepResult, error) {
	if len(values) == 0 {
		err := NewInputError(ErrCodeEmptySequence, "sweep of %q needs at least one value", varying)
		err.Formula = f.Name
		err.Param = varying
		return nil, err
	}
	if !f.HasParam(varying) {
		err := NewInputError(ErrCodeUnknownParameter, "%s has no parameter %q", f.Signature(), varying)
		err.Formula = f.Name
		err.Param = varying
		return nil, err
	}

	result := &SweepResult{Formula: f.Name, Param: varying, Points: make([]Point, 0, len(values))}
	params := fixed.Clone()
	for i, v := range values {
		params[varying] = v
		out, err := e.Evaluate(f, params)
		if err != nil {
			return nil, fmt.Errorf("sweep point %d (%s=%g): %w", i, varying, v, err)
		}
		result.Points = append(result.Points, Point{Value: v, Output: out})
	}

	e.logger.Debug("swept", "formula", f.Name, "param", varying, "points", len(values))
	return result, nil
}

// SweepCoScaled evaluates f at each scale factor s, setting every parameter
// named in scaling to base[name] * s^exponent. Parameters not in scaling,
// or with exponent 0, keep their base value. The Value of each point is s.
func (e *Evaluator) SweepCoScaled(f Formula, scaling map[string]float64, factors []float64, base Params) (*SweepResult, error) {
	if len(factors) == 0 {
		err := NewInputError(ErrCodeEmptySequence, "co-scaled sweep needs at least one factor")
		err.Formula = f.Name
		return nil, err
	}
	if len(scaling) == 0 {
		err := NewInputError(ErrCodeEmptySequence, "co-scaled sweep needs at least one scaled parameter")
		err.Formula = f.Name
		return nil, err
	}
	names := Params(scaling).Names()
	for _, name := range names {
		if !f.HasParam(name) {
			err := NewInputError(ErrCodeUnknownParameter, "%s has no parameter %q", f.Signature(), name)
			err.Formula = f.Name
			err.Param = name
			return nil, err
		}
		if _, ok := base[name]; !ok {
			return nil, MissingParameter(f.Name, name)
		}
	}

	result := &SweepResult{Formula: f.Name, Param: "scale", Points: make([]Point, 0, len(factors))}
	for i, s := range factors {
		params := base.Clone()
		for _, name := range names {
			if scaling[name] == 0 {
				continue
			}
			k, err := Pow(s, scaling[name])
			if err != nil {
				return nil, fmt.Errorf("co-scaled point %d (scale=%g): %w", i, s, withFormula(err, f.Name))
			}
			params[name] = base[name] * k
		}
		out, err := e.Evaluate(f, params)
		if err != nil {
			return nil, fmt.Errorf("co-scaled point %d (scale=%g): %w", i, s, err)
		}
		result.Points = append(result.Points, Point{Value: s, Output: out})
	}

	e.logger.Debug("co-scaled", "formula", f.Name, "scaling", scaling, "points", len(factors))
	return result, nil
}

// Linspace returns n evenly spaced values from lo to hi inclusive.
func Linspace(lo, hi float64, n int) ([]float64, error) {
	if n < 1 {
		return nil, NewInputError(ErrCodeEmptySequence, "linear spacing needs at least one point, got %d", n)
	}
	if n == 1 {
		return []float64{lo}, nil
	}
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	out[n-1] = hi
	return out, nil
}

// Geomspace returns n geometrically spaced values from lo to hi inclusive.
// Both bounds must be positive.
func Geomspace(lo, hi float64, n int) ([]float64, error) {
	if n < 1 {
		return nil, NewInputError(ErrCodeEmptySequence, "geometric spacing needs at least one point, got %d", n)
	}
	if !(lo > 0) || !(hi > 0) {
		return nil, NewInputError(ErrCodeInvalidParameter, "geometric spacing needs positive bounds, got [%g, %g]", lo, hi)
	}
	if n == 1 {
		return []float64{lo}, nil
	}
	out := make([]float64, n)
	ratio := math.Pow(hi/lo, 1/float64(n-1))
	v := lo
	for i := range out {
		out[i] = v
		v *= ratio
	}
	out[n-1] = hi
	return out, nil
}

// Spread returns max(outputs) - min(outputs) over the sweep.
// An empty result has zero spread.
func Spread(r *SweepResult) float64 {
	if r == nil || len(r.Points) == 0 {
		return 0
	}
	lo, hi := r.Points[0].Output, r.Points[0].Output
	for _, p := range r.Points[1:] {
		lo = math.Min(lo, p.Output)
		hi = math.Max(hi, p.Output)
	}
	return hi - lo
}

// CheckFlatness reports whether the sweep's spread is strictly below tol.
func CheckFlatness(r *SweepResult, tol float64) bool {
	return Spread(r) < tol
}

// RequireFlat returns a ConsistencyError when the sweep is not flat to tol.
func RequireFlat(r *SweepResult, tol float64) error {
	spread := Spread(r)
	if spread < tol {
		return nil
	}
	err := NewConsistencyError(ErrCodeNotFlat, "spread %.6g over %d points is not below tolerance %.3g",
		spread, len(r.Points), tol)
	err.Formula = r.Formula
	err.Param = r.Param
	return err
}

// Agree returns a ConsistencyError when |a-b| exceeds tol.
func Agree(name string, a, b, tol float64) error {
	if math.Abs(a-b) <= tol {
		return nil
	}
	err := NewConsistencyError(ErrCodeMismatch, "%s: %.12g and %.12g differ by %.3g (tolerance %.3g)",
		name, a, b, math.Abs(a-b), tol)
	err.Formula = name
	return err
}
