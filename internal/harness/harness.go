package harness

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"

	"github.com/roach88/ubt/internal/evaluator"
	"github.com/roach88/ubt/internal/physics"
	"github.com/roach88/ubt/internal/symbolic"
)

// Harness runs suites. The zero value is not usable; use New.
type Harness struct {
	eval       *evaluator.Evaluator
	lookup     func(name string) (evaluator.Formula, error)
	simplifier symbolic.Simplifier
	logger     *slog.Logger
}

// Option configures a Harness.
type Option func(*Harness)

// WithLogger sets the logger. Logs are discarded by default.
func WithLogger(l *slog.Logger) Option {
	return func(h *Harness) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithLookup replaces the catalog lookup, so tests can supply formulas.
func WithLookup(lookup func(name string) (evaluator.Formula, error)) Option {
	return func(h *Harness) { h.lookup = lookup }
}

// WithSimplifier replaces the symbolic backend used by simplify checks.
func WithSimplifier(s symbolic.Simplifier) Option {
	return func(h *Harness) { h.simplifier = s }
}

// New creates a harness over the physics catalog.
func New(opts ...Option) *Harness {
	h := &Harness{
		lookup:     physics.Lookup,
		simplifier: symbolic.Default,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.eval = evaluator.New(h.logger)
	return h
}

// Run executes a suite with a default harness.
func Run(suite *Suite) (*Result, error) {
	return New().Run(suite)
}

// Run executes every check of suite in order and returns the result.
//
// Checks are independent: a failing or erroring check is recorded and the
// next one runs. The returned error is non-nil only when the suite itself
// is unusable.
func (h *Harness) Run(suite *Suite) (*Result, error) {
	if suite == nil {
		return nil, fmt.Errorf("suite is nil")
	}
	if err := validateSuite(suite); err != nil {
		return nil, fmt.Errorf("invalid suite: %w", err)
	}

	result := NewResult(suite.Name)
	for i, c := range suite.Checks {
		outcome := h.runCheck(i, c)
		h.logger.Debug("check",
			"suite", suite.Name,
			"check", outcome.Name,
			"status", outcome.Status,
			"observed", outcome.Observed)
		result.Add(outcome)
	}
	return result, nil
}

func (h *Harness) runCheck(index int, c Check) CheckOutcome {
	outcome := CheckOutcome{
		Name:      c.Label(index),
		Type:      c.Type,
		Tolerance: c.Tolerance,
	}

	var formulas []evaluator.Formula
	for _, name := range []string{c.Formula, c.Other} {
		if name == "" {
			continue
		}
		f, err := h.lookup(name)
		if err != nil {
			return outcome.withError(err)
		}
		if f.IsPlaceholder() {
			outcome.Status = StatusIncomplete
			outcome.Message = fmt.Sprintf("%s is a placeholder; its physics is not implemented", f.Name)
			return outcome
		}
		formulas = append(formulas, f)
	}
	if c.Expr != "" && c.Type != CheckSimplify {
		e, err := symbolic.Parse(c.Expr)
		if err != nil {
			return outcome.withError(err)
		}
		formulas = append(formulas, symbolic.FromExpr(outcome.Name, e, h.simplifier))
	}

	var err error
	switch c.Type {
	case CheckFlat, CheckNotFlat:
		err = h.checkFlatness(c, formulas[0], &outcome)
	case CheckValue:
		err = h.checkValue(c, formulas[0], &outcome)
	case CheckAgree:
		err = h.checkPairwise(c, formulas[0], formulas[1], &outcome, func(a, b float64) float64 { return math.Abs(a - b) })
	case CheckRoundtrip:
		err = h.checkPairwise(c, formulas[0], formulas[1], &outcome, func(a, b float64) float64 { return math.Abs(a*b - 1) })
	case CheckSimplify:
		err = h.checkSimplify(c, &outcome)
	default:
		err = evaluator.NewInputError(evaluator.ErrCodeMalformedInput, "unknown check type %q", c.Type)
	}
	if err != nil {
		return outcome.withError(err)
	}
	outcome.Status = StatusPass
	return outcome
}

// withError classifies err: consistency errors fail the check, anything
// else means it could not be evaluated.
func (o CheckOutcome) withError(err error) CheckOutcome {
	o.Status = StatusError
	if evaluator.IsConsistencyError(err) {
		o.Status = StatusFail
	}
	o.Code = evaluator.CodeOf(err)
	o.Message = err.Error()
	return o
}

func (h *Harness) sweep(c Check, f evaluator.Formula) (*evaluator.SweepResult, error) {
	values, err := c.sequence()
	if err != nil {
		return nil, err
	}
	if len(c.Scale) > 0 {
		return h.eval.SweepCoScaled(f, c.Scale, values, c.Params)
	}
	return h.eval.Sweep(f, c.Vary, values, c.Params)
}

func (h *Harness) checkFlatness(c Check, f evaluator.Formula, o *CheckOutcome) error {
	r, err := h.sweep(c, f)
	if err != nil {
		return err
	}
	o.Observed = evaluator.Spread(r)
	if c.Type == CheckFlat {
		return evaluator.RequireFlat(r, c.Tolerance)
	}
	if evaluator.CheckFlatness(r, c.Tolerance) {
		e := evaluator.NewConsistencyError(evaluator.ErrCodeMismatch,
			"spread %.6g over %d points is below tolerance %.3g; expected the sweep to vary",
			o.Observed, len(r.Points), c.Tolerance)
		e.Formula = f.Name
		return e
	}
	return nil
}

func (h *Harness) checkValue(c Check, f evaluator.Formula, o *CheckOutcome) error {
	v, err := h.eval.Evaluate(f, c.Params)
	if err != nil {
		return err
	}
	o.Observed = v
	return tagFormula(evaluator.Agree(f.Name, v, *c.Expect, c.Tolerance), f.Name)
}

// checkPairwise evaluates both formulas at each point and requires
// diff(a, b) to stay within tolerance. Observed is the largest diff.
func (h *Harness) checkPairwise(c Check, f, g evaluator.Formula, o *CheckOutcome, diff func(a, b float64) float64) error {
	var fs, gs []float64
	var xs []float64
	if c.sweeps() {
		rf, err := h.sweep(c, f)
		if err != nil {
			return err
		}
		rg, err := h.sweep(c, g)
		if err != nil {
			return err
		}
		fs, gs = rf.Outputs(), rg.Outputs()
		for _, p := range rf.Points {
			xs = append(xs, p.Value)
		}
	} else {
		a, err := h.eval.Evaluate(f, c.Params)
		if err != nil {
			return err
		}
		b, err := h.eval.Evaluate(g, c.Params)
		if err != nil {
			return err
		}
		fs, gs, xs = []float64{a}, []float64{b}, []float64{math.NaN()}
	}

	var firstErr error
	for i := range fs {
		d := diff(fs[i], gs[i])
		if math.IsNaN(d) || d > o.Observed {
			o.Observed = d
		}
		if firstErr == nil && !(d <= c.Tolerance) {
			what := fmt.Sprintf("%s vs %s", f.Name, g.Name)
			if !math.IsNaN(xs[i]) {
				what = fmt.Sprintf("%s at %s=%g", what, c.Vary, xs[i])
			}
			e := evaluator.NewConsistencyError(evaluator.ErrCodeMismatch,
				"%s: %s differs by %.6g, tolerance %.3g", c.Type, what, d, c.Tolerance)
			e.Formula = f.Name
			firstErr = e
		}
	}
	return firstErr
}

func (h *Harness) checkSimplify(c Check, o *CheckOutcome) error {
	e, err := symbolic.Parse(c.Expr)
	if err != nil {
		return err
	}
	simplified := h.simplifier.Simplify(e)
	o.Simplified = simplified.String()

	before, err := h.simplifier.Substitute(e, c.Params)
	if err != nil {
		return err
	}
	after, err := h.simplifier.Substitute(simplified, c.Params)
	if err != nil {
		return err
	}
	o.Observed = after

	if err := evaluator.Agree("simplified "+c.Expr, after, before, c.Tolerance); err != nil {
		return err
	}
	return evaluator.Agree(c.Expr, after, *c.Expect, c.Tolerance)
}

func tagFormula(err error, name string) error {
	var e *evaluator.Error
	if errors.As(err, &e) && e.Formula == "" {
		e.Formula = name
	}
	return err
}
