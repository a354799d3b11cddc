package harness

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ubt/internal/evaluator"
	"github.com/roach88/ubt/internal/physics"
	"github.com/roach88/ubt/internal/symbolic"
)

func ptr(v float64) *float64 { return &v }

var codata = map[string]float64{"alpha": physics.Alpha0, "m_e": physics.ElectronMass}

func TestRun_FlatnessDiscriminates(t *testing.T) {
	suite := &Suite{
		Name:        "discrimination",
		Description: "flat passes on the co-scaled sweep and fails on alpha alone",
		Checks: []Check{
			{
				Name: "co-scaled", Type: CheckFlat, Formula: "rydberg_rel", Params: codata,
				Scale: physics.RydbergCoScaling(), Range: &Range{From: 0.9, To: 1.1, Steps: 5}, Tolerance: 1e-3,
			},
			{
				Name: "alpha alone", Type: CheckFlat, Formula: "rydberg_rel", Params: codata,
				Vary: "alpha", Range: &Range{From: 0.0065, To: 0.008, Steps: 5}, Tolerance: 1e-3,
			},
		},
	}

	result, err := Run(suite)
	require.NoError(t, err)
	require.Len(t, result.Checks, 2)

	assert.Equal(t, StatusPass, result.Checks[0].Status)
	assert.Less(t, result.Checks[0].Observed, 1e-3)

	broken := result.Checks[1]
	assert.Equal(t, StatusFail, broken.Status)
	assert.Equal(t, evaluator.ErrCodeNotFlat, broken.Code)
	assert.Greater(t, broken.Observed, 1e-3)
	assert.Contains(t, broken.Message, "rydberg_rel")

	assert.False(t, result.Pass)
	assert.Equal(t, 1, result.Passed)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "alpha alone: ")
}

func TestRun_NotFlatFailsOnFlatSweep(t *testing.T) {
	suite := &Suite{
		Name:        "not_flat",
		Description: "not_flat must fail on an invariant sweep",
		Checks: []Check{{
			Type: CheckNotFlat, Formula: "rydberg_rel", Params: codata,
			Scale: physics.RydbergCoScaling(), Values: []float64{0.9, 1, 1.1}, Tolerance: 1e-3,
		}},
	}
	result, err := Run(suite)
	require.NoError(t, err)
	assert.Equal(t, StatusFail, result.Checks[0].Status)
	assert.Equal(t, evaluator.ErrCodeMismatch, result.Checks[0].Code)
}

func TestRun_ValueAndErrors(t *testing.T) {
	suite := &Suite{
		Name:        "values",
		Description: "value checks, evaluation errors and placeholders",
		Checks: []Check{
			{Name: "alpha_p", Type: CheckValue, Formula: "alpha_p", Params: map[string]float64{"p": 137}, Expect: ptr(0.783039), Tolerance: 1e-6},
			{Name: "wrong", Type: CheckValue, Formula: "alpha_p", Params: map[string]float64{"p": 137}, Expect: ptr(0.127343), Tolerance: 1e-6},
			{Name: "missing", Type: CheckValue, Formula: "alpha_p", Params: map[string]float64{"q": 137}, Expect: ptr(1), Tolerance: 1e-6},
			{Name: "landau", Type: CheckValue, Formula: "alpha_run_1loop",
				Params: map[string]float64{"alpha0": physics.Alpha0, "mu": 1e300, "mu0": physics.ElectronMass, "nf": 1},
				Expect: ptr(0), Tolerance: 1},
			{Name: "unknown", Type: CheckValue, Formula: "no_such_formula", Expect: ptr(0), Tolerance: 1},
			{Name: "stub", Type: CheckValue, Formula: "biquaternion_phase", Params: map[string]float64{"theta": 0}, Expect: ptr(1), Tolerance: 1e-12},
		},
	}

	result, err := Run(suite)
	require.NoError(t, err)
	require.Len(t, result.Checks, 6)

	statuses := make(map[string]Status)
	codes := make(map[string]evaluator.ErrorCode)
	for _, c := range result.Checks {
		statuses[c.Name] = c.Status
		codes[c.Name] = c.Code
	}

	assert.Equal(t, StatusPass, statuses["alpha_p"])
	assert.Equal(t, StatusFail, statuses["wrong"])
	assert.Equal(t, evaluator.ErrCodeMismatch, codes["wrong"])
	assert.Equal(t, StatusError, statuses["missing"])
	assert.Equal(t, evaluator.ErrCodeMissingParameter, codes["missing"])
	assert.Equal(t, StatusError, statuses["landau"])
	assert.Equal(t, evaluator.ErrCodeDomain, codes["landau"])
	assert.Equal(t, StatusError, statuses["unknown"])
	assert.Equal(t, evaluator.ErrCodeUnknownFormula, codes["unknown"])
	assert.Equal(t, StatusIncomplete, statuses["stub"])

	assert.False(t, result.Pass)
	assert.Equal(t, 1, result.Passed)
	assert.Equal(t, 4, result.Failed)
	assert.Equal(t, 1, result.Incomplete)
}

func TestRun_IncompleteDoesNotFail(t *testing.T) {
	suite := &Suite{
		Name:        "stub_only",
		Description: "a suite of placeholders passes vacuously but reports incomplete",
		Checks: []Check{
			{Type: CheckAgree, Formula: "alpha_p", Other: "biquaternion_phase", Params: map[string]float64{"p": 2, "theta": 0}, Tolerance: 1},
		},
	}
	result, err := Run(suite)
	require.NoError(t, err)
	assert.True(t, result.Pass)
	assert.Equal(t, 0, result.Passed)
	assert.Equal(t, 1, result.Incomplete)
	assert.Contains(t, result.Checks[0].Message, "biquaternion_phase")
}

func TestRun_AgreeAndRoundtrip(t *testing.T) {
	suite := &Suite{
		Name:        "pairs",
		Description: "pairwise checks",
		Checks: []Check{
			{Name: "roundtrip", Type: CheckRoundtrip, Formula: "alpha_p", Other: "inv_alpha_p",
				Vary: "p", Values: []float64{2, 3, 5, 137}, Tolerance: 1e-12},
			{Name: "self", Type: CheckAgree, Formula: "alpha_p", Other: "alpha_p",
				Params: map[string]float64{"p": 7}, Tolerance: 1e-15},
			{Name: "disagree", Type: CheckAgree, Formula: "alpha_p", Other: "inv_alpha_p",
				Vary: "p", Values: []float64{2, 3}, Tolerance: 1e-3},
		},
	}
	result, err := Run(suite)
	require.NoError(t, err)

	assert.Equal(t, StatusPass, result.Checks[0].Status)
	assert.Less(t, result.Checks[0].Observed, 1e-12)
	assert.Equal(t, StatusPass, result.Checks[1].Status)

	disagree := result.Checks[2]
	assert.Equal(t, StatusFail, disagree.Status)
	assert.Contains(t, disagree.Message, "p=2")
}

func TestRun_Simplify(t *testing.T) {
	suite := &Suite{
		Name:        "symbolic",
		Description: "simplify checks",
		Checks: []Check{
			{Name: "cancel", Type: CheckSimplify, Expr: "x*y/x", Params: map[string]float64{"x": 3, "y": 4}, Expect: ptr(4), Tolerance: 1e-12},
			{Name: "unbound", Type: CheckSimplify, Expr: "x + y", Params: map[string]float64{"x": 1}, Expect: ptr(1), Tolerance: 1e-12},
			{Name: "syntax", Type: CheckSimplify, Expr: "x +", Expect: ptr(1), Tolerance: 1e-12},
		},
	}
	result, err := Run(suite)
	require.NoError(t, err)

	assert.Equal(t, StatusPass, result.Checks[0].Status)
	assert.Equal(t, "y", result.Checks[0].Simplified)
	assert.Equal(t, 4.0, result.Checks[0].Observed)

	assert.Equal(t, StatusError, result.Checks[1].Status)
	assert.Equal(t, evaluator.ErrCodeMissingParameter, result.Checks[1].Code)
	assert.Equal(t, evaluator.ErrCodeMalformedInput, result.Checks[2].Code)
}

func TestRun_ExprChecks(t *testing.T) {
	suite := &Suite{
		Name:        "expressions",
		Description: "checks over parsed expressions",
		Checks: []Check{
			{Name: "alpha_p literal", Type: CheckValue, Expr: "ln(p)/(2*pi)", Params: map[string]float64{"p": 137}, Expect: ptr(0.783039), Tolerance: 1e-6},
			{Name: "rydberg co-scaling", Type: CheckFlat, Expr: "pow(alpha, 2)*m_e",
				Scale: map[string]float64{"alpha": 1, "m_e": -2}, Params: map[string]float64{"alpha": 0.0073, "m_e": 0.511},
				Values: []float64{0.9, 1, 1.1}, Tolerance: 1e-9},
			{Name: "varies", Type: CheckNotFlat, Expr: "ln(p)", Vary: "p", Values: []float64{2, 3, 5}, Tolerance: 1e-3},
			{Name: "cancelled domain", Type: CheckValue, Expr: "x/x", Params: map[string]float64{"x": 0}, Expect: ptr(1), Tolerance: 1e-12},
			{Name: "cancelled symbol", Type: CheckValue, Expr: "x*y/x", Params: map[string]float64{"y": 4}, Expect: ptr(4), Tolerance: 1e-12},
			{Name: "syntax", Type: CheckValue, Expr: "x +", Params: map[string]float64{"x": 1}, Expect: ptr(1), Tolerance: 1e-12},
		},
	}
	result, err := Run(suite)
	require.NoError(t, err)
	require.Len(t, result.Checks, 6)

	for _, c := range result.Checks[:3] {
		assert.Equal(t, StatusPass, c.Status, c.Name)
	}
	assert.InDelta(t, 0.783039, result.Checks[0].Observed, 1e-6)

	assert.Equal(t, StatusError, result.Checks[3].Status)
	assert.Equal(t, evaluator.ErrCodeDivisionByZero, result.Checks[3].Code)
	assert.Equal(t, StatusError, result.Checks[4].Status)
	assert.Equal(t, evaluator.ErrCodeMissingParameter, result.Checks[4].Code)
	assert.Equal(t, evaluator.ErrCodeMalformedInput, result.Checks[5].Code)
}

func TestHarness_Options(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	double := evaluator.Formula{
		Name:   "double",
		Params: []string{"x"},
		Fn:     func(p evaluator.Params) (float64, error) { return 2 * p["x"], nil },
	}
	lookup := func(name string) (evaluator.Formula, error) {
		if name == "double" {
			return double, nil
		}
		return physics.Lookup(name)
	}

	h := New(WithLogger(logger), WithLookup(lookup), WithSimplifier(symbolic.Kernel{}))
	result, err := h.Run(&Suite{
		Name:        "custom",
		Description: "custom lookup",
		Checks: []Check{
			{Name: "double", Type: CheckValue, Formula: "double", Params: map[string]float64{"x": 2}, Expect: ptr(4), Tolerance: 1e-12},
		},
	})
	require.NoError(t, err)
	assert.True(t, result.Pass)
	assert.Contains(t, logs.String(), "check=double")
}

func TestRun_InvalidSuite(t *testing.T) {
	_, err := Run(nil)
	assert.Error(t, err)

	_, err = Run(&Suite{Name: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "description is required")
}
