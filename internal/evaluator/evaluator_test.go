package evaluator

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func linear() Formula {
	return Formula{
		Name:   "linear",
		Params: []string{"a", "x"},
		Fn: func(p Params) (float64, error) {
			return p["a"] * p["x"], nil
		},
	}
}

func reciprocal() Formula {
	return Formula{
		Name:   "reciprocal",
		Params: []string{"x"},
		Fn: func(p Params) (float64, error) {
			return Div(1, p["x"])
		},
	}
}

func TestEvaluate(t *testing.T) {
	v, err := Evaluate(linear(), Params{"a": 2, "x": 3.5})
	require.NoError(t, err)
	assert.Equal(t, 7.0, v)
}

func TestEvaluate_IgnoresExtraParams(t *testing.T) {
	v, err := Evaluate(linear(), Params{"a": 2, "x": 1, "unused": 99})
	require.NoError(t, err)
	assert.Equal(t, 2.0, v)
}

func TestEvaluate_MissingParameter(t *testing.T) {
	cases := []Params{
		{},
		{"a": 1},
		{"x": 1},
		{"b": 1, "y": 2},
	}
	for _, params := range cases {
		v, err := Evaluate(linear(), params)
		require.Error(t, err, "params %v", params)
		assert.True(t, IsInputError(err))
		assert.Equal(t, ErrCodeMissingParameter, CodeOf(err))
		assert.Zero(t, v)

		var e *Error
		require.True(t, errors.As(err, &e))
		assert.Equal(t, "linear", e.Formula)
		assert.Contains(t, []string{"a", "x"}, e.Param)
	}
}

func TestEvaluate_NonFiniteInput(t *testing.T) {
	_, err := Evaluate(linear(), Params{"a": math.NaN(), "x": 1})
	require.Error(t, err)
	assert.True(t, IsInputError(err))
	assert.Equal(t, ErrCodeInvalidParameter, CodeOf(err))
}

func TestEvaluate_NumericError(t *testing.T) {
	_, err := Evaluate(reciprocal(), Params{"x": 0})
	require.Error(t, err)
	assert.True(t, IsNumericError(err))
	assert.Equal(t, ErrCodeDivisionByZero, CodeOf(err))
	assert.Contains(t, err.Error(), "formula=reciprocal")
}

func TestEvaluate_NonFiniteResult(t *testing.T) {
	f := Formula{Name: "blowup", Params: []string{"x"}, Fn: func(p Params) (float64, error) {
		return math.Exp(p["x"]), nil
	}}
	_, err := Evaluate(f, Params{"x": 1e6})
	require.Error(t, err)
	assert.True(t, IsNumericError(err))
	assert.Equal(t, ErrCodeNonFinite, CodeOf(err))
}

func TestEvaluate_DoesNotMutateParams(t *testing.T) {
	params := Params{"a": 1, "x": 2}
	_, err := Sweep(linear(), "x", []float64{5, 6}, params)
	require.NoError(t, err)
	assert.Equal(t, Params{"a": 1, "x": 2}, params)
}

func TestSweep_PreservesOrder(t *testing.T) {
	values := []float64{3, 1, 2, -4}
	r, err := Sweep(linear(), "x", values, Params{"a": 10})
	require.NoError(t, err)

	want := &SweepResult{
		Formula: "linear",
		Param:   "x",
		Points: []Point{
			{Value: 3, Output: 30},
			{Value: 1, Output: 10},
			{Value: 2, Output: 20},
			{Value: -4, Output: -40},
		},
	}
	if diff := cmp.Diff(want, r); diff != "" {
		t.Errorf("sweep mismatch (-want +got):\n%s", diff)
	}
}

func TestSweep_EmptySequence(t *testing.T) {
	_, err := Sweep(linear(), "x", nil, Params{"a": 1})
	require.Error(t, err)
	assert.True(t, IsInputError(err))
	assert.Equal(t, ErrCodeEmptySequence, CodeOf(err))
}

func TestSweep_UnknownParameter(t *testing.T) {
	_, err := Sweep(linear(), "z", []float64{1}, Params{"a": 1})
	require.Error(t, err)
	assert.Equal(t, ErrCodeUnknownParameter, CodeOf(err))
}

func TestSweep_FailingPoint(t *testing.T) {
	_, err := Sweep(reciprocal(), "x", []float64{2, 1, 0, 3}, nil)
	require.Error(t, err)
	assert.True(t, IsNumericError(err))
	assert.Contains(t, err.Error(), "sweep point 2")
}

func TestSweepCoScaled(t *testing.T) {
	ratio := Formula{Name: "ratio", Params: []string{"a", "b"}, Fn: func(p Params) (float64, error) {
		return Div(p["a"]*p["a"], p["b"])
	}}
	factors := []float64{0.5, 1, 2, 4}

	flat, err := SweepCoScaled(ratio, map[string]float64{"a": 1, "b": 2}, factors, Params{"a": 3, "b": 9})
	require.NoError(t, err)
	require.Len(t, flat.Points, 4)
	for i, p := range flat.Points {
		assert.Equal(t, factors[i], p.Value)
		assert.InDelta(t, 1.0, p.Output, 1e-12)
	}
	assert.True(t, CheckFlatness(flat, 1e-9))

	skewed, err := SweepCoScaled(ratio, map[string]float64{"a": 1}, factors, Params{"a": 3, "b": 9})
	require.NoError(t, err)
	assert.False(t, CheckFlatness(skewed, 1e-3))
}

func TestSweepCoScaled_ZeroExponentKeepsBase(t *testing.T) {
	ratio := Formula{Name: "ratio", Params: []string{"a", "b"}, Fn: func(p Params) (float64, error) {
		return Div(p["a"]*p["a"], p["b"])
	}}
	factors := []float64{0, 1, 2}

	held, err := SweepCoScaled(ratio, map[string]float64{"a": 0}, factors, Params{"a": 3, "b": 9})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 1, 1}, held.Outputs())

	mixed, err := SweepCoScaled(ratio, map[string]float64{"a": 1, "b": 0}, factors, Params{"a": 3, "b": 9})
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1, 4}, mixed.Outputs())

	_, err = SweepCoScaled(ratio, map[string]float64{"a": 1, "b": -1}, factors, Params{"a": 3, "b": 9})
	assert.Equal(t, ErrCodeDivisionByZero, CodeOf(err))
}

func TestSweepCoScaled_Errors(t *testing.T) {
	_, err := SweepCoScaled(linear(), map[string]float64{"a": 1}, nil, Params{"a": 1, "x": 1})
	assert.Equal(t, ErrCodeEmptySequence, CodeOf(err))

	_, err = SweepCoScaled(linear(), nil, []float64{1}, Params{"a": 1, "x": 1})
	assert.Equal(t, ErrCodeEmptySequence, CodeOf(err))

	_, err = SweepCoScaled(linear(), map[string]float64{"q": 1}, []float64{1}, Params{"a": 1, "x": 1})
	assert.Equal(t, ErrCodeUnknownParameter, CodeOf(err))

	_, err = SweepCoScaled(linear(), map[string]float64{"a": 1}, []float64{1}, Params{"x": 1})
	assert.Equal(t, ErrCodeMissingParameter, CodeOf(err))
}

func TestLinspace(t *testing.T) {
	v, err := Linspace(0, 1, 5)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0.25, 0.5, 0.75, 1}, v)

	v, err = Linspace(2, 9, 1)
	require.NoError(t, err)
	assert.Equal(t, []float64{2}, v)

	_, err = Linspace(0, 1, 0)
	assert.True(t, IsInputError(err))
}

func TestGeomspace(t *testing.T) {
	v, err := Geomspace(1, 1000, 4)
	require.NoError(t, err)
	require.Len(t, v, 4)
	for i, want := range []float64{1, 10, 100, 1000} {
		assert.InEpsilon(t, want, v[i], 1e-12)
	}

	_, err = Geomspace(0, 10, 3)
	assert.True(t, IsInputError(err))
	_, err = Geomspace(1, 10, 0)
	assert.True(t, IsInputError(err))
}

func TestSpreadAndFlatness(t *testing.T) {
	r := &SweepResult{Points: []Point{{1, 2}, {2, 2.0005}, {3, 1.9999}}}
	assert.InDelta(t, 0.0006, Spread(r), 1e-12)
	assert.True(t, CheckFlatness(r, 1e-3))
	assert.False(t, CheckFlatness(r, 1e-4))
	assert.NoError(t, RequireFlat(r, 1e-3))

	err := RequireFlat(r, 1e-4)
	require.Error(t, err)
	assert.True(t, IsConsistencyError(err))
	assert.Equal(t, ErrCodeNotFlat, CodeOf(err))

	assert.Zero(t, Spread(&SweepResult{}))
}

func TestAgree(t *testing.T) {
	assert.NoError(t, Agree("same", 1.0, 1.0+1e-13, 1e-12))

	err := Agree("different", 1.0, 1.1, 1e-12)
	require.Error(t, err)
	assert.True(t, IsConsistencyError(err))
	assert.Equal(t, ErrCodeMismatch, CodeOf(err))

	assert.Error(t, Agree("nan", math.NaN(), 1, 1))
}

func TestGuards(t *testing.T) {
	_, err := Log(0)
	assert.True(t, IsNumericError(err))
	_, err = Log(-1)
	assert.Equal(t, ErrCodeDomain, CodeOf(err))
	_, err = Sqrt(-1e-9)
	assert.Equal(t, ErrCodeDomain, CodeOf(err))
	_, err = Pow(-8, 0.5)
	assert.Equal(t, ErrCodeDomain, CodeOf(err))
	_, err = Pow(0, -1)
	assert.Equal(t, ErrCodeDivisionByZero, CodeOf(err))

	v, err := Pow(-2, 3)
	require.NoError(t, err)
	assert.Equal(t, -8.0, v)

	v, err = Sqrt(0)
	require.NoError(t, err)
	assert.Zero(t, v)
}

func TestErrorMessage(t *testing.T) {
	err := MissingCell(2, "alpha_mu")
	assert.Equal(t, `InputError MISSING_COLUMN: row 2 has no value for column "alpha_mu" (row=2, column=alpha_mu)`, err.Error())

	plain := NewNumericError(ErrCodeDomain, "bad")
	assert.Equal(t, "NumericError DOMAIN: bad", plain.Error())
}
