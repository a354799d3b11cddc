package symbolic

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ubt/internal/evaluator"
)

func TestParseAndSubstitute_AlphaP(t *testing.T) {
	e, err := Parse("1 / (2*pi / ln(p))")
	require.NoError(t, err)

	v, err := Substitute(e, evaluator.Params{"p": 137})
	require.NoError(t, err)
	assert.InDelta(t, 0.783039, v, 1e-6)
	assert.InDelta(t, math.Log(137)/(2*math.Pi), v, 1e-12)
}

func TestSimplify_Forms(t *testing.T) {
	cases := []struct {
		src  string
		want string
	}{
		{"x*y/x", "y"},
		{"2*x + 3*x - x", "4*x"},
		{"x - x", "0"},
		{"sqrt(x)*sqrt(x)", "x"},
		{"ln(exp(a))", "a"},
		{"(a*b)/(b*c)", "a/c"},
		{"(x+1)*(x+1)/(x+1)", "x + 1"},
		{"(2*pi/ln(p)) * (ln(p)/(2*pi))", "1"},
		{"pow(pow(x, 2), 3)", "pow(x, 6)"},
		{"0*x + 5", "5"},
		{"ln(e)", "1"},
		{"exp(0) + ln(1)", "1"},
	}
	for _, tc := range cases {
		t.Run(tc.src, func(t *testing.T) {
			e, err := Parse(tc.src)
			require.NoError(t, err)
			assert.Equal(t, tc.want, Simplify(e).String())
		})
	}
}

func TestSimplify_PreservesValue(t *testing.T) {
	bindings := evaluator.Params{
		"x": 1.7, "y": -0.3, "a": 2.5, "b": 0.4, "c": 9,
		"p": 137, "alpha": 0.0073, "alpha0": 0.0072973525693, "m_e": 0.52, "m_e0": 0.51099895,
	}
	sources := []string{
		"pow(alpha/alpha0, 2) * m_e/m_e0",
		"(x + y)*(x - y) - x*x + y*y",
		"a*b/(b*c) + sqrt(c)*sqrt(c)",
		"2*pi/ln(p) - 1/(ln(p)/(2*pi))",
		"sin(x)*sin(x) + cos(x)*cos(x)",
		"exp(ln(a)) * pow(a, -1)",
		"-(x - a) / (a - x)",
	}
	for _, src := range sources {
		t.Run(src, func(t *testing.T) {
			e := MustParse(src)
			want, err := Substitute(e, bindings)
			require.NoError(t, err)

			simplified := Simplify(e)
			got, err := Substitute(simplified, bindings)
			require.NoError(t, err)
			assert.InDelta(t, want, got, 1e-9)

			reparsed, err := Parse(simplified.String())
			require.NoError(t, err, "simplified form %q must parse", simplified.String())
			again, err := Substitute(reparsed, bindings)
			require.NoError(t, err)
			assert.InDelta(t, want, again, 1e-9)
		})
	}
}

func TestSimplify_Deterministic(t *testing.T) {
	e := MustParse("c*b*a + a*b*c + pow(z, 2)*y")
	first := Simplify(e).String()
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Simplify(MustParse("c*b*a + a*b*c + pow(z, 2)*y")).String())
	}
}

func TestSubstitute_Errors(t *testing.T) {
	_, err := Substitute(MustParse("x + y"), evaluator.Params{"x": 1})
	require.Error(t, err)
	assert.True(t, evaluator.IsInputError(err))
	assert.Contains(t, err.Error(), `"y"`)

	_, err = Substitute(MustParse("ln(x)"), evaluator.Params{"x": -1})
	assert.True(t, evaluator.IsNumericError(err))

	_, err = Substitute(MustParse("1/x"), evaluator.Params{"x": 0})
	assert.True(t, evaluator.IsNumericError(err))

	_, err = Substitute(MustParse("sqrt(x)"), evaluator.Params{"x": -4})
	assert.True(t, evaluator.IsNumericError(err))

	// Domain errors survive simplification instead of folding to NaN.
	_, err = Substitute(Simplify(MustParse("ln(0 - 2)")), nil)
	assert.True(t, evaluator.IsNumericError(err))
}

func TestParse_Errors(t *testing.T) {
	for _, src := range []string{"x +", "foo(x)", "pow(x)", `"s"`, "x % 2", "a.b(1)", "ln(x, y)"} {
		_, err := Parse(src)
		require.Error(t, err, src)
		assert.True(t, evaluator.IsInputError(err), src)
		assert.Equal(t, evaluator.ErrCodeMalformedInput, evaluator.CodeOf(err), src)
	}
}

func TestFreeSymbolsAndBind(t *testing.T) {
	e := MustParse("alpha*m_e + pi*x/alpha")
	assert.Equal(t, []string{"alpha", "m_e", "x"}, FreeSymbols(e))

	partial := Simplify(Bind(MustParse("x*y"), evaluator.Params{"x": 2}))
	assert.Equal(t, "2*y", partial.String())
	assert.Equal(t, []string{"y"}, FreeSymbols(partial))
}

func TestFromExpr(t *testing.T) {
	f := FromExpr("rydberg_expr", MustParse("pow(alpha/alpha0, 2)*(m_e/m_e0)"), nil)
	assert.Equal(t, []string{"alpha", "alpha0", "m_e", "m_e0"}, f.Params)

	base := evaluator.Params{"alpha": 0.0073, "alpha0": 0.0073, "m_e": 0.511, "m_e0": 0.511}
	v, err := evaluator.Evaluate(f, base)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, v, 1e-12)

	factors, err := evaluator.Linspace(0.8, 1.2, 5)
	require.NoError(t, err)
	r, err := evaluator.SweepCoScaled(f, map[string]float64{"alpha": 1, "m_e": -2}, factors, base)
	require.NoError(t, err)
	assert.True(t, evaluator.CheckFlatness(r, 1e-3))

	_, err = evaluator.Evaluate(f, evaluator.Params{"alpha": 1})
	assert.True(t, evaluator.IsInputError(err))
}

func TestFromExpr_EvaluatesOriginalDomain(t *testing.T) {
	cases := []struct {
		src    string
		params evaluator.Params
		code   evaluator.ErrorCode
	}{
		{"sqrt(x)*sqrt(x)", evaluator.Params{"x": -4}, evaluator.ErrCodeDomain},
		{"ln(x) - ln(x)", evaluator.Params{"x": -1}, evaluator.ErrCodeDomain},
		{"x/x", evaluator.Params{"x": 0}, evaluator.ErrCodeDivisionByZero},
	}
	for _, tc := range cases {
		t.Run(tc.src, func(t *testing.T) {
			f := FromExpr("expr", MustParse(tc.src), nil)
			assert.Equal(t, []string{"x"}, f.Params)

			_, err := evaluator.Evaluate(f, tc.params)
			require.Error(t, err)
			assert.True(t, evaluator.IsNumericError(err))
			assert.Equal(t, tc.code, evaluator.CodeOf(err))
		})
	}
}

func TestFromExpr_CancelledSymbolIsRequired(t *testing.T) {
	f := FromExpr("ratio", MustParse("x*y/x"), nil)
	assert.Equal(t, []string{"x", "y"}, f.Params)
	assert.Equal(t, "y", f.Description)

	_, err := evaluator.Evaluate(f, evaluator.Params{"y": 4})
	require.Error(t, err)
	assert.True(t, evaluator.IsInputError(err))
	assert.Equal(t, evaluator.ErrCodeMissingParameter, evaluator.CodeOf(err))

	v, err := evaluator.Evaluate(f, evaluator.Params{"x": 3, "y": 4})
	require.NoError(t, err)
	assert.InDelta(t, 4.0, v, 1e-12)
}

func TestKernelIsSwappable(t *testing.T) {
	var s Simplifier = identity{}
	f := FromExpr("raw", MustParse("x*x/x"), s)
	assert.Equal(t, []string{"x"}, f.Params)
	v, err := evaluator.Evaluate(f, evaluator.Params{"x": 3})
	require.NoError(t, err)
	assert.InDelta(t, 3.0, v, 1e-12)
}

// identity is a Simplifier that never rewrites.
type identity struct{}

func (identity) Simplify(e Expr) Expr { return e }
func (identity) Substitute(e Expr, b evaluator.Params) (float64, error) {
	return Kernel{}.Substitute(e, b)
}
