// Package physics is the catalog of closed-form physical-constant formulas.
//
// Every formula is an evaluator.Formula: pure, named, and evaluated through
// the guarded arithmetic in package evaluator so out-of-domain inputs fail
// with a NumericError rather than yielding NaN.
package physics

import (
	"math"
	"sort"

	"github.com/roach88/ubt/internal/evaluator"
)

var catalog = map[string]evaluator.Formula{}

func register(f evaluator.Formula) {
	if f.Status == "" {
		f.Status = evaluator.Implemented
	}
	if _, dup := catalog[f.Name]; dup {
		panic("physics: duplicate formula " + f.Name)
	}
	catalog[f.Name] = f
}

// Lookup returns the formula registered under name.
func Lookup(name string) (evaluator.Formula, error) {
	f, ok := catalog[name]
	if !ok {
		err := evaluator.NewInputError(evaluator.ErrCodeUnknownFormula, "no formula named %q", name)
		err.Formula = name
		return evaluator.Formula{}, err
	}
	return f, nil
}

// MustLookup is Lookup for names known at compile time.
func MustLookup(name string) evaluator.Formula {
	f, err := Lookup(name)
	if err != nil {
		panic(err)
	}
	return f
}

// Names returns all registered formula names, sorted.
func Names() []string {
	names := make([]string, 0, len(catalog))
	for name := range catalog {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns every registered formula, sorted by name.
func All() []evaluator.Formula {
	out := make([]evaluator.Formula, 0, len(catalog))
	for _, name := range Names() {
		out = append(out, catalog[name])
	}
	return out
}

func init() {
	register(evaluator.Formula{
		Name:        "alpha_p",
		Params:      []string{"p"},
		Fn:          AlphaP,
		Description: "prime-indexed coupling ln(p)/(2π)",
	})
	register(evaluator.Formula{
		Name:        "inv_alpha_p",
		Params:      []string{"p"},
		Fn:          InvAlphaP,
		Description: "inverse prime-indexed coupling 2π/ln(p)",
	})
	register(evaluator.Formula{
		Name:        "rydberg_rel",
		Params:      []string{"alpha", "m_e"},
		Fn:          RydbergRel,
		Description: "Rydberg energy relative to its CODATA value, (α/α₀)²(mₑ/mₑ₀)",
	})
	register(evaluator.Formula{
		Name:        "thomson_rel",
		Params:      []string{"alpha", "m_e"},
		Fn:          ThomsonRel,
		Description: "Thomson cross-section relative to its CODATA value, (α/α₀)²(mₑ₀/mₑ)²",
	})
	register(evaluator.Formula{
		Name:        "alpha_run_1loop",
		Params:      []string{"alpha0", "mu", "mu0", "nf"},
		Fn:          AlphaRunOneLoop,
		Description: "one-loop QED running coupling α(μ) from α(μ₀) with nf unit-charge leptons",
	})
	register(evaluator.Formula{
		Name:        "alpha_run_2loop",
		Params:      []string{"alpha0", "mu", "mu0", "nf"},
		Fn:          AlphaRunTwoLoop,
		Description: "two-loop QED running coupling, one-loop iterated into the b₁ term",
	})
	register(evaluator.Formula{
		Name:        "pole_mass",
		Params:      []string{"m_msbar", "mu", "alpha"},
		Fn:          PoleMass,
		Description: "one-loop QED pole mass from the MS-bar mass at scale μ",
	})
	register(evaluator.Formula{
		Name:        "lepton_ratio",
		Params:      []string{"m_a", "m_b"},
		Fn:          LeptonRatio,
		Description: "mass ratio m_a/m_b",
	})
	register(evaluator.Formula{
		Name:        "koide_q",
		Params:      []string{"m_e", "m_mu", "m_tau"},
		Fn:          KoideQ,
		Description: "Koide ratio (Σm)/(Σ√m)², 2/3 for the charged leptons",
	})
	register(evaluator.Formula{
		Name:        "biquaternion_phase",
		Params:      []string{"theta"},
		Fn:          BiquaternionPhase,
		Status:      evaluator.Placeholder,
		Description: "norm of the biquaternion phase factor; returns 1 until the phase model exists",
	})
}

// AlphaP is ln(p)/(2π). p must exceed 1 so that the inverse exists.
func AlphaP(p evaluator.Params) (float64, error) {
	inv, err := InvAlphaP(p)
	if err != nil {
		return 0, err
	}
	return evaluator.Div(1, inv)
}

// InvAlphaP is 2π/ln(p).
func InvAlphaP(p evaluator.Params) (float64, error) {
	if !(p["p"] > 1) {
		err := evaluator.NewNumericError(evaluator.ErrCodeDomain, "prime index must exceed 1, got %g", p["p"])
		err.Param = "p"
		return 0, err
	}
	lnp, err := evaluator.Log(p["p"])
	if err != nil {
		return 0, err
	}
	return evaluator.Div(2*math.Pi, lnp)
}

func relativeMass(m float64) (float64, error) {
	if !(m > 0) {
		err := evaluator.NewNumericError(evaluator.ErrCodeDomain, "electron mass must be positive, got %g", m)
		err.Param = "m_e"
		return 0, err
	}
	return m / ElectronMass, nil
}

// RydbergRel is R∞(α, mₑ)/R∞(α₀, mₑ₀) = (α/α₀)² (mₑ/mₑ₀).
func RydbergRel(p evaluator.Params) (float64, error) {
	m, err := relativeMass(p["m_e"])
	if err != nil {
		return 0, err
	}
	a := p["alpha"] / Alpha0
	return a * a * m, nil
}

// ThomsonRel is σ_T(α, mₑ)/σ_T(α₀, mₑ₀) = (α/α₀)² (mₑ₀/mₑ)².
func ThomsonRel(p evaluator.Params) (float64, error) {
	m, err := relativeMass(p["m_e"])
	if err != nil {
		return 0, err
	}
	a := p["alpha"] / Alpha0
	return evaluator.Div(a*a, m*m)
}

// runningInputs validates the shared inputs of the running-coupling
// formulas and returns b₀ and t = ln(μ/μ₀).
func runningInputs(p evaluator.Params) (b0, t float64, err error) {
	if !(p["alpha0"] > 0) {
		e := evaluator.NewNumericError(evaluator.ErrCodeDomain, "alpha0 must be positive, got %g", p["alpha0"])
		e.Param = "alpha0"
		return 0, 0, e
	}
	if !(p["nf"] > 0) {
		e := evaluator.NewNumericError(evaluator.ErrCodeDomain, "nf must be positive, got %g", p["nf"])
		e.Param = "nf"
		return 0, 0, e
	}
	ratio, err := evaluator.Div(p["mu"], p["mu0"])
	if err != nil {
		return 0, 0, err
	}
	t, err = evaluator.Log(ratio)
	if err != nil {
		return 0, 0, err
	}
	return 2 * p["nf"] / (3 * math.Pi), t, nil
}

// AlphaRunOneLoop is α(μ) = 1 / (1/α₀ - b₀ ln(μ/μ₀)), b₀ = 2nf/(3π).
// Reaching or passing the Landau pole is a NumericError.
func AlphaRunOneLoop(p evaluator.Params) (float64, error) {
	b0, t, err := runningInputs(p)
	if err != nil {
		return 0, err
	}
	inv := 1/p["alpha0"] - b0*t
	if !(inv > 0) {
		return 0, evaluator.NewNumericError(evaluator.ErrCodeDomain,
			"scale %g is at or beyond the Landau pole (1/α = %g)", p["mu"], inv)
	}
	return evaluator.Div(1, inv)
}

// AlphaRunTwoLoop solves dα/dt = b₀α² + b₁α³ with the one-loop solution
// substituted into the b₁ term:
//
//	1/α(μ) = 1/α₀ - b₀t + (b₁/b₀) ln(1 - b₀α₀t),  b₁ = nf/(2π²)
func AlphaRunTwoLoop(p evaluator.Params) (float64, error) {
	b0, t, err := runningInputs(p)
	if err != nil {
		return 0, err
	}
	b1 := p["nf"] / (2 * math.Pi * math.Pi)
	x := 1 - b0*p["alpha0"]*t
	lx, err := evaluator.Log(x)
	if err != nil {
		return 0, evaluator.NewNumericError(evaluator.ErrCodeDomain,
			"scale %g is at or beyond the one-loop Landau pole", p["mu"])
	}
	inv := 1/p["alpha0"] - b0*t + (b1/b0)*lx
	if !(inv > 0) {
		return 0, evaluator.NewNumericError(evaluator.ErrCodeDomain,
			"scale %g is at or beyond the two-loop Landau pole (1/α = %g)", p["mu"], inv)
	}
	return evaluator.Div(1, inv)
}

// PoleMass is m̄(μ) (1 + (α/π)(1 + ¾ ln(μ²/m̄²))).
func PoleMass(p evaluator.Params) (float64, error) {
	m := p["m_msbar"]
	if !(m > 0) {
		e := evaluator.NewNumericError(evaluator.ErrCodeDomain, "MS-bar mass must be positive, got %g", m)
		e.Param = "m_msbar"
		return 0, e
	}
	if !(p["mu"] > 0) {
		e := evaluator.NewNumericError(evaluator.ErrCodeDomain, "renormalization scale must be positive, got %g", p["mu"])
		e.Param = "mu"
		return 0, e
	}
	r, err := evaluator.Div(p["mu"], m)
	if err != nil {
		return 0, err
	}
	l, err := evaluator.Log(r * r)
	if err != nil {
		return 0, err
	}
	return m * (1 + (p["alpha"]/math.Pi)*(1+0.75*l)), nil
}

// LeptonRatio is m_a/m_b.
func LeptonRatio(p evaluator.Params) (float64, error) {
	return evaluator.Div(p["m_a"], p["m_b"])
}

// KoideQ is (mₑ + m_μ + m_τ) / (√mₑ + √m_μ + √m_τ)².
func KoideQ(p evaluator.Params) (float64, error) {
	var sum, roots float64
	for _, name := range []string{"m_e", "m_mu", "m_tau"} {
		r, err := evaluator.Sqrt(p[name])
		if err != nil {
			return 0, err
		}
		sum += p[name]
		roots += r
	}
	return evaluator.Div(sum, roots*roots)
}

// BiquaternionPhase is a placeholder: the phase model has not been
// derived, so the norm is reported as exactly 1 for every θ.
func BiquaternionPhase(evaluator.Params) (float64, error) {
	return 1, nil
}
