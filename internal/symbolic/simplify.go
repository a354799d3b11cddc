package symbolic

import (
	"math"
	"sort"
)

// maxPasses bounds the fixpoint iteration in Kernel.Simplify.
const maxPasses = 8

func (a Add) simplify() Expr {
	var flat []Expr
	for _, t := range a.Terms {
		s := t.simplify()
		if inner, ok := s.(Add); ok {
			flat = append(flat, inner.Terms...)
		} else {
			flat = append(flat, s)
		}
	}

	constant := 0.0
	coeffs := map[string]float64{}
	rests := map[string]Expr{}
	var keys []string
	for _, t := range flat {
		if n, ok := t.(Num); ok {
			constant += n.V
			continue
		}
		c, rest := splitCoeff(t)
		key := rest.String()
		if _, seen := rests[key]; !seen {
			rests[key] = rest
			keys = append(keys, key)
		}
		coeffs[key] += c
	}
	sort.Strings(keys)

	var terms []Expr
	for _, key := range keys {
		if c := coeffs[key]; c != 0 {
			terms = append(terms, scale(c, rests[key]))
		}
	}
	if constant != 0 || len(terms) == 0 {
		terms = append(terms, Num{V: constant})
	}
	if len(terms) == 1 {
		return terms[0]
	}
	return Add{Terms: terms}
}

// splitCoeff separates a term into its numeric coefficient and the rest.
func splitCoeff(t Expr) (float64, Expr) {
	m, ok := t.(Mul)
	if !ok || len(m.Factors) < 2 {
		return 1, t
	}
	n, ok := m.Factors[0].(Num)
	if !ok {
		return 1, t
	}
	if len(m.Factors) == 2 {
		return n.V, m.Factors[1]
	}
	return n.V, Mul{Factors: m.Factors[1:]}
}

// scale multiplies an already simplified, coefficient-free term by c.
func scale(c float64, e Expr) Expr {
	if c == 1 {
		return e
	}
	if m, ok := e.(Mul); ok {
		return Mul{Factors: append([]Expr{Num{V: c}}, m.Factors...)}
	}
	return Mul{Factors: []Expr{Num{V: c}, e}}
}

func (m Mul) simplify() Expr {
	coeff := 1.0
	var flat []Expr
	for _, f := range m.Factors {
		s := f.simplify()
		switch v := s.(type) {
		case Num:
			coeff *= v.V
		case Mul:
			for _, inner := range v.Factors {
				if n, ok := inner.(Num); ok {
					coeff *= n.V
				} else {
					flat = append(flat, inner)
				}
			}
		default:
			flat = append(flat, s)
		}
	}
	if coeff == 0 {
		return Num{V: 0}
	}

	// Group by base and add exponents; x * pow(x, -1) cancels to 1.
	bases := map[string]Expr{}
	exps := map[string][]Expr{}
	var keys []string
	for _, f := range flat {
		base, exp := f, Expr(Num{V: 1})
		if p, ok := f.(Pow); ok {
			base, exp = p.Base, p.Exp
		}
		key := base.String()
		if _, seen := bases[key]; !seen {
			bases[key] = base
			keys = append(keys, key)
		}
		exps[key] = append(exps[key], exp)
	}
	sort.Strings(keys)

	var factors []Expr
	renormalize := false
	for _, key := range keys {
		exp := Add{Terms: exps[key]}.simplify()
		if n, ok := exp.(Num); ok && n.V == 0 {
			continue
		}
		var f Expr = Pow{Base: bases[key], Exp: exp}
		f = f.simplify()
		switch v := f.(type) {
		case Num:
			coeff *= v.V
		case Mul:
			renormalize = true
			factors = append(factors, v)
		default:
			factors = append(factors, f)
		}
	}

	if coeff == 0 {
		return Num{V: 0}
	}
	if renormalize {
		return Mul{Factors: append([]Expr{Num{V: coeff}}, factors...)}.simplify()
	}
	if len(factors) == 0 {
		return Num{V: coeff}
	}
	if coeff != 1 {
		factors = append([]Expr{Num{V: coeff}}, factors...)
	}
	if len(factors) == 1 {
		return factors[0]
	}
	return Mul{Factors: factors}
}

func (p Pow) simplify() Expr {
	base := p.Base.simplify()
	exp := p.Exp.simplify()

	en, expNum := exp.(Num)
	if expNum {
		switch en.V {
		case 0:
			return Num{V: 1}
		case 1:
			return base
		}
	}
	if bn, ok := base.(Num); ok {
		if bn.V == 1 {
			return Num{V: 1}
		}
		if expNum {
			if v, ok := foldPow(bn.V, en.V); ok {
				return Num{V: v}
			}
		}
	}
	if expNum && en.V == math.Trunc(en.V) {
		switch b := base.(type) {
		case Pow:
			// pow(pow(x, a), n) = pow(x, a*n) for integral n.
			return Pow{Base: b.Base, Exp: Mul{Factors: []Expr{b.Exp, exp}}}.simplify()
		case Mul:
			factors := make([]Expr, len(b.Factors))
			for i, f := range b.Factors {
				factors[i] = Pow{Base: f, Exp: exp}
			}
			return Mul{Factors: factors}.simplify()
		}
	}
	return Pow{Base: base, Exp: exp}
}

// foldPow evaluates a numeric power when the result is real and finite.
func foldPow(base, exp float64) (float64, bool) {
	if base < 0 && exp != math.Trunc(exp) {
		return 0, false
	}
	if base == 0 && exp <= 0 {
		return 0, false
	}
	v := math.Pow(base, exp)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func (f Func) simplify() Expr {
	arg := f.Arg.simplify()

	switch f.Name {
	case "sqrt":
		return Pow{Base: arg, Exp: Num{V: 0.5}}.simplify()
	case "ln":
		if c, ok := arg.(Const); ok && c.Name == E.Name {
			return Num{V: 1}
		}
		if inner, ok := arg.(Func); ok && inner.Name == "exp" {
			return inner.Arg
		}
	case "exp":
		if n, ok := arg.(Num); ok && n.V == 0 {
			return Num{V: 1}
		}
	}

	if n, ok := arg.(Num); ok {
		if fn, known := funcs[f.Name]; known {
			if v, err := fn(n.V); err == nil {
				return Num{V: v}
			}
		}
	}
	return Func{Name: f.Name, Arg: arg}
}
