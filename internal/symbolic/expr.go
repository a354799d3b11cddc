// Package symbolic is a small expression kernel for closed-form formulas.
//
// Expressions are immutable trees. Simplify collects like terms and
// cancels common factors; Substitute binds every free symbol and evaluates
// through the guarded arithmetic of package evaluator, so a domain error
// surfaces as a NumericError and an unbound symbol as an InputError.
//
// Callers that only need simplify-then-evaluate should depend on the
// Simplifier interface; Kernel is the default implementation and may be
// replaced by any other backend.
package symbolic

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/roach88/ubt/internal/evaluator"
)

// Expr is a symbolic expression.
type Expr interface {
	// String renders the expression in the syntax accepted by Parse.
	String() string

	eval(b evaluator.Params) (float64, error)
	bind(b evaluator.Params) Expr
	simplify() Expr
	precedence() int
}

const (
	precAdd = iota + 1
	precMul
	precPow
	precAtom
)

// Num is a numeric literal.
type Num struct{ V float64 }

// Sym is a free symbol, bound at substitution time.
type Sym struct{ Name string }

// Const is a named mathematical constant.
type Const struct {
	Name string
	V    float64
}

// Add is a sum of terms.
type Add struct{ Terms []Expr }

// Mul is a product of factors.
type Mul struct{ Factors []Expr }

// Pow is Base raised to Exp.
type Pow struct{ Base, Exp Expr }

// Func is an elementary function applied to one argument.
type Func struct {
	Name string
	Arg  Expr
}

var (
	Pi = Const{Name: "pi", V: math.Pi}
	E  = Const{Name: "e", V: math.E}
)

// Constructors.

func N(v float64) Expr              { return Num{V: v} }
func S(name string) Expr            { return Sym{Name: name} }
func AddOf(terms ...Expr) Expr      { return Add{Terms: terms} }
func MulOf(factors ...Expr) Expr    { return Mul{Factors: factors} }
func PowOf(base, exp Expr) Expr     { return Pow{Base: base, Exp: exp} }
func Neg(x Expr) Expr               { return Mul{Factors: []Expr{N(-1), x}} }
func Sub(a, b Expr) Expr            { return Add{Terms: []Expr{a, Neg(b)}} }
func Quo(a, b Expr) Expr            { return Mul{Factors: []Expr{a, PowOf(b, N(-1))}} }
func Ln(x Expr) Expr                { return Func{Name: "ln", Arg: x} }
func Sqrt(x Expr) Expr              { return Func{Name: "sqrt", Arg: x} }
func Call(name string, x Expr) Expr { return Func{Name: name, Arg: x} }

// Functions understood by Func.
var funcs = map[string]func(float64) (float64, error){
	"ln":   evaluator.Log,
	"sqrt": evaluator.Sqrt,
	"exp":  func(x float64) (float64, error) { return evaluator.Finite("exp", math.Exp(x)) },
	"sin":  func(x float64) (float64, error) { return evaluator.Finite("sin", math.Sin(x)) },
	"cos":  func(x float64) (float64, error) { return evaluator.Finite("cos", math.Cos(x)) },
	"tan": func(x float64) (float64, error) {
		if math.Cos(x) == 0 {
			return 0, evaluator.NewNumericError(evaluator.ErrCodeDomain, "tan undefined at %g", x)
		}
		return evaluator.Finite("tan", math.Tan(x))
	},
}

// FreeSymbols returns the sorted names of all symbols in e.
func FreeSymbols(e Expr) []string {
	seen := map[string]struct{}{}
	collectSymbols(e, seen)
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func collectSymbols(e Expr, out map[string]struct{}) {
	switch v := e.(type) {
	case Sym:
		out[v.Name] = struct{}{}
	case Add:
		for _, t := range v.Terms {
			collectSymbols(t, out)
		}
	case Mul:
		for _, f := range v.Factors {
			collectSymbols(f, out)
		}
	case Pow:
		collectSymbols(v.Base, out)
		collectSymbols(v.Exp, out)
	case Func:
		collectSymbols(v.Arg, out)
	}
}

// Num

func (n Num) String() string                          { return formatFloat(n.V) }
func (n Num) eval(evaluator.Params) (float64, error)  { return n.V, nil }
func (n Num) bind(evaluator.Params) Expr              { return n }
func (n Num) simplify() Expr                          { return n }
func (n Num) precedence() int {
	if n.V < 0 {
		return precAdd
	}
	return precAtom
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// Sym

func (s Sym) String() string  { return s.Name }
func (s Sym) simplify() Expr  { return s }
func (s Sym) precedence() int { return precAtom }

func (s Sym) eval(b evaluator.Params) (float64, error) {
	v, ok := b[s.Name]
	if !ok {
		err := evaluator.NewInputError(evaluator.ErrCodeMissingParameter, "symbol %q is not bound", s.Name)
		err.Param = s.Name
		return 0, err
	}
	return v, nil
}

func (s Sym) bind(b evaluator.Params) Expr {
	if v, ok := b[s.Name]; ok {
		return Num{V: v}
	}
	return s
}

// Const

func (c Const) String() string                         { return c.Name }
func (c Const) eval(evaluator.Params) (float64, error) { return c.V, nil }
func (c Const) bind(evaluator.Params) Expr             { return c }
func (c Const) simplify() Expr                         { return c }
func (c Const) precedence() int                        { return precAtom }

// Add

func (a Add) precedence() int { return precAdd }

func (a Add) String() string {
	if len(a.Terms) == 0 {
		return "0"
	}
	var buf strings.Builder
	for i, t := range a.Terms {
		if i == 0 {
			buf.WriteString(t.String())
			continue
		}
		if neg, ok := negated(t); ok {
			buf.WriteString(" - ")
			buf.WriteString(wrap(neg, precMul))
			continue
		}
		buf.WriteString(" + ")
		buf.WriteString(t.String())
	}
	return buf.String()
}

func (a Add) eval(b evaluator.Params) (float64, error) {
	var sum float64
	for _, t := range a.Terms {
		v, err := t.eval(b)
		if err != nil {
			return 0, err
		}
		sum += v
	}
	return evaluator.Finite("sum", sum)
}

func (a Add) bind(b evaluator.Params) Expr {
	terms := make([]Expr, len(a.Terms))
	for i, t := range a.Terms {
		terms[i] = t.bind(b)
	}
	return Add{Terms: terms}
}

// Mul

func (m Mul) precedence() int {
	if len(m.Factors) > 0 {
		if n, ok := m.Factors[0].(Num); ok && n.V < 0 {
			return precAdd
		}
	}
	return precMul
}

func (m Mul) String() string {
	if len(m.Factors) == 0 {
		return "1"
	}
	parts := make([]string, 0, len(m.Factors))
	prefix := ""
	for i, f := range m.Factors {
		if i == 0 {
			if n, ok := f.(Num); ok && n.V == -1 && len(m.Factors) > 1 {
				prefix = "-"
				continue
			}
		}
		if p, ok := f.(Pow); ok {
			if n, ok := p.Exp.(Num); ok && n.V == -1 && len(parts) > 0 {
				parts[len(parts)-1] += "/" + wrap(p.Base, precPow)
				continue
			}
		}
		parts = append(parts, wrap(f, precMul+1))
	}
	if len(parts) == 0 {
		return prefix + "1"
	}
	return prefix + strings.Join(parts, "*")
}

func (m Mul) eval(b evaluator.Params) (float64, error) {
	prod := 1.0
	for _, f := range m.Factors {
		v, err := f.eval(b)
		if err != nil {
			return 0, err
		}
		prod *= v
	}
	return evaluator.Finite("product", prod)
}

func (m Mul) bind(b evaluator.Params) Expr {
	factors := make([]Expr, len(m.Factors))
	for i, f := range m.Factors {
		factors[i] = f.bind(b)
	}
	return Mul{Factors: factors}
}

// Pow

func (p Pow) String() string  { return "pow(" + p.Base.String() + ", " + p.Exp.String() + ")" }
func (p Pow) precedence() int { return precAtom }

func (p Pow) eval(b evaluator.Params) (float64, error) {
	base, err := p.Base.eval(b)
	if err != nil {
		return 0, err
	}
	exp, err := p.Exp.eval(b)
	if err != nil {
		return 0, err
	}
	return evaluator.Pow(base, exp)
}

func (p Pow) bind(b evaluator.Params) Expr {
	return Pow{Base: p.Base.bind(b), Exp: p.Exp.bind(b)}
}

// Func

func (f Func) String() string  { return f.Name + "(" + f.Arg.String() + ")" }
func (f Func) precedence() int { return precAtom }

func (f Func) eval(b evaluator.Params) (float64, error) {
	fn, ok := funcs[f.Name]
	if !ok {
		return 0, evaluator.NewInputError(evaluator.ErrCodeMalformedInput, "unknown function %q", f.Name)
	}
	x, err := f.Arg.eval(b)
	if err != nil {
		return 0, err
	}
	return fn(x)
}

func (f Func) bind(b evaluator.Params) Expr {
	return Func{Name: f.Name, Arg: f.Arg.bind(b)}
}

// wrap parenthesizes e when it binds more loosely than the context.
func wrap(e Expr, context int) string {
	if e.precedence() < context {
		return "(" + e.String() + ")"
	}
	return e.String()
}

// negated returns -t when t is visibly negative (a negative literal or a
// product with a negative leading coefficient).
func negated(t Expr) (Expr, bool) {
	switch v := t.(type) {
	case Num:
		if v.V < 0 {
			return Num{V: -v.V}, true
		}
	case Mul:
		if len(v.Factors) > 1 {
			if n, ok := v.Factors[0].(Num); ok && n.V < 0 {
				if n.V == -1 {
					rest := v.Factors[1:]
					if len(rest) == 1 {
						return rest[0], true
					}
					return Mul{Factors: rest}, true
				}
				factors := append([]Expr{Num{V: -n.V}}, v.Factors[1:]...)
				return Mul{Factors: factors}, true
			}
		}
	}
	return nil, false
}
