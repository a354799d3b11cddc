package symbolic

import (
	"github.com/roach88/ubt/internal/evaluator"
)

// Simplifier is the symbolic capability the rest of the module depends on.
//
// Only the value returned by Substitute is guaranteed reproducible; the
// printed form of a simplified expression may differ between backends.
type Simplifier interface {
	// Simplify algebraically reduces e.
	Simplify(e Expr) Expr

	// Substitute binds every free symbol of e and evaluates it.
	Substitute(e Expr, bindings evaluator.Params) (float64, error)
}

// Kernel is the built-in Simplifier.
type Kernel struct{}

var _ Simplifier = Kernel{}

// Simplify collects like terms, cancels common factors and folds numeric
// subexpressions, repeating until the expression stops changing.
func (Kernel) Simplify(e Expr) Expr {
	prev := e.String()
	for i := 0; i < maxPasses; i++ {
		e = e.simplify()
		cur := e.String()
		if cur == prev {
			break
		}
		prev = cur
	}
	return e
}

// Substitute evaluates e with bindings. An unbound symbol is an
// InputError naming it; an out-of-domain operation is a NumericError.
func (Kernel) Substitute(e Expr, bindings evaluator.Params) (float64, error) {
	for _, name := range FreeSymbols(e) {
		if _, ok := bindings[name]; !ok {
			err := evaluator.NewInputError(evaluator.ErrCodeMissingParameter, "symbol %q is not bound", name)
			err.Param = name
			return 0, err
		}
	}
	return e.eval(bindings)
}

// Default is the Simplifier used by the package-level helpers.
var Default Simplifier = Kernel{}

// Simplify simplifies e with Default.
func Simplify(e Expr) Expr { return Default.Simplify(e) }

// Substitute evaluates e with Default.
func Substitute(e Expr, bindings evaluator.Params) (float64, error) {
	return Default.Substitute(e, bindings)
}

// Bind replaces the bound symbols of e with their values and leaves the
// rest free.
func Bind(e Expr, bindings evaluator.Params) Expr {
	return e.bind(bindings)
}

// FromExpr turns an expression into a Formula whose parameters are the
// expression's free symbols, so parsed formulas can be evaluated and
// swept like catalog formulas.
//
// Every symbol of e is required, including symbols that simplification
// cancels, and the formula evaluates e as written: rewrites such as
// x/x to 1 only hold inside the domain, and an out-of-domain input must
// still fail. The simplified form is kept as the description.
func FromExpr(name string, e Expr, s Simplifier) evaluator.Formula {
	if s == nil {
		s = Default
	}
	return evaluator.Formula{
		Name:        name,
		Params:      FreeSymbols(e),
		Status:      evaluator.Implemented,
		Description: s.Simplify(e).String(),
		Fn: func(p evaluator.Params) (float64, error) {
			return s.Substitute(e, p)
		},
	}
}
