package symbolic

import (
	"go/ast"
	"go/parser"
	"go/token"
	"strconv"

	"github.com/roach88/ubt/internal/evaluator"
)

// Parse reads an expression written in Go expression syntax:
//
//	1 / (2*pi / ln(p))
//	pow(alpha/alpha0, 2) * m_e
//
// Identifiers pi and e are the mathematical constants; every other
// identifier is a free symbol. Calls: ln, log (natural), exp, sqrt, sin,
// cos, tan, and pow(base, exponent).
func Parse(src string) (Expr, error) {
	node, err := parser.ParseExpr(src)
	if err != nil {
		return nil, malformed("cannot parse %q: %v", src, err)
	}
	return convert(node)
}

// MustParse is Parse for expressions known to be valid.
func MustParse(src string) Expr {
	e, err := Parse(src)
	if err != nil {
		panic(err)
	}
	return e
}

func malformed(format string, args ...any) error {
	return evaluator.NewInputError(evaluator.ErrCodeMalformedInput, format, args...)
}

func convert(node ast.Expr) (Expr, error) {
	switch n := node.(type) {
	case *ast.ParenExpr:
		return convert(n.X)

	case *ast.BasicLit:
		if n.Kind != token.INT && n.Kind != token.FLOAT {
			return nil, malformed("unsupported literal %s", n.Value)
		}
		v, err := strconv.ParseFloat(n.Value, 64)
		if err != nil {
			return nil, malformed("bad number %s: %v", n.Value, err)
		}
		return Num{V: v}, nil

	case *ast.Ident:
		switch n.Name {
		case Pi.Name:
			return Pi, nil
		case E.Name:
			return E, nil
		}
		return Sym{Name: n.Name}, nil

	case *ast.UnaryExpr:
		x, err := convert(n.X)
		if err != nil {
			return nil, err
		}
		switch n.Op {
		case token.ADD:
			return x, nil
		case token.SUB:
			if num, ok := x.(Num); ok {
				return Num{V: -num.V}, nil
			}
			return Neg(x), nil
		}
		return nil, malformed("unsupported unary operator %s", n.Op)

	case *ast.BinaryExpr:
		x, err := convert(n.X)
		if err != nil {
			return nil, err
		}
		y, err := convert(n.Y)
		if err != nil {
			return nil, err
		}
		switch n.Op {
		case token.ADD:
			return AddOf(x, y), nil
		case token.SUB:
			return Sub(x, y), nil
		case token.MUL:
			return MulOf(x, y), nil
		case token.QUO:
			return Quo(x, y), nil
		}
		return nil, malformed("unsupported operator %s", n.Op)

	case *ast.CallExpr:
		ident, ok := n.Fun.(*ast.Ident)
		if !ok {
			return nil, malformed("unsupported call expression")
		}
		args := make([]Expr, len(n.Args))
		for i, a := range n.Args {
			e, err := convert(a)
			if err != nil {
				return nil, err
			}
			args[i] = e
		}
		return call(ident.Name, args)
	}
	return nil, malformed("unsupported expression %T", node)
}

func call(name string, args []Expr) (Expr, error) {
	if name == "pow" {
		if len(args) != 2 {
			return nil, malformed("pow takes 2 arguments, got %d", len(args))
		}
		return PowOf(args[0], args[1]), nil
	}
	if name == "log" {
		name = "ln"
	}
	if _, ok := funcs[name]; !ok {
		return nil, malformed("unknown function %q", name)
	}
	if len(args) != 1 {
		return nil, malformed("%s takes 1 argument, got %d", name, len(args))
	}
	return Func{Name: name, Arg: args[0]}, nil
}
