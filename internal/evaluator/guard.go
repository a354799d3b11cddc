package evaluator

import "math"

// Guarded elementary operations. Each returns a NumericError instead of
// producing NaN or ±Inf, so an invariant can never pass on broken input.

// Div returns a/b.
func Div(a, b float64) (float64, error) {
	if b == 0 {
		return 0, NewNumericError(ErrCodeDivisionByZero, "division of %g by zero", a)
	}
	return Finite("division", a/b)
}

// Log returns the natural logarithm of x, which must be positive.
func Log(x float64) (float64, error) {
	if !(x > 0) {
		return 0, NewNumericError(ErrCodeDomain, "logarithm of non-positive value %g", x)
	}
	return Finite("logarithm", math.Log(x))
}

// Sqrt returns the square root of x, which must be non-negative.
func Sqrt(x float64) (float64, error) {
	if !(x >= 0) {
		return 0, NewNumericError(ErrCodeDomain, "square root of negative value %g", x)
	}
	return Finite("square root", math.Sqrt(x))
}

// Pow returns x**y. A negative base needs an integral exponent and a zero
// base needs a positive one.
func Pow(x, y float64) (float64, error) {
	if x < 0 && y != math.Trunc(y) {
		return 0, NewNumericError(ErrCodeDomain, "non-integral power %g of negative value %g", y, x)
	}
	if x == 0 && y <= 0 {
		return 0, NewNumericError(ErrCodeDivisionByZero, "power %g of zero", y)
	}
	return Finite("power", math.Pow(x, y))
}

// Finite returns v unchanged, or a NumericError naming what if v is NaN or ±Inf.
func Finite(what string, v float64) (float64, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, NewNumericError(ErrCodeNonFinite, "%s produced non-finite value %v", what, v)
	}
	return v, nil
}
