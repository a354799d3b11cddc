package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ubt/internal/evaluator"
)

// RequireFlat fails the test unless r's spread is below tol.
func RequireFlat(t testing.TB, r *evaluator.SweepResult, tol float64) {
	t.Helper()
	require.NotNil(t, r)
	require.Truef(t, evaluator.CheckFlatness(r, tol),
		"%s over %s: spread %g not below %g", r.Formula, r.Param, evaluator.Spread(r), tol)
}

// RequireNotFlat fails the test unless r's spread reaches tol.
func RequireNotFlat(t testing.TB, r *evaluator.SweepResult, tol float64) {
	t.Helper()
	require.NotNil(t, r)
	require.Falsef(t, evaluator.CheckFlatness(r, tol),
		"%s over %s: spread %g unexpectedly below %g", r.Formula, r.Param, evaluator.Spread(r), tol)
}

// InDeltaOutputs compares r's outputs with want element by element.
func InDeltaOutputs(t testing.TB, want []float64, r *evaluator.SweepResult, delta float64) bool {
	t.Helper()
	got := r.Outputs()
	if !assert.Len(t, got, len(want)) {
		return false
	}
	ok := true
	for i := range want {
		ok = assert.InDeltaf(t, want[i], got[i], delta, "point %d", i) && ok
	}
	return ok
}
