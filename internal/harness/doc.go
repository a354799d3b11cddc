// Package harness runs invariant suites over the formula catalog.
//
// # Suite Format
//
// Suites are YAML files, one suite per file:
//
//	name: rydberg_flatness
//	description: "Rydberg proxy is invariant under alpha -> s*alpha, m_e -> m_e/s^2"
//	checks:
//	  - name: co-scaled
//	    type: flat
//	    formula: rydberg_rel
//	    params: { alpha: 0.0072973525693, m_e: 0.51099895 }
//	    scale: { alpha: 1, m_e: -2 }
//	    range: { from: 0.9, to: 1.1, steps: 7 }
//	    tolerance: 1.0e-3
//	  - name: alpha alone
//	    type: not_flat
//	    formula: rydberg_rel
//	    params: { alpha: 0.0072973525693, m_e: 0.51099895 }
//	    vary: alpha
//	    range: { from: 0.0065, to: 0.008, steps: 7 }
//	    tolerance: 1.0e-3
//
// # Check Types
//
//   - flat: a sweep's spread (max - min) is below tolerance
//   - not_flat: a sweep's spread reaches tolerance
//   - value: a formula evaluates to expect within tolerance
//   - agree: two formulas agree within tolerance, at one point or over a sweep
//   - roundtrip: formula(x) * other(x) is 1 within tolerance
//   - simplify: an expression keeps its value through simplification and
//     evaluates to expect
//
// A sweep is either a single parameter (vary) or a co-scaling of several
// (scale, parameter name to exponent), over explicit values or a range.
//
// Checks that touch a placeholder formula are reported as incomplete. They
// neither pass nor fail.
//
// # Usage
//
//	suite, err := harness.LoadSuite("testdata/suites/rydberg.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(suite)
//	if !result.Pass {
//	    for _, e := range result.Errors {
//	        log.Println(e)
//	    }
//	}
package harness
