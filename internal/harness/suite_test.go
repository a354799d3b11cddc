package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ubt/internal/evaluator"
)

func TestParseSuite_Valid(t *testing.T) {
	yamlContent := `
name: sample
description: "A sample suite"
checks:
  - name: co-scaled
    type: flat
    formula: rydberg_rel
    params: { alpha: 0.0073, m_e: 0.511 }
    scale: { alpha: 1, m_e: -2 }
    range: { from: 0.9, to: 1.1, steps: 5 }
    tolerance: 1.0e-3
  - type: value
    formula: alpha_p
    params: { p: 137 }
    expect: 0.783039
    tolerance: 1.0e-6
`
	suite, err := ParseSuite([]byte(yamlContent))
	require.NoError(t, err)

	assert.Equal(t, "sample", suite.Name)
	require.Len(t, suite.Checks, 2)

	flat := suite.Checks[0]
	assert.Equal(t, CheckFlat, flat.Type)
	assert.Equal(t, map[string]float64{"alpha": 1, "m_e": -2}, flat.Scale)
	assert.Equal(t, &Range{From: 0.9, To: 1.1, Steps: 5}, flat.Range)

	value := suite.Checks[1]
	require.NotNil(t, value.Expect)
	assert.Equal(t, 0.783039, *value.Expect)
	assert.Equal(t, "checks[1]", value.Label(1))
	assert.Equal(t, "co-scaled", flat.Label(0))
}

func TestParseSuite_UnknownField(t *testing.T) {
	yamlContent := `
name: typo
description: "Has a typo"
checks:
  - type: value
    formula: alpha_p
    params: { p: 137 }
    expect: 0.78
    tolerence: 1.0e-6
`
	_, err := ParseSuite([]byte(yamlContent))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tolerence")
}

func TestParseSuite_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "missing name",
			yaml:    "description: d\nchecks: [{type: value, formula: f, expect: 1, tolerance: 1}]",
			wantErr: "name is required",
		},
		{
			name:    "missing description",
			yaml:    "name: n\nchecks: [{type: value, formula: f, expect: 1, tolerance: 1}]",
			wantErr: "description is required",
		},
		{
			name:    "no checks",
			yaml:    "name: n\ndescription: d\nchecks: []",
			wantErr: "checks list is required",
		},
		{
			name:    "missing type",
			yaml:    "name: n\ndescription: d\nchecks: [{formula: f, tolerance: 1}]",
			wantErr: "type is required",
		},
		{
			name:    "unknown type",
			yaml:    "name: n\ndescription: d\nchecks: [{type: bogus, tolerance: 1}]",
			wantErr: `unknown check type "bogus"`,
		},
		{
			name:    "zero tolerance",
			yaml:    "name: n\ndescription: d\nchecks: [{type: value, formula: f, expect: 1}]",
			wantErr: "tolerance must be positive",
		},
		{
			name:    "flat without sweep",
			yaml:    "name: n\ndescription: d\nchecks: [{type: flat, formula: f, tolerance: 1}]",
			wantErr: "vary or scale is required",
		},
		{
			name:    "sweep without values",
			yaml:    "name: n\ndescription: d\nchecks: [{type: flat, formula: f, vary: x, tolerance: 1}]",
			wantErr: "values or range is required",
		},
		{
			name:    "vary and scale",
			yaml:    "name: n\ndescription: d\nchecks: [{type: flat, formula: f, vary: x, scale: {x: 1}, values: [1], tolerance: 1}]",
			wantErr: "mutually exclusive",
		},
		{
			name:    "values without sweep",
			yaml:    "name: n\ndescription: d\nchecks: [{type: value, formula: f, expect: 1, values: [1], tolerance: 1}]",
			wantErr: "values and range need vary or scale",
		},
		{
			name:    "value without expect",
			yaml:    "name: n\ndescription: d\nchecks: [{type: value, formula: f, tolerance: 1}]",
			wantErr: "expect is required",
		},
		{
			name:    "agree without other",
			yaml:    "name: n\ndescription: d\nchecks: [{type: agree, formula: f, tolerance: 1}]",
			wantErr: "formula and other are required",
		},
		{
			name:    "roundtrip with scale",
			yaml:    "name: n\ndescription: d\nchecks: [{type: roundtrip, formula: f, other: g, scale: {x: 1}, values: [1], tolerance: 1}]",
			wantErr: "single parameter",
		},
		{
			name:    "simplify without expr",
			yaml:    "name: n\ndescription: d\nchecks: [{type: simplify, expect: 1, tolerance: 1}]",
			wantErr: "expr is required",
		},
		{
			name:    "value without subject",
			yaml:    "name: n\ndescription: d\nchecks: [{type: value, expect: 1, tolerance: 1}]",
			wantErr: "formula or expr is required",
		},
		{
			name:    "formula and expr",
			yaml:    "name: n\ndescription: d\nchecks: [{type: value, formula: f, expr: x, expect: 1, tolerance: 1}]",
			wantErr: "formula and expr are mutually exclusive",
		},
		{
			name:    "agree with expr",
			yaml:    "name: n\ndescription: d\nchecks: [{type: agree, formula: f, other: g, expr: x, tolerance: 1}]",
			wantErr: "not expressions",
		},
		{
			name:    "bad range",
			yaml:    "name: n\ndescription: d\nchecks: [{type: flat, formula: f, vary: x, range: {from: 1, to: 2, steps: 0}, tolerance: 1}]",
			wantErr: "range.steps",
		},
		{
			name:    "duplicate names",
			yaml:    "name: n\ndescription: d\nchecks: [{name: a, type: value, formula: f, expect: 1, tolerance: 1}, {name: a, type: value, formula: f, expect: 1, tolerance: 1}]",
			wantErr: `duplicate name "a"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSuite([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadSuite(t *testing.T) {
	suite, err := LoadSuite("testdata/suites/rydberg_flatness.yaml")
	require.NoError(t, err)
	assert.Equal(t, "rydberg_flatness", suite.Name)
	assert.Len(t, suite.Checks, 3)

	_, err = LoadSuite(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Equal(t, evaluator.ErrCodeMissingFile, evaluator.CodeOf(err))

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("name: [unterminated"), 0644))
	_, err = LoadSuite(bad)
	require.Error(t, err)
	assert.True(t, evaluator.IsInputError(err))
	assert.Contains(t, err.Error(), bad)
}
