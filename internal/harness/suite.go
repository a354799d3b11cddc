package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/ubt/internal/evaluator"
)

// Suite is a named list of invariant checks.
type Suite struct {
	// Name uniquely identifies this suite and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this suite validates.
	Description string `yaml:"description"`

	// Checks run in order.
	Checks []Check `yaml:"checks"`
}

// Check is one invariant.
type Check struct {
	// Name labels the check in output. Defaults to "checks[i]".
	Name string `yaml:"name,omitempty"`

	// Type is one of the Check* constants.
	Type string `yaml:"type"`

	// Formula is the catalog formula under test (all types but simplify).
	// Flat, not_flat and value checks may give Expr instead.
	Formula string `yaml:"formula,omitempty"`

	// Other is the second formula (agree, roundtrip).
	Other string `yaml:"other,omitempty"`

	// Expr is the expression to simplify (simplify), or the expression
	// evaluated in place of a catalog formula (flat, not_flat, value).
	Expr string `yaml:"expr,omitempty"`

	// Params are the fixed parameter values, or the base values a
	// co-scaled sweep multiplies.
	Params map[string]float64 `yaml:"params,omitempty"`

	// Vary names the swept parameter.
	Vary string `yaml:"vary,omitempty"`

	// Scale maps parameter names to exponents for a co-scaled sweep.
	Scale map[string]float64 `yaml:"scale,omitempty"`

	// Values are the explicit sweep values or scale factors.
	Values []float64 `yaml:"values,omitempty"`

	// Range generates sweep values when Values is empty.
	Range *Range `yaml:"range,omitempty"`

	// Expect is the expected value (value, simplify).
	Expect *float64 `yaml:"expect,omitempty"`

	// Tolerance is the absolute bound for the check.
	Tolerance float64 `yaml:"tolerance"`
}

// Range is an inclusive value sequence.
type Range struct {
	From      float64 `yaml:"from"`
	To        float64 `yaml:"to"`
	Steps     int     `yaml:"steps"`
	Geometric bool    `yaml:"geometric,omitempty"`
}

// Check type constants.
const (
	CheckFlat      = "flat"
	CheckNotFlat   = "not_flat"
	CheckValue     = "value"
	CheckAgree     = "agree"
	CheckRoundtrip = "roundtrip"
	CheckSimplify  = "simplify"
)

// Label returns the check's name or its position.
func (c Check) Label(index int) string {
	if c.Name != "" {
		return c.Name
	}
	return fmt.Sprintf("checks[%d]", index)
}

// sweeps reports whether the check evaluates over a sequence.
func (c Check) sweeps() bool {
	return c.Vary != "" || len(c.Scale) > 0
}

// sequence returns the sweep values.
func (c Check) sequence() ([]float64, error) {
	if len(c.Values) > 0 {
		return c.Values, nil
	}
	if c.Range == nil {
		return nil, evaluator.NewInputError(evaluator.ErrCodeEmptySequence, "no values or range")
	}
	if c.Range.Geometric {
		return evaluator.Geomspace(c.Range.From, c.Range.To, c.Range.Steps)
	}
	return evaluator.Linspace(c.Range.From, c.Range.To, c.Range.Steps)
}

// LoadSuite reads and parses a suite YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadSuite(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		e := evaluator.NewInputError(evaluator.ErrCodeMissingFile, "failed to read suite file: %v", err)
		e.File = path
		return nil, e
	}

	suite, err := ParseSuite(data)
	if err != nil {
		e := evaluator.NewInputError(evaluator.ErrCodeMalformedInput, "%v", err)
		e.File = path
		return nil, e
	}
	return suite, nil
}

// ParseSuite parses and validates suite YAML.
func ParseSuite(data []byte) (*Suite, error) {
	// Strict field validation catches typos like "tolerence:".
	var suite Suite
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&suite); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateSuite(&suite); err != nil {
		return nil, fmt.Errorf("invalid suite: %w", err)
	}
	return &suite, nil
}

// validateSuite checks that required fields are present and valid.
func validateSuite(s *Suite) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Checks) == 0 {
		return fmt.Errorf("checks list is required and must be non-empty")
	}

	seen := make(map[string]bool)
	for i, c := range s.Checks {
		if err := validateCheck(i, &c); err != nil {
			return err
		}
		if c.Name != "" {
			if seen[c.Name] {
				return fmt.Errorf("checks[%d]: duplicate name %q", i, c.Name)
			}
			seen[c.Name] = true
		}
	}
	return nil
}

// validateCheck validates a single check based on its type.
func validateCheck(index int, c *Check) error {
	if c.Type == "" {
		return fmt.Errorf("checks[%d]: type is required", index)
	}
	if !(c.Tolerance > 0) {
		return fmt.Errorf("checks[%d]: tolerance must be positive", index)
	}
	if c.Vary != "" && len(c.Scale) > 0 {
		return fmt.Errorf("checks[%d]: vary and scale are mutually exclusive", index)
	}
	if c.sweeps() && len(c.Values) == 0 && c.Range == nil {
		return fmt.Errorf("checks[%d]: values or range is required for a sweep", index)
	}
	if !c.sweeps() && (len(c.Values) > 0 || c.Range != nil) {
		return fmt.Errorf("checks[%d]: values and range need vary or scale", index)
	}
	if c.Range != nil && c.Range.Steps < 1 {
		return fmt.Errorf("checks[%d]: range.steps must be at least 1", index)
	}

	switch c.Type {
	case CheckFlat, CheckNotFlat:
		if err := requireSubject(index, c); err != nil {
			return err
		}
		if !c.sweeps() {
			return fmt.Errorf("checks[%d]: vary or scale is required for %s", index, c.Type)
		}
	case CheckValue:
		if err := requireSubject(index, c); err != nil {
			return err
		}
		if c.Expect == nil {
			return fmt.Errorf("checks[%d]: expect is required for value", index)
		}
		if c.sweeps() {
			return fmt.Errorf("checks[%d]: value checks evaluate a single point", index)
		}
	case CheckAgree, CheckRoundtrip:
		if c.Formula == "" || c.Other == "" {
			return fmt.Errorf("checks[%d]: formula and other are required for %s", index, c.Type)
		}
		if c.Expr != "" {
			return fmt.Errorf("checks[%d]: %s compares catalog formulas, not expressions", index, c.Type)
		}
		if len(c.Scale) > 0 {
			return fmt.Errorf("checks[%d]: %s sweeps a single parameter (vary)", index, c.Type)
		}
	case CheckSimplify:
		if c.Expr == "" {
			return fmt.Errorf("checks[%d]: expr is required for simplify", index)
		}
		if c.Expect == nil {
			return fmt.Errorf("checks[%d]: expect is required for simplify", index)
		}
		if c.sweeps() {
			return fmt.Errorf("checks[%d]: simplify checks evaluate a single point", index)
		}
	default:
		return fmt.Errorf("checks[%d]: unknown check type %q", index, c.Type)
	}
	return nil
}

// requireSubject checks that exactly one of formula and expr is set.
func requireSubject(index int, c *Check) error {
	if c.Formula == "" && c.Expr == "" {
		return fmt.Errorf("checks[%d]: formula or expr is required for %s", index, c.Type)
	}
	if c.Formula != "" && c.Expr != "" {
		return fmt.Errorf("checks[%d]: formula and expr are mutually exclusive", index)
	}
	return nil
}
