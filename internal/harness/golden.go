package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/ubt/internal/evaluator"
	"github.com/roach88/ubt/internal/report"
)

// Snapshot is the part of a Result that is stable across platforms.
// Observed values are left out: the last bits of a floating-point spread
// are not reproducible, only whether it is within tolerance.
type Snapshot struct {
	Suite      string          `json:"suite"`
	Pass       bool            `json:"pass"`
	Checks     []CheckSnapshot `json:"checks"`
	Passed     int             `json:"passed"`
	Failed     int             `json:"failed"`
	Incomplete int             `json:"incomplete"`
}

// CheckSnapshot is the stable part of a CheckOutcome.
type CheckSnapshot struct {
	Name   string              `json:"name"`
	Type   string              `json:"type"`
	Status Status              `json:"status"`
	Code   evaluator.ErrorCode `json:"code,omitempty"`
}

// NewSnapshot builds the snapshot of r.
func NewSnapshot(r *Result) Snapshot {
	s := Snapshot{
		Suite:      r.Suite,
		Pass:       r.Pass,
		Checks:     make([]CheckSnapshot, len(r.Checks)),
		Passed:     r.Passed,
		Failed:     r.Failed,
		Incomplete: r.Incomplete,
	}
	for i, c := range r.Checks {
		s.Checks[i] = CheckSnapshot{Name: c.Name, Type: c.Type, Status: c.Status, Code: c.Code}
	}
	return s
}

// MarshalSnapshot renders the snapshot of r as indented canonical JSON,
// the golden file format.
func MarshalSnapshot(r *Result) ([]byte, error) {
	return report.MarshalIndent(NewSnapshot(r))
}

// RunWithGolden runs a suite and compares its snapshot against
// testdata/golden/{suite.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, suite *Suite) (*Result, error) {
	t.Helper()

	result, err := Run(suite)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, suite.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against a golden file without
// re-running the suite.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	data, err := MarshalSnapshot(result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}
