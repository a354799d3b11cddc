package harness

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSuites_Golden runs every suite under testdata/suites and compares
// its snapshot with testdata/golden/{name}.golden. Regenerate with:
//
//	go test ./internal/harness -run TestSuites_Golden -update
func TestSuites_Golden(t *testing.T) {
	files, err := filepath.Glob("testdata/suites/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, file := range files {
		name := strings.TrimSuffix(filepath.Base(file), ".yaml")
		t.Run(name, func(t *testing.T) {
			suite, err := LoadSuite(file)
			require.NoError(t, err)
			assert.Equal(t, name, suite.Name, "suite name should match its file name")

			result, err := RunWithGolden(t, suite)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestMarshalSnapshot_OmitsObservedValues(t *testing.T) {
	r := NewResult("s")
	r.Add(CheckOutcome{Name: "a", Type: CheckFlat, Status: StatusPass, Observed: 1.2345e-17, Tolerance: 1e-3})
	r.Add(CheckOutcome{Name: "b", Type: CheckValue, Status: StatusFail, Code: "MISMATCH", Message: "off by 0.1"})

	data, err := MarshalSnapshot(r)
	require.NoError(t, err)

	want := `{
  "checks": [
    {
      "name": "a",
      "status": "pass",
      "type": "flat"
    },
    {
      "code": "MISMATCH",
      "name": "b",
      "status": "fail",
      "type": "value"
    }
  ],
  "failed": 1,
  "incomplete": 0,
  "pass": false,
  "passed": 1,
  "suite": "s"
}
`
	assert.Equal(t, want, string(data))
}
