package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/ubt/internal/harness"
	"github.com/roach88/ubt/internal/report"
)

// CheckOptions holds flags for the check command.
type CheckOptions struct {
	*RootOptions
	Update bool   // regenerate golden files
	Filter string // suite filter (glob pattern)
}

// SuiteRunResult holds the result of a single suite file.
type SuiteRunResult struct {
	Name       string          `json:"name"`
	File       string          `json:"file"`
	Pass       bool            `json:"pass"`
	Incomplete int             `json:"incomplete,omitempty"`
	Outcome    *harness.Result `json:"outcome,omitempty"`
	Errors     []string        `json:"errors,omitempty"`
}

// CheckRunResult holds the overall result of a check run.
type CheckRunResult struct {
	Suites []SuiteRunResult `json:"suites"`
	Passed int              `json:"passed"`
	Failed int              `json:"failed"`
	Total  int              `json:"total"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CheckOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "check <suites-dir>",
		Short: "Run invariant suites",
		Long: `Run every YAML invariant suite in a directory.

A suite lists checks: flat and not_flat sweeps, expected values,
agreement and round trips between formulas, and simplifications that
must preserve value. Checks over placeholder formulas are reported as
incomplete and do not fail the run.

When golden/<suite>.golden exists next to a suite, the run's snapshot
(check names, statuses and codes) must match it.

Exit codes:
  0 - All suites passed
  1 - One or more suites failed
  2 - Command error (missing directory, bad filter)

Examples:
  ubt check ./suites
  ubt check ./suites --filter "alpha*"
  ubt check ./suites --update
  ubt check ./suites --format json`,
		Args:          commandArgs(cobra.ExactArgs(1)),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChecks(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter suites by glob pattern")

	return cmd
}

func runChecks(opts *CheckOptions, dir string, cmd *cobra.Command) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return NewExitError(ExitCommandError, fmt.Sprintf("suites directory not found: %s", dir))
	}

	suiteFiles, err := findSuiteFiles(dir, opts.Filter)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to find suites", err)
	}

	result := CheckRunResult{
		Suites: make([]SuiteRunResult, 0, len(suiteFiles)),
		Total:  len(suiteFiles),
	}
	if len(suiteFiles) == 0 {
		if opts.Format == "json" {
			return outputCheckJSON(opts, cmd, result)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "No suites found.")
		return nil
	}

	h := harness.New(harness.WithLogger(opts.logger(cmd)))
	for _, file := range suiteFiles {
		r := runSuite(h, file, opts, cmd)
		result.Suites = append(result.Suites, r)
		if r.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
	}

	if opts.Format == "json" {
		return outputCheckJSON(opts, cmd, result)
	}
	return outputCheckText(cmd, result)
}

// findSuiteFiles finds all YAML suite files in a directory.
func findSuiteFiles(dir string, filter string) ([]string, error) {
	var files []string

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}

		if filter != "" {
			name := strings.TrimSuffix(filepath.Base(path), ext)
			matched, err := filepath.Match(filter, name)
			if err != nil {
				return fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !matched {
				return nil
			}
		}

		files = append(files, path)
		return nil
	})

	return files, err
}

// runSuite loads and runs one suite file, then compares or updates its
// golden snapshot.
func runSuite(h *harness.Harness, file string, opts *CheckOptions, cmd *cobra.Command) SuiteRunResult {
	w := cmd.OutOrStdout()
	text := opts.Format != "json"

	fail := func(name string, errs ...string) SuiteRunResult {
		if text {
			fmt.Fprintf(w, "✗ %s\n", name)
			for _, e := range errs {
				fmt.Fprintf(w, "  %s\n", e)
			}
		}
		return SuiteRunResult{Name: name, File: file, Errors: errs}
	}

	suite, err := harness.LoadSuite(file)
	if err != nil {
		return fail(filepath.Base(file), fmt.Sprintf("load error: %v", err))
	}
	opts.formatter(cmd).VerboseLog("Running %s (%d checks)", suite.Name, len(suite.Checks))

	outcome, err := h.Run(suite)
	if err != nil {
		return fail(suite.Name, fmt.Sprintf("execution error: %v", err))
	}

	snapshot, err := harness.MarshalSnapshot(outcome)
	if err != nil {
		return fail(suite.Name, fmt.Sprintf("snapshot error: %v", err))
	}

	goldenPath := goldenFilePath(file, suite.Name)
	if opts.Update {
		if err := writeGolden(goldenPath, snapshot); err != nil {
			return fail(suite.Name, fmt.Sprintf("golden update error: %v", err))
		}
	} else if golden, err := os.ReadFile(goldenPath); err == nil {
		if !bytes.Equal(golden, snapshot) {
			r := fail(suite.Name, "golden file mismatch (run with --update to regenerate)")
			r.Outcome = outcome
			return r
		}
	} else if !os.IsNotExist(err) {
		return fail(suite.Name, fmt.Sprintf("golden read error: %v", err))
	}

	if !outcome.Pass {
		r := fail(suite.Name, outcome.Errors...)
		r.Outcome = outcome
		r.Incomplete = outcome.Incomplete
		return r
	}

	if text {
		suffix := ""
		if outcome.Incomplete > 0 {
			suffix = fmt.Sprintf(" (%d incomplete)", outcome.Incomplete)
		}
		if opts.Update {
			suffix += " (golden updated)"
		}
		fmt.Fprintf(w, "✓ %s%s\n", suite.Name, suffix)
	}
	return SuiteRunResult{
		Name:       suite.Name,
		File:       file,
		Pass:       true,
		Incomplete: outcome.Incomplete,
		Outcome:    outcome,
	}
}

// goldenFilePath returns the golden file for a suite: golden/<name>.golden
// next to the suite file.
func goldenFilePath(suiteFile, name string) string {
	return filepath.Join(filepath.Dir(suiteFile), "golden", name+".golden")
}

func writeGolden(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create golden directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write golden file: %w", err)
	}
	return nil
}

// outputCheckJSON outputs the run as a JSON report stamped with a run ID
// and digest.
func outputCheckJSON(opts *CheckOptions, cmd *cobra.Command, result CheckRunResult) error {
	rep, err := report.New(opts.RunIDs, "check", result)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to build report", err)
	}

	response := CLIResponse{
		Status: "ok",
		Data:   rep,
		RunID:  rep.RunID,
	}
	if result.Failed > 0 {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    "E_CHECK_FAILED",
			Message: fmt.Sprintf("%d suite(s) failed", result.Failed),
		}
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(response); err != nil {
		return err
	}

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d suite(s) failed", result.Failed)).reported()
	}
	return nil
}

// outputCheckText outputs the run summary as text.
func outputCheckText(cmd *cobra.Command, result CheckRunResult) error {
	w := cmd.OutOrStdout()

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Check Summary: %d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d suite(s) failed", result.Failed)).reported()
	}

	fmt.Fprintln(w, "✓ All suites passed")
	return nil
}
