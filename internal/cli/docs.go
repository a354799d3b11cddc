package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/ubt/internal/docs"
	"github.com/roach88/ubt/internal/evaluator"
)

// DocsOptions holds flags for the docs command.
type DocsOptions struct {
	*RootOptions
	Root string
}

// DocsResult is the JSON payload of docs.
type DocsResult struct {
	Rules      int              `json:"rules"`
	Violations []docs.Violation `json:"violations"`
}

// NewDocsCommand creates the docs command.
func NewDocsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DocsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "docs <rules.cue>",
		Short: "Check documentation against text rules",
		Long: `Check hand-maintained documents against the rules in a CUE file.

Each rule names files and literal strings or regular expressions they
must contain (require, require_regex) or must not contain (forbid,
forbid_regex). Text is NFC normalized before matching.

Document paths are relative to --root, which defaults to the directory
holding the rules file.

Exit codes:
  0 - No violations
  1 - One or more violations
  2 - Unreadable rules or documents`,
		Args:          commandArgs(cobra.ExactArgs(1)),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDocs(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Root, "root", "", "directory document paths are relative to")

	return cmd
}

func runDocs(opts *DocsOptions, rulesPath string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	rules, err := docs.LoadRules(rulesPath)
	if err != nil {
		return formatter.Fail(err)
	}
	root := opts.Root
	if root == "" {
		root = filepath.Dir(rulesPath)
	}
	formatter.VerboseLog("Checking %d rule(s) under %s", len(rules), root)

	checker := docs.Checker{Root: root, Logger: opts.logger(cmd)}
	violations, err := checker.Check(rules)
	if err != nil {
		return formatter.Fail(err)
	}

	if formatter.Format == "json" {
		if len(violations) > 0 {
			response := CLIResponse{
				Status: "error",
				Data:   DocsResult{Rules: len(rules), Violations: violations},
				Error: &CLIError{
					Code:    string(violations[0].Code),
					Kind:    string(evaluator.KindConsistency),
					Message: fmt.Sprintf("%d violation(s)", len(violations)),
				},
			}
			if err := json.NewEncoder(formatter.Writer).Encode(response); err != nil {
				return err
			}
			return WrapExitError(ExitFailure, fmt.Sprintf("%d violation(s)", len(violations)), violations[0].Err()).reported()
		}
		return formatter.Success(DocsResult{Rules: len(rules), Violations: []docs.Violation{}})
	}

	w := formatter.Writer
	if len(violations) == 0 {
		fmt.Fprintf(w, "✓ %d rule(s) satisfied\n", len(rules))
		return nil
	}
	fmt.Fprintln(w, "✗ Documentation check failed")
	fmt.Fprintln(w)
	for _, v := range violations {
		fmt.Fprintf(w, "  %s: %s\n", v.Code, v.String())
	}
	return WrapExitError(ExitFailure, fmt.Sprintf("%d violation(s)", len(violations)), violations[0].Err()).reported()
}

// TagResult reports what tag did to one file.
type TagResult struct {
	File    string `json:"file"`
	Changed bool   `json:"changed"`
}

// NewTagCommand creates the tag command.
func NewTagCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tag <banner-file> <file>...",
		Short: "Insert a warning banner at the top of files",
		Long: `Insert the text of banner-file at the top of each file, as a comment
suited to the file type (% lines for LaTeX, an HTML comment for
Markdown). Files that already contain the banner are left untouched, so
running tag twice changes nothing the second time.`,
		Args:          commandArgs(cobra.MinimumNArgs(2)),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTag(rootOpts, args[0], args[1:], cmd)
		},
	}
	return cmd
}

func runTag(opts *RootOptions, bannerPath string, files []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	text, err := os.ReadFile(bannerPath)
	if err != nil {
		e := evaluator.NewInputError(evaluator.ErrCodeMissingFile, "cannot read banner: %v", err)
		e.File = bannerPath
		return formatter.Fail(e)
	}

	results := make([]TagResult, 0, len(files))
	for _, file := range files {
		changed, err := docs.Tag(file, docs.Banner(file, string(text)))
		if err != nil {
			return formatter.Fail(err)
		}
		results = append(results, TagResult{File: file, Changed: changed})
	}

	if formatter.Format == "json" {
		return formatter.Success(results)
	}
	for _, r := range results {
		if r.Changed {
			fmt.Fprintf(formatter.Writer, "tagged  %s\n", r.File)
		} else {
			fmt.Fprintf(formatter.Writer, "skipped %s (banner present)\n", r.File)
		}
	}
	return nil
}
