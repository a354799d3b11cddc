package cli

import (
	"fmt"
	"math"

	"github.com/spf13/cobra"

	"github.com/roach88/ubt/internal/evaluator"
	"github.com/roach88/ubt/internal/symbolic"
)

// simplifyRelTol bounds the relative drift between an expression and its
// simplified form.
const simplifyRelTol = 1e-9

// SimplifyOptions holds flags for the simplify command.
type SimplifyOptions struct {
	*RootOptions
	Bind   []string
	Params []string
}

// SimplifyResult is the JSON payload of simplify.
type SimplifyResult struct {
	Input      string   `json:"input"`
	Simplified string   `json:"simplified"`
	Free       []string `json:"free"`
	Value      *float64 `json:"value,omitempty"`
}

// NewSimplifyCommand creates the simplify command.
func NewSimplifyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SimplifyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "simplify <expression>",
		Short: "Simplify an expression and optionally evaluate it",
		Long: `Algebraically reduce an expression: collect like terms, cancel common
factors, fold constants. --bind substitutes values for some symbols
before simplifying and leaves the rest free. With --param for every
symbol of the expression, it is also evaluated.

The value is computed from the expression as written, and the
simplified form must agree with it. Cancelling sqrt(x)*sqrt(x) or x/x
does not make an out-of-domain input valid.

Only the evaluated value is guaranteed reproducible; the printed
simplified form may change as the simplifier improves.

Expressions use Go syntax with pi, e, ln, log, exp, sqrt, sin, cos, tan
and pow(base, exponent).

Examples:
  ubt simplify "(2*pi/ln(p)) * (ln(p)/(2*pi))"
  ubt simplify "1/(2*pi/ln(p))" -p p=137
  ubt simplify "pow(alpha, 2)*m_e/alpha" --bind alpha=0.0072973525693`,
		Args:          commandArgs(cobra.ExactArgs(1)),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimplify(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringArrayVar(&opts.Bind, "bind", nil, "symbol fixed before simplifying, as name=value (repeatable)")
	cmd.Flags().StringArrayVarP(&opts.Params, "param", "p", nil, "symbol value as name=value (repeatable)")

	return cmd
}

func runSimplify(opts *SimplifyOptions, src string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	e, err := symbolic.Parse(src)
	if err != nil {
		return formatter.Fail(err)
	}
	bound, err := parseAssignments("bind", opts.Bind)
	if err != nil {
		return formatter.Fail(err)
	}
	bindings, err := parseAssignments("param", opts.Params)
	if err != nil {
		return formatter.Fail(err)
	}
	input := e.String()
	if len(bound) > 0 {
		e = symbolic.Bind(e, bound)
	}

	simplified := symbolic.Simplify(e)
	result := SimplifyResult{
		Input:      input,
		Simplified: simplified.String(),
		Free:       symbolic.FreeSymbols(simplified),
	}
	formatter.VerboseLog("Parsed %s", result.Input)

	if len(opts.Params) > 0 {
		v, err := evaluateSimplified(e, simplified, bindings)
		if err != nil {
			return formatter.Fail(err)
		}
		result.Value = &v
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintln(formatter.Writer, result.Simplified)
	if result.Value != nil {
		fmt.Fprintf(formatter.Writer, "= %s\n", formatFloat(*result.Value))
	}
	return nil
}

// evaluateSimplified evaluates the expression as written, so inputs
// outside the domain fail even when simplification cancelled the
// offending operation, and requires the simplified form to agree.
func evaluateSimplified(e, simplified symbolic.Expr, bindings evaluator.Params) (float64, error) {
	want, err := symbolic.Substitute(e, bindings)
	if err != nil {
		return 0, err
	}
	got, err := symbolic.Substitute(simplified, bindings)
	if err != nil {
		return 0, err
	}
	tol := simplifyRelTol * math.Max(1, math.Abs(want))
	if err := evaluator.Agree("simplified "+e.String(), got, want, tol); err != nil {
		return 0, err
	}
	return want, nil
}
