package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/ubt/internal/evaluator"
	"github.com/roach88/ubt/internal/physics"
	"github.com/roach88/ubt/internal/symbolic"
)

// EvalOptions holds flags for the eval command.
type EvalOptions struct {
	*RootOptions
	Params []string
	Expr   bool
}

// EvalResult is the JSON payload of eval.
type EvalResult struct {
	Formula     string           `json:"formula"`
	Params      evaluator.Params `json:"params"`
	Value       float64          `json:"value"`
	Placeholder bool             `json:"placeholder,omitempty"`
}

// NewEvalCommand creates the eval command.
func NewEvalCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EvalOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "eval <formula|expression>",
		Short: "Evaluate a formula",
		Long: `Evaluate a catalog formula at the given parameter values.

Every parameter the formula needs must be given; nothing is defaulted.
With --expr the argument is an expression and its free symbols are the
parameters.

Exit codes:
  0 - Evaluated
  1 - Numeric error (out-of-domain input, non-finite result)
  2 - Input error (unknown formula, missing or malformed parameter)

Examples:
  ubt eval alpha_p --param p=137
  ubt eval --expr "ln(p)/(2*pi)" -p p=137
  ubt eval alpha_run_2loop -p alpha0=0.0072973525693 -p mu=91187.6 -p mu0=0.51099895 -p nf=1`,
		Args:          commandArgs(cobra.ExactArgs(1)),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEval(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringArrayVarP(&opts.Params, "param", "p", nil, "parameter value as name=value (repeatable)")
	cmd.Flags().BoolVar(&opts.Expr, "expr", false, "treat the argument as an expression instead of a formula name")

	return cmd
}

func runEval(opts *EvalOptions, name string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	f, err := resolveFormula(name, opts.Expr)
	if err != nil {
		return formatter.Fail(err)
	}
	params, err := parseAssignments("param", opts.Params)
	if err != nil {
		return formatter.Fail(err)
	}

	formatter.VerboseLog("Evaluating %s with %s", f.Signature(), formatParams(params))
	v, err := evaluator.New(opts.logger(cmd)).Evaluate(f, params)
	if err != nil {
		return formatter.Fail(err)
	}

	if formatter.Format == "json" {
		return formatter.Success(EvalResult{Formula: f.Name, Params: params, Value: v, Placeholder: f.IsPlaceholder()})
	}

	fmt.Fprintf(formatter.Writer, "%s(%s) = %s\n", f.Name, formatParams(params), formatFloat(v))
	if f.IsPlaceholder() {
		fmt.Fprintf(formatter.Writer, "note: %s is a placeholder; this value is not physics\n", f.Name)
	}
	return nil
}

// resolveFormula looks arg up in the catalog, or with expr set parses it
// as an expression whose free symbols are the parameters.
func resolveFormula(arg string, expr bool) (evaluator.Formula, error) {
	if !expr {
		return physics.Lookup(arg)
	}
	e, err := symbolic.Parse(arg)
	if err != nil {
		return evaluator.Formula{}, err
	}
	return symbolic.FromExpr(e.String(), e, symbolic.Default), nil
}
