package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/ubt/internal/evaluator"
	"github.com/roach88/ubt/internal/physics"
)

// RangeOptions holds the flags that build a value sequence.
type RangeOptions struct {
	From      float64
	To        float64
	Steps     int
	Geometric bool
	Tolerance float64
}

func (r *RangeOptions) register(cmd *cobra.Command, from, to float64) {
	cmd.Flags().Float64Var(&r.From, "from", from, "first value of the sequence")
	cmd.Flags().Float64Var(&r.To, "to", to, "last value of the sequence")
	cmd.Flags().IntVar(&r.Steps, "steps", 5, "number of values, endpoints included")
	cmd.Flags().BoolVar(&r.Geometric, "geometric", false, "space values geometrically instead of linearly")
	cmd.Flags().Float64Var(&r.Tolerance, "tolerance", 0, "require spread below this bound (0 reports the spread only)")
}

func (r *RangeOptions) values() ([]float64, error) {
	if r.Geometric {
		return evaluator.Geomspace(r.From, r.To, r.Steps)
	}
	return evaluator.Linspace(r.From, r.To, r.Steps)
}

// SweepOptions holds flags for the sweep command.
type SweepOptions struct {
	*RootOptions
	RangeOptions
	Vary   string
	Params []string
	Expr   bool
}

// CoScaleOptions holds flags for the coscale command.
type CoScaleOptions struct {
	*RootOptions
	RangeOptions
	Scale  []string
	Preset string
	Params []string
	Expr   bool
}

// coScalingPresets are the named exponent sets accepted by --preset.
var coScalingPresets = map[string]func() map[string]float64{
	"rydberg": physics.RydbergCoScaling,
	"thomson": physics.ThomsonCoScaling,
}

// SweepOutput is the JSON payload of sweep and coscale.
type SweepOutput struct {
	*evaluator.SweepResult
	Spread    float64 `json:"spread"`
	Tolerance float64 `json:"tolerance,omitempty"`
	Flat      *bool   `json:"flat,omitempty"`
}

// NewSweepCommand creates the sweep command.
func NewSweepCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SweepOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "sweep <formula|expression>",
		Short: "Evaluate a formula across one parameter",
		Long: `Evaluate a formula once per value of one parameter, holding the
others fixed, and report the spread (max - min) of the outputs.

With --tolerance, the sweep must be flat: a spread at or above the
tolerance is an invariant failure. With --expr the argument is an
expression over its free symbols.

Examples:
  ubt sweep alpha_p --vary p --from 2 --to 137 --steps 10
  ubt sweep rydberg_rel --vary alpha --from 0.0065 --to 0.008 -p m_e=0.51099895
  ubt sweep --expr "ln(p)/(2*pi) * (2*pi/ln(p))" --vary p --from 2 --to 137 --tolerance 1e-12`,
		Args:          commandArgs(cobra.ExactArgs(1)),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSweep(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Vary, "vary", "", "parameter to sweep (required)")
	cmd.Flags().StringArrayVarP(&opts.Params, "param", "p", nil, "fixed parameter value as name=value (repeatable)")
	cmd.Flags().BoolVar(&opts.Expr, "expr", false, "treat the argument as an expression instead of a formula name")
	opts.RangeOptions.register(cmd, 1, 2)

	return cmd
}

// NewCoScaleCommand creates the coscale command.
func NewCoScaleCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CoScaleOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "coscale <formula|expression>",
		Short: "Evaluate a formula under a co-scaling of its parameters",
		Long: `Evaluate a formula at each scale factor s, multiplying every scaled
parameter's base value by s^exponent. A formula invariant under the
co-scaling gives a flat sweep.

--preset rydberg or thomson supplies the exponents under which that
proxy is invariant; --scale entries override the preset.

Base values come from --param; every scaled parameter needs one. With
--expr the argument is an expression over its free symbols.

Examples:
  ubt coscale rydberg_rel --scale alpha=1 --scale m_e=-2 \
    -p alpha=0.0072973525693 -p m_e=0.51099895 --from 0.9 --to 1.1 --steps 7 --tolerance 1e-3
  ubt coscale thomson_rel --preset thomson -p alpha=0.0072973525693 -p m_e=0.51099895 --tolerance 1e-9`,
		Args:          commandArgs(cobra.ExactArgs(1)),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCoScale(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringArrayVar(&opts.Scale, "scale", nil, "scaled parameter as name=exponent (repeatable)")
	cmd.Flags().StringVar(&opts.Preset, "preset", "", "named exponent set: rydberg or thomson")
	cmd.Flags().StringArrayVarP(&opts.Params, "param", "p", nil, "base parameter value as name=value (repeatable)")
	cmd.Flags().BoolVar(&opts.Expr, "expr", false, "treat the argument as an expression instead of a formula name")
	opts.RangeOptions.register(cmd, 0.9, 1.1)

	return cmd
}

func runSweep(opts *SweepOptions, name string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	if opts.Vary == "" {
		return formatter.Fail(evaluator.NewInputError(evaluator.ErrCodeMalformedInput, "--vary is required"))
	}
	f, err := resolveFormula(name, opts.Expr)
	if err != nil {
		return formatter.Fail(err)
	}
	fixed, err := parseAssignments("param", opts.Params)
	if err != nil {
		return formatter.Fail(err)
	}
	values, err := opts.values()
	if err != nil {
		return formatter.Fail(err)
	}

	formatter.VerboseLog("Sweeping %s over %s in %d steps", f.Signature(), opts.Vary, len(values))
	r, err := evaluator.New(opts.logger(cmd)).Sweep(f, opts.Vary, values, fixed)
	if err != nil {
		return formatter.Fail(err)
	}
	return outputSweep(formatter, f, r, opts.Tolerance)
}

func runCoScale(opts *CoScaleOptions, name string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	if len(opts.Scale) == 0 && opts.Preset == "" {
		return formatter.Fail(evaluator.NewInputError(evaluator.ErrCodeMalformedInput, "at least one --scale or a --preset is required"))
	}
	f, err := resolveFormula(name, opts.Expr)
	if err != nil {
		return formatter.Fail(err)
	}
	scaling, err := parseAssignments("scale", opts.Scale)
	if err != nil {
		return formatter.Fail(err)
	}
	if opts.Preset != "" {
		preset, ok := coScalingPresets[opts.Preset]
		if !ok {
			return formatter.Fail(evaluator.NewInputError(evaluator.ErrCodeMalformedInput,
				"--preset %q: expected rydberg or thomson", opts.Preset))
		}
		for param, k := range preset() {
			if _, set := scaling[param]; !set {
				scaling[param] = k
			}
		}
	}
	base, err := parseAssignments("param", opts.Params)
	if err != nil {
		return formatter.Fail(err)
	}
	factors, err := opts.values()
	if err != nil {
		return formatter.Fail(err)
	}

	formatter.VerboseLog("Co-scaling %s with %s in %d steps", f.Signature(), formatParams(scaling), len(factors))
	r, err := evaluator.New(opts.logger(cmd)).SweepCoScaled(f, scaling, factors, base)
	if err != nil {
		return formatter.Fail(err)
	}
	return outputSweep(formatter, f, r, opts.Tolerance)
}

// outputSweep prints the sweep and, when tol is positive, enforces
// flatness.
func outputSweep(formatter *OutputFormatter, f evaluator.Formula, r *evaluator.SweepResult, tol float64) error {
	spread := evaluator.Spread(r)
	var flatErr error
	out := SweepOutput{SweepResult: r, Spread: spread}
	if tol > 0 {
		flat := evaluator.CheckFlatness(r, tol)
		out.Tolerance = tol
		out.Flat = &flat
		flatErr = evaluator.RequireFlat(r, tol)
	}

	if formatter.Format == "json" {
		if flatErr != nil {
			return formatter.Fail(flatErr)
		}
		return formatter.Success(out)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "%-24s %s\n", r.Param, r.Formula)
	for _, p := range r.Points {
		fmt.Fprintf(w, "%-24s %s\n", formatFloat(p.Value), formatFloat(p.Output))
	}
	if f.IsPlaceholder() {
		fmt.Fprintf(w, "note: %s is a placeholder; flatness here is not evidence\n", f.Name)
	}
	if tol <= 0 {
		fmt.Fprintf(w, "spread %.6g\n", spread)
		return nil
	}
	if flatErr != nil {
		fmt.Fprintf(w, "✗ spread %.6g, tolerance %.3g\n", spread, tol)
		return formatter.Fail(flatErr)
	}
	fmt.Fprintf(w, "✓ spread %.6g below tolerance %.3g\n", spread, tol)
	return nil
}
