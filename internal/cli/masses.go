package cli

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/ubt/internal/table"
)

// MassesOptions holds flags for the masses command.
type MassesOptions struct {
	*RootOptions
	Compute   bool
	Out       string
	Tolerance float64
}

// MassesResult is the JSON payload of masses.
type MassesResult struct {
	File       string      `json:"file"`
	Rows       []table.Row `json:"rows"`
	Computed   bool        `json:"computed"`
	Consistent bool        `json:"consistent"`
	Out        string      `json:"out,omitempty"`
}

// NewMassesCommand creates the masses command.
func NewMassesCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MassesOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "masses <table.csv>",
		Short: "Check or compute a lepton mass table",
		Long: `Load a mass table with the header

  name,symbol,msbar_mass_mev,pole_mass_mev,mu_mev,alpha_mu

and check each stated pole mass against the one-loop relation from the
MS-bar mass. With --compute, pole masses are computed instead (blank
pole cells are allowed) and the table is written to --out or stdout.

Exit codes:
  0 - Table consistent (or computed)
  1 - A pole mass disagrees, or a row is outside the relation's domain
  2 - Missing file, column or cell, or a malformed number

Examples:
  ubt masses leptons.csv
  ubt masses leptons.csv --compute --out leptons.csv`,
		Args:          commandArgs(cobra.ExactArgs(1)),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMasses(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Compute, "compute", false, "compute pole masses instead of checking them")
	cmd.Flags().StringVarP(&opts.Out, "out", "o", "", "write the computed table to this file")
	cmd.Flags().Float64Var(&opts.Tolerance, "tolerance", 1e-6, "relative tolerance for stated pole masses")

	return cmd
}

func runMasses(opts *MassesOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	rows, err := table.LoadFile(path, table.Options{PoleOptional: opts.Compute})
	if err != nil {
		return formatter.Fail(err)
	}
	formatter.VerboseLog("Loaded %d row(s) from %s", len(rows), path)

	if !opts.Compute {
		if err := table.VerifyPoles(rows, opts.Tolerance); err != nil {
			return formatter.Fail(err)
		}
		if formatter.Format == "json" {
			return formatter.Success(MassesResult{File: path, Rows: rows, Consistent: true})
		}
		for _, r := range rows {
			fmt.Fprintf(formatter.Writer, "%-10s %-6s msbar %-14s pole %-20s mu %s\n",
				r.Name, r.Symbol, formatFloat(r.MSBar), formatFloat(r.Pole), formatFloat(r.Mu))
		}
		fmt.Fprintf(formatter.Writer, "✓ %d row(s) consistent within %.3g\n", len(rows), opts.Tolerance)
		return nil
	}

	computed, err := table.ComputePoles(rows)
	if err != nil {
		return formatter.Fail(err)
	}

	var buf bytes.Buffer
	if err := table.Write(&buf, computed); err != nil {
		return formatter.Fail(err)
	}
	if opts.Out != "" {
		if err := os.WriteFile(opts.Out, buf.Bytes(), 0644); err != nil {
			return WrapExitError(ExitCommandError, "failed to write table", err)
		}
		formatter.VerboseLog("Wrote %s", opts.Out)
	}

	if formatter.Format == "json" {
		return formatter.Success(MassesResult{File: path, Rows: computed, Computed: true, Consistent: true, Out: opts.Out})
	}
	if opts.Out == "" {
		_, err := formatter.Writer.Write(buf.Bytes())
		return err
	}
	fmt.Fprintf(formatter.Writer, "✓ computed %d pole mass(es) into %s\n", len(computed), opts.Out)
	return nil
}
