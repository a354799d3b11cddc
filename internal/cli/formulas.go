package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/ubt/internal/evaluator"
	"github.com/roach88/ubt/internal/physics"
)

// FormulaInfo describes one catalog formula.
type FormulaInfo struct {
	Name        string           `json:"name"`
	Params      []string         `json:"params"`
	Status      evaluator.Status `json:"status"`
	Description string           `json:"description"`
}

// NewFormulasCommand creates the formulas command.
func NewFormulasCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "formulas",
		Short: "List the formula catalog",
		Long: `List every formula in the catalog with its parameters.

Placeholder formulas stand in for physics that is not derived yet and
are marked as such.`,
		Args:          commandArgs(cobra.NoArgs),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFormulas(rootOpts, cmd)
		},
	}
	return cmd
}

func runFormulas(opts *RootOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	all := physics.All()
	infos := make([]FormulaInfo, len(all))
	for i, f := range all {
		infos[i] = FormulaInfo{Name: f.Name, Params: f.Params, Status: f.Status, Description: f.Description}
	}

	if formatter.Format == "json" {
		return formatter.Success(infos)
	}

	w := formatter.Writer
	for _, f := range all {
		marker := ""
		if f.IsPlaceholder() {
			marker = " [placeholder]"
		}
		fmt.Fprintf(w, "%-40s %s%s\n", f.Signature(), f.Description, marker)
	}
	return nil
}
