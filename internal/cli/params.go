package cli

import (
	"strconv"
	"strings"

	"github.com/roach88/ubt/internal/evaluator"
)

// parseAssignments parses name=value flags into a parameter map. flag
// names the flag in error messages.
func parseAssignments(flag string, pairs []string) (evaluator.Params, error) {
	params := make(evaluator.Params, len(pairs))
	for _, pair := range pairs {
		name, raw, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			e := evaluator.NewInputError(evaluator.ErrCodeMalformedInput, "--%s %q: expected name=value", flag, pair)
			return nil, e
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			e := evaluator.NewInputError(evaluator.ErrCodeInvalidParameter, "--%s %s: %q is not a number", flag, name, raw)
			e.Param = name
			return nil, e
		}
		if _, dup := params[name]; dup {
			e := evaluator.NewInputError(evaluator.ErrCodeMalformedInput, "--%s %s given twice", flag, name)
			e.Param = name
			return nil, e
		}
		params[name] = v
	}
	return params, nil
}

// formatParams renders params as "a=1, b=2" in name order.
func formatParams(p evaluator.Params) string {
	names := p.Names()
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = n + "=" + formatFloat(p[n])
	}
	return strings.Join(parts, ", ")
}

// formatFloat renders v in the shortest form that parses back to v.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
