// Package docs checks hand-maintained documentation against literal text
// rules and tags flagged files with a warning banner.
//
// Rules are data, not code. They live in a CUE file:
//
//	rules: [{
//		name:   "readme-rating"
//		files:  ["README.md"]
//		require: ["Rating: speculative"]
//	}, {
//		name:   "no-placeholders"
//		files:  ["docs/masses.md", "chapters/masses.tex"]
//		forbid: ["TODO", "XXX"]
//		forbid_regex: ["\\\\placeholder\\{"]
//	}]
package docs

import (
	"errors"
	"fmt"
	"os"
	"regexp"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"

	"github.com/roach88/ubt/internal/evaluator"
)

// Rule is one documentation invariant.
type Rule struct {
	Name         string   `json:"name"`
	Files        []string `json:"files"`
	Require      []string `json:"require,omitempty"`
	Forbid       []string `json:"forbid,omitempty"`
	RequireRegex []string `json:"require_regex,omitempty"`
	ForbidRegex  []string `json:"forbid_regex,omitempty"`
	Message      string   `json:"message,omitempty"`
}

const schema = `
#Rule: {
	name:  string & !=""
	files: [string & !="", ...string & !=""]
	require?: [...string & !=""]
	forbid?: [...string & !=""]
	require_regex?: [...string & !=""]
	forbid_regex?: [...string & !=""]
	message?: string
}

rules: [...#Rule]
`

// LoadRules reads and validates a CUE rule file.
func LoadRules(path string) ([]Rule, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		e := evaluator.NewInputError(evaluator.ErrCodeMissingFile, "cannot read rules: %v", err)
		e.File = path
		return nil, e
	}
	return ParseRules(path, src)
}

// ParseRules validates src against the rule schema and decodes it.
// filename is used in error positions only.
func ParseRules(filename string, src []byte) ([]Rule, error) {
	ctx := cuecontext.New()

	schemaVal := ctx.CompileString(schema, cue.Filename("schema.cue"))
	if err := schemaVal.Err(); err != nil {
		return nil, fmt.Errorf("rule schema: %w", err)
	}

	data := ctx.CompileBytes(src, cue.Filename(filename))
	if err := data.Err(); err != nil {
		return nil, formatCUEError(err, filename)
	}
	if !data.LookupPath(cue.ParsePath("rules")).Exists() {
		e := evaluator.NewInputError(evaluator.ErrCodeMalformedInput, "no rules field")
		e.File = filename
		return nil, e
	}

	value := schemaVal.Unify(data)
	if err := value.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err, filename)
	}

	var rules []Rule
	if err := value.LookupPath(cue.ParsePath("rules")).Decode(&rules); err != nil {
		return nil, formatCUEError(err, filename)
	}

	seen := make(map[string]bool, len(rules))
	for _, r := range rules {
		if seen[r.Name] {
			e := evaluator.NewInputError(evaluator.ErrCodeMalformedInput, "duplicate rule %q", r.Name)
			e.File = filename
			return nil, e
		}
		seen[r.Name] = true
		if _, _, err := r.compile(); err != nil {
			var e *evaluator.Error
			if errors.As(err, &e) {
				e.File = filename
			}
			return nil, err
		}
	}
	return rules, nil
}

// compile compiles the rule's patterns.
func (r Rule) compile() (require, forbid []*regexp.Regexp, err error) {
	build := func(patterns []string) ([]*regexp.Regexp, error) {
		out := make([]*regexp.Regexp, 0, len(patterns))
		for _, p := range patterns {
			re, err := regexp.Compile(normalize(p))
			if err != nil {
				return nil, evaluator.NewInputError(evaluator.ErrCodeMalformedInput, "rule %q: bad pattern %q: %v", r.Name, p, err)
			}
			out = append(out, re)
		}
		return out, nil
	}
	if require, err = build(r.RequireRegex); err != nil {
		return nil, nil, err
	}
	if forbid, err = build(r.ForbidRegex); err != nil {
		return nil, nil, err
	}
	return require, forbid, nil
}

// formatCUEError turns a CUE error into an InputError pointing at the
// first reported position.
func formatCUEError(err error, filename string) error {
	e := evaluator.NewInputError(evaluator.ErrCodeMalformedInput, "%v", err)
	e.File = filename

	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return e
	}
	first := errs[0]
	e.Message = first.Error()
	for _, pos := range cueerrors.Positions(first) {
		if pos.Filename() == filename {
			e.Row = pos.Line()
			break
		}
	}
	return e
}
