package docs

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/ubt/internal/evaluator"
)

// Violation is one failed rule on one file.
type Violation struct {
	Rule    string              `json:"rule"`
	File    string              `json:"file"`
	Code    evaluator.ErrorCode `json:"code"`
	Pattern string              `json:"pattern"`
	Line    int                 `json:"line,omitempty"`
	Message string              `json:"message,omitempty"`
}

func (v Violation) String() string {
	what := "missing required"
	if v.Code == evaluator.ErrCodeForbiddenText {
		what = "contains forbidden"
	}
	loc := v.File
	if v.Line > 0 {
		loc = fmt.Sprintf("%s:%d", v.File, v.Line)
	}
	s := fmt.Sprintf("%s: rule %q: %s text %q", loc, v.Rule, what, v.Pattern)
	if v.Message != "" {
		s += ": " + v.Message
	}
	return s
}

// Err converts the violation to a ConsistencyError.
func (v Violation) Err() error {
	e := evaluator.NewConsistencyError(v.Code, "%s", v.String())
	e.File = v.File
	e.Row = v.Line
	return e
}

// Checker runs rules against documents under Root.
type Checker struct {
	Root   string
	Logger *slog.Logger
}

// Check runs rules against documents under root with no logging.
func Check(root string, rules []Rule) ([]Violation, error) {
	return Checker{Root: root}.Check(rules)
}

// Check returns every violation of rules. A document that cannot be read
// is an InputError and stops the run; violations never do.
func (c Checker) Check(rules []Rule) ([]Violation, error) {
	logger := c.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	var violations []Violation
	texts := make(map[string]string)
	for _, r := range rules {
		requireRe, forbidRe, err := r.compile()
		if err != nil {
			return nil, err
		}

		for _, name := range r.Files {
			text, ok := texts[name]
			if !ok {
				text, err = c.read(name)
				if err != nil {
					return nil, err
				}
				texts[name] = text
			}
			logger.Debug("checking document", "rule", r.Name, "file", name)

			add := func(code evaluator.ErrorCode, pattern string, offset int) {
				v := Violation{Rule: r.Name, File: name, Code: code, Pattern: pattern, Message: r.Message}
				if offset >= 0 {
					v.Line = strings.Count(text[:offset], "\n") + 1
				}
				violations = append(violations, v)
			}

			for _, s := range r.Require {
				if !strings.Contains(text, normalize(s)) {
					add(evaluator.ErrCodeRequiredText, s, -1)
				}
			}
			for _, s := range r.Forbid {
				if i := strings.Index(text, normalize(s)); i >= 0 {
					add(evaluator.ErrCodeForbiddenText, s, i)
				}
			}
			for i, re := range requireRe {
				if !re.MatchString(text) {
					add(evaluator.ErrCodeRequiredText, r.RequireRegex[i], -1)
				}
			}
			for i, re := range forbidRe {
				if loc := re.FindStringIndex(text); loc != nil {
					add(evaluator.ErrCodeForbiddenText, r.ForbidRegex[i], loc[0])
				}
			}
		}
	}
	return violations, nil
}

func (c Checker) read(name string) (string, error) {
	path := name
	if !filepath.IsAbs(path) {
		path = filepath.Join(c.Root, name)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		e := evaluator.NewInputError(evaluator.ErrCodeMissingFile, "cannot read document: %v", err)
		e.File = name
		return "", e
	}
	return normalize(string(data)), nil
}

// normalize puts text in NFC so composed and decomposed accents match.
func normalize(s string) string {
	return norm.NFC.String(s)
}
