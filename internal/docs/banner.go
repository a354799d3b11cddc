package docs

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/roach88/ubt/internal/evaluator"
)

// Banner renders text as a comment block suited to the file at path:
// LaTeX files get "% " lines, Markdown gets an HTML comment, anything
// else gets the text as is.
func Banner(path, text string) string {
	text = strings.TrimRight(normalize(text), "\n")
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tex":
		lines := strings.Split(text, "\n")
		for i, l := range lines {
			lines[i] = strings.TrimRight("% "+l, " ")
		}
		return strings.Join(lines, "\n")
	case ".md", ".markdown":
		return "<!--\n" + text + "\n-->"
	default:
		return text
	}
}

// Tag inserts banner at the top of the file at path unless the file
// already contains it. It reports whether the file was changed, so a
// second call with the same banner is a no-op that returns false.
func Tag(path, banner string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		e := evaluator.NewInputError(evaluator.ErrCodeMissingFile, "cannot tag: %v", err)
		e.File = path
		return false, e
	}
	data, err := os.ReadFile(path)
	if err != nil {
		e := evaluator.NewInputError(evaluator.ErrCodeMissingFile, "cannot tag: %v", err)
		e.File = path
		return false, e
	}

	banner = strings.TrimRight(normalize(banner), "\n")
	if banner == "" {
		return false, evaluator.NewInputError(evaluator.ErrCodeMalformedInput, "banner is empty")
	}
	if strings.Contains(normalize(string(data)), banner) {
		return false, nil
	}

	var buf bytes.Buffer
	body := data
	// Keep a byte order mark ahead of the banner.
	if bom := []byte("\ufeff"); bytes.HasPrefix(body, bom) {
		buf.Write(bom)
		body = body[len(bom):]
	}
	buf.WriteString(banner)
	buf.WriteString("\n\n")
	buf.Write(body)

	if err := os.WriteFile(path, buf.Bytes(), info.Mode().Perm()); err != nil {
		return false, err
	}
	return true, nil
}
