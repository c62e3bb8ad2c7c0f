// Package extract locates example blocks in a document body and turns
// them into Test records. It is a pure function over the document text:
// nothing is evaluated here.
package extract

import (
	"strings"

	"github.com/dlclark/regexp2"

	"github.com/gar1t/groktest/internal/domain"
	"github.com/gar1t/groktest/internal/opts"
	"github.com/gar1t/groktest/internal/spec"
)

// Tests returns the ordered tests in content. Line numbers are 1-based
// and refer to the first prompt line of each test. The two hard errors
// are "space missing after prompt" and "inconsistent leading
// whitespace", both reported with file and line.
func Tests(content string, s *spec.Spec, filename string) ([]domain.Test, error) {
	var tests []domain.Test
	runes := []rune(content)
	charpos, linepos := 0, 0
	m, err := s.TestPattern.FindRunesMatch(runes)
	if err != nil {
		return nil, domain.NewError("extract", filename, 0, "test pattern failed", err)
	}
	for m != nil {
		linepos += countNewlines(runes[charpos:m.Index])
		test, err := testForMatch(m, s, linepos, filename)
		if err != nil {
			return nil, err
		}
		tests = append(tests, test)
		end := m.Index + m.Length
		linepos += countNewlines(runes[m.Index:end])
		charpos = end
		m, err = s.TestPattern.FindNextMatch(m)
		if err != nil {
			return nil, domain.NewError("extract", filename, 0, "test pattern failed", err)
		}
	}
	return tests, nil
}

func testForMatch(m *regexp2.Match, s *spec.Spec, linepos int, filename string) (domain.Test, error) {
	indent := len(group(m, "indent"))
	expr, err := formatExpr(group(m, "expr"), indent, s, linepos, filename)
	if err != nil {
		return domain.Test{}, err
	}
	expected, err := formatExpected(group(m, "expected"), indent, linepos, filename)
	if err != nil {
		return domain.Test{}, err
	}
	return domain.Test{
		Filename: filename,
		Line:     linepos + 1,
		Expr:     expr,
		Expected: expected,
		Options:  opts.DecodeCandidates(expr),
	}, nil
}

func group(m *regexp2.Match, name string) string {
	g := m.GroupByName(name)
	if g == nil {
		return ""
	}
	return g.String()
}

// formatExpr dedents the matched expression block and strips the PS1
// prompt from the first line and PS2 from continuation lines, joining
// the result into one multi-line expression.
func formatExpr(matched string, indent int, s *spec.Spec, linepos int, filename string) (string, error) {
	lines, err := dedentedLines(matched, indent, linepos, filename)
	if err != nil {
		return "", err
	}
	stripped := make([]string, len(lines))
	for i, line := range lines {
		prompt := s.PS1
		if i > 0 {
			prompt = s.PS2
		}
		stripped[i], err = stripPrompt(line, prompt, linepos+i, filename)
		if err != nil {
			return "", err
		}
	}
	return strings.Join(stripped, "\n"), nil
}

// stripPrompt removes a leading prompt and its mandatory trailing
// space. A line that is exactly the prompt is allowed; any other
// character directly after the prompt is an error.
func stripPrompt(line, prompt string, linepos int, filename string) (string, error) {
	rest, ok := strings.CutPrefix(line, prompt)
	if !ok {
		// The pattern guarantees the prompt prefix after dedent.
		return "", domain.NewError("extract", filename, linepos+1, "missing prompt", nil)
	}
	if rest == "" {
		return "", nil
	}
	if rest[0] != ' ' {
		return "", &domain.TestError{
			Filename: filename,
			Line:     linepos + 1,
			Msg:      "space missing after prompt",
		}
	}
	return rest[1:], nil
}

// formatExpected dedents the matched expected block relative to the
// first prompt line.
func formatExpected(matched string, indent int, linepos int, filename string) (string, error) {
	lines, err := dedentedLines(matched, indent, linepos, filename)
	if err != nil {
		return "", err
	}
	return strings.Join(lines, "\n"), nil
}

// dedentedLines strips the common leading indent from each line. Lines
// with less leading whitespace than the first prompt line are an
// error. A trailing empty line from the match's final newline is
// dropped.
func dedentedLines(s string, indent int, linepos int, filename string) ([]string, error) {
	lines := strings.Split(s, "\n")
	if n := len(lines); n > 0 && strings.TrimSpace(lines[n-1]) == "" {
		lines = lines[:n-1]
	}
	prefix := strings.Repeat(" ", indent)
	out := make([]string, len(lines))
	for i, line := range lines {
		if line != "" && !strings.HasPrefix(line, prefix) {
			return nil, &domain.TestError{
				Filename: filename,
				Line:     linepos + i + 1,
				Msg:      "inconsistent leading whitespace",
			}
		}
		if line == "" {
			out[i] = ""
			continue
		}
		out[i] = line[indent:]
	}
	return out, nil
}

func countNewlines(runes []rune) int {
	n := 0
	for _, r := range runes {
		if r == '\n' {
			n++
		}
	}
	return n
}
