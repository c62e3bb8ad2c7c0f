// Package report formats per-failure reports and the run summary.
package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/gar1t/groktest/internal/domain"
)

const sep = "**********************************************************************"

// Reporter writes failure reports and summaries to Out. Styled is
// enabled when Out is a terminal.
type Reporter struct {
	Out    io.Writer
	Styled bool
}

// New creates a Reporter, detecting terminal output for styling.
func New(out io.Writer) *Reporter {
	styled := false
	if f, ok := out.(*os.File); ok {
		styled = isatty.IsTerminal(f.Fd())
	}
	return &Reporter{Out: out, Styled: styled}
}

// FailureOptions control the shape of one failure report.
type FailureOptions struct {
	Diff      bool   // unified diff instead of expected/got blocks
	Blankline string // marker re-inserted into shown output; "" disables
}

// TestFailed emits the expected/got (or diff) report for one failed
// test.
func (r *Reporter) TestFailed(test domain.Test, output string, o FailureOptions) {
	r.sep()
	fmt.Fprintf(r.Out, "File %q, line %d\n", test.Filename, test.Line)
	fmt.Fprintln(r.Out, "Failed example:")
	r.indented(test.Expr)
	got := formatOutput(output, o.Blankline)
	if o.Diff {
		r.diff(test.Expected, got)
		return
	}
	if test.Expected != "" {
		fmt.Fprintln(r.Out, "Expected:")
		r.indented(test.Expected)
	} else {
		fmt.Fprintln(r.Out, "Expected nothing")
	}
	if got != "" {
		fmt.Fprintln(r.Out, "Got:")
		r.indented(got)
	} else {
		fmt.Fprintln(r.Out, "Got nothing")
	}
}

// UnexpectedPass reports a test that carried +fails but passed.
func (r *Reporter) UnexpectedPass(test domain.Test) {
	r.sep()
	fmt.Fprintf(r.Out, "File %q, line %d\n", test.Filename, test.Line)
	fmt.Fprintln(r.Out, "Failed example:")
	r.indented(test.Expr)
	fmt.Fprintln(r.Out, "Expected test to fail but passed")
}

func (r *Reporter) diff(expected, got string) {
	text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(expected),
		B:        difflib.SplitLines(got),
		FromFile: "expected",
		ToFile:   "got",
		Context:  2,
	})
	if err != nil {
		fmt.Fprintf(r.Out, "  (diff failed: %v)\n", err)
		return
	}
	for _, line := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
		fmt.Fprintf(r.Out, "  %s\n", line)
	}
}

func (r *Reporter) sep() {
	if r.Styled {
		fmt.Fprintf(r.Out, "\x1b[1m%s\x1b[0m\n", sep)
		return
	}
	fmt.Fprintln(r.Out, sep)
}

func (r *Reporter) indented(s string) {
	for _, line := range strings.Split(s, "\n") {
		fmt.Fprintf(r.Out, "    %s\n", line)
	}
}

var emptyLine = regexp.MustCompile(`(?m)^[ ]*$`)

// formatOutput prepares actual output for display: empty lines show
// the blank-line marker and a trailing LF is stripped.
func formatOutput(output, blankline string) string {
	if output == "" {
		return ""
	}
	s := strings.TrimSuffix(output, "\n")
	if blankline != "" {
		s = emptyLine.ReplaceAllString(s, blankline)
	}
	return s
}

// PrintSummary writes the final run summary and returns the process
// exit code: 0 on success, 1 on any failure, 2 when nothing was
// tested.
func (r *Reporter) PrintSummary(s domain.Summary, showSkipped bool) int {
	fmt.Fprintln(r.Out, strings.Repeat("-", 70))
	if s.Tested == 0 {
		fmt.Fprintln(r.Out, "Nothing tested 😴")
		return 2
	}
	fmt.Fprintf(r.Out, "%d %s run\n", s.Tested, plural(s.Tested, "test", "tests"))
	if s.Skipped > 0 {
		hint := ""
		if !showSkipped {
			hint = " (use --show-skipped to view)"
		}
		fmt.Fprintf(r.Out, "%d %s skipped%s\n", s.Skipped, plural(s.Skipped, "test", "tests"), hint)
		if showSkipped {
			r.locations(s.SkippedLocations)
		}
	}
	if s.Failed > 0 {
		fmt.Fprintf(r.Out, "%d %s failed 💥 (see above for details)\n",
			s.Failed, plural(s.Failed, "test", "tests"))
		r.locations(s.FailedLocations)
		return 1
	}
	fmt.Fprintln(r.Out, "All tests passed 🎉")
	return 0
}

func (r *Reporter) locations(locations []domain.Location) {
	for _, loc := range locations {
		fmt.Fprintf(r.Out, " - %s:%d\n", relpath(loc.Filename), loc.Line)
	}
}

func relpath(path string) string {
	cwd, err := os.Getwd()
	if err != nil {
		return path
	}
	rel, err := filepath.Rel(cwd, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
