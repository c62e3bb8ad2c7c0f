package runner

import (
	"fmt"
	"io"

	"github.com/gar1t/groktest/internal/opts"
	"github.com/gar1t/groktest/internal/report"

	"github.com/gar1t/groktest/internal/domain"
)

// TestFile runs every test in a document and returns the summary.
// When the document sets retry-on-fail=N and an attempt fails, the
// whole document re-executes with a fresh runtime, up to N extra
// attempts; the returned summary reflects the last attempt. Reports
// are written to out.
func TestFile(filename string, baseConfig map[string]any, out io.Writer) (domain.Summary, error) {
	reporter := report.New(out)
	var summary domain.Summary
	retryMax := -1
	for attempt := 1; ; attempt++ {
		state, err := Init(filename, baseConfig)
		if err != nil {
			return domain.Summary{}, err
		}
		if retryMax < 0 {
			retryMax = opts.Int(state.docOptions, "retry-on-fail", 0)
		}
		summary = Run(state, reporter)
		if summary.Failed == 0 || attempt > retryMax {
			return summary, nil
		}
		fmt.Fprintf(out, "Retrying %s (%d of %d)\n", filename, attempt, retryMax)
	}
}
