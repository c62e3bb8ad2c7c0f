// Package runner drives the tests of one document through a long-lived
// runtime, applying skip/solo/fails logic and producing a summary.
package runner

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/gar1t/groktest/internal/config"
	"github.com/gar1t/groktest/internal/domain"
	"github.com/gar1t/groktest/internal/extract"
	"github.com/gar1t/groktest/internal/frontmatter"
	"github.com/gar1t/groktest/internal/match"
	"github.com/gar1t/groktest/internal/opts"
	"github.com/gar1t/groktest/internal/report"
	"github.com/gar1t/groktest/internal/runtime"
	"github.com/gar1t/groktest/internal/spec"
)

var log = logrus.WithField("pkg", "runner")

// State is the per-document runner state. The runtime is owned by the
// state: started during Init, stopped on every termination path.
type State struct {
	Filename string
	Spec     *spec.Spec
	Config   map[string]any
	Tests    []domain.Test
	Runtime  runtime.Runtime

	docOptions map[string]any
	types      map[string]string
	soloActive bool
	skiprest   bool
}

// initRuntime is swapped in tests to avoid spawning real interpreter
// processes.
var initRuntime = runtime.Init

// Init builds the runner state for a document: front matter is parsed,
// the effective config resolved, the test type selected, the runtime
// started and the tests extracted. On any error after the runtime
// starts, the runtime is stopped before returning.
func Init(filename string, baseConfig map[string]any) (*State, error) {
	raw, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	content := string(raw)
	fm := frontmatter.Parse(content, filename)
	s, err := spec.ForFrontMatter(fm)
	if err != nil {
		return nil, err
	}
	cfg := config.Resolve(nil, baseConfig, fm)
	rt, err := initRuntime(s.Runtime, cfg)
	if err != nil {
		return nil, err
	}
	tests, err := extract.Tests(content, s, filename)
	if err != nil {
		_ = rt.Stop(runtime.StopTimeout)
		return nil, err
	}
	return &State{
		Filename:   filename,
		Spec:       s,
		Config:     cfg,
		Tests:      tests,
		Runtime:    rt,
		docOptions: configOptions(cfg),
		types:      match.TypesFromConfig(cfg),
	}, nil
}

// configOptions decodes the config-level options strings into a map.
func configOptions(cfg map[string]any) map[string]any {
	parsed := map[string]any{}
	for _, part := range optionParts(cfg["options"]) {
		for name, val := range opts.Decode(part) {
			parsed[name] = val
		}
	}
	return parsed
}

func optionParts(val any) []string {
	switch v := val.(type) {
	case nil:
		return nil
	case string:
		return []string{v}
	case []any:
		var parts []string
		for _, item := range v {
			if s, ok := item.(string); ok {
				parts = append(parts, s)
			} else {
				log.Warnf("invalid option %v: expected string", item)
			}
		}
		return parts
	default:
		log.Warnf("invalid options %v: expected string or list of strings", val)
		return nil
	}
}

// Run executes the document's tests in order and returns the summary.
// Failure reports go through the reporter. The runtime is stopped
// before Run returns.
func Run(state *State, reporter *report.Reporter) domain.Summary {
	defer func() {
		if err := state.Runtime.Stop(runtime.StopTimeout); err != nil {
			log.Warnf("error stopping runtime for %s: %v", state.Filename, err)
		}
	}()

	summary := domain.Summary{}
	if len(state.Tests) == 0 {
		log.Debugf("nothing tested in %s", state.Filename)
		return summary
	}
	state.soloActive = anySolo(state)

	for i, test := range state.Tests {
		options := state.effectiveOptions(test)

		if state.skipTest(test, options) {
			markSkipped(&summary, test)
			continue
		}
		if commentOnly(test.Expr) {
			// Option-only directive: a no-op pass.
			summary.Tested++
			state.applyDirectives(options)
			continue
		}

		passed := state.runTest(test, options, reporter, &summary)
		state.applyDirectives(options)

		failFast := opts.Bool(options, "fail-fast", false) ||
			opts.Bool(state.Config, "fail-fast", false)
		if !passed && failFast {
			for _, rest := range state.Tests[i+1:] {
				markSkipped(&summary, rest)
			}
			break
		}
	}
	return summary
}

// runTest executes one test and records the outcome. Returns whether
// the test counts as passed after the fails option is applied.
func (state *State) runTest(
	test domain.Test,
	options map[string]any,
	reporter *report.Reporter,
	summary *domain.Summary,
) bool {
	result, err := state.Runtime.ExecTestExpr(test, options)
	if err != nil {
		log.Errorf("error running test at %s:%d: %v", test.Filename, test.Line, err)
		summary.Tested++
		summary.Failed++
		summary.FailedLocations = append(summary.FailedLocations, location(test))
		return false
	}

	mo := match.Resolve(options, state.Spec, state.types)
	m := match.Match(test.Expected, result.Output, mo)
	logResult(test, result, m)

	fails := opts.Bool(options, "fails", false)
	passed := m.Match != fails

	summary.Tested++
	switch {
	case passed && m.Match:
		if len(m.Vars) > 0 {
			if err := state.Runtime.HandleTestMatch(m.Vars); err != nil {
				log.Warnf("error binding test vars at %s:%d: %v", test.Filename, test.Line, err)
			}
		}
	case passed:
		// Failed as expected under +fails.
	case fails:
		reporter.UnexpectedPass(test)
		summary.Failed++
		summary.FailedLocations = append(summary.FailedLocations, location(test))
	default:
		reporter.TestFailed(test, result.Output, report.FailureOptions{
			Diff:      opts.Bool(options, "diff", false),
			Blankline: mo.Blankline,
		})
		summary.Failed++
		summary.FailedLocations = append(summary.FailedLocations, location(test))
	}
	return passed
}

// effectiveOptions overlays a test's inline options on the document
// options.
func (state *State) effectiveOptions(test domain.Test) map[string]any {
	return opts.Merge(state.docOptions, test.Options)
}

// skipTest applies the skiprest latch, solo mode and the skip option.
func (state *State) skipTest(test domain.Test, options map[string]any) bool {
	if state.skiprest {
		if val, ok := options["skiprest"].(bool); ok && !val {
			state.skiprest = false
		} else {
			return true
		}
	}
	if state.soloActive && !opts.Bool(options, "solo", false) {
		return true
	}
	return skipOption(options["skip"])
}

// skipOption interprets the skip option: a boolean skips directly; a
// string names environment variables, comma separated, where NAME
// skips when set non-empty and !NAME skips when unset or empty.
func skipOption(val any) bool {
	switch v := val.(type) {
	case bool:
		return v
	case string:
		for _, name := range strings.Split(v, ",") {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			if negated := strings.HasPrefix(name, "!"); negated {
				if os.Getenv(name[1:]) == "" {
					return true
				}
			} else if os.Getenv(name) != "" {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// applyDirectives latches state-changing options carried by a test.
func (state *State) applyDirectives(options map[string]any) {
	if val, ok := options["skiprest"].(bool); ok && val {
		state.skiprest = true
	}
}

func anySolo(state *State) bool {
	for _, test := range state.Tests {
		if opts.Bool(test.Options, "solo", false) {
			return true
		}
	}
	return false
}

func commentOnly(expr string) bool {
	for _, line := range strings.Split(expr, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed != "" && !strings.HasPrefix(trimmed, "#") {
			return false
		}
	}
	return true
}

func markSkipped(summary *domain.Summary, test domain.Test) {
	summary.Skipped++
	summary.SkippedLocations = append(summary.SkippedLocations, location(test))
}

func location(test domain.Test) domain.Location {
	return domain.Location{Filename: test.Filename, Line: test.Line}
}

func logResult(test domain.Test, result domain.TestOutput, m domain.TestMatch) {
	log.Debugf("result for %q", test.Expr)
	log.Debugf("  match: %v vars: %v", m.Match, m.Vars)
	log.Debugf("  expected: %q", test.Expected)
	log.Debugf("  output: (%d) %q", result.Code, result.Output)
}
