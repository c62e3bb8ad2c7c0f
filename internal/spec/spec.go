// Package spec defines test-type profiles: the prompts, patterns and
// defaults that locate examples of a given flavor in a document.
package spec

import (
	"fmt"
	"regexp"

	"github.com/dlclark/regexp2"

	"github.com/gar1t/groktest/internal/domain"
)

// Spec is a test-type profile.
type Spec struct {
	Name      string
	Runtime   string // runtime adapter key
	PS1       string // primary prompt
	PS2       string // continuation prompt ("" if absent)
	Blankline string // default blank-line marker for expected output
	Wildcard  string // default wildcard token
	// TestPattern matches one example block with named groups indent,
	// expr and expected.
	TestPattern *regexp2.Regexp
}

// testPatternTemplate is the doctest-derived pattern locating a test:
// a PS1 line with optional PS2 continuations, followed by the maximal
// run of non-blank lines that don't start with PS1. Compiled with
// IgnorePatternWhitespace, so literal spaces are bracketed.
const testPatternTemplate = `
# Test expression: PS1 line followed by zero or more PS2 lines
(?<expr>
    (?:^(?<indent> [ ]*) %[1]s .*)   # PS1 line
    (?:\n           [ ]*  %[2]s .*)*  # PS2 lines
)
\n?
# Expected result: any non-blank lines that don't start with PS1
(?<expected>
    (?:
    (?![ ]*$)      # Not a blank line
    (?![ ]*%[1]s)  # Not a line starting with PS1
    .+$\n?         # But any other line
    )*
)
`

// New builds a Spec, compiling the test pattern with the escaped
// prompts substituted in.
func New(name, runtime, ps1, ps2, blankline, wildcard string) *Spec {
	pattern := fmt.Sprintf(
		testPatternTemplate,
		regexp.QuoteMeta(ps1),
		regexp.QuoteMeta(ps2),
	)
	compiled := regexp2.MustCompile(
		pattern,
		regexp2.Multiline|regexp2.IgnorePatternWhitespace,
	)
	return &Spec{
		Name:        name,
		Runtime:     runtime,
		PS1:         ps1,
		PS2:         ps2,
		Blankline:   blankline,
		Wildcard:    wildcard,
		TestPattern: compiled,
	}
}

// Python is the default test type: doctest-style prompts evaluated in
// a Python runtime.
var Python = New("python", "python", ">>>", "...", "⤶", "...")

// Shell locates `>`-prompted commands evaluated in a shell runtime.
// The continuation prompt is `+` so multi-line commands don't collide
// with the `...` wildcard token.
var Shell = New("shell", "shell", ">", "+", "⤶", "...")

// Default is the spec used when a document declares no test type.
var Default = Python

var registry = map[string]*Spec{
	"python": Python,
	"shell":  Shell,
}

// ForName returns the registered spec for a test-type name.
func ForName(name string) (*Spec, error) {
	s, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrTestTypeNotSupported, name)
	}
	return s, nil
}

// ForFrontMatter selects the spec for a document: the type named under
// `tool.groktest.type`, else `test-type`, else the default.
func ForFrontMatter(fm map[string]any) (*Spec, error) {
	name := testTypeName(fm)
	if name == "" {
		return Default, nil
	}
	return ForName(name)
}

func testTypeName(fm map[string]any) string {
	if tool, ok := fm["tool"].(map[string]any); ok {
		if grok, ok := tool["groktest"].(map[string]any); ok {
			if name, ok := grok["type"].(string); ok {
				return name
			}
		}
	}
	name, _ := fm["test-type"].(string)
	return name
}
