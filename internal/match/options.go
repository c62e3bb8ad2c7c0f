package match

import (
	"github.com/gar1t/groktest/internal/opts"
	"github.com/gar1t/groktest/internal/spec"
)

// Resolve derives matching Options from a test's effective option map
// and the document's test-type spec. `+wildcard` and `+blankline`
// without values resolve to the spec's default tokens; `-blankline`
// disables marker substitution; `+paths` without a value normalizes to
// forward slashes.
func Resolve(options map[string]any, s *spec.Spec, types map[string]string) Options {
	blankline := s.Blankline
	if val, ok := options["blankline"]; ok && val != nil {
		blankline = opts.String(options, "blankline", s.Blankline)
	}
	return Options{
		Parse:     opts.Bool(options, "parse", false),
		Case:      opts.Bool(options, "case", true),
		Space:     opts.Bool(options, "space", true),
		Wildcard:  opts.String(options, "wildcard", s.Wildcard),
		Blankline: blankline,
		Paths:     opts.String(options, "paths", "/"),
		Types:     types,
	}
}

// TypesFromConfig extracts custom parse types registered under
// parse.types in the effective config.
func TypesFromConfig(cfg map[string]any) map[string]string {
	parse, ok := cfg["parse"].(map[string]any)
	if !ok {
		return nil
	}
	raw, ok := parse["types"].(map[string]any)
	if !ok {
		return nil
	}
	types := make(map[string]string, len(raw))
	for name, val := range raw {
		if pattern, ok := val.(string); ok {
			types[name] = pattern
		}
	}
	return types
}
