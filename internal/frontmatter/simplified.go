package frontmatter

import (
	"fmt"
	"strings"

	"github.com/gar1t/groktest/internal/opts"
)

// decodeSimplified parses the simplified key/value dialect: one
// `key: value` or `key = value` pair per line, `#` comment lines, and
// scalar coercion for values. A `#` inside a value belongs to the
// value; inline comments are not supported.
func decodeSimplified(raw string) (any, error) {
	data := map[string]any{}
	for i, line := range strings.Split(raw, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		key, val, ok := splitPair(trimmed)
		if !ok {
			return nil, fmt.Errorf("line %d: expected 'key: value' or 'key = value'", i+1)
		}
		data[key] = opts.ParseScalar(val)
	}
	return data, nil
}

// splitPair splits at the first `:` or `=`, whichever comes first.
func splitPair(line string) (string, string, bool) {
	sep := strings.IndexAny(line, ":=")
	if sep <= 0 {
		return "", "", false
	}
	key := strings.TrimSpace(line[:sep])
	val := strings.TrimSpace(line[sep+1:])
	if key == "" {
		return "", "", false
	}
	return key, val, true
}
