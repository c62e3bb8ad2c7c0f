// Package config resolves the effective configuration for a test
// document from three sources, in increasing precedence: project
// config, CLI-synthesized config, and document front matter.
package config

import (
	"strings"

	"github.com/gar1t/groktest/internal/frontmatter"
)

// aliases lifts friendly top-level front-matter keys into canonical
// nested config paths.
var aliases = map[string]string{
	"test-options":     "options",
	"parse-types":      "parse.types",
	"parse-functions":  "parse.functions",
	"python-init":      "python.init",
	"shell-init":       "shell.init",
	"option-functions": "option.functions",
}

// Resolve deep-merges project config, CLI config and document front
// matter into one effective config. Front matter is normalized first:
// a `tool.groktest` table is used as-is, otherwise top-level alias keys
// are lifted into their canonical paths.
func Resolve(project, cli, fm map[string]any) map[string]any {
	merged := map[string]any{}
	merged = DeepMerge(merged, project)
	merged = DeepMerge(merged, cli)
	merged = DeepMerge(merged, Normalize(fm))
	return merged
}

// Normalize maps front matter into config form.
func Normalize(fm map[string]any) map[string]any {
	if fm == nil {
		return nil
	}
	if tool, ok := nestedMap(fm, "tool", "groktest"); ok {
		return tool
	}
	out := map[string]any{}
	for name, val := range fm {
		path, ok := aliases[name]
		if !ok {
			out[name] = val
			continue
		}
		setPath(out, strings.Split(path, "."), val)
	}
	return out
}

// DeepMerge merges src into dst: mappings merge key-wise, any other
// value from src replaces the dst value. dst is returned for chaining
// and may be mutated.
func DeepMerge(dst, src map[string]any) map[string]any {
	if dst == nil {
		dst = map[string]any{}
	}
	for key, srcVal := range src {
		if srcMap, ok := srcVal.(map[string]any); ok {
			if dstMap, ok := dst[key].(map[string]any); ok {
				dst[key] = DeepMerge(dstMap, srcMap)
				continue
			}
			dst[key] = DeepMerge(map[string]any{}, srcMap)
			continue
		}
		dst[key] = srcVal
	}
	return dst
}

func setPath(m map[string]any, path []string, val any) {
	for _, name := range path[:len(path)-1] {
		next, ok := m[name].(map[string]any)
		if !ok {
			next = map[string]any{}
			m[name] = next
		}
		m = next
	}
	leaf := path[len(path)-1]
	if valMap, ok := val.(map[string]any); ok {
		if dstMap, ok := m[leaf].(map[string]any); ok {
			m[leaf] = DeepMerge(dstMap, valMap)
			return
		}
	}
	m[leaf] = val
}

func nestedMap(m map[string]any, path ...string) (map[string]any, bool) {
	for _, name := range path {
		next, ok := m[name].(map[string]any)
		if !ok {
			return nil, false
		}
		m = next
	}
	return m, true
}

// Strings coerces a config value into a list of strings, accepting a
// single string, a []string or a []any of strings.
func Strings(val any) []string {
	switch v := val.(type) {
	case nil:
		return nil
	case string:
		return []string{v}
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// Src returns the source path recorded in a config or front-matter
// mapping, if any.
func Src(m map[string]any) string {
	s, _ := m[frontmatter.SrcKey].(string)
	return s
}
