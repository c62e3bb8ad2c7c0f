// Package frontmatter extracts and decodes the fenced header of a test
// document.
//
// Front matter is the content between a leading line `---` at the very
// top of the document (blank lines before it are allowed) and the next
// line `---`. The captured text is tried as JSON, TOML, YAML and
// finally a simplified key/value dialect; the first decoder producing a
// mapping wins.
package frontmatter

import (
	"encoding/json"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/sirupsen/logrus"
	"github.com/tailscale/hujson"
	"gopkg.in/yaml.v3"
)

var log = logrus.WithField("pkg", "frontmatter")

// SrcKey is the synthetic key recording the source filename in every
// parsed front-matter mapping.
const SrcKey = "__src__"

// Parse returns the front-matter mapping for a document. Absent or
// malformed front matter yields an empty mapping; malformed input is
// reported once as a warning. The result always carries SrcKey.
func Parse(content, filename string) map[string]any {
	fm := map[string]any{}
	raw, ok := Split(content)
	if ok {
		fm = decode(raw, filename)
	}
	fm[SrcKey] = filename
	return fm
}

// Split extracts the raw front-matter text between the fences. Lines
// are examined only up to the closing fence, or up to the first
// non-blank line when it is not an opening fence.
func Split(content string) (string, bool) {
	var body []string
	inFence := false
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimRight(line, " \t")
		switch {
		case !inFence && trimmed == "":
			// Leading blank lines before the fence are allowed.
		case trimmed == "---":
			if inFence {
				return strings.Join(body, "\n"), true
			}
			inFence = true
		case !inFence:
			return "", false
		default:
			body = append(body, line)
		}
	}
	return "", false
}

func decode(raw, filename string) map[string]any {
	type dialect struct {
		name string
		fn   func(string) (any, error)
	}
	dialects := []dialect{
		{"JSON", decodeJSON},
		{"TOML", decodeTOML},
		{"YAML", decodeYAML},
		{"simplified", decodeSimplified},
	}
	var nonMap any
	sawNonMap := false
	for _, d := range dialects {
		data, err := d.fn(raw)
		if err != nil {
			log.Debugf("error parsing %s front matter for %s: %v", d.name, filename, err)
			continue
		}
		m, ok := asStringMap(data)
		if ok && m == nil {
			// An empty document decodes to a nil map.
			m = map[string]any{}
		}
		if !ok {
			// A dialect parsed the text but not to a mapping. Keep
			// trying: `key = value` lines are a YAML scalar but valid
			// in the simplified dialect.
			log.Debugf("%s front matter for %s is not a map, trying next dialect", d.name, filename)
			nonMap, sawNonMap = data, true
			continue
		}
		log.Debugf("parsed %s front matter for %s", d.name, filename)
		return m
	}
	if sawNonMap {
		log.Warnf("unexpected front matter type %T in %s, expected map", nonMap, filename)
	} else {
		log.Warnf("malformed front matter in %s", filename)
	}
	return map[string]any{}
}

// decodeJSON accepts strict JSON plus the human-friendly extensions
// (comments, trailing commas) by standardizing first.
func decodeJSON(raw string) (any, error) {
	std, err := hujson.Standardize([]byte(raw))
	if err != nil {
		return nil, err
	}
	var data any
	if err := json.Unmarshal(std, &data); err != nil {
		return nil, err
	}
	return data, nil
}

func decodeTOML(raw string) (any, error) {
	var data map[string]any
	if err := toml.Unmarshal([]byte(raw), &data); err != nil {
		return nil, err
	}
	return data, nil
}

func decodeYAML(raw string) (any, error) {
	var data any
	if err := yaml.Unmarshal([]byte(raw), &data); err != nil {
		return nil, err
	}
	return data, nil
}

// asStringMap normalizes decoded mappings to map[string]any. YAML can
// hand back map[any]any for some inputs.
func asStringMap(data any) (map[string]any, bool) {
	switch m := data.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, v := range m {
			key, ok := k.(string)
			if !ok {
				return nil, false
			}
			out[key] = v
		}
		return out, true
	default:
		return nil, false
	}
}
