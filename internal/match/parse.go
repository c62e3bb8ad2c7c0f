package match

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/gar1t/groktest/internal/domain"
)

var log = logrus.WithField("pkg", "match")

// Built-in placeholder types. d coerces to int after the match; the
// others return the raw matched text.
var builtinTypes = map[string]string{
	"d": `[-+]?\d+`,
	"w": `\w+`,
	"s": `\s+`,
}

// identPattern validates placeholder names and types. Anything else
// inside braces is treated as literal text.
var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

type placeholder struct {
	name string // bound variable name; "" for anonymous captures
	typ  string // type key; "" for the default any-text type
}

// parseMatch compiles the expected block into one anchored regular
// expression and matches it against actual output. Named captures are
// returned as vars, with built-in type coercion applied.
func parseMatch(expected, actual string, o Options) domain.TestMatch {
	pattern, placeholders, err := compileFormat(expected, o)
	if err != nil {
		log.Warnf("invalid parse expression %q: %v", expected, err)
		return domain.TestMatch{}
	}
	m := pattern.FindStringSubmatch(actual)
	if m == nil {
		return domain.TestMatch{}
	}
	vars := map[string]any{}
	for i, ph := range placeholders {
		if ph.name == "" {
			continue
		}
		idx := pattern.SubexpIndex(groupName(i))
		if idx < 0 || idx >= len(m) {
			continue
		}
		vars[ph.name] = coerce(m[idx], ph.typ)
	}
	return domain.TestMatch{Match: true, Vars: vars}
}

// compileFormat turns a format string with {[name][:type]} placeholders
// into an anchored regex. Literal braces are escaped by doubling.
// Non-placeholder text is regex-quoted. Custom type fragments from
// parse.types are inserted verbatim and may carry their own flags.
func compileFormat(format string, o Options) (*regexp.Regexp, []placeholder, error) {
	var b strings.Builder
	b.WriteString(`(?s)`)
	if !o.Case {
		b.WriteString(`(?i)`)
	}
	b.WriteString(`\A`)

	var placeholders []placeholder
	var literal strings.Builder
	flushLiteral := func() {
		if literal.Len() > 0 {
			b.WriteString(regexp.QuoteMeta(literal.String()))
			literal.Reset()
		}
	}

	for i := 0; i < len(format); {
		switch {
		case strings.HasPrefix(format[i:], "{{"):
			literal.WriteByte('{')
			i += 2
		case strings.HasPrefix(format[i:], "}}"):
			literal.WriteByte('}')
			i += 2
		case format[i] == '{':
			end := strings.IndexByte(format[i:], '}')
			if end < 0 {
				literal.WriteByte('{')
				i++
				continue
			}
			body := format[i+1 : i+end]
			ph, frag, ok := resolvePlaceholder(body, o.Types)
			if !ok {
				// Not a recognized placeholder; keep the braces as
				// literal text.
				literal.WriteString(format[i : i+end+1])
				i += end + 1
				continue
			}
			flushLiteral()
			fmt.Fprintf(&b, `(?P<%s>%s)`, groupName(len(placeholders)), frag)
			placeholders = append(placeholders, ph)
			i += end + 1
		default:
			literal.WriteByte(format[i])
			i++
		}
	}
	flushLiteral()
	b.WriteString(`\z`)

	pattern, err := regexp.Compile(b.String())
	if err != nil {
		return nil, nil, err
	}
	return pattern, placeholders, nil
}

// resolvePlaceholder parses a brace body "name", "name:type", ":type"
// or "" and resolves the type to a regex fragment.
func resolvePlaceholder(body string, types map[string]string) (placeholder, string, bool) {
	name, typ := body, ""
	if sep := strings.IndexByte(body, ':'); sep >= 0 {
		name, typ = body[:sep], body[sep+1:]
	}
	if name != "" && !identPattern.MatchString(name) {
		return placeholder{}, "", false
	}
	frag := `.+?`
	if typ != "" {
		var ok bool
		frag, ok = builtinTypes[typ]
		if !ok {
			frag, ok = types[typ]
		}
		if !ok {
			return placeholder{}, "", false
		}
	}
	return placeholder{name: name, typ: typ}, frag, true
}

func groupName(i int) string {
	return "g" + strconv.Itoa(i)
}

// coerce applies built-in type coercion to a captured value. Custom
// types return the raw matched substring.
func coerce(raw, typ string) any {
	if typ == "d" {
		if n, err := strconv.Atoi(raw); err == nil {
			return n
		}
	}
	return raw
}
