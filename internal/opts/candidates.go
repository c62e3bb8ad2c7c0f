package opts

import "strings"

// Candidates returns the comment text of each commented line in a test
// expression. Comments start at an unquoted # and run to end of line.
// Decoded candidates are merged in order, so options in later comment
// lines override earlier ones.
func Candidates(expr string) []string {
	var comments []string
	for _, line := range strings.Split(expr, "\n") {
		if c, ok := lineComment(line); ok {
			comments = append(comments, c)
		}
	}
	return comments
}

// lineComment finds the first # outside of single or double quotes.
func lineComment(line string) (string, bool) {
	var quote byte
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '#':
			return line[i:], true
		}
	}
	return "", false
}

// DecodeCandidates decodes every comment candidate in expr and merges
// the results, last occurrence winning.
func DecodeCandidates(expr string) map[string]any {
	options := map[string]any{}
	for _, c := range Candidates(expr) {
		for name, val := range Decode(c) {
			options[name] = val
		}
	}
	return options
}
