// Package outline extracts the heading structure of a Markdown test
// document, used to label tests with their nearest section in preview
// listings.
package outline

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Heading is one document heading.
type Heading struct {
	Level int
	Text  string
	Line  int // 1-based
}

// Headings parses content as Markdown and returns its headings in
// document order. Non-Markdown content simply yields few or no
// headings; callers fall back to unlabeled listings.
func Headings(content []byte) []Heading {
	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(content))

	var headings []Heading
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		node, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}
		line := 0
		if node.Lines().Len() > 0 {
			line = lineNumber(content, node.Lines().At(0).Start)
		} else if first, ok := node.FirstChild().(*ast.Text); ok {
			line = lineNumber(content, first.Segment.Start)
		}
		headings = append(headings, Heading{
			Level: node.Level,
			Text:  headingText(node, content),
			Line:  line,
		})
		return ast.WalkContinue, nil
	})
	return headings
}

// ContextFor returns the text of the nearest heading at or above line.
func ContextFor(headings []Heading, line int) string {
	context := ""
	for _, h := range headings {
		if h.Line > line {
			break
		}
		context = h.Text
	}
	return context
}

func headingText(n ast.Node, source []byte) string {
	var buf bytes.Buffer
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		if t, ok := child.(*ast.Text); ok {
			buf.Write(t.Segment.Value(source))
		}
	}
	return buf.String()
}

func lineNumber(content []byte, offset int) int {
	return bytes.Count(content[:offset], []byte("\n")) + 1
}
