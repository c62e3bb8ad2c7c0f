package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/gar1t/groktest/internal/extract"
	"github.com/gar1t/groktest/internal/frontmatter"
	"github.com/gar1t/groktest/internal/outline"
	"github.com/gar1t/groktest/internal/spec"
)

// preview lists the tests in each file without running anything.
// Markdown headings label each test with its nearest section.
func preview(files []string) error {
	for _, filename := range files {
		fmt.Printf("Testing %s (preview)\n", relpath(filename))
		if err := previewFile(filename); err != nil {
			log.Warnf("error previewing %s: %v", filename, err)
		}
	}
	return nil
}

func previewFile(filename string) error {
	raw, err := os.ReadFile(filename)
	if err != nil {
		return err
	}
	content := string(raw)
	fm := frontmatter.Parse(content, filename)
	s, err := spec.ForFrontMatter(fm)
	if err != nil {
		return err
	}
	tests, err := extract.Tests(content, s, filename)
	if err != nil {
		return err
	}
	headings := outline.Headings(raw)
	for _, test := range tests {
		label := outline.ContextFor(headings, test.Line)
		if label == "" {
			label = firstLine(test.Expr)
		}
		fmt.Printf("  %d: %s\n", test.Line, label)
	}
	return nil
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
