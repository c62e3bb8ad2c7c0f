package extract_test

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/gar1t/groktest/internal/domain"
	"github.com/gar1t/groktest/internal/extract"
	"github.com/gar1t/groktest/internal/spec"
)

var _ = Describe("Tests", func() {
	It("should extract a single test", func() {
		tests, err := extract.Tests(">>> 1 + 1\n2\n", spec.Python, "test.md")
		Expect(err).ToNot(HaveOccurred())
		Expect(tests).To(HaveLen(1))
		Expect(tests[0].Expr).To(Equal("1 + 1"))
		Expect(tests[0].Expected).To(Equal("2"))
		Expect(tests[0].Line).To(Equal(1))
		Expect(tests[0].Filename).To(Equal("test.md"))
	})

	It("should record 1-based line numbers of the first prompt", func() {
		doc := "Some prose.\n\n>>> 1\n1\n\nMore prose.\n\n>>> 2\n2\n"
		tests, err := extract.Tests(doc, spec.Python, "test.md")
		Expect(err).ToNot(HaveOccurred())
		Expect(tests).To(HaveLen(2))
		Expect(tests[0].Line).To(Equal(3))
		Expect(tests[1].Line).To(Equal(8))
	})

	It("should join continuation lines into one expression", func() {
		doc := ">>> if True:\n...     print(\"yes\")\nyes\n"
		tests, err := extract.Tests(doc, spec.Python, "test.md")
		Expect(err).ToNot(HaveOccurred())
		Expect(tests[0].Expr).To(Equal("if True:\n    print(\"yes\")"))
		Expect(tests[0].Expected).To(Equal("yes"))
	})

	It("should allow a bare continuation prompt on an empty line", func() {
		doc := ">>> def f():\n...     pass\n...\n"
		tests, err := extract.Tests(doc, spec.Python, "test.md")
		Expect(err).ToNot(HaveOccurred())
		Expect(tests[0].Expr).To(Equal("def f():\n    pass\n"))
	})

	It("should strip prompts from indented tests", func() {
		doc := "    >>> 1 + 1\n    2\n"
		tests, err := extract.Tests(doc, spec.Python, "test.md")
		Expect(err).ToNot(HaveOccurred())
		Expect(tests[0].Expr).To(Equal("1 + 1"))
		Expect(tests[0].Expected).To(Equal("2"))
	})

	It("should reproduce the matched block from its parts", func() {
		doc := "    >>> if True:\n    ...     print(1)\n    1\n"
		tests, err := extract.Tests(doc, spec.Python, "test.md")
		Expect(err).ToNot(HaveOccurred())
		test := tests[0]

		// Joining prompts and indent back on reproduces the source.
		var lines []string
		for i, line := range strings.Split(test.Expr, "\n") {
			prompt := ">>>"
			if i > 0 {
				prompt = "..."
			}
			lines = append(lines, "    "+prompt+" "+line)
		}
		for _, line := range strings.Split(test.Expected, "\n") {
			lines = append(lines, "    "+line)
		}
		Expect(strings.Join(lines, "\n") + "\n").To(Equal(doc))
	})

	It("should decode inline comment options", func() {
		doc := ">>> 1 + 1  # +skip -case\n2\n"
		tests, err := extract.Tests(doc, spec.Python, "test.md")
		Expect(err).ToNot(HaveOccurred())
		Expect(tests[0].Options).To(Equal(map[string]any{
			"skip": true,
			"case": false,
		}))
	})

	It("should keep blank-line markers in expected output", func() {
		doc := ">>> print(\"a\\n\\nb\")\na\n⤶\nb\n"
		tests, err := extract.Tests(doc, spec.Python, "test.md")
		Expect(err).ToNot(HaveOccurred())
		Expect(tests[0].Expected).To(Equal("a\n⤶\nb"))
	})

	It("should extract an empty expected block", func() {
		tests, err := extract.Tests(">>> x = 1\n", spec.Python, "test.md")
		Expect(err).ToNot(HaveOccurred())
		Expect(tests[0].Expected).To(Equal(""))
	})

	It("should fail when the space after a prompt is missing", func() {
		_, err := extract.Tests(">>>1 + 1\n2\n", spec.Python, "test.md")
		var testErr *domain.TestError
		Expect(err).To(BeAssignableToTypeOf(testErr))
		Expect(err.Error()).To(ContainSubstring("space missing after prompt"))
		Expect(err.Error()).To(ContainSubstring("line 1"))
	})

	It("should fail on a continuation prompt without a space", func() {
		doc := ">>> if True:\n...pass\n"
		_, err := extract.Tests(doc, spec.Python, "test.md")
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("space missing after prompt"))
		Expect(err.Error()).To(ContainSubstring("line 2"))
	})

	It("should fail on inconsistent leading whitespace", func() {
		doc := "    >>> print(\"a\")\n  a\n"
		_, err := extract.Tests(doc, spec.Python, "test.md")
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("inconsistent leading whitespace"))
	})

	It("should extract shell tests", func() {
		doc := "> echo hello\nhello\n"
		tests, err := extract.Tests(doc, spec.Shell, "test.md")
		Expect(err).ToNot(HaveOccurred())
		Expect(tests[0].Expr).To(Equal("echo hello"))
		Expect(tests[0].Expected).To(Equal("hello"))
	})

	It("should return no tests for prose-only documents", func() {
		tests, err := extract.Tests("Just prose.\nNothing else.\n", spec.Python, "test.md")
		Expect(err).ToNot(HaveOccurred())
		Expect(tests).To(BeEmpty())
	})
})
