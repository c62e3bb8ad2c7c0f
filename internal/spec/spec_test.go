package spec_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/gar1t/groktest/internal/domain"
	"github.com/gar1t/groktest/internal/spec"
)

var _ = Describe("ForName", func() {
	It("should return registered specs", func() {
		s, err := spec.ForName("python")
		Expect(err).ToNot(HaveOccurred())
		Expect(s.PS1).To(Equal(">>>"))
		Expect(s.PS2).To(Equal("..."))
		Expect(s.Runtime).To(Equal("python"))
	})

	It("should return the shell spec", func() {
		s, err := spec.ForName("shell")
		Expect(err).ToNot(HaveOccurred())
		Expect(s.PS1).To(Equal(">"))
		Expect(s.Runtime).To(Equal("shell"))
	})

	It("should error for unknown test types", func() {
		_, err := spec.ForName("prolog")
		Expect(errors.Is(err, domain.ErrTestTypeNotSupported)).To(BeTrue())
	})
})

var _ = Describe("ForFrontMatter", func() {
	It("should default with no front matter", func() {
		s, err := spec.ForFrontMatter(map[string]any{})
		Expect(err).ToNot(HaveOccurred())
		Expect(s).To(Equal(spec.Default))
	})

	It("should honor test-type", func() {
		s, err := spec.ForFrontMatter(map[string]any{"test-type": "shell"})
		Expect(err).ToNot(HaveOccurred())
		Expect(s).To(Equal(spec.Shell))
	})

	It("should prefer tool.groktest.type", func() {
		fm := map[string]any{
			"test-type": "python",
			"tool": map[string]any{
				"groktest": map[string]any{"type": "shell"},
			},
		}
		s, err := spec.ForFrontMatter(fm)
		Expect(err).ToNot(HaveOccurred())
		Expect(s).To(Equal(spec.Shell))
	})

	It("should error for an unknown declared type", func() {
		_, err := spec.ForFrontMatter(map[string]any{"test-type": "prolog"})
		Expect(errors.Is(err, domain.ErrTestTypeNotSupported)).To(BeTrue())
	})
})

var _ = Describe("Test pattern", func() {
	It("should match a prompt-prefixed example", func() {
		m, err := spec.Python.TestPattern.FindStringMatch(">>> 1 + 1\n2\n")
		Expect(err).ToNot(HaveOccurred())
		Expect(m).ToNot(BeNil())
		Expect(m.GroupByName("expr").String()).To(Equal(">>> 1 + 1"))
		Expect(m.GroupByName("expected").String()).To(Equal("2\n"))
	})

	It("should capture continuation lines in the expression", func() {
		doc := ">>> if True:\n...     print(\"yes\")\nyes\n"
		m, err := spec.Python.TestPattern.FindStringMatch(doc)
		Expect(err).ToNot(HaveOccurred())
		Expect(m).ToNot(BeNil())
		Expect(m.GroupByName("expr").String()).To(
			Equal(">>> if True:\n...     print(\"yes\")"))
		Expect(m.GroupByName("expected").String()).To(Equal("yes\n"))
	})

	It("should end expected output at a blank line", func() {
		doc := ">>> print(\"a\")\na\n\nprose follows\n"
		m, err := spec.Python.TestPattern.FindStringMatch(doc)
		Expect(err).ToNot(HaveOccurred())
		Expect(m.GroupByName("expected").String()).To(Equal("a\n"))
	})

	It("should capture the indent of indented tests", func() {
		doc := "    >>> 1\n    1\n"
		m, err := spec.Python.TestPattern.FindStringMatch(doc)
		Expect(err).ToNot(HaveOccurred())
		Expect(m.GroupByName("indent").String()).To(Equal("    "))
	})
})
