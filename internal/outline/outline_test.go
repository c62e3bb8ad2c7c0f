package outline_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/gar1t/groktest/internal/outline"
)

const doc = `# User Guide

Some prose.

## Install

    >>> install()
    ok

## Usage

More prose.

### Advanced

    >>> use()
    ok
`

var _ = Describe("Headings", func() {
	It("should extract headings with levels and lines", func() {
		headings := outline.Headings([]byte(doc))
		Expect(headings).To(HaveLen(4))
		Expect(headings[0].Text).To(Equal("User Guide"))
		Expect(headings[0].Level).To(Equal(1))
		Expect(headings[0].Line).To(Equal(1))
		Expect(headings[1].Text).To(Equal("Install"))
		Expect(headings[1].Line).To(Equal(5))
		Expect(headings[3].Text).To(Equal("Advanced"))
		Expect(headings[3].Level).To(Equal(3))
	})

	It("should return nothing for heading-free content", func() {
		Expect(outline.Headings([]byte("plain text\nno headings\n"))).To(BeEmpty())
	})
})

var _ = Describe("ContextFor", func() {
	It("should name the nearest heading at or above a line", func() {
		headings := outline.Headings([]byte(doc))
		Expect(outline.ContextFor(headings, 7)).To(Equal("Install"))
		Expect(outline.ContextFor(headings, 25)).To(Equal("Advanced"))
	})

	It("should be empty before the first heading", func() {
		headings := outline.Headings([]byte(doc))
		Expect(outline.ContextFor(nil, 1)).To(Equal(""))
		Expect(outline.ContextFor(headings[1:], 1)).To(Equal(""))
	})
})
