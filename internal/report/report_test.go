package report_test

import (
	"bytes"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/gar1t/groktest/internal/domain"
	"github.com/gar1t/groktest/internal/report"
)

var _ = Describe("TestFailed", func() {
	var (
		out *bytes.Buffer
		r   *report.Reporter
	)

	BeforeEach(func() {
		out = &bytes.Buffer{}
		r = report.New(out)
	})

	test := domain.Test{
		Filename: "guide.md",
		Line:     12,
		Expr:     "1 + 1",
		Expected: "3",
	}

	It("should write the expected/got form", func() {
		r.TestFailed(test, "2\n", report.FailureOptions{})
		s := out.String()
		Expect(s).To(HavePrefix(strings.Repeat("*", 70) + "\n"))
		Expect(s).To(ContainSubstring("File \"guide.md\", line 12\n"))
		Expect(s).To(ContainSubstring("Failed example:\n    1 + 1\n"))
		Expect(s).To(ContainSubstring("Expected:\n    3\n"))
		Expect(s).To(ContainSubstring("Got:\n    2\n"))
	})

	It("should indent multi-line expressions and output", func() {
		multi := test
		multi.Expr = "if True:\n    print(1)"
		r.TestFailed(multi, "2\n3\n", report.FailureOptions{})
		s := out.String()
		Expect(s).To(ContainSubstring("    if True:\n        print(1)\n"))
		Expect(s).To(ContainSubstring("Got:\n    2\n    3\n"))
	})

	It("should report empty expectations", func() {
		empty := test
		empty.Expected = ""
		r.TestFailed(empty, "2\n", report.FailureOptions{})
		Expect(out.String()).To(ContainSubstring("Expected nothing\n"))
	})

	It("should report empty output", func() {
		r.TestFailed(test, "", report.FailureOptions{})
		Expect(out.String()).To(ContainSubstring("Got nothing\n"))
	})

	It("should show blankline markers in output", func() {
		r.TestFailed(test, "a\n\nb\n", report.FailureOptions{Blankline: "⤶"})
		Expect(out.String()).To(ContainSubstring("Got:\n    a\n    ⤶\n    b\n"))
	})

	It("should write a unified diff under the diff option", func() {
		r.TestFailed(test, "2\n", report.FailureOptions{Diff: true})
		s := out.String()
		Expect(s).To(ContainSubstring("--- expected"))
		Expect(s).To(ContainSubstring("+++ got"))
		Expect(s).To(ContainSubstring("-3"))
		Expect(s).To(ContainSubstring("+2"))
		Expect(s).ToNot(ContainSubstring("Expected:"))
	})
})

var _ = Describe("UnexpectedPass", func() {
	It("should report the expression", func() {
		out := &bytes.Buffer{}
		r := report.New(out)
		r.UnexpectedPass(domain.Test{Filename: "guide.md", Line: 3, Expr: "ok()"})
		Expect(out.String()).To(ContainSubstring("Failed example:\n    ok()\n"))
		Expect(out.String()).To(ContainSubstring("Expected test to fail but passed\n"))
	})
})

var _ = Describe("PrintSummary", func() {
	var (
		out *bytes.Buffer
		r   *report.Reporter
	)

	BeforeEach(func() {
		out = &bytes.Buffer{}
		r = report.New(out)
	})

	It("should report success with exit code 0", func() {
		code := r.PrintSummary(domain.Summary{Tested: 3}, false)
		Expect(code).To(Equal(0))
		Expect(out.String()).To(ContainSubstring("3 tests run\n"))
		Expect(out.String()).To(ContainSubstring("All tests passed 🎉\n"))
	})

	It("should use the singular for one test", func() {
		r.PrintSummary(domain.Summary{Tested: 1}, false)
		Expect(out.String()).To(ContainSubstring("1 test run\n"))
	})

	It("should report failures with exit code 1", func() {
		summary := domain.Summary{
			Tested: 2,
			Failed: 1,
			FailedLocations: []domain.Location{
				{Filename: "/abs/guide.md", Line: 12},
			},
		}
		code := r.PrintSummary(summary, false)
		Expect(code).To(Equal(1))
		Expect(out.String()).To(ContainSubstring("1 test failed 💥 (see above for details)\n"))
		Expect(out.String()).To(ContainSubstring("guide.md:12\n"))
	})

	It("should report nothing tested with exit code 2", func() {
		code := r.PrintSummary(domain.Summary{}, false)
		Expect(code).To(Equal(2))
		Expect(out.String()).To(ContainSubstring("Nothing tested 😴\n"))
	})

	It("should hint at --show-skipped", func() {
		r.PrintSummary(domain.Summary{Tested: 1, Skipped: 2}, false)
		Expect(out.String()).To(
			ContainSubstring("2 tests skipped (use --show-skipped to view)\n"))
	})

	It("should list skipped locations under --show-skipped", func() {
		summary := domain.Summary{
			Tested:  1,
			Skipped: 1,
			SkippedLocations: []domain.Location{
				{Filename: "/abs/guide.md", Line: 7},
			},
		}
		r.PrintSummary(summary, true)
		Expect(out.String()).To(ContainSubstring("guide.md:7\n"))
		Expect(out.String()).ToNot(ContainSubstring("--show-skipped"))
	})
})
