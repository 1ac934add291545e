package intake_test

import (
	"basegraph.app/intake/internal/intake"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("RenumberQuestions", func() {
	DescribeTable("numbers questions Q1..Qn without gaps",
		func(input, expected []string) {
			Expect(intake.RenumberQuestions(input)).To(Equal(expected))
		},
		Entry("plain questions", []string{"What OS?", "Which browser?"}, []string{"Q1: What OS?", "Q2: Which browser?"}),
		Entry("already numbered", []string{"Q1: What OS?", "Q2: Which browser?"}, []string{"Q1: What OS?", "Q2: Which browser?"}),
		Entry("out of order numbering", []string{"Q3: What OS?", "Q1: Which browser?"}, []string{"Q1: What OS?", "Q2: Which browser?"}),
		Entry("multi-digit prefix", []string{"Q12:What OS?"}, []string{"Q1: What OS?"}),
		Entry("blank entries dropped", []string{"", "Q2:  ", "Which browser?"}, []string{"Q1: Which browser?"}),
		Entry("mixed prefixing", []string{"What OS?", "Q7: Which browser?", "Q: version?"}, []string{"Q1: What OS?", "Q2: Which browser?", "Q3: Q: version?"}),
		Entry("nil", nil, []string{}),
	)
})
