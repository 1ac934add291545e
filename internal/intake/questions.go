package intake

import (
	"fmt"
	"regexp"
	"strings"
)

var questionPrefix = regexp.MustCompile(`^\s*Q\d+:\s*`)

// RenumberQuestions strips any existing "Q<n>:" prefix and numbers the
// questions Q1, Q2, ... in order. Blank questions are dropped so numbering
// has no gaps.
func RenumberQuestions(questions []string) []string {
	out := make([]string, 0, len(questions))
	for _, q := range questions {
		text := strings.TrimSpace(questionPrefix.ReplaceAllString(q, ""))
		if text == "" {
			continue
		}
		out = append(out, fmt.Sprintf("Q%d: %s", len(out)+1, text))
	}
	return out
}
