package intake

import "basegraph.app/intake/internal/model"

// CompletionPolicy decides whether a turn completes the report, given the
// extractor's claim. The extractor is an untrusted oracle; the policy is the
// single place that chooses how far to believe it.
type CompletionPolicy interface {
	Decide(claimed bool, record model.Record, remainingQuestions int) bool
}

// TrustExtractor accepts the extractor's claim verbatim.
type TrustExtractor struct{}

func (TrustExtractor) Decide(claimed bool, _ model.Record, _ int) bool {
	return claimed
}

// RequireFields accepts a completion claim only when every required field is
// filled or the question budget is spent. It never completes on its own.
type RequireFields struct{}

func (RequireFields) Decide(claimed bool, record model.Record, remainingQuestions int) bool {
	if !claimed {
		return false
	}
	return len(model.MissingFields(record)) == 0 || remainingQuestions <= 0
}
