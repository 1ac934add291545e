package intake

import (
	"basegraph.app/intake/common/llm"
	"basegraph.app/intake/core/config"
)

// NewFromConfig builds the processor both binaries run: an LLM extractor on
// client, the completion policy the intake config selects, and its tuning.
func NewFromConfig(client llm.Client, llmCfg config.LLMConfig, intakeCfg config.IntakeConfig, opts ...Option) *Processor {
	extractor := NewLLMExtractor(client, LLMExtractorConfig{
		MaxTokens: llmCfg.MaxTokens,
		Timeout:   llmCfg.Timeout,
	})

	var policy CompletionPolicy = TrustExtractor{}
	if intakeCfg.CompletionGuard {
		policy = RequireFields{}
	}

	return NewProcessor(extractor, policy, Config{
		MaxQuestions:    intakeCfg.MaxQuestions,
		HistoryWindow:   intakeCfg.HistoryWindow,
		LogPreviewChars: intakeCfg.LogPreviewChars,
	}, opts...)
}
