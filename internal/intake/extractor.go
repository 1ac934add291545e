package intake

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"basegraph.app/intake/common/llm"
	"basegraph.app/intake/internal/model"
	"github.com/avast/retry-go/v4"
)

// ExtractionRequest is everything the extractor sees for one turn.
type ExtractionRequest struct {
	UserText           string
	RecordSummary      string
	Missing            []string
	Logs               string // preview only, already truncated
	HasLogs            bool
	QuestionsAsked     int
	MaxQuestions       int
	RemainingQuestions int
	History            []model.Turn
	Date               string
}

// Extractor turns a user utterance into free text that should contain a
// Payload. Implementations return transport failures as errors; the reply
// itself is never validated here.
type Extractor interface {
	Extract(ctx context.Context, req ExtractionRequest) (string, error)
}

type LLMExtractorConfig struct {
	MaxTokens  int
	Timeout    time.Duration // per attempt
	Attempts   uint
	RetryDelay time.Duration
}

// LLMExtractor asks a chat model for the payload.
type LLMExtractor struct {
	client llm.Client
	cfg    LLMExtractorConfig
}

func NewLLMExtractor(client llm.Client, cfg LLMExtractorConfig) *LLMExtractor {
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 1500
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Attempts == 0 {
		cfg.Attempts = 3
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = 500 * time.Millisecond
	}
	return &LLMExtractor{client: client, cfg: cfg}
}

func (e *LLMExtractor) Extract(ctx context.Context, req ExtractionRequest) (string, error) {
	messages := BuildMessages(req)
	start := time.Now()

	var (
		content  string
		attempts int
		usage    [2]int
	)
	err := retry.Do(
		func() error {
			attempts++
			callCtx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
			defer cancel()

			resp, err := e.client.Chat(callCtx, llm.Request{
				Messages:    messages,
				MaxTokens:   e.cfg.MaxTokens,
				Temperature: llm.Temp(0.7),
				JSONMode:    true,
			})
			if err != nil {
				return err
			}
			content = resp.Content
			usage = [2]int{resp.PromptTokens, resp.CompletionTokens}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(e.cfg.Attempts),
		retry.Delay(e.cfg.RetryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return llm.IsRetryable(ctx, err)
		}),
	)
	if err != nil {
		return "", fmt.Errorf("extract with %s: %w", e.client.Model(), err)
	}

	slog.DebugContext(ctx, "extractor reply received",
		"model", e.client.Model(),
		"attempts", attempts,
		"prompt_tokens", usage[0],
		"completion_tokens", usage[1],
		"duration_ms", time.Since(start).Milliseconds())
	return content, nil
}
