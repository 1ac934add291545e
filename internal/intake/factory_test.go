package intake_test

import (
	"context"
	"time"

	"basegraph.app/intake/common/llm"
	"basegraph.app/intake/core/config"
	"basegraph.app/intake/internal/intake"
	"basegraph.app/intake/internal/model"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("NewFromConfig", func() {
	var (
		client    *mockLLMClient
		llmCfg    config.LLMConfig
		intakeCfg config.IntakeConfig
	)

	BeforeEach(func() {
		client = &mockLLMClient{
			chatFn: func(context.Context, llm.Request) (*llm.Response, error) {
				return &llm.Response{Content: `{"user_response": "Filing it.", "bug_report_data": {"description": "crash"}, "is_complete": true}`}, nil
			},
		}
		llmCfg = config.LLMConfig{MaxTokens: 321, Timeout: time.Second}
		intakeCfg = config.IntakeConfig{MaxQuestions: 2, HistoryWindow: 10, LogPreviewChars: 500}
	})

	It("sends the configured token limit through the client", func() {
		processor := intake.NewFromConfig(client, llmCfg, intakeCfg)

		result := processor.ProcessTurn(context.Background(), intake.TurnInput{UserText: "it crashed", Record: model.Record{}})

		Expect(result.SoftFailed()).To(BeFalse())
		Expect(client.callCount).To(Equal(1))
		Expect(client.lastReq.MaxTokens).To(Equal(321))
	})

	It("trusts the completion claim without the guard", func() {
		processor := intake.NewFromConfig(client, llmCfg, intakeCfg)

		result := processor.ProcessTurn(context.Background(), intake.TurnInput{UserText: "it crashed", Record: model.Record{}})

		Expect(result.Complete).To(BeTrue())
	})

	It("refuses a premature claim when the guard is on", func() {
		intakeCfg.CompletionGuard = true
		processor := intake.NewFromConfig(client, llmCfg, intakeCfg)

		result := processor.ProcessTurn(context.Background(), intake.TurnInput{UserText: "it crashed", Record: model.Record{}})

		Expect(result.Complete).To(BeFalse())
		Expect(result.Record).To(HaveKeyWithValue(model.FieldDescription, "crash"))
	})
})
