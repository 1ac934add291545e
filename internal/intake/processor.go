package intake

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"basegraph.app/intake/common/logger"
	"basegraph.app/intake/internal/model"
	"go.opentelemetry.io/otel/attribute"
)

// User-facing replies for soft failures.
const (
	ReplyRephrase = "I'm having trouble processing that. Could you please rephrase?"
	ReplyRetry    = "I apologize, but I'm having trouble processing your request right now. Could you please try again?"
)

type Config struct {
	MaxQuestions    int // follow-up rounds before the report is closed anyway
	HistoryWindow   int // trailing turns shown to the extractor
	LogPreviewChars int
}

// DefaultConfig mirrors the production defaults.
func DefaultConfig() Config {
	return Config{
		MaxQuestions:    2,
		HistoryWindow:   10,
		LogPreviewChars: 500,
	}
}

// TurnInput is one user utterance plus the state that precedes it.
// History must not include the utterance itself.
type TurnInput struct {
	UserText string
	History  []model.Turn
	Record   model.Record
	Logs     string
}

// TurnResult is always well formed. Err carries the diagnostic cause of a
// soft failure and is never meant for the end user.
type TurnResult struct {
	Reply     string
	Record    model.Record
	Complete  bool
	Questions []string
	Err       error
}

// SoftFailed reports whether the turn fell back to a canned reply.
func (r TurnResult) SoftFailed() bool {
	return r.Err != nil
}

// Processor runs one conversation turn.
type Processor struct {
	extractor Extractor
	policy    CompletionPolicy
	cfg       Config
	now       func() time.Time
}

type Option func(*Processor)

// WithClock overrides the clock used for the date shown to the extractor.
func WithClock(now func() time.Time) Option {
	return func(p *Processor) {
		p.now = now
	}
}

func NewProcessor(extractor Extractor, policy CompletionPolicy, cfg Config, opts ...Option) *Processor {
	if policy == nil {
		policy = TrustExtractor{}
	}
	p := &Processor{
		extractor: extractor,
		policy:    policy,
		cfg:       cfg,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ProcessTurn asks the extractor about in.UserText and folds its answer into
// the record. It never returns an error: extractor and parse failures come
// back as a fallback reply with the record unchanged.
func (p *Processor) ProcessTurn(ctx context.Context, in TurnInput) TurnResult {
	ctx = logger.WithLogFields(ctx, logger.LogFields{Component: "intake.processor"})
	sc := logger.StartSpan(ctx, "intake.process_turn")
	defer sc.End()
	ctx = sc.Context()

	record := in.Record.Clone()
	missing := model.MissingFields(record)
	asked := model.CountAssistantTurns(in.History)
	remaining := p.cfg.MaxQuestions - asked
	if remaining < 0 {
		remaining = 0
	}

	req := ExtractionRequest{
		UserText:           in.UserText,
		RecordSummary:      record.Summary(),
		Missing:            missing,
		HasLogs:            strings.TrimSpace(in.Logs) != "",
		QuestionsAsked:     asked,
		MaxQuestions:       p.cfg.MaxQuestions,
		RemainingQuestions: remaining,
		History:            model.LastTurns(in.History, p.cfg.HistoryWindow),
		Date:               p.now().Format("2006-01-02"),
	}
	if req.HasLogs {
		req.Logs = logger.Truncate(in.Logs, p.cfg.LogPreviewChars)
	}

	sc.SetAttributes(
		attribute.Int("intake.missing_fields", len(missing)),
		attribute.Int("intake.questions_asked", asked),
	)

	raw, err := p.extractor.Extract(ctx, req)
	if err != nil {
		sc.RecordError(err)
		slog.ErrorContext(ctx, "extractor call failed", "error", err)
		return TurnResult{Reply: ReplyRetry, Record: record, Err: err}
	}

	payload, err := ParsePayload(raw)
	if err != nil {
		sc.RecordError(err)
		var pe *ParseError
		stage := ""
		if errors.As(err, &pe) {
			stage = pe.Stage
		}
		slog.WarnContext(ctx, "extractor reply unparseable",
			"stage", stage,
			"error", err,
			"response", logger.Truncate(raw, 200))
		return TurnResult{Reply: ReplyRephrase, Record: record, Err: err}
	}

	merged := model.Merge(record, payload.Record())
	complete := p.policy.Decide(payload.IsComplete, merged, remaining)
	if payload.IsComplete && !complete {
		slog.InfoContext(ctx, "completion claim rejected by policy",
			"missing", model.MissingFields(merged),
			"remaining_questions", remaining)
	}

	questions := RenumberQuestions(payload.Questions)
	reply := strings.TrimSpace(payload.UserResponse)
	if reply == "" && len(questions) > 0 {
		reply = strings.Join(questions, "\n")
	}

	sc.SetAttributes(attribute.Bool("intake.complete", complete))
	slog.DebugContext(ctx, "turn processed",
		"complete", complete,
		"questions", len(questions),
		"missing_after", len(model.MissingFields(merged)))

	return TurnResult{
		Reply:     reply,
		Record:    merged,
		Complete:  complete,
		Questions: questions,
	}
}
