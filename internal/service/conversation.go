package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"basegraph.app/intake/common/logger"
	"basegraph.app/intake/internal/intake"
	"basegraph.app/intake/internal/model"
	"basegraph.app/intake/internal/service/issue_tracker"
	"basegraph.app/intake/internal/store"
)

// TurnProcessor runs one step of the interview. *intake.Processor implements it.
type TurnProcessor interface {
	ProcessTurn(ctx context.Context, in intake.TurnInput) intake.TurnResult
}

type TurnRequest struct {
	SessionID string
	UserID    string
	Utterance string
	// History replaces the stored transcript when ReplaceHistory is set.
	// It must not contain Utterance.
	History         []model.Turn
	ReplaceHistory  bool
	ConsoleLogs     string
	ScreenRecording string
	Credentials     issue_tracker.Credentials
}

type TurnResponse struct {
	Reply     string
	Record    model.Record
	Complete  bool
	Questions []string
	// Turns is the transcript length after this exchange.
	Turns int
	// Dispatch is set on the turn that completed the report.
	Dispatch *DispatchResult
}

type ConversationService interface {
	Turn(ctx context.Context, req TurnRequest) (*TurnResponse, error)
	// Reset evicts the session and reports whether it existed.
	Reset(ctx context.Context, sessionID string) (bool, error)
}

type conversationService struct {
	sessions   store.SessionStore
	processor  TurnProcessor
	dispatcher Dispatcher
}

func NewConversationService(sessions store.SessionStore, processor TurnProcessor, dispatcher Dispatcher) ConversationService {
	return &conversationService{
		sessions:   sessions,
		processor:  processor,
		dispatcher: dispatcher,
	}
}

func (s *conversationService) Turn(ctx context.Context, req TurnRequest) (*TurnResponse, error) {
	if strings.TrimSpace(req.SessionID) == "" {
		return nil, ErrMissingSession
	}
	utterance := strings.TrimSpace(req.Utterance)
	if utterance == "" {
		return nil, ErrEmptyUtterance
	}

	fields := logger.LogFields{SessionID: &req.SessionID, Component: "intake.conversation"}
	if req.UserID != "" {
		fields.UserID = &req.UserID
	}
	ctx = logger.WithLogFields(ctx, fields)

	session, err := s.sessions.GetOrCreate(ctx, req.SessionID)
	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}
	if session.Complete {
		// A completed session that survived eviction starts over.
		if _, err := s.sessions.Evict(ctx, req.SessionID); err != nil {
			return nil, fmt.Errorf("evicting stale session: %w", err)
		}
		session = model.NewSession(req.SessionID, time.Now().UTC())
	}
	if req.UserID != "" {
		session.UserID = req.UserID
	}
	if req.ReplaceHistory {
		session.History = append([]model.Turn{}, req.History...)
		if len(session.Record) == 0 {
			session.Record = s.recoverRecord(ctx, session.History, req.ConsoleLogs)
		}
	}

	result := s.processor.ProcessTurn(ctx, intake.TurnInput{
		UserText: utterance,
		History:  session.History,
		Record:   session.Record,
		Logs:     req.ConsoleLogs,
	})
	if result.SoftFailed() {
		slog.WarnContext(ctx, "turn soft-failed", "error", result.Err)
	}

	session.Record = result.Record
	session.History = append(session.History,
		model.Turn{Role: model.RoleUser, Content: utterance},
		model.Turn{Role: model.RoleAssistant, Content: result.Reply},
	)
	if len(result.Questions) > 0 {
		session.QuestionsAsked++
	}

	resp := &TurnResponse{
		Reply:     result.Reply,
		Record:    result.Record,
		Complete:  result.Complete,
		Questions: result.Questions,
		Turns:     len(session.History),
	}

	if !result.Complete {
		if err := s.sessions.Save(ctx, session); err != nil {
			return nil, fmt.Errorf("saving session: %w", err)
		}
		return resp, nil
	}

	session.MarkComplete()
	dispatch := s.dispatcher.Dispatch(ctx, DispatchRequest{
		SessionID:       session.ID,
		UserID:          session.UserID,
		Record:          session.Record,
		Transcript:      model.RenderTranscript(session.History),
		ConsoleLogs:     req.ConsoleLogs,
		ScreenRecording: req.ScreenRecording,
		Credentials:     req.Credentials,
	})
	resp.Dispatch = &dispatch

	if _, err := s.sessions.Evict(ctx, session.ID); err != nil {
		slog.ErrorContext(ctx, "failed to evict completed session", "error", err)
	}

	slog.InfoContext(ctx, "bug report complete",
		"report_id", dispatch.ReportID,
		"turns", len(session.History),
		"questions_asked", session.QuestionsAsked)
	return resp, nil
}

// recoverRecord rebuilds the record for a client-held transcript the store no
// longer has, by replaying the last earlier user message against the history
// before it. It only runs when the assistant has already spoken.
func (s *conversationService) recoverRecord(ctx context.Context, history []model.Turn, logs string) model.Record {
	if model.CountAssistantTurns(history) == 0 {
		return model.Record{}
	}
	last := -1
	for i, t := range history {
		if t.Role == model.RoleUser {
			last = i
		}
	}
	if last < 0 || strings.TrimSpace(history[last].Content) == "" {
		return model.Record{}
	}

	result := s.processor.ProcessTurn(ctx, intake.TurnInput{
		UserText: strings.TrimSpace(history[last].Content),
		History:  history[:last],
		Record:   model.Record{},
		Logs:     logs,
	})
	if result.SoftFailed() {
		slog.WarnContext(ctx, "could not recover record from supplied history", "error", result.Err)
		return model.Record{}
	}
	slog.InfoContext(ctx, "recovered record from supplied history",
		"turns", len(history),
		"fields", len(result.Record))
	return model.Merge(model.Record{}, result.Record)
}

func (s *conversationService) Reset(ctx context.Context, sessionID string) (bool, error) {
	if strings.TrimSpace(sessionID) == "" {
		return false, ErrMissingSession
	}
	existed, err := s.sessions.Evict(ctx, sessionID)
	if err != nil {
		return false, fmt.Errorf("resetting session: %w", err)
	}
	return existed, nil
}
