package dto

import (
	"strings"

	"basegraph.app/intake/internal/model"
	"basegraph.app/intake/internal/service"
	"basegraph.app/intake/internal/service/issue_tracker"
)

const (
	SenderUser = "user"
	SenderAI   = "ai"
)

type ChatMessage struct {
	ID     int    `json:"id"`
	Sender string `json:"sender"`
	Text   string `json:"text"`
}

type HistoryTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// BugReportChatRequest accepts either the messages array sent by the widget or
// the older transcript form.
type BugReportChatRequest struct {
	SessionID           string        `json:"session_id"`
	UserID              string        `json:"user_id,omitempty"`
	Messages            []ChatMessage `json:"messages,omitempty"`
	Transcript          string        `json:"transcript,omitempty"`
	ConversationHistory []HistoryTurn `json:"conversation_history,omitempty"` // accepted, not used
	ConsoleLogs         string        `json:"console_logs,omitempty"`
	ScreenRecording     string        `json:"screen_recording,omitempty"`
	JiraAPIKey          string        `json:"jira_api_key,omitempty"`
	JiraBaseURL         string        `json:"jira_base_url,omitempty"`
	JiraProjectKey      string        `json:"jira_project_key,omitempty"`
	JiraEmail           string        `json:"jira_email,omitempty"`
}

// ToTurnRequest picks the utterance and prior history out of either form.
// With messages, the latest user message is the utterance and everything
// before it replaces the stored transcript. With transcript, the stored
// transcript is kept and conversation_history is ignored.
func (r BugReportChatRequest) ToTurnRequest() (service.TurnRequest, error) {
	req := service.TurnRequest{
		SessionID:       strings.TrimSpace(r.SessionID),
		UserID:          strings.TrimSpace(r.UserID),
		ConsoleLogs:     r.ConsoleLogs,
		ScreenRecording: r.ScreenRecording,
		Credentials: issue_tracker.Credentials{
			APIKey:     r.JiraAPIKey,
			BaseURL:    r.JiraBaseURL,
			ProjectKey: r.JiraProjectKey,
			Email:      r.JiraEmail,
		},
	}
	if req.SessionID == "" {
		return req, service.ErrMissingSession
	}

	if len(r.Messages) > 0 {
		last := -1
		for i, m := range r.Messages {
			if m.Sender == SenderUser {
				last = i
			}
		}
		if last < 0 {
			return req, service.ErrNoUserMessage
		}
		req.Utterance = r.Messages[last].Text
		req.History = make([]model.Turn, 0, last)
		for _, m := range r.Messages[:last] {
			req.History = append(req.History, model.Turn{Role: roleForSender(m.Sender), Content: m.Text})
		}
		req.ReplaceHistory = true
		return req, nil
	}

	if strings.TrimSpace(r.Transcript) == "" {
		return req, service.ErrNoUserMessage
	}
	// The stored transcript wins over conversation_history in this form.
	req.Utterance = r.Transcript
	return req, nil
}

func roleForSender(sender string) string {
	if sender == SenderUser {
		return model.RoleUser
	}
	return model.RoleAssistant
}

type ArchiveURLs struct {
	Transcription   *string `json:"transcription"`
	ConsoleLogs     *string `json:"console_logs"`
	ScreenRecording *string `json:"screen_recording"`
}

type TicketResponse struct {
	Provider string `json:"provider"`
	Key      string `json:"key"`
	ID       string `json:"id"`
	URL      string `json:"url"`
	Summary  string `json:"summary"`
}

type BugReportChatResponse struct {
	Success           bool              `json:"success"`
	UserResponse      string            `json:"user_response"`
	Message           ChatMessage       `json:"message"`
	BugReportComplete bool              `json:"bug_report_complete"`
	CollectedInfo     map[string]string `json:"collected_info"`
	FollowUpQuestions []string          `json:"follow_up_questions"`
	ReportID          string            `json:"report_id,omitempty"`
	ArchiveURLs       *ArchiveURLs      `json:"archive_urls,omitempty"`
	Ticket            *TicketResponse   `json:"ticket,omitempty"`
	TicketError       string            `json:"ticket_error,omitempty"`
	StatusMessage     string            `json:"status_message,omitempty"`
}

func ToBugReportChatResponse(resp *service.TurnResponse) *BugReportChatResponse {
	questions := resp.Questions
	if questions == nil {
		questions = []string{}
	}
	collected := map[string]string(resp.Record)
	if collected == nil {
		collected = map[string]string{}
	}

	out := &BugReportChatResponse{
		Success:      true,
		UserResponse: resp.Reply,
		Message: ChatMessage{
			ID:     resp.Turns,
			Sender: SenderAI,
			Text:   resp.Reply,
		},
		BugReportComplete: resp.Complete,
		CollectedInfo:     collected,
		FollowUpQuestions: questions,
	}

	if d := resp.Dispatch; d != nil {
		out.ReportID = d.ReportID
		out.ArchiveURLs = &ArchiveURLs{
			Transcription:   d.Locations[model.AttachmentTranscript],
			ConsoleLogs:     d.Locations[model.AttachmentConsoleLogs],
			ScreenRecording: d.Locations[model.AttachmentScreenRecording],
		}
		if d.Ticket != nil {
			out.Ticket = &TicketResponse{
				Provider: d.Ticket.Provider,
				Key:      d.Ticket.Key,
				ID:       d.Ticket.ID,
				URL:      d.Ticket.URL,
				Summary:  d.Ticket.Summary,
			}
		}
		if d.TicketErr != nil {
			out.TicketError = "Failed to create ticket"
		}
		out.StatusMessage = "Bug report submitted successfully!"
	}
	return out
}

type ResetSessionRequest struct {
	SessionID string `json:"session_id"`
}

type ResetSessionResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
