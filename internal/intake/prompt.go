package intake

import (
	"encoding/json"
	"fmt"
	"strings"

	"basegraph.app/intake/common/llm"
	"basegraph.app/intake/internal/model"
)

// reportShape documents the payload for the model. Payload itself keeps
// bug_report_data open so unknown keys survive the merge.
type reportShape struct {
	UserResponse  string       `json:"user_response" jsonschema_description:"Conversational reply shown to the user"`
	BugReportData reportFields `json:"bug_report_data"`
	IsComplete    bool         `json:"is_complete" jsonschema_description:"True once the report meets the completion rules"`
	Questions     []string     `json:"questions_to_ask" jsonschema_description:"Follow-up questions, empty when complete"`
}

type reportFields struct {
	Title            string `json:"title,omitempty" jsonschema_description:"Short bug title or summary"`
	Description      string `json:"description,omitempty" jsonschema_description:"What went wrong"`
	StepsToReproduce string `json:"steps_to_reproduce,omitempty" jsonschema_description:"Steps that lead to the bug"`
	ExpectedBehavior string `json:"expected_behavior,omitempty" jsonschema_description:"What should have happened"`
	ActualBehavior   string `json:"actual_behavior,omitempty" jsonschema_description:"What actually happened"`
	Severity         string `json:"severity,omitempty" jsonschema_description:"Critical, High, Medium, Low or Lowest"`
	Environment      string `json:"environment,omitempty" jsonschema_description:"Browser, OS, device and version"`
	AdditionalNotes  string `json:"additional_notes,omitempty" jsonschema_description:"Anything else relevant"`
	Label            string `json:"label,omitempty" jsonschema_description:"Single tracker label if the user names one"`
}

var payloadSchema = func() string {
	data, err := json.MarshalIndent(llm.GenerateSchema[reportShape](), "", "  ")
	if err != nil {
		panic(fmt.Sprintf("intake: marshal payload schema: %v", err))
	}
	return string(data)
}()

// BuildMessages renders an extraction request as a chat: system prompt,
// prior turns, then the current utterance with the status block.
func BuildMessages(req ExtractionRequest) []llm.Message {
	messages := make([]llm.Message, 0, len(req.History)+2)
	messages = append(messages, llm.Message{Role: "system", Content: buildSystemPrompt(req)})

	for _, t := range req.History {
		role := "user"
		if t.Role == model.RoleAssistant {
			role = "assistant"
		}
		messages = append(messages, llm.Message{Role: role, Content: t.Content})
	}

	messages = append(messages, llm.Message{Role: "user", Content: buildUserPrompt(req)})
	return messages
}

func buildSystemPrompt(req ExtractionRequest) string {
	var fields strings.Builder
	n := 1
	for _, group := range [][]model.FieldSpec{model.RequiredFields, model.OptionalFields} {
		for _, f := range group {
			fmt.Fprintf(&fields, "%d. %s (`%s`)\n", n, f.Label, f.Name)
			n++
		}
	}

	logsNote := "No console logs were provided."
	if req.HasLogs {
		logsNote = "Console logs were provided and will be attached to the report."
	}

	return fmt.Sprintf(`You are a bug report assistant. Interview the user in a friendly way until the report is detailed enough for a developer to reproduce and fix the problem.

## Fields to collect

%s
## Current status

Collected so far:
%s

Still missing: %s

%s

## Completion rules

Set is_complete to true when either:
- every required field (Title/Summary, Description, Steps to Reproduce, Expected Behavior, Actual Behavior) has a value, or
- the follow-up budget is spent. You may ask at most %d rounds of follow-up questions; %d remain.

Until then set is_complete to false and ask for what is missing.

## Guidelines

- Ask one or two specific questions at a time ("Which browser are you using?", not "Tell me about your environment").
- Acknowledge what the user already told you before asking for more.
- Only fill fields the user actually gave you. Leave the rest out.
- Reply with a single JSON object and nothing else.`,
		fields.String(),
		req.RecordSummary,
		missingList(req.Missing),
		logsNote,
		req.MaxQuestions,
		req.RemainingQuestions,
	)
}

func buildUserPrompt(req ExtractionRequest) string {
	logs := "None"
	if req.HasLogs {
		logs = req.Logs
	}

	return fmt.Sprintf(`User message: %q

Current date: %s

Collected information so far:
%s

Missing information: %s

Console logs (preview):
%s

Follow-up rounds remaining: %d

Respond with JSON matching this schema:
%s`,
		req.UserText,
		req.Date,
		req.RecordSummary,
		missingList(req.Missing),
		logs,
		req.RemainingQuestions,
		payloadSchema,
	)
}

func missingList(missing []string) string {
	if len(missing) == 0 {
		return "None - all required information collected"
	}
	return strings.Join(missing, ", ")
}
