package model

import (
	"fmt"
	"strings"
)

// Turn roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one entry of a session's transcript.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CountAssistantTurns returns how many turns in history were spoken by the assistant.
func CountAssistantTurns(history []Turn) int {
	n := 0
	for _, t := range history {
		if t.Role == RoleAssistant {
			n++
		}
	}
	return n
}

// LastTurns returns at most n trailing turns. n <= 0 returns the whole history.
func LastTurns(history []Turn, n int) []Turn {
	if n <= 0 || len(history) <= n {
		return history
	}
	return history[len(history)-n:]
}

// RenderTranscript formats turns as "Role: content" lines.
func RenderTranscript(history []Turn) string {
	lines := make([]string, 0, len(history))
	for _, t := range history {
		lines = append(lines, fmt.Sprintf("%s: %s", TitleCaseKey(t.Role), t.Content))
	}
	return strings.Join(lines, "\n")
}
