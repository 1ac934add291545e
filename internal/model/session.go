package model

import "time"

// Session is one in-progress bug report interview.
type Session struct {
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	ID             string    `json:"id"`
	UserID         string    `json:"user_id,omitempty"`
	Record         Record    `json:"record"`
	History        []Turn    `json:"history"`
	QuestionsAsked int       `json:"questions_asked"`
	Complete       bool      `json:"complete"`
}

// NewSession returns an empty session for id.
func NewSession(id string, now time.Time) *Session {
	return &Session{
		CreatedAt: now,
		UpdatedAt: now,
		ID:        id,
		Record:    Record{},
		History:   []Turn{},
	}
}

// MarkComplete flips the completion flag. It never flips back.
func (s *Session) MarkComplete() {
	s.Complete = true
}
