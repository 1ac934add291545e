package service

import (
	"basegraph.app/intake/internal/store"
)

type Services struct {
	sessions   store.SessionStore
	processor  TurnProcessor
	dispatcher Dispatcher
}

func NewServices(sessions store.SessionStore, processor TurnProcessor, dispatcher Dispatcher) *Services {
	return &Services{
		sessions:   sessions,
		processor:  processor,
		dispatcher: dispatcher,
	}
}

func (s *Services) Conversation() ConversationService {
	return NewConversationService(s.sessions, s.processor, s.dispatcher)
}
