package service

import "errors"

// Input-contract errors. Handlers map these to 400.
var (
	ErrMissingSession = errors.New("session_id is required")
	ErrEmptyUtterance = errors.New("user message is empty")
	ErrNoUserMessage  = errors.New("no user message found")
)
