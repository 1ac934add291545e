package model

import "time"

// Attachment names used as archive keys and in ticket bodies.
const (
	AttachmentTranscript      = "transcription"
	AttachmentConsoleLogs     = "console_logs"
	AttachmentScreenRecording = "screen_recording"
)

// Ticket is a reference to an issue opened in a tracker.
type Ticket struct {
	Provider string `json:"provider"`
	Key      string `json:"key"`
	ID       string `json:"id"`
	URL      string `json:"url"`
	Summary  string `json:"summary"`
}

// ArchivedLocations maps attachment name to its stored location.
// A nil value means the attachment was supplied but could not be stored.
type ArchivedLocations map[string]*string

// Report is the ledger entry written once a session completes.
type Report struct {
	CreatedAt time.Time         `json:"created_at"`
	ID        string            `json:"id"`
	SessionID string            `json:"session_id"`
	UserID    string            `json:"user_id,omitempty"`
	Record    Record            `json:"record"`
	Locations ArchivedLocations `json:"locations"`
	Ticket    *Ticket           `json:"ticket,omitempty"`
}
