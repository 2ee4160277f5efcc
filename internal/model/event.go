package model

import "time"

// EventKind names a journal event.
type EventKind string

const (
	EventActivated    EventKind = "activated"
	EventDeactivated  EventKind = "deactivated"
	EventRevoked      EventKind = "revoked"
	EventUploadFailed EventKind = "upload_failed"
)

// Event represents something that happened during a session.
type Event struct {
	ID        int64     `json:"id"`
	SessionID string    `json:"session_id"`
	Kind      EventKind `json:"kind"`
	Detail    string    `json:"detail"`
	CreatedAt time.Time `json:"created_at"`
}
