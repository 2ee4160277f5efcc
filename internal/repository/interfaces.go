package repository

import (
	"time"

	"camstreamer/internal/model"
)

// SessionRepository defines the interface for session data operations.
type SessionRepository interface {
	// Create operations
	Insert(s *model.Session) error

	// Update operations
	Finish(id string, endedAt time.Time, framesSent int) error

	// Read operations
	GetByID(id string) (*model.Session, error)
	GetRecent(limit int) ([]model.Session, error)
}

// EventRepository defines the interface for event data operations.
type EventRepository interface {
	// Create operations
	Insert(e *model.Event) (int64, error)

	// Read operations
	GetBySessionID(sessionID string) ([]model.Event, error)
	CountByKind(sessionID string, kind model.EventKind) (int, error)
}
