package dto

import (
	"encoding/json"
	"time"
)

// PreviewFrame is broadcast to preview viewers over the websocket.
type PreviewFrame struct {
	Camera string `json:"camera"`
	Image  string `json:"image"`
}

// PreviewStatus describes the streaming client for the local preview API.
type PreviewStatus struct {
	CameraID    string    `json:"camera_id"`
	Active      bool      `json:"active"`
	FramesSent  int       `json:"frames_sent"`
	LastFrameAt time.Time `json:"last_frame_at"`
	LastError   string    `json:"last_error,omitempty"`
}

// MarshalJSON renders LastFrameAt as RFC 3339, or null before the first frame.
func (p PreviewStatus) MarshalJSON() ([]byte, error) {
	type Alias PreviewStatus
	var last *string
	if !p.LastFrameAt.IsZero() {
		s := p.LastFrameAt.Format(time.RFC3339Nano)
		last = &s
	}
	return json.Marshal(&struct {
		LastFrameAt *string `json:"last_frame_at"`
		Alias
	}{
		LastFrameAt: last,
		Alias:       (Alias)(p),
	})
}
