package model

import "time"

// Session represents one run of the streaming client.
type Session struct {
	ID         string     `json:"id"`
	CameraID   string     `json:"camera_id"`
	ServerURL  string     `json:"server_url"`
	StartedAt  time.Time  `json:"started_at"`
	EndedAt    *time.Time `json:"ended_at,omitempty"`
	FramesSent int        `json:"frames_sent"`
}
