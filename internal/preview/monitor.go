package preview

import (
	"encoding/base64"
	"encoding/json"
	"sync"
	"time"

	"camstreamer/internal/dto"
	"camstreamer/internal/logger"
	"camstreamer/internal/streamer"
)

// Monitor observes the streaming loop: it keeps a status snapshot for the
// preview API and forwards captured frames to the hub.
type Monitor struct {
	mu     sync.RWMutex
	status dto.PreviewStatus
	hub    *Hub
	now    func() time.Time
	logger *logger.Logger
}

var _ streamer.Observer = (*Monitor)(nil)

func NewMonitor(cameraID string, hub *Hub, logger *logger.Logger) *Monitor {
	return &Monitor{
		status: dto.PreviewStatus{CameraID: cameraID},
		hub:    hub,
		now:    time.Now,
		logger: logger,
	}
}

func (m *Monitor) ActivationChanged(active bool, cause streamer.Cause) {
	m.mu.Lock()
	m.status.Active = active
	m.mu.Unlock()
}

// FrameCaptured encodes the frame for viewers. Nothing is encoded while no
// viewer is connected.
func (m *Monitor) FrameCaptured(jpeg []byte) {
	if m.hub == nil || m.hub.ClientCount() == 0 {
		return
	}

	m.mu.RLock()
	camera := m.status.CameraID
	m.mu.RUnlock()

	message, err := json.Marshal(dto.PreviewFrame{
		Camera: camera,
		Image:  base64.StdEncoding.EncodeToString(jpeg),
	})
	if err != nil {
		m.logger.Error("Failed to encode preview frame: %v", err)
		return
	}
	if !m.hub.Broadcast(message) {
		m.logger.Debug("Preview hub busy, frame dropped")
	}
}

func (m *Monitor) FrameUploaded(seq int) {
	m.mu.Lock()
	m.status.FramesSent = seq
	m.status.LastFrameAt = m.now()
	m.status.LastError = ""
	m.mu.Unlock()
}

func (m *Monitor) UploadFailed(err error) {
	m.mu.Lock()
	m.status.LastError = err.Error()
	m.mu.Unlock()
}

// Status returns a copy of the current snapshot.
func (m *Monitor) Status() dto.PreviewStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}
