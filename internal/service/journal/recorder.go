package journal

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"camstreamer/internal/logger"
	"camstreamer/internal/model"
	"camstreamer/internal/repository"
	"camstreamer/internal/streamer"
)

// Recorder writes a session and its activation events to the journal.
// Upload failures are recorded once per activation period.
type Recorder struct {
	sessions repository.SessionRepository
	events   repository.EventRepository
	logger   *logger.Logger
	now      func() time.Time

	mu            sync.Mutex
	session       *model.Session
	framesSent    int
	failureLogged bool
}

var _ streamer.Observer = (*Recorder)(nil)

func NewRecorder(sessions repository.SessionRepository, events repository.EventRepository, logger *logger.Logger) *Recorder {
	return &Recorder{
		sessions: sessions,
		events:   events,
		logger:   logger,
		now:      time.Now,
	}
}

// Start opens a new session and returns its id.
func (r *Recorder) Start(cameraID, serverURL string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.session != nil {
		return "", fmt.Errorf("session %s already started", r.session.ID)
	}

	s := &model.Session{
		ID:        uuid.NewString(),
		CameraID:  cameraID,
		ServerURL: serverURL,
		StartedAt: r.now(),
	}
	if err := r.sessions.Insert(s); err != nil {
		return "", err
	}

	r.session = s
	r.logger.Info("Journal session %s started", s.ID)
	return s.ID, nil
}

// Finish closes the session with the final upload count.
func (r *Recorder) Finish() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.session == nil {
		return nil
	}

	id := r.session.ID
	if err := r.sessions.Finish(id, r.now(), r.framesSent); err != nil {
		return err
	}
	r.session = nil
	r.logger.Info("Journal session %s finished, %d frames sent", id, r.framesSent)
	return nil
}

func (r *Recorder) ActivationChanged(active bool, cause streamer.Cause) {
	kind := model.EventDeactivated
	switch {
	case active:
		kind = model.EventActivated
	case cause == streamer.CauseRevoked:
		kind = model.EventRevoked
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.failureLogged = false
	r.record(kind, string(cause))
}

func (r *Recorder) FrameCaptured([]byte) {}

func (r *Recorder) FrameUploaded(seq int) {
	r.mu.Lock()
	r.framesSent = seq
	r.mu.Unlock()
}

func (r *Recorder) UploadFailed(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.failureLogged {
		return
	}
	r.failureLogged = true
	r.record(model.EventUploadFailed, err.Error())
}

// record must be called with mu held.
func (r *Recorder) record(kind model.EventKind, detail string) {
	if r.session == nil {
		return
	}

	_, err := r.events.Insert(&model.Event{
		SessionID: r.session.ID,
		Kind:      kind,
		Detail:    detail,
		CreatedAt: r.now(),
	})
	if err != nil {
		r.logger.Warning("Failed to record %s event: %v", kind, err)
	}
}
