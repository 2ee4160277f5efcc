package streamer

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"camstreamer/internal/client"
	"camstreamer/internal/dto"
	"camstreamer/internal/logger"
)

const (
	// InactivePollInterval is the status poll cadence while another camera is active.
	InactivePollInterval = 500 * time.Millisecond
	// ActivePollInterval is the status poll cadence while this camera streams.
	ActivePollInterval = 3 * time.Second
	// IdleSleep is the pause of an iteration spent waiting for activation.
	IdleSleep = 100 * time.Millisecond
	// PacingTick is the pause while the next frame is not due yet.
	PacingTick = time.Millisecond
	// UploadBackoff is the extra pause after a failed upload.
	UploadBackoff = time.Second
	// ThroughputLogEvery is how many successful uploads pass between throughput lines.
	ThroughputLogEvery = 30
)

// ErrCapture marks a camera fault. It ends Run.
var ErrCapture = errors.New("frame capture failed")

// Camera produces JPEG-encoded frames.
type Camera interface {
	Capture() ([]byte, error)
}

// Server is the remote frame receiver.
type Server interface {
	FetchStatus(ctx context.Context) (*dto.StatusResponse, error)
	UploadFrame(ctx context.Context, payload *dto.FramePayload) (*dto.FrameAck, error)
}

// Options configures a Streamer.
type Options struct {
	CameraID  string
	FPS       int
	Camera    Camera
	Server    Server
	Clock     Clock          // defaults to the wall clock
	Logger    *logger.Logger // defaults to a no-op logger
	Observers []Observer
}

// Stats is a snapshot of the loop state.
type Stats struct {
	Active         bool
	FramesSent     int
	StatusInterval time.Duration
}

// state is owned by Run; nothing else touches it while the loop runs.
type state struct {
	active          bool
	lastStatusCheck time.Time
	statusInterval  time.Duration
	lastFrame       time.Time
	frameInterval   time.Duration
	frameCount      int
}

// Streamer runs the capture, encode and upload cycle for one camera,
// gated by the activation state reported by the server.
type Streamer struct {
	cameraID  string
	camera    Camera
	server    Server
	clock     Clock
	logger    *logger.Logger
	observers []Observer
	state     state
}

// New validates the options and returns an inactive Streamer.
func New(opts Options) (*Streamer, error) {
	if opts.Camera == nil {
		return nil, fmt.Errorf("camera is required")
	}
	if opts.Server == nil {
		return nil, fmt.Errorf("server is required")
	}
	if opts.CameraID == "" {
		return nil, fmt.Errorf("camera id is required")
	}
	if opts.FPS <= 0 {
		return nil, fmt.Errorf("invalid fps: %d", opts.FPS)
	}
	if opts.Clock == nil {
		opts.Clock = WallClock()
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNop()
	}

	return &Streamer{
		cameraID:  opts.CameraID,
		camera:    opts.Camera,
		server:    opts.Server,
		clock:     opts.Clock,
		logger:    opts.Logger,
		observers: opts.Observers,
		state: state{
			statusInterval: InactivePollInterval,
			frameInterval:  time.Second / time.Duration(opts.FPS),
		},
	}, nil
}

// Stats returns the current loop state. It must not be called concurrently with Run.
func (s *Streamer) Stats() Stats {
	return Stats{
		Active:         s.state.active,
		FramesSent:     s.state.frameCount,
		StatusInterval: s.state.statusInterval,
	}
}

// Run loops until ctx is cancelled, which is a normal stop and returns nil,
// or until the camera fails, which returns an error wrapping ErrCapture.
func (s *Streamer) Run(ctx context.Context) error {
	s.logger.Info("Streaming started (camera %s, frame interval %v)", s.cameraID, s.state.frameInterval)
	s.state.lastFrame = s.clock.Now()

	for {
		if ctx.Err() != nil {
			return nil
		}

		if err := s.iterate(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
	}
}

// iterate runs one pass of the loop: poll when due, then either wait or
// capture and upload one frame.
func (s *Streamer) iterate(ctx context.Context) error {
	now := s.clock.Now()

	if now.Sub(s.state.lastStatusCheck) >= s.state.statusInterval {
		s.pollStatus(ctx, now)
	}

	if !s.state.active {
		return s.clock.Sleep(ctx, IdleSleep)
	}

	elapsed := now.Sub(s.state.lastFrame)
	if elapsed < s.state.frameInterval {
		return s.clock.Sleep(ctx, PacingTick)
	}

	frame, err := s.camera.Capture()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCapture, err)
	}
	for _, o := range s.observers {
		o.FrameCaptured(frame)
	}

	backoff := s.upload(ctx, frame, elapsed)

	// pacing is anchored to capture attempts, not to successful deliveries
	s.state.lastFrame = now

	if backoff {
		return s.clock.Sleep(ctx, UploadBackoff)
	}
	return nil
}

// pollStatus asks the server which camera is active. Failures keep the
// current activation state.
func (s *Streamer) pollStatus(ctx context.Context, now time.Time) {
	status, err := s.server.FetchStatus(ctx)
	s.state.lastStatusCheck = now

	switch {
	case ctx.Err() != nil:
		return
	case client.IsStatusError(err):
		s.logger.Warning("Status check failed: %v", err)
	case err != nil:
		s.logger.Error("Status check error: %v", err)
	default:
		if source, ok := status.Source(); ok {
			s.setActive(source == s.cameraID, CausePoll)
		}
	}

	s.state.statusInterval = pollInterval(s.state.active)
}

// upload sends one frame and reports whether the loop should back off.
func (s *Streamer) upload(ctx context.Context, frame []byte, elapsed time.Duration) bool {
	payload := &dto.FramePayload{
		CameraID: s.cameraID,
		Frame:    base64.StdEncoding.EncodeToString(frame),
	}

	ack, err := s.server.UploadFrame(ctx, payload)
	switch {
	case err == nil:
	case ctx.Err() != nil:
		return false
	case client.IsStatusError(err):
		s.logger.Warning("Frame upload failed: %v", err)
		s.notifyUploadFailed(err)
		return false
	default:
		s.logger.Error("Server connection error: %v", err)
		s.notifyUploadFailed(err)
		return true
	}

	s.state.frameCount++
	for _, o := range s.observers {
		o.FrameUploaded(s.state.frameCount)
	}

	if ack.Revoked() {
		s.setActive(false, CauseRevoked)
	}

	if s.state.frameCount%ThroughputLogEvery == 0 {
		s.logger.Info("Frame upload ok: frame #%d, FPS=%.2f", s.state.frameCount, fps(elapsed))
	}
	return false
}

// setActive applies an activation transition and notifies observers.
func (s *Streamer) setActive(active bool, cause Cause) {
	if s.state.active == active {
		return
	}
	s.state.active = active
	s.state.statusInterval = pollInterval(active)

	switch {
	case active:
		s.logger.Info("Camera %s activated, starting frame upload", s.cameraID)
	case cause == CauseRevoked:
		s.logger.Info("Server reported camera %s as inactive, stopping frame upload", s.cameraID)
	default:
		s.logger.Info("Camera %s deactivated, stopping frame upload", s.cameraID)
	}

	for _, o := range s.observers {
		o.ActivationChanged(active, cause)
	}
}

func (s *Streamer) notifyUploadFailed(err error) {
	for _, o := range s.observers {
		o.UploadFailed(err)
	}
}

func pollInterval(active bool) time.Duration {
	if active {
		return ActivePollInterval
	}
	return InactivePollInterval
}

// fps estimates the instantaneous rate from the spacing of the last two captures.
func fps(elapsed time.Duration) float64 {
	if elapsed <= 0 {
		return 0
	}
	return 1 / elapsed.Seconds()
}
