package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"camstreamer/internal/camera"
	"camstreamer/internal/client"
	"camstreamer/internal/config"
	"camstreamer/internal/logger"
	"camstreamer/internal/preview"
	"camstreamer/internal/repository/sqlite"
	"camstreamer/internal/route"
	"camstreamer/internal/service/journal"
	"camstreamer/internal/streamer"
)

// Version is stamped at build time with -ldflags "-X camstreamer/internal/app.Version=...".
var Version = "dev"

const previewShutdownTimeout = 5 * time.Second

// CaptureDevice is a camera the app can close once streaming ends.
type CaptureDevice interface {
	streamer.Camera
	Close() error
}

// CameraOpener opens the capture device described by cfg.
type CameraOpener func(cfg config.CameraConfig, logger *logger.Logger) (CaptureDevice, error)

func openDevice(cfg config.CameraConfig, logger *logger.Logger) (CaptureDevice, error) {
	device, err := camera.Open(cfg, logger)
	if err != nil {
		return nil, err
	}
	return device, nil
}

// Option customises an App.
type Option func(*App)

// WithCameraOpener replaces the OpenCV device.
func WithCameraOpener(open CameraOpener) Option {
	return func(a *App) { a.openCamera = open }
}

type App struct {
	config     *config.Config
	logger     *logger.Logger
	openCamera CameraOpener
	clock      streamer.Clock

	db       *sqlite.DB
	recorder *journal.Recorder

	hub     *preview.Hub
	monitor *preview.Monitor
	server  *http.Server
	ln      net.Listener
}

// New validates cfg and opens the optional journal and preview server.
func New(cfg *config.Config, log *logger.Logger, opts ...Option) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a := &App{
		config:     cfg,
		logger:     log,
		openCamera: openDevice,
		clock:      streamer.WallClock(),
	}
	for _, opt := range opts {
		opt(a)
	}

	if cfg.Journal.Path != "" {
		db, err := sqlite.New(cfg.Journal.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open journal: %w", err)
		}
		a.db = db
		a.recorder = journal.NewRecorder(sqlite.NewSessionRepository(db), sqlite.NewEventRepository(db), log.Named("journal"))
	}

	if cfg.Preview.Addr != "" {
		previewLog := log.Named("preview")
		a.hub = preview.NewHub(previewLog)
		a.monitor = preview.NewMonitor(cfg.Camera.ID, a.hub, previewLog)
		a.server = &http.Server{
			Addr:              cfg.Preview.Addr,
			Handler:           route.SetupRoutes(a.hub, a.monitor, cfg.Preview, previewLog),
			ReadHeaderTimeout: 10 * time.Second,
		}

		ln, err := net.Listen("tcp", cfg.Preview.Addr)
		if err != nil {
			a.closeJournal()
			return nil, fmt.Errorf("failed to listen on %s: %w", cfg.Preview.Addr, err)
		}
		a.ln = ln
	}

	return a, nil
}

// Run opens the camera, warms it up and streams until ctx is cancelled or the
// camera fails. Cancellation is a normal stop and returns nil.
func (a *App) Run(ctx context.Context) error {
	framesSent := 0
	defer func() {
		a.logger.Info("Streaming client shut down, %d frames sent", framesSent)
	}()
	defer a.closeJournal()

	if a.server != nil {
		defer a.startPreview()()
	}

	device, err := a.openCamera(a.config.Camera, a.logger.Named("camera"))
	if err != nil {
		return err
	}
	defer device.Close()

	if warmup := a.config.Camera.Warmup; warmup > 0 {
		a.logger.Info("Camera warming up for %v", warmup)
		if err := a.clock.Sleep(ctx, warmup); err != nil {
			a.logger.Info("Interrupted during warm-up")
			return nil
		}
	}

	var observers []streamer.Observer
	if a.monitor != nil {
		observers = append(observers, a.monitor)
	}
	if a.recorder != nil {
		if _, err := a.recorder.Start(a.config.Camera.ID, a.config.ServerBase()); err != nil {
			a.logger.Warning("Journal disabled for this run: %v", err)
		} else {
			observers = append(observers, a.recorder)
		}
	}

	s, err := streamer.New(streamer.Options{
		CameraID:  a.config.Camera.ID,
		FPS:       a.config.Camera.FPS,
		Camera:    device,
		Server:    client.New(a.config.ServerBase(), a.config.HTTP.Timeout, client.WithUserAgent("camstreamer/"+Version)),
		Clock:     a.clock,
		Logger:    a.logger.Named("streamer"),
		Observers: observers,
	})
	if err != nil {
		return err
	}

	a.logger.Info("Streaming client started: camera=%s server=%s size=%dx%d fps=%d quality=%d",
		a.config.Camera.ID, a.config.ServerBase(), a.config.Camera.Width, a.config.Camera.Height,
		a.config.Camera.FPS, a.config.Camera.Quality)

	runErr := s.Run(ctx)
	framesSent = s.Stats().FramesSent
	if runErr != nil {
		a.logger.Error("Streaming stopped: %v", runErr)
	}
	return runErr
}

// PreviewAddr returns the address the preview server listens on, nil when preview is off.
func (a *App) PreviewAddr() net.Addr {
	if a.ln == nil {
		return nil
	}
	return a.ln.Addr()
}

// startPreview serves the preview endpoints and returns the function that stops them.
func (a *App) startPreview() func() {
	hubCtx, stopHub := context.WithCancel(context.Background())
	go a.hub.Run(hubCtx)

	served := make(chan struct{})
	go func() {
		defer close(served)
		if err := a.server.Serve(a.ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("Preview server failed: %v", err)
		}
	}()
	a.logger.Info("Preview server listening on http://%s", a.ln.Addr())

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), previewShutdownTimeout)
		defer cancel()
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.logger.Warning("Preview server shutdown: %v", err)
		}
		stopHub()
		<-a.hub.Done()
		<-served
		a.logger.Info("Preview server stopped")
	}
}

func (a *App) closeJournal() {
	if a.db == nil {
		return
	}
	if err := a.recorder.Finish(); err != nil {
		a.logger.Warning("Failed to finish journal session: %v", err)
	}
	if err := a.db.Close(); err != nil {
		a.logger.Warning("Failed to close journal: %v", err)
	}
}
