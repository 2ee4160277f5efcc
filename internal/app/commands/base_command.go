package commands

import (
	"github.com/urfave/cli/v2"

	"camstreamer/internal/config"
	"camstreamer/internal/logger"
)

// CommandContext holds what every command needs.
type CommandContext struct {
	Logger *logger.Logger
	Config *config.Config
}

// NewCommandContext resolves the configuration and builds the logger.
func NewCommandContext(c *cli.Context) (*CommandContext, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}

	log, err := logger.NewLogger(cfg.Log, "camstreamer")
	if err != nil {
		return nil, err
	}

	return &CommandContext{
		Logger: log,
		Config: cfg,
	}, nil
}

// loadConfig layers the YAML file, then environment variables and flags, over
// the defaults and validates the result.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}

	applyFlags(c, cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyFlags copies every flag that was given on the command line or through
// its environment variable.
func applyFlags(c *cli.Context, cfg *config.Config) {
	if c.IsSet("server") {
		cfg.Server.URL = c.String("server")
	}
	if c.IsSet("camera-id") {
		cfg.Camera.ID = c.String("camera-id")
	}
	if c.IsSet("device") {
		cfg.Camera.Device = c.String("device")
	}
	if c.IsSet("width") {
		cfg.Camera.Width = c.Int("width")
	}
	if c.IsSet("height") {
		cfg.Camera.Height = c.Int("height")
	}
	if c.IsSet("fps") {
		cfg.Camera.FPS = c.Int("fps")
	}
	if c.IsSet("quality") {
		cfg.Camera.Quality = c.Int("quality")
	}
	if c.IsSet("frame-rate-hint") {
		cfg.Camera.FrameRateHint = c.Int("frame-rate-hint")
	}
	if c.IsSet("swap-rb") {
		cfg.Camera.SwapRB = c.Bool("swap-rb")
	}
	if c.IsSet("warmup") {
		cfg.Camera.Warmup = c.Duration("warmup")
	}
	if c.IsSet("timeout") {
		cfg.HTTP.Timeout = c.Duration("timeout")
	}
	if c.IsSet("log-level") {
		cfg.Log.Level = c.String("log-level")
	}
	if c.IsSet("log-format") {
		cfg.Log.Format = c.String("log-format")
	}
	if c.IsSet("log-dir") {
		cfg.Log.Directory = c.String("log-dir")
	}
	if c.IsSet("preview-addr") {
		cfg.Preview.Addr = c.String("preview-addr")
	}
	if c.IsSet("preview-token") {
		cfg.Preview.Token = c.String("preview-token")
	}
	if c.IsSet("journal") {
		cfg.Journal.Path = c.String("journal")
	}
}

func envVar(name string) []string {
	return []string{"CAMSTREAMER_" + name}
}

// streamFlags are shared by the commands that resolve a full configuration.
// Defaults live in config.Default so that a YAML file can still override them.
func streamFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "Frame server base URL (default http://192.168.219.100:5000)",
			EnvVars: envVar("SERVER"),
		},
		&cli.StringFlag{
			Name:    "camera-id",
			Usage:   "Camera identifier sent with every frame (default camera_0)",
			EnvVars: envVar("CAMERA_ID"),
		},
		&cli.StringFlag{
			Name:    "device",
			Usage:   "Capture device index, path or pipeline (default 0)",
			EnvVars: envVar("DEVICE"),
		},
		&cli.IntFlag{
			Name:    "width",
			Usage:   "Capture width in pixels (default 640)",
			EnvVars: envVar("WIDTH"),
		},
		&cli.IntFlag{
			Name:    "height",
			Usage:   "Capture height in pixels (default 480)",
			EnvVars: envVar("HEIGHT"),
		},
		&cli.IntFlag{
			Name:    "fps",
			Usage:   "Target upload rate in frames per second (default 12)",
			EnvVars: envVar("FPS"),
		},
		&cli.IntFlag{
			Name:    "quality",
			Aliases: []string{"q"},
			Usage:   "JPEG quality 1-100 (default 70)",
			EnvVars: envVar("QUALITY"),
		},
		&cli.IntFlag{
			Name:    "frame-rate-hint",
			Usage:   "Frame rate requested from the capture driver (default 30)",
			EnvVars: envVar("FRAME_RATE_HINT"),
		},
		&cli.BoolFlag{
			Name:    "swap-rb",
			Usage:   "Convert RGB frames to BGR before encoding",
			EnvVars: envVar("SWAP_RB"),
		},
		&cli.DurationFlag{
			Name:    "warmup",
			Usage:   "Camera warm-up delay before streaming (default 2s)",
			EnvVars: envVar("WARMUP"),
		},
		&cli.DurationFlag{
			Name:    "timeout",
			Usage:   "Timeout of every server request (default 1s)",
			EnvVars: envVar("TIMEOUT"),
		},
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "Log level: debug, info, warn, error (default info)",
			EnvVars: envVar("LOG_LEVEL"),
		},
		&cli.StringFlag{
			Name:    "log-format",
			Usage:   "Log format: console or json (default console)",
			EnvVars: envVar("LOG_FORMAT"),
		},
		&cli.StringFlag{
			Name:    "log-dir",
			Usage:   "Also write info.log, warning.log and error.log to this directory",
			EnvVars: envVar("LOG_DIR"),
		},
		&cli.StringFlag{
			Name:    "preview-addr",
			Usage:   "Serve a local preview on this address, e.g. :8090",
			EnvVars: envVar("PREVIEW_ADDR"),
		},
		&cli.StringFlag{
			Name:    "preview-token",
			Usage:   "Token required by the preview server",
			EnvVars: envVar("PREVIEW_TOKEN"),
		},
		&cli.StringFlag{
			Name:    "journal",
			Usage:   "Record sessions in this SQLite database",
			EnvVars: envVar("JOURNAL"),
		},
	}
}
