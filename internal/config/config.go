package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the settings of one streaming client run. It is built once at
// startup and never mutated afterwards.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Camera  CameraConfig  `yaml:"camera"`
	HTTP    HTTPConfig    `yaml:"http"`
	Log     LogConfig     `yaml:"log"`
	Preview PreviewConfig `yaml:"preview"`
	Journal JournalConfig `yaml:"journal"`
}

// ServerConfig points at the frame receiver.
type ServerConfig struct {
	URL string `yaml:"url"` // base address, e.g. http://host:5000
}

// CameraConfig describes the capture device and the encoding applied to frames.
type CameraConfig struct {
	ID            string        `yaml:"id"`
	Device        string        `yaml:"device"` // index, device path or GStreamer pipeline
	Width         int           `yaml:"width"`
	Height        int           `yaml:"height"`
	FPS           int           `yaml:"fps"`
	Quality       int           `yaml:"quality"`         // JPEG quality 1-100
	FrameRateHint int           `yaml:"frame_rate_hint"` // capture rate asked from the driver
	SwapRB        bool          `yaml:"swap_rb"`         // source delivers RGB instead of BGR
	Warmup        time.Duration `yaml:"warmup"`
}

// HTTPConfig bounds every request made to the server.
type HTTPConfig struct {
	Timeout time.Duration `yaml:"timeout"`
}

// LogConfig selects level, encoding and optional per-level log files.
type LogConfig struct {
	Level     string `yaml:"level"`
	Format    string `yaml:"format"`
	Directory string `yaml:"directory"`
}

// PreviewConfig enables the local preview server when Addr is set.
type PreviewConfig struct {
	Addr  string `yaml:"addr"`
	Token string `yaml:"token"`
}

// JournalConfig enables the SQLite session journal when Path is set.
type JournalConfig struct {
	Path string `yaml:"path"`
}

// Default returns the configuration used when nothing else is given.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			URL: "http://192.168.219.100:5000",
		},
		Camera: CameraConfig{
			ID:            "camera_0",
			Device:        "0",
			Width:         640,
			Height:        480,
			FPS:           12,
			Quality:       70,
			FrameRateHint: 30,
			Warmup:        2 * time.Second,
		},
		HTTP: HTTPConfig{
			Timeout: time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load returns the defaults overlaid with the YAML file at path.
// An empty path yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return cfg, nil
}

// LoadEnvFile exports the variables of a dotenv file into the process
// environment without overriding variables that are already set. A missing
// file is only an error when required is true.
func LoadEnvFile(path string, required bool) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) && !required {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

// Validate checks the configuration before anything is opened.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Server.URL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("invalid server url: %q", c.Server.URL)
	}

	if strings.TrimSpace(c.Camera.ID) == "" {
		return fmt.Errorf("camera id must not be empty")
	}
	if c.Camera.Device == "" {
		return fmt.Errorf("camera device must not be empty")
	}
	if c.Camera.Width <= 0 || c.Camera.Height <= 0 {
		return fmt.Errorf("invalid capture size: %dx%d", c.Camera.Width, c.Camera.Height)
	}
	if c.Camera.FPS < 1 || c.Camera.FPS > 120 {
		return fmt.Errorf("invalid fps: %d", c.Camera.FPS)
	}
	if c.Camera.Quality < 1 || c.Camera.Quality > 100 {
		return fmt.Errorf("invalid jpeg quality: %d (expected 1-100)", c.Camera.Quality)
	}
	if c.Camera.FrameRateHint < 0 {
		return fmt.Errorf("invalid frame rate hint: %d", c.Camera.FrameRateHint)
	}
	if c.Camera.Warmup < 0 {
		return fmt.Errorf("warmup must not be negative")
	}

	if c.HTTP.Timeout <= 0 {
		return fmt.Errorf("http timeout must be positive")
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level: %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("unknown log format: %q", c.Log.Format)
	}

	return nil
}

// ServerBase returns the server URL without trailing slashes.
func (c *Config) ServerBase() string {
	return strings.TrimRight(c.Server.URL, "/")
}
