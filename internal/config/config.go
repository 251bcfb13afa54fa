// Package config loads gesturehull settings from a JSON file.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ayusman/gesturehull/internal/detector"
	"github.com/ayusman/gesturehull/internal/gesture"
)

// Default capture settings.
const (
	DefaultSource        = "0"
	DefaultWidth         = 640
	DefaultHeight        = 480
	DefaultFPS           = 15
	DefaultListen        = ":8080"
	DefaultPluginTimeout = "5s"
	DefaultLogLevel      = "info"

	maxFileSize = 1 * 1024 * 1024 // 1MB
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the full runtime configuration. The JSON schema matches the field
// tags; omitted fields keep their defaults, so partial files are safe.
type Config struct {
	// Source is a camera index ("0") or a video file path or stream URL.
	Source string `json:"source"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	FPS    int    `json:"fps"`

	HSV          detector.HSVRange      `json:"hsv"`
	BlurSize     int                    `json:"blur_size"`
	Thresholds   gesture.ThresholdTable `json:"thresholds"`
	StableFrames int                    `json:"stable_frames"`

	Calibrate bool `json:"calibrate"`
	Headless  bool `json:"headless"`
	Tray      bool `json:"tray"`

	// Listen is the HTTP address; empty disables the server.
	Listen string `json:"listen"`

	DBPath        string `json:"db_path"`
	SnapshotDir   string `json:"snapshot_dir"`
	PluginDir     string `json:"plugin_dir"`
	PluginTimeout string `json:"plugin_timeout"` // duration string like "5s"

	// ReportDir receives the session plot on exit; empty disables it.
	ReportDir string `json:"report_dir"`

	LogLevel string `json:"log_level"`
}

// Default returns the stock configuration: camera 0 at 640x480, the
// calibrated glove range, a 5x5 blur and the default area thresholds.
func Default() *Config {
	return &Config{
		Source:        DefaultSource,
		Width:         DefaultWidth,
		Height:        DefaultHeight,
		FPS:           DefaultFPS,
		HSV:           detector.DefaultRange(),
		BlurSize:      detector.DefaultBlurSize,
		Thresholds:    gesture.DefaultThresholds(),
		StableFrames:  1,
		Listen:        DefaultListen,
		PluginTimeout: DefaultPluginTimeout,
		LogLevel:      DefaultLogLevel,
	}
}

// Load reads a JSON config file on top of Default.
// The file must have a .json extension and be at most 1MB.
func Load(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	info, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the configuration values are usable.
func (c *Config) Validate() error {
	if c.Source == "" {
		return fmt.Errorf("%w: source is required", ErrInvalidConfig)
	}
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("%w: frame size must be positive, got %dx%d", ErrInvalidConfig, c.Width, c.Height)
	}
	if c.FPS <= 0 {
		return fmt.Errorf("%w: fps must be positive, got %d", ErrInvalidConfig, c.FPS)
	}
	if err := c.HSV.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.BlurSize <= 0 || c.BlurSize%2 == 0 {
		return fmt.Errorf("%w: blur_size must be odd and positive, got %d", ErrInvalidConfig, c.BlurSize)
	}
	if err := c.Thresholds.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.StableFrames < 1 {
		return fmt.Errorf("%w: stable_frames must be at least 1, got %d", ErrInvalidConfig, c.StableFrames)
	}
	if c.Calibrate && (c.Headless || c.Tray) {
		return fmt.Errorf("%w: calibration needs the display windows", ErrInvalidConfig)
	}
	if c.PluginTimeout != "" {
		if _, err := time.ParseDuration(c.PluginTimeout); err != nil {
			return fmt.Errorf("%w: invalid plugin_timeout %q: %w", ErrInvalidConfig, c.PluginTimeout, err)
		}
	}
	return nil
}

// GetPluginTimeout parses PluginTimeout, defaulting to 5s.
func (c *Config) GetPluginTimeout() time.Duration {
	if c.PluginTimeout == "" {
		return 5 * time.Second
	}
	d, err := time.ParseDuration(c.PluginTimeout)
	if err != nil || d <= 0 {
		return 5 * time.Second
	}
	return d
}

// ResolvePaths fills empty storage paths with locations under dataDir.
func (c *Config) ResolvePaths(dataDir string) {
	if c.DBPath == "" {
		c.DBPath = filepath.Join(dataDir, "gesturehull.db")
	}
	if c.PluginDir == "" {
		c.PluginDir = filepath.Join(dataDir, "plugins")
	}
	if c.SnapshotDir == "" {
		c.SnapshotDir = filepath.Join(dataDir, "snapshots")
	}
}

// DataDir returns ~/.gesturehull.
func DataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".gesturehull"), nil
}
