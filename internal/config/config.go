// Package config loads the viewer's tuning settings from an optional YAML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const (
	appName        = "fypeek"
	configFileName = "config.yaml"
)

// Config holds every tunable of the viewer. Nothing here is ever written back.
type Config struct {
	LogLevel          string        `yaml:"log_level"`          // logrus level name
	Patterns          []string      `yaml:"patterns"`           // Glob patterns of picture file names
	WatchDebounce     time.Duration `yaml:"watch_debounce"`     // Quiet period before a watch batch is delivered
	RefreshQuiescence time.Duration `yaml:"refresh_quiescence"` // Minimum idle time between directory polls
	TickInterval      time.Duration `yaml:"tick_interval"`      // Period of the refresh loop
	ZoomSpeed         float64       `yaml:"zoom_speed"`         // Zoom sensitivity per pixel of cursor travel
	MinWindowExtent   int           `yaml:"min_window_extent"`  // Smallest window dimension reachable by zooming
	FitScale          float64       `yaml:"fit_scale"`          // Fraction of the screen a new picture may cover
	// Fyne can't report the monitor size, so fitting new pictures and the
	// zoom bounds always use this one. Set it to the real monitor resolution.
	ScreenWidth  int `yaml:"screen_width"`
	ScreenHeight int `yaml:"screen_height"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Patterns: []string{
			"*.png", "*.jpg", "*.jpeg", "*.gif",
			"*.bmp", "*.tif", "*.tiff", "*.webp",
		},
		WatchDebounce:     250 * time.Millisecond,
		RefreshQuiescence: 125 * time.Millisecond,
		TickInterval:      16 * time.Millisecond,
		ZoomSpeed:         0.003,
		MinWindowExtent:   64,
		FitScale:          0.8,
		ScreenWidth:       1920,
		ScreenHeight:      1080,
	}
}

// Path returns the default location of the config file.
func Path() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate user config dir: %w", err)
	}
	return filepath.Join(dir, appName, configFileName), nil
}

// Load reads the config from its default location.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return Default(), nil
	}
	return LoadFile(path)
}

// LoadFile reads the config at path. A missing file yields the defaults.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var loaded Config
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("error parsing config file %s: %w", path, err)
	}
	cfg.merge(&loaded)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return cfg, nil
}

// merge copies every field set in other over the receiver.
func (c *Config) merge(other *Config) {
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if len(other.Patterns) > 0 {
		c.Patterns = other.Patterns
	}
	if other.WatchDebounce > 0 {
		c.WatchDebounce = other.WatchDebounce
	}
	if other.RefreshQuiescence > 0 {
		c.RefreshQuiescence = other.RefreshQuiescence
	}
	if other.TickInterval > 0 {
		c.TickInterval = other.TickInterval
	}
	if other.ZoomSpeed != 0 {
		c.ZoomSpeed = other.ZoomSpeed
	}
	if other.MinWindowExtent != 0 {
		c.MinWindowExtent = other.MinWindowExtent
	}
	if other.FitScale != 0 {
		c.FitScale = other.FitScale
	}
	if other.ScreenWidth != 0 {
		c.ScreenWidth = other.ScreenWidth
	}
	if other.ScreenHeight != 0 {
		c.ScreenHeight = other.ScreenHeight
	}
}

// Validate reports the first out-of-range setting.
func (c *Config) Validate() error {
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	if len(c.Patterns) == 0 {
		return errors.New("patterns: at least one pattern is required")
	}
	if c.ZoomSpeed <= 0 {
		return fmt.Errorf("zoom_speed must be positive, got %v", c.ZoomSpeed)
	}
	if c.MinWindowExtent < 1 {
		return fmt.Errorf("min_window_extent must be at least 1, got %d", c.MinWindowExtent)
	}
	if c.FitScale <= 0 || c.FitScale > 1 {
		return fmt.Errorf("fit_scale must be in (0, 1], got %v", c.FitScale)
	}
	if c.ScreenWidth < 1 || c.ScreenHeight < 1 {
		return fmt.Errorf("screen size must be positive, got %dx%d", c.ScreenWidth, c.ScreenHeight)
	}
	return nil
}

// Level returns the parsed log level, info if it doesn't parse.
func (c *Config) Level() logrus.Level {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}
