// Package config loads bridge settings from DEVICE_APPS_* environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Prefix is prepended to every environment variable name.
const Prefix = "DEVICE_APPS"

// Config holds all bridge configuration.
type Config struct {
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`
	LogDevelopment bool   `envconfig:"LOG_DEV" default:"false"`

	// AppDirs replaces the XDG applications search path. The first entry is
	// the user directory, the rest are system directories.
	AppDirs []string `envconfig:"APP_DIRS"`

	// IconDirs replaces the icon theme base directories.
	IconDirs []string `envconfig:"ICON_DIRS"`

	// DataHome is the parent of per-package data directories.
	DataHome string `envconfig:"DATA_HOME"`

	// IconMaxSize caps rendered icons in pixels. Zero keeps intrinsic size.
	IconMaxSize int `envconfig:"ICON_MAX_SIZE" default:"0"`

	ReportCategory bool          `envconfig:"REPORT_CATEGORY" default:"true"`
	WatchDebounce  time.Duration `envconfig:"WATCH_DEBOUNCE" default:"500ms"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values the bridge cannot use.
func (c *Config) Validate() error {
	if c.IconMaxSize < 0 {
		return fmt.Errorf("invalid config: ICON_MAX_SIZE must not be negative, got %d", c.IconMaxSize)
	}
	if c.WatchDebounce < 0 {
		return fmt.Errorf("invalid config: WATCH_DEBOUNCE must not be negative, got %s", c.WatchDebounce)
	}
	return nil
}

// UserAppDir returns the configured user applications directory, or "".
func (c *Config) UserAppDir() string {
	if len(c.AppDirs) == 0 {
		return ""
	}
	return c.AppDirs[0]
}

// SystemAppDirs returns the configured system applications directories.
func (c *Config) SystemAppDirs() []string {
	if len(c.AppDirs) < 2 {
		return nil
	}
	return c.AppDirs[1:]
}

// Usage lists the recognised environment variables.
func Usage() []string {
	return []string{
		Prefix + "_LOG_LEVEL",
		Prefix + "_LOG_DEV",
		Prefix + "_APP_DIRS",
		Prefix + "_ICON_DIRS",
		Prefix + "_DATA_HOME",
		Prefix + "_ICON_MAX_SIZE",
		Prefix + "_REPORT_CATEGORY",
		Prefix + "_WATCH_DEBOUNCE",
	}
}
