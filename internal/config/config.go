// Package config loads hourtree's settings from a TOML file with environment
// overrides.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/sadopc/hourtree/internal/logging"
	"github.com/sadopc/hourtree/internal/store"
)

const AppName = "hourtree"

// ErrInvalidValue is returned for settings that cannot be used.
var ErrInvalidValue = errors.New("invalid config value")

const (
	DefaultSessionLength = 25.0 // minutes
	maxSessionLength     = 24 * 60
)

// Config is the on-disk configuration. Empty paths mean the XDG defaults.
type Config struct {
	SessionLength float64 `toml:"session_length" json:"session_length" env:"HOURTREE_SESSION_LENGTH"`
	DayOffset     int     `toml:"day_boundary_offset_hours" json:"day_boundary_offset_hours" env:"HOURTREE_DAY_OFFSET"`
	DBPath        string  `toml:"db_path,omitempty" json:"db_path,omitempty" env:"HOURTREE_DB"`
	LogLevel      string  `toml:"log_level" json:"log_level" env:"HOURTREE_LOG_LEVEL"`
	LogFile       string  `toml:"log_file,omitempty" json:"log_file,omitempty" env:"HOURTREE_LOG_FILE"`
}

func Default() *Config {
	return &Config{
		SessionLength: DefaultSessionLength,
		DayOffset:     0,
		LogLevel:      "info",
	}
}

// DefaultPath is config.toml under the XDG config directory.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, AppName, "config.toml")
}

// Load reads path, falling back to defaults when it does not exist, then applies
// HOURTREE_* environment overrides.
func Load(path string) (*Config, error) {
	cfg, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile is Load without environment overrides. Use it before Save so that
// overrides are not written back.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		logging.Logger().Debug("no config file, using defaults", "path", path)
		return cfg, nil
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path, creating the directory.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func (c *Config) Validate() error {
	if err := checkSessionLength(c.SessionLength); err != nil {
		return err
	}
	if err := checkDayOffset(c.DayOffset); err != nil {
		return err
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %v: %w", err, ErrInvalidValue)
	}
	return nil
}

// SessionDuration converts the session length to whole seconds.
func (c *Config) SessionDuration() time.Duration {
	return time.Duration(c.SessionLength * float64(time.Minute)).Truncate(time.Second)
}

// SetSessionLength parses minutes from user input. The old value is kept on error.
func (c *Config) SetSessionLength(input string) error {
	v, err := strconv.ParseFloat(strings.TrimSpace(input), 64)
	if err != nil {
		return fmt.Errorf("session length %q is not a number: %w", input, ErrInvalidValue)
	}
	if err := checkSessionLength(v); err != nil {
		return err
	}
	c.SessionLength = v
	return nil
}

// SetDayOffset parses the hour at which a logical day starts.
func (c *Config) SetDayOffset(input string) error {
	v, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil {
		return fmt.Errorf("day offset %q is not a whole number: %w", input, ErrInvalidValue)
	}
	if err := checkDayOffset(v); err != nil {
		return err
	}
	c.DayOffset = v
	return nil
}

// Database resolves the SQLite file path.
func (c *Config) Database() string {
	if c.DBPath != "" {
		return c.DBPath
	}
	return store.DefaultDBPath()
}

// LogPath resolves the log file the TUI writes to.
func (c *Config) LogPath() string {
	if c.LogFile != "" {
		return c.LogFile
	}
	return filepath.Join(xdg.StateHome, AppName, AppName+".log")
}

func checkSessionLength(v float64) error {
	if math.IsNaN(v) || v*60 < 1 || v > maxSessionLength {
		return fmt.Errorf("session_length must be between 1 second and %d minutes, got %v: %w",
			maxSessionLength, v, ErrInvalidValue)
	}
	return nil
}

func checkDayOffset(v int) error {
	if v < 0 || v > 23 {
		return fmt.Errorf("day_boundary_offset_hours must be 0-23, got %d: %w", v, ErrInvalidValue)
	}
	return nil
}
