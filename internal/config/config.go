package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. PULSE_DB_PATH
const EnvPrefix = "PULSE"

// ServerConfig holds HTTP service settings.
type ServerConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}

// WearableConfig points at an optional wearable sample API.
type WearableConfig struct {
	// URL is the base URL; empty disables the wearable adjustment.
	URL     string        `mapstructure:"url" yaml:"url"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// CorrelationConfig holds correlation defaults.
type CorrelationConfig struct {
	WindowDays int `mapstructure:"window_days" yaml:"window_days"`
}

// TasksConfig holds task store behavior switches.
type TasksConfig struct {
	DetectCycles bool `mapstructure:"detect_cycles" yaml:"detect_cycles"`
}

// Config is the top-level application configuration.
type Config struct {
	DBPath      string            `mapstructure:"db_path" yaml:"db_path"`
	LogLevel    string            `mapstructure:"log_level" yaml:"log_level"`
	Server      ServerConfig      `mapstructure:"server" yaml:"server"`
	Wearable    WearableConfig    `mapstructure:"wearable" yaml:"wearable"`
	Correlation CorrelationConfig `mapstructure:"correlation" yaml:"correlation"`
	Tasks       TasksConfig       `mapstructure:"tasks" yaml:"tasks"`
}

// Dir returns ~/.pulse, falling back to ./.pulse without a home directory.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".pulse"
	}
	return filepath.Join(home, ".pulse")
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("db_path", filepath.Join(Dir(), "pulse.db"))
	v.SetDefault("log_level", "warn")
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("wearable.url", "")
	v.SetDefault("wearable.timeout", 3*time.Second)
	v.SetDefault("correlation.window_days", 30)
	v.SetDefault("tasks.detect_cycles", true)
}

// Load reads configuration from the YAML file at path, then applies PULSE_*
// environment overrides. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		path = DefaultPath()
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values no component can work with.
func (c *Config) Validate() error {
	if c.DBPath == "" {
		return errors.New("db_path must not be empty")
	}
	if c.Correlation.WindowDays < 1 {
		return fmt.Errorf("correlation.window_days must be positive, got %d", c.Correlation.WindowDays)
	}
	if c.Wearable.Timeout < 0 {
		return fmt.Errorf("wearable.timeout must not be negative, got %s", c.Wearable.Timeout)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// ParseLevel maps a log_level value to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("invalid log_level %q", s)
	}
	return level, nil
}

// NewLogger builds the process logger writing text to stderr.
func (c *Config) NewLogger() *slog.Logger {
	level, err := ParseLevel(c.LogLevel)
	if err != nil {
		level = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
