// Package config loads the fingerstore configuration file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultDatabasePath = "fingerstore.db"
	defaultKeyPath      = "fingerstore.key"
	defaultBusyTimeout  = 5 * time.Second
	defaultLogLevel     = "info"
)

// ErrInvalidConfig marks validation failures.
var ErrInvalidConfig = errors.New("invalid config")

// Duration unmarshals YAML strings like "5s" or "500ms".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("duration must be a string like \"5s\": %w", err)
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Config is the full configuration tree.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Identity IdentityConfig `yaml:"identity"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type DatabaseConfig struct {
	// Path is the SQLite database file.
	Path string `yaml:"path"`

	// BusyTimeout bounds how long statements wait on a locked database.
	BusyTimeout Duration `yaml:"busy_timeout"`
}

type IdentityConfig struct {
	// KeyPath holds the deployment keypair the instance identity is
	// derived from. Generated on first use if absent.
	KeyPath string `yaml:"key_path"`
}

type LoggingConfig struct {
	Level string `yaml:"level"` // debug | info | warn | error
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Database: DatabaseConfig{
			Path:        defaultDatabasePath,
			BusyTimeout: Duration(defaultBusyTimeout),
		},
		Identity: IdentityConfig{KeyPath: defaultKeyPath},
		Logging:  LoggingConfig{Level: defaultLogLevel},
	}
}

// Load reads a YAML config file, filling unset fields with defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("%w: database.path must not be empty", ErrInvalidConfig)
	}
	if c.Database.BusyTimeout < 0 {
		return fmt.Errorf("%w: database.busy_timeout must not be negative", ErrInvalidConfig)
	}
	if c.Identity.KeyPath == "" {
		return fmt.Errorf("%w: identity.key_path must not be empty", ErrInvalidConfig)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: logging.level %q: must be one of debug, info, warn, error", ErrInvalidConfig, c.Logging.Level)
	}
	return nil
}

// LogLevel maps the configured level name to a slog level. Validation
// guarantees the name is known; unknown names fall back to info.
func (c Config) LogLevel() slog.Level {
	switch c.Logging.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
