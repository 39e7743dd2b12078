// Package config provides configuration and preference handling for plexus.
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

// Dir returns the plexus config directory, respecting XDG_CONFIG_HOME.
// Defaults to ~/.config/plexus if XDG_CONFIG_HOME is not set.
func Dir() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "plexus"), nil
}

// DataDir returns ~/.plexus, where the database, icons and PID file live.
func DataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(home, ".plexus"), nil
}

// Config is the resolved runtime configuration.
type Config struct {
	DBPath       string
	APIBaseURL   string
	APITimeout   time.Duration
	IconDir      string
	IconPreload  bool
	IconRate     float64
	SyncInterval time.Duration
	PruneRemote  bool
	ADBPath      string
	ADBSerial    string
	LogLevel     slog.Level

	v *viper.Viper
}

// Load resolves configuration from defaults, an optional config.yaml in dir
// and PLEXUS_* environment variables, in increasing order of precedence.
func Load(dir string) (*Config, error) {
	dataDir, err := DataDir()
	if err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetDefault("db_path", filepath.Join(dataDir, "plexus.db"))
	v.SetDefault("api.base_url", "https://plexus.techlore.tech/api/v1")
	v.SetDefault("api.timeout", "10s")
	v.SetDefault("icons.dir", filepath.Join(dataDir, "icons"))
	v.SetDefault("icons.preload", true)
	v.SetDefault("icons.rate", 8.0)
	v.SetDefault("sync.interval", "6h")
	v.SetDefault("sync.prune_remote", true)
	v.SetDefault("adb.path", "adb")
	v.SetDefault("adb.serial", "")
	v.SetDefault("log.level", "info")

	v.SetEnvPrefix("PLEXUS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if dir != "" {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(dir)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	cfg := &Config{
		DBPath:       v.GetString("db_path"),
		APIBaseURL:   v.GetString("api.base_url"),
		APITimeout:   v.GetDuration("api.timeout"),
		IconDir:      v.GetString("icons.dir"),
		IconPreload:  v.GetBool("icons.preload"),
		IconRate:     v.GetFloat64("icons.rate"),
		SyncInterval: v.GetDuration("sync.interval"),
		PruneRemote:  v.GetBool("sync.prune_remote"),
		ADBPath:      v.GetString("adb.path"),
		ADBSerial:    v.GetString("adb.serial"),
		LogLevel:     ParseLevel(v.GetString("log.level")),
		v:            v,
	}

	if cfg.DBPath == "" {
		return nil, fmt.Errorf("db_path must not be empty")
	}
	if cfg.APITimeout <= 0 {
		return nil, fmt.Errorf("api.timeout must be positive")
	}
	if cfg.IconRate <= 0 {
		return nil, fmt.Errorf("icons.rate must be positive")
	}
	if cfg.SyncInterval <= 0 {
		return nil, fmt.Errorf("sync.interval must be positive")
	}

	return cfg, nil
}

// ConfigFile returns the config file that was read, or "" if none was.
func (c *Config) ConfigFile() string {
	if c.v == nil {
		return ""
	}
	return c.v.ConfigFileUsed()
}

// EnsureDataDirs creates the parent directory of the database and the icon
// directory.
func (c *Config) EnsureDataDirs() error {
	if c.DBPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(c.DBPath), 0755); err != nil {
			return fmt.Errorf("failed to create data directory: %w", err)
		}
	}
	if err := os.MkdirAll(c.IconDir, 0755); err != nil {
		return fmt.Errorf("failed to create icon directory: %w", err)
	}
	return nil
}

// ParseLevel maps debug, info, warn|warning and error to slog levels.
// Anything else is info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
