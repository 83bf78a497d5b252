// Package config loads server and CLI settings from flags, DISCUSS_*
// environment variables and an optional config file through viper.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/viper"
)

const EnvPrefix = "DISCUSS"

var (
	ErrDatabaseRequired    = errors.New("database path is required")
	ErrInvalidLogLevel     = errors.New("invalid log level")
	ErrInvalidSearchConfig = errors.New("invalid search setting")
)

type Config struct {
	Database   string         `mapstructure:"database"`
	Port       string         `mapstructure:"port"`
	LogLevel   string         `mapstructure:"log_level"`
	APIKey     string         `mapstructure:"api_key"`
	APIKeyHash string         `mapstructure:"api_key_hash"`
	ServerURL  string         `mapstructure:"server_url"`
	Mentions   MentionsConfig `mapstructure:"mentions"`
	Search     SearchConfig   `mapstructure:"search"`
}

// MentionsConfig sizes the mention worker. A zero PoolSize keeps the worker
// default.
type MentionsConfig struct {
	PoolSize  int `mapstructure:"pool_size"`
	QueueSize int `mapstructure:"queue_size"`
}

// SearchConfig tunes the search engine. Zero DefaultPerPage or MaxEdits keep
// the engine defaults; zero RatePerMinute turns the search rate limit off.
type SearchConfig struct {
	DefaultPerPage   int `mapstructure:"default_per_page"`
	MaxEdits         int `mapstructure:"max_edits"`
	SuggestScanLimit int `mapstructure:"suggest_scan_limit"`
	RatePerMinute    int `mapstructure:"rate_per_minute"`
}

// SetDefaults registers every key so environment overrides apply to them.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("database", "discuss.db")
	v.SetDefault("port", "8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("api_key", "")
	v.SetDefault("api_key_hash", "")
	v.SetDefault("server_url", "http://localhost:8080")
	v.SetDefault("mentions.pool_size", 0)
	v.SetDefault("mentions.queue_size", 1024)
	v.SetDefault("search.default_per_page", 20)
	v.SetDefault("search.max_edits", 2)
	v.SetDefault("search.suggest_scan_limit", 0)
	v.SetDefault("search.rate_per_minute", 0)
}

// Load reads configFile when given and resolves the settings in v.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %q: %w", configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Database) == "" {
		return ErrDatabaseRequired
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	s := c.Search
	switch {
	case s.DefaultPerPage < 0:
		return fmt.Errorf("%w: search.default_per_page %d", ErrInvalidSearchConfig, s.DefaultPerPage)
	case s.MaxEdits < 0:
		return fmt.Errorf("%w: search.max_edits %d", ErrInvalidSearchConfig, s.MaxEdits)
	case s.SuggestScanLimit < 0:
		return fmt.Errorf("%w: search.suggest_scan_limit %d", ErrInvalidSearchConfig, s.SuggestScanLimit)
	case s.RatePerMinute < 0:
		return fmt.Errorf("%w: search.rate_per_minute %d", ErrInvalidSearchConfig, s.RatePerMinute)
	}
	return nil
}

// SlogLevel returns the configured level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	level, err := ParseLogLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}

func ParseLogLevel(raw string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("%w: %q", ErrInvalidLogLevel, raw)
	}
}
