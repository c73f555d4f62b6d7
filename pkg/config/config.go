// Package config loads rotalsp settings from a YAML file, ROTALSP_*
// environment variables and built-in defaults.
package config

import (
	"errors"
	"log/slog"
	"strings"
)

// Config is the top-level configuration struct.
// Field tags use mapstructure for viper unmarshalling.
type Config struct {
	Names      NamesConfig      `mapstructure:"names"`
	Catalog    CatalogConfig    `mapstructure:"catalog"`
	Validation ValidationConfig `mapstructure:"validation"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Telemetry  TelemetryConfig  `mapstructure:"telemetry"`
}

// NamesConfig configures the spell name dictionary.
type NamesConfig struct {
	Sources         []string `mapstructure:"sources"`
	Watch           bool     `mapstructure:"watch"`
	SimilarDistance int      `mapstructure:"similar_distance"`
	CacheSize       int      `mapstructure:"cache_size"`
	SearchLimit     int      `mapstructure:"search_limit"`
}

// CatalogConfig points at an optional expression catalog overlay.
type CatalogConfig struct {
	Path string `mapstructure:"path"`
}

// ValidationConfig tunes diagnostic messages.
type ValidationConfig struct {
	MaxSuggestions int `mapstructure:"max_suggestions"`
	MaxKnownHint   int `mapstructure:"max_known_hint"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

// TelemetryConfig holds OpenTelemetry settings.
type TelemetryConfig struct {
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	OTLPInsecure bool   `mapstructure:"otlp_insecure"`
	MetricsAddr  string `mapstructure:"metrics_addr"`
}

// Sentinel errors for configuration validation.
var (
	// ErrInvalidSimilarDistance indicates a non-positive suggestion distance.
	ErrInvalidSimilarDistance = errors.New("names.similar_distance must be positive")
	// ErrInvalidCacheSize indicates a non-positive memo cache size.
	ErrInvalidCacheSize = errors.New("names.cache_size must be positive")
	// ErrInvalidSearchLimit indicates a non-positive completion limit.
	ErrInvalidSearchLimit = errors.New("names.search_limit must be positive")
	// ErrInvalidMaxSuggestions indicates a negative suggestion count.
	ErrInvalidMaxSuggestions = errors.New("validation.max_suggestions must be positive")
	// ErrInvalidMaxKnownHint indicates a negative hint count.
	ErrInvalidMaxKnownHint = errors.New("validation.max_known_hint must be positive")
	// ErrInvalidLogLevel indicates an unknown logging level.
	ErrInvalidLogLevel = errors.New("logging.level must be one of debug, info, warn, error")
)

// Validate checks Config invariants and returns the first error found.
func (c *Config) Validate() error {
	switch {
	case c.Names.SimilarDistance <= 0:
		return ErrInvalidSimilarDistance
	case c.Names.CacheSize <= 0:
		return ErrInvalidCacheSize
	case c.Names.SearchLimit <= 0:
		return ErrInvalidSearchLimit
	case c.Validation.MaxSuggestions <= 0:
		return ErrInvalidMaxSuggestions
	case c.Validation.MaxKnownHint <= 0:
		return ErrInvalidMaxKnownHint
	}

	_, err := ParseLevel(c.Logging.Level)

	return err
}

// LogLevel returns the configured slog level.
func (c *Config) LogLevel() slog.Level {
	level, err := ParseLevel(c.Logging.Level)
	if err != nil {
		return slog.LevelInfo
	}

	return level
}

// ParseLevel maps a level name to slog.Level.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, ErrInvalidLogLevel
	}
}
