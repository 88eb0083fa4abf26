package config

import (
	"time"
)

// Config represents the complete application configuration. Values are
// layered: built-in defaults, then the user config file, then environment
// variables, then runtime overrides from command flags.
type Config struct {
	Provider  ProviderConfig  `mapstructure:"provider"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Store     StoreConfig     `mapstructure:"store"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Server    ServerConfig    `mapstructure:"server"`
	Workers   int             `mapstructure:"workers"`
}

// ProviderConfig contains upstream API settings.
type ProviderConfig struct {
	BaseURL     string `mapstructure:"base_url"`
	CacheDir    string `mapstructure:"cache_dir"`
	SessionType string `mapstructure:"session_type"`

	// Timeout bounds one session fetch including all of its pages.
	Timeout time.Duration `mapstructure:"timeout"`

	// CacheTTL applies to responses for the current season; completed
	// seasons use PastSeasonCacheTTL.
	CacheTTL           time.Duration `mapstructure:"cache_ttl"`
	PastSeasonCacheTTL time.Duration `mapstructure:"past_season_cache_ttl"`
}

// RateLimitConfig bounds the adaptive delay between provider calls.
type RateLimitConfig struct {
	MinDelay time.Duration `mapstructure:"min_delay"`
	MaxDelay time.Duration `mapstructure:"max_delay"`
}

// StoreConfig contains database configuration. The libsql driver uses Path or
// URL; the postgres driver uses the host fields.
type StoreConfig struct {
	Driver    string `mapstructure:"driver"`
	Path      string `mapstructure:"path"`
	URL       string `mapstructure:"url"`
	AuthToken string `mapstructure:"auth_token"`

	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`

	MaxOpen int `mapstructure:"max_open"`
	MaxIdle int `mapstructure:"max_idle"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	// Level controls the minimum log level
	// Valid values: trace, debug, info, warn, error
	Level string `mapstructure:"level"`

	// ErrorLog is the rotating file receiving the error channel. Empty
	// disables the file sink; errors still reach stderr.
	ErrorLog string `mapstructure:"error_log"`
}

// MetricsConfig contains Prometheus metrics configuration
type MetricsConfig struct {
	// Enabled controls whether metrics are exposed
	Enabled bool `mapstructure:"enabled"`

	// Port is the dedicated metrics endpoint port (Prometheus format)
	Port int `mapstructure:"port"`
}

// ServerConfig contains the status API listener settings
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}
