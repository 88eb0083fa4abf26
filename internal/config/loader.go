// Package config provides centralized configuration management for gridfeed.
// Layers, lowest precedence first:
// Layer 1: built-in defaults
// Layer 2: user config file ($XDG_CONFIG_HOME/gridfeed/config.yaml or --config)
// Layer 3: environment variables (GRIDFEED_*, plus DB_* for the database)
// Layer 4: runtime overrides from command flags
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	gfconfig "github.com/fulmenhq/gofulmen/config"
	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	// AppName names the XDG directories and the binary.
	AppName = "gridfeed"
	// EnvPrefix is prepended to every environment variable.
	EnvPrefix = "GRIDFEED_"
)

// Store drivers.
const (
	DriverLibsql   = "libsql"
	DriverPostgres = "postgres"
)

var (
	// appConfig holds the current application configuration
	appConfig *Config
	configMu  sync.RWMutex
)

// EnvVarSpec defines environment variable mappings for config fields
// following the pattern: {PREFIX}{NAME} maps to config path
type EnvVarSpec = gfconfig.EnvVarSpec

// Environment variable types
const (
	EnvString = gfconfig.EnvString
	EnvInt    = gfconfig.EnvInt
	EnvBool   = gfconfig.EnvBool
)

// Options selects optional inputs for Load.
type Options struct {
	// ConfigFile overrides config file discovery.
	ConfigFile string
	// EnvFiles are dotenv files loaded before the environment is read.
	// Missing files are ignored. Defaults to ".env".
	EnvFiles []string
}

// Load builds the configuration from every layer, validates it and makes it
// the current configuration. Safe to call repeatedly.
func Load(ctx context.Context, opts Options, runtimeOverrides ...map[string]any) (*Config, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	loadDotEnv(opts.EnvFiles)

	v := viper.New()
	SetDefaults(v)

	configFile, err := resolveConfigFile(opts.ConfigFile)
	if err != nil {
		return nil, err
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	envOverrides, err := gfconfig.LoadEnvOverrides(getEnvSpecs())
	if err != nil {
		return nil, fmt.Errorf("failed to load environment overrides: %w", err)
	}
	if err := v.MergeConfigMap(envOverrides); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	for _, overrides := range runtimeOverrides {
		if len(overrides) == 0 {
			continue
		}
		if err := v.MergeConfigMap(overrides); err != nil {
			return nil, fmt.Errorf("failed to apply runtime overrides: %w", err)
		}
	}

	cfg, err := Decode(v.AllSettings())
	if err != nil {
		return nil, err
	}
	applyDirectoryDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	setConfig(cfg)
	return cfg, nil
}

// Decode converts a settings map into a typed Config.
func Decode(settings map[string]any) (*Config, error) {
	cfg := &Config{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}

	if err := decoder.Decode(settings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}

// SetDefaults registers the built-in defaults.
func SetDefaults(v *viper.Viper) {
	// Provider defaults
	v.SetDefault("provider.base_url", "https://api.jolpi.ca/ergast/f1")
	v.SetDefault("provider.cache_dir", "")
	v.SetDefault("provider.session_type", "R")
	v.SetDefault("provider.timeout", "2m")
	v.SetDefault("provider.cache_ttl", "1h")
	v.SetDefault("provider.past_season_cache_ttl", "720h")

	// Rate limit defaults
	v.SetDefault("rate_limit.min_delay", "1s")
	v.SetDefault("rate_limit.max_delay", "30s")

	// Store defaults
	v.SetDefault("store.driver", DriverLibsql)
	v.SetDefault("store.path", "")
	v.SetDefault("store.url", "")
	v.SetDefault("store.auth_token", "")
	v.SetDefault("store.host", "localhost")
	v.SetDefault("store.port", 5432)
	v.SetDefault("store.user", "")
	v.SetDefault("store.password", "")
	v.SetDefault("store.name", AppName)
	v.SetDefault("store.sslmode", "disable")
	v.SetDefault("store.max_open", 15)
	v.SetDefault("store.max_idle", 5)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.error_log", "")

	// Metrics defaults
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.port", 9090)

	// Server defaults
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8080)

	// Worker defaults
	v.SetDefault("workers", 1)
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.RateLimit.MinDelay <= 0 {
		return fmt.Errorf("rate_limit.min_delay must be positive, got %s", c.RateLimit.MinDelay)
	}
	if c.RateLimit.MaxDelay < c.RateLimit.MinDelay {
		return fmt.Errorf("rate_limit.max_delay (%s) must not be below rate_limit.min_delay (%s)",
			c.RateLimit.MaxDelay, c.RateLimit.MinDelay)
	}
	if c.Provider.Timeout <= 0 {
		return fmt.Errorf("provider.timeout must be positive, got %s", c.Provider.Timeout)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}

	switch strings.TrimSpace(c.Store.Driver) {
	case DriverLibsql:
		if strings.TrimSpace(c.Store.Path) == "" && strings.TrimSpace(c.Store.URL) == "" {
			return errors.New("store.path or store.url is required for libsql")
		}
	case DriverPostgres:
		if strings.TrimSpace(c.Store.URL) != "" {
			return nil
		}
		var missing []string
		for _, field := range []struct{ name, value string }{
			{"store.host", c.Store.Host},
			{"store.user", c.Store.User},
			{"store.name", c.Store.Name},
		} {
			if strings.TrimSpace(field.value) == "" {
				missing = append(missing, field.name)
			}
		}
		if len(missing) > 0 {
			return fmt.Errorf("postgres store requires %s", strings.Join(missing, ", "))
		}
	default:
		return fmt.Errorf("unsupported store.driver %q (want %s or %s)", c.Store.Driver, DriverLibsql, DriverPostgres)
	}
	return nil
}

// GetConfig returns the current application configuration (thread-safe)
func GetConfig() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return appConfig
}

// setConfig updates the current configuration (thread-safe)
func setConfig(cfg *Config) {
	configMu.Lock()
	defer configMu.Unlock()
	appConfig = cfg
}

// getEnvSpecs returns environment variable specifications for config mapping.
// The DB_* names without prefix match the conventional database variables.
func getEnvSpecs() []EnvVarSpec {
	prefix := EnvPrefix
	return []EnvVarSpec{
		// Provider config
		{Name: prefix + "PROVIDER_BASE_URL", Path: []string{"provider", "base_url"}, Type: EnvString},
		{Name: prefix + "CACHE_DIR", Path: []string{"provider", "cache_dir"}, Type: EnvString},
		// Duration fields are parsed as strings and converted by mapstructure decode hook
		{Name: prefix + "PROVIDER_TIMEOUT", Path: []string{"provider", "timeout"}, Type: EnvString},

		// Rate limit config
		{Name: prefix + "RATE_LIMIT_MIN_DELAY", Path: []string{"rate_limit", "min_delay"}, Type: EnvString},
		{Name: prefix + "RATE_LIMIT_MAX_DELAY", Path: []string{"rate_limit", "max_delay"}, Type: EnvString},

		// Logging config
		{Name: prefix + "LOG_LEVEL", Path: []string{"logging", "level"}, Type: EnvString},
		{Name: prefix + "ERROR_LOG", Path: []string{"logging", "error_log"}, Type: EnvString},

		// Store config
		{Name: prefix + "DB_DRIVER", Path: []string{"store", "driver"}, Type: EnvString},
		{Name: prefix + "DB_PATH", Path: []string{"store", "path"}, Type: EnvString},
		{Name: prefix + "DB_URL", Path: []string{"store", "url"}, Type: EnvString},
		{Name: prefix + "DB_AUTH_TOKEN", Path: []string{"store", "auth_token"}, Type: EnvString},
		{Name: "DB_HOST", Path: []string{"store", "host"}, Type: EnvString},
		{Name: "DB_PORT", Path: []string{"store", "port"}, Type: EnvInt},
		{Name: "DB_USER", Path: []string{"store", "user"}, Type: EnvString},
		{Name: "DB_PASSWORD", Path: []string{"store", "password"}, Type: EnvString},
		{Name: "DB_NAME", Path: []string{"store", "name"}, Type: EnvString},

		// Metrics config
		{Name: prefix + "METRICS_ENABLED", Path: []string{"metrics", "enabled"}, Type: EnvBool},
		{Name: prefix + "METRICS_PORT", Path: []string{"metrics", "port"}, Type: EnvInt},

		// Server config
		{Name: prefix + "SERVER_HOST", Path: []string{"server", "host"}, Type: EnvString},
		{Name: prefix + "SERVER_PORT", Path: []string{"server", "port"}, Type: EnvInt},

		// Workers
		{Name: prefix + "WORKERS", Path: []string{"workers"}, Type: EnvInt},
	}
}

func loadDotEnv(files []string) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		if _, err := os.Stat(file); err != nil {
			continue
		}
		// Existing environment variables win over dotenv values.
		_ = godotenv.Load(file)
	}
}

func resolveConfigFile(explicit string) (string, error) {
	if explicit = strings.TrimSpace(explicit); explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file %s: %w", explicit, err)
		}
		return explicit, nil
	}
	path := DefaultConfigPath()
	if path == "" {
		return "", nil
	}
	if _, err := os.Stat(path); err != nil {
		return "", nil
	}
	return path, nil
}

func applyDirectoryDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.Provider.CacheDir) == "" {
		cfg.Provider.CacheDir = DefaultCacheDir()
	}
	if cfg.Store.Driver == DriverLibsql &&
		strings.TrimSpace(cfg.Store.URL) == "" && strings.TrimSpace(cfg.Store.Path) == "" {
		cfg.Store.Path = DefaultStorePath()
	}
}

// DefaultConfigPath returns the XDG-compliant path to the user config file.
func DefaultConfigPath() string {
	configDir := gfconfig.GetAppConfigDir(AppName)
	if strings.TrimSpace(configDir) == "" {
		return ""
	}
	return filepath.Join(configDir, "config.yaml")
}

// DefaultDataDir returns the XDG-compliant data directory for the app.
func DefaultDataDir() string {
	return gfconfig.GetAppDataDir(AppName)
}

// DefaultCacheDir returns the XDG-compliant cache directory for provider
// responses.
func DefaultCacheDir() string {
	cacheDir := gfconfig.GetAppCacheDir(AppName)
	if strings.TrimSpace(cacheDir) == "" {
		return filepath.Join(".", "cache")
	}
	return filepath.Join(cacheDir, "responses")
}

// DefaultStorePath returns the XDG-compliant path to the database file.
func DefaultStorePath() string {
	dataDir := DefaultDataDir()
	if strings.TrimSpace(dataDir) == "" {
		return "./" + AppName + ".db"
	}
	return filepath.Join(dataDir, AppName+".db")
}

// DefaultErrorLogPath returns the rotating error log location.
func DefaultErrorLogPath() string {
	dataDir := DefaultDataDir()
	if strings.TrimSpace(dataDir) == "" {
		return filepath.Join("logs", "errors.log")
	}
	return filepath.Join(dataDir, "logs", "errors.log")
}
