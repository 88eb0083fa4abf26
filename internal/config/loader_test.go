package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	gfconfig "github.com/fulmenhq/gofulmen/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points every XDG directory and the working directory at temp dirs
// so no user config or dotenv file leaks into the test.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	t.Chdir(t.TempDir())
}

func TestLoad(t *testing.T) {
	ctx := context.Background()

	t.Run("LoadDefaults", func(t *testing.T) {
		isolate(t)

		cfg, err := Load(ctx, Options{})
		require.NoError(t, err)
		require.NotNil(t, cfg)

		// Provider defaults
		assert.Equal(t, "https://api.jolpi.ca/ergast/f1", cfg.Provider.BaseURL)
		assert.Equal(t, "R", cfg.Provider.SessionType)
		assert.Equal(t, 2*time.Minute, cfg.Provider.Timeout)
		assert.Equal(t, filepath.Join(gfconfig.GetAppCacheDir(AppName), "responses"), cfg.Provider.CacheDir)

		// Rate limit defaults
		assert.Equal(t, time.Second, cfg.RateLimit.MinDelay)
		assert.Equal(t, 30*time.Second, cfg.RateLimit.MaxDelay)

		// Store defaults
		assert.Equal(t, "libsql", cfg.Store.Driver)
		assert.Equal(t, filepath.Join(gfconfig.GetAppDataDir(AppName), "gridfeed.db"), cfg.Store.Path)
		assert.Equal(t, 15, cfg.Store.MaxOpen)
		assert.Equal(t, 5, cfg.Store.MaxIdle)

		// Logging, metrics, workers
		assert.Equal(t, "info", cfg.Logging.Level)
		assert.False(t, cfg.Metrics.Enabled)
		assert.Equal(t, 9090, cfg.Metrics.Port)
		assert.Equal(t, "127.0.0.1", cfg.Server.Host)
		assert.Equal(t, 8080, cfg.Server.Port)
		assert.Equal(t, 1, cfg.Workers)
	})

	t.Run("RuntimeOverrides", func(t *testing.T) {
		isolate(t)

		overrides := map[string]any{
			"rate_limit": map[string]any{"min_delay": "2s", "max_delay": "10s"},
			"workers":    3,
		}

		cfg, err := Load(ctx, Options{}, overrides)
		require.NoError(t, err)
		assert.Equal(t, 2*time.Second, cfg.RateLimit.MinDelay)
		assert.Equal(t, 10*time.Second, cfg.RateLimit.MaxDelay)
		assert.Equal(t, 3, cfg.Workers)
		assert.Equal(t, 2*time.Minute, cfg.Provider.Timeout)
	})

	t.Run("EnvOverrides", func(t *testing.T) {
		isolate(t)
		t.Setenv("GRIDFEED_LOG_LEVEL", "warn")
		t.Setenv("GRIDFEED_METRICS_ENABLED", "true")
		t.Setenv("GRIDFEED_RATE_LIMIT_MAX_DELAY", "45s")
		t.Setenv("GRIDFEED_PROVIDER_TIMEOUT", "30s")

		cfg, err := Load(ctx, Options{})
		require.NoError(t, err)
		assert.Equal(t, "warn", cfg.Logging.Level)
		assert.True(t, cfg.Metrics.Enabled)
		assert.Equal(t, 45*time.Second, cfg.RateLimit.MaxDelay)
		assert.Equal(t, 30*time.Second, cfg.Provider.Timeout)
	})

	t.Run("PostgresFromDBEnv", func(t *testing.T) {
		isolate(t)
		t.Setenv("GRIDFEED_DB_DRIVER", "postgres")
		t.Setenv("DB_HOST", "db.internal")
		t.Setenv("DB_PORT", "6543")
		t.Setenv("DB_USER", "feeder")
		t.Setenv("DB_PASSWORD", "secret")
		t.Setenv("DB_NAME", "f1")

		cfg, err := Load(ctx, Options{})
		require.NoError(t, err)
		assert.Equal(t, "postgres", cfg.Store.Driver)
		assert.Equal(t, "db.internal", cfg.Store.Host)
		assert.Equal(t, 6543, cfg.Store.Port)
		assert.Equal(t, "feeder", cfg.Store.User)
		assert.Equal(t, "f1", cfg.Store.Name)
		assert.Empty(t, cfg.Store.Path)
	})

	t.Run("DotEnvFile", func(t *testing.T) {
		isolate(t)
		envFile := filepath.Join(t.TempDir(), "test.env")
		require.NoError(t, os.WriteFile(envFile, []byte("GRIDFEED_WORKERS=6\n"), 0o600))
		t.Cleanup(func() { _ = os.Unsetenv("GRIDFEED_WORKERS") })

		cfg, err := Load(ctx, Options{EnvFiles: []string{envFile}})
		require.NoError(t, err)
		assert.Equal(t, 6, cfg.Workers)
	})

	t.Run("ConfigFile", func(t *testing.T) {
		isolate(t)
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("rate_limit:\n  max_delay: 12s\nstore:\n  path: /tmp/x.db\n"), 0o600))
		t.Setenv("GRIDFEED_RATE_LIMIT_MAX_DELAY", "20s")

		cfg, err := Load(ctx, Options{ConfigFile: path})
		require.NoError(t, err)
		// env beats file
		assert.Equal(t, 20*time.Second, cfg.RateLimit.MaxDelay)
		assert.Equal(t, "/tmp/x.db", cfg.Store.Path)
	})

	t.Run("MissingConfigFile", func(t *testing.T) {
		isolate(t)
		_, err := Load(ctx, Options{ConfigFile: filepath.Join(t.TempDir(), "nope.yaml")})
		require.Error(t, err)
	})

	t.Run("ConfigPrecedence", func(t *testing.T) {
		isolate(t)
		t.Setenv("GRIDFEED_WORKERS", "4")

		cfg, err := Load(ctx, Options{}, map[string]any{"workers": 8})
		require.NoError(t, err)
		assert.Equal(t, 8, cfg.Workers)
	})
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Provider:  ProviderConfig{Timeout: time.Minute},
			RateLimit: RateLimitConfig{MinDelay: time.Second, MaxDelay: 30 * time.Second},
			Store:     StoreConfig{Driver: DriverLibsql, Path: ":memory:"},
			Workers:   1,
		}
	}
	require.NoError(t, valid().Validate())

	cfg := valid()
	cfg.RateLimit.MinDelay = 0
	require.Error(t, cfg.Validate())

	cfg = valid()
	cfg.RateLimit.MaxDelay = 500 * time.Millisecond
	require.Error(t, cfg.Validate())

	cfg = valid()
	cfg.Workers = 0
	require.Error(t, cfg.Validate())

	cfg = valid()
	cfg.Store = StoreConfig{Driver: DriverPostgres, Host: "h"}
	err := cfg.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "store.user, store.name")

	cfg = valid()
	cfg.Store = StoreConfig{Driver: "mysql"}
	require.Error(t, cfg.Validate())
}

func TestGetConfig(t *testing.T) {
	isolate(t)

	cfg, err := Load(context.Background(), Options{}, map[string]any{"workers": 2})
	require.NoError(t, err)

	retrieved := GetConfig()
	require.NotNil(t, retrieved)
	assert.Equal(t, cfg.Workers, retrieved.Workers)
}

func TestEnvSpecs(t *testing.T) {
	envVarNames := make(map[string]bool)
	for _, spec := range getEnvSpecs() {
		envVarNames[spec.Name] = true
	}

	assert.True(t, envVarNames["GRIDFEED_LOG_LEVEL"], "LOG_LEVEL env var must be mapped")
	assert.True(t, envVarNames["GRIDFEED_DB_PATH"], "DB_PATH env var must be mapped")
	assert.True(t, envVarNames["GRIDFEED_RATE_LIMIT_MIN_DELAY"])
	assert.True(t, envVarNames["DB_HOST"])
	assert.True(t, envVarNames["DB_PASSWORD"])
}
