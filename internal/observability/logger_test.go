package observability

import (
	"testing"

	"github.com/fulmenhq/gofulmen/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeLevel(t *testing.T) {
	cases := map[string]string{
		"debug":    "DEBUG",
		" WARNING": "WARN",
		"Error":    "ERROR",
		"trace":    "TRACE",
		"":         "INFO",
		"verbose":  "INFO",
	}
	for in, want := range cases {
		assert.Equal(t, want, normalizeLevel(in), in)
	}
}

func TestServerLoggerConfig(t *testing.T) {
	cfg := serverLoggerConfig("gridfeed", "warn")
	assert.Equal(t, logging.ProfileStructured, cfg.Profile)
	assert.Equal(t, "WARN", cfg.DefaultLevel)
	assert.Equal(t, "gridfeed", cfg.Service)
	require.Len(t, cfg.Sinks, 1)
	assert.Equal(t, "json", cfg.Sinks[0].Format)
	assert.Equal(t, "stderr", cfg.Sinks[0].Console.Stream)

	InitServerLogger("gridfeed", "debug")
	require.NotNil(t, ServerLogger)
}
