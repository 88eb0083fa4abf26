package observability

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/fulmenhq/gofulmen/logging"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	// CLILogger writes human-readable progress for CLI commands.
	CLILogger *logging.Logger

	// ErrorLogger is the error channel: ERROR and above, written to stderr
	// and to a rotating JSON file when one is configured.
	ErrorLogger *zap.Logger

	// ServerLogger writes JSON lines for the status API.
	ServerLogger *logging.Logger
)

// InitCLILogger sets CLILogger; verbose lowers the level to DEBUG.
func InitCLILogger(serviceName string, verbose bool) {
	logger, err := logging.NewCLI(serviceName)
	if err != nil {
		exitWithCodeStderr(foundry.ExitConfigInvalid, "Failed to initialize CLI logger", err)
	}
	if verbose {
		logger.SetLevel(logging.DEBUG)
	}
	CLILogger = logger
}

// InitServerLogger sets ServerLogger at the configured level.
func InitServerLogger(serviceName string, logLevel string) {
	logger, err := logging.New(serverLoggerConfig(serviceName, logLevel))
	if err != nil {
		exitWithCodeStderr(foundry.ExitConfigInvalid, "Failed to initialize server logger", err)
	}
	ServerLogger = logger
}

// serverLoggerConfig is the structured profile with request correlation and
// caller info, JSON on stderr.
func serverLoggerConfig(serviceName, logLevel string) *logging.LoggerConfig {
	return &logging.LoggerConfig{
		Profile:      logging.ProfileStructured,
		DefaultLevel: normalizeLevel(logLevel),
		Service:      serviceName,
		Environment:  "production",
		EnableCaller: true,
		Middleware: []logging.MiddlewareConfig{
			{Name: "correlation", Enabled: true, Order: 100, Config: map[string]any{}},
		},
		Sinks: []logging.SinkConfig{
			{Type: "console", Format: "json", Console: &logging.ConsoleSinkConfig{Stream: "stderr"}},
		},
	}
}

var levelNames = map[string]string{
	"trace":   "TRACE",
	"debug":   "DEBUG",
	"info":    "INFO",
	"warn":    "WARN",
	"warning": "WARN",
	"error":   "ERROR",
}

// normalizeLevel maps config spellings to logging levels; unknown values
// become INFO.
func normalizeLevel(level string) string {
	if name, ok := levelNames[strings.ToLower(strings.TrimSpace(level))]; ok {
		return name
	}
	return "INFO"
}

// ErrorLogOptions configures the rotating error log file.
type ErrorLogOptions struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// InitErrorLogger builds ErrorLogger. An empty path keeps only the stderr
// sink. The returned function flushes and closes the file sink.
func InitErrorLogger(serviceName string, opts ErrorLogOptions) (func() error, error) {
	logger, closer, err := NewErrorLogger(serviceName, opts, zapcore.Lock(os.Stderr))
	if err != nil {
		return nil, err
	}
	ErrorLogger = logger
	return closer, nil
}

// NewErrorLogger builds an error-channel logger writing to console and, when
// opts.Path is set, to a rotating file.
func NewErrorLogger(serviceName string, opts ErrorLogOptions, console zapcore.WriteSyncer) (*zap.Logger, func() error, error) {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "timestamp"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	level := zap.NewAtomicLevelAt(zapcore.ErrorLevel)
	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(encoderCfg), console, level),
	}

	closer := func() error { return nil }
	if path := strings.TrimSpace(opts.Path); path != "" {
		// #nosec G301 -- log directories use 0755 like the data directory
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, nil, fmt.Errorf("create error log directory: %w", err)
		}
		rotating := &lumberjack.Logger{
			Filename:   path,
			MaxSize:    withDefault(opts.MaxSizeMB, 10),
			MaxBackups: withDefault(opts.MaxBackups, 5),
			MaxAge:     withDefault(opts.MaxAgeDays, 28),
			Compress:   true,
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), zapcore.AddSync(rotating), level))
		closer = rotating.Close
	}

	logger := zap.New(zapcore.NewTee(cores...)).With(zap.String("service", serviceName))
	return logger, func() error {
		_ = logger.Sync()
		return closer()
	}, nil
}

func withDefault(value, fallback int) int {
	if value > 0 {
		return value
	}
	return fallback
}

// exitWithCodeStderr reports a logger setup failure on stderr and exits.
// It cannot use the loggers it failed to build.
func exitWithCodeStderr(exitCode foundry.ExitCode, msg string, err error) {
	if err != nil {
		msg = fmt.Sprintf("%s: %v", msg, err)
	}
	fmt.Fprintf(os.Stderr, "FATAL: %s\n", msg)

	code := int(exitCode)
	if info, ok := foundry.GetExitCodeInfo(exitCode); ok {
		fmt.Fprintf(os.Stderr, "Exit Code: %d (%s) - %s\n", info.Code, info.Name, info.Description)
		code = info.Code
	}
	os.Exit(code)
}
