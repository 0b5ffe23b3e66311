// Package logging provides the process-wide logging facade. All packages log
// through the package-level helpers so the backing logger can be swapped or
// reconfigured in one place.
package logging

import (
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu     sync.RWMutex
	logger *zap.SugaredLogger
)

func init() {
	logger = newLogger(zapcore.InfoLevel)
}

func newLogger(level zapcore.Level) *zap.SugaredLogger {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		// Fall back to a no-op logger rather than refusing to start.
		return zap.NewNop().Sugar()
	}
	return l.Sugar()
}

// Init reconfigures the global logger with the given level name
// (debug, info, warn, error). Unknown names default to info.
func Init(level string) {
	parsed := zapcore.InfoLevel
	switch strings.ToLower(level) {
	case "debug":
		parsed = zapcore.DebugLevel
	case "info":
		parsed = zapcore.InfoLevel
	case "warn", "warning":
		parsed = zapcore.WarnLevel
	case "error":
		parsed = zapcore.ErrorLevel
	}

	mu.Lock()
	logger = newLogger(parsed)
	mu.Unlock()
}

func get() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// Debugf logs a formatted message at debug level.
func Debugf(format string, args ...interface{}) {
	get().Debugf(format, args...)
}

// Infof logs a formatted message at info level.
func Infof(format string, args ...interface{}) {
	get().Infof(format, args...)
}

// Warnf logs a formatted message at warn level.
func Warnf(format string, args ...interface{}) {
	get().Warnf(format, args...)
}

// Errorf logs a formatted message at error level.
func Errorf(format string, args ...interface{}) {
	get().Errorf(format, args...)
}

// Fatalf logs a formatted message at fatal level, then exits.
func Fatalf(format string, args ...interface{}) {
	get().Fatalf(format, args...)
}

// Sync flushes any buffered log entries. Called on shutdown.
func Sync() {
	_ = get().Sync()
}
