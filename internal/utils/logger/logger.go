package logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	global *zap.SugaredLogger
	level  = zap.NewAtomicLevelAt(zapcore.InfoLevel)
)

// Init builds the console logger used by every package and makes it global.
func Init(lvl string) error {
	if err := SetLevel(lvl); err != nil {
		return err
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.Level = level
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.DisableStacktrace = true
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.DisableCaller = true

	z, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	SetLogger(z.Sugar())
	return nil
}

// SetLogger replaces the global logger, e.g. with zaptest/observer in tests.
func SetLogger(z *zap.SugaredLogger) { global = z }

// SetLevel changes the level of the logger created by Init.
func SetLevel(lvl string) error {
	if strings.TrimSpace(lvl) == "" {
		return nil
	}
	parsed, err := zapcore.ParseLevel(strings.ToLower(lvl))
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", lvl, err)
	}
	level.SetLevel(parsed)
	return nil
}

// Level reports the current level name.
func Level() string {
	return level.Level().String()
}

// Logger returns the global logger. Before Init it returns a no-op logger.
func Logger() *zap.SugaredLogger {
	if global == nil {
		return zap.NewNop().Sugar()
	}
	return global
}

// Sync flushes buffered log entries.
func Sync() {
	if global != nil {
		_ = global.Sync()
	}
}
