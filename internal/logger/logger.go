// Package logger builds the structured zap logger shared by every
// component. JSON output, ISO8601 timestamps, service name embedded.
package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Init creates the root logger for the given service at the configured
// level ("debug", "info", "warn", "error"). Components derive named
// children via Named; symbol-scoped loggers add a symbol field.
func Init(service, level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("logger: parse level %q: %w", level, err)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	log, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("logger: build: %w", err)
	}
	return log.With(zap.String("service", service)), nil
}
