// Package logging carries a zap sugared logger through context.
package logging

import (
	"context"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type contextKey string

const loggerKey = contextKey("logger")

var (
	defaultLogger     *zap.SugaredLogger
	defaultLoggerOnce sync.Once
)

// NewLogger builds a logger from the LOG_LEVEL and LOG_MODE environment
// variables. LOG_MODE=production switches to the JSON encoder.
func NewLogger() *zap.SugaredLogger {
	config := zap.NewDevelopmentConfig()
	if strings.EqualFold(os.Getenv("LOG_MODE"), "production") {
		config = zap.NewProductionConfig()
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		var l zapcore.Level
		if err := l.Set(strings.ToLower(level)); err == nil {
			config.Level = zap.NewAtomicLevelAt(l)
		}
	}
	logger, err := config.Build()
	if err != nil {
		logger = zap.NewNop()
	}
	return logger.Sugar()
}

// DefaultLogger returns the process-wide fallback logger.
func DefaultLogger() *zap.SugaredLogger {
	defaultLoggerOnce.Do(func() {
		defaultLogger = NewLogger()
	})
	return defaultLogger
}

// WithLogger stores the logger in the context.
func WithLogger(ctx context.Context, logger *zap.SugaredLogger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext returns the logger stored in the context, falling back to the
// default logger.
func FromContext(ctx context.Context) *zap.SugaredLogger {
	if logger, ok := ctx.Value(loggerKey).(*zap.SugaredLogger); ok {
		return logger
	}
	return DefaultLogger()
}
