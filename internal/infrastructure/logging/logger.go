package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/kidpech/asso_api/internal/config"
)

func encoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "timestamp"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg
}

// New builds the process logger. Development mode switches to the console
// encoder with stack traces on warnings; every entry carries app and version.
func New(app config.AppConfig) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if app.Env == "development" {
		zc = zap.NewDevelopmentConfig()
	}
	if app.LogLevel != "" {
		lvl, err := zapcore.ParseLevel(app.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("log level %q: %w", app.LogLevel, err)
		}
		zc.Level = zap.NewAtomicLevelAt(lvl)
	}
	if app.Env != "development" {
		zc.EncoderConfig = encoderConfig()
	}
	zc.OutputPaths = []string{"stdout"}
	zc.ErrorOutputPaths = []string{"stderr"}
	logger, err := zc.Build()
	if err != nil {
		return nil, err
	}
	if app.Name != "" {
		logger = logger.With(zap.String("app", app.Name))
	}
	if app.Version != "" {
		logger = logger.With(zap.String("version", app.Version))
	}
	return logger, nil
}

// WithRequestID attaches request context to logger.
func WithRequestID(logger *zap.Logger, requestID string) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger.With(zap.String("request_id", requestID))
}

// Component scopes a logger to a named subsystem (scheduler, cache, ...).
func Component(logger *zap.Logger, name string) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger.Named(name)
}

// Sync flushes logger.
func Sync(logger *zap.Logger) {
	if logger == nil {
		return
	}
	_ = logger.Sync()
}

// Tee duplicates entries at or above level into sink as JSON lines.
func Tee(logger *zap.Logger, sink zapcore.WriteSyncer, level zapcore.Level) *zap.Logger {
	if logger == nil || sink == nil {
		return logger
	}
	extra := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig()), sink, level)
	return logger.WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return zapcore.NewTee(core, extra)
	}))
}
