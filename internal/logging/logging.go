// Package logging builds the zap logger and context-aware log helpers.
package logging

import (
	"context"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/example/mes/internal/ctxutil"
)

// Config selects the logger flavour and level.
type Config struct {
	Level string
	Env   string
}

// New builds a development logger unless Env is "prod".
func New(cfg Config) (*zap.Logger, error) {
	var zapCfg zap.Config

	if cfg.Env == "prod" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	levelText := cfg.Level
	if levelText == "" {
		levelText = "info"
	}
	level, err := zapcore.ParseLevel(levelText)
	if err != nil {
		return nil, err
	}

	zapCfg.Level = zap.NewAtomicLevelAt(level)
	// Keep stdout for command output.
	zapCfg.OutputPaths = []string{"stderr"}

	return zapCfg.Build()
}

// withContext appends the operator and work center carried by ctx.
func withContext(ctx context.Context, fields []zap.Field) []zap.Field {
	station, ok := ctxutil.StationFromContext(ctx)
	if !ok {
		return fields
	}
	if station.OperatorID != "" {
		fields = append(fields, zap.String("operator_id", station.OperatorID))
	}
	if station.WorkCenterID != "" {
		fields = append(fields, zap.String("work_center_id", station.WorkCenterID))
	}
	return fields
}

// Info logs msg at info level with the station from ctx.
func Info(ctx context.Context, logger *zap.Logger, msg string, fields ...zap.Field) {
	logger.WithOptions(zap.AddCallerSkip(1)).Info(msg, withContext(ctx, fields)...)
}

// Error logs msg at error level with the station from ctx.
func Error(ctx context.Context, logger *zap.Logger, msg string, fields ...zap.Field) {
	logger.WithOptions(zap.AddCallerSkip(1)).Error(msg, withContext(ctx, fields)...)
}

// Warn logs msg at warn level with the station from ctx.
func Warn(ctx context.Context, logger *zap.Logger, msg string, fields ...zap.Field) {
	logger.WithOptions(zap.AddCallerSkip(1)).Warn(msg, withContext(ctx, fields)...)
}

// Debug logs msg at debug level with the station from ctx.
func Debug(ctx context.Context, logger *zap.Logger, msg string, fields ...zap.Field) {
	logger.WithOptions(zap.AddCallerSkip(1)).Debug(msg, withContext(ctx, fields)...)
}
