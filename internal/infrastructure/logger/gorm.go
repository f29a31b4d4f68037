package logger

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

// GormLogger adapts zap to GORM's logger interface. Queries carrying
// a request ID in their context are logged with it, so SQL can be
// traced back to the HTTP request that issued it.
type GormLogger struct {
	zl            *zap.Logger
	level         gormlogger.LogLevel
	slowThreshold time.Duration
	skipNotFound  bool
}

// GormLoggerOption configures a GormLogger.
type GormLoggerOption func(*GormLogger)

// WithSlowThreshold overrides the default 200ms slow query threshold.
func WithSlowThreshold(d time.Duration) GormLoggerOption {
	return func(g *GormLogger) {
		g.slowThreshold = d
	}
}

// NewGormLogger creates a GORM logger backed by zap.
func NewGormLogger(zl *zap.Logger, level gormlogger.LogLevel, opts ...GormLoggerOption) *GormLogger {
	g := &GormLogger{
		zl:            zl.Named("gorm"),
		level:         level,
		slowThreshold: 200 * time.Millisecond,
		skipNotFound:  true,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// LogMode implements gormlogger.Interface.
func (g *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *g
	clone.level = level
	return &clone
}

// Info implements gormlogger.Interface.
func (g *GormLogger) Info(ctx context.Context, format string, args ...any) {
	if g.level >= gormlogger.Info {
		g.zl.Sugar().Infof(format, args...)
	}
}

// Warn implements gormlogger.Interface.
func (g *GormLogger) Warn(ctx context.Context, format string, args ...any) {
	if g.level >= gormlogger.Warn {
		g.zl.Sugar().Warnf(format, args...)
	}
}

// Error implements gormlogger.Interface.
func (g *GormLogger) Error(ctx context.Context, format string, args ...any) {
	if g.level >= gormlogger.Error {
		g.zl.Sugar().Errorf(format, args...)
	}
}

// Trace implements gormlogger.Interface and logs each SQL statement.
func (g *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if g.level <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()

	fields := []zap.Field{
		zap.Duration("elapsed", elapsed),
		zap.Int64("rows", rows),
		zap.String("sql", sql),
	}
	if id := RequestIDFromContext(ctx); id != "" {
		fields = append(fields, zap.String("request_id", id))
	}

	switch {
	case err != nil && g.level >= gormlogger.Error:
		if g.skipNotFound && errors.Is(err, gormlogger.ErrRecordNotFound) {
			return
		}
		g.zl.Error("query failed", append(fields, zap.Error(err))...)

	case g.slowThreshold > 0 && elapsed >= g.slowThreshold && g.level >= gormlogger.Warn:
		g.zl.Warn("slow query", append(fields, zap.Duration("threshold", g.slowThreshold))...)

	case g.level >= gormlogger.Info:
		g.zl.Debug("query", fields...)
	}
}

// MapGormLogLevel converts the service log level into the closest
// GORM log level.
func MapGormLogLevel(level string) gormlogger.LogLevel {
	switch level {
	case "silent":
		return gormlogger.Silent
	case "error":
		return gormlogger.Error
	case "warn":
		return gormlogger.Warn
	case "info", "debug":
		return gormlogger.Info
	default:
		return gormlogger.Warn
	}
}
