package logger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func newObservedGormLogger(level gormlogger.LogLevel, opts ...GormLoggerOption) (*GormLogger, *observer.ObservedLogs) {
	core, logs := observer.New(zap.DebugLevel)
	return NewGormLogger(zap.New(core), level, opts...), logs
}

func sqlResult(sql string, rows int64) func() (string, int64) {
	return func() (string, int64) {
		return sql, rows
	}
}

func TestGormLogger_TraceError(t *testing.T) {
	gl, logs := newObservedGormLogger(gormlogger.Error)

	gl.Trace(context.Background(), time.Now(), sqlResult("INSERT INTO sales_imports", 0), assert.AnError)

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "query failed", entries[0].Message)
	assert.Equal(t, "INSERT INTO sales_imports", entries[0].ContextMap()["sql"])
}

func TestGormLogger_TraceSkipsRecordNotFound(t *testing.T) {
	gl, logs := newObservedGormLogger(gormlogger.Error)

	gl.Trace(context.Background(), time.Now(), sqlResult("SELECT * FROM items", 0), gormlogger.ErrRecordNotFound)

	assert.Empty(t, logs.All())
}

func TestGormLogger_TraceSlowQuery(t *testing.T) {
	gl, logs := newObservedGormLogger(gormlogger.Warn, WithSlowThreshold(50*time.Millisecond))

	begin := time.Now().Add(-200 * time.Millisecond)
	gl.Trace(context.Background(), begin, sqlResult("SELECT * FROM stock_levels", 12), nil)

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, zap.WarnLevel, entries[0].Level)
	assert.Equal(t, "slow query", entries[0].Message)
}

func TestGormLogger_TraceDebugAtInfoLevel(t *testing.T) {
	gl, logs := newObservedGormLogger(gormlogger.Info)

	gl.Trace(context.Background(), time.Now(), sqlResult("SELECT * FROM warehouses", 3), nil)

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, zap.DebugLevel, entries[0].Level)
	assert.Equal(t, int64(3), entries[0].ContextMap()["rows"])
}

func TestGormLogger_TraceSilent(t *testing.T) {
	gl, logs := newObservedGormLogger(gormlogger.Silent)

	gl.Trace(context.Background(), time.Now(), sqlResult("SELECT 1", 1), assert.AnError)

	assert.Empty(t, logs.All())
}

func TestGormLogger_TraceCarriesRequestID(t *testing.T) {
	gl, logs := newObservedGormLogger(gormlogger.Info)

	ctx, _ := WithRequestID(context.Background(), zap.NewNop(), "req-17")
	gl.Trace(ctx, time.Now(), sqlResult("SELECT * FROM items", 1), nil)

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "req-17", entries[0].ContextMap()["request_id"])
}

func TestGormLogger_LogMode(t *testing.T) {
	gl, _ := newObservedGormLogger(gormlogger.Warn)

	quiet := gl.LogMode(gormlogger.Silent)

	require.IsType(t, &GormLogger{}, quiet)
	assert.Equal(t, gormlogger.Silent, quiet.(*GormLogger).level)
	assert.Equal(t, gormlogger.Warn, gl.level)
}

func TestGormLogger_LevelMethods(t *testing.T) {
	gl, logs := newObservedGormLogger(gormlogger.Warn)

	gl.Info(context.Background(), "ignored at warn level")
	gl.Warn(context.Background(), "connection pool at %d%%", 90)
	gl.Error(context.Background(), "migration failed")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "connection pool at 90%", entries[0].Message)
	assert.Equal(t, "migration failed", entries[1].Message)
}

func TestMapGormLogLevel(t *testing.T) {
	tests := []struct {
		level string
		want  gormlogger.LogLevel
	}{
		{"silent", gormlogger.Silent},
		{"error", gormlogger.Error},
		{"warn", gormlogger.Warn},
		{"info", gormlogger.Info},
		{"debug", gormlogger.Info},
		{"unknown", gormlogger.Warn},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			assert.Equal(t, tt.want, MapGormLogLevel(tt.level))
		})
	}
}
