package telemetry

import (
	"context"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig holds configuration for database tracing.
type DBTracingConfig struct {
	Enabled          bool
	LogFullSQL       bool          // include query parameters in spans, dev only
	SlowQueryThresh  time.Duration // queries above this get a slow_query event
	DBSystem         string
	WithoutVariables bool
}

// DefaultDBTracingConfig returns the default database tracing
// configuration. Query parameters stay out of spans unless LogFullSQL
// is turned on explicitly.
func DefaultDBTracingConfig() DBTracingConfig {
	return DBTracingConfig{
		Enabled:          false,
		LogFullSQL:       false,
		SlowQueryThresh:  200 * time.Millisecond,
		DBSystem:         "postgresql",
		WithoutVariables: true,
	}
}

// DBTracingPlugin registers otelgorm spans for every query plus a
// callback that annotates them with row counts, errors and slow query
// events.
type DBTracingPlugin struct {
	cfg DBTracingConfig
	log *zap.Logger
}

// NewDBTracingPlugin creates a database tracing plugin.
func NewDBTracingPlugin(cfg DBTracingConfig, log *zap.Logger) *DBTracingPlugin {
	return &DBTracingPlugin{cfg: cfg, log: log}
}

type queryStartCtxKey struct{}

// RegisterOtelGorm attaches otelgorm and the annotation callbacks to
// the GORM DB. A no-op when tracing is disabled.
func (p *DBTracingPlugin) RegisterOtelGorm(db *gorm.DB) error {
	if !p.cfg.Enabled {
		p.log.Debug("Database tracing disabled")
		return nil
	}

	opts := []otelgorm.Option{otelgorm.WithDBName(p.cfg.DBSystem)}
	if !p.cfg.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	markStart := func(db *gorm.DB) {
		if db.Statement.Context != nil {
			db.Statement.Context = context.WithValue(db.Statement.Context, queryStartCtxKey{}, time.Now())
		}
	}

	cb := db.Callback()
	for _, err := range []error{
		cb.Create().Before("gorm:create").Register("otel_timing:create_start", markStart),
		cb.Create().After("gorm:create").Register("otel_timing:create_done", p.annotateSpan),
		cb.Query().Before("gorm:query").Register("otel_timing:query_start", markStart),
		cb.Query().After("gorm:query").Register("otel_timing:query_done", p.annotateSpan),
		cb.Update().Before("gorm:update").Register("otel_timing:update_start", markStart),
		cb.Update().After("gorm:update").Register("otel_timing:update_done", p.annotateSpan),
		cb.Delete().Before("gorm:delete").Register("otel_timing:delete_start", markStart),
		cb.Delete().After("gorm:delete").Register("otel_timing:delete_done", p.annotateSpan),
		cb.Row().Before("gorm:row").Register("otel_timing:row_start", markStart),
		cb.Row().After("gorm:row").Register("otel_timing:row_done", p.annotateSpan),
		cb.Raw().Before("gorm:raw").Register("otel_timing:raw_start", markStart),
		cb.Raw().After("gorm:raw").Register("otel_timing:raw_done", p.annotateSpan),
	} {
		if err != nil {
			return err
		}
	}

	p.log.Info("Database tracing enabled",
		zap.Bool("log_full_sql", p.cfg.LogFullSQL),
		zap.Duration("slow_query_threshold", p.cfg.SlowQueryThresh),
		zap.String("db_system", p.cfg.DBSystem),
	)
	return nil
}

// annotateSpan runs after each operation and enriches the otelgorm
// span with the outcome of the query.
func (p *DBTracingPlugin) annotateSpan(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}

	span := trace.SpanFromContext(ctx)
	if span == nil || !span.IsRecording() {
		return
	}

	if db.Statement.RowsAffected >= 0 {
		span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))
	}
	if db.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", db.Statement.Table))
	}

	// Not-found is a normal outcome for lookups, not a span error.
	if db.Error != nil && db.Error != gorm.ErrRecordNotFound {
		span.SetStatus(codes.Error, db.Error.Error())
		span.RecordError(db.Error)
	}

	if start, ok := ctx.Value(queryStartCtxKey{}).(time.Time); ok {
		if elapsed := time.Since(start); elapsed > p.cfg.SlowQueryThresh {
			span.SetAttributes(
				attribute.Bool("db.slow_query", true),
				attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
			)
			span.AddEvent("slow_query", trace.WithAttributes(
				attribute.Int64("duration_ms", elapsed.Milliseconds()),
				attribute.Int64("threshold_ms", p.cfg.SlowQueryThresh.Milliseconds()),
			))
		}
	}
}
