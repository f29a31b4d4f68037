package telemetry

import (
	"context"
	"database/sql"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBMetricsConfig holds configuration for database metrics collection.
type DBMetricsConfig struct {
	Enabled            bool
	SlowQueryThreshold time.Duration
	PoolStatsInterval  time.Duration
}

// DefaultDBMetricsConfig returns the default database metrics configuration.
func DefaultDBMetricsConfig() DBMetricsConfig {
	return DBMetricsConfig{
		Enabled:            true,
		SlowQueryThreshold: 200 * time.Millisecond,
		PoolStatsInterval:  15 * time.Second,
	}
}

// DBMetrics records query counts, latency and connection pool gauges
// for the import pipeline's database.
type DBMetrics struct {
	queries     *Counter
	latency     *Histogram
	slowQueries *Counter
	poolState   *Gauge
	poolMax     *Gauge

	cfg DBMetricsConfig
	log *zap.Logger

	mu       sync.RWMutex
	sqlDB    *sql.DB
	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewDBMetrics creates the database metric instruments on the given meter.
func NewDBMetrics(meter metric.Meter, cfg DBMetricsConfig, log *zap.Logger) (*DBMetrics, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.SlowQueryThreshold == 0 {
		cfg.SlowQueryThreshold = 200 * time.Millisecond
	}
	if cfg.PoolStatsInterval == 0 {
		cfg.PoolStatsInterval = 15 * time.Second
	}

	m := &DBMetrics{
		cfg:  cfg,
		log:  log,
		done: make(chan struct{}),
	}

	var err error
	if m.queries, err = NewCounter(meter, "db_query_total",
		"Total number of database queries by operation type", "{query}"); err != nil {
		return nil, err
	}
	if m.latency, err = NewHistogram(meter, HistogramOpts{
		Name:        "db_query_duration_seconds",
		Description: "Database query latency distribution in seconds",
		Unit:        "s",
		Boundaries:  DBDurationBuckets,
	}); err != nil {
		return nil, err
	}
	if m.slowQueries, err = NewCounter(meter, "db_slow_query_total",
		"Total number of database queries above the slow query threshold", "{query}"); err != nil {
		return nil, err
	}
	if m.poolState, err = NewGauge(meter, "db_pool_connections",
		"Number of connections in the pool by state", "{connection}"); err != nil {
		return nil, err
	}
	if m.poolMax, err = NewGauge(meter, "db_pool_connections_max",
		"Maximum number of open connections in the pool", "{connection}"); err != nil {
		return nil, err
	}

	return m, nil
}

// SetSQLDB sets the sql.DB whose pool statistics are collected. Must
// be called before StartPoolStatsCollection.
func (m *DBMetrics) SetSQLDB(sqlDB *sql.DB) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sqlDB = sqlDB
}

// StartPoolStatsCollection launches a goroutine that samples the
// connection pool on the configured interval until Stop is called or
// the context is cancelled.
func (m *DBMetrics) StartPoolStatsCollection(ctx context.Context) {
	m.mu.RLock()
	sqlDB := m.sqlDB
	m.mu.RUnlock()

	if sqlDB == nil {
		m.log.Warn("Pool stats collection needs SetSQLDB first")
		return
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()

		ticker := time.NewTicker(m.cfg.PoolStatsInterval)
		defer ticker.Stop()

		m.samplePool(ctx)
		for {
			select {
			case <-ticker.C:
				m.samplePool(ctx)
			case <-m.done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	m.log.Info("Collecting database connection pool stats",
		zap.Duration("interval", m.cfg.PoolStatsInterval),
	)
}

func (m *DBMetrics) samplePool(ctx context.Context) {
	m.mu.RLock()
	sqlDB := m.sqlDB
	m.mu.RUnlock()
	if sqlDB == nil {
		return
	}

	stats := sqlDB.Stats()
	m.poolMax.Record(ctx, int64(stats.MaxOpenConnections))
	m.poolState.Record(ctx, int64(stats.Idle), AttrDBState.String("idle"))
	m.poolState.Record(ctx, int64(stats.InUse), AttrDBState.String("in_use"))
	m.poolState.Record(ctx, int64(stats.OpenConnections), AttrDBState.String("open"))
}

// Stop terminates pool stats collection. Safe to call multiple times.
func (m *DBMetrics) Stop() {
	m.stopOnce.Do(func() {
		close(m.done)
		m.wg.Wait()
	})
}

// RecordQuery records one completed query. Queries slower than the
// configured threshold additionally bump the slow query counter,
// labelled by table.
func (m *DBMetrics) RecordQuery(ctx context.Context, operation, table string, duration time.Duration, err error) {
	operation = strings.ToUpper(operation)
	if operation == "" {
		operation = "UNKNOWN"
	}

	m.queries.Inc(ctx, AttrDBOperation.String(operation))
	m.latency.RecordDuration(ctx, duration, AttrDBOperation.String(operation))

	if duration > m.cfg.SlowQueryThreshold {
		if table == "" {
			table = "unknown"
		}
		m.slowQueries.Inc(ctx, AttrDBTable.String(table))
	}
}

type dbMetricsCtxKey struct{}

// DBMetricsPlugin is a GORM plugin that feeds DBMetrics from query callbacks.
type DBMetricsPlugin struct {
	metrics *DBMetrics
	log     *zap.Logger
}

// NewDBMetricsPlugin creates the GORM plugin for database metrics.
func NewDBMetricsPlugin(metrics *DBMetrics, log *zap.Logger) *DBMetricsPlugin {
	if log == nil {
		log = zap.NewNop()
	}
	return &DBMetricsPlugin{metrics: metrics, log: log}
}

// Name implements gorm.Plugin.
func (p *DBMetricsPlugin) Name() string {
	return "db_metrics"
}

// Initialize implements gorm.Plugin. A before callback stamps the
// query start time into the statement context and an after callback
// records the metrics.
func (p *DBMetricsPlugin) Initialize(db *gorm.DB) error {
	markStart := func(db *gorm.DB) {
		ctx := db.Statement.Context
		if ctx == nil {
			ctx = context.Background()
		}
		db.Statement.Context = context.WithValue(ctx, dbMetricsCtxKey{}, time.Now())
	}
	record := func(operation string) func(*gorm.DB) {
		return func(db *gorm.DB) {
			p.record(db, operation)
		}
	}
	recordRaw := func(db *gorm.DB) {
		p.record(db, sqlOperation(db.Statement.SQL.String()))
	}

	cb := db.Callback()
	for _, err := range []error{
		cb.Create().Before("gorm:create").Register("db_metrics:create_start", markStart),
		cb.Create().After("gorm:create").Register("db_metrics:create_done", record("INSERT")),
		cb.Query().Before("gorm:query").Register("db_metrics:query_start", markStart),
		cb.Query().After("gorm:query").Register("db_metrics:query_done", record("SELECT")),
		cb.Update().Before("gorm:update").Register("db_metrics:update_start", markStart),
		cb.Update().After("gorm:update").Register("db_metrics:update_done", record("UPDATE")),
		cb.Delete().Before("gorm:delete").Register("db_metrics:delete_start", markStart),
		cb.Delete().After("gorm:delete").Register("db_metrics:delete_done", record("DELETE")),
		cb.Row().Before("gorm:row").Register("db_metrics:row_start", markStart),
		cb.Row().After("gorm:row").Register("db_metrics:row_done", recordRaw),
		cb.Raw().Before("gorm:raw").Register("db_metrics:raw_start", markStart),
		cb.Raw().After("gorm:raw").Register("db_metrics:raw_done", recordRaw),
	} {
		if err != nil {
			return err
		}
	}

	p.log.Debug("Database metrics plugin initialized")
	return nil
}

func (p *DBMetricsPlugin) record(db *gorm.DB, operation string) {
	ctx := db.Statement.Context
	if ctx == nil {
		ctx = context.Background()
	}

	var duration time.Duration
	if start, ok := ctx.Value(dbMetricsCtxKey{}).(time.Time); ok {
		duration = time.Since(start)
	}

	p.metrics.RecordQuery(ctx, operation, db.Statement.Table, duration, db.Error)
}

// sqlOperation classifies a raw SQL statement by its leading keyword.
func sqlOperation(sql string) string {
	switch sql = strings.ToUpper(strings.TrimSpace(sql)); {
	case strings.HasPrefix(sql, "SELECT"):
		return "SELECT"
	case strings.HasPrefix(sql, "INSERT"):
		return "INSERT"
	case strings.HasPrefix(sql, "UPDATE"):
		return "UPDATE"
	case strings.HasPrefix(sql, "DELETE"):
		return "DELETE"
	default:
		return "OTHER"
	}
}

// RegisterDBMetrics wires query and pool metrics into a GORM DB. It
// returns nil without error when metrics are disabled; callers keep
// the returned DBMetrics for shutdown via Stop.
func RegisterDBMetrics(db *gorm.DB, meterProvider *MeterProvider, cfg DBMetricsConfig, log *zap.Logger) (*DBMetrics, error) {
	if !cfg.Enabled {
		log.Debug("Database metrics disabled")
		return nil, nil
	}
	if meterProvider == nil || !meterProvider.IsEnabled() {
		log.Debug("No meter provider, skipping database metrics")
		return nil, nil
	}

	metrics, err := NewDBMetrics(meterProvider.Meter("db.client"), cfg, log)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	metrics.SetSQLDB(sqlDB)

	if err := db.Use(NewDBMetricsPlugin(metrics, log)); err != nil {
		return nil, err
	}

	log.Info("Database metrics registered",
		zap.Duration("slow_query_threshold", cfg.SlowQueryThreshold),
		zap.Duration("pool_stats_interval", cfg.PoolStatsInterval),
	)
	return metrics, nil
}
