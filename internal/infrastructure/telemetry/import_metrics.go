// Package telemetry provides OpenTelemetry integration for metrics collection.
package telemetry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ImportMetrics provides business metrics for the sales import pipeline.
// It tracks import throughput, per-row outcomes, posted transactions and
// stock health.
type ImportMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	// Counter metrics (monotonically increasing)
	importTotal      *Counter
	importRowTotal   *Counter
	transactionTotal *Counter

	// Histogram metrics
	importDuration *Histogram

	// Gauge metrics (point-in-time values)
	negativeStockCount *Gauge

	// Periodic collector
	stopChan    chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once

	stockProvider StockMetricsProvider
}

// StockMetricsProvider provides stock data for periodic metrics collection.
// This interface keeps the telemetry layer from depending on the inventory
// domain directly.
type StockMetricsProvider interface {
	// GetNegativeStockCountByWarehouse returns the number of stock levels
	// below zero per warehouse. Negative stock is expected when sales are
	// imported ahead of receiving documents, but it should trend to zero.
	GetNegativeStockCountByWarehouse(ctx context.Context) (map[uuid.UUID]int64, error)
}

// ImportMetricsConfig holds configuration for import metrics.
type ImportMetricsConfig struct {
	Meter         metric.Meter
	Logger        *zap.Logger
	StockProvider StockMetricsProvider
}

// RowOutcome describes how a single import row ended up.
type RowOutcome string

const (
	RowOutcomeProcessed RowOutcome = "processed"
	RowOutcomeError     RowOutcome = "error"
)

// NewImportMetrics creates a new ImportMetrics instance.
func NewImportMetrics(cfg ImportMetricsConfig) (*ImportMetrics, error) {
	if cfg.Meter == nil {
		return nil, fmt.Errorf("meter is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	im := &ImportMetrics{
		meter:         cfg.Meter,
		logger:        logger,
		stopChan:      make(chan struct{}),
		stockProvider: cfg.StockProvider,
	}

	var err error

	im.importTotal, err = NewCounter(cfg.Meter,
		"sales_import_total",
		"Total number of sales imports by final status",
		"{import}",
	)
	if err != nil {
		return nil, err
	}

	im.importRowTotal, err = NewCounter(cfg.Meter,
		"sales_import_row_total",
		"Total number of processed sales import rows by outcome",
		"{row}",
	)
	if err != nil {
		return nil, err
	}

	im.transactionTotal, err = NewCounter(cfg.Meter,
		"sales_import_transaction_total",
		"Total number of inventory transactions posted by the import pipeline",
		"{transaction}",
	)
	if err != nil {
		return nil, err
	}

	im.importDuration, err = NewHistogram(cfg.Meter, HistogramOpts{
		Name:        "sales_import_duration_seconds",
		Description: "Duration of sales import processing",
		Unit:        "s",
		Boundaries:  []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
	})
	if err != nil {
		return nil, err
	}

	im.negativeStockCount, err = NewGauge(cfg.Meter,
		"stock_level_negative_count",
		"Number of stock levels below zero per warehouse",
		"{stock_level}",
	)
	if err != nil {
		return nil, err
	}

	return im, nil
}

// RecordImport records one finished import with its final status and duration.
func (im *ImportMetrics) RecordImport(ctx context.Context, status string, warehouseID uuid.UUID, duration time.Duration) {
	attrs := []attribute.KeyValue{
		AttrImportStatus.String(status),
		AttrWarehouseID.String(warehouseID.String()),
	}
	im.importTotal.Inc(ctx, attrs...)
	im.importDuration.RecordDuration(ctx, duration, attrs...)
}

// RecordRows records per-row outcomes of one import run.
func (im *ImportMetrics) RecordRows(ctx context.Context, warehouseID uuid.UUID, processed, errored int64) {
	if processed > 0 {
		im.importRowTotal.Add(ctx, processed,
			AttrRowOutcome.String(string(RowOutcomeProcessed)),
			AttrWarehouseID.String(warehouseID.String()),
		)
	}
	if errored > 0 {
		im.importRowTotal.Add(ctx, errored,
			AttrRowOutcome.String(string(RowOutcomeError)),
			AttrWarehouseID.String(warehouseID.String()),
		)
	}
}

// RecordTransaction records one posted inventory transaction.
func (im *ImportMetrics) RecordTransaction(ctx context.Context, sourceType string, warehouseID uuid.UUID) {
	im.transactionTotal.Inc(ctx,
		AttrSourceType.String(sourceType),
		AttrWarehouseID.String(warehouseID.String()),
	)
}

// RecordNegativeStockCount records the negative stock gauge for one warehouse.
func (im *ImportMetrics) RecordNegativeStockCount(ctx context.Context, warehouseID uuid.UUID, count int64) {
	im.negativeStockCount.Record(ctx, count,
		AttrWarehouseID.String(warehouseID.String()),
	)
}

// StartPeriodicCollection starts the background goroutine that refreshes
// gauge metrics from the stock provider. It is a no-op when no provider is
// configured and may be called at most once.
func (im *ImportMetrics) StartPeriodicCollection(ctx context.Context, interval time.Duration) {
	if im.stockProvider == nil {
		im.logger.Debug("No stock provider configured, skipping periodic metrics collection")
		return
	}
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	im.collectOnce.Do(func() {
		go im.runPeriodicCollection(ctx, interval)
	})
}

func (im *ImportMetrics) runPeriodicCollection(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	im.collectStockMetrics(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-im.stopChan:
			return
		case <-ticker.C:
			im.collectStockMetrics(ctx)
		}
	}
}

func (im *ImportMetrics) collectStockMetrics(ctx context.Context) {
	counts, err := im.stockProvider.GetNegativeStockCountByWarehouse(ctx)
	if err != nil {
		im.logger.Warn("Failed to collect negative stock counts", zap.Error(err))
		return
	}
	for warehouseID, count := range counts {
		im.RecordNegativeStockCount(ctx, warehouseID, count)
	}
}

// Stop stops the periodic collector. Safe to call multiple times.
func (im *ImportMetrics) Stop() {
	im.stopOnce.Do(func() {
		close(im.stopChan)
	})
}

// GormStockMetricsProvider implements StockMetricsProvider using GORM.
// It queries the stock_levels table directly for aggregated metrics.
type GormStockMetricsProvider struct {
	db *gorm.DB
}

// NewGormStockMetricsProvider creates a new GormStockMetricsProvider.
func NewGormStockMetricsProvider(db *gorm.DB) *GormStockMetricsProvider {
	return &GormStockMetricsProvider{db: db}
}

// GetNegativeStockCountByWarehouse returns the number of stock levels below
// zero per warehouse.
func (p *GormStockMetricsProvider) GetNegativeStockCountByWarehouse(ctx context.Context) (map[uuid.UUID]int64, error) {
	type result struct {
		WarehouseID uuid.UUID `gorm:"column:warehouse_id"`
		Count       int64     `gorm:"column:count"`
	}

	var results []result
	err := p.db.WithContext(ctx).
		Table("stock_levels").
		Select("warehouse_id, COUNT(*) as count").
		Where("quantity_on_hand < 0").
		Group("warehouse_id").
		Find(&results).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[uuid.UUID]int64, len(results))
	for _, r := range results {
		counts[r.WarehouseID] = r.Count
	}
	return counts, nil
}
