package salesimportapp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/erp/salesimport/internal/domain/catalog"
	"github.com/erp/salesimport/internal/domain/inventory"
	"github.com/erp/salesimport/internal/domain/partner"
	"github.com/erp/salesimport/internal/domain/salesimport"
	"github.com/erp/salesimport/internal/domain/shared"
	"github.com/erp/salesimport/internal/infrastructure/cache"
	csvimport "github.com/erp/salesimport/internal/infrastructure/import"
	"github.com/erp/salesimport/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SalesImportService orchestrates the sales import reconciliation pipeline:
// decode and parse the uploaded CSV, match rows against the catalog, post
// outbound inventory transactions and keep per-row outcomes on the aggregate.
type SalesImportService struct {
	importRepo    salesimport.SalesImportRepository
	itemRepo      catalog.ItemRepository
	warehouseRepo partner.WarehouseRepository
	txRepo        inventory.InventoryTransactionRepository
	stockRepo     inventory.StockLevelRepository
	barcodeCache  cache.BarcodeCache
	cacheTTL      time.Duration
	logger        *zap.Logger
	metrics       *telemetry.ImportMetrics
}

// ServiceOption configures optional service dependencies
type ServiceOption func(*SalesImportService)

// WithImportMetrics attaches import pipeline metrics to the service
func WithImportMetrics(m *telemetry.ImportMetrics) ServiceOption {
	return func(s *SalesImportService) {
		s.metrics = m
	}
}

// NewSalesImportService creates a new SalesImportService
func NewSalesImportService(
	importRepo salesimport.SalesImportRepository,
	itemRepo catalog.ItemRepository,
	warehouseRepo partner.WarehouseRepository,
	txRepo inventory.InventoryTransactionRepository,
	stockRepo inventory.StockLevelRepository,
	barcodeCache cache.BarcodeCache,
	cacheTTL time.Duration,
	logger *zap.Logger,
	opts ...ServiceOption,
) *SalesImportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &SalesImportService{
		importRepo:    importRepo,
		itemRepo:      itemRepo,
		warehouseRepo: warehouseRepo,
		txRepo:        txRepo,
		stockRepo:     stockRepo,
		barcodeCache:  barcodeCache,
		cacheTTL:      cacheTTL,
		logger:        logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateImport registers a new sales import: validates the target warehouse
// and import number, decodes and parses the CSV payload and persists the
// aggregate with its parsed rows. When input.AutoProcess is set the import is
// processed immediately.
func (s *SalesImportService) CreateImport(ctx context.Context, input CreateImportInput, userID uuid.UUID) (*salesimport.SalesImport, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "salesimport", "create_import")
	defer span.End()

	telemetry.SetAttributes(span,
		telemetry.SpanAttrImportNumber, input.ImportNumber,
		telemetry.SpanAttrWarehouseID, input.WarehouseID.String(),
	)

	if _, err := s.warehouseRepo.FindByID(ctx, input.WarehouseID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			err = shared.NewDomainError("WAREHOUSE_NOT_FOUND",
				fmt.Sprintf("Warehouse %s not found", input.WarehouseID))
			telemetry.RecordError(span, err)
			return nil, err
		}
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to look up warehouse: %w", err)
	}

	imp, err := salesimport.NewSalesImport(
		input.ImportNumber,
		input.ImportDate,
		input.SalesPeriodFrom,
		input.SalesPeriodTo,
		input.WarehouseID,
		input.FileName,
		input.Notes,
		userID,
	)
	if err != nil {
		return nil, err
	}

	exists, err := s.importRepo.ExistsByImportNumber(ctx, imp.ImportNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to check import number: %w", err)
	}
	if exists {
		return nil, shared.NewDomainError("DUPLICATE_IMPORT_NUMBER",
			fmt.Sprintf("Import number '%s' is already used", imp.ImportNumber))
	}

	data, err := csvimport.DecodePayload(input.CSVData)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_FILE", err.Error())
	}
	parsed, err := csvimport.ParseSalesRows(data)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_FILE", err.Error())
	}
	if parsed.Dropped.HasErrors() {
		s.logger.Warn("Dropped malformed sales rows during parse",
			zap.String("import_number", imp.ImportNumber),
			zap.Int("dropped", parsed.Dropped.TotalCount()),
		)
	}

	quantity := decimal.Zero
	value := decimal.Zero
	for _, row := range parsed.Rows {
		item, err := salesimport.NewSalesImportItem(
			imp.ID,
			row.LineNumber,
			row.SaleDate,
			row.Barcode,
			row.ItemName,
			row.Quantity,
			row.UnitPrice,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to build row %d: %w", row.LineNumber, err)
		}
		imp.AddItem(item)
		quantity = quantity.Add(item.QuantitySold)
		value = value.Add(item.TotalAmount)
	}
	imp.UpdateStatistics(len(imp.Items), 0, 0, quantity, value)

	if err := s.importRepo.Save(ctx, imp); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to save import: %w", err)
	}
	telemetry.SetOK(span)

	s.logger.Info("Sales import created",
		zap.String("import_number", imp.ImportNumber),
		zap.String("import_id", imp.ID.String()),
		zap.Int("total_records", imp.TotalRecords),
	)

	if input.AutoProcess {
		return s.Process(ctx, imp.ID, userID)
	}
	return imp, nil
}

// Process runs the reconciliation for a pending import: bulk-matches barcodes
// against the catalog, posts one approved outbound transaction per matched
// row and records a per-row error otherwise. Insufficient stock never blocks
// posting. The import ends COMPLETED unless no row at all was processed.
func (s *SalesImportService) Process(ctx context.Context, importID, operatorID uuid.UUID) (*salesimport.SalesImport, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "salesimport", "process_import")
	defer span.End()
	telemetry.SetAttribute(span, telemetry.SpanAttrImportID, importID.String())

	started := time.Now()

	imp, err := s.importRepo.FindByIDWithItems(ctx, importID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttribute(span, telemetry.SpanAttrImportNumber, imp.ImportNumber)
	if imp.Status != salesimport.ImportStatusPending {
		return nil, shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Import cannot be processed from status %s", imp.Status))
	}

	if err := imp.UpdateStatus(salesimport.ImportStatusProcessing); err != nil {
		return nil, err
	}
	if err := s.importRepo.Save(ctx, imp); err != nil {
		return nil, fmt.Errorf("failed to mark import as processing: %w", err)
	}

	matched, err := s.matchBarcodes(ctx, imp)
	if err != nil {
		return nil, err
	}

	for i := range imp.Items {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		row := &imp.Items[i]
		item, ok := matched[row.NormalizedBarcode()]
		if !ok {
			row.MarkAsError(fmt.Sprintf("no catalog item found for barcode '%s'", row.Barcode))
			continue
		}

		txID, err := s.postSale(ctx, imp, row, item, operatorID)
		if err != nil {
			row.MarkAsError(err.Error())
			continue
		}
		row.MarkAsProcessed(item.ItemID, txID)
	}

	imp.RecalculateFromItems()

	final := salesimport.ImportStatusCompleted
	if imp.ProcessedRecords == 0 {
		final = salesimport.ImportStatusFailed
	}
	if err := imp.UpdateStatus(final); err != nil {
		return nil, err
	}
	if err := s.importRepo.Save(ctx, imp); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to save processed import: %w", err)
	}

	telemetry.SetAttribute(span, telemetry.SpanAttrImportStatus, imp.Status.String())
	telemetry.SetOK(span)
	if s.metrics != nil {
		s.metrics.RecordImport(ctx, imp.Status.String(), imp.WarehouseID, time.Since(started))
		s.metrics.RecordRows(ctx, imp.WarehouseID, int64(imp.ProcessedRecords), int64(imp.ErrorRecords))
	}

	s.logger.Info("Sales import processed",
		zap.String("import_number", imp.ImportNumber),
		zap.String("status", imp.Status.String()),
		zap.Int("processed", imp.ProcessedRecords),
		zap.Int("errors", imp.ErrorRecords),
	)
	return imp, nil
}

// matchBarcodes resolves every distinct barcode of the import to a catalog
// item. Cached entries are used first; the remainder is fetched in one bulk
// query and written back to the cache. Keys are lowercased barcodes.
func (s *SalesImportService) matchBarcodes(ctx context.Context, imp *salesimport.SalesImport) (map[string]cache.CachedItem, error) {
	seen := make(map[string]struct{}, len(imp.Items))
	barcodes := make([]string, 0, len(imp.Items))
	for i := range imp.Items {
		normalized := imp.Items[i].NormalizedBarcode()
		if _, dup := seen[normalized]; dup {
			continue
		}
		seen[normalized] = struct{}{}
		barcodes = append(barcodes, normalized)
	}

	found := make(map[string]cache.CachedItem, len(barcodes))
	missing := barcodes
	if s.barcodeCache != nil {
		var err error
		found, missing, err = s.barcodeCache.GetMany(ctx, barcodes)
		if err != nil {
			// A broken cache degrades to a full catalog query.
			s.logger.Warn("Barcode cache read failed", zap.Error(err))
			found = make(map[string]cache.CachedItem, len(barcodes))
			missing = barcodes
		}
	}

	if len(missing) > 0 {
		items, err := s.itemRepo.FindByBarcodes(ctx, missing)
		if err != nil {
			return nil, fmt.Errorf("failed to match barcodes: %w", err)
		}

		fetched := make(map[string]cache.CachedItem, len(items))
		for i := range items {
			entry := cache.CachedItem{
				ItemID:  items[i].ID,
				Barcode: items[i].Barcode,
				Name:    items[i].Name,
				Cost:    items[i].Cost,
			}
			fetched[items[i].NormalizedBarcode()] = entry
			found[items[i].NormalizedBarcode()] = entry
		}

		if s.barcodeCache != nil && len(fetched) > 0 {
			if err := s.barcodeCache.SetMany(ctx, fetched, s.cacheTTL); err != nil {
				s.logger.Warn("Barcode cache write failed", zap.Error(err))
			}
		}
	}

	return found, nil
}

// postSale posts one approved outbound transaction for a matched row and
// applies it to the warehouse stock level. Stock may go negative.
func (s *SalesImportService) postSale(
	ctx context.Context,
	imp *salesimport.SalesImport,
	row *salesimport.SalesImportItem,
	item cache.CachedItem,
	operatorID uuid.UUID,
) (uuid.UUID, error) {
	level, err := s.stockRepo.FindByItemAndWarehouse(ctx, item.ItemID, imp.WarehouseID)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			return uuid.Nil, fmt.Errorf("failed to read stock level: %w", err)
		}
		level, err = inventory.NewStockLevel(item.ItemID, imp.WarehouseID, decimal.Zero)
		if err != nil {
			return uuid.Nil, err
		}
	}

	if !level.HasSufficientStock(row.QuantitySold) {
		s.logger.Warn("Posting sale with insufficient stock",
			zap.String("import_number", imp.ImportNumber),
			zap.Int("line_number", row.LineNumber),
			zap.String("barcode", row.Barcode),
			zap.String("on_hand", level.QuantityOnHand.String()),
			zap.String("quantity", row.QuantitySold.String()),
		)
	}

	number := fmt.Sprintf("SALE-%s-%d", imp.ImportNumber, row.LineNumber)
	tx, err := inventory.CreateOutboundTransaction(
		number,
		item.ItemID,
		imp.WarehouseID,
		row.QuantitySold,
		item.Cost,
		level.QuantityOnHand,
		inventory.SourceTypePOSSale,
	)
	if err != nil {
		return uuid.Nil, err
	}
	tx.WithTransactionDate(row.SaleDate).
		WithNotes(fmt.Sprintf("POS sale import %s line %d", imp.ImportNumber, row.LineNumber)).
		Approve()
	if operatorID != uuid.Nil {
		tx.WithOperatorID(operatorID)
	}

	if err := s.txRepo.Save(ctx, tx); err != nil {
		return uuid.Nil, fmt.Errorf("failed to post transaction %s: %w", number, err)
	}
	if s.metrics != nil {
		s.metrics.RecordTransaction(ctx, string(tx.SourceType), imp.WarehouseID)
	}

	level.Apply(tx)
	if err := s.stockRepo.Save(ctx, level); err != nil {
		return uuid.Nil, fmt.Errorf("failed to update stock level: %w", err)
	}

	return tx.ID, nil
}

// Reverse reverses a completed import by posting one offsetting inbound
// transaction per processed row. The import keeps its COMPLETED status and
// is flagged as reversed.
func (s *SalesImportService) Reverse(ctx context.Context, importID uuid.UUID, reason string, operatorID uuid.UUID) (*salesimport.SalesImport, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "salesimport", "reverse_import")
	defer span.End()
	telemetry.SetAttribute(span, telemetry.SpanAttrImportID, importID.String())

	imp, err := s.importRepo.FindByIDWithItems(ctx, importID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttribute(span, telemetry.SpanAttrImportNumber, imp.ImportNumber)

	if err := imp.Reverse(reason); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	for i := range imp.Items {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		row := &imp.Items[i]
		if !row.IsProcessed || row.MatchedItemID == nil {
			continue
		}

		if err := s.postReversal(ctx, imp, row, operatorID); err != nil {
			return nil, err
		}
	}

	if err := s.importRepo.Save(ctx, imp); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to save reversed import: %w", err)
	}
	telemetry.SetOK(span)

	s.logger.Info("Sales import reversed",
		zap.String("import_number", imp.ImportNumber),
		zap.String("reason", reason),
	)
	return imp, nil
}

// postReversal posts the offsetting inbound transaction for one processed row
func (s *SalesImportService) postReversal(
	ctx context.Context,
	imp *salesimport.SalesImport,
	row *salesimport.SalesImportItem,
	operatorID uuid.UUID,
) error {
	unitCost := decimal.Zero
	if row.InventoryTransactionID != nil {
		original, err := s.txRepo.FindByID(ctx, *row.InventoryTransactionID)
		if err == nil {
			unitCost = original.UnitCost
		} else if !errors.Is(err, shared.ErrNotFound) {
			return fmt.Errorf("failed to read original transaction: %w", err)
		}
	}

	level, err := s.stockRepo.FindByItemAndWarehouse(ctx, *row.MatchedItemID, imp.WarehouseID)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			return fmt.Errorf("failed to read stock level: %w", err)
		}
		level, err = inventory.NewStockLevel(*row.MatchedItemID, imp.WarehouseID, decimal.Zero)
		if err != nil {
			return err
		}
	}

	number := fmt.Sprintf("RSALE-%s-%d", imp.ImportNumber, row.LineNumber)
	tx, err := inventory.CreateInboundTransaction(
		number,
		*row.MatchedItemID,
		imp.WarehouseID,
		row.QuantitySold,
		unitCost,
		level.QuantityOnHand,
		inventory.SourceTypePOSSaleReversal,
	)
	if err != nil {
		return err
	}
	tx.WithNotes(fmt.Sprintf("Reversal of POS sale import %s line %d", imp.ImportNumber, row.LineNumber)).
		Approve()
	if operatorID != uuid.Nil {
		tx.WithOperatorID(operatorID)
	}

	if err := s.txRepo.Save(ctx, tx); err != nil {
		return fmt.Errorf("failed to post reversal %s: %w", number, err)
	}
	if s.metrics != nil {
		s.metrics.RecordTransaction(ctx, string(tx.SourceType), imp.WarehouseID)
	}

	level.Apply(tx)
	if err := s.stockRepo.Save(ctx, level); err != nil {
		return fmt.Errorf("failed to update stock level: %w", err)
	}

	return nil
}

// GetImport returns one import with its rows in line-number order
func (s *SalesImportService) GetImport(ctx context.Context, importID uuid.UUID) (*salesimport.SalesImport, error) {
	return s.importRepo.FindByIDWithItems(ctx, importID)
}

// ListImports returns a page of imports matching the filter
func (s *SalesImportService) ListImports(ctx context.Context, filter ImportListFilter) (*shared.Paginated[salesimport.SalesImport], error) {
	repoFilter := shared.DefaultFilter()
	if filter.Page > 0 {
		repoFilter.Page = filter.Page
	}
	if filter.PageSize > 0 {
		repoFilter.PageSize = filter.PageSize
	}
	repoFilter.OrderBy = "import_date"
	repoFilter.Search = filter.Search
	if filter.Status != "" {
		repoFilter.Filters["status"] = filter.Status
	}
	if filter.WarehouseID != nil {
		repoFilter.Filters["warehouse_id"] = *filter.WarehouseID
	}

	imports, err := s.importRepo.FindAll(ctx, repoFilter)
	if err != nil {
		return nil, err
	}
	total, err := s.importRepo.Count(ctx, repoFilter)
	if err != nil {
		return nil, err
	}

	page := shared.NewPaginated(imports, total, repoFilter.Page, repoFilter.PageSize)
	return &page, nil
}

// ListErrors returns the failed rows of one import
func (s *SalesImportService) ListErrors(ctx context.Context, importID uuid.UUID) ([]salesimport.SalesImportItem, error) {
	imp, err := s.importRepo.FindByIDWithItems(ctx, importID)
	if err != nil {
		return nil, err
	}
	return imp.ErrorItems(), nil
}
