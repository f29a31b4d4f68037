package salesimportapp

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/erp/salesimport/internal/domain/catalog"
	"github.com/erp/salesimport/internal/domain/inventory"
	"github.com/erp/salesimport/internal/domain/partner"
	"github.com/erp/salesimport/internal/domain/salesimport"
	"github.com/erp/salesimport/internal/domain/shared"
	"github.com/erp/salesimport/internal/infrastructure/cache"
	"github.com/google/uuid"
)

// memImportRepo is an in-memory SalesImportRepository
type memImportRepo struct {
	mu      sync.Mutex
	imports map[uuid.UUID]*salesimport.SalesImport
	saveErr error
}

func newMemImportRepo() *memImportRepo {
	return &memImportRepo{imports: make(map[uuid.UUID]*salesimport.SalesImport)}
}

func (r *memImportRepo) FindByID(ctx context.Context, id uuid.UUID) (*salesimport.SalesImport, error) {
	return r.FindByIDWithItems(ctx, id)
}

func (r *memImportRepo) FindByIDWithItems(_ context.Context, id uuid.UUID) (*salesimport.SalesImport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	imp, ok := r.imports[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	clone := *imp
	clone.Items = append([]salesimport.SalesImportItem(nil), imp.Items...)
	return &clone, nil
}

func (r *memImportRepo) FindByImportNumber(_ context.Context, importNumber string) (*salesimport.SalesImport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, imp := range r.imports {
		if imp.ImportNumber == importNumber {
			clone := *imp
			return &clone, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memImportRepo) FindAll(_ context.Context, _ shared.Filter) ([]salesimport.SalesImport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := make([]salesimport.SalesImport, 0, len(r.imports))
	for _, imp := range r.imports {
		all = append(all, *imp)
	}
	return all, nil
}

func (r *memImportRepo) Save(_ context.Context, imp *salesimport.SalesImport) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *imp
	clone.Items = append([]salesimport.SalesImportItem(nil), imp.Items...)
	r.imports[imp.ID] = &clone
	return nil
}

func (r *memImportRepo) Count(_ context.Context, _ shared.Filter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.imports)), nil
}

func (r *memImportRepo) ExistsByImportNumber(ctx context.Context, importNumber string) (bool, error) {
	_, err := r.FindByImportNumber(ctx, importNumber)
	if err == shared.ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// memItemRepo is an in-memory catalog.ItemRepository keyed by lowercased barcode
type memItemRepo struct {
	mu    sync.Mutex
	items map[uuid.UUID]*catalog.Item
}

func newMemItemRepo() *memItemRepo {
	return &memItemRepo{items: make(map[uuid.UUID]*catalog.Item)}
}

func (r *memItemRepo) add(item *catalog.Item) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[item.ID] = item
}

func (r *memItemRepo) FindByID(_ context.Context, id uuid.UUID) (*catalog.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return item, nil
}

func (r *memItemRepo) FindBySKU(_ context.Context, sku string) (*catalog.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, item := range r.items {
		if item.SKU == strings.ToUpper(sku) {
			return item, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memItemRepo) FindByBarcodes(_ context.Context, barcodes []string) ([]catalog.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	wanted := make(map[string]struct{}, len(barcodes))
	for _, b := range barcodes {
		wanted[b] = struct{}{}
	}
	var found []catalog.Item
	for _, item := range r.items {
		if _, ok := wanted[item.NormalizedBarcode()]; ok {
			found = append(found, *item)
		}
	}
	return found, nil
}

func (r *memItemRepo) FindAll(_ context.Context, _ shared.Filter) ([]catalog.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := make([]catalog.Item, 0, len(r.items))
	for _, item := range r.items {
		all = append(all, *item)
	}
	return all, nil
}

func (r *memItemRepo) Save(_ context.Context, item *catalog.Item) error {
	r.add(item)
	return nil
}

func (r *memItemRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, id)
	return nil
}

func (r *memItemRepo) Count(_ context.Context, _ shared.Filter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.items)), nil
}

// memWarehouseRepo is an in-memory partner.WarehouseRepository
type memWarehouseRepo struct {
	mu         sync.Mutex
	warehouses map[uuid.UUID]*partner.Warehouse
}

func newMemWarehouseRepo() *memWarehouseRepo {
	return &memWarehouseRepo{warehouses: make(map[uuid.UUID]*partner.Warehouse)}
}

func (r *memWarehouseRepo) add(w *partner.Warehouse) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.warehouses[w.ID] = w
}

func (r *memWarehouseRepo) FindByID(_ context.Context, id uuid.UUID) (*partner.Warehouse, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.warehouses[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return w, nil
}

func (r *memWarehouseRepo) FindByCode(_ context.Context, code string) (*partner.Warehouse, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, w := range r.warehouses {
		if w.Code == strings.ToUpper(code) {
			return w, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memWarehouseRepo) FindAll(_ context.Context, _ shared.Filter) ([]partner.Warehouse, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := make([]partner.Warehouse, 0, len(r.warehouses))
	for _, w := range r.warehouses {
		all = append(all, *w)
	}
	return all, nil
}

func (r *memWarehouseRepo) FindActive(ctx context.Context, filter shared.Filter) ([]partner.Warehouse, error) {
	return r.FindAll(ctx, filter)
}

func (r *memWarehouseRepo) Save(_ context.Context, w *partner.Warehouse) error {
	r.add(w)
	return nil
}

func (r *memWarehouseRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.warehouses, id)
	return nil
}

func (r *memWarehouseRepo) Count(_ context.Context, _ shared.Filter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.warehouses)), nil
}

func (r *memWarehouseRepo) ExistsByCode(ctx context.Context, code string) (bool, error) {
	_, err := r.FindByCode(ctx, code)
	if err == shared.ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// memTxRepo is an in-memory InventoryTransactionRepository
type memTxRepo struct {
	mu  sync.Mutex
	txs []*inventory.InventoryTransaction
}

func newMemTxRepo() *memTxRepo {
	return &memTxRepo{}
}

func (r *memTxRepo) FindByID(_ context.Context, id uuid.UUID) (*inventory.InventoryTransaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, tx := range r.txs {
		if tx.ID == id {
			return tx, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memTxRepo) FindByTransactionNumber(_ context.Context, number string) (*inventory.InventoryTransaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, tx := range r.txs {
		if tx.TransactionNumber == number {
			return tx, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memTxRepo) FindByNumberPrefix(_ context.Context, prefix string) ([]inventory.InventoryTransaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var found []inventory.InventoryTransaction
	for _, tx := range r.txs {
		if strings.HasPrefix(tx.TransactionNumber, prefix) {
			found = append(found, *tx)
		}
	}
	return found, nil
}

func (r *memTxRepo) FindAll(_ context.Context, _ shared.Filter) ([]inventory.InventoryTransaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := make([]inventory.InventoryTransaction, 0, len(r.txs))
	for _, tx := range r.txs {
		all = append(all, *tx)
	}
	return all, nil
}

func (r *memTxRepo) Save(_ context.Context, tx *inventory.InventoryTransaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.txs = append(r.txs, tx)
	return nil
}

func (r *memTxRepo) Count(_ context.Context, _ shared.Filter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.txs)), nil
}

// memStockRepo is an in-memory StockLevelRepository
type memStockRepo struct {
	mu     sync.Mutex
	levels map[uuid.UUID]*inventory.StockLevel
}

func newMemStockRepo() *memStockRepo {
	return &memStockRepo{levels: make(map[uuid.UUID]*inventory.StockLevel)}
}

func (r *memStockRepo) FindByID(_ context.Context, id uuid.UUID) (*inventory.StockLevel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	level, ok := r.levels[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return level, nil
}

func (r *memStockRepo) FindByItemAndWarehouse(_ context.Context, itemID, warehouseID uuid.UUID) (*inventory.StockLevel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, level := range r.levels {
		if level.ItemID == itemID && level.WarehouseID == warehouseID {
			return level, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memStockRepo) FindByWarehouse(_ context.Context, warehouseID uuid.UUID, _ shared.Filter) ([]inventory.StockLevel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var found []inventory.StockLevel
	for _, level := range r.levels {
		if level.WarehouseID == warehouseID {
			found = append(found, *level)
		}
	}
	return found, nil
}

func (r *memStockRepo) Save(_ context.Context, level *inventory.StockLevel) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.levels[level.ID] = level
	return nil
}

// memBarcodeCache is an in-memory cache.BarcodeCache that counts hits
type memBarcodeCache struct {
	mu      sync.Mutex
	entries map[string]cache.CachedItem
	gets    int
	sets    int
}

func newMemBarcodeCache() *memBarcodeCache {
	return &memBarcodeCache{entries: make(map[string]cache.CachedItem)}
}

func (c *memBarcodeCache) GetMany(_ context.Context, barcodes []string) (map[string]cache.CachedItem, []string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	found := make(map[string]cache.CachedItem)
	var missing []string
	for _, b := range barcodes {
		if item, ok := c.entries[b]; ok {
			found[b] = item
		} else {
			missing = append(missing, b)
		}
	}
	return found, missing, nil
}

func (c *memBarcodeCache) SetMany(_ context.Context, items map[string]cache.CachedItem, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	for b, item := range items {
		c.entries[b] = item
	}
	return nil
}

func (c *memBarcodeCache) Invalidate(_ context.Context, barcodes []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, b := range barcodes {
		delete(c.entries, b)
	}
	return nil
}

func (c *memBarcodeCache) Close() error { return nil }
