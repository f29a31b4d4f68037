package inventory

import (
	"context"

	"github.com/erp/salesimport/internal/domain/shared"
	"github.com/google/uuid"
)

// InventoryTransactionRepository defines the interface for transaction ledger persistence
type InventoryTransactionRepository interface {
	// FindByID finds a transaction by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*InventoryTransaction, error)

	// FindByTransactionNumber finds a transaction by its unique number
	FindByTransactionNumber(ctx context.Context, number string) (*InventoryTransaction, error)

	// FindByNumberPrefix finds transactions whose number starts with the
	// given prefix, ordered by transaction number. Used to collect all
	// postings belonging to one sales import.
	FindByNumberPrefix(ctx context.Context, prefix string) ([]InventoryTransaction, error)

	// FindAll finds transactions matching the filter
	FindAll(ctx context.Context, filter shared.Filter) ([]InventoryTransaction, error)

	// Save persists a transaction. Transactions are append-only.
	Save(ctx context.Context, tx *InventoryTransaction) error

	// Count counts transactions matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)
}

// StockLevelRepository defines the interface for stock level persistence
type StockLevelRepository interface {
	// FindByID finds a stock level by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*StockLevel, error)

	// FindByItemAndWarehouse finds the stock level for an item at a
	// warehouse; returns shared.ErrNotFound when no record exists.
	FindByItemAndWarehouse(ctx context.Context, itemID, warehouseID uuid.UUID) (*StockLevel, error)

	// FindByWarehouse finds all stock levels at a warehouse
	FindByWarehouse(ctx context.Context, warehouseID uuid.UUID, filter shared.Filter) ([]StockLevel, error)

	// Save creates or updates a stock level
	Save(ctx context.Context, level *StockLevel) error
}
