package inventory

import (
	"time"

	"github.com/erp/salesimport/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StockLevel tracks the current on-hand quantity of an item at a warehouse.
// It is read (not locked) at posting time; derived quantities may drift
// negative because POS sale posting is non-blocking.
type StockLevel struct {
	shared.BaseAggregateRoot
	ItemID         uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_stock_item_warehouse,priority:1"`
	WarehouseID    uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_stock_item_warehouse,priority:2"`
	QuantityOnHand decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	LastMovementAt *time.Time      `gorm:"type:timestamptz"`
}

// TableName returns the table name for GORM
func (StockLevel) TableName() string {
	return "stock_levels"
}

// NewStockLevel creates a stock level record for an item at a warehouse
func NewStockLevel(itemID, warehouseID uuid.UUID, quantityOnHand decimal.Decimal) (*StockLevel, error) {
	if itemID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ITEM", "Item ID cannot be empty")
	}
	if warehouseID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_WAREHOUSE", "Warehouse ID cannot be empty")
	}

	return &StockLevel{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ItemID:            itemID,
		WarehouseID:       warehouseID,
		QuantityOnHand:    quantityOnHand,
	}, nil
}

// Apply adjusts the on-hand quantity by the transaction's signed quantity.
// Negative results are allowed.
func (s *StockLevel) Apply(tx *InventoryTransaction) {
	s.QuantityOnHand = s.QuantityOnHand.Add(tx.GetSignedQuantity())
	now := time.Now()
	s.LastMovementAt = &now
	s.UpdatedAt = now
	s.IncrementVersion()
}

// HasSufficientStock returns true if at least the given quantity is on hand
func (s *StockLevel) HasSufficientStock(quantity decimal.Decimal) bool {
	return s.QuantityOnHand.GreaterThanOrEqual(quantity)
}
