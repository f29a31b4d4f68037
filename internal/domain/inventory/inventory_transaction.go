package inventory

import (
	"time"

	"github.com/erp/salesimport/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType represents the direction of an inventory transaction
type TransactionType string

const (
	// TransactionTypeIn represents stock coming into inventory
	TransactionTypeIn TransactionType = "IN"
	// TransactionTypeOut represents stock leaving inventory
	TransactionTypeOut TransactionType = "OUT"
	// TransactionTypeAdjustment represents a manual stock correction
	TransactionTypeAdjustment TransactionType = "ADJUSTMENT"
)

// String returns the string representation of TransactionType
func (t TransactionType) String() string {
	return string(t)
}

// IsValid returns true if the transaction type is valid
func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionTypeIn, TransactionTypeOut, TransactionTypeAdjustment:
		return true
	}
	return false
}

// SourceType represents the source document type for a transaction
type SourceType string

const (
	// SourceTypePOSSale is a point-of-sale sales import
	SourceTypePOSSale SourceType = "POS_SALE"
	// SourceTypePOSSaleReversal is a reversal of a POS sales import
	SourceTypePOSSaleReversal SourceType = "POS_SALE_REVERSAL"
	// SourceTypeManualAdjustment is a manual adjustment
	SourceTypeManualAdjustment SourceType = "MANUAL_ADJUSTMENT"
	// SourceTypeInitialStock is initial stock setup
	SourceTypeInitialStock SourceType = "INITIAL_STOCK"
)

// String returns the string representation of SourceType
func (s SourceType) String() string {
	return string(s)
}

// IsValid returns true if the source type is valid
func (s SourceType) IsValid() bool {
	switch s {
	case SourceTypePOSSale, SourceTypePOSSaleReversal, SourceTypeManualAdjustment, SourceTypeInitialStock:
		return true
	}
	return false
}

// InventoryTransaction represents an immutable record of a stock movement.
// Once created, transactions cannot be modified - corrections must be made
// with new offsetting transactions.
type InventoryTransaction struct {
	shared.BaseEntity
	TransactionNumber string          `gorm:"type:varchar(100);not null;uniqueIndex"`
	ItemID            uuid.UUID       `gorm:"type:uuid;not null;index:idx_inv_tx_item"`
	WarehouseID       uuid.UUID       `gorm:"type:uuid;not null;index:idx_inv_tx_warehouse"`
	Type              TransactionType `gorm:"type:varchar(20);not null;index:idx_inv_tx_type"`
	SourceType        SourceType      `gorm:"type:varchar(30);not null;index:idx_inv_tx_source"`
	Quantity          decimal.Decimal `gorm:"type:decimal(18,4);not null"` // Always positive, direction determined by type
	UnitCost          decimal.Decimal `gorm:"type:decimal(18,4);not null"` // Cost per unit at time of transaction
	TotalCost         decimal.Decimal `gorm:"type:decimal(18,4);not null"` // Quantity * UnitCost
	QuantityBefore    decimal.Decimal `gorm:"type:decimal(18,4);not null"` // On-hand quantity snapshot at posting time
	Notes             string          `gorm:"type:varchar(500)"`
	IsApproved        bool            `gorm:"not null;default:false"`
	OperatorID        *uuid.UUID      `gorm:"type:uuid"` // User who triggered the movement
	TransactionDate   time.Time       `gorm:"type:timestamptz;not null;index"`
}

// TableName returns the table name for GORM
func (InventoryTransaction) TableName() string {
	return "inventory_transactions"
}

// NewInventoryTransaction creates a new inventory transaction
func NewInventoryTransaction(
	transactionNumber string,
	itemID uuid.UUID,
	warehouseID uuid.UUID,
	txType TransactionType,
	sourceType SourceType,
	quantity decimal.Decimal,
	unitCost decimal.Decimal,
	quantityBefore decimal.Decimal,
) (*InventoryTransaction, error) {
	if transactionNumber == "" {
		return nil, shared.NewDomainError("INVALID_TRANSACTION_NUMBER", "Transaction number cannot be empty")
	}
	if len(transactionNumber) > 100 {
		return nil, shared.NewDomainError("INVALID_TRANSACTION_NUMBER", "Transaction number cannot exceed 100 characters")
	}
	if itemID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ITEM", "Item ID cannot be empty")
	}
	if warehouseID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_WAREHOUSE", "Warehouse ID cannot be empty")
	}
	if !txType.IsValid() {
		return nil, shared.NewDomainError("INVALID_TRANSACTION_TYPE", "Invalid transaction type")
	}
	if !sourceType.IsValid() {
		return nil, shared.NewDomainError("INVALID_SOURCE_TYPE", "Invalid source type")
	}
	if quantity.IsNegative() || quantity.IsZero() {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if unitCost.IsNegative() {
		return nil, shared.NewDomainError("INVALID_COST", "Unit cost cannot be negative")
	}

	return &InventoryTransaction{
		BaseEntity:        shared.NewBaseEntity(),
		TransactionNumber: transactionNumber,
		ItemID:            itemID,
		WarehouseID:       warehouseID,
		Type:              txType,
		SourceType:        sourceType,
		Quantity:          quantity,
		UnitCost:          unitCost,
		TotalCost:         quantity.Mul(unitCost),
		QuantityBefore:    quantityBefore,
		TransactionDate:   time.Now(),
	}, nil
}

// WithNotes sets the descriptive memo for the transaction
func (t *InventoryTransaction) WithNotes(notes string) *InventoryTransaction {
	t.Notes = shared.TruncateString(notes, 500)
	return t
}

// WithOperatorID sets the operator ID for the transaction
func (t *InventoryTransaction) WithOperatorID(operatorID uuid.UUID) *InventoryTransaction {
	t.OperatorID = &operatorID
	return t
}

// WithTransactionDate sets the transaction date
func (t *InventoryTransaction) WithTransactionDate(date time.Time) *InventoryTransaction {
	t.TransactionDate = date
	return t
}

// Approve marks the transaction as approved
func (t *InventoryTransaction) Approve() *InventoryTransaction {
	t.IsApproved = true
	return t
}

// GetSignedQuantity returns the quantity with sign based on transaction type.
// Positive for IN, negative for OUT.
func (t *InventoryTransaction) GetSignedQuantity() decimal.Decimal {
	if t.Type == TransactionTypeOut {
		return t.Quantity.Neg()
	}
	return t.Quantity
}

// QuantityAfter returns the implied on-hand quantity after applying this
// transaction to the snapshot. May be negative: posting is non-blocking
// even when stock is insufficient.
func (t *InventoryTransaction) QuantityAfter() decimal.Decimal {
	return t.QuantityBefore.Add(t.GetSignedQuantity())
}

// IsOutbound returns true if this transaction decreases stock
func (t *InventoryTransaction) IsOutbound() bool {
	return t.Type == TransactionTypeOut
}

// CreateOutboundTransaction is a helper to create an OUT transaction.
// Approval is a separate step taken by the caller.
func CreateOutboundTransaction(
	transactionNumber string,
	itemID, warehouseID uuid.UUID,
	quantity, unitCost, quantityBefore decimal.Decimal,
	sourceType SourceType,
) (*InventoryTransaction, error) {
	return NewInventoryTransaction(
		transactionNumber,
		itemID,
		warehouseID,
		TransactionTypeOut,
		sourceType,
		quantity,
		unitCost,
		quantityBefore,
	)
}

// CreateInboundTransaction is a helper to create an IN transaction
func CreateInboundTransaction(
	transactionNumber string,
	itemID, warehouseID uuid.UUID,
	quantity, unitCost, quantityBefore decimal.Decimal,
	sourceType SourceType,
) (*InventoryTransaction, error) {
	return NewInventoryTransaction(
		transactionNumber,
		itemID,
		warehouseID,
		TransactionTypeIn,
		sourceType,
		quantity,
		unitCost,
		quantityBefore,
	)
}
