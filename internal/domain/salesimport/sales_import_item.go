package salesimport

import (
	"strings"
	"time"

	"github.com/erp/salesimport/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SalesImportItem is one parsed CSV row within a SalesImport, tracking its
// own match/post outcome. A row is mutated exactly once after creation:
// either MarkAsProcessed or MarkAsError, never both.
type SalesImportItem struct {
	shared.BaseEntity
	SalesImportID          uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_import_line,priority:1"`
	LineNumber             int              `gorm:"not null;uniqueIndex:idx_import_line,priority:2"`
	SaleDate               time.Time        `gorm:"type:timestamptz;not null"`
	Barcode                string           `gorm:"type:varchar(100);not null;index"`
	ItemName               string           `gorm:"type:varchar(200)"`
	QuantitySold           decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
	UnitPrice              *decimal.Decimal `gorm:"type:decimal(18,4)"`
	TotalAmount            decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
	IsProcessed            bool             `gorm:"not null;default:false"`
	MatchedItemID          *uuid.UUID       `gorm:"type:uuid"`
	InventoryTransactionID *uuid.UUID       `gorm:"type:uuid"`
	ErrorMessage           string           `gorm:"type:varchar(1000)"`
}

// TableName returns the table name for GORM
func (SalesImportItem) TableName() string {
	return "sales_import_items"
}

// NewSalesImportItem creates a parsed sales row. Construction failures mean
// the row never joins the import's item set.
func NewSalesImportItem(
	salesImportID uuid.UUID,
	lineNumber int,
	saleDate time.Time,
	barcode string,
	itemName string,
	quantitySold decimal.Decimal,
	unitPrice *decimal.Decimal,
) (*SalesImportItem, error) {
	if salesImportID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_IMPORT", "Sales import ID cannot be empty")
	}
	if lineNumber <= 0 {
		return nil, shared.NewDomainError("INVALID_LINE_NUMBER", "Line number must be positive")
	}
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return nil, shared.NewDomainError("INVALID_BARCODE", "Barcode cannot be empty")
	}
	if len(barcode) > 100 {
		return nil, shared.NewDomainError("INVALID_BARCODE", "Barcode cannot exceed 100 characters")
	}
	if quantitySold.IsNegative() || quantitySold.IsZero() {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity sold must be positive")
	}
	if unitPrice != nil && unitPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}
	itemName = shared.TruncateString(itemName, 200)

	price := decimal.Zero
	if unitPrice != nil {
		price = *unitPrice
	}

	return &SalesImportItem{
		BaseEntity:    shared.NewBaseEntity(),
		SalesImportID: salesImportID,
		LineNumber:    lineNumber,
		SaleDate:      saleDate,
		Barcode:       barcode,
		ItemName:      itemName,
		QuantitySold:  quantitySold,
		UnitPrice:     unitPrice,
		TotalAmount:   quantitySold.Mul(price),
	}, nil
}

// MarkAsProcessed records the successful match and posting outcome.
// Clears any previous error message.
func (i *SalesImportItem) MarkAsProcessed(matchedItemID, transactionID uuid.UUID) {
	i.IsProcessed = true
	i.MatchedItemID = &matchedItemID
	i.InventoryTransactionID = &transactionID
	i.ErrorMessage = ""
	i.Touch()
}

// MarkAsError records a terminal per-row failure reason
func (i *SalesImportItem) MarkAsError(message string) {
	message = shared.TruncateString(message, 1000)
	i.IsProcessed = false
	i.MatchedItemID = nil
	i.InventoryTransactionID = nil
	i.ErrorMessage = message
	i.Touch()
}

// NormalizedBarcode returns the barcode lowered for case-insensitive matching
func (i *SalesImportItem) NormalizedBarcode() string {
	return strings.ToLower(i.Barcode)
}
