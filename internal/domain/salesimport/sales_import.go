package salesimport

import (
	"fmt"
	"strings"
	"time"

	"github.com/erp/salesimport/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ImportStatus represents the lifecycle status of a sales import
type ImportStatus string

const (
	ImportStatusPending    ImportStatus = "PENDING"
	ImportStatusProcessing ImportStatus = "PROCESSING"
	ImportStatusCompleted  ImportStatus = "COMPLETED"
	ImportStatusFailed     ImportStatus = "FAILED"
)

// String returns the string representation of ImportStatus
func (s ImportStatus) String() string {
	return string(s)
}

// IsValid checks if the status is valid
func (s ImportStatus) IsValid() bool {
	switch s {
	case ImportStatusPending, ImportStatusProcessing, ImportStatusCompleted, ImportStatusFailed:
		return true
	}
	return false
}

// IsTerminal returns true if this is a terminal state
func (s ImportStatus) IsTerminal() bool {
	return s == ImportStatusCompleted || s == ImportStatusFailed
}

// SalesImport is the aggregate root for one batch upload of POS sales data
// targeting a warehouse and sales period.
type SalesImport struct {
	shared.BaseAggregateRoot
	ImportNumber     string            `gorm:"type:varchar(100);not null;uniqueIndex"`
	ImportDate       time.Time         `gorm:"type:timestamptz;not null"`
	SalesPeriodFrom  time.Time         `gorm:"type:timestamptz;not null"`
	SalesPeriodTo    time.Time         `gorm:"type:timestamptz;not null"`
	WarehouseID      uuid.UUID         `gorm:"type:uuid;not null;index"`
	FileName         string            `gorm:"type:varchar(255);not null"`
	Notes            string            `gorm:"type:varchar(1000)"`
	Status           ImportStatus      `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	TotalRecords     int               `gorm:"not null;default:0"`
	ProcessedRecords int               `gorm:"not null;default:0"`
	ErrorRecords     int               `gorm:"not null;default:0"`
	TotalQuantity    decimal.Decimal   `gorm:"type:decimal(18,4);not null;default:0"`
	TotalValue       decimal.Decimal   `gorm:"type:decimal(18,4);not null;default:0"`
	IsReversed       bool              `gorm:"not null;default:false"`
	ReversedAt       *time.Time        `gorm:"type:timestamptz"`
	ReversalReason   string            `gorm:"type:varchar(500)"`
	CreatedBy        *uuid.UUID        `gorm:"type:uuid;index"`
	Items            []SalesImportItem `gorm:"foreignKey:SalesImportID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (SalesImport) TableName() string {
	return "sales_imports"
}

// NewSalesImport creates a new sales import in PENDING state with zeroed
// statistics. Warehouse existence and import-number uniqueness are checked
// by the orchestrator, not here.
func NewSalesImport(
	importNumber string,
	importDate time.Time,
	periodFrom time.Time,
	periodTo time.Time,
	warehouseID uuid.UUID,
	fileName string,
	notes string,
	createdBy uuid.UUID,
) (*SalesImport, error) {
	importNumber = strings.TrimSpace(importNumber)
	if importNumber == "" {
		return nil, shared.NewDomainError("INVALID_IMPORT_NUMBER", "Import number cannot be empty")
	}
	if len(importNumber) > 100 {
		return nil, shared.NewDomainError("INVALID_IMPORT_NUMBER", "Import number cannot exceed 100 characters")
	}
	if warehouseID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_WAREHOUSE", "Warehouse ID cannot be empty")
	}
	if fileName == "" {
		return nil, shared.NewDomainError("INVALID_FILE_NAME", "File name cannot be empty")
	}
	if len(fileName) > 255 {
		return nil, shared.NewDomainError("INVALID_FILE_NAME", "File name cannot exceed 255 characters")
	}
	if periodTo.Before(periodFrom) {
		return nil, shared.NewDomainError("INVALID_PERIOD", "Sales period end cannot be before period start")
	}
	if len(notes) > 1000 {
		return nil, shared.NewDomainError("INVALID_NOTES", "Notes cannot exceed 1000 characters")
	}

	imp := &SalesImport{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ImportNumber:      importNumber,
		ImportDate:        importDate,
		SalesPeriodFrom:   periodFrom,
		SalesPeriodTo:     periodTo,
		WarehouseID:       warehouseID,
		FileName:          fileName,
		Notes:             notes,
		Status:            ImportStatusPending,
		TotalQuantity:     decimal.Zero,
		TotalValue:        decimal.Zero,
		Items:             make([]SalesImportItem, 0),
	}
	if createdBy != uuid.Nil {
		imp.CreatedBy = &createdBy
	}

	return imp, nil
}

// AddItem appends a parsed row to the import
func (si *SalesImport) AddItem(item *SalesImportItem) {
	si.Items = append(si.Items, *item)
}

// UpdateStatistics replaces the aggregate statistics. Called first with raw
// parse counts, then again after processing with the per-row outcome tally.
func (si *SalesImport) UpdateStatistics(total, processed, errors int, totalQuantity, totalValue decimal.Decimal) {
	si.TotalRecords = total
	si.ProcessedRecords = processed
	si.ErrorRecords = errors
	si.TotalQuantity = totalQuantity
	si.TotalValue = totalValue
	si.UpdatedAt = time.Now()
	si.IncrementVersion()
}

// UpdateStatus moves the import to a new lifecycle status. The orchestrator
// chooses the next status; only membership in the named set is enforced.
func (si *SalesImport) UpdateStatus(status ImportStatus) error {
	if !status.IsValid() {
		return shared.NewDomainError("INVALID_STATUS", fmt.Sprintf("Invalid import status: %s", status))
	}

	si.Status = status
	si.UpdatedAt = time.Now()
	si.IncrementVersion()

	return nil
}

// Reverse flags a completed import as reversed. Offsetting inventory
// transactions are posted by the application layer.
func (si *SalesImport) Reverse(reason string) error {
	if si.Status != ImportStatusCompleted {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Only completed imports can be reversed, current status: %s", si.Status))
	}
	if si.IsReversed {
		return shared.NewDomainError("ALREADY_REVERSED", "Import has already been reversed")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return shared.NewDomainError("INVALID_REASON", "Reversal reason cannot be empty")
	}
	if len(reason) > 500 {
		return shared.NewDomainError("INVALID_REASON", "Reversal reason cannot exceed 500 characters")
	}

	now := time.Now()
	si.IsReversed = true
	si.ReversedAt = &now
	si.ReversalReason = reason
	si.UpdatedAt = now
	si.IncrementVersion()

	return nil
}

// RecalculateFromItems tallies statistics from the per-row outcomes.
// Quantity and value only count processed rows, so the totals reflect
// what was actually posted to inventory.
func (si *SalesImport) RecalculateFromItems() {
	total := len(si.Items)
	processed := 0
	quantity := decimal.Zero
	value := decimal.Zero
	for i := range si.Items {
		if !si.Items[i].IsProcessed {
			continue
		}
		processed++
		quantity = quantity.Add(si.Items[i].QuantitySold)
		value = value.Add(si.Items[i].TotalAmount)
	}
	si.UpdateStatistics(total, processed, total-processed, quantity, value)
}

// ProcessedItems returns the rows that were successfully posted
func (si *SalesImport) ProcessedItems() []SalesImportItem {
	processed := make([]SalesImportItem, 0, len(si.Items))
	for i := range si.Items {
		if si.Items[i].IsProcessed {
			processed = append(processed, si.Items[i])
		}
	}
	return processed
}

// ErrorItems returns the rows that failed matching or posting
func (si *SalesImport) ErrorItems() []SalesImportItem {
	errored := make([]SalesImportItem, 0)
	for i := range si.Items {
		if si.Items[i].ErrorMessage != "" {
			errored = append(errored, si.Items[i])
		}
	}
	return errored
}

// SuccessRate returns the processed-row percentage (0-100)
func (si *SalesImport) SuccessRate() float64 {
	if si.TotalRecords == 0 {
		return 0
	}
	return float64(si.ProcessedRecords) / float64(si.TotalRecords) * 100
}
