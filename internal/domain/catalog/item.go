package catalog

import (
	"strings"
	"time"

	"github.com/erp/salesimport/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ItemStatus represents the lifecycle status of a catalog item
type ItemStatus string

const (
	ItemStatusActive   ItemStatus = "active"
	ItemStatusInactive ItemStatus = "inactive"
)

// Item represents a sellable inventory item in the catalog.
// Sales import rows are matched against items by barcode.
type Item struct {
	shared.BaseAggregateRoot
	SKU          string          `gorm:"type:varchar(100);not null;uniqueIndex"`
	Barcode      string          `gorm:"type:varchar(100);not null;index"`
	Name         string          `gorm:"type:varchar(200);not null"`
	Unit         string          `gorm:"type:varchar(20);not null;default:'pcs'"`
	Cost         decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	SellingPrice decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Status       ItemStatus      `gorm:"type:varchar(20);not null;default:'active'"`
	Description  string          `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (Item) TableName() string {
	return "items"
}

// NewItem creates a new catalog item with required fields
func NewItem(sku, barcode, name string) (*Item, error) {
	if err := validateSKU(sku); err != nil {
		return nil, err
	}
	if err := validateBarcode(barcode); err != nil {
		return nil, err
	}
	if err := validateItemName(name); err != nil {
		return nil, err
	}

	return &Item{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		SKU:               strings.ToUpper(sku),
		Barcode:           strings.TrimSpace(barcode),
		Name:              name,
		Unit:              "pcs",
		Cost:              decimal.Zero,
		SellingPrice:      decimal.Zero,
		Status:            ItemStatusActive,
	}, nil
}

// Update updates the item's basic information
func (i *Item) Update(name, description string) error {
	if err := validateItemName(name); err != nil {
		return err
	}

	i.Name = name
	i.Description = description
	i.UpdatedAt = time.Now()
	i.IncrementVersion()

	return nil
}

// SetBarcode updates the item's barcode
func (i *Item) SetBarcode(barcode string) error {
	if err := validateBarcode(barcode); err != nil {
		return err
	}

	i.Barcode = strings.TrimSpace(barcode)
	i.UpdatedAt = time.Now()
	i.IncrementVersion()

	return nil
}

// SetCost sets the item's unit cost
func (i *Item) SetCost(cost decimal.Decimal) error {
	if cost.IsNegative() {
		return shared.NewDomainError("INVALID_COST", "Cost cannot be negative")
	}

	i.Cost = cost
	i.UpdatedAt = time.Now()
	i.IncrementVersion()

	return nil
}

// SetSellingPrice sets the item's selling price
func (i *Item) SetSellingPrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Selling price cannot be negative")
	}

	i.SellingPrice = price
	i.UpdatedAt = time.Now()
	i.IncrementVersion()

	return nil
}

// Deactivate marks the item as inactive
func (i *Item) Deactivate() error {
	if i.Status == ItemStatusInactive {
		return shared.NewDomainError("ALREADY_INACTIVE", "Item is already inactive")
	}

	i.Status = ItemStatusInactive
	i.UpdatedAt = time.Now()
	i.IncrementVersion()

	return nil
}

// Activate marks the item as active
func (i *Item) Activate() error {
	if i.Status == ItemStatusActive {
		return shared.NewDomainError("ALREADY_ACTIVE", "Item is already active")
	}

	i.Status = ItemStatusActive
	i.UpdatedAt = time.Now()
	i.IncrementVersion()

	return nil
}

// IsActive returns true if the item is active
func (i *Item) IsActive() bool {
	return i.Status == ItemStatusActive
}

// NormalizedBarcode returns the barcode lowered for case-insensitive matching
func (i *Item) NormalizedBarcode() string {
	return strings.ToLower(strings.TrimSpace(i.Barcode))
}

// Validation functions

func validateSKU(sku string) error {
	if sku == "" {
		return shared.NewDomainError("INVALID_SKU", "SKU cannot be empty")
	}
	if len(sku) > 100 {
		return shared.NewDomainError("INVALID_SKU", "SKU cannot exceed 100 characters")
	}
	return nil
}

func validateBarcode(barcode string) error {
	if strings.TrimSpace(barcode) == "" {
		return shared.NewDomainError("INVALID_BARCODE", "Barcode cannot be empty")
	}
	if len(barcode) > 100 {
		return shared.NewDomainError("INVALID_BARCODE", "Barcode cannot exceed 100 characters")
	}
	return nil
}

func validateItemName(name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Item name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Item name cannot exceed 200 characters")
	}
	return nil
}
