package partner

import (
	"strings"
	"time"

	"github.com/erp/salesimport/internal/domain/shared"
)

// WarehouseStatus represents the status of a warehouse
type WarehouseStatus string

const (
	WarehouseStatusActive   WarehouseStatus = "active"
	WarehouseStatusInactive WarehouseStatus = "inactive"
)

// WarehouseType represents the type of warehouse
type WarehouseType string

const (
	WarehouseTypePhysical WarehouseType = "physical" // Physical warehouse
	WarehouseTypeVirtual  WarehouseType = "virtual"  // Virtual/logical warehouse
)

// Warehouse represents a stock-holding location that sales imports target
type Warehouse struct {
	shared.BaseAggregateRoot
	Code        string          `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name        string          `gorm:"type:varchar(200);not null"`
	Type        WarehouseType   `gorm:"type:varchar(20);not null;default:'physical'"`
	Status      WarehouseStatus `gorm:"type:varchar(20);not null;default:'active'"`
	ContactName string          `gorm:"type:varchar(100)"`
	Phone       string          `gorm:"type:varchar(50)"`
	Address     string          `gorm:"type:text"`
	City        string          `gorm:"type:varchar(100)"`
	Notes       string          `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (Warehouse) TableName() string {
	return "warehouses"
}

// NewWarehouse creates a new warehouse with required fields
func NewWarehouse(code, name string, warehouseType WarehouseType) (*Warehouse, error) {
	if err := validateWarehouseCode(code); err != nil {
		return nil, err
	}
	if err := validateWarehouseName(name); err != nil {
		return nil, err
	}
	if err := validateWarehouseType(warehouseType); err != nil {
		return nil, err
	}

	return &Warehouse{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Code:              strings.ToUpper(code),
		Name:              name,
		Type:              warehouseType,
		Status:            WarehouseStatusActive,
	}, nil
}

// NewPhysicalWarehouse creates a new physical warehouse
func NewPhysicalWarehouse(code, name string) (*Warehouse, error) {
	return NewWarehouse(code, name, WarehouseTypePhysical)
}

// Update updates the warehouse's basic information
func (w *Warehouse) Update(name string) error {
	if err := validateWarehouseName(name); err != nil {
		return err
	}

	w.Name = name
	w.UpdatedAt = time.Now()
	w.IncrementVersion()

	return nil
}

// SetContact sets the warehouse's contact information
func (w *Warehouse) SetContact(contactName, phone string) error {
	if contactName != "" && len(contactName) > 100 {
		return shared.NewDomainError("INVALID_CONTACT_NAME", "Contact name cannot exceed 100 characters")
	}
	if phone != "" && len(phone) > 50 {
		return shared.NewDomainError("INVALID_PHONE", "Phone cannot exceed 50 characters")
	}

	w.ContactName = contactName
	w.Phone = phone
	w.UpdatedAt = time.Now()
	w.IncrementVersion()

	return nil
}

// SetAddress sets the warehouse's address information
func (w *Warehouse) SetAddress(address, city string) error {
	if address != "" && len(address) > 500 {
		return shared.NewDomainError("INVALID_ADDRESS", "Address cannot exceed 500 characters")
	}
	if city != "" && len(city) > 100 {
		return shared.NewDomainError("INVALID_CITY", "City cannot exceed 100 characters")
	}

	w.Address = address
	w.City = city
	w.UpdatedAt = time.Now()
	w.IncrementVersion()

	return nil
}

// Enable enables the warehouse (makes it active)
func (w *Warehouse) Enable() error {
	if w.Status == WarehouseStatusActive {
		return shared.NewDomainError("ALREADY_ACTIVE", "Warehouse is already active")
	}

	w.Status = WarehouseStatusActive
	w.UpdatedAt = time.Now()
	w.IncrementVersion()

	return nil
}

// Disable disables the warehouse (makes it inactive)
func (w *Warehouse) Disable() error {
	if w.Status == WarehouseStatusInactive {
		return shared.NewDomainError("ALREADY_INACTIVE", "Warehouse is already inactive")
	}

	w.Status = WarehouseStatusInactive
	w.UpdatedAt = time.Now()
	w.IncrementVersion()

	return nil
}

// IsActive returns true if the warehouse is active
func (w *Warehouse) IsActive() bool {
	return w.Status == WarehouseStatusActive
}

// Validation functions

func validateWarehouseCode(code string) error {
	if code == "" {
		return shared.NewDomainError("INVALID_CODE", "Warehouse code cannot be empty")
	}
	if len(code) > 50 {
		return shared.NewDomainError("INVALID_CODE", "Warehouse code cannot exceed 50 characters")
	}
	for _, r := range code {
		if !((r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '-') {
			return shared.NewDomainError("INVALID_CODE", "Warehouse code can only contain letters, numbers, underscores, and hyphens")
		}
	}
	return nil
}

func validateWarehouseName(name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Warehouse name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Warehouse name cannot exceed 200 characters")
	}
	return nil
}

func validateWarehouseType(t WarehouseType) error {
	switch t {
	case WarehouseTypePhysical, WarehouseTypeVirtual:
		return nil
	default:
		return shared.NewDomainError("INVALID_TYPE", "Invalid warehouse type")
	}
}
