package salesimportapp

import (
	"time"

	"github.com/google/uuid"
)

// CreateImportInput carries everything needed to register one sales file
type CreateImportInput struct {
	ImportNumber    string
	ImportDate      time.Time
	SalesPeriodFrom time.Time
	SalesPeriodTo   time.Time
	WarehouseID     uuid.UUID
	FileName        string
	CSVData         string // base64-encoded or raw CSV text
	Notes           string
	AutoProcess     bool
}

// ImportListFilter narrows the import list query
type ImportListFilter struct {
	Page        int
	PageSize    int
	Status      string
	WarehouseID *uuid.UUID
	Search      string
}
