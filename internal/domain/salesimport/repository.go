package salesimport

import (
	"context"

	"github.com/erp/salesimport/internal/domain/shared"
	"github.com/google/uuid"
)

// SalesImportRepository defines the interface for sales import persistence
type SalesImportRepository interface {
	// FindByID finds an import by its ID, without items
	FindByID(ctx context.Context, id uuid.UUID) (*SalesImport, error)

	// FindByIDWithItems finds an import by its ID, items preloaded in
	// line-number order
	FindByIDWithItems(ctx context.Context, id uuid.UUID) (*SalesImport, error)

	// FindByImportNumber finds an import by its unique import number
	FindByImportNumber(ctx context.Context, importNumber string) (*SalesImport, error)

	// FindAll finds imports matching the filter
	FindAll(ctx context.Context, filter shared.Filter) ([]SalesImport, error)

	// Save creates or updates an import together with its items
	Save(ctx context.Context, imp *SalesImport) error

	// Count counts imports matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// ExistsByImportNumber checks whether an import number is already used
	ExistsByImportNumber(ctx context.Context, importNumber string) (bool, error)
}
