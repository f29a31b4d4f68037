package catalog

import (
	"context"

	"github.com/erp/salesimport/internal/domain/shared"
	"github.com/google/uuid"
)

// ItemRepository defines the interface for catalog item persistence
type ItemRepository interface {
	// FindByID finds an item by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Item, error)

	// FindBySKU finds an item by its SKU
	FindBySKU(ctx context.Context, sku string) (*Item, error)

	// FindByBarcodes finds items whose barcode matches any of the given
	// values. Matching is case-insensitive; callers pass lowercased values.
	FindByBarcodes(ctx context.Context, barcodes []string) ([]Item, error)

	// FindAll finds all items matching the filter
	FindAll(ctx context.Context, filter shared.Filter) ([]Item, error)

	// Save creates or updates an item
	Save(ctx context.Context, item *Item) error

	// Delete deletes an item
	Delete(ctx context.Context, id uuid.UUID) error

	// Count counts items matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)
}
