package cache

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CachedItem is the catalog projection stored per barcode. It carries just
// what the sales import matcher needs to post a transaction.
type CachedItem struct {
	ItemID  uuid.UUID       `json:"item_id"`
	Barcode string          `json:"barcode"`
	Name    string          `json:"name"`
	Cost    decimal.Decimal `json:"cost"`
}

// BarcodeCache is a read-through cache in front of the catalog's bulk
// barcode lookup. Keys are lowercased barcodes.
type BarcodeCache interface {
	// GetMany returns cached entries for the given lowercased barcodes,
	// plus the barcodes that were not cached
	GetMany(ctx context.Context, barcodes []string) (map[string]CachedItem, []string, error)

	// SetMany stores entries keyed by lowercased barcode with a TTL
	SetMany(ctx context.Context, items map[string]CachedItem, ttl time.Duration) error

	// Invalidate removes the given lowercased barcodes from the cache
	Invalidate(ctx context.Context, barcodes []string) error

	// Close releases cache resources
	Close() error
}
