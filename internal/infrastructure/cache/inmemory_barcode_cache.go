package cache

import (
	"context"
	"sync"
	"time"
)

// cacheEntry represents a stored item with expiration
type cacheEntry struct {
	item      CachedItem
	expiresAt time.Time
}

// InMemoryBarcodeCache implements BarcodeCache using an in-memory map.
// Suitable for single-instance deployments and testing.
type InMemoryBarcodeCache struct {
	mu        sync.RWMutex
	entries   map[string]cacheEntry
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryBarcodeCache creates a new in-memory barcode cache.
// It starts a background goroutine to clean up expired entries.
func NewInMemoryBarcodeCache() *InMemoryBarcodeCache {
	cache := &InMemoryBarcodeCache{
		entries:  make(map[string]cacheEntry),
		stopChan: make(chan struct{}),
	}

	cache.wg.Add(1)
	go cache.cleanupLoop()

	return cache
}

// GetMany returns cached entries and the barcodes that missed
func (c *InMemoryBarcodeCache) GetMany(ctx context.Context, barcodes []string) (map[string]CachedItem, []string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	found := make(map[string]CachedItem, len(barcodes))
	var missing []string
	now := time.Now()
	for _, b := range barcodes {
		e, ok := c.entries[b]
		if !ok || now.After(e.expiresAt) {
			missing = append(missing, b)
			continue
		}
		found[b] = e.item
	}

	return found, missing, nil
}

// SetMany stores entries with a TTL
func (c *InMemoryBarcodeCache) SetMany(ctx context.Context, items map[string]CachedItem, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt := time.Now().Add(ttl)
	for barcode, item := range items {
		c.entries[barcode] = cacheEntry{item: item, expiresAt: expiresAt}
	}
	return nil
}

// Invalidate removes entries for the given barcodes
func (c *InMemoryBarcodeCache) Invalidate(ctx context.Context, barcodes []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, b := range barcodes {
		delete(c.entries, b)
	}
	return nil
}

// Close stops the cleanup goroutine. Safe to call multiple times.
func (c *InMemoryBarcodeCache) Close() error {
	c.closeOnce.Do(func() {
		close(c.stopChan)
		c.wg.Wait()
	})
	return nil
}

// Size returns the number of entries (for testing/monitoring)
func (c *InMemoryBarcodeCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// cleanupLoop periodically removes expired entries
func (c *InMemoryBarcodeCache) cleanupLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopChan:
			return
		case <-ticker.C:
			c.cleanup()
		}
	}
}

// cleanup removes expired entries from the cache
func (c *InMemoryBarcodeCache) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for barcode, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, barcode)
		}
	}
}

// Ensure InMemoryBarcodeCache implements BarcodeCache
var _ BarcodeCache = (*InMemoryBarcodeCache)(nil)
