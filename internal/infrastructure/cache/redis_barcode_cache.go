package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// RedisBarcodeCache implements BarcodeCache using Redis. Suitable for
// distributed deployments where multiple instances share lookup state.
type RedisBarcodeCache struct {
	client     *redis.Client
	ownsClient bool // true if we created the client and should close it
	keyPrefix  string
}

// NewRedisBarcodeCache creates a new Redis-based barcode cache
func NewRedisBarcodeCache(cfg RedisConfig) (*RedisBarcodeCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisBarcodeCache{
		client:     client,
		ownsClient: true,
		keyPrefix:  "catalog:barcode:",
	}, nil
}

// NewRedisBarcodeCacheWithClient creates a cache with an existing Redis client.
// The caller retains ownership of the client and is responsible for closing it.
func NewRedisBarcodeCacheWithClient(client *redis.Client, keyPrefix string) *RedisBarcodeCache {
	if keyPrefix == "" {
		keyPrefix = "catalog:barcode:"
	}
	return &RedisBarcodeCache{
		client:     client,
		ownsClient: false,
		keyPrefix:  keyPrefix,
	}
}

// GetMany fetches cached entries with a single MGET
func (c *RedisBarcodeCache) GetMany(ctx context.Context, barcodes []string) (map[string]CachedItem, []string, error) {
	if len(barcodes) == 0 {
		return map[string]CachedItem{}, nil, nil
	}

	keys := make([]string, len(barcodes))
	for i, b := range barcodes {
		keys[i] = c.keyPrefix + b
	}

	values, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read barcode cache: %w", err)
	}

	found := make(map[string]CachedItem, len(barcodes))
	var missing []string
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			missing = append(missing, barcodes[i])
			continue
		}
		var item CachedItem
		if err := json.Unmarshal([]byte(raw), &item); err != nil {
			// Corrupt entry: treat as a miss so it gets rewritten.
			missing = append(missing, barcodes[i])
			continue
		}
		found[barcodes[i]] = item
	}

	return found, missing, nil
}

// SetMany stores entries with one pipelined round trip
func (c *RedisBarcodeCache) SetMany(ctx context.Context, items map[string]CachedItem, ttl time.Duration) error {
	if len(items) == 0 {
		return nil
	}

	pipe := c.client.Pipeline()
	for barcode, item := range items {
		data, err := json.Marshal(item)
		if err != nil {
			return fmt.Errorf("failed to marshal cached item: %w", err)
		}
		pipe.Set(ctx, c.keyPrefix+barcode, data, ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to write barcode cache: %w", err)
	}
	return nil
}

// Invalidate removes entries for the given barcodes
func (c *RedisBarcodeCache) Invalidate(ctx context.Context, barcodes []string) error {
	if len(barcodes) == 0 {
		return nil
	}

	keys := make([]string, len(barcodes))
	for i, b := range barcodes {
		keys[i] = c.keyPrefix + b
	}

	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to invalidate barcode cache: %w", err)
	}
	return nil
}

// Close closes the Redis client when this cache owns it
func (c *RedisBarcodeCache) Close() error {
	if c.ownsClient {
		return c.client.Close()
	}
	return nil
}

// Ensure RedisBarcodeCache implements BarcodeCache
var _ BarcodeCache = (*RedisBarcodeCache)(nil)
