package cache

import (
	"fmt"

	"github.com/erp/salesimport/internal/infrastructure/config"
	"go.uber.org/zap"
)

// BarcodeCacheFactory creates barcode caches based on configuration
type BarcodeCacheFactory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// BarcodeCacheFactoryOption is a functional option for configuring the factory
type BarcodeCacheFactoryOption func(*BarcodeCacheFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) BarcodeCacheFactoryOption {
	return func(f *BarcodeCacheFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to an in-memory cache
// when Redis is unavailable. Default is true.
func WithInMemoryFallback(allow bool) BarcodeCacheFactoryOption {
	return func(f *BarcodeCacheFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewBarcodeCacheFactory creates a new factory
func NewBarcodeCacheFactory(cfg config.RedisConfig, opts ...BarcodeCacheFactoryOption) *BarcodeCacheFactory {
	f := &BarcodeCacheFactory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// CreateCache creates a barcode cache, trying Redis first and falling back
// to an in-memory cache when Redis is unavailable and fallback is allowed
func (f *BarcodeCacheFactory) CreateCache() (BarcodeCache, error) {
	redisCache, err := NewRedisBarcodeCache(RedisConfig{
		Host:     f.redisConfig.Host,
		Port:     f.redisConfig.Port,
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	})
	if err == nil {
		f.logger.Info("Using Redis barcode cache",
			zap.String("host", f.redisConfig.Host),
			zap.Int("port", f.redisConfig.Port),
		)
		return redisCache, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("failed to create Redis barcode cache: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory barcode cache",
		zap.Error(err),
	)
	return NewInMemoryBarcodeCache(), nil
}
