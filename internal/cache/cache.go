// Package cache keeps computed results keyed by their normalized request.
// Results are recomputable, so callers treat every cache failure as a miss.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/iwvelando/emi-calculator/pkg/constants"
	"go.uber.org/zap"
)

// Cache stores opaque values by key.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte) error
}

// Key derives a stable cache key from a normalized request encoding.
func Key(normalized []byte) string {
	sum := sha256.Sum256(normalized)
	return "emi:" + hex.EncodeToString(sum[:])
}

// New builds the Cache for driver. A nil Cache means caching is disabled.
func New(driver, address string, ttl time.Duration, logger *zap.Logger) (Cache, error) {
	switch driver {
	case "", constants.CacheDriverNone:
		return nil, nil
	case constants.CacheDriverMemory:
		return NewMemoryCache(ttl), nil
	case constants.CacheDriverRedis:
		return NewRedisCache(address, ttl, logger), nil
	default:
		return nil, fmt.Errorf("unknown cache driver %q, expected %s, %s or %s",
			driver, constants.CacheDriverNone, constants.CacheDriverMemory, constants.CacheDriverRedis)
	}
}
