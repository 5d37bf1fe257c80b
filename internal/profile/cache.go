package profile

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"catalog-service/internal/domain"
)

const sellerKeyPrefix = "catalog:seller:"

// CachedClient keeps seller profiles in Redis for ttl. Redis failures are
// logged and the call falls through to the wrapped client.
type CachedClient struct {
	next   Client
	rdb    redis.Cmdable
	ttl    time.Duration
	logger *zap.Logger
}

func NewCachedClient(next Client, rdb redis.Cmdable, ttl time.Duration, logger *zap.Logger) *CachedClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedClient{next: next, rdb: rdb, ttl: ttl, logger: logger}
}

func (c *CachedClient) GetSeller(ctx context.Context, id uuid.UUID) (*domain.Seller, error) {
	key := sellerKeyPrefix + id.String()

	data, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var seller domain.Seller
		if jsonErr := json.Unmarshal(data, &seller); jsonErr == nil {
			c.logger.Debug("Cache hit", zap.String("key", key))
			return &seller, nil
		}
		c.logger.Warn("Dropping undecodable cached seller", zap.String("key", key))
	case errors.Is(err, redis.Nil):
	default:
		c.logger.Warn("Failed to get seller from cache", zap.String("key", key), zap.Error(err))
	}

	seller, err := c.next.GetSeller(ctx, id)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(seller); err == nil {
		if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
			c.logger.Warn("Failed to cache seller", zap.String("key", key), zap.Error(err))
		}
	}
	return seller, nil
}
