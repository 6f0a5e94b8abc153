package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/makkenzo/entitlement-service/internal/domain/cipherconfig"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const cipherKeyPrefix = "cipher:"

// CipherCache keeps resolved key/IV pairs in a Redis hash per config id.
type CipherCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewCipherCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *CipherCache {
	return &CipherCache{
		client: client,
		ttl:    ttl,
		logger: logger.Named("CipherCache"),
	}
}

var _ cipherconfig.Cache = (*CipherCache)(nil)

func (c *CipherCache) Get(ctx context.Context, configID string) (cipherconfig.Material, error) {
	fields, err := c.client.HGetAll(ctx, cipherKeyPrefix+configID).Result()
	if err != nil {
		return cipherconfig.Material{}, fmt.Errorf("redis hgetall: %w", err)
	}
	key, okKey := fields["key"]
	iv, okIV := fields["iv"]
	if !okKey || !okIV {
		return cipherconfig.Material{}, cipherconfig.ErrCacheMiss
	}
	return cipherconfig.Material{ConfigID: configID, Key: key, IV: iv}, nil
}

func (c *CipherCache) Set(ctx context.Context, m cipherconfig.Material) error {
	redisKey := cipherKeyPrefix + m.ConfigID
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, redisKey, "key", m.Key, "iv", m.IV)
		if c.ttl > 0 {
			pipe.Expire(ctx, redisKey, c.ttl)
		}
		return nil
	})
	if err != nil {
		c.logger.Warn("Failed to cache cipher material", zap.String("config_id", m.ConfigID), zap.Error(err))
		return fmt.Errorf("redis cache set: %w", err)
	}
	return nil
}

func (c *CipherCache) Invalidate(ctx context.Context, configID string) error {
	if err := c.client.Del(ctx, cipherKeyPrefix+configID).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	c.logger.Debug("Cipher material invalidated", zap.String("config_id", configID))
	return nil
}
