package cache

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const heroKeyPrefix = "superhero:hero:"

// ByteStore is the subset of CacheService the hero cache needs.
type ByteStore interface {
	GetBytes(ctx context.Context, key string) ([]byte, error)
	SetBytes(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// HeroResponseCache keeps raw API bodies by hero id. Only responses that
// already passed validation are stored. Failures are logged and treated as a
// miss so the fetch falls through to the network.
type HeroResponseCache struct {
	store  ByteStore
	ttl    time.Duration
	logger *zap.Logger
}

func NewHeroResponseCache(store ByteStore, ttl time.Duration, logger *zap.Logger) *HeroResponseCache {
	return &HeroResponseCache{
		store:  store,
		ttl:    ttl,
		logger: logger,
	}
}

func HeroKey(id int) string {
	return fmt.Sprintf("%s%d", heroKeyPrefix, id)
}

func (c *HeroResponseCache) GetHeroResponse(ctx context.Context, id int) ([]byte, bool) {
	body, err := c.store.GetBytes(ctx, HeroKey(id))
	if err != nil {
		c.logger.Warn("Hero cache lookup failed", zap.Int("hero_id", id), zap.Error(err))
		return nil, false
	}
	if len(body) == 0 {
		return nil, false
	}
	c.logger.Debug("Hero cache hit", zap.Int("hero_id", id))
	return body, true
}

func (c *HeroResponseCache) SetHeroResponse(ctx context.Context, id int, body []byte) {
	if err := c.store.SetBytes(ctx, HeroKey(id), body, c.ttl); err != nil {
		c.logger.Warn("Hero cache store failed", zap.Int("hero_id", id), zap.Error(err))
	}
}
