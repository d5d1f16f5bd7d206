package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrCacheMiss is returned when no cart view is cached for the user.
var ErrCacheMiss = errors.New("cart view not in cache")

// CartCache keeps rendered cart views in Redis so hot GET /cart traffic
// skips the join against the product table. Views are invalidated on every
// cart mutation; the TTL only bounds staleness against product edits.
type CartCache struct {
	client  *redis.Client
	baseTTL time.Duration
}

func NewCartCache(client *redis.Client) *CartCache {
	return &CartCache{
		client:  client,
		baseTTL: 15 * time.Minute,
	}
}

func cacheKey(userID string) string {
	return "cart:" + userID
}

func (c *CartCache) Get(ctx context.Context, userID string, view interface{}) error {
	data, err := c.client.Get(ctx, cacheKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrCacheMiss
	}
	if err != nil {
		return fmt.Errorf("redis get failed: %w", err)
	}

	if err := json.Unmarshal(data, view); err != nil {
		return fmt.Errorf("unmarshal cart view failed: %w", err)
	}
	return nil
}

func (c *CartCache) Set(ctx context.Context, userID string, view interface{}) error {
	data, err := json.Marshal(view)
	if err != nil {
		return fmt.Errorf("marshal cart view failed: %w", err)
	}

	// Jitter spreads expiry so a burst of adds does not refill in lockstep.
	ttl := c.baseTTL + time.Duration(rand.Intn(300))*time.Second
	if err := c.client.Set(ctx, cacheKey(userID), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *CartCache) Invalidate(ctx context.Context, userID string) error {
	if err := c.client.Del(ctx, cacheKey(userID)).Err(); err != nil {
		return fmt.Errorf("redis del failed: %w", err)
	}
	return nil
}
