package market

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// PriceCache is a Redis-backed read-through cache for quotes.
// A nil *PriceCache is valid and behaves as a cache that always misses.
type PriceCache struct {
	client *redis.Client
	ttl    time.Duration
}

type cacheEntry struct {
	Quote    Quote     `json:"quote"`
	CachedAt time.Time `json:"cached_at"`
}

// NewPriceCache creates a price cache. Returns nil when client is nil so
// callers can run without Redis.
func NewPriceCache(client *redis.Client, ttl time.Duration) *PriceCache {
	if client == nil {
		return nil
	}
	if ttl == 0 {
		ttl = 60 * time.Second
	}
	return &PriceCache{client: client, ttl: ttl}
}

// Get retrieves a cached quote. A miss or any Redis error returns false.
func (c *PriceCache) Get(ctx context.Context, symbol string) (*Quote, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}

	key := c.buildKey(symbol)

	// Short timeout so a slow Redis never blocks a fetch
	cacheCtx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()

	cached, err := c.client.Get(cacheCtx, key).Result()
	if err != nil {
		if err != redis.Nil {
			log.Debug().
				Err(err).
				Str("key", key).
				Msg("Redis get error - treating as cache miss")
		}
		return nil, false
	}

	var entry cacheEntry
	if err := json.Unmarshal([]byte(cached), &entry); err != nil {
		log.Warn().
			Err(err).
			Str("key", key).
			Msg("Failed to unmarshal cached quote")
		return nil, false
	}

	return &entry.Quote, true
}

// Set stores a quote with the configured TTL. Failures are logged, not
// returned; caching is best effort.
func (c *PriceCache) Set(ctx context.Context, symbol string, quote *Quote) {
	if c == nil || c.client == nil || quote == nil {
		return
	}

	entry := cacheEntry{Quote: *quote, CachedAt: time.Now()}
	data, err := json.Marshal(entry)
	if err != nil {
		log.Warn().Err(err).Str("symbol", symbol).Msg("Failed to marshal quote for cache")
		return
	}

	cacheCtx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()

	if err := c.client.Set(cacheCtx, c.buildKey(symbol), data, c.ttl).Err(); err != nil {
		log.Warn().Err(err).Str("symbol", symbol).Msg("Failed to cache quote")
	}
}

func (c *PriceCache) buildKey(symbol string) string {
	return fmt.Sprintf("price:%s", symbol)
}
