package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"feedscope/internal/model"
	"feedscope/internal/pricing"
)

// PriceCache implements pricing.PriceCache on Redis. Each resolved
// price is stored as JSON under "price:{chainID}:{token}" with the
// TTL enforced by Redis itself.
type PriceCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewPriceCache creates a PriceCache backed by the given Client.
func NewPriceCache(c *Client, ttl time.Duration) *PriceCache {
	if ttl <= 0 {
		ttl = pricing.DefaultPriceTTL
	}
	return &PriceCache{rdb: c.Underlying(), ttl: ttl}
}

var _ pricing.PriceCache = (*PriceCache)(nil)

func priceKey(chainID uint64, tokenAddress string) string {
	return fmt.Sprintf("price:%d:%s", chainID, strings.ToLower(tokenAddress))
}

// Get retrieves a cached price; a missing key is a miss, not an error.
func (pc *PriceCache) Get(ctx context.Context, chainID uint64, tokenAddress string) (model.ResolvedPrice, bool, error) {
	raw, err := pc.rdb.Get(ctx, priceKey(chainID, tokenAddress)).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.ResolvedPrice{}, false, nil
	}
	if err != nil {
		return model.ResolvedPrice{}, false, fmt.Errorf("redis: get price: %w", err)
	}

	var price model.ResolvedPrice
	if err := json.Unmarshal(raw, &price); err != nil {
		return model.ResolvedPrice{}, false, fmt.Errorf("redis: decode price: %w", err)
	}
	return price, true, nil
}

// Set stores a resolved price for the configured TTL.
func (pc *PriceCache) Set(ctx context.Context, price model.ResolvedPrice) error {
	raw, err := json.Marshal(price)
	if err != nil {
		return fmt.Errorf("redis: encode price: %w", err)
	}
	if err := pc.rdb.Set(ctx, priceKey(price.ChainID, price.TokenAddress), raw, pc.ttl).Err(); err != nil {
		return fmt.Errorf("redis: set price: %w", err)
	}
	return nil
}
