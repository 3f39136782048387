package pricing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"feedscope/internal/cache"
	"feedscope/internal/model"
)

// DefaultPriceTTL bounds how long a resolved price is reused. Price
// caching is a separate tier from the 1-hour feed-metadata cache and
// the two must not share an instance.
const DefaultPriceTTL = 30 * time.Second

// PriceCache memoizes resolved prices per (chain, token).
type PriceCache interface {
	Get(ctx context.Context, chainID uint64, tokenAddress string) (model.ResolvedPrice, bool, error)
	Set(ctx context.Context, price model.ResolvedPrice) error
}

// MemoryPriceCache is the in-process PriceCache.
type MemoryPriceCache struct {
	cache *cache.Cache[model.ResolvedPrice]
	ttl   time.Duration
}

// NewMemoryPriceCache creates a MemoryPriceCache with the given TTL.
func NewMemoryPriceCache(ttl time.Duration) *MemoryPriceCache {
	if ttl <= 0 {
		ttl = DefaultPriceTTL
	}
	return &MemoryPriceCache{
		cache: cache.New[model.ResolvedPrice](),
		ttl:   ttl,
	}
}

var _ PriceCache = (*MemoryPriceCache)(nil)

func priceKey(chainID uint64, tokenAddress string) string {
	return fmt.Sprintf("price:%d:%s", chainID, strings.ToLower(tokenAddress))
}

// Get returns an unexpired cached price.
func (c *MemoryPriceCache) Get(_ context.Context, chainID uint64, tokenAddress string) (model.ResolvedPrice, bool, error) {
	entry, ok := c.cache.Get(priceKey(chainID, tokenAddress))
	if !ok {
		return model.ResolvedPrice{}, false, nil
	}
	return entry.Data, true, nil
}

// Set stores a resolved price for the configured TTL.
func (c *MemoryPriceCache) Set(_ context.Context, price model.ResolvedPrice) error {
	c.cache.Set(priceKey(price.ChainID, price.TokenAddress), price, c.ttl)
	return nil
}
