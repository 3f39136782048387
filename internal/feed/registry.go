package feed

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"feedscope/internal/model"
)

// Source supplies feed metadata grouped by network name.
type Source interface {
	Networks(ctx context.Context) (map[string]model.NetworkFeedSet, error)
}

// ChainNetworks maps supported chain ids to reference-data network
// names. The set of supported chains is explicit; chains outside this
// table are rejected, never inferred.
var ChainNetworks = map[uint64]string{
	1:     "ethereum-mainnet",
	10:    "optimism-mainnet",
	56:    "bsc-mainnet",
	137:   "polygon-mainnet",
	8453:  "base-mainnet",
	42161: "arbitrum-mainnet",
	43114: "avalanche-mainnet",
}

// Registry answers "which feed prices this token in USD on this
// chain". It is a pure lookup over the source's metadata plus a
// token-to-feed-name table; population of the metadata is the
// source's concern.
type Registry struct {
	source     Source
	tokenFeeds map[uint64]map[string]string
	logger     *zap.Logger
}

// NewRegistry builds a Registry. Token addresses in the mapping are
// normalized to lowercase so checksum casing never misses a lookup.
func NewRegistry(source Source, tokenFeeds map[uint64]map[string]string, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	normalized := make(map[uint64]map[string]string, len(tokenFeeds))
	for chainID, tokens := range tokenFeeds {
		byToken := make(map[string]string, len(tokens))
		for token, feedName := range tokens {
			byToken[strings.ToLower(token)] = feedName
		}
		normalized[chainID] = byToken
	}
	return &Registry{
		source:     source,
		tokenFeeds: normalized,
		logger:     logger,
	}
}

// Resolve looks up the feed serving tokenAddress on chainID. The
// second return value is false when no feed is mapped for the token;
// that is an expected outcome, not an error. It fails with
// model.ErrUnsupportedChain for chains outside ChainNetworks and with
// model.ErrConfiguration when a mapped feed name is missing from the
// chain's feed list.
func (r *Registry) Resolve(ctx context.Context, chainID uint64, tokenAddress string) (model.FeedLookupResult, bool, error) {
	networkName, ok := ChainNetworks[chainID]
	if !ok {
		return model.FeedLookupResult{}, false, fmt.Errorf("%w: chain %d", model.ErrUnsupportedChain, chainID)
	}

	feedName, ok := r.tokenFeeds[chainID][strings.ToLower(tokenAddress)]
	if !ok {
		return model.FeedLookupResult{}, false, nil
	}

	networks, err := r.source.Networks(ctx)
	if err != nil {
		return model.FeedLookupResult{}, false, err
	}

	set, ok := networks[networkName]
	if !ok {
		return model.FeedLookupResult{}, false, nil
	}

	var inactive bool
	for _, feed := range set.Feeds {
		if feed.Name != feedName {
			continue
		}
		if !feed.FeedCategory.Active() {
			inactive = true
			continue
		}
		return model.FeedLookupResult{
			Feed:        feed,
			NetworkName: set.NetworkName,
			RPCURL:      set.BaseRPCURL,
		}, true, nil
	}

	if inactive {
		r.logger.Info("feed exists but is not active",
			zap.String("feed", feedName),
			zap.String("network", networkName),
		)
		return model.FeedLookupResult{}, false, nil
	}

	return model.FeedLookupResult{}, false, fmt.Errorf(
		"%w: token %s on chain %d maps to feed %q which is absent from %s",
		model.ErrConfiguration, strings.ToLower(tokenAddress), chainID, feedName, networkName,
	)
}

// Feeds lists the feeds known for a chain, active or not.
func (r *Registry) Feeds(ctx context.Context, chainID uint64) ([]model.FeedDescriptor, error) {
	networkName, ok := ChainNetworks[chainID]
	if !ok {
		return nil, fmt.Errorf("%w: chain %d", model.ErrUnsupportedChain, chainID)
	}

	networks, err := r.source.Networks(ctx)
	if err != nil {
		return nil, err
	}

	set, ok := networks[networkName]
	if !ok {
		return nil, nil
	}
	return set.Feeds, nil
}

// Available reports whether feed metadata can currently be obtained.
// It never fails; any source error degrades to false.
func (r *Registry) Available(ctx context.Context) bool {
	if _, err := r.source.Networks(ctx); err != nil {
		r.logger.Warn("feed metadata unavailable", zap.Error(err))
		return false
	}
	return true
}
