package pricing

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"feedscope/internal/metrics"
	"feedscope/internal/model"
)

// FeedResolver answers which feed serves a token on a chain.
type FeedResolver interface {
	Resolve(ctx context.Context, chainID uint64, tokenAddress string) (model.FeedLookupResult, bool, error)
	Available(ctx context.Context) bool
}

// OracleReader performs the on-chain price read for a resolved feed.
type OracleReader interface {
	GetLatestPrice(ctx context.Context, feedAddress common.Address, chainID uint64) (model.RawPriceReading, error)
}

// Service is the single public entry point for "what is the USD price
// of token T on chain C". Each call is a single attempt; retry policy
// is the caller's concern.
type Service struct {
	registry FeedResolver
	oracle   OracleReader
	prices   PriceCache
	logger   *zap.Logger
	now      func() time.Time
}

// NewService wires the resolver, oracle reader, and an optional price
// cache (nil disables price-level caching; feed metadata caching lives
// inside the resolver's source and is unaffected).
func NewService(registry FeedResolver, oracleReader OracleReader, prices PriceCache, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		registry: registry,
		oracle:   oracleReader,
		prices:   prices,
		logger:   logger,
		now:      time.Now,
	}
}

// GetTokenPrice resolves the current USD price of tokenAddress on
// chainID. Errors carry the taxonomy sentinels from the model package;
// model.ErrNoFeedAvailable is the expected outcome for unmapped tokens
// and is never logged above info.
func (s *Service) GetTokenPrice(ctx context.Context, tokenAddress string, chainID uint64) (model.ResolvedPrice, error) {
	if !common.IsHexAddress(tokenAddress) {
		return model.ResolvedPrice{}, fmt.Errorf("%w: token address %q", model.ErrValidation, tokenAddress)
	}
	if chainID == 0 {
		return model.ResolvedPrice{}, fmt.Errorf("%w: chain id must be positive", model.ErrValidation)
	}

	token := strings.ToLower(tokenAddress)
	chainLabel := strconv.FormatUint(chainID, 10)

	if s.prices != nil {
		cached, ok, err := s.prices.Get(ctx, chainID, token)
		switch {
		case err != nil:
			metrics.PriceCacheRequests.WithLabelValues("error").Inc()
			s.logger.Warn("price cache read failed", zap.Error(err))
		case ok:
			metrics.PriceCacheRequests.WithLabelValues("hit").Inc()
			metrics.ResolutionsTotal.WithLabelValues(chainLabel, "cached").Inc()
			return cached, nil
		default:
			metrics.PriceCacheRequests.WithLabelValues("miss").Inc()
		}
	}

	lookup, found, err := s.registry.Resolve(ctx, chainID, token)
	if err != nil {
		metrics.ResolutionsTotal.WithLabelValues(chainLabel, outcome(err)).Inc()
		return model.ResolvedPrice{}, err
	}
	if !found {
		metrics.ResolutionsTotal.WithLabelValues(chainLabel, "no_feed").Inc()
		s.logger.Info("no feed available",
			zap.String("token", token),
			zap.Uint64("chain_id", chainID),
		)
		return model.ResolvedPrice{}, fmt.Errorf("%w: token %s on chain %d", model.ErrNoFeedAvailable, token, chainID)
	}

	reading, err := s.oracle.GetLatestPrice(ctx, common.HexToAddress(lookup.Feed.ProxyAddress), chainID)
	if err != nil {
		metrics.ResolutionsTotal.WithLabelValues(chainLabel, outcome(err)).Inc()
		return model.ResolvedPrice{}, err
	}

	resolved := model.ResolvedPrice{
		TokenAddress: token,
		ChainID:      chainID,
		Price:        decimal.NewFromBigInt(reading.Answer, -int32(reading.Decimals)),
		Decimals:     reading.Decimals,
		RoundID:      reading.RoundID.String(),
		UpdatedAt:    reading.UpdatedAt,
		FeedAddress:  lookup.Feed.ProxyAddress,
		FeedName:     lookup.Feed.Name,
		Source:       model.PriceSourceChainlink,
		ResolvedAt:   s.now().UTC(),
	}

	if s.prices != nil {
		if err := s.prices.Set(ctx, resolved); err != nil {
			s.logger.Warn("price cache write failed", zap.Error(err))
		}
	}

	metrics.ResolutionsTotal.WithLabelValues(chainLabel, "ok").Inc()
	return resolved, nil
}

// IsAvailable reports whether feed metadata can currently be
// obtained. It never fails; any failure degrades to false.
func (s *Service) IsAvailable(ctx context.Context) bool {
	return s.registry.Available(ctx)
}

func outcome(err error) string {
	switch {
	case errors.Is(err, model.ErrUnsupportedChain):
		return "unsupported_chain"
	case errors.Is(err, model.ErrConfiguration):
		return "configuration"
	case errors.Is(err, model.ErrMetadataFetch):
		return "metadata_fetch"
	case errors.Is(err, model.ErrInvalidPriceData):
		return "invalid_price"
	case errors.Is(err, model.ErrOracleRead):
		return "oracle_read"
	default:
		return "error"
	}
}
