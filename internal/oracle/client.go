package oracle

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"feedscope/internal/chain"
	"feedscope/internal/metrics"
	"feedscope/internal/model"
)

// DefaultStaleAfter is the freshness window beyond which a reading is
// logged as stale. Stale-but-positive data is still returned; low
// volatility feeds legitimately update less than daily.
const DefaultStaleAfter = 24 * time.Hour

// ContractCaller performs one eth_call.
type ContractCaller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// CallerPool yields a ContractCaller per chain.
type CallerPool interface {
	Get(ctx context.Context, chainID uint64) (ContractCaller, error)
}

type chainPoolAdapter struct {
	pool *chain.Pool
}

func (a chainPoolAdapter) Get(ctx context.Context, chainID uint64) (ContractCaller, error) {
	return a.pool.Get(ctx, chainID)
}

// Client reads aggregator contracts. Exactly two eth_calls happen per
// price resolution: decimals and latestRoundData, issued concurrently
// and joined before validation. No retry policy lives here; retries
// belong to callers.
type Client struct {
	pool       CallerPool
	logger     *zap.Logger
	now        func() time.Time
	staleAfter time.Duration
}

// NewClient creates a Client on top of a chain pool.
func NewClient(pool *chain.Pool, logger *zap.Logger) *Client {
	return NewClientWithPool(chainPoolAdapter{pool: pool}, logger)
}

// NewClientWithPool creates a Client over any caller pool.
func NewClientWithPool(pool CallerPool, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		pool:       pool,
		logger:     logger,
		now:        time.Now,
		staleAfter: DefaultStaleAfter,
	}
}

// SetStaleAfter overrides the staleness warning window.
func (c *Client) SetStaleAfter(d time.Duration) {
	if d > 0 {
		c.staleAfter = d
	}
}

// GetLatestPrice reads decimals and the latest round from the feed at
// feedAddress on chainID. It fails with model.ErrUnsupportedChain when
// the chain has no configured endpoint, model.ErrInvalidPriceData when
// the answer is non-positive, and model.ErrOracleRead on transport
// failures.
func (c *Client) GetLatestPrice(ctx context.Context, feedAddress common.Address, chainID uint64) (model.RawPriceReading, error) {
	caller, err := c.pool.Get(ctx, chainID)
	if err != nil {
		if errors.Is(err, model.ErrUnsupportedChain) {
			return model.RawPriceReading{}, err
		}
		return model.RawPriceReading{}, fmt.Errorf("%w: %v", model.ErrOracleRead, err)
	}

	aggABI, err := AggregatorABI()
	if err != nil {
		return model.RawPriceReading{}, fmt.Errorf("parse aggregator abi: %w", err)
	}

	started := c.now()

	var (
		decimals  uint8
		roundID   *big.Int
		answer    *big.Int
		updatedAt *big.Int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		values, err := callFeed(gctx, caller, feedAddress, aggABI, "decimals")
		if err != nil {
			return err
		}
		d, ok := values[0].(uint8)
		if !ok {
			return fmt.Errorf("decimals unexpected type %T", values[0])
		}
		decimals = d
		return nil
	})
	g.Go(func() error {
		values, err := callFeed(gctx, caller, feedAddress, aggABI, "latestRoundData")
		if err != nil {
			return err
		}
		if len(values) != 5 {
			return fmt.Errorf("latestRoundData return size %d", len(values))
		}
		var ok bool
		if roundID, ok = values[0].(*big.Int); !ok {
			return fmt.Errorf("roundId unexpected type %T", values[0])
		}
		if answer, ok = values[1].(*big.Int); !ok {
			return fmt.Errorf("answer unexpected type %T", values[1])
		}
		if updatedAt, ok = values[3].(*big.Int); !ok {
			return fmt.Errorf("updatedAt unexpected type %T", values[3])
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return model.RawPriceReading{}, fmt.Errorf("%w: feed %s chain %d: %v", model.ErrOracleRead, feedAddress.Hex(), chainID, err)
	}

	metrics.OracleReadDuration.WithLabelValues(fmt.Sprintf("%d", chainID)).Observe(c.now().Sub(started).Seconds())

	if answer.Sign() <= 0 {
		return model.RawPriceReading{}, fmt.Errorf(
			"%w: feed %s chain %d answered %s", model.ErrInvalidPriceData, feedAddress.Hex(), chainID, answer,
		)
	}

	updated := time.Unix(updatedAt.Int64(), 0).UTC()
	if age := c.now().Sub(updated); age > c.staleAfter {
		c.logger.Warn("stale price reading",
			zap.String("feed", feedAddress.Hex()),
			zap.Uint64("chain_id", chainID),
			zap.Duration("age", age),
			zap.Time("updated_at", updated),
		)
	}

	return model.RawPriceReading{
		Answer:    answer,
		Decimals:  decimals,
		RoundID:   roundID,
		UpdatedAt: updated,
	}, nil
}

func callFeed(ctx context.Context, caller ContractCaller, feed common.Address, aggABI abi.ABI, method string) ([]interface{}, error) {
	data, err := aggABI.Pack(method)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	msg := ethereum.CallMsg{To: &feed, Data: data}
	resp, err := caller.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	values, err := aggABI.Unpack(method, resp)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	return values, nil
}
