package model

import (
	"math/big"
	"time"

	"github.com/shopspring/decimal"
)

// PriceSourceChainlink marks prices resolved from Chainlink-style
// aggregator contracts.
const PriceSourceChainlink = "chainlink"

// RawPriceReading is the direct result of the two on-chain reads,
// before decimal normalization. Answer is usable only when positive.
type RawPriceReading struct {
	Answer    *big.Int
	Decimals  uint8
	RoundID   *big.Int
	UpdatedAt time.Time
}

// ResolvedPrice is the normalized USD price returned to callers,
// with full provenance of the feed that produced it.
type ResolvedPrice struct {
	TokenAddress string          `json:"token_address"`
	ChainID      uint64          `json:"chain_id"`
	Price        decimal.Decimal `json:"price"`
	Decimals     uint8           `json:"decimals"`
	RoundID      string          `json:"round_id"`
	UpdatedAt    time.Time       `json:"updated_at"`
	FeedAddress  string          `json:"feed_address"`
	FeedName     string          `json:"feed_name"`
	Source       string          `json:"source"`
	ResolvedAt   time.Time       `json:"resolved_at"`
}

// PositionValuation is the USD view of one LP position. Always
// recomputed, never persisted or mutated in place.
type PositionValuation struct {
	TotalValueUSD    decimal.Decimal `json:"total_value_usd"`
	UnclaimedFeesUSD decimal.Decimal `json:"unclaimed_fees_usd"`
}
