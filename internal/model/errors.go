package model

import "errors"

// Error taxonomy for price resolution. Callers branch on these with
// errors.Is; infrastructure errors (ErrMetadataFetch, ErrOracleRead,
// ErrInvalidPriceData) are safe to retry with backoff, the rest are
// not resolved by retrying.
var (
	ErrValidation       = errors.New("invalid input")
	ErrUnsupportedChain = errors.New("unsupported chain")
	ErrNoFeedAvailable  = errors.New("no price feed available")
	ErrConfiguration    = errors.New("feed configuration inconsistent")
	ErrMetadataFetch    = errors.New("feed metadata fetch failed")
	ErrOracleRead       = errors.New("oracle read failed")
	ErrInvalidPriceData = errors.New("oracle returned invalid price data")
)

// Retryable reports whether an error is a transient infrastructure
// failure that may self-resolve on a later attempt.
func Retryable(err error) bool {
	return errors.Is(err, ErrMetadataFetch) ||
		errors.Is(err, ErrOracleRead) ||
		errors.Is(err, ErrInvalidPriceData)
}
