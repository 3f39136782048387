// Package valuation converts raw token amounts and resolved USD
// prices into position values using exact decimal arithmetic. No
// floating point touches the intermediate products; the only rounding
// happens once, after summation.
package valuation

import (
	"math"
	"math/big"

	"github.com/shopspring/decimal"

	"feedscope/internal/model"
)

const (
	// pricePlaces fixes the precision at which a float price becomes
	// an exact decimal before multiplication.
	pricePlaces = 6

	// significantDigits is the display precision of the final sum.
	significantDigits = 6
)

// Entry is one (currency, raw amount, optional price) triple. A nil
// RawAmount or a nil, zero, or non-finite price contributes exactly 0.
type Entry struct {
	Decimals  uint8
	RawAmount *big.Int
	PriceUSD  *float64
}

// Value sums the USD value of all entries. Partial price availability
// never aborts the calculation; unpriceable entries contribute 0.
// The sum is exact until the single final rounding to 6 significant
// digits, so the result is insensitive to entry order.
func Value(entries []Entry) decimal.Decimal {
	total := decimal.Zero
	for _, entry := range entries {
		total = total.Add(entryValue(entry))
	}
	return roundSignificant(total, significantDigits)
}

// Valuation computes the position and unclaimed-fee totals in one go.
func Valuation(position, fees []Entry) model.PositionValuation {
	return model.PositionValuation{
		TotalValueUSD:    Value(position),
		UnclaimedFeesUSD: Value(fees),
	}
}

func entryValue(entry Entry) decimal.Decimal {
	if entry.RawAmount == nil || entry.PriceUSD == nil {
		return decimal.Zero
	}
	p := *entry.PriceUSD
	if p == 0 || math.IsNaN(p) || math.IsInf(p, 0) {
		return decimal.Zero
	}

	price := decimal.NewFromFloat(p).Round(pricePlaces)
	amount := decimal.NewFromBigInt(new(big.Int).Set(entry.RawAmount), -int32(entry.Decimals))
	return amount.Mul(price)
}

// roundSignificant rounds d to the given number of significant
// digits. Intermediate sums are never passed through here; rounding
// per entry would compound error across tokens with different
// decimals.
func roundSignificant(d decimal.Decimal, digits int32) decimal.Decimal {
	if d.IsZero() {
		return decimal.Zero
	}
	// Position of the most significant digit relative to the decimal
	// point: 2000 -> 4, 0.05 -> -1.
	msd := int32(d.NumDigits()) + d.Exponent()
	return d.Round(digits - msd)
}
