package catalogue

import (
	"math/rand/v2"
	"sync"

	"github.com/shopspring/decimal"
)

// PriceGenerator assigns a price to an entry. It is invoked once per entry per
// page load; results are intentionally not stable across loads.
type PriceGenerator interface {
	Price(entry Entry) decimal.Decimal
}

// PriceFunc adapts a function to PriceGenerator.
type PriceFunc func(Entry) decimal.Decimal

// Price calls f.
func (f PriceFunc) Price(entry Entry) decimal.Decimal { return f(entry) }

// DefaultLow and DefaultSpan bound the per-load price draw.
var (
	DefaultLow  = decimal.RequireFromString("6.50")
	DefaultSpan = decimal.RequireFromString("2.00")
)

// UniformPrice draws whole cents uniformly from [Low, Low+Span). The draw is
// already in cents, so the top value is Low+Span-0.01 (8.49 by default).
type UniformPrice struct {
	Low  decimal.Decimal
	Span decimal.Decimal

	mu  sync.Mutex
	rng *rand.Rand
}

// NewUniformPrice returns a generator over [low, low+span). A nil rng uses the
// runtime's shared source.
func NewUniformPrice(low, span decimal.Decimal, rng *rand.Rand) *UniformPrice {
	return &UniformPrice{Low: low, Span: span, rng: rng}
}

// DefaultPrices draws whole cents from 6.50 to 8.49 inclusive.
func DefaultPrices() *UniformPrice {
	return NewUniformPrice(DefaultLow, DefaultSpan, nil)
}

// Price implements PriceGenerator.
func (u *UniformPrice) Price(Entry) decimal.Decimal {
	spanCents := u.Span.Shift(2).IntPart()
	if spanCents <= 0 {
		return u.Low.Round(2)
	}
	var offset int64
	if u.rng == nil {
		offset = rand.Int64N(spanCents)
	} else {
		u.mu.Lock()
		offset = u.rng.Int64N(spanCents)
		u.mu.Unlock()
	}
	return u.Low.Round(2).Add(decimal.New(offset, -2))
}

// FixedPrices returns the configured price for each name and Fallback otherwise.
type FixedPrices struct {
	Prices   map[string]decimal.Decimal
	Fallback decimal.Decimal
}

// Price implements PriceGenerator.
func (f FixedPrices) Price(entry Entry) decimal.Decimal {
	if price, ok := f.Prices[entry.Name]; ok {
		return price
	}
	return f.Fallback
}
