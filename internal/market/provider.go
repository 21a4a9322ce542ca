package market

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrRateNotFound  = errors.New("fx rate not found")
	ErrPriceNotFound = errors.New("price not found")
)

const userAgent = "wealthscope/1.0"

const httpTimeout = 8 * time.Second

// RateProvider returns how many reporting-currency units one foreign unit buys.
type RateProvider interface {
	Rate(ctx context.Context) (decimal.Decimal, error)
}

// QuoteProvider returns the latest price for a symbol in the quote's own currency.
type QuoteProvider interface {
	Quote(ctx context.Context, symbol string) (decimal.Decimal, error)
}

// Clock is injected so cache expiry can be driven by tests.
type Clock func() time.Time
