package market

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"wealthscope/internal/metrics"
)

const (
	RateTTL  = time.Hour
	PriceTTL = 5 * time.Minute

	BatchSize  = 10
	BatchDelay = 100 * time.Millisecond
)

// FallbackRate is served whenever the FX provider fails. An expired cached rate is
// never preferred over it.
var FallbackRate = decimal.RequireFromString("1.35")

type cachedRate struct {
	rate    decimal.Decimal
	fetched time.Time
}

// RateCache holds the last FX rate for up to RateTTL.
type RateCache struct {
	provider RateProvider
	now      Clock
	log      *logrus.Logger

	mu    sync.Mutex
	entry *cachedRate
}

func NewRateCache(p RateProvider, now Clock, log *logrus.Logger) *RateCache {
	if now == nil {
		now = time.Now
	}
	return &RateCache{provider: p, now: now, log: log}
}

// Rate never fails: provider errors resolve to FallbackRate.
func (c *RateCache) Rate(ctx context.Context) decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.entry != nil && c.now().Sub(c.entry.fetched) < RateTTL {
		metrics.CacheHits.WithLabelValues("fx").Inc()
		return c.entry.rate
	}

	rate, err := c.provider.Rate(ctx)
	if err != nil {
		metrics.ProviderFailures.WithLabelValues("fx").Inc()
		c.log.Warnf("fx rate fetch failed, using fallback %s: %v", FallbackRate, err)
		return FallbackRate
	}
	c.entry = &cachedRate{rate: rate, fetched: c.now()}
	return rate
}

type cachedPrice struct {
	price   decimal.Decimal
	fetched time.Time
}

// PriceCache holds per-symbol prices for up to PriceTTL and keeps expired entries
// around as a fallback for provider failures.
type PriceCache struct {
	provider   QuoteProvider
	now        Clock
	log        *logrus.Logger
	batchSize  int
	batchDelay time.Duration

	mu    sync.RWMutex
	cache map[string]cachedPrice
}

func NewPriceCache(p QuoteProvider, now Clock, log *logrus.Logger) *PriceCache {
	if now == nil {
		now = time.Now
	}
	return &PriceCache{
		provider:   p,
		now:        now,
		log:        log,
		batchSize:  BatchSize,
		batchDelay: BatchDelay,
		cache:      make(map[string]cachedPrice),
	}
}

// Price returns a fresh cached price, or fetches one. On failure it returns the
// last cached price even if expired, else zero.
func (c *PriceCache) Price(ctx context.Context, symbol string) decimal.Decimal {
	c.mu.RLock()
	entry, ok := c.cache[symbol]
	c.mu.RUnlock()
	if ok && c.now().Sub(entry.fetched) < PriceTTL {
		metrics.CacheHits.WithLabelValues("price").Inc()
		return entry.price
	}

	price, err := c.provider.Quote(ctx, symbol)
	if err != nil {
		metrics.ProviderFailures.WithLabelValues("price").Inc()
		if ok {
			c.log.Warnf("price fetch failed for %s, using stale price from %s: %v", symbol, entry.fetched.Format(time.RFC3339), err)
			return entry.price
		}
		c.log.Warnf("price fetch failed for %s, no cached price: %v", symbol, err)
		return decimal.Zero
	}

	c.mu.Lock()
	c.cache[symbol] = cachedPrice{price: price, fetched: c.now()}
	c.mu.Unlock()
	return price
}

// Prices resolves every symbol, fetching up to batchSize symbols concurrently and
// pausing batchDelay between batches. A failed symbol maps to whatever Price
// falls back to; it never fails the batch.
func (c *PriceCache) Prices(ctx context.Context, symbols []string) map[string]decimal.Decimal {
	unique := make([]string, 0, len(symbols))
	seen := make(map[string]struct{}, len(symbols))
	for _, s := range symbols {
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		unique = append(unique, s)
	}

	out := make(map[string]decimal.Decimal, len(unique))
	for start := 0; start < len(unique); start += c.batchSize {
		if start > 0 && c.batchDelay > 0 {
			select {
			case <-ctx.Done():
				c.log.Warnf("price batch interrupted after %d of %d symbols: %v", start, len(unique), ctx.Err())
				return out
			case <-time.After(c.batchDelay):
			}
		}

		end := start + c.batchSize
		if end > len(unique) {
			end = len(unique)
		}
		batch := unique[start:end]
		results := make([]decimal.Decimal, len(batch))

		var wg sync.WaitGroup
		for i, s := range batch {
			wg.Add(1)
			go func(i int, s string) {
				defer wg.Done()
				results[i] = c.Price(ctx, s)
			}(i, s)
		}
		wg.Wait()

		for i, s := range batch {
			out[s] = results[i]
		}
	}
	return out
}
