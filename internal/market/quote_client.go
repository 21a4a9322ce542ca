package market

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PaesslerAG/jsonpath"
	"github.com/shopspring/decimal"
)

const (
	DefaultQuoteURL = "https://finnhub.io/api/v1/quote"
	// DefaultPricePath selects the current price from a Finnhub quote object.
	DefaultPricePath = "$.c"
)

// QuoteClient fetches a quote object per symbol and extracts the current price
// with a JSONPath expression, so any provider returning one JSON object per symbol
// can be plugged in by configuration.
type QuoteClient struct {
	baseURL   string
	apiKey    string
	pricePath string
	http      *http.Client
}

func NewQuoteClient(baseURL, apiKey, pricePath string) *QuoteClient {
	if baseURL == "" {
		baseURL = DefaultQuoteURL
	}
	if pricePath == "" {
		pricePath = DefaultPricePath
	}
	return &QuoteClient{
		baseURL:   baseURL,
		apiKey:    apiKey,
		pricePath: pricePath,
		http:      &http.Client{Timeout: httpTimeout},
	}
}

func (c *QuoteClient) Quote(ctx context.Context, symbol string) (decimal.Decimal, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return decimal.Zero, ErrPriceNotFound
	}

	q := url.Values{}
	q.Set("symbol", symbol)
	if c.apiKey != "" {
		q.Set("token", c.apiKey)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return decimal.Zero, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return decimal.Zero, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("quote http %d for %s", resp.StatusCode, symbol)
	}

	var raw interface{}
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return decimal.Zero, fmt.Errorf("decode quote for %s: %w", symbol, err)
	}
	v, err := jsonpath.Get(c.pricePath, raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s: %v", ErrPriceNotFound, symbol, err)
	}

	price, err := toDecimal(v)
	if err != nil || !price.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrPriceNotFound, symbol)
	}
	return price, nil
}

func toDecimal(v interface{}) (decimal.Decimal, error) {
	switch x := v.(type) {
	case json.Number:
		return decimal.NewFromString(x.String())
	case float64:
		return decimal.NewFromFloat(x), nil
	case string:
		return decimal.NewFromString(x)
	default:
		return decimal.Zero, fmt.Errorf("unexpected price type %T", v)
	}
}
