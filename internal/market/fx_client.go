package market

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"

	"wealthscope/internal/models"
)

const DefaultFXURL = "https://api.exchangerate-api.com/v4/latest/USD"

// FXClient reads the USD->CAD rate from an exchangerate-api style endpoint that
// answers {"base":"USD","rates":{"CAD":1.36,...}}.
type FXClient struct {
	url  string
	http *http.Client
}

func NewFXClient(url string) *FXClient {
	if url == "" {
		url = DefaultFXURL
	}
	return &FXClient{url: url, http: &http.Client{Timeout: httpTimeout}}
}

func (c *FXClient) Rate(ctx context.Context) (decimal.Decimal, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
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
		return decimal.Zero, fmt.Errorf("fx http %d", resp.StatusCode)
	}

	var raw struct {
		Rates map[string]decimal.Decimal `json:"rates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return decimal.Zero, fmt.Errorf("decode fx response: %w", err)
	}
	rate, ok := raw.Rates[models.ReportingCurrency]
	if !ok || !rate.IsPositive() {
		return decimal.Zero, ErrRateNotFound
	}
	return rate, nil
}
