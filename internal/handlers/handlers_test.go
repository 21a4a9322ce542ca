package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wealthscope/internal/database"
	"wealthscope/internal/models"
	"wealthscope/internal/service"
)

type stubRate struct{}

func (stubRate) Rate(context.Context) decimal.Decimal { return decimal.RequireFromString("1.35") }

type stubPrices map[string]decimal.Decimal

func (s stubPrices) Prices(_ context.Context, symbols []string) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(symbols))
	for _, sym := range symbols {
		out[sym] = s[sym]
	}
	return out
}

type brokenStore struct{ *database.MemoryStore }

func (brokenStore) AppendTransaction(context.Context, models.Transaction) error {
	return errors.New("disk full")
}

func setup(t *testing.T, gw database.Gateway, prices stubPrices) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := logrus.New()
	log.SetOutput(io.Discard)

	svc := service.NewPortfolioService(gw, stubRate{}, prices, log)
	r := gin.New()
	NewHandler(gw, svc, log).Register(r)
	return r
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestPostTransaction_USDBuy(t *testing.T) {
	store := database.NewMemoryStore()
	r := setup(t, store, stubPrices{"AAPL": decimal.NewFromInt(110)})

	w := do(r, http.MethodPost, "/webhooks/transaction", `{
		"symbol": " aapl ",
		"account": "TFSA",
		"shares": "10",
		"average_price": "US$100.00",
		"total_cost": "US$1,000.00",
		"type": "Market Buy",
		"time": "9:31 AM"
	}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Transaction processed successfully", w.Body.String())

	txs, err := store.ListTransactions(context.Background())
	require.NoError(t, err)
	require.Len(t, txs, 1)
	tx := txs[0]
	assert.Equal(t, "AAPL", tx.Symbol)
	assert.Equal(t, models.Buy, tx.Type)
	assert.Equal(t, "USD", tx.Currency)
	assert.Equal(t, "TFSA", tx.Account)
	assert.True(t, tx.TotalCost.Valid)
	assert.True(t, tx.TotalCost.Decimal.Equal(decimal.NewFromInt(1000)))
	assert.False(t, tx.TotalValue.Valid)
	assert.NotEmpty(t, tx.ID)

	w = do(r, http.MethodGet, "/holdings", "")
	require.Equal(t, http.StatusOK, w.Code)
	var hs []models.Holding
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &hs))
	require.Len(t, hs, 1)
	assert.True(t, hs[0].MarketValueCAD.Equal(decimal.RequireFromString("1485")))
}

func TestPostTransaction_NumericFieldsAndSell(t *testing.T) {
	store := database.NewMemoryStore()
	r := setup(t, store, stubPrices{})

	w := do(r, http.MethodPost, "/webhooks/transaction", `{"symbol":"SHOP","shares":4,"average_price":80,"type":"Buy"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = do(r, http.MethodPost, "/webhooks/transaction", `{"symbol":"SHOP","shares":1.5,"average_price":90,"type":"Limit SELL"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	txs, _ := store.ListTransactions(context.Background())
	require.Len(t, txs, 2)
	assert.Equal(t, models.Sell, txs[1].Type)
	assert.Equal(t, "CAD", txs[1].Currency)
	assert.True(t, txs[1].Shares.Equal(decimal.RequireFromString("1.5")))

	hs, _ := store.ListHoldings(context.Background())
	require.Len(t, hs, 1)
	assert.True(t, hs[0].Quantity.Equal(decimal.RequireFromString("2.5")))
}

func TestPostTransaction_Validation(t *testing.T) {
	cases := map[string]string{
		"missing symbol":  `{"shares":"1","average_price":"10"}`,
		"blank symbol":    `{"symbol":"  ","shares":"1"}`,
		"zero shares":     `{"symbol":"AAPL","shares":"0"}`,
		"negative shares": `{"symbol":"AAPL","shares":-3}`,
		"garbage shares":  `{"symbol":"AAPL","shares":"n/a"}`,
		"not json":        `symbol=AAPL`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			store := database.NewMemoryStore()
			w := do(setup(t, store, stubPrices{}), http.MethodPost, "/webhooks/transaction", body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			txs, _ := store.ListTransactions(context.Background())
			assert.Empty(t, txs)
		})
	}
}

func TestPostTransaction_StoreErrorIs500(t *testing.T) {
	r := setup(t, brokenStore{database.NewMemoryStore()}, stubPrices{})
	w := do(r, http.MethodPost, "/webhooks/transaction", `{"symbol":"AAPL","shares":"1"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Error: disk full", w.Body.String())
}

func TestPostDividend(t *testing.T) {
	store := database.NewMemoryStore()
	r := setup(t, store, stubPrices{})

	w := do(r, http.MethodPost, "/webhooks/dividend", `{"symbol":"aapl","account":"RRSP","amount":"US$10.00"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Dividend processed successfully", w.Body.String())

	w = do(r, http.MethodGet, "/dividends", "")
	require.Equal(t, http.StatusOK, w.Code)
	var divs []models.Dividend
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &divs))
	require.Len(t, divs, 1)
	assert.Equal(t, "AAPL", divs[0].Symbol)
	assert.Equal(t, "USD", divs[0].Currency)

	w = do(r, http.MethodGet, "/portfolio/summary", "")
	require.Equal(t, http.StatusOK, w.Code)
	var s models.PortfolioSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &s))
	assert.True(t, s.TotalDividendsYTD.Equal(decimal.RequireFromString("13.5")), s.TotalDividendsYTD.String())
}

func TestPostDividend_BadAmount(t *testing.T) {
	r := setup(t, database.NewMemoryStore(), stubPrices{})
	w := do(r, http.MethodPost, "/webhooks/dividend", `{"symbol":"T","amount":"pending"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetSummary_ComputesWhenMissing(t *testing.T) {
	r := setup(t, database.NewMemoryStore(), stubPrices{})
	w := do(r, http.MethodGet, "/portfolio/summary", "")
	require.Equal(t, http.StatusOK, w.Code)

	var s models.PortfolioSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &s))
	assert.Equal(t, "CAD", s.Currency)
	assert.True(t, s.PortfolioValue.IsZero())
}

func TestGetTransactions_NewestFirstCapped(t *testing.T) {
	store := database.NewMemoryStore()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 60; i++ {
		require.NoError(t, store.AppendTransaction(context.Background(), models.Transaction{
			ID: fmt.Sprintf("tx-%d", i), Symbol: "X", Type: models.Buy,
			Shares: decimal.NewFromInt(1), TransactionDate: base.Add(time.Duration(i) * time.Hour),
		}))
	}
	w := do(setup(t, store, stubPrices{}), http.MethodGet, "/transactions", "")
	require.Equal(t, http.StatusOK, w.Code)

	var txs []models.Transaction
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &txs))
	require.Len(t, txs, recentLimit)
	assert.True(t, txs[0].TransactionDate.Equal(base.Add(59*time.Hour)))
	assert.True(t, txs[0].TransactionDate.After(txs[1].TransactionDate))
}

func TestRecalculateAndBackfill(t *testing.T) {
	r := setup(t, database.NewMemoryStore(), stubPrices{})

	w := do(r, http.MethodPost, "/portfolio/recalculate", "")
	assert.Equal(t, "Portfolio summary recalculated successfully", w.Body.String())
	w = do(r, http.MethodPost, "/holdings/recalculate", "")
	assert.Equal(t, "Holdings recalculated successfully", w.Body.String())
	w = do(r, http.MethodPost, "/backfill", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Historical data backfill completed successfully", w.Body.String())
}

func TestRefreshPrices(t *testing.T) {
	store := database.NewMemoryStore()
	r := setup(t, store, stubPrices{"VFV": decimal.NewFromInt(120)})

	w := do(r, http.MethodPost, "/holdings/prices", "")
	assert.Equal(t, "No holdings to update", w.Body.String())

	require.NoError(t, store.ReplaceHoldings(context.Background(), []models.Holding{
		{Symbol: "VFV", Quantity: decimal.NewFromInt(2), Currency: "CAD"},
	}))
	w = do(r, http.MethodPost, "/holdings/prices", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Updated prices for 1 symbols", w.Body.String())

	hs, _ := store.ListHoldings(context.Background())
	assert.True(t, hs[0].MarketValueCAD.Equal(decimal.NewFromInt(240)))
}

func TestGetExchangeRate(t *testing.T) {
	w := do(setup(t, database.NewMemoryStore(), stubPrices{}), http.MethodGet, "/exchange-rate", "")
	require.Equal(t, http.StatusOK, w.Code)

	var rate models.ExchangeRate
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rate))
	assert.True(t, rate.Rate.Equal(decimal.RequireFromString("1.35")))
	assert.Equal(t, "USD", rate.From)
	assert.Equal(t, "CAD", rate.To)
}
