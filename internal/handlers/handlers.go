package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"wealthscope/internal/currency"
	"wealthscope/internal/database"
	"wealthscope/internal/models"
	"wealthscope/internal/service"
)

const recentLimit = 50

type Handler struct {
	repo database.Gateway
	svc  *service.PortfolioService
	now  func() time.Time
	log  *logrus.Logger
}

func NewHandler(r database.Gateway, svc *service.PortfolioService, log *logrus.Logger) *Handler {
	return &Handler{repo: r, svc: svc, now: time.Now, log: log}
}

// Register mounts every route on rg.
func (h *Handler) Register(rg gin.IRoutes) {
	rg.POST("/webhooks/transaction", h.PostTransaction)
	rg.POST("/webhooks/dividend", h.PostDividend)

	rg.GET("/portfolio/summary", h.GetSummary)
	rg.POST("/portfolio/recalculate", h.RecalculatePortfolio)
	rg.GET("/holdings", h.GetHoldings)
	rg.POST("/holdings/recalculate", h.RecalculateHoldings)
	rg.POST("/holdings/prices", h.RefreshPrices)
	rg.POST("/backfill", h.Backfill)

	rg.GET("/transactions", h.GetTransactions)
	rg.GET("/dividends", h.GetDividends)
	rg.GET("/exchange-rate", h.GetExchangeRate)
}

// payload is a webhook body whose fields may arrive as strings or numbers.
type payload map[string]interface{}

func (p payload) str(key string) string {
	switch v := p[key].(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

func (p payload) optional(key string) decimal.NullDecimal {
	d, ok := currency.ParseAmount(p.str(key))
	return decimal.NullDecimal{Decimal: d, Valid: ok}
}

func (h *Handler) fail(c *gin.Context, what string, err error) {
	h.log.Errorf("%s: %v", what, err)
	c.String(http.StatusInternalServerError, "Error: "+err.Error())
}

func (h *Handler) PostTransaction(c *gin.Context) {
	var body payload
	if err := c.ShouldBindJSON(&body); err != nil {
		h.log.Warnf("invalid transaction body: %v", err)
		c.String(http.StatusBadRequest, "invalid body")
		return
	}

	symbol := strings.ToUpper(body.str("symbol"))
	if symbol == "" {
		c.String(http.StatusBadRequest, "symbol is required")
		return
	}
	shares, ok := currency.ParseAmount(body.str("shares"))
	if !ok || !shares.IsPositive() {
		h.log.Warnf("rejecting %s transaction with shares %q", symbol, body.str("shares"))
		c.String(http.StatusBadRequest, "shares must be a positive number")
		return
	}

	typ := models.Buy
	if strings.Contains(strings.ToLower(body.str("type")), "sell") {
		typ = models.Sell
	}
	avg, _ := currency.ParseAmount(body.str("average_price"))

	tx := models.Transaction{
		ID:              uuid.NewString(),
		Symbol:          symbol,
		Account:         body.str("account"),
		Type:            typ,
		Shares:          shares,
		AveragePrice:    avg,
		TotalCost:       body.optional("total_cost"),
		TotalValue:      body.optional("total_value"),
		Currency:        currency.Detect(body.str("total_value"), body.str("total_cost")),
		Time:            body.str("time"),
		TransactionDate: h.now(),
	}
	if err := h.svc.RecordTransaction(c.Request.Context(), tx); err != nil {
		h.fail(c, "record transaction", err)
		return
	}
	c.String(http.StatusOK, "Transaction processed successfully")
}

func (h *Handler) PostDividend(c *gin.Context) {
	var body payload
	if err := c.ShouldBindJSON(&body); err != nil {
		h.log.Warnf("invalid dividend body: %v", err)
		c.String(http.StatusBadRequest, "invalid body")
		return
	}

	symbol := strings.ToUpper(body.str("symbol"))
	if symbol == "" {
		c.String(http.StatusBadRequest, "symbol is required")
		return
	}
	raw := body.str("amount")
	amount, ok := currency.ParseAmount(raw)
	if !ok {
		h.log.Warnf("rejecting %s dividend with amount %q", symbol, raw)
		c.String(http.StatusBadRequest, "amount must be a number")
		return
	}

	d := models.Dividend{
		ID:          uuid.NewString(),
		Symbol:      symbol,
		Account:     body.str("account"),
		Amount:      amount,
		Currency:    currency.Detect(raw),
		PaymentDate: h.now(),
	}
	if err := h.svc.RecordDividend(c.Request.Context(), d); err != nil {
		h.fail(c, "record dividend", err)
		return
	}
	c.String(http.StatusOK, "Dividend processed successfully")
}

func (h *Handler) GetSummary(c *gin.Context) {
	s, err := h.svc.Summary(c.Request.Context())
	if err != nil {
		h.fail(c, "get summary", err)
		return
	}
	c.JSON(http.StatusOK, s)
}

func (h *Handler) GetHoldings(c *gin.Context) {
	hs, err := h.repo.ListHoldings(c.Request.Context())
	if err != nil {
		h.fail(c, "list holdings", err)
		return
	}
	c.JSON(http.StatusOK, hs)
}

func (h *Handler) GetTransactions(c *gin.Context) {
	txs, err := h.repo.RecentTransactions(c.Request.Context(), recentLimit)
	if err != nil {
		h.fail(c, "list transactions", err)
		return
	}
	c.JSON(http.StatusOK, txs)
}

func (h *Handler) GetDividends(c *gin.Context) {
	divs, err := h.repo.RecentDividends(c.Request.Context(), recentLimit)
	if err != nil {
		h.fail(c, "list dividends", err)
		return
	}
	c.JSON(http.StatusOK, divs)
}

func (h *Handler) GetExchangeRate(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.ExchangeRate(c.Request.Context()))
}

func (h *Handler) RecalculatePortfolio(c *gin.Context) {
	if _, err := h.svc.Recalculate(c.Request.Context()); err != nil {
		h.fail(c, "recalculate portfolio", err)
		return
	}
	c.String(http.StatusOK, "Portfolio summary recalculated successfully")
}

func (h *Handler) RecalculateHoldings(c *gin.Context) {
	if _, err := h.svc.Recalculate(c.Request.Context()); err != nil {
		h.fail(c, "recalculate holdings", err)
		return
	}
	c.String(http.StatusOK, "Holdings recalculated successfully")
}

func (h *Handler) Backfill(c *gin.Context) {
	if err := h.svc.Backfill(c.Request.Context()); err != nil {
		h.fail(c, "backfill", err)
		return
	}
	c.String(http.StatusOK, "Historical data backfill completed successfully")
}

func (h *Handler) RefreshPrices(c *gin.Context) {
	n, err := h.svc.RefreshPrices(c.Request.Context())
	if err != nil {
		h.fail(c, "refresh prices", err)
		return
	}
	if n == 0 {
		c.String(http.StatusOK, "No holdings to update")
		return
	}
	c.String(http.StatusOK, "Updated prices for %d symbols", n)
}
