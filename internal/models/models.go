package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	ReportingCurrency = "CAD"
	ForeignCurrency   = "USD"
)

type TransactionType string

const (
	Buy  TransactionType = "Buy"
	Sell TransactionType = "Sell"
)

type Transaction struct {
	ID              string              `db:"id" json:"id"`
	Symbol          string              `db:"symbol" json:"symbol"`
	Account         string              `db:"account" json:"account"`
	Type            TransactionType     `db:"type" json:"type"`
	Shares          decimal.Decimal     `db:"shares" json:"shares"`
	AveragePrice    decimal.Decimal     `db:"average_price" json:"average_price"`
	TotalCost       decimal.NullDecimal `db:"total_cost" json:"total_cost,omitempty"`
	TotalValue      decimal.NullDecimal `db:"total_value" json:"total_value,omitempty"`
	Currency        string              `db:"currency" json:"currency"`
	Time            string              `db:"time" json:"time"`
	TransactionDate time.Time           `db:"transaction_date" json:"transaction_date"`
}

// Amount is the gross amount of the transaction in its own currency. An explicit
// total cost from the statement wins over shares × average price.
func (t Transaction) Amount() decimal.Decimal {
	if t.TotalCost.Valid {
		return t.TotalCost.Decimal
	}
	return t.Shares.Mul(t.AveragePrice)
}

type Dividend struct {
	ID          string          `db:"id" json:"id"`
	Symbol      string          `db:"symbol" json:"symbol"`
	Account     string          `db:"account" json:"account"`
	Amount      decimal.Decimal `db:"amount" json:"amount"`
	Currency    string          `db:"currency" json:"currency"`
	PaymentDate time.Time       `db:"payment_date" json:"payment_date"`
}

type Holding struct {
	Symbol                       string          `db:"symbol" json:"symbol"`
	Quantity                     decimal.Decimal `db:"quantity" json:"quantity"`
	AvgBuyPrice                  decimal.Decimal `db:"avg_buy_price" json:"avgBuyPrice"`
	AvgBuyPriceCAD               decimal.Decimal `db:"avg_buy_price_cad" json:"avgBuyPriceCAD"`
	CurrentPrice                 decimal.Decimal `db:"current_price" json:"currentPrice"`
	CurrentPriceCAD              decimal.Decimal `db:"current_price_cad" json:"currentPriceCAD"`
	TotalInvested                decimal.Decimal `db:"total_invested" json:"totalInvested"`
	TotalInvestedCAD             decimal.Decimal `db:"total_invested_cad" json:"totalInvestedCAD"`
	MarketValue                  decimal.Decimal `db:"market_value" json:"marketValue"`
	MarketValueCAD               decimal.Decimal `db:"market_value_cad" json:"marketValueCAD"`
	UnrealizedGainLoss           decimal.Decimal `db:"unrealized_gain_loss" json:"unrealizedGainLoss"`
	UnrealizedGainLossCAD        decimal.Decimal `db:"unrealized_gain_loss_cad" json:"unrealizedGainLossCAD"`
	UnrealizedGainLossPercentage decimal.Decimal `db:"unrealized_gain_loss_percentage" json:"unrealizedGainLossPercentage"`
	Currency                     string          `db:"currency" json:"currency"`
	LastUpdated                  time.Time       `db:"last_updated" json:"lastUpdated"`
}

type PortfolioSummary struct {
	TotalInvested     decimal.Decimal `db:"total_invested" json:"totalInvested"`
	TotalDividendsYTD decimal.Decimal `db:"total_dividends_ytd" json:"totalDividendsYTD"`
	PortfolioValue    decimal.Decimal `db:"portfolio_value" json:"portfolioValue"`
	GainLoss          decimal.Decimal `db:"gain_loss" json:"gainLoss"`
	LastUpdated       time.Time       `db:"last_updated" json:"lastUpdated"`
	Currency          string          `db:"currency" json:"currency"`
}

type ExchangeRate struct {
	Rate      decimal.Decimal `json:"rate"`
	From      string          `json:"from"`
	To        string          `json:"to"`
	Timestamp time.Time       `json:"timestamp"`
}
