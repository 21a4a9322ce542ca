package database

import (
	"context"
	"time"

	"wealthscope/internal/models"
)

// Gateway is everything the portfolio service needs from storage. The ledger is
// append-only; holdings and the summary are derived and overwritten wholesale.
type Gateway interface {
	// ListTransactions returns the full ledger ordered by transaction date ascending.
	ListTransactions(ctx context.Context) ([]models.Transaction, error)
	// RecentTransactions returns at most limit transactions, newest first.
	RecentTransactions(ctx context.Context, limit int) ([]models.Transaction, error)
	AppendTransaction(ctx context.Context, tx models.Transaction) error

	// ListDividendsInRange returns dividends paid within [start, end].
	ListDividendsInRange(ctx context.Context, start, end time.Time) ([]models.Dividend, error)
	RecentDividends(ctx context.Context, limit int) ([]models.Dividend, error)
	AppendDividend(ctx context.Context, d models.Dividend) error

	ListHoldings(ctx context.Context) ([]models.Holding, error)
	// ReplaceHoldings deletes every stored holding and inserts hs, all or nothing.
	ReplaceHoldings(ctx context.Context, hs []models.Holding) error
	// UpdateHoldingPrices patches the price-dependent columns of existing holdings.
	UpdateHoldingPrices(ctx context.Context, hs []models.Holding) error

	// GetSummary returns nil, nil when no summary has been stored yet.
	GetSummary(ctx context.Context) (*models.PortfolioSummary, error)
	PutSummary(ctx context.Context, s models.PortfolioSummary) error
}
