package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"wealthscope/internal/models"
)

const summaryID = "current"

// ErrDuplicateRecord is returned when a ledger record with the same id exists.
var ErrDuplicateRecord = errors.New("duplicate ledger record")

const (
	transactionColumns = `id, symbol, account, type, shares, average_price, total_cost, total_value, currency, time, transaction_date`
	dividendColumns    = `id, symbol, account, amount, currency, payment_date`
	holdingColumns     = `symbol, quantity, avg_buy_price, avg_buy_price_cad, current_price, current_price_cad,
		total_invested, total_invested_cad, market_value, market_value_cad,
		unrealized_gain_loss, unrealized_gain_loss_cad, unrealized_gain_loss_percentage, currency, last_updated`
)

// Repo is the Postgres gateway.
type Repo struct {
	db  *sqlx.DB
	log *logrus.Logger
}

func New(db *sqlx.DB, log *logrus.Logger) *Repo {
	return &Repo{db: db, log: log}
}

func (r *Repo) ListTransactions(ctx context.Context) ([]models.Transaction, error) {
	res := []models.Transaction{}
	q := `SELECT ` + transactionColumns + ` FROM transactions ORDER BY transaction_date ASC, seq ASC`
	if err := r.db.SelectContext(ctx, &res, q); err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return res, nil
}

func (r *Repo) RecentTransactions(ctx context.Context, limit int) ([]models.Transaction, error) {
	res := []models.Transaction{}
	q := `SELECT ` + transactionColumns + ` FROM transactions ORDER BY transaction_date DESC, seq DESC LIMIT $1`
	if err := r.db.SelectContext(ctx, &res, q, limit); err != nil {
		return nil, fmt.Errorf("recent transactions: %w", err)
	}
	return res, nil
}

func (r *Repo) AppendTransaction(ctx context.Context, tx models.Transaction) error {
	q := `INSERT INTO transactions (` + transactionColumns + `)
		VALUES (:id, :symbol, :account, :type, :shares, :average_price, :total_cost, :total_value, :currency, :time, :transaction_date)`
	if _, err := r.db.NamedExecContext(ctx, q, tx); err != nil {
		return wrapInsert("transaction", tx.ID, err)
	}
	return nil
}

func (r *Repo) ListDividendsInRange(ctx context.Context, start, end time.Time) ([]models.Dividend, error) {
	res := []models.Dividend{}
	q := `SELECT ` + dividendColumns + ` FROM dividends WHERE payment_date >= $1 AND payment_date <= $2 ORDER BY payment_date ASC`
	if err := r.db.SelectContext(ctx, &res, q, start, end); err != nil {
		return nil, fmt.Errorf("list dividends: %w", err)
	}
	return res, nil
}

func (r *Repo) RecentDividends(ctx context.Context, limit int) ([]models.Dividend, error) {
	res := []models.Dividend{}
	q := `SELECT ` + dividendColumns + ` FROM dividends ORDER BY payment_date DESC, seq DESC LIMIT $1`
	if err := r.db.SelectContext(ctx, &res, q, limit); err != nil {
		return nil, fmt.Errorf("recent dividends: %w", err)
	}
	return res, nil
}

func (r *Repo) AppendDividend(ctx context.Context, d models.Dividend) error {
	q := `INSERT INTO dividends (` + dividendColumns + `) VALUES (:id, :symbol, :account, :amount, :currency, :payment_date)`
	if _, err := r.db.NamedExecContext(ctx, q, d); err != nil {
		return wrapInsert("dividend", d.ID, err)
	}
	return nil
}

func (r *Repo) ListHoldings(ctx context.Context) ([]models.Holding, error) {
	res := []models.Holding{}
	if err := r.db.SelectContext(ctx, &res, `SELECT `+holdingColumns+` FROM holdings ORDER BY symbol`); err != nil {
		return nil, fmt.Errorf("list holdings: %w", err)
	}
	return res, nil
}

func (r *Repo) ReplaceHoldings(ctx context.Context, hs []models.Holding) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM holdings`); err != nil {
		return fmt.Errorf("clear holdings: %w", err)
	}
	q := `INSERT INTO holdings (` + holdingColumns + `) VALUES (
		:symbol, :quantity, :avg_buy_price, :avg_buy_price_cad, :current_price, :current_price_cad,
		:total_invested, :total_invested_cad, :market_value, :market_value_cad,
		:unrealized_gain_loss, :unrealized_gain_loss_cad, :unrealized_gain_loss_percentage, :currency, :last_updated)`
	for _, h := range hs {
		if _, err := tx.NamedExecContext(ctx, q, h); err != nil {
			return fmt.Errorf("insert holding %s: %w", h.Symbol, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	r.log.Infof("saved %d holdings", len(hs))
	return nil
}

func (r *Repo) UpdateHoldingPrices(ctx context.Context, hs []models.Holding) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	q := `UPDATE holdings SET current_price = :current_price, current_price_cad = :current_price_cad,
		market_value = :market_value, market_value_cad = :market_value_cad,
		unrealized_gain_loss = :unrealized_gain_loss, unrealized_gain_loss_cad = :unrealized_gain_loss_cad,
		unrealized_gain_loss_percentage = :unrealized_gain_loss_percentage, last_updated = :last_updated
		WHERE symbol = :symbol`
	for _, h := range hs {
		if _, err := tx.NamedExecContext(ctx, q, h); err != nil {
			return fmt.Errorf("update holding %s: %w", h.Symbol, err)
		}
	}
	return tx.Commit()
}

func (r *Repo) GetSummary(ctx context.Context) (*models.PortfolioSummary, error) {
	var s models.PortfolioSummary
	err := r.db.GetContext(ctx, &s, `SELECT total_invested, total_dividends_ytd, portfolio_value, gain_loss, currency, last_updated
		FROM portfolio_summary WHERE id = $1`, summaryID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get summary: %w", err)
	}
	return &s, nil
}

func (r *Repo) PutSummary(ctx context.Context, s models.PortfolioSummary) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO portfolio_summary (id, total_invested, total_dividends_ytd, portfolio_value, gain_loss, currency, last_updated)
		VALUES ($1, $2::numeric, $3::numeric, $4::numeric, $5::numeric, $6, $7)
		ON CONFLICT (id) DO UPDATE SET total_invested = EXCLUDED.total_invested, total_dividends_ytd = EXCLUDED.total_dividends_ytd,
			portfolio_value = EXCLUDED.portfolio_value, gain_loss = EXCLUDED.gain_loss,
			currency = EXCLUDED.currency, last_updated = EXCLUDED.last_updated`,
		summaryID, s.TotalInvested.String(), s.TotalDividendsYTD.String(), s.PortfolioValue.String(), s.GainLoss.String(), s.Currency, s.LastUpdated)
	if err != nil {
		return fmt.Errorf("put summary: %w", err)
	}
	return nil
}

func wrapInsert(kind, id string, err error) error {
	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
		return fmt.Errorf("%s %s: %w", kind, id, ErrDuplicateRecord)
	}
	return fmt.Errorf("insert %s: %w", kind, err)
}
