package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"wealthscope/internal/database"
	"wealthscope/internal/holdings"
	"wealthscope/internal/metrics"
	"wealthscope/internal/models"
)

// RateSource never fails; fallbacks are the source's concern.
type RateSource interface {
	Rate(ctx context.Context) decimal.Decimal
}

// PriceSource maps every requested symbol to a price, zero when unknown.
type PriceSource interface {
	Prices(ctx context.Context, symbols []string) map[string]decimal.Decimal
}

// PortfolioService keeps the derived holdings and summary in step with the ledger.
// Recalculation and price refresh hold mu, so passes within one process never
// interleave their replace-all writes.
type PortfolioService struct {
	gw     database.Gateway
	rates  RateSource
	prices PriceSource
	now    func() time.Time
	log    *logrus.Logger

	mu sync.Mutex
}

func NewPortfolioService(gw database.Gateway, rates RateSource, prices PriceSource, log *logrus.Logger) *PortfolioService {
	return &PortfolioService{gw: gw, rates: rates, prices: prices, now: time.Now, log: log}
}

// RecordTransaction appends tx to the ledger and recalculates synchronously.
func (s *PortfolioService) RecordTransaction(ctx context.Context, tx models.Transaction) error {
	if err := s.gw.AppendTransaction(ctx, tx); err != nil {
		return err
	}
	metrics.LedgerWrites.WithLabelValues("transaction").Inc()
	s.log.WithFields(logrus.Fields{"id": tx.ID, "symbol": tx.Symbol, "type": tx.Type}).Info("transaction saved")

	_, err := s.Recalculate(ctx)
	return err
}

// RecordDividend appends d to the ledger and recalculates synchronously.
func (s *PortfolioService) RecordDividend(ctx context.Context, d models.Dividend) error {
	if err := s.gw.AppendDividend(ctx, d); err != nil {
		return err
	}
	metrics.LedgerWrites.WithLabelValues("dividend").Inc()
	s.log.WithFields(logrus.Fields{"id": d.ID, "symbol": d.Symbol, "currency": d.Currency}).Info("dividend saved")

	_, err := s.Recalculate(ctx)
	return err
}

// Recalculate replays the full ledger and overwrites holdings and summary. Any
// load failure aborts before anything is written.
func (s *PortfolioService) Recalculate(ctx context.Context) (holdings.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	res, err := s.recalculate(ctx)
	metrics.RecalculationDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.Recalculations.WithLabelValues("error").Inc()
		s.log.Errorf("recalculation failed: %v", err)
		return holdings.Result{}, err
	}
	metrics.Recalculations.WithLabelValues("ok").Inc()
	metrics.Holdings.Set(float64(len(res.Holdings)))
	return res, nil
}

func (s *PortfolioService) recalculate(ctx context.Context) (holdings.Result, error) {
	res, err := s.calculate(ctx)
	if err != nil {
		return res, err
	}
	if err := s.gw.ReplaceHoldings(ctx, res.Holdings); err != nil {
		return res, fmt.Errorf("save holdings: %w", err)
	}
	if err := s.gw.PutSummary(ctx, res.Summary); err != nil {
		return res, fmt.Errorf("save summary: %w", err)
	}
	s.log.WithFields(logrus.Fields{
		"holdings":        len(res.Holdings),
		"total_invested":  res.Summary.TotalInvested.StringFixed(2),
		"portfolio_value": res.Summary.PortfolioValue.StringFixed(2),
		"gain_loss":       res.Summary.GainLoss.StringFixed(2),
	}).Info("portfolio recalculated")
	return res, nil
}

func (s *PortfolioService) calculate(ctx context.Context) (holdings.Result, error) {
	fx := s.rates.Rate(ctx)
	now := s.now()

	txs, err := s.gw.ListTransactions(ctx)
	if err != nil {
		return holdings.Result{}, err
	}
	yearStart, yearEnd := holdings.YearBounds(now)
	divs, err := s.gw.ListDividendsInRange(ctx, yearStart, yearEnd)
	if err != nil {
		return holdings.Result{}, err
	}

	ledger := holdings.Replay(txs, fx)
	open := ledger.OpenSymbols()
	s.log.Debugf("replayed %d transactions (%d buys, %d sells), %d open of %d symbols, fx %s",
		len(txs), ledger.Buys, ledger.Sells, len(open), len(ledger.Positions), fx)

	prices := s.prices.Prices(ctx, open)
	return holdings.Summarize(ledger, holdings.Input{
		Dividends: divs,
		Prices:    prices,
		FXRate:    fx,
		Now:       now,
	}), nil
}

// Summary returns the stored summary, computing and storing one when none exists.
func (s *PortfolioService) Summary(ctx context.Context) (models.PortfolioSummary, error) {
	stored, err := s.gw.GetSummary(ctx)
	if err != nil {
		return models.PortfolioSummary{}, err
	}
	if stored != nil {
		return *stored, nil
	}
	s.log.Info("no stored summary, calculating")
	res, err := s.Recalculate(ctx)
	if err != nil {
		return models.PortfolioSummary{}, err
	}
	return res.Summary, nil
}

// Backfill rebuilds every derived document from the complete ledger history.
func (s *PortfolioService) Backfill(ctx context.Context) error {
	s.log.Info("starting historical data backfill")
	if _, err := s.Recalculate(ctx); err != nil {
		return fmt.Errorf("backfill: %w", err)
	}
	s.log.Info("historical data backfill completed")
	return nil
}

// RefreshPrices reprices the stored holdings without replaying the ledger. Only
// holdings that got a positive price are touched. It returns the number of
// symbols that were looked up.
func (s *PortfolioService) RefreshPrices(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, err := s.gw.ListHoldings(ctx)
	if err != nil {
		return 0, err
	}
	if len(stored) == 0 {
		return 0, nil
	}

	symbols := make([]string, len(stored))
	for i, h := range stored {
		symbols[i] = h.Symbol
	}
	prices := s.prices.Prices(ctx, symbols)
	fx := s.rates.Rate(ctx)
	now := s.now()

	updated := make([]models.Holding, 0, len(stored))
	for _, h := range stored {
		p := prices[h.Symbol]
		if !p.IsPositive() {
			continue
		}
		updated = append(updated, holdings.Reprice(h, p, fx, now))
	}
	if err := s.gw.UpdateHoldingPrices(ctx, updated); err != nil {
		return 0, fmt.Errorf("update prices: %w", err)
	}
	s.log.Infof("updated prices for %d of %d symbols", len(updated), len(symbols))
	return len(symbols), nil
}

func (s *PortfolioService) ExchangeRate(ctx context.Context) models.ExchangeRate {
	return models.ExchangeRate{
		Rate:      s.rates.Rate(ctx),
		From:      models.ForeignCurrency,
		To:        models.ReportingCurrency,
		Timestamp: s.now().UTC(),
	}
}
