package database

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"wealthscope/internal/models"
)

// MemoryStore implements Gateway with in-memory slices. Used for tests and local
// development when no database is configured.
type MemoryStore struct {
	mu           sync.RWMutex
	transactions []models.Transaction
	dividends    []models.Dividend
	holdings     map[string]models.Holding
	summary      *models.PortfolioSummary
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{holdings: make(map[string]models.Holding)}
}

func (s *MemoryStore) ListTransactions(_ context.Context) ([]models.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := append([]models.Transaction(nil), s.transactions...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].TransactionDate.Before(out[j].TransactionDate) })
	return out, nil
}

func (s *MemoryStore) RecentTransactions(ctx context.Context, limit int) ([]models.Transaction, error) {
	all, _ := s.ListTransactions(ctx)
	out := make([]models.Transaction, 0, limit)
	for i := len(all) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, all[i])
	}
	return out, nil
}

func (s *MemoryStore) AppendTransaction(_ context.Context, tx models.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.transactions {
		if existing.ID == tx.ID {
			return fmt.Errorf("transaction %s: %w", tx.ID, ErrDuplicateRecord)
		}
	}
	s.transactions = append(s.transactions, tx)
	return nil
}

func (s *MemoryStore) ListDividendsInRange(_ context.Context, start, end time.Time) ([]models.Dividend, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.Dividend{}
	for _, d := range s.dividends {
		if d.PaymentDate.Before(start) || d.PaymentDate.After(end) {
			continue
		}
		out = append(out, d)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].PaymentDate.Before(out[j].PaymentDate) })
	return out, nil
}

func (s *MemoryStore) RecentDividends(_ context.Context, limit int) ([]models.Dividend, error) {
	s.mu.RLock()
	all := append([]models.Dividend(nil), s.dividends...)
	s.mu.RUnlock()

	sort.SliceStable(all, func(i, j int) bool { return all[i].PaymentDate.Before(all[j].PaymentDate) })
	out := make([]models.Dividend, 0, limit)
	for i := len(all) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, all[i])
	}
	return out, nil
}

func (s *MemoryStore) AppendDividend(_ context.Context, d models.Dividend) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.dividends {
		if existing.ID == d.ID {
			return fmt.Errorf("dividend %s: %w", d.ID, ErrDuplicateRecord)
		}
	}
	s.dividends = append(s.dividends, d)
	return nil
}

func (s *MemoryStore) ListHoldings(_ context.Context) ([]models.Holding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Holding, 0, len(s.holdings))
	for _, h := range s.holdings {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out, nil
}

func (s *MemoryStore) ReplaceHoldings(_ context.Context, hs []models.Holding) error {
	next := make(map[string]models.Holding, len(hs))
	for _, h := range hs {
		if _, dup := next[h.Symbol]; dup {
			return fmt.Errorf("insert holding %s: duplicate symbol", h.Symbol)
		}
		next[h.Symbol] = h
	}

	s.mu.Lock()
	s.holdings = next
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) UpdateHoldingPrices(_ context.Context, hs []models.Holding) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, h := range hs {
		cur, ok := s.holdings[h.Symbol]
		if !ok {
			continue
		}
		cur.CurrentPrice = h.CurrentPrice
		cur.CurrentPriceCAD = h.CurrentPriceCAD
		cur.MarketValue = h.MarketValue
		cur.MarketValueCAD = h.MarketValueCAD
		cur.UnrealizedGainLoss = h.UnrealizedGainLoss
		cur.UnrealizedGainLossCAD = h.UnrealizedGainLossCAD
		cur.UnrealizedGainLossPercentage = h.UnrealizedGainLossPercentage
		cur.LastUpdated = h.LastUpdated
		s.holdings[h.Symbol] = cur
	}
	return nil
}

func (s *MemoryStore) GetSummary(_ context.Context) (*models.PortfolioSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.summary == nil {
		return nil, nil
	}
	copy := *s.summary
	return &copy, nil
}

func (s *MemoryStore) PutSummary(_ context.Context, summary models.PortfolioSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summary = &summary
	return nil
}
