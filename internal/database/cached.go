package database

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"wealthscope/internal/models"
)

const (
	summaryKey  = "wealthscope:summary"
	holdingsKey = "wealthscope:holdings"
)

// CachedStore wraps a primary Gateway with a Redis read-through cache for the two
// derived documents the dashboard polls: the summary and the holdings list.
// Writes go to the primary and invalidate the cache; the ledger is never cached.
type CachedStore struct {
	Gateway
	rdb *redis.Client
	ttl time.Duration
	log *logrus.Logger
}

func NewCachedStore(primary Gateway, rdb *redis.Client, ttl time.Duration, log *logrus.Logger) *CachedStore {
	return &CachedStore{Gateway: primary, rdb: rdb, ttl: ttl, log: log}
}

func (s *CachedStore) GetSummary(ctx context.Context) (*models.PortfolioSummary, error) {
	if data, err := s.rdb.Get(ctx, summaryKey).Bytes(); err == nil {
		var summary models.PortfolioSummary
		if json.Unmarshal(data, &summary) == nil {
			return &summary, nil
		}
	}

	summary, err := s.Gateway.GetSummary(ctx)
	if err != nil || summary == nil {
		return summary, err
	}
	s.set(ctx, summaryKey, summary)
	return summary, nil
}

func (s *CachedStore) PutSummary(ctx context.Context, summary models.PortfolioSummary) error {
	if err := s.Gateway.PutSummary(ctx, summary); err != nil {
		return err
	}
	s.invalidate(ctx, summaryKey)
	return nil
}

func (s *CachedStore) ListHoldings(ctx context.Context) ([]models.Holding, error) {
	if data, err := s.rdb.Get(ctx, holdingsKey).Bytes(); err == nil {
		var hs []models.Holding
		if json.Unmarshal(data, &hs) == nil {
			return hs, nil
		}
	}

	hs, err := s.Gateway.ListHoldings(ctx)
	if err != nil {
		return nil, err
	}
	s.set(ctx, holdingsKey, hs)
	return hs, nil
}

func (s *CachedStore) ReplaceHoldings(ctx context.Context, hs []models.Holding) error {
	if err := s.Gateway.ReplaceHoldings(ctx, hs); err != nil {
		return err
	}
	s.invalidate(ctx, holdingsKey)
	return nil
}

func (s *CachedStore) UpdateHoldingPrices(ctx context.Context, hs []models.Holding) error {
	if err := s.Gateway.UpdateHoldingPrices(ctx, hs); err != nil {
		return err
	}
	s.invalidate(ctx, holdingsKey)
	return nil
}

func (s *CachedStore) set(ctx context.Context, key string, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := s.rdb.Set(ctx, key, data, s.ttl).Err(); err != nil {
		s.log.Warnf("redis set %s failed: %v", key, err)
	}
}

func (s *CachedStore) invalidate(ctx context.Context, key string) {
	if err := s.rdb.Del(ctx, key).Err(); err != nil {
		s.log.Warnf("redis del %s failed: %v", key, err)
	}
}
