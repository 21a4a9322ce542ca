package service

import (
	"context"
	"time"
)

// StartPriceRefresher reprices the stored holdings every interval until ctx is
// done. A non-positive interval disables it.
func (s *PortfolioService) StartPriceRefresher(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		s.log.Info("price refresher disabled")
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				s.log.Info("price refresher stopping")
				return
			case <-ticker.C:
				if _, err := s.RefreshPrices(ctx); err != nil {
					s.log.Warnf("scheduled price refresh failed: %v", err)
				}
			}
		}
	}()
}
