// Package app assembles storage, market data and the portfolio service from
// configuration. Both the HTTP server and the admin CLI start from here.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"wealthscope/internal/config"
	"wealthscope/internal/database"
	"wealthscope/internal/market"
	"wealthscope/internal/service"
)

type App struct {
	Store   database.Gateway
	Service *service.PortfolioService

	closers []func() error
}

// New connects to the configured backends. Without POSTGRES_URL the ledger lives
// in memory; with REDIS_URL the derived documents are cached in Redis.
func New(ctx context.Context, cfg config.Config, log *logrus.Logger) (*App, error) {
	a := &App{}

	if cfg.PostgresURL != "" {
		db, err := initDB(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, fmt.Errorf("db connect: %w", err)
		}
		a.closers = append(a.closers, db.Close)
		a.Store = database.New(db, log)
		log.Info("using postgres store")
	} else {
		a.Store = database.NewMemoryStore()
		log.Warn("POSTGRES_URL not set, using in-memory store")
	}

	if cfg.RedisURL != "" {
		rdb, err := initRedis(ctx, cfg.RedisURL)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("redis connect: %w", err)
		}
		a.closers = append(a.closers, rdb.Close)
		a.Store = database.NewCachedStore(a.Store, rdb, cfg.RedisTTL, log)
		log.Infof("caching holdings and summary in redis (ttl %s)", cfg.RedisTTL)
	}

	rates := market.NewRateCache(market.NewFXClient(cfg.FXURL), time.Now, log)
	prices := market.NewPriceCache(market.NewQuoteClient(cfg.QuoteURL, cfg.QuoteAPIKey, cfg.QuotePath), time.Now, log)
	a.Service = service.NewPortfolioService(a.Store, rates, prices, log)
	return a, nil
}

// Close releases connections in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i]()
	}
}

func initDB(ctx context.Context, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	return db, nil
}

func initRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, err
	}
	return rdb, nil
}
