package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	Port          string
	PostgresURL   string
	RedisURL      string
	RedisTTL      time.Duration
	FXURL         string
	QuoteURL      string
	QuoteAPIKey   string
	QuotePath     string
	PriceInterval time.Duration
	LogLevel      logrus.Level
}

// Load reads the environment, after loading .env if one exists. A missing .env is
// not an error (production sets real variables).
func Load() Config {
	_ = godotenv.Load()

	c := Config{
		Port:          env("PORT", "8080"),
		PostgresURL:   os.Getenv("POSTGRES_URL"),
		RedisURL:      os.Getenv("REDIS_URL"),
		RedisTTL:      seconds("REDIS_TTL", 30),
		FXURL:         os.Getenv("FX_API_URL"),
		QuoteURL:      os.Getenv("QUOTE_API_URL"),
		QuoteAPIKey:   os.Getenv("QUOTE_API_KEY"),
		QuotePath:     os.Getenv("QUOTE_PRICE_PATH"),
		PriceInterval: seconds("PRICE_UPDATE_INTERVAL", 3600),
		LogLevel:      logrus.DebugLevel,
	}
	if lvl, err := logrus.ParseLevel(strings.TrimSpace(os.Getenv("LOG_LEVEL"))); err == nil {
		c.LogLevel = lvl
	}
	return c
}

func env(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// seconds parses a non-negative integer number of seconds; 0 is kept so callers
// can treat it as "disabled".
func seconds(key string, def int) time.Duration {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return time.Duration(n) * time.Second
		}
	}
	return time.Duration(def) * time.Second
}
