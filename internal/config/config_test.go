package config

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "POSTGRES_URL", "REDIS_URL", "REDIS_TTL", "PRICE_UPDATE_INTERVAL", "LOG_LEVEL"} {
		t.Setenv(k, "")
	}

	c := Load()
	assert.Equal(t, "8080", c.Port)
	assert.Empty(t, c.PostgresURL)
	assert.Equal(t, 30*time.Second, c.RedisTTL)
	assert.Equal(t, time.Hour, c.PriceInterval)
	assert.Equal(t, logrus.DebugLevel, c.LogLevel)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("PRICE_UPDATE_INTERVAL", "0")
	t.Setenv("REDIS_TTL", "bogus")
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("QUOTE_PRICE_PATH", "$.price")

	c := Load()
	assert.Equal(t, "9090", c.Port)
	assert.Equal(t, time.Duration(0), c.PriceInterval)
	assert.Equal(t, 30*time.Second, c.RedisTTL)
	assert.Equal(t, logrus.WarnLevel, c.LogLevel)
	assert.Equal(t, "$.price", c.QuotePath)
}
