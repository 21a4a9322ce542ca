// Package metrics provides Prometheus instrumentation for the portfolio service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Recalculations counts aggregation passes by outcome ("ok" or "error").
	Recalculations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wealthscope_recalculations_total",
		Help: "Total number of holdings/summary recalculations",
	}, []string{"outcome"})

	RecalculationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "wealthscope_recalculation_duration_seconds",
		Help:    "Recalculation latency in seconds",
		Buckets: prometheus.DefBuckets,
	})

	// ProviderFailures counts upstream failures recovered by a fallback value.
	ProviderFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wealthscope_provider_failures_total",
		Help: "Upstream FX/price provider failures",
	}, []string{"provider"})

	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wealthscope_cache_hits_total",
		Help: "Rate and price cache hits",
	}, []string{"cache"})

	Holdings = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "wealthscope_holdings",
		Help: "Number of open holdings after the last recalculation",
	})

	LedgerWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wealthscope_ledger_writes_total",
		Help: "Webhook records appended to the ledger",
	}, []string{"kind"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wealthscope_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "wealthscope_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	}, []string{"method", "path"})
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request counts and latency. The route pattern is used as the
// path label to keep cardinality bounded.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		HTTPRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}
