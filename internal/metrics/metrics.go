// Package metrics provides Prometheus instrumentation for the identity
// service.
package metrics

import (
	"context"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "identity",
			Name:      "http_requests_total",
			Help:      "Total HTTP requests by method, path pattern, and status bucket.",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration observes request latency by method and path.
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "identity",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Verifications counts risk evaluations by resulting status.
	Verifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "identity",
			Name:      "verifications_total",
			Help:      "Total risk evaluations by effective status.",
		},
		[]string{"status"},
	)

	// RiskScore observes the distribution of computed risk scores.
	RiskScore = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "identity",
			Name:      "risk_score",
			Help:      "Distribution of computed risk scores (0-100).",
			Buckets:   prometheus.LinearBuckets(0, 10, 11),
		},
	)

	// ChallengesInitiated counts challenge issuance by kind and result.
	ChallengesInitiated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "identity",
			Name:      "challenges_initiated_total",
			Help:      "Total challenge initiations by type and result.",
		},
		[]string{"type", "result"},
	)

	// ChallengesVerified counts verification attempts by kind and result.
	ChallengesVerified = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "identity",
			Name:      "challenges_verified_total",
			Help:      "Total challenge verification attempts by type and result.",
		},
		[]string{"type", "result"},
	)

	// ActiveChallenges tracks live (unswept) challenge records.
	ActiveChallenges = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "identity",
			Name:      "active_challenges",
			Help:      "Number of challenge records currently held in the store.",
		},
	)

	// ReputationLookups counts reputation lookups by outcome.
	ReputationLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "identity",
			Name:      "reputation_lookups_total",
			Help:      "Total IP-reputation lookups by outcome (ok, skipped).",
		},
		[]string{"result"},
	)

	// GoroutineCount tracks the current number of goroutines.
	GoroutineCount = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "identity", Name: "goroutines",
		Help: "Current number of goroutines.",
	})
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		Verifications,
		RiskScore,
		ChallengesInitiated,
		ChallengesVerified,
		ActiveChallenges,
		ReputationLookups,
		GoroutineCount,
	)
}

// StartRuntimeCollector periodically samples runtime gauges. Call in a
// goroutine; exits when ctx is done.
func StartRuntimeCollector(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			GoroutineCount.Set(float64(runtime.NumGoroutine()))
		}
	}
}

// Middleware returns a gin middleware that records request metrics.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		timer := prometheus.NewTimer(HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(), // route pattern, not raw path (avoids cardinality explosion)
		))

		c.Next()

		timer.ObserveDuration()
		HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			statusBucket(c.Writer.Status()),
		).Inc()
	}
}

// Handler returns the Prometheus metrics handler for the /metrics endpoint.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// statusBucket groups HTTP status codes into buckets (2xx, 3xx, 4xx, 5xx).
func statusBucket(code int) string {
	switch {
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
