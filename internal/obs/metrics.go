package obs

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cadauth_http_in_flight_requests",
		Help: "In-flight HTTP requests.",
	})

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cadauth_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cadauth_http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	// LoginOutcomes рахує результати /callback: issued, state_mismatch, missing_code, upstream_error, ...
	LoginOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cadauth_login_outcomes_total",
			Help: "OAuth callback outcomes.",
		},
		[]string{"outcome"},
	)

	// LookupErrors рахує помилки читання сховища членства по ключах
	LookupErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cadauth_department_lookup_errors_total",
			Help: "Membership store lookups that failed and were treated as non-membership.",
		},
		[]string{"key"},
	)

	// TokenRejections рахує відхилені bearer токени за причиною
	TokenRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cadauth_token_rejections_total",
			Help: "Bearer tokens rejected by the verifier.",
		},
		[]string{"reason"},
	)
)

var registerOnce sync.Once

// Init реєструє метрики в default-регістрі. Повторні виклики нічого не роблять.
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpInFlight,
			httpRequestsTotal,
			httpRequestDuration,
			LoginOutcomes,
			LookupErrors,
			TokenRejections,
		)
	})
}

// Handler повертає gin handler для /metrics
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}

// Instrument міряє RPS/latency/in-flight для кожного маршруту
func Instrument() gin.HandlerFunc {
	return func(c *gin.Context) {
		httpInFlight.Inc()
		defer httpInFlight.Dec()
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())

		httpRequestDuration.WithLabelValues(c.Request.Method, route, status).Observe(time.Since(start).Seconds())
		httpRequestsTotal.WithLabelValues(c.Request.Method, route, status).Inc()
	}
}
