package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	ProgressUpdates = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "training_progress_updates_total",
			Help: "Total number of training progress mutations",
		},
	)

	LevelUps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "training_level_ups_total",
			Help: "Level advancements by target level",
		},
		[]string{"level"},
	)

	CertificatesIssued = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "training_certificates_issued_total",
			Help: "Certificates issued for passed quizzes",
		},
	)

	RemoteFallbacks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "repository_remote_fallbacks_total",
			Help: "Remote backend failures served by the local store",
		},
		[]string{"operation"},
	)
)

func Init() {
	prometheus.MustRegister(RequestCounter)
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(ProgressUpdates)
	prometheus.MustRegister(LevelUps)
	prometheus.MustRegister(CertificatesIssued)
	prometheus.MustRegister(RemoteFallbacks)
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		RequestCounter.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
		).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
