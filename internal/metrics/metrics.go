package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels shared by the counters below.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

var (
	initOnce sync.Once

	requestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "atom",
		Name:      "http_request_duration_seconds",
		Help:      "Latency of HTTP requests by route and status.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	uploads = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "atom",
		Name:      "uploads_total",
		Help:      "Uploads by destination bucket and stage outcome.",
	}, []string{"bucket", "outcome"})

	uploadBytes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "atom",
		Name:      "upload_bytes_total",
		Help:      "Bytes written per destination bucket.",
	}, []string{"bucket"})

	publishes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "atom",
		Name:      "events_published_total",
		Help:      "Upload announcements by publish outcome.",
	}, []string{"outcome"})

	enrichments = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "atom",
		Name:      "enrichments_total",
		Help:      "Metadata patches applied by the enrichment consumer.",
	}, []string{"outcome"})
)

// InitMetrics registers collectors with the default registry. Safe to call repeatedly.
func InitMetrics() {
	initOnce.Do(func() {
		prometheus.MustRegister(requestDuration, uploads, uploadBytes, publishes, enrichments)
	})
}

// Register attaches the Prometheus metrics endpoint to the router.
func Register(router *gin.Engine, path string) {
	InitMetrics()
	router.GET(path, gin.WrapH(promhttp.Handler()))
}

// Middleware records request latency per matched route.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		requestDuration.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}

// ObserveUpload counts one upload attempt against a bucket.
func ObserveUpload(bucket, outcome string, size int64) {
	uploads.WithLabelValues(bucket, outcome).Inc()
	if outcome == OutcomeSuccess && size > 0 {
		uploadBytes.WithLabelValues(bucket).Add(float64(size))
	}
}

// ObservePublish counts one announcement publish.
func ObservePublish(ok bool) {
	publishes.WithLabelValues(outcome(ok)).Inc()
}

// ObserveEnrichment counts one enrichment delivery.
func ObserveEnrichment(ok bool) {
	enrichments.WithLabelValues(outcome(ok)).Inc()
}

func outcome(ok bool) string {
	if ok {
		return OutcomeSuccess
	}
	return OutcomeFailure
}
