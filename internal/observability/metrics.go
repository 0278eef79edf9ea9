package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	classifications   *prometheus.CounterVec
	visionAnalyses    *prometheus.CounterVec
	summaries         *prometheus.CounterVec
	framesDropped     prometheus.Counter
	activeSessions    prometheus.Gauge
}

// NewMetrics registers every collector on a private registry so that tests
// can build as many instances as they like.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total count of HTTP requests processed by route and status.",
		}, []string{"route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request durations by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		classifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sleep_classifications_total",
			Help: "Audio clips classified, by resulting state.",
		}, []string{"state"}),
		visionAnalyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vision_analyses_total",
			Help: "Frame analyses by outcome (event, raw, error).",
		}, []string{"outcome"}),
		summaries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vision_summaries_total",
			Help: "Session summaries by outcome (summary, raw, error, skipped).",
		}, []string{"outcome"}),
		framesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vision_frames_dropped_total",
			Help: "Frames evicted from a full session queue.",
		}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sessions_active",
			Help: "Sessions currently held in memory.",
		}),
	}

	m.registry.MustRegister(
		m.httpRequestsTotal,
		m.httpDuration,
		m.classifications,
		m.visionAnalyses,
		m.summaries,
		m.framesDropped,
		m.activeSessions,
	)

	return m
}

func (m *Metrics) ObserveClassification(state string) {
	if m == nil {
		return
	}
	m.classifications.WithLabelValues(state).Inc()
}

func (m *Metrics) ObserveAnalysis(outcome string) {
	if m == nil {
		return
	}
	m.visionAnalyses.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveSummary(outcome string) {
	if m == nil {
		return
	}
	m.summaries.WithLabelValues(outcome).Inc()
}

func (m *Metrics) FramesDropped(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.framesDropped.Add(float64(n))
}

func (m *Metrics) SetActiveSessions(n int) {
	if m == nil {
		return
	}
	m.activeSessions.Set(float64(n))
}

// Middleware records request counts and latency per matched route.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.httpRequestsTotal.WithLabelValues(route, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
