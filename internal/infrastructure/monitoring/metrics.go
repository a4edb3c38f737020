package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Tab metrics
	TabsOpen  prometheus.Gauge
	TabsTotal prometheus.Counter

	// Message metrics
	MessagesTotal    *prometheus.CounterVec
	MessageRetries   prometheus.Counter
	SendDuration     prometheus.Histogram
	RequestsCanceled prometheus.Counter

	// Cache metrics
	CacheHits      prometheus.Counter
	CacheMisses    prometheus.Counter
	CacheEvictions prometheus.Counter

	// Persistence metrics
	SavesTotal   prometheus.Counter
	SaveFailures prometheus.Counter
	LoadsTotal   prometheus.Counter
	LoadFailures prometheus.Counter

	// WebSocket metrics
	WSConnections prometheus.Gauge

	startTime time.Time
}

// NewMetrics creates a new metrics collector
func NewMetrics() *Metrics {
	return &Metrics{
		startTime: time.Now(),

		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sessiond_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sessiond_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),

		TabsOpen: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "sessiond_tabs_open",
				Help: "Number of currently open tabs",
			},
		),
		TabsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "sessiond_tabs_total",
				Help: "Total number of tabs created",
			},
		),

		MessagesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sessiond_messages_total",
				Help: "Messages reaching a delivery state",
			},
			[]string{"status"},
		),
		MessageRetries: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "sessiond_message_retries_total",
				Help: "Total number of message retry attempts",
			},
		),
		SendDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "sessiond_send_duration_seconds",
				Help:    "Send/generate round trip duration in seconds",
				Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
			},
		),
		RequestsCanceled: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "sessiond_requests_canceled_total",
				Help: "In-flight requests canceled by tab switches",
			},
		),

		CacheHits: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "sessiond_cache_hits_total",
				Help: "Conversation cache hits",
			},
		),
		CacheMisses: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "sessiond_cache_misses_total",
				Help: "Conversation cache misses",
			},
		),
		CacheEvictions: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "sessiond_cache_evictions_total",
				Help: "Conversation cache evictions",
			},
		),

		SavesTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "sessiond_conversation_saves_total",
				Help: "Conversation save attempts",
			},
		),
		SaveFailures: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "sessiond_conversation_save_failures_total",
				Help: "Conversation save failures (best-effort, logged only)",
			},
		),
		LoadsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "sessiond_conversation_loads_total",
				Help: "Conversation load attempts",
			},
		),
		LoadFailures: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "sessiond_conversation_load_failures_total",
				Help: "Conversation load failures",
			},
		),

		WSConnections: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "sessiond_ws_connections",
				Help: "Active WebSocket connections",
			},
		),
	}
}

// RecordHTTPRequest records one completed HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// Uptime returns time since the collector was created
func (m *Metrics) Uptime() time.Duration {
	return time.Since(m.startTime)
}
