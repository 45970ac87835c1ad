package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "social_http_requests_total",
			Help: "Total number of HTTP requests processed by the social service.",
		},
		[]string{"method", "route", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "social_http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
	docstoreRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "social_docstore_requests_total",
			Help: "Total number of document store calls by method and status.",
		},
		[]string{"method", "status"},
	)
	docstoreRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "social_docstore_request_duration_seconds",
			Help:    "Document store call latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)
	swallowedWritesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "social_swallowed_write_failures_total",
			Help: "Document writes that failed inside a best-effort step and were not surfaced.",
		},
		[]string{"operation"},
	)
	counterConflictsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "social_unread_counter_conflicts_total",
			Help: "Conditional unread counter writes rejected because the counter changed.",
		},
	)
	domainEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "social_domain_events_total",
			Help: "Social graph and messaging events by type.",
		},
		[]string{"event"},
	)
	wsActiveConnections = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "social_ws_active_connections",
			Help: "Number of active websocket connections.",
		},
		[]string{"kind"},
	)
	wsEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "social_ws_events_total",
			Help: "Total number of websocket events.",
		},
		[]string{"kind", "event"},
	)
	amqpPublishErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "social_amqp_publish_errors_total",
			Help: "Total number of AMQP publish errors.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		docstoreRequestsTotal,
		docstoreRequestDuration,
		swallowedWritesTotal,
		counterConflictsTotal,
		domainEventsTotal,
		wsActiveConnections,
		wsEventsTotal,
		amqpPublishErrorsTotal,
	)
}

func HTTPMetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		status := c.Writer.Status()

		httpRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

// ObserveDocstoreRequest records one document store round trip. status is the HTTP
// status code, or "error" for transport failures.
func ObserveDocstoreRequest(method, status string, elapsed time.Duration) {
	docstoreRequestsTotal.WithLabelValues(method, status).Inc()
	docstoreRequestDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}

func IncSwallowedWrite(operation string) {
	swallowedWritesTotal.WithLabelValues(operation).Inc()
}

func IncCounterConflict() {
	counterConflictsTotal.Inc()
}

func IncDomainEvent(event string) {
	domainEventsTotal.WithLabelValues(event).Inc()
}

func IncWSActive(kind string) {
	wsActiveConnections.WithLabelValues(kind).Inc()
}

func DecWSActive(kind string) {
	wsActiveConnections.WithLabelValues(kind).Dec()
}

func IncWSEvent(kind, event string) {
	wsEventsTotal.WithLabelValues(kind, event).Inc()
}

func IncAMQPPublishError() {
	amqpPublishErrorsTotal.Inc()
}
