package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"go.uber.org/zap"
)

// Rewrite outcomes
const (
	OutcomeUnchanged   = "unchanged"
	OutcomeCorrected   = "corrected"
	OutcomeWindowed    = "windowed"
	OutcomePassthrough = "passthrough"
	OutcomeError       = "error"
)

type PrometheusMetrics struct {
	httpHandler func(*fasthttp.RequestCtx)
	logger      *zap.Logger

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	rewritesTotal   *prometheus.CounterVec
	cacheOperations *prometheus.CounterVec
	headLinksTotal  *prometheus.CounterVec
	pagesPerListing prometheus.Histogram
}

// NewPrometheusMetrics creates metrics on a private registry that also
// carries the Go runtime and process collectors.
func NewPrometheusMetrics(namespace string, logger *zap.Logger) *PrometheusMetrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return NewPrometheusMetricsWithRegistry(namespace, registry, logger)
}

// NewPrometheusMetricsWithRegistry registers the service metrics on registry.
func NewPrometheusMetricsWithRegistry(namespace string, registry *prometheus.Registry, logger *zap.Logger) *PrometheusMetrics {
	if namespace == "" {
		namespace = "pagination"
	}

	pm := &PrometheusMetrics{
		logger: logger,
	}

	pm.requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Total number of API requests",
		},
		[]string{"endpoint", "status"},
	)

	pm.requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "API request duration in seconds",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"endpoint"},
	)

	pm.rewritesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rewrites_total",
			Help:      "Pagination widgets processed, by outcome",
		},
		[]string{"outcome"},
	)

	pm.cacheOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_operations_total",
			Help:      "Total page count cache operations",
		},
		[]string{"operation", "result"},
	)

	pm.headLinksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "head_links_total",
			Help:      "rel=prev/next head links emitted",
		},
		[]string{"rel"},
	)

	pm.pagesPerListing = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "total_pages",
			Help:      "Resolved total page count of rewritten listings",
			Buckets:   []float64{1, 2, 5, 8, 10, 20, 50, 100, 500},
		},
	)

	registry.MustRegister(pm.requestsTotal)
	registry.MustRegister(pm.requestDuration)
	registry.MustRegister(pm.rewritesTotal)
	registry.MustRegister(pm.cacheOperations)
	registry.MustRegister(pm.headLinksTotal)
	registry.MustRegister(pm.pagesPerListing)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{
		ErrorHandling: promhttp.ContinueOnError,
	})
	pm.httpHandler = fasthttpadaptor.NewFastHTTPHandler(handler)

	if logger != nil {
		logger.Info("Prometheus metrics initialized for pagination service",
			zap.String("namespace", namespace))
	}

	return pm
}

func (pm *PrometheusMetrics) RecordRequest(endpoint string, status int, duration time.Duration) {
	pm.requestsTotal.WithLabelValues(endpoint, statusClass(status)).Inc()
	pm.requestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

func (pm *PrometheusMetrics) RecordRewrite(outcome string, totalPages int) {
	pm.rewritesTotal.WithLabelValues(outcome).Inc()
	if totalPages > 0 {
		pm.pagesPerListing.Observe(float64(totalPages))
	}
}

// RecordCacheOp implements totals.Recorder.
func (pm *PrometheusMetrics) RecordCacheOp(op, result string) {
	pm.cacheOperations.WithLabelValues(op, result).Inc()
}

func (pm *PrometheusMetrics) RecordHeadLink(rel string) {
	pm.headLinksTotal.WithLabelValues(rel).Inc()
}

func (pm *PrometheusMetrics) ServeHTTP(ctx *fasthttp.RequestCtx) {
	pm.httpHandler(ctx)
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	default:
		return "2xx"
	}
}
