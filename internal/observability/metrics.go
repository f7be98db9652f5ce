package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled" mapstructure:"enabled"`
	Path      string `yaml:"path" mapstructure:"path"`
	Namespace string `yaml:"namespace" mapstructure:"namespace"`
}

// MetricsManager owns a private registry shared by the client-side and
// fake-server collectors. A disabled manager is safe to call and records nothing.
type MetricsManager struct {
	config   MetricsConfig
	registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpResponseSize    *prometheus.HistogramVec

	clientRequests        *prometheus.CounterVec
	clientRequestDuration *prometheus.HistogramVec
	clientTransportErrors *prometheus.CounterVec

	elementOperations        *prometheus.CounterVec
	elementOperationDuration *prometheus.HistogramVec

	cacheHits   *prometheus.CounterVec
	cacheMisses *prometheus.CounterVec
	cacheSize   prometheus.Gauge

	resolutionFailures *prometheus.CounterVec

	buildInfo *prometheus.GaugeVec
}

func NewMetricsManager(config MetricsConfig) *MetricsManager {
	if !config.Enabled {
		return &MetricsManager{config: config}
	}

	registry := prometheus.NewRegistry()

	namespace := config.Namespace
	if namespace == "" {
		namespace = "worldkit"
	}

	mm := &MetricsManager{
		config:   config,
		registry: registry,
	}

	mm.httpRequestsTotal = promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests served",
		},
		[]string{"method", "status_code"},
	)

	mm.httpRequestDuration = promauto.With(registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	mm.httpResponseSize = promauto.With(registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "response_size_bytes",
			Help:      "HTTP response size in bytes",
			Buckets:   prometheus.ExponentialBuckets(256, 2, 10),
		},
		[]string{"method"},
	)

	mm.clientRequests = promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "client",
			Name:      "requests_total",
			Help:      "Total number of requests sent to the world API",
		},
		[]string{"method", "element_type", "status_code"},
	)

	mm.clientRequestDuration = promauto.With(registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "client",
			Name:      "request_duration_seconds",
			Help:      "World API round-trip duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "element_type"},
	)

	mm.clientTransportErrors = promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "client",
			Name:      "transport_errors_total",
			Help:      "Requests that failed without an HTTP response",
		},
		[]string{"method", "element_type"},
	)

	mm.elementOperations = promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "element",
			Name:      "operations_total",
			Help:      "Total number of element operations",
		},
		[]string{"operation", "element_type", "status"},
	)

	mm.elementOperationDuration = promauto.With(registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "element",
			Name:      "operation_duration_seconds",
			Help:      "Element operation duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation", "element_type"},
	)

	mm.cacheHits = promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Total number of element cache hits",
		},
		[]string{"element_type"},
	)

	mm.cacheMisses = promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "misses_total",
			Help:      "Total number of element cache misses",
		},
		[]string{"element_type"},
	)

	mm.cacheSize = promauto.With(registry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "entries",
			Help:      "Number of cached elements",
		},
	)

	mm.resolutionFailures = promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "element",
			Name:      "reference_resolution_failures_total",
			Help:      "References that could not be resolved",
		},
		[]string{"field"},
	)

	mm.buildInfo = promauto.With(registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "system",
			Name:      "build_info",
			Help:      "Build information",
		},
		[]string{"version", "commit", "build_time"},
	)

	return mm
}

func (mm *MetricsManager) RecordHTTPRequest(method string, statusCode int, duration time.Duration, responseSize int64) {
	if !mm.IsEnabled() {
		return
	}

	mm.httpRequestsTotal.WithLabelValues(method, strconv.Itoa(statusCode)).Inc()
	mm.httpRequestDuration.WithLabelValues(method).Observe(duration.Seconds())
	mm.httpResponseSize.WithLabelValues(method).Observe(float64(responseSize))
}

// RecordClientRequest records one round trip to the world API. statusCode is
// zero when the request failed before a response arrived.
func (mm *MetricsManager) RecordClientRequest(method, elementType string, statusCode int, duration time.Duration) {
	if !mm.IsEnabled() {
		return
	}

	if statusCode == 0 {
		mm.clientTransportErrors.WithLabelValues(method, elementType).Inc()
	} else {
		mm.clientRequests.WithLabelValues(method, elementType, strconv.Itoa(statusCode)).Inc()
	}
	mm.clientRequestDuration.WithLabelValues(method, elementType).Observe(duration.Seconds())
}

func (mm *MetricsManager) RecordElementOperation(operation, elementType, status string, duration time.Duration) {
	if !mm.IsEnabled() {
		return
	}

	mm.elementOperations.WithLabelValues(operation, elementType, status).Inc()
	mm.elementOperationDuration.WithLabelValues(operation, elementType).Observe(duration.Seconds())
}

func (mm *MetricsManager) RecordCacheHit(elementType string) {
	if !mm.IsEnabled() {
		return
	}
	mm.cacheHits.WithLabelValues(elementType).Inc()
}

func (mm *MetricsManager) RecordCacheMiss(elementType string) {
	if !mm.IsEnabled() {
		return
	}
	mm.cacheMisses.WithLabelValues(elementType).Inc()
}

func (mm *MetricsManager) SetCacheSize(size int) {
	if !mm.IsEnabled() {
		return
	}
	mm.cacheSize.Set(float64(size))
}

func (mm *MetricsManager) RecordResolutionFailure(field string) {
	if !mm.IsEnabled() {
		return
	}
	mm.resolutionFailures.WithLabelValues(field).Inc()
}

func (mm *MetricsManager) SetBuildInfo(version, commit, buildTime string) {
	if !mm.IsEnabled() {
		return
	}
	mm.buildInfo.WithLabelValues(version, commit, buildTime).Set(1)
}

// Registry exposes the underlying registry, nil when disabled
func (mm *MetricsManager) Registry() *prometheus.Registry {
	return mm.registry
}

func (mm *MetricsManager) Handler() http.Handler {
	if !mm.IsEnabled() {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(mm.registry, promhttp.HandlerOpts{})
}

func (mm *MetricsManager) MetricsMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !mm.IsEnabled() {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			wrapped := &metricsResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			mm.RecordHTTPRequest(r.Method, wrapped.statusCode, time.Since(start), wrapped.size)
		})
	}
}

type metricsResponseWriter struct {
	http.ResponseWriter
	statusCode int
	size       int64
}

func (mrw *metricsResponseWriter) WriteHeader(statusCode int) {
	mrw.statusCode = statusCode
	mrw.ResponseWriter.WriteHeader(statusCode)
}

func (mrw *metricsResponseWriter) Write(data []byte) (int, error) {
	size, err := mrw.ResponseWriter.Write(data)
	mrw.size += int64(size)
	return size, err
}

func (mm *MetricsManager) IsEnabled() bool {
	return mm != nil && mm.config.Enabled
}
