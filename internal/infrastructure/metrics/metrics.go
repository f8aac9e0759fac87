package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the shipping service metrics. All Record* methods are safe on
// a nil receiver so tests and tools can run without a registry.
type Metrics struct {
	serviceName string
	registry    *prometheus.Registry

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Pricing metrics
	CalculationsTotal      *prometheus.CounterVec
	CalculationFailures    *prometheus.CounterVec
	CalculationDuration    prometheus.Histogram
	FallbackZoneTotal      prometheus.Counter
	ZoneCacheLookups       *prometheus.CounterVec
	CalculationLogWrites   prometheus.Counter
	CalculationLogFailures prometheus.Counter
}

// Config holds metrics configuration
type Config struct {
	ServiceName string
	Namespace   string
}

// DefaultConfig returns default metrics configuration
func DefaultConfig(serviceName string) *Config {
	return &Config{
		ServiceName: serviceName,
		Namespace:   "bakery",
	}
}

// New creates a Metrics instance backed by its own registry.
func New(config *Config) *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(prometheus.NewGoCollector())
	registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	m := &Metrics{
		serviceName: config.ServiceName,
		registry:    registry,
	}

	m.HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"service", "method", "path", "status"},
	)

	m.HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: config.Namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"service", "method", "path"},
	)

	m.CalculationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "shipping_calculations_total",
			Help:      "Successful shipping fee calculations",
		},
		[]string{"service", "within_range", "free_shipping"},
	)

	m.CalculationFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "shipping_calculation_failures_total",
			Help:      "Shipping fee calculations that returned an error, by error code",
		},
		[]string{"service", "code"},
	)

	m.CalculationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Name:        "shipping_calculation_duration_seconds",
			Help:        "End-to-end shipping calculation duration including repository reads",
			Buckets:     []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
			ConstLabels: prometheus.Labels{"service": config.ServiceName},
		},
	)

	m.FallbackZoneTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Name:        "shipping_fallback_zone_total",
			Help:        "Calculations priced with the fallback fee because no zone matched",
			ConstLabels: prometheus.Labels{"service": config.ServiceName},
		},
	)

	m.ZoneCacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "shipping_zone_cache_lookups_total",
			Help:      "Zone cache lookups by result",
		},
		[]string{"service", "result"},
	)

	m.CalculationLogWrites = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Name:        "shipping_calculation_log_writes_total",
			Help:        "Calculation results persisted for analytics",
			ConstLabels: prometheus.Labels{"service": config.ServiceName},
		},
	)

	m.CalculationLogFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Name:        "shipping_calculation_log_failures_total",
			Help:        "Calculation log writes that failed and were dropped",
			ConstLabels: prometheus.Labels{"service": config.ServiceName},
		},
	)

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.CalculationsTotal,
		m.CalculationFailures,
		m.CalculationDuration,
		m.FallbackZoneTotal,
		m.ZoneCacheLookups,
		m.CalculationLogWrites,
		m.CalculationLogFailures,
	)

	return m
}

// Handler returns an HTTP handler for metrics endpoint
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// Registry returns the prometheus registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	statusStr := strconv.Itoa(status)
	m.HTTPRequestsTotal.WithLabelValues(m.serviceName, method, path, statusStr).Inc()
	m.HTTPRequestDuration.WithLabelValues(m.serviceName, method, path).Observe(duration.Seconds())
}

// RecordCalculation records a successful calculation
func (m *Metrics) RecordCalculation(withinRange, freeShipping, fallback bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.CalculationsTotal.WithLabelValues(m.serviceName, strconv.FormatBool(withinRange), strconv.FormatBool(freeShipping)).Inc()
	m.CalculationDuration.Observe(duration.Seconds())
	if fallback {
		m.FallbackZoneTotal.Inc()
	}
}

// RecordCalculationFailure records a failed calculation by error code
func (m *Metrics) RecordCalculationFailure(code string) {
	if m == nil {
		return
	}
	m.CalculationFailures.WithLabelValues(m.serviceName, code).Inc()
}

// RecordZoneCacheLookup records a zone cache hit or miss
func (m *Metrics) RecordZoneCacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.ZoneCacheLookups.WithLabelValues(m.serviceName, result).Inc()
}

// RecordCalculationLog records the outcome of an async calculation log write
func (m *Metrics) RecordCalculationLog(success bool) {
	if m == nil {
		return
	}
	if success {
		m.CalculationLogWrites.Inc()
		return
	}
	m.CalculationLogFailures.Inc()
}
