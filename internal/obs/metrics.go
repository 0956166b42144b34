package obs

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	RequestsTotal       prometheus.Counter
	CacheHitsTotal      *prometheus.CounterVec
	StaleServedTotal    *prometheus.CounterVec
	RateLimitWait       prometheus.Histogram
	BreakerState        prometheus.Gauge
	BreakerOpensTotal   prometheus.Counter
	ProviderErrors      *prometheus.CounterVec
	ProviderLatency     *prometheus.HistogramVec
	MarginApplied       *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPRequestsTotal   *prometheus.CounterVec
	Registry            *prometheus.Registry
}

// Create Prometheus collectors and register them
func NewMetrics(p *prometheus.Registry) *Metrics {
	m := &Metrics{
		RequestsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "engine_requests_total",
			Help: "Total number of incoming search/detail requests",
		}),
		CacheHitsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "engine_cache_hits_total",
			Help: "Fresh cache hits per tier",
		}, []string{"tier"},
		),
		StaleServedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "engine_cache_stale_served_total",
			Help: "Stale entries served as degraded fallback per tier",
		}, []string{"tier"},
		),
		RateLimitWait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "engine_ratelimit_wait_seconds",
			Help:    "Time callers spent waiting for a rate limiter slot",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
		BreakerState: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "engine_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half_open, 2=open)",
		}),
		BreakerOpensTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "engine_breaker_opens_total",
			Help: "Number of times the circuit breaker opened",
		}),
		ProviderErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "provider_errors_total",
			Help: "Errors returned by the inventory provider per endpoint",
		}, []string{"endpoint"},
		),
		ProviderLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "provider_latency_seconds",
				Help:    "Latency of inventory provider calls",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),
		MarginApplied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "engine_margin_applied_total",
			Help: "Margin applications per rule outcome",
		}, []string{"outcome"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latencies",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		Registry: p,
	}

	// Register metrics with Prometheus
	p.MustRegister(
		m.RequestsTotal,
		m.CacheHitsTotal,
		m.StaleServedTotal,
		m.RateLimitWait,
		m.BreakerState,
		m.BreakerOpensTotal,
		m.ProviderErrors,
		m.ProviderLatency,
		m.MarginApplied,
		m.HTTPRequestDuration,
		m.HTTPRequestsTotal,
	)

	return m
}

func (m *Metrics) IncRequests() { m.RequestsTotal.Inc() }

func (m *Metrics) IncCacheHit(tier string) { m.CacheHitsTotal.WithLabelValues(tier).Inc() }

func (m *Metrics) IncStaleServed(tier string) { m.StaleServedTotal.WithLabelValues(tier).Inc() }

func (m *Metrics) ObserveRateLimitWait(seconds float64) { m.RateLimitWait.Observe(seconds) }

func (m *Metrics) SetBreakerState(state float64) { m.BreakerState.Set(state) }

func (m *Metrics) IncBreakerOpen() { m.BreakerOpensTotal.Inc() }

func (m *Metrics) ObserveProviderLatency(endpoint string, seconds float64) {
	m.ProviderLatency.WithLabelValues(endpoint).Observe(seconds)
}

func (m *Metrics) IncProviderFailure(endpoint string) {
	m.ProviderErrors.WithLabelValues(endpoint).Inc()
}

func (m *Metrics) IncMarginApplied(outcome string) {
	m.MarginApplied.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
