package observability

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPRequestSize     *prometheus.HistogramVec

	// Lint metrics
	FilesLintedTotal *prometheus.CounterVec
	TokensTotal      prometheus.Counter
	ViolationsTotal  *prometheus.CounterVec
	LintDuration     prometheus.Histogram
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "phpsniff_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "phpsniff_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		HTTPRequestSize: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "phpsniff_http_request_size_bytes",
				Help:    "HTTP request size in bytes",
				Buckets: prometheus.ExponentialBuckets(100, 10, 8),
			},
			[]string{"method", "path"},
		),

		FilesLintedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "phpsniff_files_linted_total",
				Help: "Total number of files linted",
			},
			[]string{"status"},
		),
		TokensTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "phpsniff_tokens_total",
				Help: "Total number of tokens scanned",
			},
		),
		ViolationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "phpsniff_violations_total",
				Help: "Total number of reported violations",
			},
			[]string{"rule", "code", "severity"},
		),
		LintDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "phpsniff_lint_duration_seconds",
				Help:    "Time spent linting a single file",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
		),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestSize,
		m.FilesLintedTotal,
		m.TokensTotal,
		m.ViolationsTotal,
		m.LintDuration,
	)

	return m
}

// ObserveFile records one linted file
func (m *Metrics) ObserveFile(_ context.Context, status string, tokens int, d time.Duration) {
	m.FilesLintedTotal.WithLabelValues(status).Inc()
	m.TokensTotal.Add(float64(tokens))
	m.LintDuration.Observe(d.Seconds())
}

// ObserveViolation records one reported violation
func (m *Metrics) ObserveViolation(_ context.Context, rule, code, severity string) {
	m.ViolationsTotal.WithLabelValues(rule, code, severity).Inc()
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// HTTPMetricsMiddleware instruments HTTP requests with Prometheus metrics
func HTTPMetricsMiddleware(metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			rw := &responseWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			if r.ContentLength > 0 {
				metrics.HTTPRequestSize.WithLabelValues(r.Method, r.URL.Path).Observe(float64(r.ContentLength))
			}

			next.ServeHTTP(rw, r)

			status := strconv.Itoa(rw.statusCode)
			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, r.URL.Path, status).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(time.Since(start).Seconds())
		})
	}
}

// MetricsHandler serves the registry in the Prometheus exposition format
func MetricsHandler(registry *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
