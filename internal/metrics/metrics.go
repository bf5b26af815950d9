package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sirupsen/logrus"
)

// Callback results
const (
	ResultSuccess        = "success"
	ResultProviderError  = "provider_error"
	ResultInvalidRequest = "invalid_request"
	ResultInvalidState   = "invalid_state"
	ResultTokenFailed    = "token_failed"
	ResultBankingFailed  = "banking_failed"
	ResultInternalError  = "internal_error"
)

// Upstream names
const (
	UpstreamToken    = "token"
	UpstreamAccounts = "accounts"
)

// MetricsCollector holds all Prometheus metrics for the relay
type MetricsCollector struct {
	// HTTP request metrics
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Relay metrics
	callbacksTotal          *prometheus.CounterVec
	upstreamRequestsTotal   *prometheus.CounterVec
	upstreamRequestDuration *prometheus.HistogramVec
	loginRedirectsTotal     prometheus.Counter

	// Error metrics
	errorsTotal *prometheus.CounterVec

	log *logrus.Logger
	// requests slower than this are logged as warnings
	slowRequestThreshold time.Duration
}

// NewMetricsCollector creates a new metrics collector registered with reg
func NewMetricsCollector(reg prometheus.Registerer, log *logrus.Logger) *MetricsCollector {
	factory := promauto.With(reg)

	mc := &MetricsCollector{
		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oauth2_relay_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status_code"},
		),

		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "oauth2_relay_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),

		callbacksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oauth2_relay_callbacks_total",
				Help: "Total number of OAuth2 callbacks by result",
			},
			[]string{"result"},
		),

		upstreamRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oauth2_relay_upstream_requests_total",
				Help: "Total number of calls to the bank by upstream and outcome",
			},
			[]string{"upstream", "outcome"},
		),

		upstreamRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "oauth2_relay_upstream_request_duration_seconds",
				Help:    "Duration of calls to the bank in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"upstream"},
		),

		loginRedirectsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "oauth2_relay_login_redirects_total",
				Help: "Total number of redirects to the bank authorize endpoint",
			},
		),

		errorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oauth2_relay_errors_total",
				Help: "Total number of errors",
			},
			[]string{"type", "endpoint"},
		),

		log: log,
		// the callback makes two upstream calls, so only flag the really slow ones
		slowRequestThreshold: 5 * time.Second,
	}

	return mc
}

// RecordHTTPRequest records an HTTP request
func (mc *MetricsCollector) RecordHTTPRequest(method, endpoint string, statusCode int, duration time.Duration) {
	mc.httpRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	mc.httpRequestDuration.With(prometheus.Labels{
		"method":   method,
		"endpoint": endpoint,
	}).Observe(duration.Seconds())
}

// RecordCallback records the result of a callback
func (mc *MetricsCollector) RecordCallback(result string) {
	mc.callbacksTotal.WithLabelValues(result).Inc()
}

// RecordUpstreamRequest records a call to the token or accounts endpoint
func (mc *MetricsCollector) RecordUpstreamRequest(upstream string, err error, duration time.Duration) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	mc.upstreamRequestsTotal.WithLabelValues(upstream, outcome).Inc()
	mc.upstreamRequestDuration.WithLabelValues(upstream).Observe(duration.Seconds())
}

// RecordLoginRedirect records a redirect to the authorize endpoint
func (mc *MetricsCollector) RecordLoginRedirect() {
	mc.loginRedirectsTotal.Inc()
}

// RecordError records an error
func (mc *MetricsCollector) RecordError(errorType, endpoint string) {
	mc.errorsTotal.WithLabelValues(errorType, endpoint).Inc()
}

// Middleware creates an HTTP middleware for recording metrics
func (mc *MetricsCollector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		duration := time.Since(start)
		mc.RecordHTTPRequest(r.Method, getEndpointFromPath(r.URL.Path), rw.statusCode, duration)

		if duration > mc.slowRequestThreshold {
			mc.log.WithFields(logrus.Fields{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": duration,
				"status":   rw.statusCode,
			}).Warn("Slow request detected")
		}
	})
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

// getEndpointFromPath keeps label cardinality bounded
func getEndpointFromPath(path string) string {
	switch path {
	case "/":
		return "root"
	case "/login":
		return "login"
	case "/callback":
		return "callback"
	case "/health":
		return "health"
	case "/version":
		return "version"
	case "/metrics":
		return "metrics"
	default:
		return "other"
	}
}
