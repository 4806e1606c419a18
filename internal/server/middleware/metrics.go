package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// unmatchedRoute метка для запросов, не совпавших ни с одним маршрутом
const unmatchedRoute = "unmatched"

// Metrics содержит метрики HTTP сервера
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	InFlight        prometheus.Gauge
	RateLimited     *prometheus.CounterVec
}

// NewMetrics создает метрики и регистрирует их в reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rockbridge_http_requests_total",
				Help: "Total number of HTTP requests by method, route and status",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rockbridge_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		InFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "rockbridge_http_requests_in_flight",
			Help: "Number of HTTP requests being served",
		}),
		RateLimited: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rockbridge_http_rate_limited_total",
				Help: "Total number of requests rejected by the rate limiter by path",
			},
			[]string{"path"},
		),
	}

	reg.MustRegister(m.RequestsTotal, m.RequestDuration, m.InFlight, m.RateLimited)

	return m
}

// Middleware считает запросы и время их обработки.
// Метка route берется из шаблона маршрута ServeMux, а не из пути, чтобы id не раздували кардинальность.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		m.InFlight.Inc()
		defer m.InFlight.Dec()

		wrapped := wrapResponseWriter(w)
		next.ServeHTTP(wrapped, r)

		route := r.Pattern
		if route == "" {
			route = unmatchedRoute
		}

		m.RequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(wrapped.statusCode)).Inc()
		m.RequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// RecordRateLimited учитывает запрос, отклоненный rate limiter
func (m *Metrics) RecordRateLimited(r *http.Request) {
	m.RateLimited.WithLabelValues(r.URL.Path).Inc()
}
