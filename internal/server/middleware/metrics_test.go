package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetrics_Registers(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	require.NotNil(t, m)

	// повторная регистрация тех же метрик недопустима
	assert.Panics(t, func() { NewMetrics(reg) })
}

func TestMetrics_MiddlewareUsesRoutePattern(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	mux := http.NewServeMux()
	mux.HandleFunc("DELETE /api/v1/services/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := m.Middleware(mux)

	for _, id := range []string{"a1", "b2", "c3"} {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodDelete, "/api/v1/services/"+id, nil))
	}
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	assert.Equal(t, float64(3), testutil.ToFloat64(m.RequestsTotal.WithLabelValues(http.MethodDelete, "DELETE /api/v1/services/{id}", "200")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.RequestsTotal.WithLabelValues(http.MethodGet, unmatchedRoute, "404")))
	// по одной серии на маршрут, а не на id
	assert.Equal(t, 2, testutil.CollectAndCount(m.RequestsTotal))
	assert.Equal(t, 2, testutil.CollectAndCount(m.RequestDuration))
	assert.Equal(t, float64(0), testutil.ToFloat64(m.InFlight))
}

func TestMetrics_InFlight(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	started := make(chan struct{})
	release := make(chan struct{})
	handler := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-release
	}))

	done := make(chan struct{})
	go func() {
		defer close(done)
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/slow", nil))
	}()

	<-started
	assert.Equal(t, float64(1), testutil.ToFloat64(m.InFlight))
	close(release)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("handler did not finish")
	}
	assert.Equal(t, float64(0), testutil.ToFloat64(m.InFlight))
}

func TestMetrics_RecordRateLimited(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	limiter := NewRateLimiter(1, time.Minute, discardLogger(), WithOnReject(m.RecordRateLimited))
	defer limiter.Stop()
	handler := limiter.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 3; i++ {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil))
	}

	expected := `
# HELP rockbridge_http_rate_limited_total Total number of requests rejected by the rate limiter by path
# TYPE rockbridge_http_rate_limited_total counter
rockbridge_http_rate_limited_total{path="/api/v1/auth/login"} 2
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "rockbridge_http_rate_limited_total"))
}
