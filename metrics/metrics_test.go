package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveScore(t *testing.T) {
	m := New()

	m.ObserveScore(85, "15–20%+")
	m.ObserveScore(90, "15–20%+")
	m.ObserveScore(10, "0–2%")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ScoresTotal.WithLabelValues("15–20%+")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ScoresTotal.WithLabelValues("0–2%")))
}

func TestObserveCache(t *testing.T) {
	m := New()

	m.ObserveCache(CacheHit)
	m.ObserveCache(CacheMiss)
	m.ObserveCache(CacheMiss)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheRequests.WithLabelValues(CacheHit)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CacheRequests.WithLabelValues(CacheMiss)))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.ObserveScore(50, "3–9%")
		m.ObserveCache(CacheHit)
		m.ObserveRequest("/health", http.MethodGet, 200, time.Millisecond)
		m.ObserveRateLimited()
		m.ObserveNarrative("fallback")
	})
	assert.Nil(t, m.Registry())
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.ObserveRateLimited()

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "distress_rate_limited_total 1")
}
