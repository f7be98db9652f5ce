package observability

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsManager_Disabled(t *testing.T) {
	var nilManager *MetricsManager
	disabled := NewMetricsManager(MetricsConfig{})

	for _, mm := range []*MetricsManager{nilManager, disabled} {
		assert.False(t, mm.IsEnabled())
		mm.RecordHTTPRequest(http.MethodGet, 200, time.Millisecond, 10)
		mm.RecordClientRequest(http.MethodGet, "character", 200, time.Millisecond)
		mm.RecordElementOperation("list", "character", "success", time.Millisecond)
		mm.RecordCacheHit("character")
		mm.RecordCacheMiss("character")
		mm.SetCacheSize(3)
		mm.RecordResolutionFailure("location_id")
		mm.SetBuildInfo("dev", "none", "unknown")
	}

	assert.Nil(t, disabled.Registry())

	rec := httptest.NewRecorder()
	disabled.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetricsManager_ClientRequests(t *testing.T) {
	mm := NewMetricsManager(MetricsConfig{Enabled: true})

	mm.RecordClientRequest(http.MethodGet, "character", 200, time.Millisecond)
	mm.RecordClientRequest(http.MethodGet, "character", 200, time.Millisecond)
	mm.RecordClientRequest(http.MethodGet, "character", 0, time.Millisecond)

	expected := `
# HELP worldkit_client_requests_total Total number of requests sent to the world API
# TYPE worldkit_client_requests_total counter
worldkit_client_requests_total{element_type="character",method="GET",status_code="200"} 2
`
	assert.NoError(t, testutil.GatherAndCompare(mm.Registry(), strings.NewReader(expected),
		"worldkit_client_requests_total"))

	count, err := testutil.GatherAndCount(mm.Registry(), "worldkit_client_transport_errors_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestMetricsManager_Cache(t *testing.T) {
	mm := NewMetricsManager(MetricsConfig{Enabled: true, Namespace: "wk"})

	mm.RecordCacheHit("zone")
	mm.RecordCacheMiss("zone")
	mm.RecordCacheMiss("zone")
	mm.SetCacheSize(4)

	count, err := testutil.GatherAndCount(mm.Registry(), "wk_cache_hits_total", "wk_cache_misses_total", "wk_cache_entries")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestMetricsManager_Middleware(t *testing.T) {
	mm := NewMetricsManager(MetricsConfig{Enabled: true})

	handler := mm.MetricsMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/character/", nil))

	rec := httptest.NewRecorder()
	mm.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `worldkit_http_requests_total{method="POST",status_code="201"} 1`)
}
