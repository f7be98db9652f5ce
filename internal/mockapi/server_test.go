package mockapi

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sumandas0/worldkit/internal/health"
	"github.com/sumandas0/worldkit/internal/observability"
)

func newTestServer(t *testing.T, opts ...Option) (*Server, *httptest.Server) {
	t.Helper()
	srv := NewServer(DefaultConfig(), opts...)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts
}

func doRequest(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	req.Header.Set("API-Key", "world-1")
	req.Header.Set("API-Pin", "1234")
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestServerRequiresCredentials(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/character/")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	body := decode[ErrorResponse](t, resp)
	assert.Equal(t, "UNAUTHORIZED", body.Error.Code)
}

func TestServerRejectsWrongCredentials(t *testing.T) {
	config := DefaultConfig()
	config.APIKey = "world-2"
	config.APIPin = "9999"
	srv := NewServer(config)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp := doRequest(t, http.MethodGet, ts.URL+"/character/", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestServerUnknownType(t *testing.T) {
	_, ts := newTestServer(t)

	resp := doRequest(t, http.MethodGet, ts.URL+"/dragon/", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServerCRUD(t *testing.T) {
	srv, ts := newTestServer(t)

	resp := doRequest(t, http.MethodPost, ts.URL+"/character/", map[string]any{
		"name":  "Aria",
		"world": "world-1",
		"level": 3,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[Record](t, resp)

	id, _ := created["id"].(string)
	require.NotEmpty(t, id)
	assert.NotEmpty(t, created["created_at"])
	assert.Equal(t, created["created_at"], created["updated_at"])

	resp = doRequest(t, http.MethodGet, ts.URL+"/character/"+id+"/", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	fetched := decode[Record](t, resp)
	assert.Equal(t, "Aria", fetched["name"])

	resp = doRequest(t, http.MethodPut, ts.URL+"/character/"+id+"/", map[string]any{
		"id":         "something-else",
		"name":       "Aria Vale",
		"created_at": "1999-01-01T00:00:00Z",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	replaced := decode[Record](t, resp)
	assert.Equal(t, id, replaced["id"])
	assert.Equal(t, created["created_at"], replaced["created_at"])
	assert.Equal(t, "Aria Vale", replaced["name"])
	assert.NotContains(t, replaced, "level")

	resp = doRequest(t, http.MethodDelete, ts.URL+"/character/"+id+"/", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = doRequest(t, http.MethodGet, ts.URL+"/character/"+id+"/", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	assert.Equal(t, 0, srv.Store().Len("character"))
}

func TestServerCreateRequiresName(t *testing.T) {
	_, ts := newTestServer(t)

	resp := doRequest(t, http.MethodPost, ts.URL+"/location/", map[string]any{"description": "no name"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "name")
}

func TestServerListFilters(t *testing.T) {
	srv, ts := newTestServer(t)
	srv.Store().Seed("location",
		Record{"id": "a", "name": "Silverkeep", "world": "world-1", "supertype": "city"},
		Record{"id": "b", "name": "Ironhold", "world": "world-1", "supertype": "city"},
		Record{"id": "c", "name": "Silver Marsh", "world": "world-1", "supertype": "wilderness"},
		Record{"id": "d", "name": "Silverton", "world": "world-2", "supertype": "city"},
	)

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"world only", "?world=world-1", []string{"a", "b", "c"}},
		{"name contains ignores case", "?world=world-1&name__icontains=SILVER", []string{"a", "c"}},
		{"exact match", "?world=world-1&supertype=city", []string{"a", "b"}},
		{"no match", "?world=world-3", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doRequest(t, http.MethodGet, ts.URL+"/location/"+tt.query, nil)
			require.Equal(t, http.StatusOK, resp.StatusCode)

			records := decode[[]Record](t, resp)
			ids := make([]string, 0, len(records))
			for _, r := range records {
				ids = append(ids, r["id"].(string))
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestServerJournal(t *testing.T) {
	srv, ts := newTestServer(t)

	doRequest(t, http.MethodGet, ts.URL+"/zone/?world=world-1", nil)
	doRequest(t, http.MethodPost, ts.URL+"/zone/", map[string]any{"name": "Ashlands"})

	journal := srv.Journal()
	assert.Equal(t, 2, journal.Count())
	assert.Equal(t, 1, journal.CountMethod(http.MethodPost))

	last, ok := journal.Last()
	require.True(t, ok)
	assert.Equal(t, "/zone/", last.Path)
	assert.True(t, strings.Contains(string(last.Body), "Ashlands"))

	journal.Reset()
	assert.Equal(t, 0, journal.Count())
}

func TestServerPrefix(t *testing.T) {
	config := DefaultConfig()
	config.Prefix = "/api/worldapi"
	srv := NewServer(config)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp := doRequest(t, http.MethodGet, ts.URL+"/api/worldapi/species/", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServerRateLimit(t *testing.T) {
	config := DefaultConfig()
	config.RateLimit.Enabled = true
	config.RateLimit.RequestsPerSecond = 0.001
	config.RateLimit.BurstSize = 1
	srv := NewServer(config)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	first := doRequest(t, http.MethodGet, ts.URL+"/pin/", nil)
	assert.Equal(t, http.StatusOK, first.StatusCode)

	second := doRequest(t, http.MethodGet, ts.URL+"/pin/", nil)
	assert.Equal(t, http.StatusTooManyRequests, second.StatusCode)
}

func TestServerMetricsEndpoint(t *testing.T) {
	metrics := observability.NewMetricsManager(observability.MetricsConfig{Enabled: true})
	_, ts := newTestServer(t, WithMetrics(metrics))

	doRequest(t, http.MethodGet, ts.URL+"/trait/", nil)

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "worldkit_http_requests_total")
}

func TestServerHealth(t *testing.T) {
	srv, ts := newTestServer(t)
	srv.Store().Seed("character", Record{"id": "c1", "name": "Aria"}, Record{"id": "c2", "name": "Bram"})

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	result := decode[health.SystemHealth](t, resp)
	assert.Equal(t, health.StatusHealthy, result.Status)
	require.Contains(t, result.Components, "store")
	assert.Equal(t, "2", result.Components["store"].Details["character"])
	assert.Equal(t, "2", result.Components["store"].Details["total"])
	assert.NotContains(t, result.Components["store"].Details, "location")
}

func TestServerLogsElementChanges(t *testing.T) {
	var logs bytes.Buffer
	logger, err := observability.NewLoggerWithWriter(observability.LoggingConfig{
		Level:  observability.LogLevelDebug,
		Format: observability.LogFormatJSON,
	}, &logs)
	require.NoError(t, err)

	_, ts := newTestServer(t, WithLogger(logger))

	resp := doRequest(t, http.MethodPost, ts.URL+"/object/", map[string]any{"id": "r1", "name": "Crown"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp = doRequest(t, http.MethodDelete, ts.URL+"/object/r1/", nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	var changes []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(logs.String()), "\n") {
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		if entry["element_id"] != nil {
			changes = append(changes, entry)
		}
	}

	require.Len(t, changes, 2)
	assert.Equal(t, "element created", changes[0]["message"])
	assert.Equal(t, "object", changes[0]["element_type"])
	assert.Equal(t, "r1", changes[0]["element_id"])
	assert.Equal(t, "element deleted", changes[1]["message"])
}
