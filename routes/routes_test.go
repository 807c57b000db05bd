package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/at-fk/finalproject/app"
	"github.com/at-fk/finalproject/config"
	"github.com/at-fk/finalproject/repositories/postgres"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestServer(t *testing.T, mutate func(*config.Config)) (*httptest.Server, sqlmock.Sqlmock) {
	t.Helper()

	cfg := config.Defaults()
	cfg.Environment = "test"
	cfg.Embedding.URL = "http://127.0.0.1:1/embeddings"
	if mutate != nil {
		mutate(cfg)
	}

	logger := zaptest.NewLogger(t)
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)

	factory := postgres.NewRepositoryFactoryFromDB(postgres.WrapDB(db, logger), logger)
	deps, err := app.NewDependenciesWithFactory(context.Background(), cfg, factory, logger)
	require.NoError(t, err)

	ts := httptest.NewServer(SetupRoutes(deps))
	t.Cleanup(func() {
		ts.Close()
		mock.ExpectClose()
		_ = deps.Close(context.Background())
	})
	return ts, mock
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestHealthEndpoints(t *testing.T) {
	ts, mock := newTestServer(t, nil)

	t.Run("liveness", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/healthz")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "healthy", decodeBody(t, resp)["status"])
	})

	t.Run("readiness with database up", func(t *testing.T) {
		mock.ExpectPing()
		mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

		resp, err := http.Get(ts.URL + "/readyz")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		body := decodeBody(t, resp)
		checks := body["checks"].(map[string]interface{})
		assert.Equal(t, "healthy", checks["database"])
		assert.Equal(t, "unconfigured", checks["llm_providers"])
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("readiness with database down", func(t *testing.T) {
		mock.ExpectPing().WillReturnError(assert.AnError)

		resp, err := http.Get(ts.URL + "/readyz")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		assert.Equal(t, "unhealthy", decodeBody(t, resp)["status"])
	})
}

func TestAPIValidation(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	testCases := []struct {
		name           string
		method         string
		path           string
		body           string
		expectedStatus int
	}{
		{"search without query", http.MethodPost, "/api/search", `{}`, http.StatusBadRequest},
		{"keyword search without keyword", http.MethodGet, "/api/search", "", http.StatusBadRequest},
		{"keyword search with bad page", http.MethodGet, "/api/search?keyword=data&page=x", "", http.StatusBadRequest},
		{"ask without content", http.MethodPost, "/api/ask", `{"query":"what applies?"}`, http.StatusBadRequest},
		{"semantic ask without regulation", http.MethodPost, "/api/ask/semantic", `{"query":"what applies?"}`, http.StatusBadRequest},
		{"embedding without text", http.MethodPost, "/api/embedding", `{}`, http.StatusBadRequest},
		{"article with malformed id", http.MethodGet, "/api/articles/not-a-uuid", "", http.StatusBadRequest},
		{"structure with malformed id", http.MethodGet, "/api/regulations/not-a-uuid/structure", "", http.StatusBadRequest},
		{"unknown endpoint", http.MethodGet, "/api/nonexistent", "", http.StatusNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req, err := http.NewRequest(tc.method, ts.URL+tc.path, strings.NewReader(tc.body))
			require.NoError(t, err)
			req.Header.Set("Content-Type", "application/json")

			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tc.expectedStatus, resp.StatusCode, "endpoint: %s %s", tc.method, tc.path)
		})
	}
}

func TestSearchRateLimit(t *testing.T) {
	ts, _ := newTestServer(t, func(cfg *config.Config) {
		cfg.RateLimit.Points = 2
	})

	statuses := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		resp, err := http.Post(ts.URL+"/api/search", "application/json", strings.NewReader(`{}`))
		require.NoError(t, err)
		resp.Body.Close()

		assert.Equal(t, "2", resp.Header.Get("X-RateLimit-Limit"))
		statuses = append(statuses, resp.StatusCode)
	}

	assert.Equal(t, []int{http.StatusBadRequest, http.StatusBadRequest, http.StatusTooManyRequests}, statuses)

	// answering is not rate limited
	resp, err := http.Post(ts.URL+"/api/ask", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Empty(t, resp.Header.Get("X-RateLimit-Limit"))
}

func TestBearerTokens(t *testing.T) {
	ts, _ := newTestServer(t, func(cfg *config.Config) {
		cfg.Auth.JWTSecret = "test-secret"
	})

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/api/search", strings.NewReader(`{}`))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer not-a-token")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestNotFound(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	resp, err := http.Get(ts.URL + "/nowhere")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "endpoint not found", decodeBody(t, resp)["error"])
}

func TestCORSPreflight(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/api/search", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	req.Header.Set("Access-Control-Request-Headers", "Content-Type")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "http://localhost:3000", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestRequestID(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	t.Run("generated", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/healthz")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
	})

	t.Run("propagated", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodGet, ts.URL+"/healthz", nil)
		require.NoError(t, err)
		req.Header.Set("X-Request-ID", "req-123")

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, "req-123", resp.Header.Get("X-Request-ID"))
	})
}
