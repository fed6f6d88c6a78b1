package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/genrelay/genrelay/app"
	"github.com/genrelay/genrelay/config"
	"github.com/genrelay/genrelay/models"
	"go.uber.org/zap"
)

func newTestDeps(t *testing.T, workerURLs []string) *app.Dependencies {
	t.Helper()
	logger, _ := zap.NewDevelopment()

	cfg := &config.Config{
		Environment: "development",
		Workers:     config.WorkersConfig{URLs: workerURLs},
		Credentials: config.CredentialsConfig{APIKeys: []string{"test-key"}},
		Routing: config.RoutingConfig{
			MaxAttempts:     2,
			UnhealthyWindow: 2 * time.Minute,
			CallTimeout:     2 * time.Second,
			RetryWait:       time.Millisecond,
			FallbackBaseURL: "https://image.example.com",
			MaxPromptLength: 2000,
		},
	}

	deps, err := app.NewDependencies(cfg, logger)
	require.NoError(t, err)
	return deps
}

type successEnvelope struct {
	Data models.RouteResult `json:"data"`
}

type errorEnvelope struct {
	Error   string                 `json:"error"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details"`
}

func TestGenerateHandler_Success(t *testing.T) {
	worker := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"output":"a haiku about rain"}`))
	}))
	defer worker.Close()

	deps := newTestDeps(t, []string{worker.URL})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/generate", strings.NewReader(`{"prompt":"write a haiku"}`))
	rec := httptest.NewRecorder()

	GenerateHandler(deps)(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp successEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Data.Success)
	assert.False(t, resp.Data.Degraded)
	assert.Equal(t, "a haiku about rain", resp.Data.Output)
	assert.Equal(t, worker.URL, resp.Data.Backend)
}

func TestGenerateHandler_InvalidBody(t *testing.T) {
	deps := newTestDeps(t, []string{"http://worker.invalid"})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/generate", strings.NewReader(`{not json`))
	rec := httptest.NewRecorder()

	GenerateHandler(deps)(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGenerateHandler_MissingPrompt(t *testing.T) {
	deps := newTestDeps(t, []string{"http://worker.invalid"})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/generate", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()

	GenerateHandler(deps)(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp errorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "bad_request", resp.Error)
	assert.Contains(t, resp.Details, "Prompt")
}

func TestGenerateHandler_AllBackendsDownServesFallback(t *testing.T) {
	worker := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer worker.Close()

	deps := newTestDeps(t, []string{worker.URL})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/generate", strings.NewReader(`{"prompt":"a grey square"}`))
	rec := httptest.NewRecorder()

	GenerateHandler(deps)(rec, req)

	// Degraded but successful: the client still gets a usable result.
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp successEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Data.Success)
	assert.True(t, resp.Data.Degraded)
	assert.Equal(t, "fallback", resp.Data.Backend)
	assert.Equal(t, "https://image.example.com/prompt/a%20grey%20square", resp.Data.Output)
}

func TestCompareHandler_Success(t *testing.T) {
	worker := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"output":"the second is clearer"}`))
	}))
	defer worker.Close()

	deps := newTestDeps(t, []string{worker.URL})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/compare", strings.NewReader(`{"prompt_a":"draft one","prompt_b":"draft two"}`))
	rec := httptest.NewRecorder()

	CompareHandler(deps)(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp successEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "the second is clearer", resp.Data.Output)
	assert.False(t, resp.Data.Degraded)
}

func TestCompareHandler_AllBackendsDownReturns503(t *testing.T) {
	worker := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer worker.Close()

	deps := newTestDeps(t, []string{worker.URL})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/compare", strings.NewReader(`{"prompt_a":"one","prompt_b":"two"}`))
	rec := httptest.NewRecorder()

	CompareHandler(deps)(rec, req)

	// No fallback for comparison: the failure is explicit and retryable.
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp errorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "service_unavailable", resp.Error)
}

func TestCompareHandler_MissingPrompt(t *testing.T) {
	deps := newTestDeps(t, []string{"http://worker.invalid"})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/compare", strings.NewReader(`{"prompt_a":"only one"}`))
	rec := httptest.NewRecorder()

	CompareHandler(deps)(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStatusHandler(t *testing.T) {
	deps := newTestDeps(t, []string{"http://w1.invalid", "http://w2.invalid", "http://w3.invalid"})
	deps.Selector.MarkUnhealthy("http://w2.invalid")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
	rec := httptest.NewRecorder()

	StatusHandler(deps)(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data models.SelectorStatus `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.Data.PoolSize)
	assert.Equal(t, 1, resp.Data.UnhealthyCount)
	assert.Equal(t, 2, resp.Data.HealthyCount)

	// Reading status twice changes nothing.
	rec2 := httptest.NewRecorder()
	StatusHandler(deps)(rec2, httptest.NewRequest(http.MethodGet, "/api/v1/status", nil))
	var resp2 struct {
		Data models.SelectorStatus `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec2.Body.Bytes(), &resp2))
	assert.Equal(t, resp.Data.CursorPosition, resp2.Data.CursorPosition)
}

func TestHealthCheck(t *testing.T) {
	deps := newTestDeps(t, []string{"http://worker.invalid"})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()

	HealthCheck(deps)(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestReadinessCheck(t *testing.T) {
	deps := newTestDeps(t, []string{"http://worker.invalid"})

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rec := httptest.NewRecorder()

	ReadinessCheck(deps)(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ready", resp.Status)
	assert.Equal(t, "configured", resp.Checks["workers"])
}
