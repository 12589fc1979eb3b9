package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vantagegate/vantagegate/internal/core"
	"github.com/vantagegate/vantagegate/internal/core/registry"
	"github.com/vantagegate/vantagegate/internal/core/tier"
	apperrors "github.com/vantagegate/vantagegate/internal/errors"
)

type recordingExecutor struct {
	mu      sync.Mutex
	calls   []core.Params
	payload string
	err     error
}

func (e *recordingExecutor) Execute(ctx context.Context, params core.Params) (core.Payload, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, params)
	if e.err != nil {
		return nil, e.err
	}
	return core.Payload(e.payload), nil
}

func (e *recordingExecutor) count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.calls)
}

func toolsRouter(exec *recordingExecutor, active tier.Tier) http.Handler {
	h := NewToolsHandler(registry.New(exec, active))
	r := chi.NewRouter()
	r.Get("/v1/tools", h.List)
	r.Get("/v1/tools/{name}", h.Describe)
	r.Post("/v1/tools/{name}", h.Invoke)
	r.Get("/v1/subscription", h.Subscription)
	return r
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) apperrors.HTTPErrorResponse {
	t.Helper()
	var body apperrors.HTTPErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestToolsList(t *testing.T) {
	router := toolsRouter(&recordingExecutor{}, tier.Premium)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/tools", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body ToolListResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "premium", body.Tier)
	assert.Equal(t, len(body.Tools), body.Count)
	assert.Equal(t, "get_stock_quote", body.Tools[0].Name)
}

func TestToolsDescribe(t *testing.T) {
	router := toolsRouter(&recordingExecutor{}, tier.Free)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/tools/get_news_sentiment", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var info map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&info))
	assert.Equal(t, "get_news_sentiment", info["name"])
	assert.Equal(t, "object", info["inputSchema"].(map[string]any)["type"])

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/tools/nope", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", decodeError(t, rec).Error.Code)
}

func TestToolsInvoke(t *testing.T) {
	exec := &recordingExecutor{payload: `{"Global Quote":{"01. symbol":"IBM","05. price":"185.25"}}`}
	router := toolsRouter(exec, tier.Free)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/tools/get_stock_quote", strings.NewReader(`{"symbol":"ibm"}`))
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		Tool   string         `json:"tool"`
		Result map[string]any `json:"result"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "get_stock_quote", body.Tool)
	assert.Equal(t, "IBM", body.Result["symbol"])
	assert.Equal(t, "185.25", body.Result["price"])
	assert.Equal(t, 1, exec.count())
}

func TestToolsInvokeErrors(t *testing.T) {
	cases := []struct {
		name   string
		path   string
		body   string
		exec   *recordingExecutor
		status int
		code   string
	}{
		{"bad json", "/v1/tools/get_stock_quote", `{"symbol":`, &recordingExecutor{}, http.StatusBadRequest, "INVALID_INPUT"},
		{"array body", "/v1/tools/get_stock_quote", `["IBM"]`, &recordingExecutor{}, http.StatusBadRequest, "INVALID_INPUT"},
		{"missing symbol", "/v1/tools/get_stock_quote", ``, &recordingExecutor{}, http.StatusBadRequest, "VALIDATION_FAILED"},
		{"unknown tool", "/v1/tools/get_nothing", `{}`, &recordingExecutor{}, http.StatusNotFound, "NOT_FOUND"},
		{"premium on free", "/v1/tools/get_earnings", `{"symbol":"IBM"}`, &recordingExecutor{}, http.StatusForbidden, "FORBIDDEN"},
		{"provider error", "/v1/tools/get_stock_quote", `{"symbol":"IBM"}`,
			&recordingExecutor{err: &core.ProviderError{Function: "GLOBAL_QUOTE", Message: "Invalid API call"}},
			http.StatusBadGateway, "EXTERNAL_SERVICE_ERROR"},
		{"rate limited", "/v1/tools/get_stock_quote", `{"symbol":"IBM"}`,
			&recordingExecutor{err: &core.RateLimitError{Function: "GLOBAL_QUOTE", Message: "slow down"}},
			http.StatusTooManyRequests, apperrors.CodeRateLimited},
		{"unexpected payload", "/v1/tools/get_stock_quote", `{"symbol":"IBM"}`,
			&recordingExecutor{payload: `{"Something Else":{}}`},
			http.StatusInternalServerError, "DATA_PROCESSING_ERROR"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router := toolsRouter(tc.exec, tier.Free)

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, tc.path, strings.NewReader(tc.body)))
			require.Equal(t, tc.status, rec.Code, rec.Body.String())
			assert.Equal(t, tc.code, decodeError(t, rec).Error.Code)
		})
	}
}

func TestSubscription(t *testing.T) {
	router := toolsRouter(&recordingExecutor{}, tier.Enterprise)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/subscription", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "enterprise", body["type"])
	assert.Equal(t, true, body["isEnterprise"])
	limits := body["limits"].(map[string]any)
	assert.Nil(t, limits["requestsPerDay"])
}
