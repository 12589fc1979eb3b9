package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func healthy(context.Context) error { return nil }

func degraded(context.Context) error {
	return fmt.Errorf("%w: free quota exhausted (minute 5/5, day 12/500)", ErrDegraded)
}

func failing(context.Context) error { return errors.New("database is locked") }

type healthErrorBody struct {
	Error struct {
		Code    string                 `json:"code"`
		Details map[string]interface{} `json:"details"`
	} `json:"error"`
}

func TestHealthHandlerReturnsHealthyStatus(t *testing.T) {
	manager := NewHealthManager("1.2.3")
	manager.RegisterChecker("registry", CheckerFunc(healthy))

	rec := httptest.NewRecorder()
	manager.HealthHandler(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp HealthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, StatusHealthy, resp.Status)
	assert.Equal(t, "1.2.3", resp.Version)
	assert.Equal(t, map[string]string{"registry": StatusHealthy}, resp.Checks)
}

func TestHealthHandlerReportsDegradedQuota(t *testing.T) {
	manager := NewHealthManager("1.2.3")
	manager.RegisterChecker("registry", CheckerFunc(healthy))
	manager.RegisterChecker("quota", CheckerFunc(degraded))

	rec := httptest.NewRecorder()
	manager.HealthHandler(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp HealthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, StatusDegraded, resp.Status)
	assert.Equal(t, StatusDegraded, resp.Checks["quota"])
	assert.Equal(t, StatusHealthy, resp.Checks["registry"])
}

func TestHealthHandlerReturnsServiceUnavailableWhenUnhealthy(t *testing.T) {
	manager := NewHealthManager("1.2.3")
	manager.RegisterChecker("quota", CheckerFunc(degraded))
	manager.RegisterChecker("usage_store", CheckerFunc(failing))

	rec := httptest.NewRecorder()
	manager.HealthHandler(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var resp healthErrorBody
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "SERVICE_UNAVAILABLE", resp.Error.Code)
	assert.Equal(t, StatusUnhealthy, resp.Error.Details["status"])

	checks, ok := resp.Error.Details["checks"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, StatusUnhealthy, checks["usage_store"])
	assert.Equal(t, StatusDegraded, checks["quota"])
}

func TestLiveReadyStartupStayUpWhileDegraded(t *testing.T) {
	manager := NewHealthManager("dev")
	manager.RegisterChecker("quota", CheckerFunc(degraded))

	probes := map[string]http.HandlerFunc{
		"live":    manager.LivenessHandler,
		"ready":   manager.ReadinessHandler,
		"startup": manager.StartupHandler,
	}
	for name, handler := range probes {
		t.Run(name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler(rec, httptest.NewRequest(http.MethodGet, "/health/"+name, nil))

			require.Equal(t, http.StatusOK, rec.Code)
			var resp ProbeResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
			assert.Equal(t, StatusDegraded, resp.Status)
		})
	}
}

func TestReadinessFailureReportsEndpoint(t *testing.T) {
	manager := NewHealthManager("dev")
	manager.RegisterChecker("usage_store", CheckerFunc(failing))

	rec := httptest.NewRecorder()
	manager.ReadinessHandler(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var resp healthErrorBody
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "ready", resp.Error.Details["probe"])
}

func TestRunHealthChecksMarksTimeouts(t *testing.T) {
	manager := NewHealthManager("dev")
	manager.RegisterChecker("a_slow", CheckerFunc(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}))
	manager.RegisterChecker("b_registry", CheckerFunc(healthy))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	checks := manager.runHealthChecks(ctx)

	assert.Equal(t, StatusUnhealthy, checks["a_slow"])
	assert.Equal(t, StatusTimeout, checks["b_registry"])
}

func TestDetermineOverallStatus(t *testing.T) {
	manager := NewHealthManager("dev")

	assert.Equal(t, StatusHealthy, manager.determineOverallStatus(nil))
	assert.Equal(t, StatusDegraded, manager.determineOverallStatus(map[string]string{"quota": StatusTimeout}))
	assert.Equal(t, StatusDegraded, manager.determineOverallStatus(map[string]string{"quota": StatusDegraded, "registry": StatusHealthy}))
	assert.Equal(t, StatusUnhealthy, manager.determineOverallStatus(map[string]string{"quota": StatusDegraded, "usage_store": StatusUnhealthy}))
}

func TestGlobalHandlersBeforeInit(t *testing.T) {
	original := globalHealthManager
	globalHealthManager = nil
	t.Cleanup(func() { globalHealthManager = original })

	rec := httptest.NewRecorder()
	ReadinessHandler(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	InitHealthManager("2.0.0")
	rec = httptest.NewRecorder()
	HealthHandler(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
