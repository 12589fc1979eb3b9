package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vantagegate/vantagegate/internal/core"
)

func captureIDs(t *testing.T, header string) (requestID, invocationID, echoed string) {
	t.Helper()

	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID = GetRequestID(r.Context())
		invocationID = core.InvocationID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodPost, "/v1/tools/get_stock_quote", nil)
	if header != "" {
		req.Header.Set(RequestIDHeader, header)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	return requestID, invocationID, rec.Header().Get(RequestIDHeader)
}

func TestRequestIDReusesClientHeader(t *testing.T) {
	requestID, invocationID, echoed := captureIDs(t, "client-abc-123")

	assert.Equal(t, "client-abc-123", requestID)
	assert.Equal(t, "client-abc-123", invocationID)
	assert.Equal(t, "client-abc-123", echoed)
}

func TestRequestIDGeneratesWhenMissing(t *testing.T) {
	requestID, invocationID, echoed := captureIDs(t, "")

	assert.Len(t, requestID, 36)
	assert.Equal(t, requestID, invocationID)
	assert.Equal(t, requestID, echoed)
}

func TestRequestIDRejectsUnsafeHeader(t *testing.T) {
	for _, header := range []string{"bad id", "line\nbreak", strings.Repeat("a", maxRequestIDLen+1)} {
		requestID, _, _ := captureIDs(t, header)
		assert.NotEqual(t, header, requestID)
		assert.Len(t, requestID, 36)
	}
}

func TestGetRequestIDEmpty(t *testing.T) {
	assert.Empty(t, GetRequestID(context.Background()))
}
