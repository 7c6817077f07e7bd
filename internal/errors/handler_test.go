package errors

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecorecovery/internal/shared/testutil"
)

func decodeProblem(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return body
}

func TestNewErrorHandler(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)

	for _, includeStack := range []bool{true, false} {
		handler := NewErrorHandler(logger, includeStack)
		assert.Equal(t, includeStack, handler.includeStack)
		assert.NotNil(t, handler.logger)
	}
}

func TestErrorHandler_HandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
		wantTitle  string
		wantDetail string
	}{
		{
			name:       "context deadline exceeded",
			err:        context.DeadlineExceeded,
			wantStatus: http.StatusGatewayTimeout,
			wantType:   TypeTimeout,
			wantTitle:  "Request Timeout",
		},
		{
			name:       "wrapped context canceled",
			err:        fmt.Errorf("load: %w", context.Canceled),
			wantStatus: http.StatusGatewayTimeout,
			wantType:   TypeTimeout,
			wantTitle:  "Request Timeout",
		},
		{
			name:       "api error",
			err:        ErrValidation("top", "must be between 5 and 30"),
			wantStatus: http.StatusBadRequest,
			wantType:   TypeValidation,
			wantTitle:  "Bad Request",
			wantDetail: "Request validation failed",
		},
		{
			name:       "dataset fetch failure",
			err:        NewNetworkError("failed to load dataset", fmt.Errorf("unexpected status 404")),
			wantStatus: http.StatusBadGateway,
			wantType:   TypeDataFetchFailed,
			wantTitle:  "Data Fetch Failed",
			wantDetail: "failed to load dataset: unexpected status 404",
		},
		{
			name:       "dataset parse failure",
			err:        fmt.Errorf("wrapped: %w", NewParsingError("failed to parse dataset", fmt.Errorf("missing required columns: MMB"))),
			wantStatus: http.StatusBadGateway,
			wantType:   TypeDataParseFailed,
			wantTitle:  "Data Parse Failed",
			wantDetail: "failed to parse dataset: missing required columns: MMB",
		},
		{
			name:       "render failure",
			err:        NewRenderError("chart failed", nil),
			wantStatus: http.StatusInternalServerError,
			wantType:   TypeRenderFailed,
			wantTitle:  "Render Failed",
			wantDetail: "chart failed",
		},
		{
			name:       "plain not found",
			err:        fmt.Errorf("scenario not found"),
			wantStatus: http.StatusNotFound,
			wantType:   TypeNotFound,
			wantTitle:  "Resource Not Found",
			wantDetail: "scenario not found",
		},
		{
			name:       "generic error hides detail",
			err:        fmt.Errorf("nil pointer somewhere"),
			wantStatus: http.StatusInternalServerError,
			wantType:   TypeInternal,
			wantTitle:  "Internal Server Error",
			wantDetail: "An unexpected error occurred while processing your request",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, logs := testutil.NewTestLogger(t)
			handler := NewErrorHandler(logger, false)

			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
			r = r.WithContext(context.WithValue(r.Context(), middleware.RequestIDKey, "req-1"))

			handler.HandleError(w, r, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, w.Header().Get("Content-Type"), "application/json")

			body := decodeProblem(t, w)
			assert.Equal(t, tt.wantType, body["type"])
			assert.Equal(t, tt.wantTitle, body["title"])
			assert.EqualValues(t, tt.wantStatus, body["status"])
			assert.Equal(t, "/api/dashboard", body["instance"])
			assert.Equal(t, "req-1", body["trace_id"])
			if tt.wantDetail != "" {
				assert.Equal(t, tt.wantDetail, body["detail"])
			}
			assert.NotContains(t, body, "stack")

			assert.True(t, logs.ContainsMessage("request failed"))
			assert.True(t, logs.ContainsAttr("component", "error_handler"))
		})
	}
}

func TestErrorHandler_HandleError_Nil(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	handler := NewErrorHandler(logger, false)

	w := httptest.NewRecorder()
	handler.HandleError(w, httptest.NewRequest(http.MethodGet, "/", nil), nil)

	assert.Equal(t, 0, w.Body.Len())
	assert.Equal(t, 0, logs.Count())
}

func TestErrorHandler_IncludeStack(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	handler := NewErrorHandler(logger, true)

	w := httptest.NewRecorder()
	handler.HandleError(w, httptest.NewRequest(http.MethodGet, "/", nil), fmt.Errorf("boom"))

	body := decodeProblem(t, w)
	assert.Contains(t, body["stack"], "goroutine")
}

func TestErrorHandler_apiErrorToProblem(t *testing.T) {
	handler := NewErrorHandler(testLogger(t), false)
	r := httptest.NewRequest(http.MethodGet, "/api/charts/x.png", nil)

	tests := []struct {
		err      *APIError
		wantType string
	}{
		{ErrInvalidRequest, TypeValidation},
		{ErrValidation("top", "out of range"), TypeValidation},
		{ErrChartNotFound.WithDetails("pie"), TypeNotFound},
		{NotFoundError("export format"), TypeNotFound},
		{ErrRateLimitExceeded, TypeRateLimit},
		{WebSocketUpgradeError(http.StatusForbidden, fmt.Errorf("origin not allowed")), TypeWebSocketUpgrade},
		{New(http.StatusTeapot, "SOMETHING_ELSE", "x"), TypeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.err.ErrorCode, func(t *testing.T) {
			problem := handler.apiErrorToProblem(tt.err, r)
			assert.Equal(t, tt.wantType, problem.Type)
			assert.Equal(t, tt.err.StatusCode, problem.Status)
			assert.Equal(t, tt.err.ErrorCode, problem.Extensions["error_code"])
			if tt.err.Details != nil {
				assert.Equal(t, tt.err.Details, problem.Extensions["details"])
			}
		})
	}
}

func TestErrorHandler_appErrorContext(t *testing.T) {
	handler := NewErrorHandler(testLogger(t), false)
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	err := NewNetworkError("failed to load dataset", nil).WithContext("status_code", 503)
	problem := handler.ErrorToProblem(err, r)

	assert.Equal(t, http.StatusBadGateway, problem.Status)
	assert.Equal(t, 503, problem.Extensions["status_code"])
	assert.Equal(t, "NETWORK", problem.Extensions["error_type"])
}

func TestErrorHandler_HandlePanic(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	handler := NewErrorHandler(logger, true)

	w := httptest.NewRecorder()
	handler.HandlePanic(w, httptest.NewRequest(http.MethodGet, "/api/dashboard", nil), "kaboom")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := decodeProblem(t, w)
	assert.Equal(t, TypeInternal, body["type"])
	assert.Equal(t, "kaboom", body["panic"])
	assert.True(t, logs.ContainsMessage("panic recovered"))
}

func TestErrorHandler_NotFoundAndMethodNotAllowed(t *testing.T) {
	handler := NewErrorHandler(testLogger(t), false)

	w := httptest.NewRecorder()
	handler.NotFound(w, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, TypeNotFound, decodeProblem(t, w)["type"])

	w = httptest.NewRecorder()
	handler.MethodNotAllowed(w, httptest.NewRequest(http.MethodDelete, "/api/dashboard", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	body := decodeProblem(t, w)
	assert.Equal(t, TypeMethodNotAllowed, body["type"])
	assert.Equal(t, "Method DELETE is not allowed for this endpoint", body["detail"])
}

func TestErrorHandlerConcurrency(t *testing.T) {
	handler := NewErrorHandler(testLogger(t), false)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			w := httptest.NewRecorder()
			handler.HandleError(w, httptest.NewRequest(http.MethodGet, "/", nil), NewNetworkError("x", fmt.Errorf("%d", n)))
			assert.Equal(t, http.StatusBadGateway, w.Code)
		}(i)
	}
	wg.Wait()
}
