package errors

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecorecovery/internal/shared/testutil"
)

func testLogger(t *testing.T) *slog.Logger {
	logger, _ := testutil.NewTestLogger(t)
	return logger
}

func TestProblemDetails_MarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		problem *ProblemDetails
		want    map[string]interface{}
	}{
		{
			name:    "standard members only",
			problem: NewProblemDetails(http.StatusBadGateway, TypeDataFetchFailed, "Data Fetch Failed", "", ""),
			want: map[string]interface{}{
				"type":   TypeDataFetchFailed,
				"title":  "Data Fetch Failed",
				"status": float64(http.StatusBadGateway),
			},
		},
		{
			name: "extensions are merged",
			problem: NewProblemDetails(http.StatusBadRequest, TypeValidation, "Bad Request", "top out of range", "/api/dashboard").
				WithExtension("error_code", "VALIDATION_FAILED").
				WithExtension("trace_id", "abc"),
			want: map[string]interface{}{
				"type":       TypeValidation,
				"title":      "Bad Request",
				"status":     float64(http.StatusBadRequest),
				"detail":     "top out of range",
				"instance":   "/api/dashboard",
				"error_code": "VALIDATION_FAILED",
				"trace_id":   "abc",
			},
		},
		{
			name:    "extensions cannot override standard members",
			problem: NewProblemDetails(http.StatusNotFound, TypeNotFound, "Not Found", "", "").WithExtension("status", 200),
			want: map[string]interface{}{
				"type":   TypeNotFound,
				"title":  "Not Found",
				"status": float64(http.StatusNotFound),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.problem)
			require.NoError(t, err)

			var got map[string]interface{}
			require.NoError(t, json.Unmarshal(data, &got))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestProblemDetails_WithExtension_NilMap(t *testing.T) {
	problem := &ProblemDetails{Type: TypeInternal, Status: http.StatusInternalServerError}
	problem.WithExtension("k", "v")
	assert.Equal(t, "v", problem.Extensions["k"])
}

func TestProblemDetails_Render(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	problem := NewProblemDetails(http.StatusBadGateway, TypeDataFetchFailed, "Data Fetch Failed", "", "/")
	require.NoError(t, render.Render(w, r, problem))

	assert.Equal(t, http.StatusBadGateway, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, TypeDataFetchFailed, body["type"])
}
