package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "ecorecovery/internal/errors"
	"ecorecovery/internal/shared/testutil"
)

func newTestValidator(t *testing.T) *QueryValidator {
	logger, _ := testutil.NewTestLogger(t)
	return NewQueryValidator(logger, apierrors.NewErrorHandler(logger, false))
}

func TestQueryValidator_ValidateInt(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantValue  int
		wantOK     bool
		wantDetail string
	}{
		{name: "absent uses default", query: "", wantValue: 15, wantOK: true},
		{name: "in range", query: "top=30", wantValue: 30, wantOK: true},
		{name: "lower bound", query: "top=5", wantValue: 5, wantOK: true},
		{name: "below range", query: "top=4", wantDetail: "top must be between 5 and 30"},
		{name: "above range", query: "top=31", wantDetail: "top must be between 5 and 30"},
		{name: "not a number", query: "top=ten", wantDetail: "top must be a valid integer"},
		{name: "trailing garbage", query: "top=12abc", wantDetail: "top must be a valid integer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newTestValidator(t)
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/api/dashboard?"+tt.query, nil)

			got, ok := v.ValidateInt(w, r, "top", 5, 30, 15)

			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantValue, got)
				assert.Equal(t, 0, w.Body.Len())
				return
			}

			assert.Equal(t, http.StatusBadRequest, w.Code)
			body := decode(t, w.Body)
			assert.Equal(t, apierrors.TypeValidation, body["type"])
			details, ok := body["details"].(map[string]interface{})
			require.True(t, ok)
			assert.Equal(t, "top", details["field"])
			assert.Equal(t, tt.wantDetail, details["message"])
		})
	}
}

func TestQueryValidator_ValidateStruct(t *testing.T) {
	type recordsQuery struct {
		Limit  int    `query:"limit" validate:"min=0,max=10000"`
		Format string `query:"format" validate:"omitempty,oneof=csv xlsx"`
	}

	v := newTestValidator(t)

	require.NoError(t, v.ValidateStruct(recordsQuery{Limit: 10, Format: "csv"}))

	err := v.ValidateStruct(recordsQuery{Limit: -1, Format: "pdf"})
	require.Error(t, err)

	apiErr, ok := err.(*apierrors.APIError)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)

	details, ok := apiErr.Details.(apierrors.ValidationErrors)
	require.True(t, ok)
	require.Len(t, details.Errors, 2)
	assert.Equal(t, "limit", details.Errors[0].Field)
	assert.Equal(t, "limit must be at least 0", details.Errors[0].Message)
	assert.Equal(t, "format", details.Errors[1].Field)
	assert.Equal(t, "format must be one of: csv, xlsx", details.Errors[1].Message)
}
