package http

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	apierrors "ecorecovery/internal/errors"
	appmiddleware "ecorecovery/internal/middleware"
	"ecorecovery/internal/shared/testutil"
)

func TestClientLogHandler_Handle(t *testing.T) {
	tests := []struct {
		name           string
		body           interface{}
		rawBody        string
		expectedStatus int
		expectedLevel  slog.Level
		expectedMsg    string
	}{
		{
			name: "valid log entry",
			body: map[string]interface{}{
				"level":   "info",
				"message": "Test log message",
				"data": map[string]interface{}{
					"component": "test",
				},
			},
			expectedStatus: http.StatusOK,
			expectedLevel:  slog.LevelInfo,
			expectedMsg:    "Test log message",
		},
		{
			name: "warn level from the page script",
			body: map[string]interface{}{
				"level":   "warn",
				"message": "dashboard websocket error",
				"source":  "dashboard",
			},
			expectedStatus: http.StatusOK,
			expectedLevel:  slog.LevelWarn,
			expectedMsg:    "dashboard websocket error",
		},
		{
			name: "missing level defaults to info",
			body: map[string]interface{}{
				"message": "no level",
			},
			expectedStatus: http.StatusOK,
			expectedLevel:  slog.LevelInfo,
			expectedMsg:    "no level",
		},
		{
			name: "unknown level rejected",
			body: map[string]interface{}{
				"level":   "fatal",
				"message": "bad level",
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "missing message rejected",
			body: map[string]interface{}{
				"level": "error",
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "empty body",
			rawBody:        "",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "invalid JSON",
			rawBody:        "{not json",
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, logs := testutil.NewTestLogger(t)
			eh := apierrors.NewErrorHandler(logger, false)
			handler := NewClientLogHandler(appmiddleware.NewQueryValidator(logger, eh), logger, eh)

			payload := []byte(tt.rawBody)
			if tt.body != nil {
				var err error
				payload, err = json.Marshal(tt.body)
				assert.NoError(t, err)
			}

			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodPost, "/api/client-log", bytes.NewReader(payload))
			r.Header.Set("Content-Type", "application/json")
			handler.Handle(w, r)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusOK {
				assert.Contains(t, w.Body.String(), `"success":true`)
				testutil.AssertLogContains(t, logs, tt.expectedLevel, tt.expectedMsg)
				return
			}
			assert.Contains(t, w.Body.String(), apierrors.TypeValidation)
		})
	}
}
