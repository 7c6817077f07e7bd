package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ecorecovery/internal/analytics"
	"ecorecovery/internal/charts"
	"ecorecovery/internal/dashboard"
	"ecorecovery/internal/dataset"
	apierrors "ecorecovery/internal/errors"
	"ecorecovery/internal/exporter"
	"ecorecovery/internal/services"
	"ecorecovery/internal/shared/testutil"
)

func sampleView(t *testing.T, top int) dashboard.View {
	t.Helper()
	ds := dataset.New(testutil.SampleRecords())
	return dashboard.Render(ds, dashboard.State{Selection: ds.DefaultSelection(), TopN: top})
}

func TestDashboardHandler_GetDashboard(t *testing.T) {
	tests := []struct {
		name           string
		query          string
		setupMock      func(*MockDashboardService)
		expectedStatus int
		expectedType   string
		expectedBody   string
	}{
		{
			name:  "default state",
			query: "",
			setupMock: func(m *MockDashboardService) {
				m.On("View", services.Query{Filters: url.Values{}}).Return(sampleView(t, 15), nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"count":4`,
		},
		{
			name:  "filters and top are passed through",
			query: "?type=business&top=10",
			setupMock: func(m *MockDashboardService) {
				m.On("View", services.Query{
					Filters: url.Values{"type": {"business"}, "top": {"10"}},
					TopN:    10,
				}).Return(sampleView(t, 10), nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"top_n":10`,
		},
		{
			name:           "top below range",
			query:          "?top=4",
			setupMock:      func(m *MockDashboardService) {},
			expectedStatus: http.StatusBadRequest,
			expectedType:   apierrors.TypeValidation,
			expectedBody:   "top must be between 5 and 30",
		},
		{
			name:           "top above range",
			query:          "?top=31",
			setupMock:      func(m *MockDashboardService) {},
			expectedStatus: http.StatusBadRequest,
			expectedType:   apierrors.TypeValidation,
		},
		{
			name:  "fetch failure",
			query: "",
			setupMock: func(m *MockDashboardService) {
				m.On("View", mock.Anything).Return(dashboard.View{},
					apierrors.NewNetworkError("failed to fetch dataset", errors.New("upstream answered 404")))
			},
			expectedStatus: http.StatusBadGateway,
			expectedType:   apierrors.TypeDataFetchFailed,
			expectedBody:   "upstream answered 404",
		},
		{
			name:  "parse failure",
			query: "",
			setupMock: func(m *MockDashboardService) {
				m.On("View", mock.Anything).Return(dashboard.View{},
					apierrors.NewParsingError("failed to parse dataset", errors.New("missing columns: MMB")))
			},
			expectedStatus: http.StatusBadGateway,
			expectedType:   apierrors.TypeDataParseFailed,
			expectedBody:   "missing columns: MMB",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockDashboardService)
			tt.setupMock(svc)
			router := newAPIRouter(svc)

			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/api/dashboard"+tt.query, nil)
			router.ServeHTTP(w, r)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedBody != "" {
				assert.Contains(t, w.Body.String(), tt.expectedBody)
			}
			if tt.expectedType != "" {
				body := decodeBody(t, w.Body)
				assert.Equal(t, tt.expectedType, body["type"])
				assert.NotEmpty(t, body["trace_id"])
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestDashboardHandler_GetFilters(t *testing.T) {
	svc := new(MockDashboardService)
	view := sampleView(t, 15)
	svc.On("Filters").Return(view.Filters, nil)

	w := httptest.NewRecorder()
	newAPIRouter(svc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/filters", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	raw := w.Body.String()
	body := decodeBody(t, w.Body)
	assert.Equal(t, float64(3), body["count"])
	assert.Contains(t, raw, `"Aek Habil"`)
}

func TestDashboardHandler_GetRecords(t *testing.T) {
	tests := []struct {
		name           string
		query          string
		setupMock      func(*MockDashboardService)
		expectedStatus int
		expectedCount  float64
	}{
		{
			name:  "no limit",
			query: "",
			setupMock: func(m *MockDashboardService) {
				m.On("Records", mock.Anything, 0).Return(testutil.SampleRecords(), nil)
			},
			expectedStatus: http.StatusOK,
			expectedCount:  4,
		},
		{
			name:  "limit is passed through",
			query: "?limit=2",
			setupMock: func(m *MockDashboardService) {
				m.On("Records", mock.Anything, 2).Return(testutil.SampleRecords()[:2], nil)
			},
			expectedStatus: http.StatusOK,
			expectedCount:  2,
		},
		{
			name:           "zero limit rejected",
			query:          "?limit=0",
			setupMock:      func(m *MockDashboardService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "non numeric limit rejected",
			query:          "?limit=all",
			setupMock:      func(m *MockDashboardService) {},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockDashboardService)
			tt.setupMock(svc)

			w := httptest.NewRecorder()
			newAPIRouter(svc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/records"+tt.query, nil))

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusOK {
				body := decodeBody(t, w.Body)
				assert.Equal(t, tt.expectedCount, body["count"])
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestDashboardHandler_GetRecords_JSONFieldNames(t *testing.T) {
	svc := new(MockDashboardService)
	svc.On("Records", mock.Anything, 1).Return(testutil.SampleRecords()[:1], nil)

	w := httptest.NewRecorder()
	newAPIRouter(svc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/records?limit=1", nil))

	require.Equal(t, http.StatusOK, w.Code)
	for _, field := range []string{`"id":"HH-001"`, `"vuln_synth":0.812`, `"MMB":2450000`, `"EMI_raw":350000`, `"sens_10":"Bahaya"`} {
		assert.Contains(t, w.Body.String(), field)
	}
}

func TestDashboardHandler_GetSummary(t *testing.T) {
	svc := new(MockDashboardService)
	svc.On("Summary", services.Query{Filters: url.Values{"kelurahan": {"Aek Habil"}}}).
		Return(analytics.Summary{Entities: 2, TotalMMB: 3000000, TotalHibah100: 4000000, TotalCicilanAman: 410000}, nil)

	w := httptest.NewRecorder()
	newAPIRouter(svc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/summary?kelurahan=Aek+Habil", nil))

	require.Equal(t, http.StatusOK, w.Code)
	data, ok := decodeBody(t, w.Body)["data"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(2), data["entities"])
	svc.AssertExpectations(t)
}

func TestDashboardHandler_GetChart(t *testing.T) {
	tests := []struct {
		name            string
		path            string
		setupMock       func(*MockDashboardService)
		expectedStatus  int
		expectedType    string
		expectedCode    string
		expectedContent string
	}{
		{
			name: "priority svg",
			path: "/api/charts/priority.svg",
			setupMock: func(m *MockDashboardService) {
				m.On("Chart", charts.KindPriority, charts.FormatSVG, mock.Anything).
					Return(services.Image{ContentType: "image/svg+xml", Body: []byte("<svg></svg>")}, nil)
			},
			expectedStatus:  http.StatusOK,
			expectedContent: "image/svg+xml",
		},
		{
			name: "sensitivity png",
			path: "/api/charts/sensitivity.png?top=20",
			setupMock: func(m *MockDashboardService) {
				m.On("Chart", charts.KindSensitivity, charts.FormatPNG, mock.MatchedBy(func(q services.Query) bool {
					return q.TopN == 20
				})).Return(services.Image{ContentType: "image/png", Body: []byte("\x89PNG")}, nil)
			},
			expectedStatus:  http.StatusOK,
			expectedContent: "image/png",
		},
		{
			name:           "unknown kind",
			path:           "/api/charts/pie.svg",
			setupMock:      func(m *MockDashboardService) {},
			expectedStatus: http.StatusNotFound,
			expectedType:   apierrors.TypeNotFound,
			expectedCode:   apierrors.ErrChartNotFound.ErrorCode,
		},
		{
			name:           "unknown format",
			path:           "/api/charts/priority.gif",
			setupMock:      func(m *MockDashboardService) {},
			expectedStatus: http.StatusNotFound,
			expectedType:   apierrors.TypeNotFound,
			expectedCode:   apierrors.ErrChartNotFound.ErrorCode,
		},
		{
			name: "render failure",
			path: "/api/charts/priority.png",
			setupMock: func(m *MockDashboardService) {
				m.On("Chart", charts.KindPriority, charts.FormatPNG, mock.Anything).
					Return(services.Image{}, apierrors.NewRenderError("failed to render priority chart", errors.New("boom")))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedType:   apierrors.TypeRenderFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockDashboardService)
			tt.setupMock(svc)

			w := httptest.NewRecorder()
			newAPIRouter(svc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedContent != "" {
				assert.Equal(t, tt.expectedContent, w.Header().Get("Content-Type"))
				assert.NotZero(t, w.Body.Len())
			}
			if tt.expectedType != "" {
				body := decodeBody(t, w.Body)
				assert.Equal(t, tt.expectedType, body["type"])
				if tt.expectedCode != "" {
					assert.Equal(t, tt.expectedCode, body["error_code"])
				}
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestDashboardHandler_Export(t *testing.T) {
	svc := new(MockDashboardService)
	svc.On("Export", exporter.FormatCSV, mock.MatchedBy(func(q services.Query) bool {
		return q.Filters.Get("priority") == "Prioritas"
	})).Return(services.Download{
		FileName:    "sibolga_filtered_results.csv",
		ContentType: exporter.FormatCSV.ContentType(),
		Body:        []byte("id,type\nUM-002,business\n"),
		Records:     1,
	}, nil)

	w := httptest.NewRecorder()
	newAPIRouter(svc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/export.csv?priority=Prioritas", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, "attachment; filename=sibolga_filtered_results.csv", w.Header().Get("Content-Disposition"))
	assert.True(t, strings.HasPrefix(w.Body.String(), "id,type\n"))
	svc.AssertExpectations(t)
}

func TestDashboardHandler_Export_UnknownFormat(t *testing.T) {
	svc := new(MockDashboardService)

	w := httptest.NewRecorder()
	newAPIRouter(svc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/export.pdf", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	svc.AssertNotCalled(t, "Export", mock.Anything, mock.Anything)
}

func TestDashboardHandler_Export_LoadFailure(t *testing.T) {
	svc := new(MockDashboardService)
	svc.On("Export", exporter.FormatXLSX, mock.Anything).
		Return(services.Download{}, apierrors.NewNetworkError("failed to fetch dataset", errors.New("timeout")))

	w := httptest.NewRecorder()
	newAPIRouter(svc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/export.xlsx", nil))

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Empty(t, w.Header().Get("Content-Disposition"), "no partial download")
}

func TestDashboardHandler_Refresh(t *testing.T) {
	loadedAt := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	svc := new(MockDashboardService)
	svc.On("Refresh").Return(services.DatasetInfo{Source: "https://example.test/data.csv", Records: 4, LoadedAt: loadedAt}, nil)

	router := newAPIRouter(svc)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/refresh", nil))
	require.Equal(t, http.StatusOK, w.Code)
	data, ok := decodeBody(t, w.Body)["data"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(4), data["records"])
	assert.Equal(t, "2026-03-01T08:00:00Z", data["loaded_at"])

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/refresh", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestDashboardHandler_GetDataset(t *testing.T) {
	svc := new(MockDashboardService)
	svc.On("Info").Return(services.DatasetInfo{}, apierrors.NewNetworkError("failed to fetch dataset", errors.New("dial tcp: refused")))

	w := httptest.NewRecorder()
	newAPIRouter(svc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/dataset", nil))

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "dial tcp: refused")
}
