package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ecorecovery/internal/dashboard"
	"ecorecovery/internal/dataset"
	apierrors "ecorecovery/internal/errors"
	"ecorecovery/internal/services"
	"ecorecovery/internal/shared/testutil"
)

func newTestPageHandler(t *testing.T, svc DashboardServiceInterface, cfg PageConfig) *PageHandler {
	t.Helper()
	deps := newTestDeps()
	h, err := NewPageHandler(svc, deps.validator, cfg, deps.logger, deps.errorHandler)
	require.NoError(t, err)
	return h
}

func TestPageHandler_RendersDashboard(t *testing.T) {
	svc := new(MockDashboardService)
	svc.On("DefaultTopN").Return(15)
	svc.On("View", mock.MatchedBy(func(q services.Query) bool { return q.TopN == 15 })).Return(sampleView(t, 15), nil)

	h := newTestPageHandler(t, svc, PageConfig{Title: "Dashboard Sibolga", Caption: "Catatan: data simulasi."})

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))

	body := w.Body.String()
	for _, want := range []string{
		"<title>Dashboard Sibolga</title>",
		"Entitas tampil",
		"Total MMB (Rp)",
		"7,550,000",
		"Prioritas per Kelurahan",
		`src="/api/charts/priority.svg?top=15"`,
		`src="/api/charts/sensitivity.svg?top=15"`,
		"Top 15 Entitas Prioritas (urut by vuln_synth)",
		`data-id="HH-001"`,
		`href="/api/export.csv?top=15"`,
		`<option value="Aek Habil" selected>`,
		"Catatan: data simulasi.",
	} {
		assert.Contains(t, body, want)
	}
	assert.NotContains(t, body, LoadErrorPrefix)
	svc.AssertExpectations(t)
}

func TestPageHandler_KeepsSelectionInLinks(t *testing.T) {
	ds := dataset.New(testutil.SampleRecords())
	sel := ds.DefaultSelection()
	sel.Type = dataset.NewSet("business")
	view := dashboard.Render(ds, dashboard.State{Selection: sel, TopN: 5})

	svc := new(MockDashboardService)
	svc.On("DefaultTopN").Return(15)
	svc.On("View", mock.Anything).Return(view, nil)

	h := newTestPageHandler(t, svc, PageConfig{Title: "t"})

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/?type=business&top=5", nil))

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `src="/api/charts/priority.svg?top=5&amp;type=business"`)
	assert.Contains(t, body, `<option value="business" selected>`)
	assert.Contains(t, body, `<option value="household">`)
}

func TestPageHandler_LoadFailureShowsBannerOnly(t *testing.T) {
	svc := new(MockDashboardService)
	svc.On("DefaultTopN").Return(15)
	svc.On("View", mock.Anything).Return(dashboard.View{},
		apierrors.NewNetworkError("failed to fetch dataset", errors.New("upstream answered 503")))

	h := newTestPageHandler(t, svc, PageConfig{Title: "t"})

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusBadGateway, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, LoadErrorPrefix+"failed to fetch dataset: upstream answered 503")
	assert.NotContains(t, body, "Entitas tampil")
	assert.NotContains(t, body, "/api/charts/")
	assert.NotContains(t, body, "/api/export.")
}

func TestPageHandler_PlaceholderWarning(t *testing.T) {
	svc := new(MockDashboardService)
	svc.On("DefaultTopN").Return(15)
	svc.On("View", mock.Anything).Return(sampleView(t, 15), nil)

	h := newTestPageHandler(t, svc, PageConfig{Title: "t", PlaceholderURL: true})

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Contains(t, w.Body.String(), "DATA_URL belum diatur")
}

func TestPageHandler_InvalidTop(t *testing.T) {
	svc := new(MockDashboardService)
	svc.On("DefaultTopN").Return(15)

	h := newTestPageHandler(t, svc, PageConfig{Title: "t"})

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/?top=99", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertNotCalled(t, "View", mock.Anything)
}
