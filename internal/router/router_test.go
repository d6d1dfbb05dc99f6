package router_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"simreg/internal/domain"
	"simreg/internal/handler"
	"simreg/internal/metrics"
	"simreg/internal/router"
	"simreg/internal/service"
	"simreg/internal/wizard"
	"simreg/mocks"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newEngine(wizards *mocks.MockWizardService) *gin.Engine {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	return router.Setup(
		wizards,
		handler.NewWizardHandler(wizards),
		handler.NewReportHandler(wizards),
		handler.NewHealthHandler(nil),
		m,
		promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		[]string{"http://localhost:5173"},
		"admin-key",
	)
}

func serve(r *gin.Engine, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(method, path, http.NoBody)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestRouter_WizardRoutesRequireToken(t *testing.T) {
	wizards := new(mocks.MockWizardService)
	r := newEngine(wizards)

	w := serve(r, http.MethodGet, "/api/v1/wizards/current", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRouter_CurrentWizard(t *testing.T) {
	wizards := new(mocks.MockWizardService)
	wiz := new(mocks.MockWizard)
	id := uuid.New()
	wizards.On("ValidateToken", "tok").Return(&service.WizardClaims{WizardID: id}, nil)
	wizards.On("Get", mock.Anything, id).Return(wiz, nil)
	wiz.On("View", mock.Anything).Return(wizard.View{WizardID: id, Step: domain.StepScanID}, nil)

	w := serve(newEngine(wizards), http.MethodGet, "/api/v1/wizards/current", map[string]string{"Authorization": "Bearer tok"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"step":6`)
}

func TestRouter_AdminReportsRequireKey(t *testing.T) {
	wizards := new(mocks.MockWizardService)
	wizards.On("Funnel").Return([]domain.FunnelRow{}).Maybe()
	r := newEngine(wizards)

	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/api/v1/admin/reports/funnel", nil).Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/api/v1/admin/reports/funnel", map[string]string{"X-API-Key": "admin-key"}).Code)
}

func TestRouter_OperationalEndpoints(t *testing.T) {
	r := newEngine(new(mocks.MockWizardService))

	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/healthz", nil).Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/readyz", nil).Code)

	w := serve(r, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "simreg_http_requests_total"))
}
