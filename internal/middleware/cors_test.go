package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"simreg/internal/middleware"
)

func corsRouter(origins []string) *gin.Engine {
	r := gin.New()
	r.Use(middleware.CORS(origins))
	r.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.PUT("/test", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name       string
		origins    []string
		method     string
		origin     string
		wantStatus int
		wantAllow  string
	}{
		{"allowed origin", []string{"https://wizard.example.ph", "http://localhost:5173"}, http.MethodGet, "https://wizard.example.ph", http.StatusOK, "https://wizard.example.ph"},
		{"disallowed origin", []string{"https://wizard.example.ph"}, http.MethodGet, "https://evil.com", http.StatusOK, ""},
		{"no origin header", []string{"https://wizard.example.ph"}, http.MethodGet, "", http.StatusOK, ""},
		{"empty origins list", []string{}, http.MethodGet, "https://wizard.example.ph", http.StatusOK, ""},
		{"preflight allowed", []string{"https://wizard.example.ph"}, http.MethodOptions, "https://wizard.example.ph", http.StatusNoContent, "https://wizard.example.ph"},
		{"preflight disallowed", []string{"https://wizard.example.ph"}, http.MethodOptions, "https://evil.com", http.StatusNoContent, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req, _ := http.NewRequest(tt.method, "/test", http.NoBody)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			corsRouter(tt.origins).ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantAllow, w.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestCORS_PreflightAdvertisesMethodsAndHeaders(t *testing.T) {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodOptions, "/test", http.NoBody)
	req.Header.Set("Origin", "http://localhost:5173")
	corsRouter([]string{"http://localhost:5173"}).ServeHTTP(w, req)

	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "PUT")
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "Authorization")
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
}
