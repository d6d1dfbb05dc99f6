package handler_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"simreg/internal/handler"
)

func TestHealthHandler(t *testing.T) {
	ok := handler.PingFunc(func(context.Context) error { return nil })
	down := handler.PingFunc(func(context.Context) error { return errors.New("connection refused") })

	tests := []struct {
		name   string
		checks map[string]handler.Pinger
		want   int
	}{
		{"no checks", nil, http.StatusOK},
		{"all reachable", map[string]handler.Pinger{"redis": ok}, http.StatusOK},
		{"one down", map[string]handler.Pinger{"redis": ok, "database": down}, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := handler.NewHealthHandler(tt.checks)
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request, _ = http.NewRequest(http.MethodGet, "/readyz", http.NoBody)
			h.Readiness(c)
			assert.Equal(t, tt.want, w.Code)
		})
	}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	handler.NewHealthHandler(map[string]handler.Pinger{"database": down}).Liveness(c)
	assert.Equal(t, http.StatusOK, w.Code)
}
