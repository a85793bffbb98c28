package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cupost/cupost-api/internal/handlers"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestHealthcheck(t *testing.T) {
	router := gin.New()
	router.GET("/health", handlers.NewHealthHandler().Healthcheck)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok": true}`, w.Body.String())
	assert.Contains(t, w.Header().Get("Cache-Control"), "no-store")
}
