package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/oksasatya/go-ddd-cqrs-users/internal/router/modules"
)

func TestRegistry_AppliesMiddlewareBeforeModules(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := NewRegistry(gin.New())
	r.Use(func(c *gin.Context) {
		c.Header("X-Seen", "1")
		c.Next()
	})
	r.Add(modules.HealthModule{})
	r.Add(modules.NewDebugModule(nil))
	r.RegisterAll()

	for _, path := range []string{"/api/healthz", "/api/debug/vars"} {
		w := httptest.NewRecorder()
		r.Engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code, path)
		assert.Equal(t, "1", w.Header().Get("X-Seen"), path)
	}
}

func TestRegistry_UnknownRouteIsJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := NewRegistry(gin.New())
	r.RegisterAll()

	w := httptest.NewRecorder()
	r.Engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/nope", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), `"route not found"`)
}
