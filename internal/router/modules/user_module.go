package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	handlers "github.com/oksasatya/go-ddd-cqrs-users/internal/interface/http"
	"github.com/oksasatya/go-ddd-cqrs-users/internal/interface/middleware"
)

// UserModule wires the user command and query handlers.
// Commands: POST /users, PATCH /users/:id, PUT /users/:id/{location,contact,password},
// POST /users/:id/image, DELETE /users/:id, POST /users/:id/restore, POST /auth/login
// Queries: GET /users, GET /users/:id
type UserModule struct {
	Handler     *handlers.UserHandler
	Redis       *redis.Client
	WriteLimit  int
	WriteWindow time.Duration
}

func NewUserModule(h *handlers.UserHandler, rdb *redis.Client, writeLimit int, writeWindow time.Duration) *UserModule {
	return &UserModule{Handler: h, Redis: rdb, WriteLimit: writeLimit, WriteWindow: writeWindow}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	// 10 req/min per IP on credential checks, per target user on password changes
	loginLimiter := middleware.RateLimit(m.Redis, 10, time.Minute, middleware.KeyByIPAndPath(), nil)
	passwordLimiter := middleware.RateLimit(m.Redis, 10, time.Minute, middleware.KeyByIPAndParam("id"), nil)
	writeLimiter := middleware.RateLimit(m.Redis, m.WriteLimit, m.WriteWindow, middleware.KeyByIP(), middleware.AllowPrivateIP())

	rg.POST("/auth/login", loginLimiter, m.Handler.Login)

	users := rg.Group("/users")
	users.GET("", m.Handler.Search)
	users.GET("/:id", m.Handler.Get)

	writes := users.Group("", writeLimiter)
	{
		writes.POST("", m.Handler.Create)
		writes.PATCH("/:id", m.Handler.UpdateProfile)
		writes.PUT("/:id/location", m.Handler.UpdateLocation)
		writes.PUT("/:id/contact", m.Handler.ChangeContact)
		writes.PUT("/:id/password", passwordLimiter, m.Handler.ChangePassword)
		writes.POST("/:id/image", m.Handler.UploadImage)
		writes.DELETE("/:id", m.Handler.Delete)
		writes.POST("/:id/restore", m.Handler.Restore)
	}
}
