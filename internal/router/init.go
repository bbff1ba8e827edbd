package router

import (
	"github.com/oksasatya/go-ddd-cqrs-users/internal/container"
	handlers "github.com/oksasatya/go-ddd-cqrs-users/internal/interface/http"
	"github.com/oksasatya/go-ddd-cqrs-users/internal/router/modules"
)

func buildUserHandler() *handlers.UserHandler {
	return handlers.NewUserHandler(
		container.GetUserService(),
		container.GetQueryService(),
		container.GetLogger(),
		container.GetImageURL(),
	)
}

// InitModules initializes all application modules and registers them with the router registry
// This function should be called once during application startup to wire up all modules
func InitModules(r *Registry) {
	cfg := container.GetConfig()
	r.Add(modules.NewUserModule(buildUserHandler(), container.GetRedis(), cfg.WriteRateLimit, cfg.WriteRateWindow))
	if cfg.DebugMetricsEnabled {
		r.Add(modules.NewDebugModule(container.GetRedis()))
	}
	r.Add(modules.HealthModule{})
}
