package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/personnel-service/internal/api/http/handlers"
	"github.com/spec-kit/personnel-service/internal/auth"
	"github.com/spec-kit/personnel-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Approvals      *handlers.ApprovalsHandler
	Notifications  *handlers.NotificationsHandler
	Activity       *handlers.ActivityHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/metrics", cfg.Health.Metrics)

	app.Post("/auth/login", cfg.Auth.Login)

	staff := app.Group("/staff", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())
	staff.Post("/register", auth.RequireRole(
		domain.RoleDirector,
		domain.RoleManager,
		domain.RoleGeneralSupervisor,
		domain.RoleSupervisor,
		domain.RoleDeveloper,
	), cfg.Approvals.Register)
	staff.Get("/approvals/pending", auth.RequireRole(
		domain.RoleDirector,
		domain.RoleManager,
		domain.RoleGeneralSupervisor,
		domain.RoleAdmin,
		domain.RoleDeveloper,
	), cfg.Approvals.ListPending)
	staff.Post("/approvals/:id/resolve", auth.RequireRole(
		domain.RoleDirector,
		domain.RoleManager,
		domain.RoleGeneralSupervisor,
		domain.RoleDeveloper,
	), cfg.Approvals.Resolve)
	staff.Get("/general-supervisors/:id/supervisors", auth.RequireRole(
		domain.RoleDirector,
		domain.RoleManager,
		domain.RoleGeneralSupervisor,
		domain.RoleAdmin,
		domain.RoleDeveloper,
	), cfg.Approvals.ListSupervisors)

	notifications := app.Group("/notifications", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())
	notifications.Get("/", cfg.Notifications.List)
	notifications.Get("/unread-count", cfg.Notifications.UnreadCount)
	notifications.Post("/read-all", cfg.Notifications.MarkAllRead)
	notifications.Get("/:id/credentials/status", cfg.Notifications.ViewStatus)
	notifications.Post("/:id/credentials/view", cfg.Notifications.ViewCredentials)
	notifications.Post("/:id/read", cfg.Notifications.MarkRead)

	activity := app.Group("/activity", cfg.AuthMiddleware.Handle, auth.RequireRole(
		domain.RoleDirector,
		domain.RoleManager,
		domain.RoleAdmin,
		domain.RoleDeveloper,
	))
	activity.Get("/", cfg.Activity.List)
	activity.Get("/recent", cfg.Activity.Recent)
}
