package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spec-kit/smart-resolve/internal/api/http/handlers"
	"github.com/spec-kit/smart-resolve/internal/auth"
	"github.com/spec-kit/smart-resolve/internal/guard"
	"github.com/spec-kit/smart-resolve/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Chat           *handlers.ChatHandler
	Tickets        *handlers.TicketsHandler
	Admin          *handlers.AdminHandler
	Profile        *handlers.ProfileHandler
	Notifications  *handlers.NotificationsHandler
	AuthMiddleware *auth.AuthMiddleware
	Metrics        *observability.Metrics
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(cfg.Metrics.Registry, promhttp.HandlerOpts{})))
	}

	api := app.Group("/api", cfg.AuthMiddleware.Handle)
	requireUser := guard.Require(false)
	requireAdmin := guard.Require(true)

	api.Post("/auth/signup", cfg.Auth.SignUp)
	api.Post("/auth/login", cfg.Auth.Login)
	api.Post("/auth/logout", requireUser, cfg.Auth.Logout)
	api.Get("/auth/session", cfg.Auth.Session)
	api.Get("/navigation", cfg.Auth.Navigation)

	api.Get("/chat", requireUser, guard.RequireCapability(auth.CapChat), cfg.Chat.Get)
	api.Post("/chat/messages", requireUser, guard.RequireCapability(auth.CapChat), cfg.Chat.Send)

	api.Get("/tickets", requireUser, guard.RequireCapability(auth.CapViewOwnTickets), cfg.Tickets.ListTickets)
	api.Get("/tickets/:id", requireUser, guard.RequireCapability(auth.CapViewOwnTickets), cfg.Tickets.GetTicket)
	api.Patch("/tickets/:id/status", requireAdmin, guard.RequireCapability(auth.CapUpdateStatus), cfg.Tickets.UpdateStatus)

	api.Get("/admin/dashboard", requireAdmin, guard.RequireCapability(auth.CapViewAllTickets), cfg.Admin.Dashboard)
	api.Get("/admin/analytics", requireAdmin, guard.RequireCapability(auth.CapViewAnalytics), cfg.Admin.Analytics)

	api.Get("/profile", requireUser, cfg.Profile.Get)
	api.Patch("/profile", requireUser, guard.RequireCapability(auth.CapEditProfile), cfg.Profile.Update)
	api.Get("/notifications", requireUser, cfg.Notifications.Drain)
}
