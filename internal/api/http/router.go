package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/livechat-service/internal/api/http/handlers"
	"github.com/spec-kit/livechat-service/internal/auth"
	"github.com/spec-kit/livechat-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Widget         *handlers.WidgetHandler
	AgentChats     *handlers.AgentChatsHandler
	Presence       *handlers.PresenceHandler
	Admin          *handlers.AdminHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/organizations", cfg.Users.CreateOrganization)
	authGroup.Post("/users/register", cfg.Users.Register)
	authGroup.Post("/users/login", cfg.Users.Login)

	// Widget routes resolve the organization from the embedding site's
	// domain; only chat routes require a customer token.
	widget := app.Group("/widget")
	widget.Post("/login", cfg.Widget.Login)
	widget.Get("/categories", cfg.Widget.ListCategories)

	widgetChats := widget.Group("/chats", cfg.AuthMiddleware.Handle, auth.RequireCustomer())
	widgetChats.Post("", cfg.Widget.StartChat)
	widgetChats.Get("", cfg.Widget.ListChats)

	agent := app.Group("/agent", cfg.AuthMiddleware.Handle, auth.RequireRole(domain.RoleAgent, domain.RoleAdmin))
	agent.Get("/chats", cfg.AgentChats.ListMyChats)
	agent.Get("/chats/waiting", cfg.AgentChats.ListWaiting)
	agent.Post("/chats/next", cfg.AgentChats.AssignNext)
	agent.Get("/chats/:id", cfg.AgentChats.GetChat)
	agent.Post("/chats/:id/cancel", cfg.AgentChats.Cancel)
	agent.Post("/chats/:id/close", cfg.AgentChats.Close)
	agent.Post("/chats/:id/notes", cfg.AgentChats.AddNote)
	agent.Get("/customers/:id/notes", cfg.AgentChats.ListCustomerNotes)

	agent.Post("/presence/heartbeat", cfg.Presence.Heartbeat)
	agent.Post("/presence/offline", cfg.Presence.Offline)
	agent.Get("/presence/:id", cfg.Presence.Status)

	admin := app.Group("/admin", cfg.AuthMiddleware.Handle, auth.RequireRole(domain.RoleAdmin))
	admin.Post("/categories", cfg.Admin.CreateCategory)
	admin.Get("/categories", cfg.Admin.ListCategories)
	admin.Put("/categories/:id", cfg.Admin.UpdateCategory)
	admin.Delete("/categories/:id", cfg.Admin.DeleteCategory)
	admin.Post("/teams", cfg.Admin.CreateTeam)
	admin.Get("/teams", cfg.Admin.ListTeams)
	admin.Put("/teams/:id", cfg.Admin.UpdateTeam)
	admin.Delete("/teams/:id", cfg.Admin.DeleteTeam)
	admin.Get("/users", cfg.Admin.ListUsers)
	admin.Put("/users/:id/role", cfg.Admin.UpdateUserRole)
	admin.Get("/customers", cfg.Admin.ListCustomers)
	admin.Post("/domains", cfg.Admin.AddWidgetDomain)
	admin.Get("/domains", cfg.Admin.ListWidgetDomains)
}
