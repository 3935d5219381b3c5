package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spec-kit/ticket-portal/internal/api/http/handlers"
	"github.com/spec-kit/ticket-portal/internal/auth"
	"github.com/spec-kit/ticket-portal/internal/observability"
)

// Page is a protected page and the backend endpoint holding its data.
type Page struct {
	Path     string
	Name     string
	Endpoint string
}

// Action is a protected form submission forwarded to the backend.
type Action struct {
	Path     string
	Endpoint string
}

// PageRegistry lists every protected page. The admin role is required under /admin.
var PageRegistry = []Page{
	{Path: "/home", Name: "home", Endpoint: "/api/home/user-dashboard"},
	{Path: "/home/ticket", Name: "tickets", Endpoint: "/api/tickets/list"},
	{Path: "/settings", Name: "settings", Endpoint: "/api/home/profile"},
	{Path: "/admin", Name: "admin", Endpoint: "/api/home/admin/dashboard-data"},
	{Path: "/admin/users", Name: "admin-users", Endpoint: "/api/auth/userinfo"},
	{Path: "/admin/services", Name: "admin-services", Endpoint: "/api/services/list"},
	{Path: "/admin/discounts", Name: "admin-discounts", Endpoint: "/api/tickets/discounts/list"},
	{Path: "/admin/payment", Name: "admin-payment", Endpoint: "/api/home/admin/payments/list"},
}

// ActionRegistry lists every protected action.
var ActionRegistry = []Action{
	{Path: "/admin/payment/confirm", Endpoint: "/api/home/admin/payments/confirm"},
	{Path: "/home/ticket/:id/hide", Endpoint: "/api/tickets/:id/hide"},
}

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Pages          *handlers.PagesHandler
	Gate           *handlers.GateHandler
	GateMiddleware *auth.GateMiddleware
	Metrics        *observability.Metrics
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if registry := cfg.Metrics.Registry(); registry != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	}

	authGroup := app.Group("/auth")
	authGroup.Get("/login", cfg.Auth.Page("login"))
	authGroup.Get("/password", cfg.Auth.Page("password"))
	authGroup.Get("/profile", cfg.Auth.Page("profile"))
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/password", cfg.Auth.ChangePassword)
	authGroup.Post("/profile", cfg.Auth.RegisterProfile)
	authGroup.Post("/logout", cfg.Auth.Logout)

	app.Get("/session/gate", cfg.Gate.Check)

	for _, page := range PageRegistry {
		app.Get(page.Path, cfg.GateMiddleware.Require(auth.RequiredRoleFor(page.Path)), cfg.Pages.Page(page.Name, page.Endpoint))
	}
	for _, action := range ActionRegistry {
		app.Post(action.Path, cfg.GateMiddleware.Require(auth.RequiredRoleFor(action.Path)), cfg.Pages.Action(action.Endpoint))
	}
}
